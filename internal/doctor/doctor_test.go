package doctor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cppx/internal/config"
	"cppx/internal/document"
	"cppx/internal/scaffold"
)

func findCode(r Report, code string) bool {
	for _, f := range r.Findings {
		if f.Code == code {
			return true
		}
	}
	return false
}

func setupProject(t *testing.T) (registry, root string) {
	t.Helper()
	root, err := scaffold.Create(t.TempDir(), "demo")
	if err != nil {
		t.Fatalf("scaffold: %v", err)
	}
	compiler := filepath.Join(t.TempDir(), "g++")
	if err := os.WriteFile(compiler, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	registry = filepath.Join(t.TempDir(), ".cppxglobal.toml")
	err = config.UpdateRegistry(registry, func(doc *document.Document) error {
		if _, err := config.SetCurrentProject(doc, "demo", root); err != nil {
			return err
		}
		return config.SetToolchain(doc, config.Toolchain{Compiler: "g++", Path: compiler, Version: "13"})
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return registry, root
}

func TestDoctorHealthyProject(t *testing.T) {
	registry, _ := setupProject(t)
	svc := &Service{RegistryPath: registry, LookPath: func(name string) (string, error) { return "/usr/bin/" + name, nil }}
	report := svc.Run(context.Background())
	if !report.Healthy || len(report.Findings) != 0 {
		t.Fatalf("expected healthy report, got %+v", report)
	}
	if report.Project != "demo" || len(report.Tools) != len(Tools) {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestDoctorNotConfigured(t *testing.T) {
	svc := &Service{RegistryPath: filepath.Join(t.TempDir(), "none.toml")}
	report := svc.Run(context.Background())
	if report.Healthy || !findCode(report, "PRJ_NOT_CONFIGURED") {
		t.Fatalf("expected PRJ_NOT_CONFIGURED, got %+v", report)
	}
}

func TestDoctorWarnings(t *testing.T) {
	registry, root := setupProject(t)
	err := config.Update(config.ProjectDocPath(root), func(doc *document.Document) error {
		if err := config.SetMetadata(doc, "version", "one"); err != nil {
			return err
		}
		_, err := config.AddDependency(doc, "fmt", "10.2.1", config.PackageInfo{})
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(root, "src", "main.cpp")); err != nil {
		t.Fatal(err)
	}
	svc := &Service{RegistryPath: registry, LookPath: func(string) (string, error) { return "", errors.New("missing") }}
	report := svc.Run(context.Background())
	for _, code := range []string{"TOOL_MISSING", "MTD_VERSION", "PKG_UNLOCKED", "PRJ_PATH_MISSING"} {
		if !findCode(report, code) {
			t.Errorf("expected %s in %+v", code, report.Findings)
		}
	}
	if !report.Healthy {
		t.Fatalf("warnings alone should keep the report healthy: %+v", report.Findings)
	}
}

func TestDoctorBrokenDocument(t *testing.T) {
	registry, root := setupProject(t)
	if err := os.WriteFile(config.ProjectDocPath(root), []byte("[source\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	report := (&Service{RegistryPath: registry}).Run(context.Background())
	if report.Healthy || !findCode(report, "DOC_PARSE") {
		t.Fatalf("expected DOC_PARSE, got %+v", report.Findings)
	}
}
