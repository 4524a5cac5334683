package e2e

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func repoRoot(t *testing.T) string {
	t.Helper()
	root, err := filepath.Abs(filepath.Join("..", ".."))
	if err != nil {
		t.Fatalf("resolve repo root failed: %v", err)
	}
	return root
}

// fakeCompiler answers --version and writes a runnable stub to the -o
// target.
const fakeCompiler = `#!/bin/sh
if [ "$1" = "--version" ]; then
  echo "g++ (Fake) 13.2.0"
  exit 0
fi
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-o" ]; then
    shift
    out="$1"
  fi
  shift
done
if [ -n "$out" ]; then
  mkdir -p "$(dirname "$out")"
  printf '#!/bin/sh\necho hello from demo\n' > "$out"
  chmod +x "$out"
fi
exit 0
`

// buildCLI builds cppx into home/bin and returns it with an environment
// whose HOME is home and whose PATH starts with a fake g++.
func buildCLI(t *testing.T, home string) (string, []string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("e2e tests use shell scripts")
	}
	root := repoRoot(t)
	goModCache := filepath.Join(os.TempDir(), "cppx-gomodcache")
	goCache := filepath.Join(os.TempDir(), "cppx-gocache")
	for _, dir := range []string{goModCache, goCache, filepath.Join(home, "bin"), filepath.Join(home, "fakebin")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("create %s failed: %v", dir, err)
		}
	}
	if err := os.WriteFile(filepath.Join(home, "fakebin", "g++"), []byte(fakeCompiler), 0o755); err != nil {
		t.Fatalf("write fake compiler failed: %v", err)
	}

	env := mergeEnv(os.Environ(), map[string]string{
		"HOME":          home,
		"CPPX_REGISTRY": "",
		"NO_COLOR":      "1",
		"GOMODCACHE":    goModCache,
		"GOCACHE":       goCache,
	})
	bin := filepath.Join(home, "bin", "cppx")
	cmd := exec.Command("go", "build", "-o", bin, "./cmd/cppx")
	cmd.Dir = root
	cmd.Env = env
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("build cli failed: %v\n%s", err, string(out))
	}
	env = mergeEnv(env, map[string]string{"PATH": filepath.Join(home, "fakebin") + string(os.PathListSeparator) + os.Getenv("PATH")})
	return bin, env
}

func runCLI(t *testing.T, bin string, env []string, args ...string) string {
	t.Helper()
	return runCLIWithEnv(t, bin, env, nil, args...)
}

func runCLIWithEnv(t *testing.T, bin string, env []string, extra map[string]string, args ...string) string {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Env = mergeEnv(env, extra)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("command failed: %s\nargs=%v\noutput=%s", err, args, string(out))
	}
	return string(out)
}

func runCLIExpectFail(t *testing.T, bin string, env []string, args ...string) string {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Env = env
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected command to fail\nargs=%v\noutput=%s", args, string(out))
	}
	if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() != 1 {
		t.Fatalf("expected exit status 1, got %d\noutput=%s", exitErr.ExitCode(), string(out))
	}
	return string(out)
}

func mergeEnv(base []string, extra map[string]string) []string {
	if len(extra) == 0 {
		return base
	}
	values := map[string]string{}
	for _, item := range base {
		parts := strings.SplitN(item, "=", 2)
		if len(parts) != 2 {
			continue
		}
		values[parts[0]] = parts[1]
	}
	for k, v := range extra {
		values[k] = v
	}
	out := make([]string, 0, len(values))
	for k, v := range values {
		if v == "" {
			continue
		}
		out = append(out, k+"="+v)
	}
	return out
}

func assertContains(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, out)
	}
}
