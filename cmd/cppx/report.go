package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"cppx/internal/app"
	"cppx/internal/config"
	"cppx/internal/export"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	sectionStyle = lipgloss.NewStyle().Bold(true).MarginTop(1)
	keyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(22)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func newInfoCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the current project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			info, err := svc.Info(cmd.Context())
			if err != nil {
				return err
			}
			if *jsonOutput {
				payload := map[string]any{"settings": info.Settings, "locked": info.Locked, "problems": info.Problems}
				if info.Repo != nil {
					payload["github"] = info.Repo
				}
				if info.RepoErr != nil {
					payload["github_error"] = info.RepoErr.Error()
				}
				return print(true, payload, "")
			}
			fmt.Println(renderInfo(info))
			return nil
		},
	}
}

func renderInfo(info app.Info) string {
	s := info.Settings
	var b strings.Builder
	line := func(k, v string) {
		if v == "" {
			v = "-"
		}
		b.WriteString(keyStyle.Render(k) + v + "\n")
	}
	section := func(title string) {
		b.WriteString(sectionStyle.Render(title) + "\n")
	}

	b.WriteString(titleStyle.Render(s.Project.Name) + "\n")
	line("path", s.Project.Path)
	line("build", s.OutputName("")+" ("+s.BuildType.String()+")")
	line("compiler", s.Project.Toolchain.Compiler+" "+s.Project.Toolchain.Version)
	if c := s.Extra["compiler"]; c != "" {
		line("compiler override", c)
	}

	section("Metadata")
	line("version", s.Metadata.Version)
	line("authors", strings.Join(s.Metadata.Authors, ", "))
	line("description", s.Metadata.Description)
	line("license", s.Metadata.License)

	section("Sources")
	line("src files", fmt.Sprintf("%d", len(s.SrcFiles)))
	line("include files", fmt.Sprintf("%d", len(s.IncludeFiles)))
	line("include directories", strings.Join(s.IncludeDirs, ", "))
	line("static_linked", strings.Join(s.StaticLinked, ", "))

	section("Dependencies")
	if len(s.Dependencies) == 0 {
		b.WriteString("none\n")
	}
	locked := map[string]bool{}
	for _, p := range info.Locked {
		locked[p.Name] = true
	}
	for _, name := range config.SortedKeys(s.Dependencies) {
		mark := okStyle.Render("locked")
		if !locked[name] {
			mark = warnStyle.Render("not locked")
		}
		line(name, s.Dependencies[name]+"  "+mark)
	}

	if len(s.Configurations) > 0 {
		section("Configurations")
		for _, name := range sortedConfigNames(s.Configurations) {
			c := s.Configurations[name]
			line(name, strings.Join(c.Flags, " "))
		}
	}

	if info.Repo != nil || info.RepoErr != nil {
		section("GitHub")
		if info.RepoErr != nil {
			b.WriteString(warnStyle.Render("unavailable: "+info.RepoErr.Error()) + "\n")
		} else {
			r := info.Repo
			line("repository", r.Name)
			line("description", r.Description)
			line("stars", fmt.Sprintf("%d", r.Stars))
			line("forks", fmt.Sprintf("%d", r.Forks))
			line("open issues", fmt.Sprintf("%d", r.OpenIssues))
			line("last push", r.LastPush)
			line("url", r.URL)
		}
	}

	if len(info.Problems) > 0 {
		section("Problems")
		for _, p := range info.Problems {
			b.WriteString(warnStyle.Render("! "+p) + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func sortedConfigNames(m map[string]config.Configuration) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func newExportCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	var output string
	var force bool
	cmd := &cobra.Command{
		Use:   "export <cmake|json|yaml>",
		Short: "Export the project settings to another format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(args[0])
			if err != nil {
				return err
			}
			svc, err := newSvc()
			if err != nil {
				return err
			}
			res, err := svc.Export(f, output, force)
			if err != nil {
				return err
			}
			if res.Path == "" {
				fmt.Print(string(res.Data))
				return nil
			}
			return print(*jsonOutput, map[string]string{"format": string(f), "path": res.Path}, "wrote "+res.Path)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write json/yaml to this file instead of stdout")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite a CMakeLists.txt cppx did not generate")
	return cmd
}

func newDoctorCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:     "doctor",
		Aliases: []string{"diag", "checkup"},
		Short:   "Run diagnostics",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			report := svc.RunDoctor(cmd.Context())
			if *jsonOutput {
				return print(true, report, "")
			}
			if report.Healthy {
				fmt.Println(okStyle.Render("healthy"))
				return nil
			}
			fmt.Println("issues found:")
			for _, f := range report.Findings {
				fmt.Printf("- [%s] %s\n", f.Code, f.Message)
			}
			return nil
		},
	}
}

func newHistoryCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent changes to the project configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			events, err := svc.History(limit)
			if err != nil {
				return err
			}
			if *jsonOutput {
				return print(true, events, "")
			}
			if len(events) == 0 {
				fmt.Println("no history")
				return nil
			}
			for _, ev := range events {
				status := okStyle.Render(ev.Status)
				if ev.Message != "" {
					status = warnStyle.Render(ev.Status + ": " + ev.Message)
				}
				fmt.Printf("%s  %-14s %s\n", ev.Timestamp, ev.Operation, status)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of events (0 = all)")
	return cmd
}
