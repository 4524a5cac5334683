package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cppx/internal/app"
	"cppx/internal/toolchain"
)

func newBuildCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	var opts toolchain.BuildOptions
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compile the current project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			plan, err := svc.Build(cmd.Context(), opts)
			if err != nil {
				return err
			}
			payload := map[string]any{"artifact": plan.Artifact, "steps": len(plan.Steps), "warnings": plan.Warnings}
			return print(*jsonOutput, payload, "built "+plan.Artifact)
		},
	}
	cmd.Flags().BoolVarP(&opts.Debug, "debug", "d", false, "build with debug symbols")
	cmd.Flags().StringVarP(&opts.Profile, "config", "c", "", "build configuration from [configurations]")
	return cmd
}

func newRunCmd(newSvc func() (*app.Service, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "run [-- args...]",
		Short: "Run the project executable, building it if needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			return svc.Run(cmd.Context(), args)
		},
	}
}

func newTestCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	var opts toolchain.BuildOptions
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Compile and run every test in tests/",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			results, runErr := svc.Test(cmd.Context(), opts)
			if *jsonOutput {
				type row struct {
					Name     string `json:"name"`
					Compiled bool   `json:"compiled"`
					Passed   bool   `json:"passed"`
					Error    string `json:"error,omitempty"`
				}
				rows := make([]row, 0, len(results))
				for _, r := range results {
					rw := row{Name: r.Name, Compiled: r.Compiled, Passed: r.Passed}
					if r.Err != nil {
						rw.Error = r.Err.Error()
					}
					rows = append(rows, rw)
				}
				if err := print(true, rows, ""); err != nil {
					return err
				}
				return runErr
			}
			for _, r := range results {
				switch {
				case r.Passed:
					fmt.Printf("PASS %s\n", r.Name)
				case !r.Compiled:
					fmt.Printf("FAIL %s (compilation)\n", r.Name)
				default:
					fmt.Printf("FAIL %s\n", r.Name)
				}
			}
			return runErr
		},
	}
	cmd.Flags().BoolVarP(&opts.Debug, "debug", "d", true, "compile tests with debug symbols")
	return cmd
}

func newCleanCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the build and docs directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			removed, err := svc.Clean()
			if err != nil {
				return err
			}
			msg := "nothing to clean"
			if len(removed) > 0 {
				msg = "removed " + strings.Join(removed, ", ")
			}
			return print(*jsonOutput, map[string][]string{"removed": removed}, msg)
		},
	}
}

func newDocCmd(newSvc func() (*app.Service, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "doc",
		Short: "Generate documentation with Doxygen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			if err := svc.Doc(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("documentation written to docs/")
			return nil
		},
	}
}

func newFormatCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:     "format [files or globs...]",
		Aliases: []string{"fmt"},
		Short:   "Format sources with clang-format",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			res, err := svc.Format(cmd.Context(), args)
			if *jsonOutput {
				if perr := print(true, res, ""); perr != nil {
					return perr
				}
				return err
			}
			for _, f := range res.Formatted {
				fmt.Println("formatted " + f)
			}
			for _, f := range res.Skipped {
				fmt.Println("skipped " + f)
			}
			return err
		},
	}
}
