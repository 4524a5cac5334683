package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"cppx/internal/app"
	"cppx/internal/logging"
	"cppx/internal/runner"
)

type ExitCoder interface {
	ExitCode() int
}

type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }
func (e *exitError) ExitCode() int { return e.code }

var errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("[ERROR] "+err.Error()))
		var ex ExitCoder
		if errors.As(err, &ex) {
			os.Exit(ex.ExitCode())
		}
		os.Exit(1)
	}
}

type rootFlags struct {
	registry string
	json     bool
	verbose  bool
	quiet    bool
	noColor  bool
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(huhPrompter{})
}

func newRootCmdWith(prompt prompter) *cobra.Command {
	var flags rootFlags

	newSvc := func() (*app.Service, error) {
		logger := logging.New("cppx")
		return app.New(app.Options{
			RegistryPath: flags.registry,
			Runner:       runner.Exec{Stdout: os.Stdout, Stderr: os.Stderr, Log: logger},
			Logger:       logger,
		})
	}

	cmd := &cobra.Command{
		Use:           "cppx",
		Short:         "Project configuration manager for C and C++",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("verbose") && os.Getenv("CPPX_VERBOSE") != "" {
				flags.verbose = true
			}
			if !cmd.Flags().Changed("quiet") && os.Getenv("CPPX_QUIET") != "" {
				flags.quiet = true
			}
			if !cmd.Flags().Changed("no-color") && (os.Getenv("NO_COLOR") != "" || os.Getenv("CPPX_NO_COLOR") != "") {
				flags.noColor = true
			}
			logging.Setup(flags.verbose, flags.quiet, os.Getenv("CPPX_LOG_FORMAT") == "json")
			if flags.noColor {
				lipgloss.SetColorProfile(termenv.Ascii)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&flags.registry, "registry", "", "path to the registry file (env: CPPX_REGISTRY)")
	cmd.PersistentFlags().BoolVar(&flags.json, "json", false, "output JSON")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging (env: CPPX_VERBOSE)")
	cmd.PersistentFlags().BoolVarP(&flags.quiet, "quiet", "q", false, "only log errors (env: CPPX_QUIET)")
	cmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "disable colored output (env: CPPX_NO_COLOR, NO_COLOR)")

	jsonOutput := &flags.json
	cmd.AddCommand(newProjectCmd(newSvc, jsonOutput))
	cmd.AddCommand(newProfileCmd(newSvc, jsonOutput, prompt))
	cmd.AddCommand(newBuildCmd(newSvc, jsonOutput))
	cmd.AddCommand(newRunCmd(newSvc))
	cmd.AddCommand(newTestCmd(newSvc, jsonOutput))
	cmd.AddCommand(newCleanCmd(newSvc, jsonOutput))
	cmd.AddCommand(newWatchCmd(newSvc))
	cmd.AddCommand(newIgnoreCmd(newSvc, jsonOutput))
	cmd.AddCommand(newUnignoreCmd(newSvc, jsonOutput))
	cmd.AddCommand(newPkgCmd(newSvc, jsonOutput, prompt))
	cmd.AddCommand(newExportCmd(newSvc, jsonOutput))
	cmd.AddCommand(newConfigCmd(newSvc, jsonOutput))
	cmd.AddCommand(newMetadataCmd(newSvc, jsonOutput, prompt))
	cmd.AddCommand(newInfoCmd(newSvc, jsonOutput))
	cmd.AddCommand(newDocCmd(newSvc))
	cmd.AddCommand(newFormatCmd(newSvc, jsonOutput))
	cmd.AddCommand(newDoctorCmd(newSvc, jsonOutput))
	cmd.AddCommand(newHistoryCmd(newSvc, jsonOutput))
	cmd.AddCommand(newVersionCmd(jsonOutput))

	return cmd
}

func print(jsonOutput bool, payload any, message string) error {
	if jsonOutput {
		blob, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(blob))
		return nil
	}
	if message != "" {
		fmt.Println(message)
	}
	return nil
}
