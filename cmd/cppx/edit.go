package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cppx/internal/app"
	"cppx/internal/config"
)

func newIgnoreCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "ignore <path>...",
		Short: "Add files or directories to [ignore]",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			results, err := svc.Ignore(args)
			if err != nil {
				return err
			}
			if *jsonOutput {
				rows := make([]map[string]string, 0, len(results))
				for _, r := range results {
					rows = append(rows, map[string]string{"path": r.Path, "outcome": r.Outcome.String()})
				}
				return print(true, rows, "")
			}
			for _, r := range results {
				fmt.Printf("%s: %s\n", r.Path, r.Outcome)
			}
			return nil
		},
	}
}

func newUnignoreCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "unignore <path>...",
		Short: "Remove entries from [ignore]",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			n, err := svc.Unignore(args)
			if err != nil {
				return err
			}
			return print(*jsonOutput, map[string]int{"removed": n}, fmt.Sprintf("removed %d ignore entries", n))
		},
	}
}

func newConfigCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	configCmd := &cobra.Command{Use: "config", Short: "Change project settings"}
	setCmd := &cobra.Command{
		Use:   "set <key=value>",
		Short: "Set an [extra] setting (compiler=clang|clang++|gcc|g++)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			key, value, err := svc.SetConfig(args[0])
			if err != nil {
				return err
			}
			return print(*jsonOutput, map[string]string{key: value}, fmt.Sprintf("%s = %s", key, value))
		},
	}
	configCmd.AddCommand(setCmd)
	return configCmd
}

func newMetadataCmd(newSvc func() (*app.Service, error), jsonOutput *bool, prompt prompter) *cobra.Command {
	var flagM config.Metadata
	cmd := &cobra.Command{
		Use:   "metadata",
		Short: "Set [metadata]; asks interactively when no flags are given",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			m, err := svc.Metadata()
			if err != nil {
				return err
			}
			if anyChanged(cmd, metadataFlags...) {
				overlayMetadata(cmd, &m, flagM)
			} else if err := prompt.Metadata(&m); err != nil {
				return err
			}
			if err := svc.SetMetadata(m); err != nil {
				return err
			}
			return print(*jsonOutput, m, "metadata updated")
		},
	}
	cmd.Flags().StringVar(&flagM.Version, "version", "", "project version")
	cmd.Flags().StringSliceVar(&flagM.Authors, "author", nil, "author (repeatable)")
	cmd.Flags().StringVar(&flagM.Description, "description", "", "short description")
	cmd.Flags().StringVar(&flagM.License, "license", "", "license identifier")
	cmd.Flags().StringVar(&flagM.GitHubUser, "github-user", "", "GitHub owner")
	cmd.Flags().StringVar(&flagM.GitHubRepo, "github-repo", "", "GitHub repository")
	return cmd
}

// overlayMetadata copies the flags the user set onto m.
func overlayMetadata(cmd *cobra.Command, m *config.Metadata, from config.Metadata) {
	changed := cmd.Flags().Changed
	if changed("version") {
		m.Version = from.Version
	}
	if changed("author") {
		m.Authors = from.Authors
	}
	if changed("description") {
		m.Description = from.Description
	}
	if changed("license") {
		m.License = from.License
	}
	if changed("github-user") {
		m.GitHubUser = from.GitHubUser
	}
	if changed("github-repo") {
		m.GitHubRepo = from.GitHubRepo
	}
}

var metadataFlags = []string{"version", "author", "description", "license", "github-user", "github-repo"}

func anyChanged(cmd *cobra.Command, names ...string) bool {
	for _, n := range names {
		if cmd.Flags().Changed(n) {
			return true
		}
	}
	return false
}
