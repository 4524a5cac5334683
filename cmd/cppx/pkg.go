package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cppx/internal/app"
	"cppx/internal/errs"
	"cppx/internal/pkgmgr"
)

func newPkgCmd(newSvc func() (*app.Service, error), jsonOutput *bool, prompt prompter) *cobra.Command {
	pkgCmd := &cobra.Command{Use: "pkg", Short: "Manage conan dependencies"}

	var version string
	installCmd := &cobra.Command{
		Use:     "install <name>[/<version>]",
		Aliases: []string{"add", "i"},
		Short:   "Install a package and add its paths to config.toml",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if n, v, err := pkgmgr.SplitRef(name); err == nil {
				name = n
				if version == "" {
					version = v
				}
			}
			if version == "" {
				return errs.New(errs.KindSchema, "a version is required: use <name>/<version> or --version")
			}
			svc, err := newSvc()
			if err != nil {
				return err
			}
			change, err := svc.InstallPackage(cmd.Context(), name, version)
			if err != nil {
				return err
			}
			return print(*jsonOutput, change, fmt.Sprintf("installed %s/%s (+%d include dirs, +%d libs, +%d lib dirs)",
				change.Name, change.Version, change.IncludeDirsAdded, change.LibsAdded, change.LibDirsAdded))
		},
	}
	installCmd.Flags().StringVar(&version, "version", "", "package version")

	var yes bool
	removeCmd := &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm", "uninstall"},
		Short:   "Remove a package and the paths it added",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			if !yes {
				ok, err := prompt.Confirm(fmt.Sprintf("Remove %s from the project?", args[0]))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println("aborted")
					return nil
				}
			}
			info, err := svc.RemovePackage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return print(*jsonOutput, info, "removed "+info.Ref)
		},
	}
	removeCmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	pkgCmd.AddCommand(installCmd, removeCmd)
	return pkgCmd
}
