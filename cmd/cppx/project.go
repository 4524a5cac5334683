package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cppx/internal/app"
	"cppx/internal/errs"
	"cppx/internal/toolchain"
)

func newProjectCmd(newSvc func() (*app.Service, error), jsonOutput *bool) *cobra.Command {
	projectCmd := &cobra.Command{Use: "project", Short: "Create or select the current project"}

	var parent string
	newCmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a hello-world project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			if parent == "" {
				if parent, err = os.Getwd(); err != nil {
					return err
				}
			}
			root, err := svc.NewProject(parent, args[0])
			if err != nil {
				return err
			}
			return print(*jsonOutput, map[string]string{"name": args[0], "path": root},
				fmt.Sprintf("created project %s at %s\nrun 'cppx project set --path %s' to make it current", args[0], root, root))
		},
	}
	newCmd.Flags().StringVar(&parent, "dir", "", "parent directory (default: current directory)")

	var name, path string
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Make a project current",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			pc, err := svc.SetProject(name, path)
			if err != nil {
				return err
			}
			return print(*jsonOutput, pc, fmt.Sprintf("current project: %s (%s)", pc.Name, pc.Path))
		},
	}
	setCmd.Flags().StringVarP(&name, "name", "n", "", "project name (default: name from config.toml)")
	setCmd.Flags().StringVarP(&path, "path", "p", ".", "project directory")

	projectCmd.AddCommand(newCmd, setCmd)
	return projectCmd
}

func newProfileCmd(newSvc func() (*app.Service, error), jsonOutput *bool, prompt prompter) *cobra.Command {
	var compiler string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Detect compilers and record the toolchain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			found := svc.DetectCompilers(cmd.Context())
			picked, err := pickCompiler(found, compiler, prompt)
			if err != nil {
				return err
			}
			if err := svc.SetToolchain(picked); err != nil {
				return err
			}
			return print(*jsonOutput, picked.Toolchain(), fmt.Sprintf("toolchain: %s %s (%s)", picked.Name, picked.Path, picked.Version))
		},
	}
	cmd.Flags().StringVar(&compiler, "compiler", "", "pick this compiler instead of asking (gcc, g++, clang, clang++)")
	return cmd
}

func pickCompiler(found []toolchain.Compiler, name string, prompt prompter) (toolchain.Compiler, error) {
	if len(found) == 0 {
		return toolchain.Compiler{}, errs.New(errs.KindNotConfigured, "no supported compiler found on PATH")
	}
	if name != "" {
		for _, c := range found {
			if c.Name == name {
				return c, nil
			}
		}
		return toolchain.Compiler{}, errs.New(errs.KindNotConfigured, "compiler %s not found on PATH", name)
	}
	if len(found) == 1 {
		return found[0], nil
	}
	return prompt.SelectCompiler(found)
}
