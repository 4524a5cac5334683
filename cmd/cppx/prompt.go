package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"cppx/internal/config"
	"cppx/internal/toolchain"
)

// prompter asks the user for what a command could not get from flags.
type prompter interface {
	SelectCompiler(compilers []toolchain.Compiler) (toolchain.Compiler, error)
	Confirm(title string) (bool, error)
	Metadata(m *config.Metadata) error
}

type huhPrompter struct{}

func (huhPrompter) SelectCompiler(compilers []toolchain.Compiler) (toolchain.Compiler, error) {
	opts := make([]huh.Option[int], len(compilers))
	for i, c := range compilers {
		label := c.Name + "  " + c.Path
		if c.Version != "" {
			label += "  (" + c.Version + ")"
		}
		opts[i] = huh.NewOption(label, i)
	}
	var picked int
	err := huh.NewSelect[int]().
		Title("Compiler").
		Description("Several compilers were found on PATH.").
		Options(opts...).
		Value(&picked).
		Run()
	if err != nil {
		return toolchain.Compiler{}, err
	}
	return compilers[picked], nil
}

func (huhPrompter) Confirm(title string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	return ok, err
}

func (huhPrompter) Metadata(m *config.Metadata) error {
	authors := strings.Join(m.Authors, ", ")
	required := func(field string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s cannot be empty", field)
			}
			return nil
		}
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Version").Value(&m.Version).Validate(required("version")),
			huh.NewInput().Title("Authors").Description("Comma-separated.").Value(&authors).Validate(required("author")),
			huh.NewInput().Title("Description").Value(&m.Description).Validate(required("description")),
			huh.NewInput().Title("License").Placeholder("MIT").Value(&m.License).Validate(required("license")),
		),
		huh.NewGroup(
			huh.NewInput().Title("GitHub username").Description("Optional.").Value(&m.GitHubUser),
			huh.NewInput().Title("GitHub repository").Description("Optional; needs a username.").Value(&m.GitHubRepo).
				Validate(func(s string) error {
					if strings.TrimSpace(s) != "" && strings.TrimSpace(m.GitHubUser) == "" {
						return fmt.Errorf("a GitHub username is required with a repository")
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	m.Authors = splitList(authors)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
