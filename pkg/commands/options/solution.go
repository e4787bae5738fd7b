// Package options defines shared flag helpers for CLI commands.
package options

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// SolutionOptions selects the solution file a command works on.
type SolutionOptions struct {
	Path string
}

// AddSolutionArg wires --solution on the provided command.
func AddSolutionArg(cmd *cobra.Command, o *SolutionOptions) {
	cmd.Flags().StringVarP(&o.Path, "solution", "s", "",
		"Path to the .sln file or its directory. Defaults to the only .sln in the working directory.")
}

// Resolve returns the solution file to open. A directory is searched for a
// single .sln file.
func (o *SolutionOptions) Resolve() (string, error) {
	path := strings.TrimSpace(o.Path)
	if path == "" {
		path = "."
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return path, nil
	}

	found, err := filepath.Glob(filepath.Join(path, "*.sln"))
	if err != nil {
		return "", err
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("no .sln file in %s", path)
	case 1:
		return found[0], nil
	default:
		return "", errors.New("more than one .sln file found, choose one with --solution")
	}
}
