package solution

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ExternalProjectCommand is told about every real project an edit added to
// or removed from the solution, after the solution file was written.
type ExternalProjectCommand interface {
	ProjectAdded(ctx context.Context, solutionPath, projectPath string) error
	ProjectRemoved(ctx context.Context, solutionPath, projectPath string) error
}

// PackageOperations manages package references of a project.
type PackageOperations interface {
	AddPackage(ctx context.Context, projectPath, name, version string) error
	RemovePackage(ctx context.Context, projectPath, name string) error
}

// RenameProvider is told about files renamed through the model, so it can
// fix up references to them.
type RenameProvider interface {
	FileRenamed(ctx context.Context, oldPath, newPath string) error
}

func run(ctx context.Context, bin string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s %s: %w: %s", bin, strings.Join(args, " "), err, msg)
		}
		return fmt.Errorf("%s %s: %w", bin, strings.Join(args, " "), err)
	}
	return nil
}

// Dotnet manages packages with the dotnet CLI.
type Dotnet struct {
	// Binary defaults to "dotnet".
	Binary string
}

func (d Dotnet) bin() string {
	if d.Binary == "" {
		return "dotnet"
	}
	return d.Binary
}

func (d Dotnet) AddPackage(ctx context.Context, projectPath, name, version string) error {
	args := []string{"add", projectPath, "package", name}
	if version != "" {
		args = append(args, "--version", version)
	}
	return run(ctx, d.bin(), args...)
}

func (d Dotnet) RemovePackage(ctx context.Context, projectPath, name string) error {
	return run(ctx, d.bin(), "remove", projectPath, "package", name)
}

// CommandHook runs Command with "added" or "removed", the solution path and
// the project path appended.
type CommandHook struct {
	Command []string
}

func (h CommandHook) invoke(ctx context.Context, event, solutionPath, projectPath string) error {
	if len(h.Command) == 0 {
		return nil
	}
	args := append(append([]string(nil), h.Command[1:]...), event, solutionPath, projectPath)
	return run(ctx, h.Command[0], args...)
}

func (h CommandHook) ProjectAdded(ctx context.Context, solutionPath, projectPath string) error {
	return h.invoke(ctx, "added", solutionPath, projectPath)
}

func (h CommandHook) ProjectRemoved(ctx context.Context, solutionPath, projectPath string) error {
	return h.invoke(ctx, "removed", solutionPath, projectPath)
}
