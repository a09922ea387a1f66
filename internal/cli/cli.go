// Package cli wires the classification engine into a command-line tool:
// flag parsing, repository discovery, and report printing.
package cli

import (
	"context"
	"fmt"
	"io"

	"go.abhg.dev/trim/internal/classify"
	"go.abhg.dev/trim/internal/execute"
	"go.abhg.dev/trim/internal/git"
	"go.abhg.dev/trim/internal/mergetest"
	"go.abhg.dev/trim/internal/silog"
)

// Cmd classifies local branches against a set of base branches and,
// optionally, deletes the ones found merged or stray.
type Cmd struct {
	Bases     []string `name:"bases" sep:"," help:"Base branches to compare against (default: main, master)"`
	Protected []string `name:"protected" sep:"," help:"Glob patterns (refs/heads/...) of branches to never touch"`

	Delete         string `name:"delete" help:"Comma-separated buckets to delete: merged-local,merged-remote,stray-local,stray-remote,all"`
	DryRun         bool   `name:"dry-run" help:"Report what would happen without deleting anything"`
	NoDetach       bool   `name:"no-detach" help:"Never detach HEAD to delete the currently checked-out branch"`
	FilterByRemote string `name:"filter-by-remote" default:"*" help:"Glob restricting which remotes are eligible for remote deletion"`

	// Dir is the repository directory. Empty means the current working
	// directory. Not a flag: set directly by tests and by main.
	Dir string `kong:"-"`
}

// defaultBases is used when the caller configures no bases at all.
var defaultBases = []string{"main", "master"}

// Run opens the repository, classifies its branches, prints a report to
// stdout, and — unless DryRun is set or Delete is empty — deletes the
// selected branches and prints what happened to each.
func (cmd *Cmd) Run(ctx context.Context, stdout io.Writer, log *silog.Logger) error {
	bases := cmd.Bases
	if len(bases) == 0 {
		bases = defaultBases
	}

	repo, err := git.Open(ctx, cmd.Dir, git.OpenOptions{Log: log})
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}

	filter, err := parseDeleteFilter(cmd.Delete, cmd.FilterByRemote)
	if err != nil {
		return fmt.Errorf("parse --delete: %w", err)
	}

	resolver := git.NewResolver(repo)
	tester := mergetest.New(repo)
	classifier := classify.New(repo, resolver, tester, log)

	result, err := classifier.Classify(ctx, classify.Config{
		Bases:             bases,
		ProtectedBranches: cmd.Protected,
		Filter:            filter,
		Detach:            !cmd.NoDetach,
	})
	if err != nil {
		return fmt.Errorf("classify branches: %w", err)
	}

	printReport(stdout, result)

	if cmd.DryRun || cmd.Delete == "" {
		return nil
	}

	executor := execute.New(repo, log)
	outcomes, err := executor.Run(ctx, result.ToDelete, execute.Config{Detach: !cmd.NoDetach})
	if err != nil {
		return fmt.Errorf("execute deletions: %w", err)
	}
	printOutcomes(stdout, outcomes)

	return nil
}
