// Package execute deletes the branches a classify.Result says are safe to
// remove. It never decides what to delete — that's the Classifier's job —
// only how.
package execute

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.abhg.dev/trim/internal/classify"
	"go.abhg.dev/trim/internal/git"
	"go.abhg.dev/trim/internal/silog"
)

// Facade is the subset of *git.Repository the executor needs.
type Facade interface {
	CurrentBranch(ctx context.Context) (string, error)
	DetachHead(ctx context.Context, commitish string) error
	DeleteBranch(ctx context.Context, branch string, opts git.BranchDeleteOptions) error
	PushDelete(ctx context.Context, remote, refname string) error
}

// Outcome records what happened to one deletion attempt.
type Outcome struct {
	// RefName is the local refname or remote RemoteBranch.RefName that
	// was targeted.
	RefName string

	// Remote is non-empty for remote deletions.
	Remote string

	// Err is the error encountered, if any. A nil Err means the
	// deletion succeeded.
	Err error

	// DetachRequired is true when a local branch was skipped because it
	// was checked out and Config.Detach was false.
	DetachRequired bool
}

// Config controls how a deletion run behaves.
type Config struct {
	// Detach permits detaching HEAD to delete the currently checked-out
	// branch. If false, that branch is skipped and reported via
	// Outcome.DetachRequired.
	Detach bool
}

// Executor deletes local and remote branches selected by a classify.Result.
type Executor struct {
	facade Facade
	log    *silog.Logger
}

// New builds an Executor backed by facade.
func New(facade Facade, log *silog.Logger) *Executor {
	if log == nil {
		log = silog.Nop()
	}
	return &Executor{facade: facade, log: log}
}

// Run deletes every branch in toDelete, per §4.6: local branches first (via
// `git branch -D`, detaching HEAD first if needed and permitted), then
// remote branches grouped by remote (via `git push <remote> --delete`).
// Run never aborts early on a single failure; every candidate is attempted
// and its outcome recorded.
func (e *Executor) Run(ctx context.Context, toDelete classify.MergedOrStray, cfg Config) ([]Outcome, error) {
	var outcomes []Outcome

	locals := append(append([]string(nil), toDelete.MergedLocals...), toDelete.StrayLocals...)
	sort.Strings(locals)

	current, err := e.facade.CurrentBranch(ctx)
	if err != nil && !errors.Is(err, git.ErrDetachedHead) {
		return nil, fmt.Errorf("current branch: %w", err)
	}

	detached := false
	for _, refName := range locals {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		branch := strings.TrimPrefix(refName, "refs/heads/")
		outcome := Outcome{RefName: refName}

		if branch == current && !detached {
			if !cfg.Detach {
				outcome.DetachRequired = true
				outcomes = append(outcomes, outcome)
				continue
			}
			if err := e.facade.DetachHead(ctx, branch); err != nil {
				outcome.Err = fmt.Errorf("detach head: %w", err)
				outcomes = append(outcomes, outcome)
				continue
			}
			detached = true
		}

		if err := e.facade.DeleteBranch(ctx, branch, git.BranchDeleteOptions{Force: true}); err != nil {
			outcome.Err = fmt.Errorf("delete branch: %w", err)
		}
		outcomes = append(outcomes, outcome)
	}

	remotes := append(append([]git.RemoteBranch(nil), toDelete.MergedRemotes...), toDelete.StrayRemotes...)
	byRemote := make(map[string][]git.RemoteBranch)
	for _, rb := range remotes {
		byRemote[rb.Remote] = append(byRemote[rb.Remote], rb)
	}

	remoteNames := make([]string, 0, len(byRemote))
	for name := range byRemote {
		remoteNames = append(remoteNames, name)
	}
	sort.Strings(remoteNames)

	for _, remote := range remoteNames {
		branches := byRemote[remote]
		sort.Slice(branches, func(i, j int) bool { return branches[i].RefName < branches[j].RefName })

		for _, rb := range branches {
			if err := ctx.Err(); err != nil {
				return outcomes, err
			}

			outcome := Outcome{RefName: rb.RefName, Remote: rb.Remote}
			if err := e.facade.PushDelete(ctx, rb.Remote, rb.RefName); err != nil {
				outcome.Err = fmt.Errorf("push delete: %w", err)
			}
			outcomes = append(outcomes, outcome)
		}
	}

	return outcomes, nil
}
