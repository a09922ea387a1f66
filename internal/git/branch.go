package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
)

// LocalBranch is a local branch in a repository.
type LocalBranch struct {
	// Name is the short name of the branch, e.g. "main".
	Name string

	// Worktree is the absolute path of the worktree that has this
	// branch checked out. Empty if the branch is not checked out
	// anywhere.
	Worktree string
}

// LocalBranchesOptions control the behavior of LocalBranches.
type LocalBranchesOptions struct {
	// Sort specifies a for-each-ref-style sort key,
	// e.g. "committerdate". Defaults to refname order.
	Sort string
}

// LocalBranches lists local branches in the repository.
func (r *Repository) LocalBranches(ctx context.Context, opts *LocalBranchesOptions) ([]LocalBranch, error) {
	if opts == nil {
		opts = &LocalBranchesOptions{}
	}

	args := []string{
		"for-each-ref", "refs/heads",
		"--format=%(refname:short)%09%(worktreepath)",
	}
	if opts.Sort != "" {
		args = append(args, "--sort="+opts.Sort)
	}

	cmd := r.gitCmd(ctx, args...)

	var branches []LocalBranch
	for line, err := range cmd.Scan(r.exec, splitLines) {
		if err != nil {
			return nil, fmt.Errorf("git for-each-ref: %w", err)
		}
		if len(line) == 0 {
			continue
		}

		name, worktree, _ := bytes.Cut(line, []byte{'\t'})
		branches = append(branches, LocalBranch{
			Name:     string(name),
			Worktree: string(worktree),
		})
	}

	return branches, nil
}

func splitLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// BranchExists reports whether a local branch with the given name exists.
// This never writes to stderr: a missing branch is not an error condition.
func (r *Repository) BranchExists(ctx context.Context, branch string) bool {
	err := r.gitCmd(ctx,
		"show-ref", "--verify", "--quiet", "refs/heads/"+branch,
	).Run(r.exec)
	return err == nil
}

// ErrDetachedHead indicates that the repository is
// unexpectedly in detached HEAD state.
var ErrDetachedHead = errors.New("in detached HEAD state")

// CurrentBranch reports the current branch name.
// It returns [ErrDetachedHead] if the repository is in detached HEAD state.
func (r *Repository) CurrentBranch(ctx context.Context) (string, error) {
	name, err := r.gitCmd(ctx, "branch", "--show-current").
		OutputString(r.exec)
	if err != nil {
		return "", fmt.Errorf("git branch: %w", err)
	}
	name = strings.TrimSpace(name)
	if len(name) == 0 {
		// Per man git-branch, --show-current returns an empty string
		// if the repository is in detached HEAD state.
		return "", ErrDetachedHead
	}
	return name, nil
}

// CreateBranchRequest specifies the parameters for creating a new branch.
//
// Only used by fixture setup in tests: the classification engine never
// creates branches of its own.
type CreateBranchRequest struct {
	// Name of the branch.
	Name string

	// Head is the commitish to start the branch from.
	// Defaults to the current HEAD.
	Head string
}

// CreateBranch creates a new branch in the repository.
// This operation fails if a branch with the same name already exists.
func (r *Repository) CreateBranch(ctx context.Context, req CreateBranchRequest) error {
	args := []string{"branch", req.Name}
	if req.Head != "" {
		args = append(args, req.Head)
	}
	if err := r.gitCmd(ctx, args...).Run(r.exec); err != nil {
		return fmt.Errorf("git branch: %w", err)
	}
	return nil
}

// DetachHead detaches the HEAD from the current branch
// while staying at the same commit.
func (r *Repository) DetachHead(ctx context.Context, commitish string) error {
	args := []string{"checkout", "--detach"}
	if len(commitish) > 0 {
		args = append(args, commitish)
	}
	if err := r.gitCmd(ctx, args...).Run(r.exec); err != nil {
		return fmt.Errorf("git checkout: %w", err)
	}
	return nil
}

// Checkout switches to the specified branch.
// If the branch does not exist, it returns an error.
func (r *Repository) Checkout(ctx context.Context, branch string) error {
	if err := r.gitCmd(ctx, "checkout", branch).Run(r.exec); err != nil {
		return fmt.Errorf("git checkout: %w", err)
	}
	return nil
}

// BranchDeleteOptions specifies options for deleting a branch.
type BranchDeleteOptions struct {
	// Force specifies that a branch should be deleted
	// even if it has unmerged changes.
	Force bool

	// Remote specifies that branch names a remote-tracking ref
	// (e.g. "origin/feature") rather than a local branch.
	// This only removes the local bookkeeping ref;
	// it does not push a deletion to the remote.
	Remote bool
}

// DeleteBranch deletes a branch from the repository.
// It returns an error if the branch does not exist,
// or if it has unmerged changes and the Force option is not set.
func (r *Repository) DeleteBranch(
	ctx context.Context,
	branch string,
	opts BranchDeleteOptions,
) error {
	args := []string{"branch", "--delete"}
	if opts.Force {
		args = append(args, "--force")
	}
	if opts.Remote {
		args = append(args, "--remotes")
	}
	args = append(args, branch)

	if err := r.gitCmd(ctx, args...).Run(r.exec); err != nil {
		return fmt.Errorf("git branch: %w", err)
	}
	return nil
}

// RenameBranchRequest specifies the parameters for renaming a branch.
//
// Only used by fixture setup in tests.
type RenameBranchRequest struct {
	// OldName is the current name of the branch.
	OldName string

	// NewName is the new name for the branch.
	NewName string
}

// RenameBranch renames a branch in the repository.
func (r *Repository) RenameBranch(ctx context.Context, req RenameBranchRequest) error {
	args := []string{"branch", "--move", req.OldName, req.NewName}
	if err := r.gitCmd(ctx, args...).Run(r.exec); err != nil {
		return fmt.Errorf("git branch: %w", err)
	}
	return nil
}

// BranchUpstream reports the upstream branch of a local branch.
// Returns [ErrNotExist] if the branch has no upstream configured.
func (r *Repository) BranchUpstream(ctx context.Context, branch string) (string, error) {
	upstream, err := r.gitCmd(ctx,
		"rev-parse",
		"--abbrev-ref",
		"--verify",
		"--quiet",
		"--end-of-options",
		branch+"@{upstream}",
	).OutputString(r.exec)
	if err != nil {
		return "", ErrNotExist
	}
	return upstream, nil
}

// SetBranchUpstream sets the upstream ref for a local branch.
// The upstream must be in the form "remote/branch".
// If upstream is empty, the branch's upstream is unset.
func (r *Repository) SetBranchUpstream(
	ctx context.Context,
	branch, upstream string,
) error {
	args := []string{"branch"}
	if upstream == "" {
		args = append(args, "--unset-upstream", branch)
	} else {
		args = append(args, "--set-upstream-to="+upstream, branch)
	}
	if err := r.gitCmd(ctx, args...).Run(r.exec); err != nil {
		return fmt.Errorf("git branch: %w", err)
	}
	return nil
}
