package git

import (
	"context"
	"fmt"
	"strings"
)

// SetRefRequest is a request to set a ref to a new hash.
type SetRefRequest struct {
	// Ref is the name of the ref to set.
	// If the ref is a branch or tag, it should be fully qualified
	// (e.g., "refs/heads/main" or "refs/tags/v1.0").
	Ref string

	// Hash is the hash to set the ref to.
	Hash Hash

	// OldHash, if set, specifies the current value of the ref.
	// The ref will only be updated if it currently points to OldHash.
	// Set this to ZeroHash to ensure that a ref being created
	// does not already exist.
	OldHash Hash

	// Reason, if set, is recorded in the reflog entry for this update.
	Reason string
}

// SetRef changes the value of a ref to a new hash.
//
// It optionally allows verifying the current value of the ref
// before updating it.
func (r *Repository) SetRef(ctx context.Context, req SetRefRequest) error {
	// git update-ref -m <reason> <rev> <newvalue> [<oldvalue>]
	args := []string{"update-ref"}
	if req.Reason != "" {
		args = append(args, "-m", req.Reason)
	}
	args = append(args, req.Ref, string(req.Hash))
	if req.OldHash != "" {
		args = append(args, string(req.OldHash))
	}

	return r.gitCmd(ctx, args...).Run(r.exec)
}

// Refspec is a Git refspec, e.g. "refs/heads/*:refs/remotes/origin/*".
// It may optionally have a "+" prefix to indicate a forced update,
// and a wildcard "*" to match multiple refs.
type Refspec string

// Matches reports whether ref matches the source side of the refspec.
func (r Refspec) Matches(ref string) bool {
	src, _, _ := strings.Cut(strings.TrimPrefix(string(r), "+"), ":")
	if !strings.Contains(src, "*") {
		return src == ref
	}

	prefix, suffix, _ := strings.Cut(src, "*")
	return strings.HasPrefix(ref, prefix) &&
		strings.HasSuffix(ref, suffix) &&
		len(ref) >= len(prefix)+len(suffix)
}

// DefaultBranch reports the default branch of a remote.
// The remote must be known to the repository.
func (r *Repository) DefaultBranch(ctx context.Context, remote string) (string, error) {
	ref, err := r.gitCmd(
		ctx, "symbolic-ref", "--short", "refs/remotes/"+remote+"/HEAD").
		OutputString(r.exec)
	if err != nil {
		return "", fmt.Errorf("symbolic-ref: %w", err)
	}

	ref = strings.TrimPrefix(ref, remote+"/")
	return ref, nil
}
