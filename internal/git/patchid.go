package git

import (
	"bytes"
	"context"
	"fmt"
	"strings"
)

// PatchID is a content hash of a commit's diff against its first parent,
// stable across rebases and cherry-picks that don't alter the diff content.
// See man git-patch-id.
type PatchID string

// PatchID computes the patch-id of commit's diff against its first parent.
// The caller must not invoke this for merge commits: a merge has no single
// unambiguous patch, and git-diff-tree produces no output for one without
// an explicit parent selection.
func (r *Repository) PatchID(ctx context.Context, commit Hash) (PatchID, error) {
	diff, err := r.gitCmd(ctx, "diff-tree", "-p", "--no-color", string(commit)).Output(r.exec)
	if err != nil {
		return "", fmt.Errorf("diff-tree: %w", err)
	}

	out, err := r.gitCmd(ctx, "patch-id", "--stable").
		Stdin(bytes.NewReader(diff)).
		OutputString(r.exec)
	if err != nil {
		return "", fmt.Errorf("patch-id: %w", err)
	}

	id, _, _ := strings.Cut(out, " ")
	return PatchID(id), nil
}
