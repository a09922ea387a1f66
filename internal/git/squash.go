package git

import (
	"context"
	"fmt"
	"iter"
	"strconv"
	"strings"
)

// CommitTree pairs a commit with the tree it produced.
type CommitTree struct {
	Commit Hash
	Tree   Hash
}

// ListCommitTrees lists the (commit, tree) pairs reachable from stop but not
// from start, bounded to at most limit entries (0 means unbounded). This is
// the primitive squash-equivalence checking needs: it never has to build or
// walk a tree object, only compare the tree OIDs Git already reports for
// each commit in the range.
func (r *Repository) ListCommitTrees(ctx context.Context, start, stop Hash, limit int) iter.Seq2[CommitTree, error] {
	args := []string{"log", "--format=%H %T"}
	if limit > 0 {
		args = append(args, "--max-count="+strconv.Itoa(limit))
	}
	args = append(args, string(stop))
	if start != "" {
		args = append(args, "--not", string(start))
	}

	cmd := r.gitCmd(ctx, args...)
	return func(yield func(CommitTree, error) bool) {
		for line, err := range cmd.Scan(r.exec, splitLines) {
			if err != nil {
				yield(CommitTree{}, fmt.Errorf("git log: %w", err))
				return
			}
			if len(line) == 0 {
				continue
			}

			commit, tree, ok := strings.Cut(string(line), " ")
			if !ok {
				continue
			}

			if !yield(CommitTree{Commit: Hash(commit), Tree: Hash(tree)}, nil) {
				return
			}
		}
	}
}
