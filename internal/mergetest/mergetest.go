// Package mergetest decides whether one commit's content has made it into
// another, tolerating history rewritten by squash or rebase merges.
package mergetest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.abhg.dev/trim/internal/git"
)

// DefaultWalkDepth bounds how many commits the squash and patch-id checks
// will walk past the merge-base before giving up.
const DefaultWalkDepth = 1000

// Tester decides whether a branch commit is merged into a base commit,
// memoizing per-commit patch-ids and per-(branch, base) verdicts for the
// lifetime of one invocation. A Tester is safe for concurrent use: callers
// may run the per-branch classification loop in parallel.
type Tester struct {
	repo *git.Repository

	// WalkDepth bounds the squash/patch-id commit walk.
	// Zero means DefaultWalkDepth.
	WalkDepth int

	mu       sync.Mutex
	patchIDs map[git.Hash]git.PatchID
	verdicts map[pairKey]bool
}

type pairKey struct {
	branch, base git.Hash
}

// New builds a Tester backed by repo.
func New(repo *git.Repository) *Tester {
	return &Tester{
		repo:     repo,
		patchIDs: make(map[git.Hash]git.PatchID),
		verdicts: make(map[pairKey]bool),
	}
}

func (t *Tester) walkDepth() int {
	if t.WalkDepth > 0 {
		return t.WalkDepth
	}
	return DefaultWalkDepth
}

// MergedInto reports whether branchCommit's content has been merged into
// baseCommit, by ordinary ancestry, squash-equivalence, or rebase
// (patch-id) equivalence.
func (t *Tester) MergedInto(ctx context.Context, branchCommit, baseCommit git.Hash) (bool, error) {
	key := pairKey{branch: branchCommit, base: baseCommit}

	t.mu.Lock()
	if v, ok := t.verdicts[key]; ok {
		t.mu.Unlock()
		return v, nil
	}
	t.mu.Unlock()

	merged, err := t.mergedInto(ctx, branchCommit, baseCommit)
	if err != nil {
		return false, err
	}

	t.mu.Lock()
	t.verdicts[key] = merged
	t.mu.Unlock()

	return merged, nil
}

func (t *Tester) mergedInto(ctx context.Context, branchCommit, baseCommit git.Hash) (bool, error) {
	if t.repo.IsAncestor(ctx, branchCommit, baseCommit) {
		return true, nil
	}

	mergeBase, err := t.repo.MergeBase(ctx, string(branchCommit), string(baseCommit))
	if err != nil {
		// No common ancestor: disjoint histories, never merged.
		return false, nil
	}

	squash, err := t.squashEquivalent(ctx, branchCommit, baseCommit, mergeBase)
	if err != nil {
		return false, fmt.Errorf("squash check: %w", err)
	}
	if squash {
		return true, nil
	}

	rebase, err := t.rebaseEquivalent(ctx, branchCommit, baseCommit, mergeBase)
	if err != nil {
		return false, fmt.Errorf("patch-id check: %w", err)
	}
	return rebase, nil
}

// squashEquivalent reports whether some commit reachable from baseCommit,
// but not before mergeBase, has the same tree as branchCommit's tip.
func (t *Tester) squashEquivalent(ctx context.Context, branchCommit, baseCommit, mergeBase git.Hash) (bool, error) {
	branchTree, err := t.repo.TreeID(ctx, branchCommit)
	if err != nil {
		return false, fmt.Errorf("branch tree: %w", err)
	}

	for ct, err := range t.repo.ListCommitTrees(ctx, mergeBase, baseCommit, t.walkDepth()) {
		if err != nil {
			return false, err
		}
		if ct.Tree == branchTree {
			return true, nil
		}
	}
	return false, nil
}

// rebaseEquivalent reports whether every non-merge commit unique to
// branchCommit (relative to mergeBase) has a matching patch-id among the
// non-merge commits unique to baseCommit.
func (t *Tester) rebaseEquivalent(ctx context.Context, branchCommit, baseCommit, mergeBase git.Hash) (bool, error) {
	branchPatchIDs, err := t.patchIDRange(ctx, mergeBase, branchCommit, t.walkDepth())
	if err != nil {
		return false, fmt.Errorf("branch patch-ids: %w", err)
	}
	if len(branchPatchIDs) == 0 {
		// No commits past the merge-base: already handled by ancestry,
		// but treat consistently if we got here some other way.
		return true, nil
	}

	basePatchIDs, err := t.patchIDRange(ctx, mergeBase, baseCommit, t.walkDepth())
	if err != nil {
		return false, fmt.Errorf("base patch-ids: %w", err)
	}

	baseSet := make(map[git.PatchID]struct{}, len(basePatchIDs))
	for _, id := range basePatchIDs {
		baseSet[id] = struct{}{}
	}

	for _, id := range branchPatchIDs {
		if _, ok := baseSet[id]; !ok {
			return false, nil
		}
	}
	return true, nil
}

// patchIDRange computes the patch-ids of non-merge commits reachable from
// tip but not from base, bounded by limit.
func (t *Tester) patchIDRange(ctx context.Context, base, tip git.Hash, limit int) ([]git.PatchID, error) {
	revs, err := t.repo.ListCommits(ctx, string(tip), string(base))
	if err != nil {
		return nil, err
	}

	var ids []git.PatchID
	for n := 0; revs.Next() && n < limit; n++ {
		commit := git.Hash(revs.Commit())

		parents, err := t.repo.ParentIDs(ctx, commit)
		if err != nil {
			return nil, err
		}
		if len(parents) > 1 {
			// Merge commits have no unambiguous patch.
			continue
		}

		id, err := t.patchID(ctx, commit)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := revs.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return nil, err
	}

	return ids, nil
}

func (t *Tester) patchID(ctx context.Context, commit git.Hash) (git.PatchID, error) {
	t.mu.Lock()
	if id, ok := t.patchIDs[commit]; ok {
		t.mu.Unlock()
		return id, nil
	}
	t.mu.Unlock()

	id, err := t.repo.PatchID(ctx, commit)
	if err != nil {
		return "", err
	}

	t.mu.Lock()
	t.patchIDs[commit] = id
	t.mu.Unlock()

	return id, nil
}
