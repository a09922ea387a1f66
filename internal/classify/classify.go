// Package classify implements the branch classification engine: given a
// repository's local branches and a set of base branches, it partitions
// each local branch (and its remote counterpart, if any) into merged,
// stray, or kept-back buckets.
package classify

import (
	"context"
	"fmt"
	"path"
	"strings"

	"go.abhg.dev/trim/internal/git"
	"go.abhg.dev/trim/internal/must"
	"go.abhg.dev/trim/internal/silog"
)

// Facade is the subset of *git.Repository the Classifier needs to read
// branch and ref state. Narrowed to an interface so tests can substitute a
// mock or fake.
type Facade interface {
	LocalBranches(ctx context.Context, opts *git.LocalBranchesOptions) ([]git.LocalBranch, error)
	PeelToCommit(ctx context.Context, ref string) (git.Hash, error)
	ListRemoteTracking(ctx context.Context) ([]git.RemoteTrackingBranch, error)
}

// Resolver computes a local branch's fetch upstream and push target.
// Satisfied by *git.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, branch string) (fetchUpstream, pushTarget *git.RemoteBranch, err error)
}

// MergeTester decides whether one commit is merged into another.
// Satisfied by *mergetest.Tester.
type MergeTester interface {
	MergedInto(ctx context.Context, branchCommit, baseCommit git.Hash) (bool, error)
}

// DeleteFilter selects which classification buckets the caller wants
// included in Result.ToDelete. Remote buckets are further narrowed by a
// glob matched against the remote identifier.
type DeleteFilter struct {
	MergedLocal  bool
	MergedRemote string // glob; empty disables
	StrayLocal   bool
	StrayRemote  string // glob; empty disables
}

// All returns a filter that opts every bucket into deletion.
func All() DeleteFilter {
	return DeleteFilter{
		MergedLocal:  true,
		MergedRemote: "*",
		StrayLocal:   true,
		StrayRemote:  "*",
	}
}

// Config controls a single classification run.
type Config struct {
	// Bases is an ordered list of base-branch identifiers: short names,
	// full refnames, or remote-tracking refnames.
	Bases []string

	// ProtectedBranches is a set of glob patterns matched against
	// fully-qualified refnames (refs/heads/...). Matching branches are
	// never classified.
	ProtectedBranches []string

	// Filter narrows Result.ToDelete from the raw classification.
	Filter DeleteFilter

	// Detach permits the deletion executor to detach HEAD in order to
	// delete the currently checked-out branch. Unused by the Classifier
	// itself; carried through to the executor.
	Detach bool
}

// MergedOrStray partitions branches into five pairwise-disjoint sets.
type MergedOrStray struct {
	MergedLocals  []string // fully-qualified refnames
	StrayLocals   []string
	MergedRemotes []git.RemoteBranch
	StrayRemotes  []git.RemoteBranch
	KeptBacks     []string
}

// Result is the outcome of a single classification run.
type Result struct {
	MergedOrStray

	// ToDelete is MergedOrStray narrowed by the Config's DeleteFilter.
	ToDelete MergedOrStray

	// UnresolvedBases lists configured base strings that could not be
	// resolved to a commit. Non-fatal: classification proceeds without
	// them.
	UnresolvedBases []string

	// BranchErrors records per-branch failures. A branch with an error
	// here does not appear in any bucket.
	BranchErrors map[string]error
}

// Classifier is the top-level classification algorithm.
type Classifier struct {
	facade   Facade
	resolver Resolver
	tester   MergeTester
	log      *silog.Logger
}

// New builds a Classifier.
func New(facade Facade, resolver Resolver, tester MergeTester, log *silog.Logger) *Classifier {
	if log == nil {
		log = silog.Nop()
	}
	return &Classifier{
		facade:   facade,
		resolver: resolver,
		tester:   tester,
		log:      log,
	}
}

// Classify runs the classification algorithm described in §4.4: resolve
// bases, then for every unprotected local branch determine whether its
// content (and its upstream's content) is merged into any base, and
// whether its fetch upstream still exists.
func (c *Classifier) Classify(ctx context.Context, cfg Config) (*Result, error) {
	baseCommits, baseNames, unresolved, err := c.resolveBases(ctx, cfg.Bases)
	if err != nil {
		return nil, fmt.Errorf("resolve bases: %w", err)
	}

	branches, err := c.facade.LocalBranches(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list local branches: %w", err)
	}

	tracking, err := c.facade.ListRemoteTracking(ctx)
	if err != nil {
		return nil, fmt.Errorf("list remote-tracking branches: %w", err)
	}
	trackingHashes := make(map[string]git.Hash, len(tracking))
	for _, rt := range tracking {
		trackingHashes[rt.RefName] = rt.Hash
	}

	result := &Result{
		UnresolvedBases: unresolved,
		BranchErrors:    make(map[string]error),
	}

	for _, branch := range branches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		refName := "refs/heads/" + branch.Name

		if baseNames[branch.Name] {
			// Base branches are immune, regardless of protection.
			continue
		}
		if matchesAny(cfg.ProtectedBranches, refName) {
			continue
		}

		classification, err := c.classifyBranch(ctx, branch.Name, baseCommits, trackingHashes)
		if err != nil {
			result.BranchErrors[branch.Name] = err
			c.log.Warnf("skipping %s: %v", branch.Name, err)
			continue
		}
		if classification == nil {
			result.KeptBacks = append(result.KeptBacks, refName)
			continue
		}

		if classification.pushTarget != nil && matchesAny(cfg.ProtectedBranches, classification.pushTarget.RefName) {
			continue
		}

		if classification.localMerged {
			result.MergedLocals = append(result.MergedLocals, refName)
			if rb := classification.deletableRemote(); rb != nil {
				result.MergedRemotes = append(result.MergedRemotes, *rb)
			}
		} else {
			result.StrayLocals = append(result.StrayLocals, refName)
		}
	}

	must.Bef(len(result.MergedLocals)+len(result.StrayLocals)+len(result.KeptBacks) <= len(branches),
		"classification produced more branches than were examined")

	result.ToDelete = cfg.Filter.apply(result.MergedOrStray)
	return result, nil
}

// branchClassification is the per-branch outcome of the decision table in
// §4.4, before it's folded into the Result's buckets.
type branchClassification struct {
	localMerged bool
	pushTarget  *git.RemoteBranch
	// remoteEligible is true when the remote counterpart should also be
	// considered for deletion (decision table rows where a
	// merged_remote/stray_remote entry is produced).
	remoteEligible bool
}

func (b *branchClassification) deletableRemote() *git.RemoteBranch {
	if !b.remoteEligible || b.pushTarget == nil {
		return nil
	}
	if !strings.HasPrefix(b.pushTarget.RefName, "refs/heads/") {
		// Non-heads push targets (e.g. refs/pull/<n>/head) can't be
		// deleted with `git push --delete`.
		return nil
	}
	return b.pushTarget
}

func (c *Classifier) classifyBranch(
	ctx context.Context,
	branch string,
	baseCommits []git.Hash,
	trackingHashes map[string]git.Hash,
) (*branchClassification, error) {
	branchCommit, err := c.facade.PeelToCommit(ctx, "refs/heads/"+branch)
	if err != nil {
		return nil, fmt.Errorf("resolve branch commit: %w", err)
	}

	fetchUpstream, pushTarget, err := c.resolver.Resolve(ctx, branch)
	if err != nil {
		return nil, fmt.Errorf("resolve upstream: %w", err)
	}

	var upstreamHash git.Hash
	var upstreamExists bool
	if fetchUpstream != nil {
		trackingRef := trackingRefName(*fetchUpstream)
		if h, ok := trackingHashes[trackingRef]; ok {
			upstreamHash, upstreamExists = h, true
		}
	}

	localMerged, err := c.mergedIntoAny(ctx, branchCommit, baseCommits)
	if err != nil {
		return nil, fmt.Errorf("test branch ancestry: %w", err)
	}

	var upstreamMerged bool
	if upstreamExists {
		upstreamMerged, err = c.mergedIntoAny(ctx, upstreamHash, baseCommits)
		if err != nil {
			return nil, fmt.Errorf("test upstream ancestry: %w", err)
		}
	}

	switch {
	case upstreamExists && localMerged:
		// "yes/yes/yes" and "yes/yes/no" both report the local branch
		// as merged; the remote only comes along for the ride when it, too, has
		// been merged (the decision table's "yes/yes/no" row keeps
		// the remote, since it may hold work past the base).
		return &branchClassification{
			localMerged:    true,
			pushTarget:     pushTarget,
			remoteEligible: upstreamMerged,
		}, nil

	case upstreamExists && !localMerged && upstreamMerged:
		return &branchClassification{
			localMerged:    true,
			pushTarget:     pushTarget,
			remoteEligible: false,
		}, nil

	case upstreamExists && !localMerged && !upstreamMerged:
		return nil, nil // kept back

	case !upstreamExists && localMerged:
		// Upstream is gone. If it was previously tracked (we resolved
		// a fetch upstream at all, just no local tracking ref left
		// for it), the remote counterpart — now addressed via the
		// push target — is still eligible for a delete attempt.
		return &branchClassification{
			localMerged:    true,
			pushTarget:     pushTarget,
			remoteEligible: fetchUpstream != nil,
		}, nil

	default: // !upstreamExists && !localMerged
		if fetchUpstream == nil && pushTarget == nil {
			// Local-only: with no remote relationship at all there is
			// no upstream that could have disappeared, so it is kept.
			return nil, nil
		}
		return &branchClassification{
			localMerged: false,
			pushTarget:  pushTarget,
		}, nil
	}
}

func (c *Classifier) mergedIntoAny(ctx context.Context, commit git.Hash, bases []git.Hash) (bool, error) {
	for _, base := range bases {
		merged, err := c.tester.MergedInto(ctx, commit, base)
		if err != nil {
			return false, err
		}
		if merged {
			return true, nil
		}
	}
	return false, nil
}

// resolveBases resolves each configured base string to a commit. Bases
// that match a local branch exactly by name are also returned in baseNames
// so the main loop can exclude them from classification outright (§4.4.6:
// "a base branch is never marked stray").
func (c *Classifier) resolveBases(ctx context.Context, bases []string) (commits []git.Hash, baseNames map[string]bool, unresolved []string, err error) {
	baseNames = make(map[string]bool, len(bases))

	for _, base := range bases {
		commit, resolveErr := c.facade.PeelToCommit(ctx, base)
		if resolveErr != nil {
			unresolved = append(unresolved, base)
			continue
		}
		commits = append(commits, commit)

		name := strings.TrimPrefix(base, "refs/heads/")
		baseNames[name] = true
	}

	return commits, baseNames, unresolved, nil
}

// trackingRefName computes the local remote-tracking refname that would
// mirror rb, assuming the default fetch refspec
// (+refs/heads/*:refs/remotes/<remote>/*).
func trackingRefName(rb git.RemoteBranch) string {
	short := strings.TrimPrefix(rb.RefName, "refs/heads/")
	return "refs/remotes/" + rb.Remote + "/" + short
}

func matchesAny(patterns []string, refName string) bool {
	for _, pattern := range patterns {
		if ok, _ := path.Match(pattern, refName); ok {
			return true
		}
	}
	return false
}
