package classify_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.abhg.dev/trim/internal/classify"
	"go.abhg.dev/trim/internal/git"
	"go.abhg.dev/trim/internal/git/gittest"
	"go.abhg.dev/trim/internal/mergetest"
	"go.abhg.dev/trim/internal/text"
)

// openRepo loads a fixture script and wires a Classifier against the real
// git.Repository it produces, exercising the Resolver and Merge Tester
// through actual subprocess invocations rather than fakes.
func openRepo(t *testing.T, script string) *classify.Classifier {
	t.Helper()

	fixture, err := gittest.LoadFixtureScript([]byte(text.Dedent(script)))
	require.NoError(t, err)
	t.Cleanup(fixture.Cleanup)

	repo, err := git.Open(t.Context(), filepath.Join(fixture.Dir(), "repo"), git.OpenOptions{})
	require.NoError(t, err)

	resolver := git.NewResolver(repo)
	tester := mergetest.New(repo)
	return classify.New(repo, resolver, tester, nil)
}

const gitFlowBases = `
	as 'Test <test@example.com>'
	at '2025-06-26T21:28:29Z'

	mkdir repo
	cd repo
	git init --initial-branch=master
	git commit --allow-empty -m 'initial'
	git branch develop
`

// 1. Simple git-flow merged feature, already cleaned up on the remote: the
// branch was never given a tracking configuration (as if it was pushed
// ad-hoc and its remote counterpart is already gone), so only the local
// side is reported.
func TestIntegration_featureToDevelopMerged(t *testing.T) {
	t.Parallel()

	c := openRepo(t, gitFlowBases+`
		git checkout -b feature
		git commit --allow-empty -m 'awesome patch'
		git checkout develop
		git merge --no-ff feature -m 'merge feature'
		git checkout feature
	`)

	result, err := c.Classify(t.Context(), classify.Config{
		Bases:  []string{"develop", "master"},
		Filter: classify.All(),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"refs/heads/feature"}, result.ToDelete.MergedLocals)
	assert.Empty(t, result.ToDelete.MergedRemotes)
}

// 2. Same merge, but the remote-tracking ref for the branch is still
// present (the remote hasn't deleted its copy yet): an additional
// merged_remotes entry should appear alongside the merged local.
func TestIntegration_featureToDevelopMergedRemoteNotDeleted(t *testing.T) {
	t.Parallel()

	c := openRepo(t, gitFlowBases+`
		git checkout -b feature
		git commit --allow-empty -m 'awesome patch'
		git checkout develop
		git merge --no-ff feature -m 'merge feature'
		git config branch.feature.remote origin
		git config branch.feature.merge refs/heads/feature
		git update-ref refs/remotes/origin/feature refs/heads/feature
		git checkout feature
	`)

	result, err := c.Classify(t.Context(), classify.Config{
		Bases:  []string{"develop", "master"},
		Filter: classify.All(),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"refs/heads/feature"}, result.ToDelete.MergedLocals)
	require.Len(t, result.ToDelete.MergedRemotes, 1)
	assert.Equal(t, git.RemoteBranch{Remote: "origin", RefName: "refs/heads/feature"}, result.ToDelete.MergedRemotes[0])
}

// 3. Rejected PR: the branch was pushed and then abandoned without ever
// being merged. Its upstream (origin/feature) is still configured, but the
// remote deleted the branch, so no remote-tracking ref is left for it; it
// never reached either base, so it lands in stray_locals.
func TestIntegration_rejectedFeatureIsStray(t *testing.T) {
	t.Parallel()

	c := openRepo(t, gitFlowBases+`
		git checkout -b feature
		git commit --allow-empty -m 'rejected patch'
		git config branch.feature.remote origin
		git config branch.feature.merge refs/heads/feature
		git checkout develop
	`)

	result, err := c.Classify(t.Context(), classify.Config{
		Bases:  []string{"develop", "master"},
		Filter: classify.All(),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"refs/heads/feature"}, result.ToDelete.StrayLocals)
	assert.Empty(t, result.ToDelete.MergedLocals)
}

// 4. Protected branch, merged and remote-deleted: it must not appear in
// to_delete at all despite otherwise qualifying exactly like scenario 1.
func TestIntegration_protectedMergedBranchNeverDeleted(t *testing.T) {
	t.Parallel()

	c := openRepo(t, gitFlowBases+`
		git checkout -b feature
		git commit --allow-empty -m 'awesome patch'
		git checkout develop
		git merge --no-ff feature -m 'merge feature'
		git checkout feature
	`)

	result, err := c.Classify(t.Context(), classify.Config{
		Bases:             []string{"develop", "master"},
		ProtectedBranches: []string{"refs/heads/feature"},
		Filter:            classify.All(),
	})
	require.NoError(t, err)

	assert.Equal(t, classify.MergedOrStray{}, result.ToDelete)
}

// 5. Triangular workflow: the branch's fetch upstream is a PR ref on
// "upstream" (as `gh pr checkout` would configure), and push.default=upstream
// makes the push target that very same non-heads ref. Since a push target
// not directly under refs/heads/ can never be deleted by pushing, no
// merged_remotes entry is produced even though the branch is merged.
func TestIntegration_triangularWorkflowViaPullRef(t *testing.T) {
	t.Parallel()

	c := openRepo(t, gitFlowBases+`
		git checkout -b feature
		git commit --allow-empty -m 'awesome patch'
		git checkout develop
		git merge --no-ff feature -m 'merge feature'
		git config branch.feature.remote upstream
		git config branch.feature.merge refs/pull/42/head
		git config branch.feature.pushRemote upstream
		git config push.default upstream
		git checkout feature
	`)

	result, err := c.Classify(t.Context(), classify.Config{
		Bases:  []string{"develop", "master"},
		Filter: classify.All(),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"refs/heads/feature"}, result.ToDelete.MergedLocals)
	assert.Empty(t, result.ToDelete.MergedRemotes)
}

// 6. Same triangular fetch-from-upstream-pull-ref setup, but the branch is
// ALSO pushed to a second remote ("origin") under its own heads ref: that
// push target is deletable, so a merged_remotes entry is now present.
func TestIntegration_triangularWorkflowOriginStillHoldsBranch(t *testing.T) {
	t.Parallel()

	c := openRepo(t, gitFlowBases+`
		git checkout -b feature
		git commit --allow-empty -m 'awesome patch'
		git checkout develop
		git merge --no-ff feature -m 'merge feature'
		git config branch.feature.remote upstream
		git config branch.feature.merge refs/pull/42/head
		git config branch.feature.pushRemote origin
		git config push.default simple
		git checkout feature
	`)

	result, err := c.Classify(t.Context(), classify.Config{
		Bases:  []string{"develop", "master"},
		Filter: classify.All(),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"refs/heads/feature"}, result.ToDelete.MergedLocals)
	require.Len(t, result.ToDelete.MergedRemotes, 1)
	assert.Equal(t, git.RemoteBranch{Remote: "origin", RefName: "refs/heads/feature"}, result.ToDelete.MergedRemotes[0])
}
