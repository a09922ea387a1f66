package git

import (
	"context"
	"fmt"
	"strings"
)

// Resolver computes, for a local branch, its fetch upstream and push
// target, following the same cascade `git push`/`git pull` use to pick a
// remote ref when none is given explicitly on the command line.
type Resolver struct {
	repo *Repository
}

// NewResolver builds a Resolver backed by repo.
func NewResolver(repo *Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve computes the fetch upstream and push target for branch.
// Either return value may be nil if the branch has no corresponding
// remote ref under the current configuration.
func (res *Resolver) Resolve(ctx context.Context, branch string) (fetchUpstream, pushTarget *RemoteBranch, err error) {
	cfg, err := res.repo.BranchConfig(ctx, branch)
	if err != nil {
		return nil, nil, fmt.Errorf("branch config: %w", err)
	}

	if cfg.Remote != "" && cfg.Merge != "" {
		fetchUpstream = &RemoteBranch{Remote: cfg.Remote, RefName: cfg.Merge}
	}

	pushRemote := cfg.PushRemote
	if pushRemote == "" {
		if v, ok, err := res.repo.RemotePushDefault(ctx); err != nil {
			return nil, nil, fmt.Errorf("remote.pushDefault: %w", err)
		} else if ok {
			pushRemote = v
		}
	}
	if pushRemote == "" {
		pushRemote = cfg.Remote
	}
	if pushRemote == "" {
		// No remote relationship at all: branch is local-only.
		return fetchUpstream, nil, nil
	}

	mode, err := res.repo.PushDefaultMode(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("push.default: %w", err)
	}

	refName, unpushable := res.pushRefName(mode, branch, cfg, pushRemote)
	if unpushable {
		// UnpushableTarget: non-fatal, branch just has no push target.
		return fetchUpstream, nil, nil
	}

	pushTarget = &RemoteBranch{Remote: pushRemote, RefName: refName}
	return fetchUpstream, pushTarget, nil
}

// pushRefName implements the push.default cascade described in §4.2.
// unpushable is true when push.default forbids pushing this branch at all
// (push.default=nothing, push.default=upstream with no upstream set or with
// the upstream on a remote other than pushRemote, or an unrecognized mode).
func (res *Resolver) pushRefName(mode PushDefaultMode, branch string, cfg BranchConfig, pushRemote string) (refName string, unpushable bool) {
	current := "refs/heads/" + branch

	switch mode {
	case PushDefaultNothing:
		return "", true

	case PushDefaultCurrent, PushDefaultMatching:
		return current, false

	case PushDefaultUpstream:
		if cfg.Remote == "" || cfg.Merge == "" || cfg.Remote != pushRemote {
			return "", true
		}
		return cfg.Merge, false

	case PushDefaultSimple:
		// Like "upstream" when the upstream is on the push remote and
		// shares the branch's short name; otherwise like "current".
		if cfg.Remote != "" && cfg.Remote == pushRemote && cfg.Merge != "" {
			if strings.TrimPrefix(cfg.Merge, "refs/heads/") == branch {
				return cfg.Merge, false
			}
		}
		return current, false

	default:
		return "", true
	}
}
