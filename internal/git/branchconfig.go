package git

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// BranchConfig holds the subset of per-branch Git configuration
// that the push/pull resolution cascade needs.
type BranchConfig struct {
	// Remote is branch.<name>.remote: the remote a branch fetches from.
	// Empty if unset.
	Remote string

	// Merge is branch.<name>.merge: the ref on Remote that the branch
	// tracks. Empty if unset.
	Merge string

	// PushRemote is branch.<name>.pushRemote: the remote a branch pushes
	// to, if it differs from Remote. Empty if unset.
	PushRemote string
}

// BranchConfig reads the per-branch configuration for branch.
func (r *Repository) BranchConfig(ctx context.Context, branch string) (BranchConfig, error) {
	var cfg BranchConfig
	var err error

	if cfg.Remote, err = r.configGet(ctx, "branch."+branch+".remote"); err != nil {
		return BranchConfig{}, fmt.Errorf("branch.%s.remote: %w", branch, err)
	}
	if cfg.Merge, err = r.configGet(ctx, "branch."+branch+".merge"); err != nil {
		return BranchConfig{}, fmt.Errorf("branch.%s.merge: %w", branch, err)
	}
	if cfg.PushRemote, err = r.configGet(ctx, "branch."+branch+".pushRemote"); err != nil {
		return BranchConfig{}, fmt.Errorf("branch.%s.pushRemote: %w", branch, err)
	}

	return cfg, nil
}

// RemotePushDefault reports the value of remote.pushDefault, and whether
// it is set at all.
func (r *Repository) RemotePushDefault(ctx context.Context) (string, bool, error) {
	v, err := r.configGet(ctx, "remote.pushDefault")
	if err != nil {
		return "", false, fmt.Errorf("remote.pushDefault: %w", err)
	}
	return v, v != "", nil
}

// PushDefaultMode is the value of Git's push.default configuration,
// controlling which remote ref `git push` updates for a plain `git push`.
type PushDefaultMode string

// Supported push.default modes.
const (
	PushDefaultNothing  PushDefaultMode = "nothing"
	PushDefaultCurrent  PushDefaultMode = "current"
	PushDefaultUpstream PushDefaultMode = "upstream"
	PushDefaultSimple   PushDefaultMode = "simple"
	PushDefaultMatching PushDefaultMode = "matching"
)

// PushDefaultMode reports the repository's push.default setting.
// If unset, Git's own default ("simple") is reported.
func (r *Repository) PushDefaultMode(ctx context.Context) (PushDefaultMode, error) {
	v, err := r.configGet(ctx, "push.default")
	if err != nil {
		return "", fmt.Errorf("push.default: %w", err)
	}
	if v == "" {
		return PushDefaultSimple, nil
	}

	switch mode := PushDefaultMode(v); mode {
	case PushDefaultNothing, PushDefaultCurrent, PushDefaultUpstream, PushDefaultSimple, PushDefaultMatching:
		return mode, nil
	default:
		return "", fmt.Errorf("unsupported push.default value %q", v)
	}
}

// configGet reads a single configuration value, returning an empty string
// if the key is unset.
func (r *Repository) configGet(ctx context.Context, key string) (string, error) {
	out, err := r.gitCmd(ctx, "config", "--get", key).OutputString(r.exec)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			// Key not present. Not an error for our purposes.
			return "", nil
		}
		return "", err
	}
	return out, nil
}
