package git

import (
	"bufio"
	"context"
	"fmt"
	"iter"
	"strings"
)

// ListRemotes returns a list of remotes for the repository.
func (r *Repository) ListRemotes(ctx context.Context) ([]string, error) {
	cmd := newGitCmd(ctx, r.log, "remote")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("pipe stdout: %w", err)
	}

	if err := cmd.Start(r.exec); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}

	var remotes []string
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		remotes = append(remotes, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	if err := cmd.Wait(r.exec); err != nil {
		return nil, fmt.Errorf("git remote: %w", err)
	}

	return remotes, nil
}

// RemoteURL reports the URL of a known Git remote.
func (r *Repository) RemoteURL(ctx context.Context, remote string) (string, error) {
	url, err := r.gitCmd(ctx, "remote", "get-url", remote).OutputString(r.exec)
	if err != nil {
		return "", fmt.Errorf("remote get-url: %w", err)
	}
	return url, nil
}

// RemoteDefaultBranch reports the default branch of a remote.
// The remote must be known to the repository.
func (r *Repository) RemoteDefaultBranch(ctx context.Context, remote string) (string, error) {
	ref, err := r.gitCmd(
		ctx, "symbolic-ref", "--short", "refs/remotes/"+remote+"/HEAD").
		OutputString(r.exec)
	if err != nil {
		return "", fmt.Errorf("symbolic-ref: %w", err)
	}

	ref = strings.TrimPrefix(ref, remote+"/")
	return ref, nil
}

// RemoteBranch identifies a branch on a remote, independent of whether
// a local remote-tracking ref for it exists.
type RemoteBranch struct {
	// Remote is the name (or URL/path) of the remote.
	Remote string

	// RefName is the full ref name on the remote, e.g. "refs/heads/main".
	RefName string
}

// RemoteTrackingBranch is a local ref under refs/remotes/ that mirrors a
// branch on a remote.
type RemoteTrackingBranch struct {
	// RefName is the fully-qualified local ref, e.g. "refs/remotes/origin/main".
	RefName string

	// Remote is the name of the remote this ref tracks.
	Remote string

	// Hash is the commit this ref currently points to.
	Hash Hash
}

// ListRemoteTracking lists all remote-tracking branches in the repository.
func (r *Repository) ListRemoteTracking(ctx context.Context) ([]RemoteTrackingBranch, error) {
	cmd := r.gitCmd(ctx,
		"for-each-ref", "refs/remotes",
		"--format=%(refname)%09%(objectname)",
	)

	var branches []RemoteTrackingBranch
	for line, err := range cmd.Scan(r.exec, splitLines) {
		if err != nil {
			return nil, fmt.Errorf("git for-each-ref: %w", err)
		}
		if len(line) == 0 {
			continue
		}

		refName, hash, _ := strings.Cut(string(line), "\t")

		// refName is "refs/remotes/<remote>/<branch...>". <remote> is
		// everything up to the next slash.
		trimmed := strings.TrimPrefix(refName, "refs/remotes/")
		remoteName, _, found := strings.Cut(trimmed, "/")
		if !found {
			continue
		}

		// Skip symbolic refs such as refs/remotes/origin/HEAD, which
		// for-each-ref still reports with a resolved objectname.
		if strings.HasSuffix(trimmed, "/HEAD") {
			continue
		}

		branches = append(branches, RemoteTrackingBranch{
			RefName: refName,
			Remote:  remoteName,
			Hash:    Hash(hash),
		})
	}

	return branches, nil
}

// RemoteRef is a reference in a remote Git repository.
type RemoteRef struct {
	// Name is the full name of the reference.
	// For example "refs/heads/main".
	Name string

	// Hash is the Git object hash that the reference points to.
	Hash Hash
}

// ListRemoteRefsOptions control the behavior of ListRemoteRefs.
type ListRemoteRefsOptions struct {
	// Heads filters the references to only those under refs/heads.
	Heads bool

	// Patterns specifies additional filters on the reference names.
	Patterns []string
}

// ListRemoteRefs lists references in a remote Git repository
// that match the given options.
func (r *Repository) ListRemoteRefs(
	ctx context.Context, remote string, opts *ListRemoteRefsOptions,
) iter.Seq2[RemoteRef, error] {
	if opts == nil {
		opts = &ListRemoteRefsOptions{}
	}

	args := []string{"ls-remote", "--quiet"}
	if opts.Heads {
		args = append(args, "--heads")
	}
	args = append(args, remote)
	args = append(args, opts.Patterns...)

	return func(yield func(RemoteRef, error) bool) {
		cmd := r.gitCmd(ctx, args...)
		out, err := cmd.StdoutPipe()
		if err != nil {
			yield(RemoteRef{}, fmt.Errorf("pipe stdout: %w", err))
			return
		}

		if err := cmd.Start(r.exec); err != nil {
			yield(RemoteRef{}, fmt.Errorf("start: %w", err))
			return
		}
		var finished bool
		defer func() {
			if !finished {
				_ = cmd.Kill(r.exec)
			}
		}()

		scanner := bufio.NewScanner(out)
		for scanner.Scan() {
			// Each line is in the form:
			//
			//	<hash> TAB <ref>
			line := scanner.Text()
			oid, ref, ok := strings.Cut(line, "\t")
			if !ok {
				r.log.Warn("Bad ls-remote output", "line", line, "error", "missing a tab")
				continue
			}

			if !yield(RemoteRef{
				Name: ref,
				Hash: Hash(oid),
			}, nil) {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			yield(RemoteRef{}, fmt.Errorf("scan: %w", err))
			return
		}

		if err := cmd.Wait(r.exec); err != nil {
			yield(RemoteRef{}, fmt.Errorf("git ls-remote: %w", err))
			return
		}

		finished = true
	}
}
