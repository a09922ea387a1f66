package classify

import (
	"path"

	"go.abhg.dev/trim/internal/git"
)

// apply narrows raw into the subset of buckets selected by f. Local buckets
// are included wholesale when enabled; remote buckets are further narrowed
// per-entry by matching Remote against the configured glob.
func (f DeleteFilter) apply(raw MergedOrStray) MergedOrStray {
	var out MergedOrStray

	if f.MergedLocal {
		out.MergedLocals = raw.MergedLocals
	}
	if f.StrayLocal {
		out.StrayLocals = raw.StrayLocals
	}
	out.MergedRemotes = filterRemotes(raw.MergedRemotes, f.MergedRemote)
	out.StrayRemotes = filterRemotes(raw.StrayRemotes, f.StrayRemote)

	// KeptBacks is never eligible for deletion; it's informational only.
	return out
}

func filterRemotes(remotes []git.RemoteBranch, glob string) []git.RemoteBranch {
	if glob == "" {
		return nil
	}

	var out []git.RemoteBranch
	for _, rb := range remotes {
		if ok, _ := path.Match(glob, rb.Remote); ok {
			out = append(out, rb)
		}
	}
	return out
}
