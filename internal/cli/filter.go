package cli

import (
	"fmt"
	"strings"

	"go.abhg.dev/trim/internal/classify"
)

// parseDeleteFilter turns a --delete filter expression into a
// classify.DeleteFilter. expr is a comma-separated list of bucket names
// (merged-local, merged-remote, stray-local, stray-remote) or "all". An
// empty expr disables every bucket: nothing is opted into deletion.
// remoteGlob narrows the two remote buckets; it has no effect on "all",
// which always uses "*".
func parseDeleteFilter(expr, remoteGlob string) (classify.DeleteFilter, error) {
	var f classify.DeleteFilter
	if expr == "" {
		return f, nil
	}

	for _, term := range strings.Split(expr, ",") {
		term = strings.TrimSpace(term)
		switch term {
		case "all":
			return classify.All(), nil
		case "merged-local":
			f.MergedLocal = true
		case "merged-remote":
			f.MergedRemote = remoteGlob
		case "stray-local":
			f.StrayLocal = true
		case "stray-remote":
			f.StrayRemote = remoteGlob
		case "":
			// Tolerate trailing/leading commas.
		default:
			return classify.DeleteFilter{}, fmt.Errorf("unknown bucket %q", term)
		}
	}

	return f, nil
}
