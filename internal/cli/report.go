package cli

import (
	"fmt"
	"io"
	"sort"

	"go.abhg.dev/trim/internal/classify"
	"go.abhg.dev/trim/internal/execute"
	"go.abhg.dev/trim/internal/git"
)

// printReport prints result grouped by bucket, sorted by refname within
// each bucket, per the ordering guarantee in §5: result sets themselves are
// unordered, the CLI imposes order before printing.
func printReport(w io.Writer, result *classify.Result) {
	printLocalBucket(w, "merged (local)", result.MergedLocals)
	printRemoteBucket(w, "merged (remote)", result.MergedRemotes)
	printLocalBucket(w, "stray (local)", result.StrayLocals)
	printRemoteBucket(w, "stray (remote)", result.StrayRemotes)
	printLocalBucket(w, "kept back", result.KeptBacks)

	if len(result.UnresolvedBases) > 0 {
		bases := append([]string(nil), result.UnresolvedBases...)
		sort.Strings(bases)
		fmt.Fprintf(w, "unresolved bases: %v\n", bases)
	}
	if len(result.BranchErrors) > 0 {
		names := make([]string, 0, len(result.BranchErrors))
		for name := range result.BranchErrors {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "error: %s: %v\n", name, result.BranchErrors[name])
		}
	}
}

func printLocalBucket(w io.Writer, label string, refs []string) {
	if len(refs) == 0 {
		return
	}
	sorted := append([]string(nil), refs...)
	sort.Strings(sorted)

	fmt.Fprintf(w, "%s:\n", label)
	for _, ref := range sorted {
		fmt.Fprintf(w, "  %s\n", ref)
	}
}

func printRemoteBucket(w io.Writer, label string, refs []git.RemoteBranch) {
	if len(refs) == 0 {
		return
	}
	sorted := append([]git.RemoteBranch(nil), refs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RefName < sorted[j].RefName })

	fmt.Fprintf(w, "%s:\n", label)
	for _, rb := range sorted {
		fmt.Fprintf(w, "  %s (%s)\n", rb.RefName, rb.Remote)
	}
}

// printOutcomes reports what the Deletion Executor actually did.
func printOutcomes(w io.Writer, outcomes []execute.Outcome) {
	for _, o := range outcomes {
		switch {
		case o.DetachRequired:
			fmt.Fprintf(w, "skipped %s: checked out, rerun without --no-detach\n", o.RefName)
		case o.Err != nil:
			fmt.Fprintf(w, "failed %s: %v\n", o.RefName, o.Err)
		case o.Remote != "":
			fmt.Fprintf(w, "deleted %s (%s)\n", o.RefName, o.Remote)
		default:
			fmt.Fprintf(w, "deleted %s\n", o.RefName)
		}
	}
}
