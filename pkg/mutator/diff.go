package mutator

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff summarises what a mutation added or removed, one hunk per line
// prefixed with "+" or "-". Identical inputs yield an empty string.
func Diff(before, after string) string {
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(before, after, false))

	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			b.WriteString("+ ")
		case diffmatchpatch.DiffDelete:
			b.WriteString("- ")
		default:
			continue
		}
		b.WriteString(strings.TrimRight(d.Text, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}
