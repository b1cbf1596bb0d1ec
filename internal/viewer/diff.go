package viewer

import "github.com/pmezard/go-difflib/difflib"

// lineDelta counts lines added and removed between two versions of the
// source text.
func lineDelta(prev, curr string) (added, removed int) {
	m := difflib.NewMatcher(difflib.SplitLines(prev), difflib.SplitLines(curr))

	for _, op := range m.GetOpCodes() {
		switch op.Tag {
		case 'r':
			removed += op.I2 - op.I1
			added += op.J2 - op.J1
		case 'd':
			removed += op.I2 - op.I1
		case 'i':
			added += op.J2 - op.J1
		}
	}

	return added, removed
}
