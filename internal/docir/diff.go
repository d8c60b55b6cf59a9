package docir

// Op kinds produced by DiffOps.
const (
	OpEqual   = "equal"
	OpInsert  = "insert"
	OpDelete  = "delete"
	OpReplace = "replace"
)

// Op covers old[OldStart:OldEnd] and new[NewStart:NewEnd], SequenceMatcher
// style: a replace run pairs a deleted range with an inserted one.
type Op struct {
	Kind     string
	OldStart int
	OldEnd   int
	NewStart int
	NewEnd   int
}

// DiffOps computes opcode runs between two documents over their flattened
// block content hashes. Block ids are ignored, so rewriting a block in place
// reads as replace, not delete+insert.
func DiffOps(old, new *Document) []Op {
	oldHashes := blockHashes(old)
	newHashes := blockHashes(new)
	return diffHashes(oldHashes, newHashes)
}

// DiffStrings computes opcode runs between two plain string sequences.
// Version history uses it for line-level text diffs.
func DiffStrings(a, b []string) []Op {
	return diffHashes(a, b)
}

func blockHashes(doc *Document) []string {
	blocks := Flatten(doc)
	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = b.ContentHash()
	}
	return out
}

// diffHashes is an LCS opcode diff. Revisions touch tens of blocks, so the
// quadratic table is fine here.
func diffHashes(a, b []string) []Op {
	n, m := len(a), len(b)
	if n == 0 && m == 0 {
		return nil
	}

	// lcs[i][j] = LCS length of a[i:], b[j:].
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	var ops []Op
	push := func(kind string, oldStart, oldEnd, newStart, newEnd int) {
		if len(ops) > 0 {
			last := &ops[len(ops)-1]
			if last.Kind == kind && last.OldEnd == oldStart && last.NewEnd == newStart {
				last.OldEnd = oldEnd
				last.NewEnd = newEnd
				return
			}
		}
		ops = append(ops, Op{Kind: kind, OldStart: oldStart, OldEnd: oldEnd, NewStart: newStart, NewEnd: newEnd})
	}

	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			push(OpEqual, i, i+1, j, j+1)
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			push(OpDelete, i, i+1, j, j)
			i++
		default:
			push(OpInsert, i, i, j, j+1)
			j++
		}
	}
	if i < n {
		push(OpDelete, i, n, j, j)
	}
	if j < m {
		push(OpInsert, i, i, j, m)
	}

	return mergeReplaces(ops)
}

// mergeReplaces folds adjacent delete+insert runs into a single replace.
func mergeReplaces(ops []Op) []Op {
	out := make([]Op, 0, len(ops))
	for k := 0; k < len(ops); k++ {
		cur := ops[k]
		if k+1 < len(ops) {
			next := ops[k+1]
			if cur.Kind == OpDelete && next.Kind == OpInsert {
				out = append(out, Op{Kind: OpReplace, OldStart: cur.OldStart, OldEnd: cur.OldEnd, NewStart: next.NewStart, NewEnd: next.NewEnd})
				k++
				continue
			}
			if cur.Kind == OpInsert && next.Kind == OpDelete {
				out = append(out, Op{Kind: OpReplace, OldStart: next.OldStart, OldEnd: next.OldEnd, NewStart: cur.NewStart, NewEnd: cur.NewEnd})
				k++
				continue
			}
		}
		out = append(out, cur)
	}
	return out
}
