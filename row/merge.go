package row

// Default suffixes applied to non-key columns present on both sides of a join.
const (
	DefaultLeftSuffix  = "_1"
	DefaultRightSuffix = "_2"
)

// Merge combines a matched pair of rows. Key columns are taken once from
// left. Any other column present in both rows is emitted twice, renamed
// with leftSuffix and rightSuffix; all remaining columns are copied as is.
func Merge(left, right Row, keys []string, leftSuffix, rightSuffix string) Row {
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}

	out := make(Row, len(left)+len(right))
	for c, v := range left {
		if _, clash := right[c]; clash && !isKey[c] {
			out[c+leftSuffix] = v
			continue
		}
		out[c] = v
	}
	for c, v := range right {
		if isKey[c] {
			if _, ok := left[c]; ok {
				continue
			}
			out[c] = v
			continue
		}
		if _, clash := left[c]; clash {
			out[c+rightSuffix] = v
			continue
		}
		out[c] = v
	}
	return out
}
