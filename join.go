package censusdf

import "fmt"

// JoinType selects which rows Merge keeps.
type JoinType uint8

const (
	Inner JoinType = iota
	Left
)

// LeftJoin returns left with cols of right attached, matched on leftKey == rightKey. Rows of left that
// have no match are kept with nulls in the new columns. Keys in right are expected to be unique; if
// they are not, the first occurrence wins.
func LeftJoin(left, right *DF, leftKey, rightKey string, cols ...string) (*DF, error) {
	lk, e := left.MustColumn(leftKey)
	if e != nil {
		return nil, e
	}

	rows, e := matchRows(lk, right, rightKey)
	if e != nil {
		return nil, e
	}

	out := left.Copy()
	for _, cn := range cols {
		rc, ex := right.MustColumn(cn)
		if ex != nil {
			return nil, ex
		}

		if ex := out.AppendColumn(&Col{name: cn, Vector: rc.Subset(rows)}, false); ex != nil {
			return nil, ex
		}
	}

	return out, nil
}

// Merge joins left and right on the column on, which both must have. Non-key columns present in both
// get suffixes[0] (left) and suffixes[1] (right) appended to their names.
func Merge(left, right *DF, on string, how JoinType, suffixes [2]string) (*DF, error) {
	lk, e := left.MustColumn(on)
	if e != nil {
		return nil, e
	}

	rows, e := matchRows(lk, right, on)
	if e != nil {
		return nil, e
	}

	var leftRows, rightRows []int
	for r, rr := range rows {
		if rr < 0 && how == Inner {
			continue
		}

		leftRows = append(leftRows, r)
		rightRows = append(rightRows, rr)
	}

	var cols []*Col
	for _, c := range left.cols {
		name := c.Name()
		if name != on && right.HasColumns(name) {
			name += suffixes[0]
		}

		cols = append(cols, &Col{name: name, Vector: c.Subset(leftRows)})
	}

	for _, c := range right.cols {
		if c.Name() == on {
			continue
		}

		name := c.Name()
		if left.HasColumns(name) {
			name += suffixes[1]
		}

		cols = append(cols, &Col{name: name, Vector: c.Subset(rightRows)})
	}

	return NewDF(cols...)
}

// matchRows returns, for each element of key, the first row of right whose rightKey matches, or -1.
func matchRows(key *Col, right *DF, rightKey string) ([]int, error) {
	rk, e := right.MustColumn(rightKey)
	if e != nil {
		return nil, e
	}

	if key.VectorType() != rk.VectorType() {
		return nil, fmt.Errorf("key types differ: %s is %s, %s is %s", key.Name(), key.VectorType(),
			rk.Name(), rk.VectorType())
	}

	lookup := make(map[string]int, rk.Len())
	for r := 0; r < rk.Len(); r++ {
		if rk.IsNA(r) {
			continue
		}

		k := rk.ElementString(r)
		if _, ok := lookup[k]; !ok {
			lookup[k] = r
		}
	}

	rows := make([]int, key.Len())
	for r := range rows {
		rows[r] = -1
		if key.IsNA(r) {
			continue
		}

		if rr, ok := lookup[key.ElementString(r)]; ok {
			rows[r] = rr
		}
	}

	return rows, nil
}
