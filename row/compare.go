package row

import (
	"cmp"
	"fmt"
	"math"
	"strings"
)

const (
	rankNil = iota
	rankBool
	rankNumber
	rankString
	rankList
	rankOther
)

func rank(v any) int {
	switch v.(type) {
	case nil:
		return rankNil
	case bool:
		return rankBool
	case string:
		return rankString
	case []any:
		return rankList
	}
	if IsNumber(v) {
		return rankNumber
	}
	return rankOther
}

// Compare orders two values, returning -1, 0 or +1.
func Compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch ra {
	case rankNil:
		return 0
	case rankBool:
		return compareBool(a.(bool), b.(bool))
	case rankNumber:
		return compareNumbers(a, b)
	case rankString:
		return strings.Compare(a.(string), b.(string))
	case rankList:
		return compareLists(a.([]any), b.([]any))
	default:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

// CompareKeys orders key tuples lexicographically; a proper prefix sorts first.
func CompareKeys(a, b Key) int {
	return compareLists(a, b)
}

// Less reports whether a sorts strictly before b.
func Less(a, b Key) bool {
	return CompareKeys(a, b) < 0
}

func compareLists(a, b []any) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func compareNumbers(a, b any) int {
	na, nb := classify(a), classify(b)
	switch {
	case na.kind == numInt && nb.kind == numInt:
		return cmp.Compare(na.i, nb.i)
	case na.kind == numUint && nb.kind == numUint:
		return cmp.Compare(na.u, nb.u)
	case na.kind == numInt && nb.kind == numUint:
		if na.i < 0 {
			return -1
		}
		return cmp.Compare(uint64(na.i), nb.u)
	case na.kind == numUint && nb.kind == numInt:
		if nb.i < 0 {
			return 1
		}
		return cmp.Compare(na.u, uint64(nb.i))
	}
	return cmp.Compare(na.float(), nb.float())
}

type numKind int

const (
	numInt numKind = iota
	numUint
	numFloat
)

type number struct {
	kind numKind
	i    int64
	u    uint64
	f    float64
}

func (n number) float() float64 {
	switch n.kind {
	case numInt:
		return float64(n.i)
	case numUint:
		return float64(n.u)
	default:
		return n.f
	}
}

// classify reduces any numeric value to its widest representation.
// Integral floats stay floats; comparison widens them when mixed.
func classify(v any) number {
	switch x := v.(type) {
	case int:
		return number{kind: numInt, i: int64(x)}
	case int8:
		return number{kind: numInt, i: int64(x)}
	case int16:
		return number{kind: numInt, i: int64(x)}
	case int32:
		return number{kind: numInt, i: int64(x)}
	case int64:
		return number{kind: numInt, i: x}
	case uint:
		return number{kind: numUint, u: uint64(x)}
	case uint8:
		return number{kind: numUint, u: uint64(x)}
	case uint16:
		return number{kind: numUint, u: uint64(x)}
	case uint32:
		return number{kind: numUint, u: uint64(x)}
	case uint64:
		return number{kind: numUint, u: x}
	case float32:
		return number{kind: numFloat, f: float64(x)}
	case float64:
		return number{kind: numFloat, f: x}
	}
	return number{kind: numFloat, f: math.NaN()}
}
