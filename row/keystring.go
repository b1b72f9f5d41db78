package row

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// KeyString renders k so that two keys produce the same string exactly when
// CompareKeys reports them equal. Used to hash keys.
func KeyString(k Key) string {
	var b strings.Builder
	writeList(&b, k)
	return b.String()
}

func writeList(b *strings.Builder, vals []any) {
	for i, v := range vals {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		writeValue(b, v)
	}
}

func writeValue(b *strings.Builder, v any) {
	switch x := v.(type) {
	case nil:
		b.WriteString("z")
	case bool:
		b.WriteString("b:" + strconv.FormatBool(x))
	case string:
		b.WriteString("s:" + strconv.Quote(x))
	case []any:
		b.WriteString("l:[")
		writeList(b, x)
		b.WriteString("]")
	default:
		if IsNumber(v) {
			b.WriteString("n:" + canonicalNumber(classify(v)))
			return
		}
		b.WriteString("o:" + strconv.Quote(fmt.Sprint(v)))
	}
}

func canonicalNumber(n number) string {
	switch n.kind {
	case numInt:
		return strconv.FormatInt(n.i, 10)
	case numUint:
		if n.u <= math.MaxInt64 {
			return strconv.FormatInt(int64(n.u), 10)
		}
		return strconv.FormatUint(n.u, 10)
	}
	if n.f == math.Trunc(n.f) && math.Abs(n.f) < 1<<63 {
		return strconv.FormatInt(int64(n.f), 10)
	}
	return strconv.FormatFloat(n.f, 'g', -1, 64)
}
