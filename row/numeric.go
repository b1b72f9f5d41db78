package row

import (
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// IsNumber reports whether v is a Go integer or float value.
func IsNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

func isInteger(v any) bool {
	return IsNumber(v) && classify(v).kind != numFloat
}

// ToFloat converts a number to float64. Non-numbers report false.
func ToFloat(v any) (float64, bool) {
	if !IsNumber(v) {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	return f, err == nil
}

// ParseFloat is ToFloat that also accepts numeric strings such as "2" or
// " 3.5 ".
func ParseFloat(v any) (float64, bool) {
	if f, ok := ToFloat(v); ok {
		return f, true
	}
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

// Add returns a+b. The result is int when both are int, int64 for any other
// integer mix, and float64 once a float is involved.
func Add(a, b any) any {
	return arith(a, b, func(x, y int) int { return x + y },
		func(x, y int64) int64 { return x + y },
		func(x, y float64) float64 { return x + y })
}

// Mul returns a*b with the same widening rules as Add.
func Mul(a, b any) any {
	return arith(a, b, func(x, y int) int { return x * y },
		func(x, y int64) int64 { return x * y },
		func(x, y float64) float64 { return x * y })
}

func arith(a, b any, onInt func(int, int) int, onInt64 func(int64, int64) int64, onFloat func(float64, float64) float64) any {
	ai, aok := a.(int)
	bi, bok := b.(int)
	if aok && bok {
		return onInt(ai, bi)
	}
	if isInteger(a) && isInteger(b) {
		return onInt64(cast.ToInt64(a), cast.ToInt64(b))
	}
	return onFloat(cast.ToFloat64(a), cast.ToFloat64(b))
}
