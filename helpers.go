package censusdf

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// *********** Conversions ***********

func toFloat(x any) (float64, bool) {
	if f, ok := x.(float64); ok {
		return f, true
	}

	if s, ok := x.(string); ok {
		f, e := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, e == nil
	}

	xv := reflect.ValueOf(x)
	if xv.CanFloat() {
		return xv.Float(), true
	}

	if xv.CanInt() {
		return float64(xv.Int()), true
	}

	if xv.CanUint() {
		return float64(xv.Uint()), true
	}

	return 0, false
}

func toInt(s string) (int, bool) {
	i, e := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return int(i), e == nil
}

// Round rounds x to places decimal places. Halves go to the even neighbour of the scaled value,
// which is what numpy's round does.
func Round(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}

	p := math.Pow10(places)
	return math.RoundToEven(x*p) / p
}

// *********** Other ***********

func has[C comparable](needle C, haystack []C) bool {
	return position(needle, haystack) >= 0
}

func position[C comparable](needle C, haystack []C) int {
	for ind, straw := range haystack {
		if needle == straw {
			return ind
		}
	}

	return -1
}

func validName(name string) error {
	const illegal = "!@#$%^&*()=+-;:'`/.,>< ~" + `"`

	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("empty column name")
	}

	if strings.ContainsAny(name, illegal) {
		return fmt.Errorf("illegal column name: %s", name)
	}

	return nil
}
