package censusdf

import (
	"fmt"
	"math"
	"strconv"
)

// Vector is a typed slice with a null mask. The zero value of na means no nulls.
type Vector struct {
	dt DataTypes

	data any
	na   []bool
}

// MakeVector returns a vector of n zero values of type dt.
func MakeVector(dt DataTypes, n int) *Vector {
	switch dt {
	case DTfloat:
		return &Vector{dt: dt, data: make([]float64, n)}
	case DTint:
		return &Vector{dt: dt, data: make([]int, n)}
	case DTstring:
		return &Vector{dt: dt, data: make([]string, n)}
	default:
		panic(fmt.Errorf("cannot make Vector with data type %s", dt))
	}
}

// NewVector wraps data, which must be a []float64, []int or []string matching dt.
func NewVector(data any, dt DataTypes) (*Vector, error) {
	switch x := data.(type) {
	case []float64:
		if dt == DTfloat {
			return &Vector{dt: dt, data: x}, nil
		}
	case []int:
		if dt == DTint {
			return &Vector{dt: dt, data: x}, nil
		}
	case []string:
		if dt == DTstring {
			return &Vector{dt: dt, data: x}, nil
		}
	}

	return nil, fmt.Errorf("cannot make vector of type %s from %T", dt, data)
}

func (v *Vector) VectorType() DataTypes {
	return v.dt
}

func (v *Vector) Len() int {
	switch x := v.data.(type) {
	case []float64:
		return len(x)
	case []int:
		return len(x)
	case []string:
		return len(x)
	}

	return 0
}

// IsNA reports whether element indx is null.
func (v *Vector) IsNA(indx int) bool {
	if v.na == nil {
		return false
	}

	return v.na[indx]
}

// NACount returns the number of null elements.
func (v *Vector) NACount() int {
	n := 0
	for _, na := range v.na {
		if na {
			n++
		}
	}

	return n
}

func (v *Vector) SetNA(indx int) {
	if indx < 0 || indx >= v.Len() {
		panic(fmt.Errorf("index out of range"))
	}

	if v.na == nil {
		v.na = make([]bool, v.Len())
	}

	v.na[indx] = true
}

func (v *Vector) SetFloat(val float64, indx int) {
	if v.VectorType() != DTfloat {
		panic(fmt.Errorf("vector isn't DTfloat"))
	}

	v.data.([]float64)[indx] = val
	v.clearNA(indx)
}

func (v *Vector) SetInt(val, indx int) {
	if v.VectorType() != DTint {
		panic(fmt.Errorf("vector isn't DTint"))
	}

	v.data.([]int)[indx] = val
	v.clearNA(indx)
}

func (v *Vector) SetString(val string, indx int) {
	if v.VectorType() != DTstring {
		panic(fmt.Errorf("vector isn't DTstring"))
	}

	v.data.([]string)[indx] = val
	v.clearNA(indx)
}

func (v *Vector) clearNA(indx int) {
	if v.na != nil {
		v.na[indx] = false
	}
}

// Element returns element indx, or nil if it is null.
func (v *Vector) Element(indx int) any {
	if indx < 0 || indx >= v.Len() {
		panic(fmt.Errorf("index out of range"))
	}

	if v.IsNA(indx) {
		return nil
	}

	switch x := v.data.(type) {
	case []float64:
		return x[indx]
	case []int:
		return x[indx]
	case []string:
		return x[indx]
	}

	panic(fmt.Errorf("error in Element"))
}

// ElementFloat returns element indx as a float and false if it's null or not numeric.
func (v *Vector) ElementFloat(indx int) (float64, bool) {
	if v.IsNA(indx) {
		return 0, false
	}

	switch x := v.data.(type) {
	case []float64:
		return x[indx], !math.IsNaN(x[indx])
	case []int:
		return float64(x[indx]), true
	case []string:
		f, e := strconv.ParseFloat(x[indx], 64)
		return f, e == nil
	}

	return 0, false
}

// ElementString returns element indx formatted as a string; nulls are "".
func (v *Vector) ElementString(indx int) string {
	if v.IsNA(indx) {
		return ""
	}

	switch x := v.data.(type) {
	case []float64:
		return strconv.FormatFloat(x[indx], 'f', -1, 64)
	case []int:
		return strconv.Itoa(x[indx])
	case []string:
		return x[indx]
	}

	return ""
}

// AsFloat returns the data as floats. Nulls come back as NaN.
func (v *Vector) AsFloat() []float64 {
	xOut := make([]float64, v.Len())
	for ind := range xOut {
		if x, ok := v.ElementFloat(ind); ok {
			xOut[ind] = x
			continue
		}

		xOut[ind] = math.NaN()
	}

	return xOut
}

// AsInt returns the data as ints. Nulls and unparseable strings come back as 0.
func (v *Vector) AsInt() []int {
	if v.dt == DTint && v.na == nil {
		return v.data.([]int)
	}

	xOut := make([]int, v.Len())
	for ind := range xOut {
		if x, ok := v.ElementFloat(ind); ok {
			xOut[ind] = int(x)
		}
	}

	return xOut
}

// AsString returns the data as strings. Nulls come back as "".
func (v *Vector) AsString() []string {
	if v.dt == DTstring && v.na == nil {
		return v.data.([]string)
	}

	xOut := make([]string, v.Len())
	for ind := range xOut {
		xOut[ind] = v.ElementString(ind)
	}

	return xOut
}

// Coerce returns a new vector of type dt. Elements that can't be converted become null.
func (v *Vector) Coerce(dt DataTypes) *Vector {
	n := v.Len()
	out := MakeVector(dt, n)
	for ind := 0; ind < n; ind++ {
		if v.IsNA(ind) {
			out.SetNA(ind)
			continue
		}

		switch dt {
		case DTstring:
			out.SetString(v.ElementString(ind), ind)
		case DTfloat:
			if x, ok := v.ElementFloat(ind); ok {
				out.SetFloat(x, ind)
				continue
			}
			out.SetNA(ind)
		case DTint:
			if x, ok := v.ElementFloat(ind); ok && x == math.Trunc(x) {
				out.SetInt(int(x), ind)
				continue
			}
			out.SetNA(ind)
		}
	}

	return out
}

// FillNA returns a copy with nulls replaced by val. val must be convertible to the vector's type.
func (v *Vector) FillNA(val any) *Vector {
	out := v.Copy()
	for ind := 0; ind < out.Len(); ind++ {
		if !out.IsNA(ind) {
			continue
		}

		switch out.dt {
		case DTfloat:
			x, _ := toFloat(val)
			out.SetFloat(x, ind)
		case DTint:
			x, _ := toFloat(val)
			out.SetInt(int(x), ind)
		case DTstring:
			out.SetString(fmt.Sprintf("%v", val), ind)
		}
	}

	return out
}

// Subset returns the elements at rows, in that order. A negative row yields a null.
func (v *Vector) Subset(rows []int) *Vector {
	out := MakeVector(v.dt, len(rows))
	for ind, r := range rows {
		if r < 0 || v.IsNA(r) {
			out.SetNA(ind)
			continue
		}

		switch x := v.data.(type) {
		case []float64:
			out.SetFloat(x[r], ind)
		case []int:
			out.SetInt(x[r], ind)
		case []string:
			out.SetString(x[r], ind)
		}
	}

	return out
}

func (v *Vector) Copy() *Vector {
	var data any
	switch x := v.data.(type) {
	case []float64:
		data = append([]float64(nil), x...)
	case []int:
		data = append([]int(nil), x...)
	case []string:
		data = append([]string(nil), x...)
	}

	var na []bool
	if v.na != nil {
		na = append([]bool(nil), v.na...)
	}

	return &Vector{dt: v.dt, data: data, na: na}
}
