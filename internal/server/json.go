package server

import "math"

// jsonNum maps non-finite floats to nil so encoding/json does not
// reject the payload.
func jsonNum(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func jsonNums(vs []float64) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = jsonNum(v)
	}
	return out
}
