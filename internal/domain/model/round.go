package model

import "strconv"

// Round rounds x to the given number of decimal places using the exact
// binary value of x, so 92.45 (stored as 92.4500000000000028) becomes 92.5.
// Exact halves go to even.
func Round(x float64, places int) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', places, 64), 64)
	if err != nil {
		return x
	}
	return v
}
