package biometric

import "math"

// Distance computes the Euclidean distance between two encodings.
// Lower values mean more similar faces; zero means identical vectors.
// Returns +Inf for mismatched or empty inputs so they never match any
// finite threshold.
func Distance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Mean computes the element-wise arithmetic mean of the given encodings.
// All encodings must share the same dimensionality; returns nil otherwise
// or when the input is empty.
func Mean(encodings [][]float32) []float32 {
	if len(encodings) == 0 {
		return nil
	}

	dim := len(encodings[0])
	if dim == 0 {
		return nil
	}
	for _, enc := range encodings {
		if len(enc) != dim {
			return nil
		}
	}

	mean := make([]float32, dim)
	for _, enc := range encodings {
		for i, v := range enc {
			mean[i] += v
		}
	}
	n := float32(len(encodings))
	for i := range mean {
		mean[i] /= n
	}
	return mean
}
