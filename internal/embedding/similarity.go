package embedding

import "math"

// CosineSimilarity scores how closely two embeddings point in the same
// direction, from -1 to 1. Mismatched lengths or zero-magnitude vectors
// score 0. For face embeddings, scores above 0.8 usually mean the same
// person.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot float64
	for i, v := range a {
		dot += v * b[i]
	}

	ma, mb := magnitude(a), magnitude(b)
	if ma == 0 || mb == 0 {
		return 0
	}
	return dot / (ma * mb)
}

// Normalize scales an embedding to unit length so similarity scores stay
// comparable across captures. Zero vectors come back unchanged.
func Normalize(vec []float64) []float64 {
	m := magnitude(vec)
	if m == 0 {
		return vec
	}

	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = v / m
	}
	return out
}

func magnitude(vec []float64) float64 {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	return math.Sqrt(sum)
}
