package services

import (
	"math"
	"regexp"
	"strings"
)

// Unicode-aware so Hangul counts as word characters.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// CosineSimilarity compares the term-frequency vectors of a and b over the
// vocabulary of the two texts. It is 0 when either text has no tokens.
func CosineSimilarity(a, b string) float64 {
	ta, tb := termFreq(tokenize(a)), termFreq(tokenize(b))
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	var dot, na, nb float64
	for term, x := range ta {
		na += x * x
		if y, ok := tb[term]; ok {
			dot += x * y
		}
	}
	for _, y := range tb {
		nb += y * y
	}
	return clamp01(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

func termFreq(tokens []string) map[string]float64 {
	tf := make(map[string]float64, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	return tf
}

// vectorCosine is the cosine of two embedding vectors, 0 for a zero or
// mismatched pair.
func vectorCosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
