package pmi

import "math"

// Calculator scores how strongly a token is associated with a label.
type Calculator struct {
	epsilon float64 // smoothing constant
}

// NewCalculator creates a new PMI calculator with the given epsilon
func NewCalculator(epsilon float64) *Calculator {
	if epsilon < 0 {
		epsilon = 0
	}
	return &Calculator{epsilon: epsilon}
}

// PMI calculates the pointwise mutual information between a token and a label
//
// PMI(t,l) = log((N_tl + ε) * N / ((N_t + ε)(N_l + ε)))
//
// Where:
//   - N_tl = number of documents with label l containing t
//   - N_t = number of documents containing t
//   - N_l = number of documents labeled l
//   - N = total number of documents
func (c *Calculator) PMI(nTL, nT, nL, N int64) float64 {
	if N == 0 {
		return 0
	}

	numerator := (float64(nTL) + c.epsilon) * float64(N)
	denominator := (float64(nT) + c.epsilon) * (float64(nL) + c.epsilon)

	if denominator == 0 || numerator == 0 {
		return 0
	}

	return math.Log(numerator / denominator)
}

// NPMI calculates normalized PMI (range: -1 to 1)
// NPMI(t,l) = PMI(t,l) / -log(P(t,l))
func (c *Calculator) NPMI(nTL, nT, nL, N int64) float64 {
	if N == 0 || nTL == 0 {
		return 0
	}

	pmi := c.PMI(nTL, nT, nL, N)
	pTL := (float64(nTL) + c.epsilon) / float64(N)
	logPTL := math.Log(pTL)

	if logPTL >= 0 {
		// token and label cover the whole corpus together
		return 1
	}

	return pmi / -logPTL
}

// Entropy returns the Shannon entropy of counts normalized to [0,1] by the
// maximum entropy over buckets outcomes. Fewer than two buckets yield 0.
func Entropy(counts []int64, buckets int) float64 {
	if buckets < 2 {
		return 0
	}
	var total int64
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0
	}
	var h float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		h -= p * math.Log(p)
	}
	return h / math.Log(float64(buckets))
}
