package stoplist

import "sort"

// Stats describes how one token is spread over a labeled corpus.
type Stats struct {
	Token      string
	DF         int64   // documents containing the token
	DFPercent  float64 // DF as a share of all documents, 0..100
	IDF        float64
	PMIMax     float64 // best NPMI with any label, -1..1
	CatEntropy float64 // entropy of the token's label distribution, 0..1
}

// Candidate is a token that looks like a stopword, with its evidence.
type Candidate struct {
	Token  string
	Reason Reason
	Score  float64 // 0..1, higher is more stopword-like
}

// Thresholds decide when a token counts as a stopword.
//
// With association data a token must clear all three of DFPercent, PMIMax
// and CatEntropy. A PMIMax of exactly 0 means there is no association signal
// (for instance a token spread evenly over every label), and only
// BootstrapDFPercent applies.
type Thresholds struct {
	DFPercent  float64
	PMIMax     float64
	CatEntropy float64

	BootstrapDFPercent float64
	BootstrapEntropy   float64
}

// DefaultThresholds returns thresholds tuned on NPMI in [-1,1].
func DefaultThresholds() Thresholds {
	return Thresholds{
		DFPercent:          80,
		PMIMax:             0.15,
		CatEntropy:         0.8,
		BootstrapDFPercent: 60,
		BootstrapEntropy:   0.4,
	}
}

func (th Thresholds) withBootstrapDefaults() Thresholds {
	def := DefaultThresholds()
	if th.BootstrapDFPercent == 0 {
		th.BootstrapDFPercent = def.BootstrapDFPercent
	}
	if th.BootstrapEntropy == 0 {
		th.BootstrapEntropy = def.BootstrapEntropy
	}
	return th
}

// Judge evaluates one token against th.
func Judge(s Stats, th Thresholds) (Candidate, bool) {
	th = th.withBootstrapDefaults()
	noSignal := s.PMIMax == 0
	commonEnough := s.DFPercent > th.BootstrapDFPercent

	reason := Reason{
		HighDF:      s.DFPercent > th.DFPercent || (noSignal && commonEnough),
		LowPMI:      noSignal || s.PMIMax < th.PMIMax,
		HighEntropy: s.CatEntropy > th.CatEntropy || (noSignal && (commonEnough || s.CatEntropy == 0 || s.CatEntropy > th.BootstrapEntropy)),
		IDF:         s.IDF,
		PMIMax:      s.PMIMax,
		CatEntropy:  s.CatEntropy,
	}

	ok := reason.HighDF && reason.LowPMI && reason.HighEntropy
	entropy := s.CatEntropy
	if noSignal {
		ok = commonEnough
		entropy = max(entropy, th.BootstrapEntropy)
	}
	if !ok {
		return Candidate{}, false
	}
	return Candidate{
		Token:  s.Token,
		Reason: reason,
		Score:  (s.DFPercent/100 + (1 - s.PMIMax) + entropy) / 3,
	}, true
}

// SuggestCandidates judges every token not already in the active set and
// returns the stopword-like ones, highest score first. Ties keep input order.
func (m *Manager) SuggestCandidates(stats []Stats, th Thresholds) []Candidate {
	var out []Candidate
	for _, s := range stats {
		if m.IsStop(s.Token) {
			continue
		}
		if c, ok := Judge(s, th); ok {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
