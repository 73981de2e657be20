package domain

// ConfidenceLevel is a coarse summary of how well retrieved context
// supports a generated answer.
type ConfidenceLevel string

// Confidence levels, ordered none < low < medium < high.
const (
	ConfidenceNone   ConfidenceLevel = "none"
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// ConfidenceThresholds holds the similarity cut-offs for the high and
// medium levels. Exposed through configuration; the zero value is not
// usable, use DefaultConfidenceThresholds.
type ConfidenceThresholds struct {
	// HighMax and HighAvg must both be met for ConfidenceHigh.
	HighMax float64
	HighAvg float64

	// MediumMax and MediumAvg must both be met for ConfidenceMedium.
	MediumMax float64
	MediumAvg float64
}

// DefaultConfidenceThresholds returns the standard cut-offs.
func DefaultConfidenceThresholds() ConfidenceThresholds {
	return ConfidenceThresholds{
		HighMax:   0.85,
		HighAvg:   0.75,
		MediumMax: 0.70,
		MediumAvg: 0.60,
	}
}

// ConfidenceAssessment summarises the similarity scores of a result
// set. Derived and stateless; recomputed per query.
type ConfidenceAssessment struct {
	Level           ConfidenceLevel `json:"level"`
	AvgSimilarity   float64         `json:"avg_similarity"`
	MaxSimilarity   float64         `json:"max_similarity"`
	ChunksRetrieved int             `json:"chunks_retrieved"`
}

// AssessConfidence computes a ConfidenceAssessment from the similarity
// scores of a retrieval. An empty result set yields ConfidenceNone with
// zero metrics.
func AssessConfidence(results []SearchResult, t ConfidenceThresholds) ConfidenceAssessment {
	if len(results) == 0 {
		return ConfidenceAssessment{Level: ConfidenceNone}
	}

	var sum, max float64
	for _, r := range results {
		sum += r.Similarity
		if r.Similarity > max {
			max = r.Similarity
		}
	}
	avg := sum / float64(len(results))

	level := ConfidenceLow
	switch {
	case max >= t.HighMax && avg >= t.HighAvg:
		level = ConfidenceHigh
	case max >= t.MediumMax && avg >= t.MediumAvg:
		level = ConfidenceMedium
	}

	return ConfidenceAssessment{
		Level:           level,
		AvgSimilarity:   avg,
		MaxSimilarity:   max,
		ChunksRetrieved: len(results),
	}
}
