package session

import (
	"math"
	"strings"
)

// Utterance is one user turn as seen by a QualityEstimator.
type Utterance struct {
	Text       string
	Confidence float64
	// TargetWordsUsed is the number of distinct target words found in Text.
	TargetWordsUsed int
}

// QualityEstimator derives a 0-5 review quality from a user turn.
type QualityEstimator interface {
	EstimateQuality(u Utterance) float64
}

// ConfidenceEstimator scores a turn by confidence with bonuses for target words and length.
type ConfidenceEstimator struct{}

func (ConfidenceEstimator) EstimateQuality(u Utterance) float64 {
	quality := clampConfidence(u.Confidence) * 3
	quality += float64(u.TargetWordsUsed) * 0.5

	words := len(strings.Fields(u.Text))
	if words >= 3 {
		quality += 0.5
	}
	if words >= 6 {
		quality += 0.5
	}
	return math.Max(0, math.Min(5, math.Round(quality)))
}

// QualityEstimatorFunc adapts a function to QualityEstimator.
type QualityEstimatorFunc func(u Utterance) float64

func (f QualityEstimatorFunc) EstimateQuality(u Utterance) float64 {
	return f(u)
}
