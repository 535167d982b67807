package vocabulary

import (
	"math"
	"time"
)

const (
	DefaultEasinessFactor = 2.5
	MinEasinessFactor     = 1.3

	// FailEasinessPenalty is subtracted from the easiness factor on a failed review.
	FailEasinessPenalty = 0.8
	// PassingQuality is the lowest quality counted as a successful review.
	PassingQuality = 3
	MaxQuality     = 5

	MaxMasteryLevel = 10.0

	firstInterval  = 1
	secondInterval = 6
	// easinessBonusRange is the easiness range mapped onto the mastery bonus.
	easinessBonusRange = 3.0 - MinEasinessFactor
	maxRepetitionScore = 8.0
)

const day = 24 * time.Hour

// ScheduleReview applies one review with the given quality to item and returns the updated copy.
// Quality is rounded and clamped into [0, 5].
func ScheduleReview(item Item, quality float64, now time.Time) Item {
	q := ClampQuality(quality)
	updated := item.clone()

	ef := item.EasinessFactor
	if ef == 0 {
		ef = DefaultEasinessFactor
	}
	newEF := UpdateEasinessFactor(ef, q)

	if q < PassingQuality {
		updated.Repetitions = 0
		updated.Interval = firstInterval
		updated.EasinessFactor = math.Max(MinEasinessFactor, ef-FailEasinessPenalty)
		updated.TimesIncorrect++
	} else {
		updated.Repetitions = item.Repetitions + 1
		updated.Interval = CalculateNextInterval(item.Interval, newEF, updated.Repetitions)
		updated.EasinessFactor = newEF
		updated.TimesCorrect++
	}

	reviewedAt := now
	updated.LastReviewed = &reviewedAt
	updated.LastQuality = &q
	updated.NextReviewDate = now.AddDate(0, 0, updated.Interval)
	updated.MasteryLevel = DeriveMastery(updated.Repetitions, updated.EasinessFactor, updated.TimesCorrect, updated.TimesIncorrect)
	return updated
}

// UpdateEasinessFactor calculates the SM-2 easiness factor for the quality grade
func UpdateEasinessFactor(ef float64, quality int) float64 {
	q := float64(quality)
	delta := 0.1 - (5-q)*(0.08+(5-q)*0.02)
	return math.Max(MinEasinessFactor, ef+delta)
}

// CalculateNextInterval returns the interval in days after a successful review.
// repetitions is the count including the review being scheduled.
func CalculateNextInterval(lastInterval int, ef float64, repetitions int) int {
	switch repetitions {
	case 1:
		return firstInterval
	case 2:
		return secondInterval
	default:
		return int(math.Round(float64(lastInterval) * ef))
	}
}

// DeriveMastery returns a 0-10 score of how well a word is learned.
func DeriveMastery(repetitions int, ef float64, timesCorrect, timesIncorrect int) float64 {
	attempts := timesCorrect + timesIncorrect
	if attempts == 0 {
		return 0
	}
	if ef == 0 {
		ef = DefaultEasinessFactor
	}

	mastery := math.Min(float64(repetitions)*1.5, maxRepetitionScore)
	accuracy := float64(timesCorrect) / float64(attempts)
	mastery *= accuracy
	mastery += (ef - MinEasinessFactor) / easinessBonusRange * 2

	mastery = math.Max(0, math.Min(MaxMasteryLevel, mastery))
	return math.Round(mastery*10) / 10
}

// ClampQuality rounds quality to the nearest grade within [0, 5].
func ClampQuality(quality float64) int {
	if math.IsNaN(quality) {
		return 0
	}
	q := math.Round(quality)
	return int(math.Max(0, math.Min(MaxQuality, q)))
}

// IsDue reports whether the item should be reviewed at asOf.
func IsDue(item Item, asOf time.Time) bool {
	return !item.NextReviewDate.After(asOf)
}

// DaysOverdue returns the whole days, rounded up, the review is late at asOf.
func DaysOverdue(item Item, asOf time.Time) int {
	late := asOf.Sub(item.NextReviewDate)
	if late <= 0 {
		return 0
	}
	return int(math.Ceil(float64(late) / float64(day)))
}

// QualityScale identifies the scale of a score converted by ConvertQuality.
type QualityScale string

const (
	ScaleBinary     QualityScale = "binary"     // 0 or 1
	ScalePercentage QualityScale = "percentage" // 0-100
	ScaleConfidence QualityScale = "confidence" // 0.0-1.0
	ScaleSM2        QualityScale = "sm2"        // 0-5
)

// ConvertQuality maps a score on another scale onto the 0-5 review quality.
func ConvertQuality(score float64, scale QualityScale) int {
	switch scale {
	case ScaleBinary:
		if score != 0 {
			return 4
		}
		return 1
	case ScalePercentage:
		switch {
		case score >= 90:
			return 5
		case score >= 80:
			return 4
		case score >= 60:
			return 3
		case score >= 40:
			return 2
		case score >= 20:
			return 1
		default:
			return 0
		}
	case ScaleConfidence:
		return ClampQuality(score * 5)
	default:
		return ClampQuality(score)
	}
}
