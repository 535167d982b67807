package vocabulary

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestItem(id, spanish string) Item {
	return newItem(id, Draft{Spanish: spanish, English: "translation"}, testNow)
}

func TestScheduleReview_ReviewCycle(t *testing.T) {
	item := newTestItem("w1", "hola")
	require.Equal(t, 0, item.Repetitions)
	require.Equal(t, DefaultEasinessFactor, item.EasinessFactor)
	require.Equal(t, 0, item.Interval)

	item = ScheduleReview(item, 5, testNow)
	assert.Equal(t, 1, item.Repetitions)
	assert.Equal(t, 1, item.Interval)
	assert.InDelta(t, 2.6, item.EasinessFactor, 1e-9)
	assert.Equal(t, 1, item.TimesCorrect)
	assert.Equal(t, testNow.AddDate(0, 0, 1), item.NextReviewDate)
	require.NotNil(t, item.LastQuality)
	assert.Equal(t, 5, *item.LastQuality)
	assert.Equal(t, 3.0, item.MasteryLevel)

	secondReview := testNow.AddDate(0, 0, 1)
	item = ScheduleReview(item, 5, secondReview)
	assert.Equal(t, 2, item.Repetitions)
	assert.Equal(t, 6, item.Interval)
	assert.InDelta(t, 2.7, item.EasinessFactor, 1e-9)
	assert.Equal(t, secondReview.AddDate(0, 0, 6), item.NextReviewDate)
	assert.Equal(t, 4.6, item.MasteryLevel)

	priorEF := item.EasinessFactor
	failedAt := secondReview.AddDate(0, 0, 6)
	item = ScheduleReview(item, 1, failedAt)
	assert.Equal(t, 0, item.Repetitions)
	assert.Equal(t, 1, item.Interval)
	assert.GreaterOrEqual(t, priorEF-item.EasinessFactor, FailEasinessPenalty-1e-9)
	assert.InDelta(t, 1.9, item.EasinessFactor, 1e-9)
	assert.Equal(t, 2, item.TimesCorrect)
	assert.Equal(t, 1, item.TimesIncorrect)
	require.NotNil(t, item.LastReviewed)
	assert.Equal(t, failedAt, *item.LastReviewed)
	assert.Equal(t, 0.7, item.MasteryLevel)
}

func TestScheduleReview_IntervalGrowsByEasiness(t *testing.T) {
	item := newTestItem("w1", "hola")
	var intervals []int
	for range 3 {
		item = ScheduleReview(item, 5, testNow)
		intervals = append(intervals, item.Interval)
	}
	// 6 * 2.8 rounds to 17
	assert.Equal(t, []int{1, 6, 17}, intervals)
}

func TestScheduleReview_EasinessFloor(t *testing.T) {
	item := newTestItem("w1", "hola")
	for range 5 {
		item = ScheduleReview(item, 0, testNow)
		assert.GreaterOrEqual(t, item.EasinessFactor, MinEasinessFactor)
	}
	assert.Equal(t, MinEasinessFactor, item.EasinessFactor)
	assert.Equal(t, 5, item.TimesIncorrect)
	assert.Equal(t, 0, item.Repetitions)
	assert.Equal(t, 0.0, item.MasteryLevel)
}

func TestScheduleReview_DoesNotModifyInput(t *testing.T) {
	item := newTestItem("w1", "hola")
	item.Tags = []string{"greeting"}

	updated := ScheduleReview(item, 4, testNow)
	updated.Tags[0] = "changed"

	assert.Equal(t, 0, item.Repetitions)
	assert.Nil(t, item.LastQuality)
	assert.Equal(t, "greeting", item.Tags[0])
}

func TestScheduleReview_ClampsQuality(t *testing.T) {
	tests := []struct {
		name        string
		quality     float64
		wantQuality int
		wantPass    bool
	}{
		{name: "above the scale", quality: 7.2, wantQuality: 5, wantPass: true},
		{name: "below the scale", quality: -3, wantQuality: 0, wantPass: false},
		{name: "rounds half up", quality: 2.5, wantQuality: 3, wantPass: true},
		{name: "rounds down", quality: 2.4, wantQuality: 2, wantPass: false},
		{name: "not a number", quality: math.NaN(), wantQuality: 0, wantPass: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScheduleReview(newTestItem("w1", "hola"), tt.quality, testNow)
			require.NotNil(t, got.LastQuality)
			assert.Equal(t, tt.wantQuality, *got.LastQuality)
			if tt.wantPass {
				assert.Equal(t, 1, got.TimesCorrect)
			} else {
				assert.Equal(t, 1, got.TimesIncorrect)
			}
		})
	}
}

func TestUpdateEasinessFactor(t *testing.T) {
	tests := []struct {
		name    string
		ef      float64
		quality int
		want    float64
	}{
		{name: "perfect answer", ef: 2.5, quality: 5, want: 2.6},
		{name: "correct with hesitation", ef: 2.5, quality: 4, want: 2.5},
		{name: "barely correct", ef: 2.5, quality: 3, want: 2.36},
		{name: "blackout", ef: 2.5, quality: 0, want: 1.7},
		{name: "floored", ef: 1.3, quality: 0, want: 1.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, UpdateEasinessFactor(tt.ef, tt.quality), 1e-9)
		})
	}
}

func TestDeriveMastery(t *testing.T) {
	tests := []struct {
		name           string
		repetitions    int
		ef             float64
		timesCorrect   int
		timesIncorrect int
		want           float64
	}{
		{name: "never reviewed", repetitions: 0, ef: 2.5, want: 0},
		{name: "one perfect review", repetitions: 1, ef: 2.6, timesCorrect: 1, want: 3.0},
		{name: "half accuracy", repetitions: 2, ef: 2.5, timesCorrect: 2, timesIncorrect: 2, want: 2.9},
		{name: "capped repetitions", repetitions: 10, ef: 3.0, timesCorrect: 10, want: 10},
		{name: "clamped to the maximum", repetitions: 12, ef: 5.0, timesCorrect: 12, want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveMastery(tt.repetitions, tt.ef, tt.timesCorrect, tt.timesIncorrect)
			assert.Equal(t, tt.want, got)
			// same input, same output
			assert.Equal(t, got, DeriveMastery(tt.repetitions, tt.ef, tt.timesCorrect, tt.timesIncorrect))
		})
	}
}

func TestIsDue_DaysOverdue(t *testing.T) {
	tests := []struct {
		name        string
		nextReview  time.Time
		wantDue     bool
		wantOverdue int
	}{
		{name: "due exactly now", nextReview: testNow, wantDue: true, wantOverdue: 0},
		{name: "due in the future", nextReview: testNow.Add(time.Hour), wantDue: false, wantOverdue: 0},
		{name: "an hour late", nextReview: testNow.Add(-time.Hour), wantDue: true, wantOverdue: 1},
		{name: "a day and a half late", nextReview: testNow.Add(-36 * time.Hour), wantDue: true, wantOverdue: 2},
		{name: "exactly three days late", nextReview: testNow.AddDate(0, 0, -3), wantDue: true, wantOverdue: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := Item{NextReviewDate: tt.nextReview}
			assert.Equal(t, tt.wantDue, IsDue(item, testNow))
			assert.Equal(t, tt.wantOverdue, DaysOverdue(item, testNow))
		})
	}
}

func TestConvertQuality(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		scale QualityScale
		want  int
	}{
		{name: "binary correct", score: 1, scale: ScaleBinary, want: 4},
		{name: "binary incorrect", score: 0, scale: ScaleBinary, want: 1},
		{name: "percentage excellent", score: 95, scale: ScalePercentage, want: 5},
		{name: "percentage good", score: 85, scale: ScalePercentage, want: 4},
		{name: "percentage passing", score: 60, scale: ScalePercentage, want: 3},
		{name: "percentage poor", score: 10, scale: ScalePercentage, want: 0},
		{name: "confidence", score: 0.8, scale: ScaleConfidence, want: 4},
		{name: "confidence above one", score: 1.4, scale: ScaleConfidence, want: 5},
		{name: "sm2 passthrough", score: 4.4, scale: ScaleSM2, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConvertQuality(tt.score, tt.scale))
		})
	}
}
