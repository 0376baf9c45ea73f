package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpoilageSummary(t *testing.T) {
	tests := []struct {
		name string
		days float64
		want string
	}{
		{"already spoiled", -2.5, "already spoiled 2.5 days ago"},
		{"under a day", 0.5, "spoils within 12 hours"},
		{"multiple days", 3.0, "spoils within 3.0 days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SpoilageSummary(tt.days))
		})
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"good", "warning", "bad"} {
		got, err := ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, Status(s), got)
	}

	_, err := ParseStatus("fresh")
	assert.Error(t, err)
}

func TestNewEnrichedReadingDefaultsCategory(t *testing.T) {
	r := SensorReading{ID: 7, Status: StatusGood}

	enriched := NewEnrichedReading(r)
	assert.Equal(t, DefaultFoodCategory, enriched.FoodCategory)
	assert.Nil(t, enriched.PredictedSpoilDays)
	assert.Nil(t, enriched.RecommendationText)

	r.FoodCategory = "vegetables"
	assert.Equal(t, "vegetables", NewEnrichedReading(r).FoodCategory)
}
