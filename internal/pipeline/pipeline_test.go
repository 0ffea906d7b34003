package pipeline

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/gridcast/internal/models"
)

var day0 = time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)

func reading(station string, offset int, value float64) models.Reading {
	return models.Reading{
		Station:    station,
		Date:       day0.AddDate(0, 0, offset),
		Category:   "Thermal",
		Capability: sql.NullFloat64{Float64: value, Valid: true},
	}
}

func missing(station string, offset int) models.Reading {
	return models.Reading{Station: station, Date: day0.AddDate(0, 0, offset), Category: "Thermal"}
}

func TestFillGaps_ContiguousCalendar(t *testing.T) {
	series := FillGaps([]models.Reading{
		reading("A", 0, 10),
		reading("A", 4, 30),
	})
	require.Len(t, series, 1)
	require.Len(t, series[0].Values, 5)

	for i, v := range series[0].Values {
		assert.Equal(t, day0.AddDate(0, 0, i), v.Date)
	}
	assert.False(t, series[0].Values[0].Imputed)
	assert.True(t, series[0].Values[1].Imputed)
	assert.False(t, series[0].Values[4].Imputed)
}

func TestFillGaps_AllZeroStationFillsZero(t *testing.T) {
	series := FillGaps([]models.Reading{
		reading("Z", 0, 0),
		missing("Z", 2),
		reading("Z", 5, 0),
	})
	require.Len(t, series, 1)
	require.Len(t, series[0].Values, 6)
	for _, v := range series[0].Values {
		assert.Equal(t, 0.0, v.Value)
	}
}

func TestFillGaps_TrailingMeanUsesImputedValues(t *testing.T) {
	series := FillGaps([]models.Reading{
		reading("A", 0, 10),
		reading("A", 1, 20),
		reading("A", 4, 100),
	})
	require.Len(t, series, 1)
	vals := series[0].Values
	require.Len(t, vals, 5)

	// day 2: mean(10, 20) = 15; day 3: mean(10, 20, 15) = 15
	assert.InDelta(t, 15.0, vals[2].Value, 1e-9)
	assert.InDelta(t, 15.0, vals[3].Value, 1e-9)
	assert.Equal(t, 100.0, vals[4].Value)
}

func TestFillGaps_WindowIsSevenDays(t *testing.T) {
	readings := []models.Reading{reading("A", 0, 1000)}
	for i := 1; i <= 6; i++ {
		readings = append(readings, reading("A", i, 10))
	}
	readings = append(readings, reading("A", 9, 10))

	vals := FillGaps(readings)[0].Values
	require.Len(t, vals, 10)

	// day 7 window is days 1..7, which excludes the 1000 on day 0
	assert.InDelta(t, 10.0, vals[7].Value, 1e-9)
	assert.InDelta(t, 10.0, vals[8].Value, 1e-9)
}

func TestFillGaps_LeadingGapIsDropped(t *testing.T) {
	series := FillGaps([]models.Reading{
		missing("A", 0),
		missing("A", 1),
		reading("A", 2, 50),
		missing("A", 3),
		reading("A", 4, 70),
	})
	require.Len(t, series, 1)
	vals := series[0].Values
	require.Len(t, vals, 3)
	assert.Equal(t, day0.AddDate(0, 0, 2), vals[0].Date)
	assert.InDelta(t, 50.0, vals[1].Value, 1e-9)
	assert.True(t, vals[1].Imputed)
}

func TestFillGaps_MissingValuesWithNonZeroHistory(t *testing.T) {
	series := FillGaps([]models.Reading{
		reading("A", 0, 0),
		reading("A", 1, 8),
		missing("A", 2),
	})
	vals := series[0].Values
	require.Len(t, vals, 3)
	assert.InDelta(t, 4.0, vals[2].Value, 1e-9)
}

func TestAggregate_SumsAcrossStations(t *testing.T) {
	daily := Aggregate(FillGaps([]models.Reading{
		reading("A", 0, 10),
		reading("A", 1, 20),
		reading("B", 1, 5),
		reading("B", 2, 7),
	}))
	require.Len(t, daily, 3)
	assert.Equal(t, 10.0, daily[0].Value)
	assert.Equal(t, 25.0, daily[1].Value)
	assert.Equal(t, 7.0, daily[2].Value)
}

func TestAggregate_NoZeroFillBetweenStations(t *testing.T) {
	daily := Aggregate(FillGaps([]models.Reading{
		reading("A", 0, 10),
		reading("B", 5, 20),
	}))
	require.Len(t, daily, 2)
	assert.Equal(t, day0, daily[0].Date)
	assert.Equal(t, day0.AddDate(0, 0, 5), daily[1].Date)
}

func TestBuild_SortedUniqueDates(t *testing.T) {
	daily := Build([]models.Reading{
		reading("C", 3, 1),
		reading("A", 0, 10),
		reading("B", 2, 4),
		reading("A", 3, 10),
	})
	require.NotEmpty(t, daily)
	for i := 1; i < len(daily); i++ {
		assert.True(t, daily[i].Date.After(daily[i-1].Date), "dates must strictly increase")
	}
}

func TestBuild_Empty(t *testing.T) {
	assert.Empty(t, Build(nil))
}
