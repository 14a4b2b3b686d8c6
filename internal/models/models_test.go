package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMoodBucket_Rank(t *testing.T) {
	// 序数表决定严重度：sad < neutral < good
	assert.Equal(t, 0, MoodSad.Rank())
	assert.Equal(t, 1, MoodNeutral.Rank())
	assert.Equal(t, 2, MoodGood.Rank())
	assert.True(t, MoodSad.Rank() < MoodNeutral.Rank())
	assert.True(t, MoodNeutral.Rank() < MoodGood.Rank())

	// 未知档位
	assert.Equal(t, -1, MoodBucket("angry").Rank())
	assert.False(t, MoodBucket("angry").Valid())
}

func TestDaypartOf(t *testing.T) {
	day := func(h int) time.Time {
		return time.Date(2025, 6, 1, h, 30, 0, 0, time.UTC)
	}

	assert.Equal(t, DaypartMorning, DaypartOf(day(5)))
	assert.Equal(t, DaypartMorning, DaypartOf(day(11)))
	assert.Equal(t, DaypartAfternoon, DaypartOf(day(12)))
	assert.Equal(t, DaypartAfternoon, DaypartOf(day(16)))
	assert.Equal(t, DaypartEvening, DaypartOf(day(17)))
	assert.Equal(t, DaypartEvening, DaypartOf(day(20)))
	assert.Equal(t, DaypartNight, DaypartOf(day(21)))
	assert.Equal(t, DaypartNight, DaypartOf(day(3)))
}

func TestLatest_EmptyHistory(t *testing.T) {
	s := Latest(nil)

	assert.Equal(t, 0, s.CheckInCount)
	assert.Nil(t, s.LastCheckInAt)
	assert.Nil(t, s.LastPainLevel)
	assert.Nil(t, s.LastEnergy)
	assert.Nil(t, s.LastMood)
}

func TestLatest_FromNewestRecord(t *testing.T) {
	mood := MoodNeutral
	energy := EnergyLow
	now := time.Now()

	history := []CheckInRecord{
		{ID: "c2", SubjectID: "s1", CreatedAt: now, PainLevel: 7, MoodBucket: &mood, EnergyBucket: &energy},
		{ID: "c1", SubjectID: "s1", CreatedAt: now.Add(-24 * time.Hour), PainLevel: 2},
	}

	s := Latest(history)

	assert.Equal(t, 2, s.CheckInCount)
	assert.Equal(t, now, *s.LastCheckInAt)
	assert.Equal(t, 7, *s.LastPainLevel)
	assert.Equal(t, MoodNeutral, *s.LastMood)
	assert.Equal(t, EnergyLow, *s.LastEnergy)
}

func TestEscalationReason_Title(t *testing.T) {
	assert.Equal(t, "High pain reported", ReasonHighPain.Title())
	assert.Equal(t, "Low mood reported", ReasonLowMood.Title())
	assert.Equal(t, "Pain rising quickly", ReasonRapidPainIncrease.Title())
	assert.Equal(t, "Mood dropping", ReasonRapidMoodDrop.Title())
	assert.Equal(t, "Check-in alert", EscalationReason("other").Title())
}
