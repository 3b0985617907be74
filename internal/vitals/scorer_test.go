package vitals

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// baseline is a fully unremarkable observation: every sub-score zero.
func baseline() Observation {
	return Observation{
		RespiratoryRate:    16,
		OxygenSaturation:   98,
		SupplementalOxygen: false,
		Temperature:        37.0,
		SystolicBP:         120,
		DiastolicBP:        80,
		HeartRate:          70,
		Consciousness:      ConsciousnessAlert,
	}
}

func TestRespirationBoundaries(t *testing.T) {
	tests := []struct {
		rate int
		want int
	}{
		{8, 3}, {9, 1}, {11, 1}, {12, 0}, {20, 0}, {21, 2}, {24, 2}, {25, 3},
	}
	for _, tt := range tests {
		obs := baseline()
		obs.RespiratoryRate = tt.rate
		got := Score(obs).SubScores.Respiration
		assert.Equal(t, tt.want, got, "respiratory rate %d", tt.rate)
	}
}

func TestOxygenSaturationBoundaries(t *testing.T) {
	tests := []struct {
		spo2 int
		want int
	}{
		{91, 3}, {92, 2}, {93, 2}, {94, 1}, {95, 1}, {96, 0}, {100, 0},
	}
	for _, tt := range tests {
		obs := baseline()
		obs.OxygenSaturation = tt.spo2
		got := Score(obs).SubScores.Oxygen
		assert.Equal(t, tt.want, got, "spo2 %d", tt.spo2)
	}
}

func TestSupplementalOxygen(t *testing.T) {
	obs := baseline()
	obs.SupplementalOxygen = true
	assert.Equal(t, 2, Score(obs).SubScores.Supplemental)
	obs.SupplementalOxygen = false
	assert.Equal(t, 0, Score(obs).SubScores.Supplemental)
}

func TestTemperatureBoundaries(t *testing.T) {
	tests := []struct {
		temp float64
		want int
	}{
		{35.0, 3}, {35.1, 1}, {36.0, 1}, {36.1, 0}, {38.0, 0}, {38.1, 1}, {39.0, 1}, {39.1, 2},
	}
	for _, tt := range tests {
		obs := baseline()
		obs.Temperature = tt.temp
		got := Score(obs).SubScores.Temperature
		assert.Equal(t, tt.want, got, "temperature %.1f", tt.temp)
	}
}

func TestSystolicBoundaries(t *testing.T) {
	tests := []struct {
		systolic int
		want     int
	}{
		{90, 3}, {91, 2}, {100, 2}, {101, 1}, {110, 1}, {111, 0}, {219, 0}, {220, 3},
	}
	for _, tt := range tests {
		obs := baseline()
		obs.SystolicBP = tt.systolic
		got := Score(obs).SubScores.Systolic
		assert.Equal(t, tt.want, got, "systolic %d", tt.systolic)
	}
}

func TestHeartRateBoundaries(t *testing.T) {
	tests := []struct {
		rate int
		want int
	}{
		{40, 3}, {41, 1}, {50, 1}, {51, 0}, {90, 0}, {91, 1}, {110, 1}, {111, 2}, {130, 2}, {131, 3},
	}
	for _, tt := range tests {
		obs := baseline()
		obs.HeartRate = tt.rate
		got := Score(obs).SubScores.HeartRate
		assert.Equal(t, tt.want, got, "heart rate %d", tt.rate)
	}
}

func TestConsciousnessAnythingButAlertScoresThree(t *testing.T) {
	for _, level := range []string{ConsciousnessConfusion, ConsciousnessVoice, ConsciousnessPain, ConsciousnessUnresponsive, "drowsy"} {
		obs := baseline()
		obs.Consciousness = level
		assert.Equal(t, 3, Score(obs).SubScores.Consciousness, "level %q", level)
	}
	obs := baseline()
	obs.Consciousness = "Alert" // case-insensitive
	assert.Equal(t, 0, Score(obs).SubScores.Consciousness)
}

func TestTotalEqualsSumOfSubScores(t *testing.T) {
	obs := Observation{
		RespiratoryRate:    25,
		OxygenSaturation:   90,
		SupplementalOxygen: true,
		Temperature:        34.5,
		SystolicBP:         85,
		HeartRate:          135,
		Consciousness:      ConsciousnessPain,
	}
	score := Score(obs)
	sub := score.SubScores
	sum := sub.Respiration + sub.Oxygen + sub.Supplemental + sub.Temperature +
		sub.Systolic + sub.HeartRate + sub.Consciousness
	assert.Equal(t, sum, score.Total)
	assert.Equal(t, 20, score.Total) // every parameter at its worst band
	assert.True(t, score.Extreme)
	assert.Equal(t, RiskCritical, score.Risk)
}

func TestRiskClassificationPrecedence(t *testing.T) {
	// total=7, no extreme → CRITICAL. Seven ones is not constructible
	// from the bands, so build 7 from 2+2+2+1 without any 3s.
	obs := baseline()
	obs.RespiratoryRate = 22     // 2
	obs.OxygenSaturation = 93    // 2
	obs.SupplementalOxygen = true // 2
	obs.HeartRate = 95           // 1
	score := Score(obs)
	assert.Equal(t, 7, score.Total)
	assert.False(t, score.Extreme)
	assert.Equal(t, RiskCritical, score.Risk)

	// total=5, no extreme → MODERATE.
	obs = baseline()
	obs.RespiratoryRate = 22  // 2
	obs.OxygenSaturation = 93 // 2
	obs.HeartRate = 95        // 1
	score = Score(obs)
	assert.Equal(t, 5, score.Total)
	assert.False(t, score.Extreme)
	assert.Equal(t, RiskModerate, score.Risk)

	// total=4 via one extreme parameter → MODERATE.
	obs = baseline()
	obs.RespiratoryRate = 8 // 3
	obs.HeartRate = 95      // 1
	score = Score(obs)
	assert.Equal(t, 4, score.Total)
	assert.True(t, score.Extreme)
	assert.Equal(t, RiskModerate, score.Risk)

	// total=4, no extreme → LOW.
	obs = baseline()
	obs.RespiratoryRate = 22  // 2
	obs.OxygenSaturation = 93 // 2
	score = Score(obs)
	assert.Equal(t, 4, score.Total)
	assert.False(t, score.Extreme)
	assert.Equal(t, RiskLow, score.Risk)

	// total=0 → LOW.
	score = Score(baseline())
	assert.Equal(t, 0, score.Total)
	assert.Equal(t, RiskLow, score.Risk)
}

func TestQSOFAIndependentOfTotal(t *testing.T) {
	obs := baseline()
	obs.RespiratoryRate = 22
	obs.SystolicBP = 100
	obs.Consciousness = ConsciousnessVoice
	score := Score(obs)
	assert.Equal(t, 3, score.QSOFA)

	obs = baseline()
	assert.Equal(t, 0, Score(obs).QSOFA)

	// One check just under each boundary.
	obs = baseline()
	obs.RespiratoryRate = 21
	obs.SystolicBP = 101
	assert.Equal(t, 0, Score(obs).QSOFA)
}

func TestGuidanceVariesByTierAndExtreme(t *testing.T) {
	critical := Score(Observation{RespiratoryRate: 30, OxygenSaturation: 85, Temperature: 34, SystolicBP: 80, HeartRate: 140, Consciousness: ConsciousnessPain})
	assert.Contains(t, critical.Guidance, "Emergency")

	// Extreme parameter with total in the 1-4 band gets the
	// single-parameter wording.
	obs := baseline()
	obs.Consciousness = ConsciousnessVoice // 3
	score := Score(obs)
	assert.Equal(t, 3, score.Total)
	assert.Equal(t, RiskModerate, score.Risk)
	assert.Contains(t, score.Guidance, "single parameter")

	low := Score(baseline())
	assert.Contains(t, low.Guidance, "Routine")
}

// End-to-end case from the operational runbook: mildly low respiration,
// everything else normal.
func TestScoreMildRespiratoryOnly(t *testing.T) {
	obs := Observation{
		RespiratoryRate:    9,
		OxygenSaturation:   96,
		SupplementalOxygen: false,
		Temperature:        37,
		SystolicBP:         115,
		HeartRate:          85,
		Consciousness:      ConsciousnessAlert,
	}
	score := Score(obs)
	assert.Equal(t, SubScores{Respiration: 1}, score.SubScores)
	assert.Equal(t, 1, score.Total)
	assert.False(t, score.Extreme)
	assert.Equal(t, RiskLow, score.Risk)
}
