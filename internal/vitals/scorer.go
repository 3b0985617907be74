// Package vitals implements the NEWS2 deterioration score with the qSOFA
// sepsis screen. Score is a pure function so it serves both the live
// preview endpoint and the background deterioration sweep.
package vitals

import "strings"

// Score computes the aggregate deterioration score for one observation.
func Score(obs Observation) DeteriorationScore {
	sub := SubScores{
		Respiration:   respirationScore(obs.RespiratoryRate),
		Oxygen:        oxygenScore(obs.OxygenSaturation),
		Supplemental:  supplementalScore(obs.SupplementalOxygen),
		Temperature:   temperatureScore(obs.Temperature),
		Systolic:      systolicScore(obs.SystolicBP),
		HeartRate:     heartRateScore(obs.HeartRate),
		Consciousness: consciousnessScore(obs.Consciousness),
	}

	total := sub.Respiration + sub.Oxygen + sub.Supplemental +
		sub.Temperature + sub.Systolic + sub.HeartRate + sub.Consciousness

	extreme := sub.Respiration == 3 || sub.Oxygen == 3 || sub.Supplemental == 3 ||
		sub.Temperature == 3 || sub.Systolic == 3 || sub.HeartRate == 3 ||
		sub.Consciousness == 3

	risk := classify(total, extreme)

	return DeteriorationScore{
		Total:     total,
		SubScores: sub,
		Extreme:   extreme,
		Risk:      risk,
		QSOFA:     qsofa(obs),
		Guidance:  guidance(total, extreme, risk),
	}
}

// classify applies the tier precedence: a total of 7 or more is always
// critical; 5-6 or any single extreme parameter is moderate; the rest is
// low.
func classify(total int, extreme bool) RiskTier {
	switch {
	case total >= 7:
		return RiskCritical
	case total >= 5 || extreme:
		return RiskModerate
	default:
		return RiskLow
	}
}

func respirationScore(rate int) int {
	switch {
	case rate <= 8:
		return 3
	case rate <= 11:
		return 1
	case rate <= 20:
		return 0
	case rate <= 24:
		return 2
	default:
		return 3
	}
}

func oxygenScore(spo2 int) int {
	switch {
	case spo2 <= 91:
		return 3
	case spo2 <= 93:
		return 2
	case spo2 <= 95:
		return 1
	default:
		return 0
	}
}

func supplementalScore(onOxygen bool) int {
	if onOxygen {
		return 2
	}
	return 0
}

func temperatureScore(temp float64) int {
	switch {
	case temp <= 35.0:
		return 3
	case temp <= 36.0:
		return 1
	case temp <= 38.0:
		return 0
	case temp <= 39.0:
		return 1
	default:
		return 2
	}
}

func systolicScore(systolic int) int {
	switch {
	case systolic <= 90:
		return 3
	case systolic <= 100:
		return 2
	case systolic <= 110:
		return 1
	case systolic <= 219:
		return 0
	default:
		return 3
	}
}

func heartRateScore(rate int) int {
	switch {
	case rate <= 40:
		return 3
	case rate <= 50:
		return 1
	case rate <= 90:
		return 0
	case rate <= 110:
		return 1
	case rate <= 130:
		return 2
	default:
		return 3
	}
}

// consciousnessScore maxes out for any level other than alert, regardless
// of cause.
func consciousnessScore(level string) int {
	if strings.EqualFold(strings.TrimSpace(level), ConsciousnessAlert) {
		return 0
	}
	return 3
}

// qsofa sums three binary sepsis-screen checks. It is reported alongside
// the main score, never folded into it.
func qsofa(obs Observation) int {
	score := 0
	if obs.RespiratoryRate >= 22 {
		score++
	}
	if obs.SystolicBP <= 100 {
		score++
	}
	if !strings.EqualFold(strings.TrimSpace(obs.Consciousness), ConsciousnessAlert) {
		score++
	}
	return score
}

func guidance(total int, extreme bool, risk RiskTier) string {
	switch risk {
	case RiskCritical:
		return "Emergency response: immediate assessment by a clinician with critical care competencies; consider transfer to higher level of care."
	case RiskModerate:
		if total <= 4 && extreme {
			return "Urgent review: a single parameter is at its extreme; urgent ward-based doctor review and escalation of monitoring frequency."
		}
		return "Urgent review: ward-based doctor to assess; increase observation frequency to at least hourly."
	default:
		if total == 0 {
			return "Routine monitoring: continue scheduled observations."
		}
		return "Ward-based response: registered nurse to review observation frequency."
	}
}
