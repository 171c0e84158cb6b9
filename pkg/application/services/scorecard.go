package services

import (
	"math"

	"github.com/vsinha/repairkpi/pkg/application/dto"
)

// DefaultTargetPoints is the monthly points target behind the achievement rate
const DefaultTargetPoints = 150

// DefaultCoopScore is the cooperation score of engineers without one
const DefaultCoopScore = 90

// ScoreEngineers builds the scorecard from the per-engineer rollup, keeping
// its order. A nil coop function gives every engineer DefaultCoopScore.
func ScoreEngineers(engineers []dto.EngineerStats, targetPoints float64, coop func(engineer string) float64) []dto.EngineerScore {
	if targetPoints <= 0 {
		targetPoints = DefaultTargetPoints
	}
	if coop == nil {
		coop = func(string) float64 { return DefaultCoopScore }
	}

	out := make([]dto.EngineerScore, 0, len(engineers))
	for _, e := range engineers {
		achievement := round1(e.Points / targetPoints * 100)
		s := dto.EngineerScore{
			Engineer:         e.Engineer,
			Cases:            e.Cases,
			Points:           e.Points,
			AvgTAT:           e.AvgTAT,
			Achievement:      achievement,
			RecallRate:       e.RecallRate,
			TATScore:         tatScore(e.AvgTAT),
			RecallScore:      recallScore(e.RecallRate),
			CoopScore:        coop(e.Engineer),
			TATClass:         TATClass(e.AvgTAT),
			AchievementClass: AchievementClass(achievement),
		}
		s.FinalScore = round1(s.TATScore*0.3 + math.Min(achievement, 100)*0.3 + s.RecallScore*0.2 + s.CoopScore*0.2)
		out = append(out, s)
	}
	return out
}

func tatScore(avgTAT float64) float64 {
	switch {
	case avgTAT <= 3:
		return 100
	case avgTAT <= 4:
		return 90
	case avgTAT <= 5:
		return 80
	default:
		return 60
	}
}

func recallScore(recallRate float64) float64 {
	switch {
	case recallRate > 2:
		return 60
	case recallRate > 0:
		return 90
	default:
		return 100
	}
}

// TATClass grades an average TAT as success, warning or danger
func TATClass(avgTAT float64) string {
	switch {
	case avgTAT <= 3:
		return "success"
	case avgTAT <= 5:
		return "warning"
	default:
		return "danger"
	}
}

// AchievementClass grades an achievement percentage
func AchievementClass(achievement float64) string {
	switch {
	case achievement >= 100:
		return "success"
	case achievement >= 80:
		return "warning"
	default:
		return "danger"
	}
}
