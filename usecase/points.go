package usecase

import (
	"github.com/dododo1295/studyroute/config"
	"github.com/dododo1295/studyroute/model"
)

// PointsPolicy is the single source of point values and clamping.
type PointsPolicy struct {
	Easy   int
	Medium int
	Hard   int

	// ClampAtZero keeps a user's total from going negative.
	ClampAtZero bool

	// FocusBonusPoints are added on completion when at least
	// FocusBonusMinutes of timed study preceded it. Zero minutes disables it.
	FocusBonusMinutes int
	FocusBonusPoints  int
}

func DefaultPointsPolicy() PointsPolicy {
	return PointsPolicy{
		Easy:              10,
		Medium:            20,
		Hard:              30,
		ClampAtZero:       true,
		FocusBonusMinutes: 25,
		FocusBonusPoints:  5,
	}
}

func NewPointsPolicy(cfg config.PointsConfig) PointsPolicy {
	return PointsPolicy{
		Easy:              cfg.Easy,
		Medium:            cfg.Medium,
		Hard:              cfg.Hard,
		ClampAtZero:       cfg.ClampAtZero,
		FocusBonusMinutes: cfg.FocusBonusMinutes,
		FocusBonusPoints:  cfg.FocusBonusPoints,
	}
}

// ForDifficulty returns the base value of a tier; unknown tiers score as easy.
func (p PointsPolicy) ForDifficulty(d model.Difficulty) int {
	switch d.Canonical() {
	case model.DifficultyHard:
		return p.Hard
	case model.DifficultyMedium:
		return p.Medium
	default:
		return p.Easy
	}
}

// CompletionAward is what completing the activity is worth after studyMinutes of focus.
func (p PointsPolicy) CompletionAward(a model.Activity, studyMinutes int) int {
	award := p.ForDifficulty(a.Difficulty)
	if p.FocusBonusMinutes > 0 && studyMinutes >= p.FocusBonusMinutes {
		award += p.FocusBonusPoints
	}
	return award
}

// Revocation is what un-completing the activity takes back: exactly what its
// completion granted, or the tier value for records that predate AwardedPoints.
func (p PointsPolicy) Revocation(a model.Activity) int {
	if a.AwardedPoints > 0 {
		return a.AwardedPoints
	}
	return p.ForDifficulty(a.Difficulty)
}

// Apply adds delta to total under the clamp rule.
func (p PointsPolicy) Apply(total, delta int) int {
	next := total + delta
	if p.ClampAtZero && next < 0 {
		return 0
	}
	return next
}
