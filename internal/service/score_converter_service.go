package service

import (
	"fmt"
	"math"
)

// Placement levels, lowest first. Classes in the catalog use the same names.
const (
	LevelBeginner          = "beginner"
	LevelElementary        = "elementary"
	LevelPreIntermediate   = "pre_intermediate"
	LevelIntermediate      = "intermediate"
	LevelUpperIntermediate = "upper_intermediate"
	LevelAdvanced          = "advanced"
)

const MaxPlacementScore float64 = 100.0

type levelBand struct {
	below float64
	level string
}

// Bands are checked in order; a score lands in the first band it is below.
var placementBands = []levelBand{
	{below: 20, level: LevelBeginner},
	{below: 40, level: LevelElementary},
	{below: 55, level: LevelPreIntermediate},
	{below: 70, level: LevelIntermediate},
	{below: 85, level: LevelUpperIntermediate},
}

type ScoreConverterService interface {
	// ToPercentage turns correct/total into a 0-100 score with two decimals.
	ToPercentage(correct, total int) float64
	ConvertToLevel(score float64) (string, error)
}

type scoreConverterServiceImpl struct{}

func NewScoreConverterService() ScoreConverterService {
	return &scoreConverterServiceImpl{}
}

func (s *scoreConverterServiceImpl) ToPercentage(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*MaxPlacementScore*100) / 100
}

func (s *scoreConverterServiceImpl) ConvertToLevel(score float64) (string, error) {
	if score < 0 || score > MaxPlacementScore || math.IsNaN(score) {
		return "", fmt.Errorf("%w: %.2f is outside 0-%.0f", ErrScoreOutOfRange, score, MaxPlacementScore)
	}
	for _, band := range placementBands {
		if score < band.below {
			return band.level, nil
		}
	}
	return LevelAdvanced, nil
}
