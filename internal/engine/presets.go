package engine

import (
	"poker-club/backend/internal/models"

	"github.com/shopspring/decimal"
)

// structurePresets are ready-made blind structures selectable by name at
// tournament creation.
var structurePresets = map[string][]models.BlindLevel{
	"standard": buildLevels(1200, []blindStep{
		{25, 50, 0}, {50, 100, 0}, {75, 150, 0}, {100, 200, 25},
		{150, 300, 25}, {200, 400, 50}, {300, 600, 75}, {400, 800, 100},
		{500, 1000, 100}, {700, 1400, 200}, {1000, 2000, 300},
		{1500, 3000, 400}, {2000, 4000, 500}, {3000, 6000, 1000},
	}),
	"turbo": buildLevels(600, []blindStep{
		{25, 50, 0}, {50, 100, 0}, {100, 200, 25}, {150, 300, 50},
		{200, 400, 50}, {300, 600, 100}, {500, 1000, 100},
		{700, 1400, 200}, {1000, 2000, 300}, {1500, 3000, 500},
		{2500, 5000, 500}, {4000, 8000, 1000},
	}),
	"deepstack": buildLevels(1800, []blindStep{
		{25, 50, 0}, {50, 100, 0}, {75, 150, 0}, {100, 200, 0},
		{125, 250, 25}, {150, 300, 25}, {200, 400, 50}, {250, 500, 50},
		{300, 600, 75}, {400, 800, 100}, {500, 1000, 100},
		{600, 1200, 200}, {800, 1600, 200}, {1000, 2000, 300},
		{1500, 3000, 400}, {2000, 4000, 500},
	}),
}

type blindStep struct {
	small, big, ante int
}

func buildLevels(durationSecs int, steps []blindStep) []models.BlindLevel {
	levels := make([]models.BlindLevel, len(steps))
	for i, s := range steps {
		levels[i] = models.BlindLevel{
			Level:        i + 1,
			DurationSecs: durationSecs,
			SmallBlind:   s.small,
			BigBlind:     s.big,
			Ante:         s.ante,
			RebuyAllowed: i < 6,
			AddonAllowed: i == 6,
		}
	}
	return levels
}

// GetStructurePreset returns a copy of a named blind structure.
func GetStructurePreset(name string) ([]models.BlindLevel, bool) {
	preset, exists := structurePresets[name]
	if !exists {
		return nil, false
	}
	out := make([]models.BlindLevel, len(preset))
	copy(out, preset)
	return out, true
}

// payoutPresets are ready-made prize splits selectable by name.
var payoutPresets = map[string][]models.PayoutTier{
	"winner_takes_all": {
		{Position: 1, Percentage: decimal.NewFromInt(100)},
	},
	"top3": {
		{Position: 1, Percentage: decimal.NewFromInt(50)},
		{Position: 2, Percentage: decimal.NewFromInt(30)},
		{Position: 3, Percentage: decimal.NewFromInt(20)},
	},
	"top5": {
		{Position: 1, Percentage: decimal.NewFromInt(40)},
		{Position: 2, Percentage: decimal.NewFromInt(25)},
		{Position: 3, Percentage: decimal.NewFromInt(15)},
		{Position: 4, Percentage: decimal.NewFromInt(12)},
		{Position: 5, Percentage: decimal.NewFromInt(8)},
	},
	"final_table": {
		{Position: 1, Percentage: decimal.NewFromInt(30)},
		{Position: 2, Percentage: decimal.NewFromInt(20)},
		{Position: 3, Percentage: decimal.NewFromInt(14)},
		{Position: 4, Percentage: decimal.NewFromInt(10)},
		{Position: 5, Percentage: decimal.NewFromInt(8)},
		{Position: 6, Percentage: decimal.NewFromInt(6)},
		{Position: 7, Percentage: decimal.NewFromFloat(4.5)},
		{Position: 8, Percentage: decimal.NewFromFloat(4)},
		{Position: 9, Percentage: decimal.NewFromFloat(3.5)},
	},
}

// GetPayoutPreset returns a copy of a named prize split.
func GetPayoutPreset(name string) ([]models.PayoutTier, bool) {
	preset, exists := payoutPresets[name]
	if !exists {
		return nil, false
	}
	out := make([]models.PayoutTier, len(preset))
	copy(out, preset)
	return out, true
}

// StructurePresetNames lists the available blind structure presets.
func StructurePresetNames() []string {
	names := make([]string, 0, len(structurePresets))
	for name := range structurePresets {
		names = append(names, name)
	}
	return names
}

// PayoutPresetNames lists the available payout presets.
func PayoutPresetNames() []string {
	names := make([]string, 0, len(payoutPresets))
	for name := range payoutPresets {
		names = append(names, name)
	}
	return names
}
