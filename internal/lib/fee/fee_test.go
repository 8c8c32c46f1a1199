package fee

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/parking-manager/internal/models"
)

func TestHours(t *testing.T) {
	entry := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		exit     time.Time
		expected int
	}{
		{"ровно час", entry.Add(1 * time.Hour), 1},
		{"полтора часа округляются вверх", entry.Add(90 * time.Minute), 2},
		{"минута считается часом", entry.Add(1 * time.Minute), 1},
		{"нулевой интервал", entry, 0},
		{"ровно сутки", entry.Add(24 * time.Hour), 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Hours(entry, tt.exit))
		})
	}
}

func TestCompute(t *testing.T) {
	rates := DefaultRates()
	entry := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		plan     string
		exit     time.Time
		expected int
	}{
		{"ocasional полтора часа", models.PlanOcasional, entry.Add(90 * time.Minute), 2 * 5000},
		{"ocasional ровно час", models.PlanOcasional, entry.Add(1 * time.Hour), 5000},
		{"diario внутри суток", models.PlanDiario, entry.Add(5 * time.Hour), 15000},
		{"diario ровно сутки", models.PlanDiario, entry.Add(24 * time.Hour), 15000},
		{"diario сутки и шесть часов", models.PlanDiario, entry.Add(30 * time.Hour), 15000 + 6*5000},
		{"mensual не зависит от времени", models.PlanMensual, entry.Add(100 * time.Hour), 300000},
		{"mensual мгновенный выезд", models.PlanMensual, entry, 300000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, err := Compute(tt.plan, entry, tt.exit, rates)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, amount)
		})
	}
}

func TestCompute_InvalidTimeRange(t *testing.T) {
	rates := DefaultRates()
	entry := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)

	_, err := Compute(models.PlanOcasional, entry, time.Time{}, rates)
	assert.ErrorIs(t, err, models.ErrInvalidTimeRange)

	_, err = Compute(models.PlanOcasional, entry, entry.Add(-time.Minute), rates)
	assert.ErrorIs(t, err, models.ErrInvalidTimeRange)
}

func TestCompute_UnknownPlan(t *testing.T) {
	rates := DefaultRates()
	entry := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)

	_, err := Compute("semanal", entry, entry.Add(time.Hour), rates)
	assert.ErrorIs(t, err, models.ErrUnknownPlan)
}
