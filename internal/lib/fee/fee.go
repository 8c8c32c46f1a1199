// Package fee реализует чистый расчёт стоимости парковки по тарифному
// плану пользователя и времени въезда/выезда. Функции не имеют побочных
// эффектов и детерминированы относительно входных данных.
package fee

import (
	"time"

	"github.com/magabrotheeeer/parking-manager/internal/models"
)

// Rates задаёт ставки тарифов. Значения — целые песо.
type Rates struct {
	Monthly     int `yaml:"monthly" env:"FEE_MONTHLY" env-default:"300000"`
	Daily       int `yaml:"daily" env:"FEE_DAILY" env-default:"15000"`
	Hour        int `yaml:"hour" env:"FEE_HOUR" env-default:"5000"`
	OverageHour int `yaml:"overage_hour" env:"FEE_OVERAGE_HOUR" env-default:"5000"`
}

// DefaultRates возвращает ставки по умолчанию.
func DefaultRates() Rates {
	return Rates{
		Monthly:     300000,
		Daily:       15000,
		Hour:        5000,
		OverageHour: 5000,
	}
}

// Hours возвращает количество оплачиваемых часов между въездом и выездом.
// Любая начатая доля часа считается полным часом.
func Hours(entryTime, exitTime time.Time) int {
	elapsed := exitTime.Sub(entryTime)
	hours := int(elapsed / time.Hour)
	if elapsed%time.Hour > 0 {
		hours++
	}
	return hours
}

// Compute возвращает сумму к оплате для плана и интервала парковки.
//
//   - mensual: фиксированная месячная ставка независимо от времени;
//   - diario: суточная ставка за первые 24 часа, каждый час сверх —
//     по ставке доплаты;
//   - ocasional: количество часов, умноженное на почасовую ставку.
//
// Возвращает models.ErrInvalidTimeRange, если выезд не задан или раньше
// въезда, и models.ErrUnknownPlan для неизвестного плана.
func Compute(plan string, entryTime, exitTime time.Time, rates Rates) (int, error) {
	if exitTime.IsZero() || exitTime.Before(entryTime) {
		return 0, models.ErrInvalidTimeRange
	}

	hours := Hours(entryTime, exitTime)
	switch plan {
	case models.PlanMensual:
		return rates.Monthly, nil
	case models.PlanDiario:
		if hours <= 24 {
			return rates.Daily, nil
		}
		return rates.Daily + (hours-24)*rates.OverageHour, nil
	case models.PlanOcasional:
		return hours * rates.Hour, nil
	default:
		return 0, models.ErrUnknownPlan
	}
}
