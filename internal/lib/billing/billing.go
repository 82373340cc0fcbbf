// Package billing вычисляет границы расчетного периода подписки
// в зависимости от типа плана.
package billing

import (
	"fmt"
	"time"

	"github.com/magabrotheeeer/subscription-manager/internal/models"
)

// TrialDays — длительность пробного периода в днях.
const TrialDays = 14

// PeriodEnd возвращает дату окончания расчетного периода, начинающегося
// в start: +1 месяц для monthly, +1 год для yearly, +14 дней для trial.
//
// Дата окончания подписки и дата следующего списания при создании
// совпадают и считаются этой функцией.
func PeriodEnd(planType string, start time.Time) (time.Time, error) {
	const op = "billing.PeriodEnd"
	switch planType {
	case models.PlanMonthly:
		return start.AddDate(0, 1, 0), nil
	case models.PlanYearly:
		return start.AddDate(1, 0, 0), nil
	case models.PlanTrial:
		return start.AddDate(0, 0, TrialDays), nil
	default:
		return time.Time{}, fmt.Errorf("%s: unknown plan type %q", op, planType)
	}
}
