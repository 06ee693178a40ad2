package reference

import (
	"math"
	"strings"
	"time"
)

// DefaultWithdrawalDays applies when a vaccination type is not in the table.
const DefaultWithdrawalDays = 14

// withdrawalPeriods maps vaccination/drug type to withdrawal days, the
// period after treatment during which the animal must not be sold or
// slaughtered.
var withdrawalPeriods = map[string]int{
	"FMD":                0,
	"Brucellosis":        30,
	"Anthrax":            0,
	"Lumpy Skin Disease": 45,
	"Foot and Mouth":     30,
	"Black Quarter":      14,
	"Rabies":             0,
	"Dewormer":           14,
	"Antibiotic":         21,
}

// WithdrawalDays returns the withdrawal period for a vaccination type,
// falling back to the default period for unrecognized types.
func WithdrawalDays(vaccinationType string) int {
	if days, ok := withdrawalPeriods[strings.TrimSpace(vaccinationType)]; ok {
		return days
	}
	return DefaultWithdrawalDays
}

// WithdrawalEnd computes the date the withdrawal period lapses.
func WithdrawalEnd(vaccinationDate time.Time, days int) time.Time {
	return vaccinationDate.AddDate(0, 0, days)
}

// WithdrawalDaysRemaining reports whole days left until the withdrawal end
// date, measured midnight to midnight and clamped at zero.
func WithdrawalDaysRemaining(withdrawalEnd *time.Time, now time.Time) int {
	if withdrawalEnd == nil {
		return 0
	}

	end := midnight(*withdrawalEnd)
	today := midnight(now)

	remaining := int(math.Ceil(end.Sub(today).Hours() / 24))
	if remaining < 0 {
		return 0
	}
	return remaining
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
