package quota

import (
	"fmt"
	"strings"
	"time"

	"github.com/kdufoot/kdufoot/internal/permissions"
)

// Period is the window a quota counter covers.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodMonthly Period = "monthly"
)

// Rule caps how often a subject may exercise a permission per period.
type Rule struct {
	Permission permissions.Permission `json:"permission"`
	Limit      int64                  `json:"limit"`
	Period     Period                 `json:"period"`
}

// DefaultRules are the usage limits applied to every tier.
var DefaultRules = []Rule{
	{Permission: permissions.VideosAnalyze, Limit: 3, Period: PeriodDaily},
	{Permission: permissions.VideosAnalyzeLong, Limit: 10, Period: PeriodDaily},
	{Permission: permissions.SessionsAdapt, Limit: 3, Period: PeriodMonthly},
	{Permission: permissions.MatchesCreate, Limit: 50, Period: PeriodMonthly},
}

func (r Rule) validate() error {
	if !permissions.IsRegistered(r.Permission) {
		return fmt.Errorf("quota: %w %q", permissions.ErrUnknownPermission, r.Permission)
	}
	if r.Limit <= 0 {
		return fmt.Errorf("quota: limit for %s must be positive", r.Permission)
	}
	switch r.Period {
	case PeriodDaily, PeriodMonthly:
		return nil
	default:
		return fmt.Errorf("quota: unsupported period %q for %s", r.Period, r.Permission)
	}
}

// window returns the label of the period containing now and the instant the next one starts, both in UTC.
func (p Period) window(now time.Time) (label string, resetsAt time.Time) {
	now = now.UTC()
	switch p {
	case PeriodMonthly:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start.Format("2006-01"), start.AddDate(0, 1, 0)
	default:
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return start.Format("2006-01-02"), start.AddDate(0, 0, 1)
	}
}

// Key builds the counter key for subject and permission in the period containing now.
func Key(subject string, permission permissions.Permission, period Period, now time.Time) string {
	label, _ := period.window(now)
	return strings.Join([]string{"quota", subject, string(permission), label}, ":")
}
