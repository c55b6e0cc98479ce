package watch

import (
	"fmt"
	"time"
)

// Session is one of the regional forex trading sessions, in UTC hours
type Session struct {
	Name      string `json:"name"`
	Region    string `json:"region"`
	OpenHour  int    `json:"open_hour"`
	CloseHour int    `json:"close_hour"`
}

// Sessions lists the four major sessions. Sydney wraps midnight.
var Sessions = []Session{
	{Name: "Sydney", Region: "Asia-Pacific", OpenHour: 22, CloseHour: 7},
	{Name: "Tokyo", Region: "Asia", OpenHour: 0, CloseHour: 9},
	{Name: "London", Region: "Europe", OpenHour: 8, CloseHour: 17},
	{Name: "New York", Region: "Americas", OpenHour: 13, CloseHour: 22},
}

// Active reports whether the session is trading at hour (UTC)
func (s Session) Active(hour int) bool {
	if s.OpenHour < s.CloseHour {
		return hour >= s.OpenHour && hour < s.CloseHour
	}
	return hour >= s.OpenHour || hour < s.CloseHour
}

// MarketStatus describes whether the forex market is trading
type MarketStatus struct {
	IsOpen     bool          `json:"is_open"`
	Time       time.Time     `json:"time"`
	Sessions   []string      `json:"sessions"`
	Reason     string        `json:"reason"` // "open", "weekend"
	TimeToOpen time.Duration `json:"time_to_open,omitempty"`
}

// weekly close: Friday 22:00 UTC until Sunday 22:00 UTC
const weekBoundaryHour = 22

// GetMarketStatus returns the market status at t
func GetMarketStatus(t time.Time) MarketStatus {
	now := t.UTC()
	status := MarketStatus{Time: now, Sessions: []string{}}

	if reopen, closed := weekendReopen(now); closed {
		status.Reason = "weekend"
		status.TimeToOpen = reopen.Sub(now)
		return status
	}

	status.IsOpen = true
	status.Reason = "open"
	for _, s := range Sessions {
		if s.Active(now.Hour()) {
			status.Sessions = append(status.Sessions, s.Name)
		}
	}
	return status
}

// weekendReopen returns the Sunday reopen time when now falls in the weekly close
func weekendReopen(now time.Time) (time.Time, bool) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch now.Weekday() {
	case time.Friday:
		if now.Hour() < weekBoundaryHour {
			return time.Time{}, false
		}
		return day.AddDate(0, 0, 2).Add(weekBoundaryHour * time.Hour), true
	case time.Saturday:
		return day.AddDate(0, 0, 1).Add(weekBoundaryHour * time.Hour), true
	case time.Sunday:
		if now.Hour() >= weekBoundaryHour {
			return time.Time{}, false
		}
		return day.Add(weekBoundaryHour * time.Hour), true
	}
	return time.Time{}, false
}

// FormatDuration renders d as "5h 12m" or "12m"
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "0s"
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
