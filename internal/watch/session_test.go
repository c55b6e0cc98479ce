package watch

import (
	"reflect"
	"testing"
	"time"
)

func TestGetMarketStatusSessions(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want []string
	}{
		// 2026-10-14 is a Wednesday
		{"tokyo and sydney", time.Date(2026, 10, 14, 3, 0, 0, 0, time.UTC), []string{"Sydney", "Tokyo"}},
		{"london overlap", time.Date(2026, 10, 14, 8, 30, 0, 0, time.UTC), []string{"Tokyo", "London"}},
		{"london new york", time.Date(2026, 10, 14, 14, 0, 0, 0, time.UTC), []string{"London", "New York"}},
		{"new york only", time.Date(2026, 10, 14, 20, 0, 0, 0, time.UTC), []string{"New York"}},
		{"sydney late", time.Date(2026, 10, 14, 23, 0, 0, 0, time.UTC), []string{"Sydney"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := GetMarketStatus(tt.at)
			if !status.IsOpen || status.Reason != "open" {
				t.Errorf("Expected open market, got %+v", status)
			}
			if !reflect.DeepEqual(status.Sessions, tt.want) {
				t.Errorf("Expected sessions %v, got %v", tt.want, status.Sessions)
			}
		})
	}
}

func TestGetMarketStatusWeekend(t *testing.T) {
	// Friday 23:00 UTC, reopens Sunday 22:00
	status := GetMarketStatus(time.Date(2026, 10, 16, 23, 0, 0, 0, time.UTC))
	if status.IsOpen || status.Reason != "weekend" {
		t.Fatalf("Expected weekend close, got %+v", status)
	}
	if status.TimeToOpen != 47*time.Hour {
		t.Errorf("Expected 47h to open, got %v", status.TimeToOpen)
	}

	saturday := GetMarketStatus(time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC))
	if saturday.IsOpen || saturday.TimeToOpen != 34*time.Hour {
		t.Errorf("Expected Saturday closed with 34h to open, got %+v", saturday)
	}

	sundayOpen := GetMarketStatus(time.Date(2026, 10, 18, 22, 30, 0, 0, time.UTC))
	if !sundayOpen.IsOpen {
		t.Errorf("Expected Sunday 22:30 to be open, got %+v", sundayOpen)
	}

	fridayOpen := GetMarketStatus(time.Date(2026, 10, 16, 21, 0, 0, 0, time.UTC))
	if !fridayOpen.IsOpen {
		t.Errorf("Expected Friday 21:00 to be open, got %+v", fridayOpen)
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(5*time.Hour + 12*time.Minute); got != "5h 12m" {
		t.Errorf("Expected 5h 12m, got %s", got)
	}
	if got := FormatDuration(12 * time.Minute); got != "12m" {
		t.Errorf("Expected 12m, got %s", got)
	}
	if got := FormatDuration(-time.Second); got != "0s" {
		t.Errorf("Expected 0s, got %s", got)
	}
}
