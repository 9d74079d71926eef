package helpers

import (
	"fmt"
	"time"

	twmerge "github.com/Oudwins/tailwind-merge-go"
)

// FormatInt formats an integer as a string
func FormatInt(n int) string {
	return fmt.Sprintf("%d", n)
}

// FormatKg formats a mass in kilograms (e.g., 12.345 -> "12.3 kg")
func FormatKg(kg float64) string {
	return fmt.Sprintf("%.1f kg", kg)
}

// FormatPercentage formats an integer as a percentage (e.g., 15 -> "15%")
func FormatPercentage(n int) string {
	return fmt.Sprintf("%d%%", n)
}

// FormatDate formats a time.Time as "Jan 2, 2006"
func FormatDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

// FormatDateTime formats a time.Time as "Jan 2, 2006 3:04 PM"
func FormatDateTime(t time.Time) string {
	return t.Format("Jan 2, 2006 3:04 PM")
}

// FormatStationDate reformats a YYYY-MM-DD station date, returning it as is
// when it does not parse.
func FormatStationDate(day string) string {
	t, err := time.Parse(time.DateOnly, day)
	if err != nil {
		return day
	}
	return FormatDate(t)
}

// Classes merges tailwind class lists; later classes win over conflicting
// earlier ones.
func Classes(classes ...string) string {
	return twmerge.Merge(classes...)
}

// LevelClass colors a fill level badge.
func LevelClass(level string, extra ...string) string {
	base := "inline-flex items-center rounded px-2 py-0.5 text-xs font-semibold bg-emerald-100 text-emerald-800"
	switch level {
	case "warning":
		base = Classes(base, "bg-red-100 text-red-800")
	case "caution":
		base = Classes(base, "bg-amber-100 text-amber-800")
	}
	return Classes(append([]string{base}, extra...)...)
}

// BarClass colors an occupancy bar.
func BarClass(level string) string {
	switch level {
	case "warning":
		return Classes("h-2 rounded bg-emerald-500", "bg-red-500")
	case "caution":
		return Classes("h-2 rounded bg-emerald-500", "bg-amber-500")
	default:
		return "h-2 rounded bg-emerald-500"
	}
}
