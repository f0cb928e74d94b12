package ui

import (
	"fmt"
	"strings"
	"time"
)

// heaterLabel strips the Klipper object type from a sensor name, so
// "heater_generic chamber" reads as "chamber". Bare names are kept.
func heaterLabel(name string) string {
	if i := strings.LastIndexByte(name, ' '); i >= 0 && i < len(name)-1 {
		return name[i+1:]
	}
	return name
}

// formatTemp renders a reading and its target, omitting an unset target.
func formatTemp(temp, target float64) string {
	if target <= 0 {
		return fmt.Sprintf("%.1f°", temp)
	}
	return fmt.Sprintf("%.1f° / %.0f°", temp, target)
}

// formatPercent renders a 0..1 ratio as a whole percentage.
func formatPercent(ratio float64) string {
	if ratio < 0 {
		ratio = 0
	}
	return fmt.Sprintf("%.0f%%", ratio*100)
}

// formatSeconds renders a duration given in seconds, as Moonraker reports
// them.
func formatSeconds(sec float64) string {
	if sec <= 0 {
		return "-"
	}
	d := time.Duration(sec) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// formatEndTime renders a Unix timestamp in local time.
func formatEndTime(unix float64) string {
	if unix <= 0 {
		return "-"
	}
	return time.Unix(int64(unix), 0).Local().Format("2006-01-02 15:04")
}

// formatFilament renders filament length given in millimetres.
func formatFilament(mm float64) string {
	if mm <= 0 {
		return "-"
	}
	if mm >= 1000 {
		return fmt.Sprintf("%.2fm", mm/1000)
	}
	return fmt.Sprintf("%.0fmm", mm)
}

// level buckets a 0..1 load or fan ratio into the three badge colors.
type level int

const (
	levelLow level = iota
	levelMid
	levelHigh
)

func levelOf(ratio float64) level {
	switch {
	case ratio < 0.3:
		return levelLow
	case ratio < 0.6:
		return levelMid
	default:
		return levelHigh
	}
}

// truncate truncates a string to max runes with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// clamp keeps a list cursor inside [0, n).
func clamp(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
