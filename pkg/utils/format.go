package utils

import (
	"fmt"
	"strings"
)

// FormatBytes renders a size with binary units, e.g. "1.50 MB".
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	f := float64(n)
	units := []string{"B", "KB", "MB", "GB", "TB"}
	i := 0
	for f >= 1024 && i < len(units)-1 {
		f = f / 1024
		i++
	}
	if units[i] == "B" {
		return fmt.Sprintf("%d %s", int64(f), units[i])
	}
	return fmt.Sprintf("%.2f %s", f, units[i])
}

// FormatPrice renders minor units, e.g. 1999 and "usd" as "19.99 USD".
// Zero is shown as "free".
func FormatPrice(cents int64, currency string) string {
	if cents == 0 {
		return "free"
	}
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, cents/100, cents%100, strings.ToUpper(strings.TrimSpace(currency)))
}

// FormatDuration renders seconds as h:mm:ss, or m:ss below an hour.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, seconds%3600/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
