package export

import "fmt"

// FormatFileSize renders a byte count as B, KB, MB or GB with one
// decimal place above the byte range.
func FormatFileSize(bytes int64) string {
	const threshold = 1024
	units := []string{"B", "KB", "MB", "GB"}

	if bytes <= 0 {
		return "0 B"
	}

	size := float64(bytes)
	unit := 0
	for size >= threshold && unit < len(units)-1 {
		size /= threshold
		unit++
	}
	if unit == 0 {
		return fmt.Sprintf("%d B", bytes)
	}
	return fmt.Sprintf("%.1f %s", size, units[unit])
}

// FormatDuration renders seconds as HH:MM:SS, or MM:SS under an hour.
func FormatDuration(seconds float64) string {
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// FormatETA renders an estimated duration in human units.
func FormatETA(seconds float64) string {
	if seconds < 60 {
		return fmt.Sprintf("%.0f seconds", seconds)
	}
	if seconds < 3600 {
		return fmt.Sprintf("%.1f minutes", seconds/60)
	}
	return fmt.Sprintf("%.1f hours", seconds/3600)
}
