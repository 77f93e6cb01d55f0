package services

import (
	"strconv"
	"strings"
)

// ParseDurationMinutes parses a video duration in "MM:SS" or "HH:MM:SS"
// format into total minutes as a real number. The second return value
// is false for empty or malformed input; callers treat that as an
// absent duration, never as an error.
func ParseDurationMinutes(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	parts := strings.Split(raw, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, false
	}

	nums := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return 0, false
		}
		nums[i] = n
	}

	if len(parts) == 2 { // MM:SS
		return float64(nums[0]) + float64(nums[1])/60.0, true
	}
	// HH:MM:SS
	return float64(nums[0])*60 + float64(nums[1]) + float64(nums[2])/60.0, true
}

// BillableMinutes converts a duration string to a billable quantity.
// Partial minutes are not charged: the result is floored, so "4:45"
// bills 4 minutes.
func BillableMinutes(raw string) (int, bool) {
	minutes, ok := ParseDurationMinutes(raw)
	if !ok {
		return 0, false
	}
	return int(minutes), true
}
