package acquire

import (
	"fmt"
	"strings"
)

// ParseISO8601Duration converts the API's PT#H#M#S duration form to
// seconds. Malformed input parses to 0.
func ParseISO8601Duration(s string) int {
	if !strings.HasPrefix(s, "PT") {
		return 0
	}
	var h, m, sec, num int
	for _, ch := range s[2:] {
		switch {
		case ch >= '0' && ch <= '9':
			num = num*10 + int(ch-'0')
		case ch == 'H':
			h, num = num, 0
		case ch == 'M':
			m, num = num, 0
		case ch == 'S':
			sec, num = num, 0
		default:
			num = 0
		}
	}
	return h*3600 + m*60 + sec
}

// FormatDuration renders seconds as M:SS or H:MM:SS.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		return "0:00"
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
