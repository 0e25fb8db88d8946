package checkout

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Canteen pickup windows in minutes since midnight, closed interval.
const (
	weekdayOpen  = 8 * 60
	weekdayClose = 20 * 60
	weekendOpen  = 9 * 60
	weekendClose = 17 * 60
)

// parsePickupTime parses "HH:MM" into minutes since midnight.
func parsePickupTime(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid pickup time %q", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid pickup hour %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid pickup minute %q", s)
	}

	return hour*60 + minute, nil
}

func withinPickupWindow(day time.Weekday, minutes int) bool {
	if day == time.Saturday || day == time.Sunday {
		return minutes >= weekendOpen && minutes <= weekendClose
	}
	return minutes >= weekdayOpen && minutes <= weekdayClose
}
