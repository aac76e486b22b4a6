package model

import (
	"encoding/json"
	"fmt"
)

// Clock is a time of day expressed as minutes since midnight.
//
// Values at or beyond 24:00 are representable and are rendered as-is
// ("24:30"); nothing here rolls over into the next day.
type Clock int

// ParseClock parses an "HH:MM" string
func ParseClock(s string) (Clock, error) {
	if len(s) != 5 || s[2] != ':' || !isDigits(s[:2]) || !isDigits(s[3:]) {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	if h > 23 || m > 59 {
		return 0, fmt.Errorf("invalid time %q: out of range", s)
	}
	return Clock(h*60 + m), nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ClockAt builds a Clock from an hour and minute
func ClockAt(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// AddMinutes adds minutes with plain integer arithmetic; the result is not wrapped at midnight
func AddMinutes(c Clock, minutes int) Clock {
	return c + Clock(minutes)
}

// String renders the clock as HH:MM
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// MarshalJSON encodes the clock as an "HH:MM" string
func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes an "HH:MM" string
func (c *Clock) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
