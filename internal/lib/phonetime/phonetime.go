// Package phonetime guesses a sender's local time from a phone number.
package phonetime

import (
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/nyaruka/phonenumbers"
)

// Location returns the first timezone registered for the number's region.
// The bool is false when the number could not be resolved and UTC is returned.
func Location(phone string) (*time.Location, bool) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return time.UTC, false
	}
	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}

	num, err := phonenumbers.Parse(phone, "")
	if err != nil {
		return time.UTC, false
	}

	zones, err := phonenumbers.GetTimezonesForNumber(num)
	if err != nil || len(zones) == 0 {
		return time.UTC, false
	}

	loc, err := time.LoadLocation(zones[0])
	if err != nil {
		return time.UTC, false
	}
	return loc, true
}

// LocalTime converts now into the sender's timezone.
func LocalTime(phone string, now time.Time) (time.Time, bool) {
	loc, ok := Location(phone)
	return now.In(loc), ok
}
