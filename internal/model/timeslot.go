package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Timeslot is a serving time expressed as hours*100+minutes, the same
// integer the contract stores ("18:00" is 1800).
type Timeslot int

// ParseTimeslot accepts "18:00" as well as the ledger form "1800".
func ParseTimeslot(s string) (Timeslot, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty timeslot")
	}
	var hh, mm int
	if h, m, ok := strings.Cut(s, ":"); ok {
		var err error
		if hh, err = strconv.Atoi(h); err != nil {
			return 0, fmt.Errorf("invalid timeslot %q", s)
		}
		if mm, err = strconv.Atoi(m); err != nil {
			return 0, fmt.Errorf("invalid timeslot %q", s)
		}
	} else {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("invalid timeslot %q", s)
		}
		hh, mm = n/100, n%100
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("invalid timeslot %q", s)
	}
	return Timeslot(hh*100 + mm), nil
}

// ParseTimeslots parses a comma separated list such as "18:00,21:00".
func ParseTimeslots(s string) ([]Timeslot, error) {
	var out []Timeslot
	for _, p := range strings.Split(s, ",") {
		if strings.TrimSpace(p) == "" {
			continue
		}
		ts, err := ParseTimeslot(p)
		if err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, nil
}

func (t Timeslot) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/100, int(t)%100)
}

// MarshalJSON writes the HH:MM form so API clients never see the ledger integer.
func (t Timeslot) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts either "18:00", "1800" or the bare number 1800.
func (t *Timeslot) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n int
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("timeslot: %w", err)
		}
		s = strconv.Itoa(n)
	}
	ts, err := ParseTimeslot(s)
	if err != nil {
		return err
	}
	*t = ts
	return nil
}

// UnmarshalParam lets echo bind "18:00" from query and form values.
func (t *Timeslot) UnmarshalParam(param string) error {
	ts, err := ParseTimeslot(param)
	if err != nil {
		return err
	}
	*t = ts
	return nil
}
