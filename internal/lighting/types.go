// Package lighting contains the domain value types for the fixture:
// the 6-channel intensity vector, named profiles, and timed schedules.
package lighting

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Channels is the number of intensity channels on the fixture.
const Channels = 6

// ChannelNames lists the channel names in wire order.
var ChannelNames = [Channels]string{"IR", "R", "G", "B", "W", "UV"}

// Vector is the fixture's intensity vector in channel order
// [IR, R, G, B, W, UV]. Values are documented as 0-100 but are not
// enforced anywhere; the fixture clamps in hardware.
type Vector [Channels]int

// Equal reports whether two vectors carry the same values.
func (v Vector) Equal(other Vector) bool {
	return v == other
}

// String renders the vector as "[a, b, c, d, e, f]". This rendering is
// part of the audit log format and must stay stable.
func (v Vector) String() string {
	parts := make([]string, Channels)
	for i, val := range v {
		parts[i] = fmt.Sprintf("%d", val)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// MarshalJSON renders the vector as a plain 6-element JSON array.
func (v Vector) MarshalJSON() ([]byte, error) {
	return json.Marshal(v[:])
}

// UnmarshalJSON parses a JSON array, requiring exactly 6 elements.
func (v *Vector) UnmarshalJSON(data []byte) error {
	var raw []int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != Channels {
		return fmt.Errorf("lighting vector must have %d values, got %d", Channels, len(raw))
	}
	copy(v[:], raw)
	return nil
}

// Profile is a named, immutable saved lighting preset. The name is the
// unique key; replacing a profile is delete-then-create by the caller.
type Profile struct {
	Name   string `json:"name"`
	Values Vector `json:"values"`
}

// Schedule is a timed, enable-able lighting program referencing a
// profile snapshot. Start and End are integer military times (e.g. 2230
// for 22:30), matching what the frontend sends.
type Schedule struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Start         int    `json:"start"`
	End           int    `json:"end"`
	ProfileName   string `json:"profile_name"`
	ProfileValues Vector `json:"profile_values"`
	Enabled       bool   `json:"enabled"`
}

// StateUpdate is a partial update to the state store. Nil fields leave
// the corresponding store field untouched.
type StateUpdate struct {
	Lighting  *Vector
	Schedules *[]Schedule
}

// Origin classifies where a write came from.
type Origin string

const (
	OriginLocal  Origin = "local"
	OriginRemote Origin = "remote"
)
