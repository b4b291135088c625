package events

import (
	"time"

	"git.home.luguber.info/inful/luxd/internal/lighting"
)

// LightingChanged is emitted by the state store after an accepted write
// changed the intensity vector. Prev is the value immediately before the
// change, New the value now current.
type LightingChanged struct {
	Prev   lighting.Vector
	New    lighting.Vector
	Origin lighting.Origin
	At     time.Time
}

// ScheduleFired is emitted by the schedule executor when a schedule's
// start or end time triggers.
type ScheduleFired struct {
	ScheduleID string
	RunID      string
	Phase      SchedulePhase
	At         time.Time
}

// SchedulePhase names which edge of a schedule fired.
type SchedulePhase string

const (
	PhaseStart SchedulePhase = "start"
	PhaseEnd   SchedulePhase = "end"
)

// RecordsChanged is emitted by the record watcher when profile or
// schedule files changed on disk outside the API.
type RecordsChanged struct {
	Kind RecordKind
	At   time.Time
}

// RecordKind names a record directory.
type RecordKind string

const (
	KindProfiles  RecordKind = "profiles"
	KindSchedules RecordKind = "schedules"
)
