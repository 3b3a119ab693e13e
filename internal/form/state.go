package form

import (
	"time"

	"github.com/SWENT-team09-2025/joinme-backend/internal/event"
)

// Mode identifies which screen the form state belongs to. One shared state
// shape parameterized by mode replaces per-screen state variants, so there is
// no runtime type testing at mutation sites.
type Mode int

// Form modes.
const (
	ModeCreateEvent Mode = iota
	ModeEditEvent
	ModeCreateSerie
	ModeEditSerie
)

// Creating reports whether the mode creates a new record. Creation applies
// the stricter "not in the past" date rule.
func (m Mode) Creating() bool {
	return m == ModeCreateEvent || m == ModeCreateSerie
}

// String returns the mode name for logging.
func (m Mode) String() string {
	switch m {
	case ModeCreateEvent:
		return "create_event"
	case ModeEditEvent:
		return "edit_event"
	case ModeCreateSerie:
		return "create_serie"
	case ModeEditSerie:
		return "edit_serie"
	}
	return "unknown"
}

// Field names the editable form fields.
type Field string

// Editable fields.
const (
	FieldCategory    Field = "category"
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldDuration    Field = "duration"
	FieldCapacity    Field = "capacity"
	FieldDate        Field = "date"
	FieldTime        Field = "time"
	FieldVisibility  Field = "visibility"
)

// requiredFields are the string fields that must be non-blank and error-free
// before a record is saveable. Location is tracked separately since it is a
// resolved selection, not a string field.
var requiredFields = []Field{
	FieldCategory, FieldTitle, FieldDescription, FieldDuration,
	FieldCapacity, FieldDate, FieldTime, FieldVisibility,
}

// groupInheritedFields are waived whenever the record is linked to a group:
// their values come from the group and are always considered valid.
var groupInheritedFields = map[Field]bool{
	FieldCategory:   true,
	FieldCapacity:   true,
	FieldVisibility: true,
}

// State is an immutable snapshot of one editing screen's form. Reducers
// return a fresh snapshot; stored maps are never mutated in place.
type State struct {
	Mode Mode

	// GroupLinked waives category/capacity/visibility validation because
	// those values are inherited from the owning group.
	GroupLinked bool

	// CurrentParticipants is the participant count of the record being
	// edited; the capacity floor. Zero on creation.
	CurrentParticipants int

	values map[Field]string
	errors map[Field]string

	// Location is the resolved location selection, nil until the user picks
	// a lookup result.
	Location *event.Location
}

// NewState creates an empty form state for the given mode.
func NewState(mode Mode) State {
	return State{
		Mode:   mode,
		values: map[Field]string{},
		errors: map[Field]string{},
	}
}

// Value returns the normalized value of a field, empty if unset.
func (s State) Value(f Field) string { return s.values[f] }

// Error returns the validation message of a field, empty if valid or unset.
func (s State) Error(f Field) string { return s.errors[f] }

// clone copies the snapshot so reducers can write without aliasing.
func (s State) clone() State {
	next := s
	next.values = make(map[Field]string, len(s.values))
	next.errors = make(map[Field]string, len(s.errors))
	for k, v := range s.values {
		next.values[k] = v
	}
	for k, v := range s.errors {
		next.errors[k] = v
	}
	if s.Location != nil {
		loc := *s.Location
		next.Location = &loc
	}
	return next
}

// validate runs the validator for a single field against the snapshot.
func (s State) validate(f Field, raw string, now time.Time) Outcome {
	switch f {
	case FieldCategory:
		return ValidateCategory(raw)
	case FieldTitle:
		return ValidateTitle(raw)
	case FieldDescription:
		return ValidateDescription(raw)
	case FieldDuration:
		return ValidateDuration(raw)
	case FieldCapacity:
		return ValidateCapacity(raw, s.CurrentParticipants)
	case FieldDate:
		return ValidateDate(raw, s.Mode.Creating(), now)
	case FieldTime:
		return ValidateTime(raw)
	case FieldVisibility:
		return ValidateVisibility(raw)
	}
	return Outcome{Normalized: raw}
}

// SetField is the reducer for a single field edit. Setting the date or time
// re-validates the pair jointly, since the past-instant rule is a function of
// the combined value.
func SetField(s State, f Field, raw string, now time.Time) State {
	next := s.clone()

	if f == FieldDate || f == FieldTime {
		rawDate, rawTime := next.values[FieldDate], next.values[FieldTime]
		if f == FieldDate {
			rawDate = raw
		} else {
			rawTime = raw
		}
		dateOut := ValidateDate(rawDate, next.Mode.Creating(), now)
		timeOut := ValidateTime(rawTime)
		// Only run the joint check once both fields have been set; an unset
		// partner is reported as unset, not as a past instant.
		if rawDate != "" && rawTime != "" {
			dateOut, timeOut = RevalidateDateTime(rawDate, rawTime, next.Mode.Creating(), now)
		}
		next.applyOutcome(FieldDate, rawDate, dateOut)
		next.applyOutcome(FieldTime, rawTime, timeOut)
		return next
	}

	next.applyOutcome(f, raw, next.validate(f, raw, now))
	return next
}

// SetLocation is the reducer for a resolved location selection. Passing nil
// clears the selection (the user retyped the query).
func SetLocation(s State, loc *event.Location) State {
	next := s.clone()
	if loc == nil {
		next.Location = nil
		return next
	}
	resolved := *loc
	next.Location = &resolved
	return next
}

// applyOutcome records a field's raw value and validation outcome.
func (s *State) applyOutcome(f Field, raw string, out Outcome) {
	if out.Valid() {
		s.values[f] = out.Normalized
		delete(s.errors, f)
		return
	}
	s.values[f] = raw
	if raw == "" && (f == FieldDate || f == FieldTime) {
		// Unset paired fields hold no error until the user touches them.
		delete(s.errors, f)
		delete(s.values, f)
		return
	}
	s.errors[f] = out.Message
}

// Savable is the aggregate validity predicate: every error slot is empty,
// every required field is non-blank, and a location has been resolved.
// Group-inherited fields are exempt on both counts.
func (s State) Savable() bool {
	for f, msg := range s.errors {
		if msg != "" && !(s.GroupLinked && groupInheritedFields[f]) {
			return false
		}
	}
	for _, f := range requiredFields {
		if s.GroupLinked && groupInheritedFields[f] {
			continue
		}
		if s.values[f] == "" {
			return false
		}
	}
	return s.Location != nil && s.Location.Name != ""
}
