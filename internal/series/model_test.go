package series

import (
	"errors"
	"testing"
)

func TestSerie_EventMembership(t *testing.T) {
	s := &Serie{ID: "serie-1"}

	s.AddEvent("ev-1")
	s.AddEvent("ev-2")
	s.AddEvent("ev-1") // duplicate is a no-op
	if len(s.EventIDs) != 2 {
		t.Fatalf("EventIDs = %v, want 2 members", s.EventIDs)
	}
	if !s.HasEvent("ev-1") || !s.HasEvent("ev-2") {
		t.Error("added events not reported as members")
	}

	s.RemoveEvent("ev-1")
	if s.HasEvent("ev-1") {
		t.Error("ev-1 still a member after removal")
	}
	s.RemoveEvent("not-a-member") // no-op
	if len(s.EventIDs) != 1 {
		t.Errorf("EventIDs = %v, want only ev-2", s.EventIDs)
	}
}

func TestSerie_InheritsFromGroup(t *testing.T) {
	s := &Serie{ID: "serie-1"}
	if s.InheritsFromGroup() {
		t.Error("serie without group should not inherit")
	}

	empty := ""
	s.GroupID = &empty
	if s.InheritsFromGroup() {
		t.Error("empty group id should not count as linked")
	}

	gid := "group-1"
	s.GroupID = &gid
	if !s.InheritsFromGroup() {
		t.Error("serie with group id should inherit")
	}
}

func TestInconsistentStateError(t *testing.T) {
	cause := errors.New("connection refused")
	err := &InconsistentStateError{SerieID: "serie-1", GroupID: "group-1", Err: cause}

	if !errors.Is(err, cause) {
		t.Error("should unwrap to the cause")
	}
	var target *InconsistentStateError
	if !errors.As(error(err), &target) {
		t.Error("errors.As should match *InconsistentStateError")
	}
}
