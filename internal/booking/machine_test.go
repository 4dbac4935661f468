package booking

import (
	"errors"
	"testing"
)

func fillStep1(m *Machine) {
	m.SetField(FieldFirstName, "Jo")
	m.SetField(FieldLastName, "Smith")
	m.SetField(FieldEmail, "jo@x.com")
	m.SetField(FieldMobileNumber, "(224) 555-0100")
	m.SetField(FieldCarYear, "2020")
	m.SetField(FieldCarMake, "Ford")
	m.SetField(FieldCarModel, "F-150")
}

func TestAdvance_GateHolds(t *testing.T) {
	m := NewMachine()
	fillStep1(m)

	cmds, err := m.Advance()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.State != StateStep2 || m.Step != 2 {
		t.Errorf("expected step 2, got state=%s step=%d", m.State, m.Step)
	}
	if len(cmds) != 1 || cmds[0].Kind != CommandScroll || cmds[0].Target != ScrollTargetForm {
		t.Errorf("expected scroll command, got %v", cmds)
	}
}

func TestAdvance_BlockedByEachField(t *testing.T) {
	breakers := []struct {
		field Field
		value string
	}{
		{FieldFirstName, "J"},
		{FieldLastName, ""},
		{FieldEmail, "jo@x"},
		{FieldMobileNumber, "555-0100"},
		{FieldCarYear, ""},
		{FieldCarMake, "F"},
		{FieldCarModel, ""},
	}
	for _, b := range breakers {
		m := NewMachine()
		fillStep1(m)
		m.SetField(b.field, b.value)

		if _, err := m.Advance(); !errors.Is(err, ErrStepIncomplete) {
			t.Errorf("breaking %s: expected ErrStepIncomplete, got %v", b.field, err)
		}
		if m.State != StateStep1 {
			t.Errorf("breaking %s: machine advanced anyway", b.field)
		}
	}
}

func TestValidity_TriState(t *testing.T) {
	m := NewMachine()

	if m.Validity[FieldEmail] != ValidityUnknown {
		t.Error("untouched field should be unknown")
	}

	m.SetField(FieldEmail, "jo@x")
	if m.Validity[FieldEmail] != ValidityInvalid {
		t.Error("expected invalid after bad edit")
	}

	m.SetField(FieldEmail, "jo@x.com")
	if m.Validity[FieldEmail] != ValidityValid {
		t.Error("expected valid after good edit")
	}

	// Ungoverned fields never appear in the validity map.
	m.SetField(FieldCarYear, "2020")
	if _, ok := m.Validity[FieldCarYear]; ok {
		t.Error("car-year should not have a validity entry")
	}
}

func TestSetField_DateClearsTime(t *testing.T) {
	m := NewMachine()
	fillStep1(m)
	m.Advance()

	m.SetField(FieldDate, "2026-09-10")
	m.SetField(FieldTime, "9:30 AM")
	m.SetField(FieldDate, "2026-09-11")

	if m.Draft.Time != "" {
		t.Errorf("expected time cleared after date change, got %q", m.Draft.Time)
	}
}

func TestSetField_UnknownFieldRoutedAround(t *testing.T) {
	m := NewMachine()
	if err := m.SetField(Field("nonsense"), "x"); err != nil {
		t.Errorf("unknown field should not error, got %v", err)
	}
}

func TestBack_AlwaysPermittedAndPreservesData(t *testing.T) {
	m := NewMachine()
	fillStep1(m)
	m.Advance()
	m.SetField(FieldDate, "2026-09-10")

	if _, err := m.Back(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.State != StateStep1 {
		t.Error("expected step 1 after back")
	}
	if m.Draft.Date != "2026-09-10" || m.Draft.FirstName != "Jo" {
		t.Error("back must preserve captured data")
	}
}

func TestBeginSubmit_Gating(t *testing.T) {
	m := NewMachine()
	fillStep1(m)
	m.Advance()

	if err := m.BeginSubmit(); !errors.Is(err, ErrScheduleIncomplete) {
		t.Errorf("expected ErrScheduleIncomplete, got %v", err)
	}

	m.SetField(FieldDate, "2026-09-10")
	m.SetField(FieldTime, "9:30 AM")
	if err := m.BeginSubmit(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.State != StateSubmitting {
		t.Errorf("expected submitting, got %s", m.State)
	}

	// Re-entry is a no-op.
	if err := m.BeginSubmit(); !errors.Is(err, ErrAlreadySubmitting) {
		t.Errorf("expected ErrAlreadySubmitting, got %v", err)
	}

	// Edits are locked while submitting.
	if err := m.SetField(FieldEmail, "other@x.com"); !errors.Is(err, ErrLocked) {
		t.Errorf("expected ErrLocked, got %v", err)
	}
}

func TestCompleteSubmit(t *testing.T) {
	m := NewMachine()
	fillStep1(m)
	m.Advance()
	m.SetField(FieldDate, "2026-09-10")
	m.SetField(FieldTime, "9:30 AM")
	m.BeginSubmit()

	m.CompleteSubmit()
	if m.State != StateRedirected {
		t.Errorf("expected redirected, got %s", m.State)
	}

	// Only exit from submitting; idempotent afterwards.
	m.CompleteSubmit()
	if m.State != StateRedirected {
		t.Errorf("expected redirected, got %s", m.State)
	}
}

func TestBeginSubmit_FromStep1(t *testing.T) {
	m := NewMachine()
	if err := m.BeginSubmit(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestApplyAttribution_NonDestructive(t *testing.T) {
	d := Draft{UTMSource: "existing"}
	d.ApplyAttribution(map[string]string{
		"utm_source": "google",
		"utm_medium": "cpc",
		"gclid":      "abc123",
		"referrer":   "",
	})

	if d.UTMSource != "existing" {
		t.Error("attribution must not overwrite existing values")
	}
	if d.UTMMedium != "cpc" || d.GCLID != "abc123" {
		t.Error("expected sparse values merged")
	}
	if d.Referrer != "" {
		t.Error("empty source values must stay absent")
	}
}
