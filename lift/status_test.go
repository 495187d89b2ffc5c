package lift

import (
	"testing"
)

func TestFormatStatusLine(t *testing.T) {
	tests := []struct {
		status Status
		line   string
	}{
		{
			Status{State: StateNeedCalibration},
			"STATE=1 FLOOR=0 TARGET_FLOOR=0 POS=0 ERROR=0",
		},
		{
			Status{State: StateMoving, CurrentFloor: 0, TargetFloor: 3, Position: 1234},
			"STATE=5 FLOOR=0 TARGET_FLOOR=3 POS=1234 ERROR=0",
		},
		{
			Status{State: StateError, Position: -42, Error: ErrUnexpectedLimitSwitch},
			"STATE=7 FLOOR=0 TARGET_FLOOR=0 POS=-42 ERROR=2",
		},
	}

	for _, tt := range tests {
		if got := FormatStatusLine(tt.status); got != tt.line {
			t.Errorf("Expected %q, got %q", tt.line, got)
		}
	}
}

func TestParseStatusLine(t *testing.T) {
	s, err := ParseStatusLine("STATE=4 FLOOR=2 TARGET_FLOOR=0 POS=2400 ERROR=0\r\n")
	if err != nil {
		t.Fatalf("ParseStatusLine failed: %v", err)
	}
	if s.State != StateIdle || s.CurrentFloor != 2 || s.TargetFloor != 0 || s.Position != 2400 || s.Error != ErrNone {
		t.Errorf("Unexpected status %+v", s)
	}

	in := Status{State: StateError, TargetFloor: 3, Position: -7, Error: ErrMotionTimeout}
	out, err := ParseStatusLine(FormatStatusLine(in))
	if err != nil {
		t.Fatalf("ParseStatusLine failed: %v", err)
	}
	if out != in {
		t.Errorf("Expected %+v, got %+v", in, out)
	}
}

func TestParseStatusLineRejects(t *testing.T) {
	tests := []struct {
		line string
		err  error
	}{
		{"[SM] Moving to floor 2", ErrNotStatusLine},
		{"", ErrNotStatusLine},
		{"STATE=4 FLOOR=2", ErrBadStatusField},
		{"STATE=4 FLOOR=2 TARGET_FLOOR=0 ERROR=0 POS=1", ErrBadStatusField},
		{"STATE=x FLOOR=2 TARGET_FLOOR=0 POS=1 ERROR=0", ErrBadStatusField},
		{"STATE=9 FLOOR=2 TARGET_FLOOR=0 POS=1 ERROR=0", ErrBadStatusField},
		{"STATE=4 FLOOR=4 TARGET_FLOOR=0 POS=1 ERROR=0", ErrBadStatusField},
	}

	for _, tt := range tests {
		if _, err := ParseStatusLine(tt.line); err != tt.err {
			t.Errorf("%q: expected %v, got %v", tt.line, tt.err, err)
		}
	}
}
