package lift

import (
	"testing"
)

func TestFloorMapPositions(t *testing.T) {
	tests := []struct {
		travel int64
		floors [4]int64
	}{
		{4800, [4]int64{0, 0, 2400, 4800}},
		{4801, [4]int64{0, 0, 2400, 4801}},
		{1, [4]int64{0, 0, 0, 1}},
		{200, [4]int64{0, 0, 100, 200}},
	}

	for _, tt := range tests {
		m := NewFloorMap(nil)
		m.SetFullTravelSteps(tt.travel)

		if !m.Calibrated() {
			t.Errorf("Expected calibrated after travel %d", tt.travel)
		}
		for f := uint8(1); f <= NumFloors; f++ {
			if got := m.PositionForFloor(f); got != tt.floors[f] {
				t.Errorf("travel %d: expected floor %d at %d, got %d", tt.travel, f, tt.floors[f], got)
			}
		}
		if m.PositionForFloor(1) > m.PositionForFloor(2) || m.PositionForFloor(2) > m.PositionForFloor(3) {
			t.Errorf("travel %d: floor positions not ordered", tt.travel)
		}
	}
}

func TestFloorMapInvalidFloor(t *testing.T) {
	m := NewFloorMap(nil)
	m.SetFullTravelSteps(4800)

	for _, f := range []uint8{0, 4, 255} {
		if got := m.PositionForFloor(f); got != 0 {
			t.Errorf("Expected 0 for floor %d, got %d", f, got)
		}
	}
}

func TestFloorMapZeroTravelInvalidates(t *testing.T) {
	for _, n := range []int64{0, -1, -5000} {
		m := NewFloorMap(nil)
		m.SetFullTravelSteps(4800)
		m.SetFullTravelSteps(n)

		if m.Calibrated() {
			t.Errorf("Expected uncalibrated after SetFullTravelSteps(%d)", n)
		}
		if m.FullTravelSteps() != 0 {
			t.Errorf("Expected travel 0, got %d", m.FullTravelSteps())
		}
		if m.PositionForFloor(3) != 0 {
			t.Errorf("Expected cleared floor 3 position, got %d", m.PositionForFloor(3))
		}
		if m.NearestFloor(4800) != 0 {
			t.Errorf("Expected nearest floor 0 when uncalibrated, got %d", m.NearestFloor(4800))
		}
	}
}

func TestNearestFloor(t *testing.T) {
	m := NewFloorMap(nil)
	m.SetFullTravelSteps(4800)

	tests := []struct {
		pos   int64
		floor uint8
	}{
		{0, 1},
		{-10000, 1},
		{1199, 1},
		{1200, 1}, // tie between 1 and 2 goes to the lower floor
		{1201, 2},
		{2400, 2},
		{3600, 2}, // tie between 2 and 3
		{3601, 3},
		{4800, 3},
		{1 << 40, 3},
	}

	for _, tt := range tests {
		got := m.NearestFloor(tt.pos)
		if got != tt.floor {
			t.Errorf("Expected nearest floor %d for %d, got %d", tt.floor, tt.pos, got)
		}
		if again := m.NearestFloor(tt.pos); again != got {
			t.Errorf("NearestFloor(%d) not idempotent: %d then %d", tt.pos, got, again)
		}
	}
}

func TestNearestFloorUncalibrated(t *testing.T) {
	m := NewFloorMap(nil)
	for _, pos := range []int64{-1, 0, 1, 2400} {
		if f := m.NearestFloor(pos); f != 0 {
			t.Errorf("Expected 0 for %d when uncalibrated, got %d", pos, f)
		}
	}
}

func TestFloorAt(t *testing.T) {
	m := NewFloorMap(nil)
	m.SetFullTravelSteps(4800)

	tests := []struct {
		pos   int64
		floor uint8
	}{
		{2400, 2},
		{2410, 2},
		{2390, 2},
		{2411, 0},
		{-10, 1},
		{-11, 0},
		{4795, 3},
	}

	for _, tt := range tests {
		if got := m.FloorAt(tt.pos, 10); got != tt.floor {
			t.Errorf("Expected FloorAt(%d) = %d, got %d", tt.pos, tt.floor, got)
		}
	}
}
