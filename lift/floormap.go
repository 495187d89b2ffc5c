package lift

import (
	"steplift/core"
)

// FloorMap turns the calibrated travel length into floor positions.
// Floor 1 is the bottom (position 0), floor 3 is the full travel and
// floor 2 sits halfway, rounded toward zero.
type FloorMap struct {
	fullTravelSteps int64
	positions       [NumFloors + 1]int64 // Indexed 1..NumFloors
	calibrated      bool
	log             *core.Log
}

// NewFloorMap creates an uncalibrated map
func NewFloorMap(log *core.Log) *FloorMap {
	if log == nil {
		log = core.NopLog()
	}
	log.Info("[FLOOR] Init (no calib)")
	return &FloorMap{log: log}
}

// SetFullTravelSteps recomputes the floor positions.
// n <= 0 marks the map uncalibrated and clears every position.
func (m *FloorMap) SetFullTravelSteps(n int64) {
	if n <= 0 {
		m.fullTravelSteps = 0
		m.positions = [NumFloors + 1]int64{}
		m.calibrated = false
		m.log.Info("[FLOOR] Calibration cleared")
		return
	}

	m.fullTravelSteps = n
	m.positions[1] = 0
	m.positions[2] = n / 2
	m.positions[3] = n
	m.calibrated = true

	m.log.Info("[FLOOR] Calibrated: full=" + core.Itoa64(n) +
		" floor1=" + core.Itoa64(m.positions[1]) +
		" floor2=" + core.Itoa64(m.positions[2]) +
		" floor3=" + core.Itoa64(m.positions[3]))
}

// Calibrated reports whether floor positions are resolvable
func (m *FloorMap) Calibrated() bool {
	return m.calibrated && m.fullTravelSteps > 0
}

// FullTravelSteps returns the travel length (0 = uncalibrated)
func (m *FloorMap) FullTravelSteps() int64 {
	return m.fullTravelSteps
}

// PositionForFloor returns the step position of floor f, or 0 for an invalid floor
func (m *FloorMap) PositionForFloor(f uint8) int64 {
	if f < 1 || f > NumFloors {
		return 0
	}
	return m.positions[f]
}

// NearestFloor returns the floor closest to pos, or 0 when uncalibrated.
// Equidistant floors resolve to the lower floor.
func (m *FloorMap) NearestFloor(pos int64) uint8 {
	if !m.Calibrated() {
		return 0
	}

	best := uint8(1)
	bestDist := absSteps(pos - m.positions[1])
	for f := uint8(2); f <= NumFloors; f++ {
		d := absSteps(pos - m.positions[f])
		if d < bestDist {
			best = f
			bestDist = d
		}
	}
	return best
}

// FloorAt returns the floor within tol steps of pos, or 0 between floors
func (m *FloorMap) FloorAt(pos int64, tol int64) uint8 {
	f := m.NearestFloor(pos)
	if f == 0 {
		return 0
	}
	if absSteps(pos-m.positions[f]) > tol {
		return 0
	}
	return f
}

func absSteps(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
