package geomath

import "github.com/example/trip-quoting/internal/models"

// CalculationMethod reports how an adjustment was computed.
type CalculationMethod string

const (
	MethodTrigonometry CalculationMethod = "trigonometry"
	MethodStreetBased  CalculationMethod = "street-based"
)

const (
	// defaultAdjustMeters applies when an instruction names no distance.
	defaultAdjustMeters = 10.0
	// metersPerStreet is the assumed length of a typical city block.
	metersPerStreet = 150.0
)

// AdjustInstruction is a structured relative movement, extracted from
// natural language by the conversational layer before it reaches us.
type AdjustInstruction struct {
	Direction     string  `json:"direction"`
	DistanceM     float64 `json:"distance_meters,omitempty"`
	DirectionHint string  `json:"direction_hint,omitempty"`
	Streets       int     `json:"streets,omitempty"`
	Landmark      string  `json:"landmark,omitempty"`
}

// Adjustment is the outcome of a relative movement. Confidence degrades as
// the instruction gets vaguer; it never silently reads as certain.
type Adjustment struct {
	Location   models.Coordinate `json:"location"`
	Method     CalculationMethod `json:"method"`
	Confidence float64           `json:"confidence"`
}

// Adjust moves anchor according to a relative-movement instruction.
// Street-count instructions assume metersPerStreet per block and carry
// reduced confidence; so do missing distances and landmark references.
func Adjust(anchor models.Coordinate, instr AdjustInstruction) (Adjustment, error) {
	dir, recognized := NormalizeDirection(instr.Direction, instr.DirectionHint)

	if instr.Streets > 0 {
		loc, err := Project(anchor, dir, float64(instr.Streets)*metersPerStreet)
		if err != nil {
			return Adjustment{}, err
		}
		conf := 0.7
		if !recognized {
			conf = 0.5
		}
		return Adjustment{Location: loc, Method: MethodStreetBased, Confidence: conf}, nil
	}

	meters := instr.DistanceM
	conf := 0.9
	if meters <= 0 {
		meters = defaultAdjustMeters
		conf = 0.7
	}
	if instr.Landmark != "" {
		conf = 0.6
	}
	if !recognized {
		conf = 0.5
	}

	loc, err := Project(anchor, dir, meters)
	if err != nil {
		return Adjustment{}, err
	}
	return Adjustment{Location: loc, Method: MethodTrigonometry, Confidence: conf}, nil
}
