package curves

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCurve is returned for a curve kind given an unusable
	// number of control points, such as a perfect circle without exactly 3.
	ErrInvalidCurve = errors.New("invalid curve")

	// ErrDegenerateCurve is returned when the control points do not span a
	// curve: coincident points or a collinear circle.
	ErrDegenerateCurve = errors.New("degenerate curve")

	// ErrCurveTooComplex is returned when flattening would need more
	// points than a slider path can use.
	ErrCurveTooComplex = errors.New("curve too complex")
)

type CurveError struct {
	Err    error
	Type   Kind
	Points int
}

func (e *CurveError) Error() string {
	return fmt.Sprintf("curves: %s curve with %d control points: %v", e.Type, e.Points, e.Err)
}

func (e *CurveError) Unwrap() error { return e.Err }

func curveError(err error, kind Kind, points int) *CurveError {
	return &CurveError{Err: err, Type: kind, Points: points}
}
