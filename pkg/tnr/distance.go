package tnr

import (
	"math"
	"strconv"
)

// Distance is a shortest-path length that may be unreachable.
// The zero value is Unreachable.
type Distance struct {
	value float64
	ok    bool
}

// Unreachable is the distance between two nodes with no connecting path.
var Unreachable = Distance{}

// Finite returns a reachable distance. Negative, NaN and infinite values
// are treated as Unreachable.
func Finite(v float64) Distance {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return Unreachable
	}
	return Distance{value: v, ok: true}
}

// Value returns the distance and whether it is reachable.
func (d Distance) Value() (float64, bool) { return d.value, d.ok }

// Reachable reports whether d is finite.
func (d Distance) Reachable() bool { return d.ok }

// Add returns d + o. Unreachable absorbs.
func (d Distance) Add(o Distance) Distance {
	if !d.ok || !o.ok {
		return Unreachable
	}
	return Distance{value: d.value + o.value, ok: true}
}

// Less reports whether d is strictly shorter than o.
// Unreachable is longer than every finite distance.
func (d Distance) Less(o Distance) bool {
	switch {
	case !d.ok:
		return false
	case !o.ok:
		return true
	default:
		return d.value < o.value
	}
}

func (d Distance) String() string {
	if !d.ok {
		return "unreachable"
	}
	return strconv.FormatFloat(d.value, 'f', -1, 64)
}
