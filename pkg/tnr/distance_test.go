package tnr

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	if Unreachable.Reachable() {
		t.Error("Unreachable is reachable")
	}
	var zero Distance
	if zero != Unreachable {
		t.Error("zero Distance is not Unreachable")
	}
	for _, v := range []float64{-1, math.NaN(), math.Inf(1)} {
		if Finite(v).Reachable() {
			t.Errorf("Finite(%v) is reachable", v)
		}
	}

	a, b := Finite(2), Finite(3.5)
	if got, _ := a.Add(b).Value(); got != 5.5 {
		t.Errorf("2 + 3.5 = %v", got)
	}
	if a.Add(Unreachable).Reachable() || Unreachable.Add(a).Reachable() {
		t.Error("Unreachable does not absorb")
	}
	if !a.Less(b) || b.Less(a) || a.Less(a) {
		t.Error("finite ordering is wrong")
	}
	if !a.Less(Unreachable) || Unreachable.Less(a) || Unreachable.Less(Unreachable) {
		t.Error("Unreachable must be greater than every finite distance")
	}
	if s := Unreachable.String(); s != "unreachable" {
		t.Errorf("String = %q", s)
	}
	if s := Finite(12.5).String(); s != "12.5" {
		t.Errorf("String = %q", s)
	}
}
