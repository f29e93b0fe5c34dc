package logspace

import (
	"math"
	"testing"
)

func almostEqual(a, b, eps float64) bool {
	if math.IsInf(a, -1) && math.IsInf(b, -1) {
		return true
	}
	return math.Abs(a-b) < eps
}

func TestLogAddExpWithNegInf(t *testing.T) {
	if got := LogAddExp(NegInf, 3.0); got != 3.0 {
		t.Errorf("LogAddExp(-Inf, 3) = %v, want 3", got)
	}
	if got := LogAddExp(3.0, NegInf); got != 3.0 {
		t.Errorf("LogAddExp(3, -Inf) = %v, want 3", got)
	}
}

func TestLogAddExpMatchesLinear(t *testing.T) {
	a, b := math.Log(2.0), math.Log(3.0)
	got := LogAddExp(a, b)
	want := math.Log(5.0)
	if !almostEqual(got, want, 1e-9) {
		t.Errorf("LogAddExp(log2, log3) = %v, want log5 = %v", got, want)
	}
}

func TestLogSubExpMatchesLinear(t *testing.T) {
	a, b := math.Log(5.0), math.Log(2.0)
	got := LogSubExp(a, b)
	want := math.Log(3.0)
	if !almostEqual(got, want, 1e-9) {
		t.Errorf("LogSubExp(log5, log2) = %v, want log3 = %v", got, want)
	}
}

func TestLogSubExpNegInfB(t *testing.T) {
	if got := LogSubExp(3.0, NegInf); got != 3.0 {
		t.Errorf("LogSubExp(3, -Inf) = %v, want 3", got)
	}
}

func TestLogSubExpNearCancellation(t *testing.T) {
	a := math.Log(1.0)
	b := a - 1e-15
	if got := LogSubExp(a, b); !math.IsInf(got, -1) {
		t.Errorf("LogSubExp near-equal args = %v, want -Inf", got)
	}
	if !Unreliable(a, b) {
		t.Error("Unreliable(a, b) should report true for near-equal args")
	}
}

func TestLogSubExpPanicsWhenAOutOfOrder(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when a < b")
		}
	}()
	LogSubExp(1.0, 2.0)
}

func TestLogSumExpEmpty(t *testing.T) {
	if got := LogSumExp(nil); !math.IsInf(got, -1) {
		t.Errorf("LogSumExp(nil) = %v, want -Inf", got)
	}
}

func TestLogSumExpMatchesLinear(t *testing.T) {
	xs := []float64{math.Log(1.0), math.Log(2.0), math.Log(3.0)}
	got := LogSumExp(xs)
	want := math.Log(6.0)
	if !almostEqual(got, want, 1e-9) {
		t.Errorf("LogSumExp = %v, want log6 = %v", got, want)
	}
}
