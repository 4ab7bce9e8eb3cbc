package mclock

import (
	"testing"
	"time"
)

var _ Clock = System{}
var _ Clock = new(Simulated)

func TestSimulatedRunAdvancesNow(t *testing.T) {
	var c Simulated
	start := c.Now()
	c.Run(5 * time.Second)
	if got, want := c.Now(), start.Add(5*time.Second); got != want {
		t.Errorf("Now() = %v, want %v", got, want)
	}
}

func TestSimulatedNeverGoesBackwards(t *testing.T) {
	var c Simulated
	c.Run(10 * time.Second)
	first := c.Now()
	c.Run(0)
	if c.Now() < first {
		t.Error("simulated clock went backwards")
	}
}

func TestSystemNowIsMonotonicNonDecreasing(t *testing.T) {
	var sys System
	a := sys.Now()
	b := sys.Now()
	if b < a {
		t.Error("System.Now() went backwards")
	}
}
