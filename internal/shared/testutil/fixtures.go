package testutil

import (
	"sync"
	"time"
)

// ProductionCSV is the three-row order sheet used across the pipeline tests:
// order A has one finished and one open line, order B is finished.
const ProductionCSV = " oc ,Total Patines, pendientes \n" +
	"A,10,0\n" +
	"A,5,5\n" +
	"B,7,0\n"

// DatedCSV has day-first dates deliberately out of order plus one
// unparsable date.
const DatedCSV = "ORDEN DE COMPRA,FECHA,TOTAL PATINES,PENDIENTES\n" +
	"A,02/01/2024,4,1\n" +
	"B,01/01/2024,6,0\n" +
	"A,sin fecha,3,3\n" +
	"B,02/01/2024,2,0\n"

// FakeClock is a manually advanced clock for TTL tests.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock starts a clock at t.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
