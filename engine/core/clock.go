package core

import "time"

// Clock measures elapsed wall time for the frame loop. A zero clock is
// stopped; Update has no effect on non-started clocks.
type Clock struct {
	startTime time.Time
	lastTime  time.Time
	elapsed   float64
	delta     float64
}

func NewClock() *Clock {
	return &Clock{}
}

// Starts the clock. Resets elapsed time.
func (c *Clock) Start() {
	c.startTime = time.Now()
	c.lastTime = c.startTime
	c.elapsed = 0
	c.delta = 0
}

// Updates the clock. Should be called once per frame, just before reading
// elapsed or delta time.
func (c *Clock) Update() {
	if c.startTime.IsZero() {
		return
	}
	now := time.Now()
	c.elapsed = now.Sub(c.startTime).Seconds()
	c.delta = now.Sub(c.lastTime).Seconds()
	c.lastTime = now
}

// Stops the clock. Does not reset elapsed time.
func (c *Clock) Stop() {
	c.startTime = time.Time{}
}

// Elapsed returns seconds since Start, as of the last Update.
func (c *Clock) Elapsed() float64 {
	return c.elapsed
}

// Delta returns seconds between the two most recent Updates.
func (c *Clock) Delta() float64 {
	return c.delta
}
