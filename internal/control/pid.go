package control

import "math"

// Gains is the tunable part of a PID regulator.
type Gains struct {
	Kp float64 `param:"kp,label=Proportional gain,min=0,max=100,step=0.1" yaml:"kp"`
	Ki float64 `param:"ki,label=Integral gain,min=0,max=100,step=0.01" yaml:"ki"`
	Kd float64 `param:"kd,label=Differential gain,min=0,max=100,step=0.01" yaml:"kd"`
}

// Validate rejects negative or non-finite gains.
func (g Gains) Validate() error {
	for _, v := range [...]float64{g.Kp, g.Ki, g.Kd} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return ErrParameterBounds
		}
	}
	return nil
}

// PID is a scalar regulator driven by an error signal and irregular time steps.
type PID struct {
	Gains
	// IntegralLimit bounds the accumulated integral; zero disables the bound.
	IntegralLimit float64

	integral float64
	prevErr  float64
	first    bool
}

func NewPID(g Gains) *PID {
	return &PID{Gains: g, first: true}
}

// Step advances the regulator by dt and returns the control output for err.
func (p *PID) Step(err, dt float64) float64 {
	if p.first || dt <= 0 {
		if p.first {
			p.prevErr = err
			p.first = false
		}
		return p.Kp*err + p.Ki*p.integral
	}

	p.integral += err * dt
	if p.IntegralLimit > 0 {
		p.integral = math.Max(-p.IntegralLimit, math.Min(p.IntegralLimit, p.integral))
	}
	derivative := (err - p.prevErr) / dt
	p.prevErr = err

	return p.Kp*err + p.Ki*p.integral + p.Kd*derivative
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}
