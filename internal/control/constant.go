package control

import "math"

type ConstantParams struct {
	V float64 `param:"v,label=Linear velocity,min=-10,max=10,step=0.05" yaml:"v"`
	W float64 `param:"w,label=Angular velocity,min=-10,max=10,step=0.05" yaml:"w"`
}

// Constant returns the same command every tick regardless of input.
type Constant[S any] struct {
	params ConstantParams
}

func NewConstant[S any](v, w float64) *Constant[S] {
	return &Constant[S]{params: ConstantParams{V: v, W: w}}
}

func (c *Constant[S]) Name() string { return "constant" }

func (c *Constant[S]) Execute(_ S, _ float64) (Unicycle, error) {
	return Unicycle{V: c.params.V, W: c.params.W}, nil
}

func (c *Constant[S]) Restart() {}

func (c *Constant[S]) Parameters() ConstantParams { return c.params }

func (c *Constant[S]) SetParameters(p ConstantParams) error {
	if math.IsNaN(p.V) || math.IsInf(p.V, 0) || math.IsNaN(p.W) || math.IsInf(p.W, 0) {
		return ErrParameterBounds
	}
	c.params = p
	return nil
}
