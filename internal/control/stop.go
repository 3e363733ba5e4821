package control

// Stop commands zero velocity.
type Stop[S any] struct{}

func NewStop[S any]() *Stop[S] {
	return &Stop[S]{}
}

func (s *Stop[S]) Name() string { return "stop" }

func (s *Stop[S]) Execute(_ S, _ float64) (Unicycle, error) {
	return Unicycle{}, nil
}

func (s *Stop[S]) Restart() {}
