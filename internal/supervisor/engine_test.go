package supervisor

import (
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/robosim/internal/control"
)

type trace struct{ events []string }

func (t *trace) add(format string, args ...any) {
	t.events = append(t.events, fmt.Sprintf(format, args...))
}

type recorder struct {
	name string
	out  float64
	log  *trace
}

func (r *recorder) Name() string { return r.name }
func (r *recorder) Restart()     { r.log.add("restart %s", r.name) }
func (r *recorder) Execute(s float64, _ float64) (float64, error) {
	r.log.add("execute %s", r.name)
	return r.out, nil
}

// distanceHooks copy the raw distance into derived state.
type distanceHooks struct {
	log  *trace
	fail error
}

func (h distanceHooks) ProcessStateInfo(info float64, d *float64) error {
	h.log.add("process")
	if h.fail != nil {
		return h.fail
	}
	*d = info
	return nil
}

func (h distanceHooks) ControllerInput(d *float64) (float64, error) { return *d, nil }

type testEngine = Engine[float64, float64, float64, float64]

var _ = Describe("Engine", func() {
	var (
		log    *trace
		engine *testEngine
		far    *recorder
		near   *recorder
		farSt  *State[float64, float64, float64]
		nearSt *State[float64, float64, float64]
	)

	within := func(limit float64) Condition[float64] {
		return func(d float64) bool {
			log.add("cond %v", limit)
			return d < limit
		}
	}

	BeforeEach(func() {
		log = &trace{}
		engine = NewEngine[float64, float64, float64, float64](distanceHooks{log: log}, 0)
		far = &recorder{name: "far", out: 1, log: log}
		near = &recorder{name: "near", out: 2, log: log}
		farSt = engine.AddState(far)
		nearSt = engine.AddState(near)
	})

	It("fails loudly when no state is registered", func() {
		empty := NewEngine[float64, float64, float64, float64](distanceHooks{log: log}, 0)
		Expect(empty.Current()).To(BeNil())
		_, err := empty.Execute(1, 0.1)
		Expect(err).To(MatchError(ErrNoController))
		Expect(log.events).To(BeEmpty())
	})

	It("starts in the first registered state and restarts it once", func() {
		Expect(engine.Current().Name()).To(Equal("far"))
		for i := 0; i < 2; i++ {
			out, err := engine.Execute(1, 0.1)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(1.0))
		}
		Expect(log.events).To(Equal([]string{
			"process", "restart far", "execute far",
			"process", "execute far",
		}))
	})

	It("lets SetCurrent override the initial state", func() {
		Expect(engine.SetCurrent(nearSt)).To(Succeed())
		out, err := engine.Execute(1, 0.1)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(2.0))
		Expect(log.events).To(Equal([]string{"process", "restart near", "execute near"}))
	})

	It("rejects states it does not own", func() {
		other := NewEngine[float64, float64, float64, float64](distanceHooks{log: log}, 0)
		foreign := other.AddState(&recorder{name: "x", log: log})
		Expect(engine.SetCurrent(foreign)).To(MatchError(ErrUnknownState))
		Expect(engine.AddTransition(farSt, within(1), foreign)).To(MatchError(ErrUnknownState))
	})

	It("restarts the initial controller on first activation only", func() {
		Expect(engine.SetCurrent(farSt)).To(Succeed())
		for i := 0; i < 3; i++ {
			out, err := engine.Execute(1, 0.1)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(1.0))
		}
		Expect(log.events).To(Equal([]string{
			"process", "restart far", "execute far",
			"process", "execute far",
			"process", "execute far",
		}))
	})

	Describe("switching on a distance threshold", func() {
		BeforeEach(func() {
			Expect(engine.AddTransition(farSt, within(0.1), nearSt)).To(Succeed())
			Expect(engine.SetCurrent(farSt)).To(Succeed())
			_, err := engine.Execute(1, 0.1)
			Expect(err).NotTo(HaveOccurred())
			log.events = nil
		})

		It("stays while the condition is false", func() {
			out, err := engine.Execute(0.5, 0.1)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(1.0))
			Expect(engine.Current().Name()).To(Equal("far"))
			Expect(log.events).To(Equal([]string{"process", "cond 0.1", "execute far"}))
		})

		It("switches and restarts the target exactly once before executing it", func() {
			var switches []string
			engine.OnTransition = func(from, to string) { switches = append(switches, from+"->"+to) }

			out, err := engine.Execute(0.05, 0.1)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(2.0))
			Expect(log.events).To(Equal([]string{"process", "cond 0.1", "restart near", "execute near"}))
			Expect(switches).To(Equal([]string{"far->near"}))

			log.events = nil
			_, err = engine.Execute(0.05, 0.1)
			Expect(err).NotTo(HaveOccurred())
			Expect(log.events).To(Equal([]string{"process", "execute near"}))
		})
	})

	It("fires the first true rule in registration order and nothing after it", func() {
		third := engine.AddState(&recorder{name: "third", out: 3, log: log})
		Expect(engine.AddTransition(farSt, within(10), nearSt)).To(Succeed())
		Expect(engine.AddTransition(farSt, within(20), third)).To(Succeed())
		Expect(engine.AddTransition(nearSt, within(30), third)).To(Succeed())
		Expect(engine.SetCurrent(farSt)).To(Succeed())

		out, err := engine.Execute(1, 0.1)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(2.0))
		Expect(log.events).To(Equal([]string{"process", "cond 10", "restart near", "execute near"}))
	})

	It("restarts on a self-transition", func() {
		Expect(engine.AddTransition(farSt, within(1), farSt)).To(Succeed())
		Expect(engine.SetCurrent(farSt)).To(Succeed())
		_, _ = engine.Execute(5, 0.1)
		log.events = nil

		_, err := engine.Execute(0.5, 0.1)
		Expect(err).NotTo(HaveOccurred())
		Expect(log.events).To(Equal([]string{"process", "cond 1", "restart far", "execute far"}))
	})

	It("evaluates no condition when processing fails", func() {
		boom := errors.New("boom")
		engine = NewEngine[float64, float64, float64, float64](distanceHooks{log: log, fail: boom}, 0)
		st := engine.AddState(far)
		Expect(engine.AddTransition(st, within(1), st)).To(Succeed())
		Expect(engine.SetCurrent(st)).To(Succeed())

		_, err := engine.Execute(0.5, 0.1)
		Expect(err).To(MatchError(boom))
		Expect(log.events).To(Equal([]string{"process"}))
	})
})

var _ = Describe("Constant supervisor", func() {
	It("emits its fixed command whatever the input", func() {
		s := NewConstant(control.ConstantParams{V: 1, W: 0})
		for _, dt := range []float64{0, 0.01, 0.25} {
			u, err := s.Execute(unicycleInfo(dt), dt)
			Expect(err).NotTo(HaveOccurred())
			Expect(u).To(Equal(control.Unicycle{V: 1, W: 0}))
		}
		Expect(s.State()).To(Equal("constant"))
	})
})
