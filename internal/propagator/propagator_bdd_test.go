package propagator_test

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/sixdof/internal/attitude"
	"github.com/san-kum/sixdof/internal/dynamo"
	"github.com/san-kum/sixdof/internal/forces"
	"github.com/san-kum/sixdof/internal/integrators"
	"github.com/san-kum/sixdof/internal/propagator"
)

var identity = [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

var unitAttitude = [4]float64{0, 0, 0, 1}

type countingWind struct {
	samples  int
	advances int
	elapsed  float64
	velocity mgl64.Vec3
}

func (w *countingWind) Sample(mgl64.Vec3) mgl64.Vec3 {
	w.samples++
	return w.velocity
}

func (w *countingWind) Advance(dt float64) {
	w.advances++
	w.elapsed += dt
}

func quatNorm(a [4]float64) float64 {
	return math.Sqrt(a[0]*a[0] + a[1]*a[1] + a[2]*a[2] + a[3]*a[3])
}

var _ = Describe("Propagator", func() {
	var (
		fm        forces.Model
		zeroForce forces.Model
		control   []float64
	)

	BeforeEach(func() {
		fm = forces.Default()
		zeroForce = forces.New(mgl64.Vec3{}, forces.Null{})
		control = []float64{0, 0, 0, 0}
	})

	Describe("construction", func() {
		It("rejects non-positive mass", func() {
			_, err := propagator.New(0, identity, [3]float64{}, [3]float64{}, unitAttitude, [3]float64{})
			Expect(err).To(MatchError(dynamo.ErrInvalidParameters))

			_, err = propagator.New(-2, identity, [3]float64{}, [3]float64{}, unitAttitude, [3]float64{})
			Expect(err).To(MatchError(dynamo.ErrInvalidParameters))
		})

		It("rejects an inertia that is not positive-definite", func() {
			bad := [3][3]float64{{1, 0, 0}, {0, 0, 0}, {0, 0, 1}}
			_, err := propagator.New(1, bad, [3]float64{}, [3]float64{}, unitAttitude, [3]float64{})
			Expect(err).To(MatchError(dynamo.ErrInvalidParameters))
		})

		It("rejects a zero initial attitude", func() {
			_, err := propagator.New(1, identity, [3]float64{}, [3]float64{}, [4]float64{}, [3]float64{})
			Expect(err).To(MatchError(dynamo.ErrInvalidParameters))
			Expect(err).To(MatchError(dynamo.ErrDegenerateAttitude))
		})

		It("normalizes the initial attitude once", func() {
			p, err := propagator.New(1, identity, [3]float64{}, [3]float64{}, [4]float64{0, 0, 0, 2}, [3]float64{})
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Attitude()).To(Equal([4]float64{0, 0, 0, 1}))
		})

		It("starts at time zero with the default control length", func() {
			p, err := propagator.New(1, identity, [3]float64{}, [3]float64{}, unitAttitude, [3]float64{})
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Time()).To(BeZero())
			Expect(p.Steps()).To(BeZero())
			Expect(p.ControlDim()).To(Equal(4))
		})

		It("rejects a control length the actuator cannot consume", func() {
			_, err := propagator.New(1, identity, [3]float64{}, [3]float64{}, unitAttitude, [3]float64{},
				propagator.WithControlDim(2))
			Expect(err).To(MatchError(dynamo.ErrInvalidParameters))
		})

		It("accepts any control length for a model that declares none", func() {
			p, err := propagator.New(1, identity, [3]float64{}, [3]float64{}, unitAttitude, [3]float64{},
				propagator.WithForceModel(zeroForce), propagator.WithControlDim(2))
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Step(0.01, []float64{1, 1})).To(Succeed())
		})
	})

	Describe("state access", func() {
		var p *propagator.Propagator

		BeforeEach(func() {
			var err error
			p, err = propagator.New(1, identity, [3]float64{1, 2, 3}, [3]float64{4, 5, 6}, unitAttitude, [3]float64{0.1, 0.2, 0.3})
			Expect(err).NotTo(HaveOccurred())
		})

		It("reports the flat layout", func() {
			Expect(p.StateVector()).To(Equal([13]float64{1, 2, 3, 4, 5, 6, 0, 0, 0, 1, 0.1, 0.2, 0.3}))
			Expect(p.Position()).To(Equal([3]float64{1, 2, 3}))
			Expect(p.Velocity()).To(Equal([3]float64{4, 5, 6}))
			Expect(p.Rates()).To(Equal([3]float64{0.1, 0.2, 0.3}))
		})

		It("round trips an overwrite without renormalizing", func() {
			v := []float64{9, 8, 7, 6, 5, 4, 0, 0, 0, 3, 0.5, 0.25, 0.125}
			Expect(p.SetStateVector(v)).To(Succeed())
			got := p.StateVector()
			Expect(got[:]).To(Equal(v))
		})

		It("rejects a vector of the wrong length", func() {
			before := p.StateVector()
			Expect(p.SetStateVector(make([]float64, 12))).To(MatchError(dynamo.ErrShape))
			Expect(p.SetStateVector(make([]float64, 14))).To(MatchError(dynamo.ErrShape))
			Expect(p.StateVector()).To(Equal(before))
		})
	})

	Describe("step arguments", func() {
		var p *propagator.Propagator

		BeforeEach(func() {
			var err error
			p, err = propagator.New(1, identity, [3]float64{}, [3]float64{11, 0, 0}, unitAttitude, [3]float64{})
			Expect(err).NotTo(HaveOccurred())
		})

		DescribeTable("invalid dt",
			func(dt float64) {
				before := p.StateVector()
				Expect(p.Step(dt, control)).To(MatchError(dynamo.ErrInvalidStepArgument))
				Expect(p.StateVector()).To(Equal(before))
				Expect(p.Steps()).To(BeZero())
			},
			Entry("zero", 0.0),
			Entry("negative", -0.01),
			Entry("NaN", math.NaN()),
			Entry("+Inf", math.Inf(1)),
		)

		DescribeTable("wrong control length",
			func(n int) {
				Expect(p.Step(0.01, make([]float64, n))).To(MatchError(dynamo.ErrInvalidStepArgument))
				Expect(p.Steps()).To(BeZero())
			},
			Entry("empty", 0),
			Entry("short", 3),
			Entry("long", 5),
		)
	})

	Describe("the benchmark scenario", func() {
		It("coasts without forces", func() {
			p, err := propagator.New(1, identity, [3]float64{}, [3]float64{11, 0, 0}, unitAttitude, [3]float64{},
				propagator.WithForceModel(zeroForce))
			Expect(err).NotTo(HaveOccurred())

			Expect(p.Step(0.01, control)).To(Succeed())

			pos := p.Position()
			Expect(pos[0]).To(BeNumerically("~", 0.11, 1e-12))
			Expect(pos[1]).To(BeZero())
			Expect(pos[2]).To(BeZero())
			Expect(p.Velocity()).To(Equal([3]float64{11, 0, 0}))
			Expect(p.Attitude()).To(Equal(unitAttitude))
			Expect(p.Time()).To(BeNumerically("~", 0.01, 1e-15))
		})

		It("falls exactly under RK4 with gravity", func() {
			p, err := propagator.New(1, identity, [3]float64{}, [3]float64{11, 0, 0}, unitAttitude, [3]float64{},
				propagator.WithForceModel(forces.New(forces.StandardGravity, forces.Null{})))
			Expect(err).NotTo(HaveOccurred())

			dt := 0.01
			g := 9.80665
			Expect(p.Step(dt, control)).To(Succeed())

			Expect(p.Position()[2]).To(BeNumerically("~", -0.5*g*dt*dt, 1e-15))
			Expect(p.Velocity()[2]).To(BeNumerically("~", -g*dt, 1e-15))
		})

		It("keeps altitude for one Euler step", func() {
			p, err := propagator.New(1, identity, [3]float64{}, [3]float64{11, 0, 0}, unitAttitude, [3]float64{},
				propagator.WithForceModel(forces.New(forces.StandardGravity, forces.Null{})),
				propagator.WithIntegrator(integrators.NewEuler()))
			Expect(err).NotTo(HaveOccurred())

			Expect(p.Step(0.01, control)).To(Succeed())
			Expect(p.Position()[2]).To(BeZero())
			Expect(p.Velocity()[2]).To(BeNumerically("~", -9.80665*0.01, 1e-15))
		})
	})

	Describe("dynamics", func() {
		It("reports linear and angular acceleration for a state and control", func() {
			p, err := propagator.New(1, identity, [3]float64{}, [3]float64{11, 0, 0}, unitAttitude, [3]float64{})
			Expect(err).NotTo(HaveOccurred())

			lin, ang := p.Dynamics().Acceleration(p.State(), dynamo.Control{1, 0, 0.2, 0})

			// thrust 10*0.2 minus drag 0.1*11 along body x, plus weight
			Expect(lin[0]).To(BeNumerically("~", 0.9, 1e-12))
			Expect(lin[1]).To(BeZero())
			Expect(lin[2]).To(BeNumerically("~", -9.80665, 1e-12))

			Expect(ang[0]).To(BeNumerically("~", 0.5, 1e-12))
			Expect(ang[1]).To(BeZero())
			Expect(ang[2]).To(BeZero())

			Expect(p.Steps()).To(BeZero())
		})
	})

	Describe("torque-free motion", func() {
		It("leaves velocity and a spherical body's rates unchanged", func() {
			rates := [3]float64{0.1, 0.2, 0.3}
			p, err := propagator.New(1, identity, [3]float64{}, [3]float64{1, -2, 3}, unitAttitude, rates,
				propagator.WithForceModel(zeroForce))
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 1000; i++ {
				Expect(p.Step(0.01, control)).To(Succeed())
			}
			Expect(p.Velocity()).To(Equal([3]float64{1, -2, 3}))
			Expect(p.Rates()).To(Equal(rates))
		})

		It("rotates at a constant body rate", func() {
			p, err := propagator.New(1, identity, [3]float64{}, [3]float64{}, unitAttitude, [3]float64{0, 0, 1},
				propagator.WithForceModel(zeroForce))
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 100; i++ {
				Expect(p.Step(0.01, control)).To(Succeed())
			}
			q := p.Attitude()
			Expect(q[0]).To(BeNumerically("~", 0, 1e-12))
			Expect(q[1]).To(BeNumerically("~", 0, 1e-12))
			Expect(q[2]).To(BeNumerically("~", math.Sin(0.5), 1e-9))
			Expect(q[3]).To(BeNumerically("~", math.Cos(0.5), 1e-9))
		})

		It("conserves world angular momentum and rotational energy of an asymmetric body", func() {
			inertia := [3][3]float64{{1, 0, 0}, {0, 2, 0}, {0, 0, 3}}
			p, err := propagator.New(1, inertia, [3]float64{}, [3]float64{}, unitAttitude, [3]float64{1, 0.1, 0.1},
				propagator.WithForceModel(zeroForce))
			Expect(err).NotTo(HaveOccurred())

			momentum := func() mgl64.Vec3 {
				s := p.State()
				return attitude.Rotate(s.Attitude, p.Params().Inertia().Mul3x1(s.Rates))
			}
			energy := func() float64 {
				w := p.State().Rates
				return 0.5 * w.Dot(p.Params().Inertia().Mul3x1(w))
			}

			l0 := momentum()
			e0 := energy()
			for i := 0; i < 1000; i++ {
				Expect(p.Step(0.001, control)).To(Succeed())
				Expect(quatNorm(p.Attitude())).To(BeNumerically("~", 1, 1e-9))
			}
			Expect(momentum().Sub(l0).Len()).To(BeNumerically("<", 1e-6))
			Expect(energy()).To(BeNumerically("~", e0, 1e-8))
		})
	})

	Describe("failed steps", func() {
		It("leave the committed state, clock and wind untouched", func() {
			w := &countingWind{}
			p, err := propagator.New(1, identity, [3]float64{}, [3]float64{11, 0, 0}, unitAttitude, [3]float64{},
				propagator.WithForceModel(fm), propagator.WithWind(w))
			Expect(err).NotTo(HaveOccurred())

			Expect(p.Step(0.01, control)).To(Succeed())
			before := p.StateVector()
			t0 := p.Time()

			err = p.Step(0.01, []float64{math.NaN(), 0, 0, 0})
			Expect(err).To(MatchError(dynamo.ErrIntegrationFailure))

			var stepErr *dynamo.StepError
			Expect(err).To(BeAssignableToTypeOf(stepErr))

			Expect(p.StateVector()).To(Equal(before))
			Expect(p.Time()).To(Equal(t0))
			Expect(p.Steps()).To(Equal(uint64(1)))
			Expect(w.advances).To(Equal(1))

			Expect(p.Step(0.01, control)).To(Succeed())
			Expect(p.Steps()).To(Equal(uint64(2)))
		})

		DescribeTable("report a zero committed attitude as degenerate",
			func(model forces.Model) {
				p, err := propagator.New(1, identity, [3]float64{}, [3]float64{}, unitAttitude, [3]float64{},
					propagator.WithForceModel(model))
				Expect(err).NotTo(HaveOccurred())

				v := p.StateVector()
				v[6], v[7], v[8], v[9] = 0, 0, 0, 0
				Expect(p.SetStateVector(v[:])).To(Succeed())

				err = p.Step(0.01, control)
				Expect(err).To(MatchError(dynamo.ErrDegenerateAttitude))
				Expect(err).To(MatchError(dynamo.ErrIntegrationFailure))

				var stepErr *dynamo.StepError
				Expect(errors.As(err, &stepErr)).To(BeTrue())
				Expect(stepErr.Stage).To(Equal("normalize"))

				Expect(p.StateVector()).To(Equal(v))
				Expect(p.Steps()).To(BeZero())
			},
			Entry("with the default force model", forces.Default()),
			Entry("with no forces", forces.New(mgl64.Vec3{}, forces.Null{})),
		)

		It("report an attitude whose norm overflows as degenerate", func() {
			p, err := propagator.New(1, identity, [3]float64{}, [3]float64{}, unitAttitude, [3]float64{},
				propagator.WithForceModel(zeroForce))
			Expect(err).NotTo(HaveOccurred())

			v := p.StateVector()
			v[9] = 1e200
			Expect(p.SetStateVector(v[:])).To(Succeed())

			err = p.Step(0.01, control)
			Expect(err).To(MatchError(dynamo.ErrDegenerateAttitude))
			Expect(err).To(MatchError(dynamo.ErrIntegrationFailure))
			Expect(p.StateVector()).To(Equal(v))
		})
	})

	Describe("wind", func() {
		It("is sampled per stage and advanced once per committed step", func() {
			w := &countingWind{}
			p, err := propagator.New(1, identity, [3]float64{}, [3]float64{}, unitAttitude, [3]float64{},
				propagator.WithWind(w))
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 10; i++ {
				Expect(p.Step(0.02, control)).To(Succeed())
			}
			Expect(w.samples).To(Equal(40))
			Expect(w.advances).To(Equal(10))
			Expect(w.elapsed).To(BeNumerically("~", 0.2, 1e-12))
		})

		It("drags a vehicle at rest along the wind", func() {
			w := &countingWind{velocity: mgl64.Vec3{0, 5, 0}}
			p, err := propagator.New(1, identity, [3]float64{}, [3]float64{}, unitAttitude, [3]float64{},
				propagator.WithWind(w),
				propagator.WithForceModel(forces.New(mgl64.Vec3{}, forces.DefaultActuator())))
			Expect(err).NotTo(HaveOccurred())

			Expect(p.Step(0.01, control)).To(Succeed())
			Expect(p.Velocity()[1]).To(BeNumerically(">", 0))
			Expect(p.Velocity()[0]).To(BeZero())
		})

		It("falls back to calm air for a nil model", func() {
			p, err := propagator.New(1, identity, [3]float64{}, [3]float64{}, unitAttitude, [3]float64{},
				propagator.WithWind(nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Step(0.01, control)).To(Succeed())
		})
	})

	Describe("determinism", func() {
		It("reproduces bit-identical trajectories", func() {
			build := func() *propagator.Propagator {
				p, err := propagator.New(2, [3][3]float64{{1, 0.1, 0}, {0.1, 2, 0}, {0, 0, 3}},
					[3]float64{0, 0, 100}, [3]float64{20, 0, 0}, unitAttitude, [3]float64{0.3, -0.2, 0.1})
				Expect(err).NotTo(HaveOccurred())
				return p
			}
			a, b := build(), build()
			u := []float64{0.1, -0.05, 0.6, 0.02}
			for i := 0; i < 500; i++ {
				Expect(a.Step(0.01, u)).To(Succeed())
				Expect(b.Step(0.01, u)).To(Succeed())
			}
			Expect(a.StateVector()).To(Equal(b.StateVector()))
		})
	})
})
