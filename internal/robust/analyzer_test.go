package robust

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/robustidx/internal/expr"
	"github.com/san-kum/robustidx/internal/interval"
	"github.com/san-kum/robustidx/internal/oracle"
)

// countingEngine records how often Solve is consulted.
type countingEngine struct {
	oracle.Engine
	solves atomic.Int64
}

func (c *countingEngine) Solve(rel oracle.Relation, x string, domain interval.Set) (interval.Set, error) {
	c.solves.Add(1)
	return c.Engine.Solve(rel, x, domain)
}

const (
	// f'' = 2x - 4 < 0 on all of [0, 1] and f' changes sign at 2 - sqrt(2),
	// so the level sets around that point are not convex and both algorithms give -oo.
	alg1Example = "x**3/3 - 2*x**2 + 2*x"
	alg2Example = "x**3/3 - 2*x**2 + 4*x"
	// f'' = -100(x - 0.05)(x - 0.1)(x - 0.5)(x - 0.95) and f' > 0 on [0, 1].
	// The candidate is f'(1) = 0.7375, but f' dips back below f'(0.05) on
	// (0.1, 0.5), so the tilt at 0.05 is not quasiconvex.
	tiltExample = "0.3*x - 19*x**2/160 + 157*x**3/120 - 93*x**4/16 + 8*x**5 - 10*x**6/3"
)

var _ = Describe("Analyzer", func() {
	var (
		an  *Analyzer
		ctx context.Context
	)

	BeforeEach(func() {
		an = New(oracle.NewNumeric(oracle.DefaultSettings()), nil)
		ctx = context.Background()
	})

	search := func(src string, a, b, gamma float64) (Index, error) {
		s := DefaultSearchSettings()
		s.Gamma = gamma
		return an.Search(ctx, expr.MustParse(src), "x", a, b, s)
	}

	Describe("IsQuasiconvex", func() {
		DescribeTable("classifies functions",
			func(src string, a, b float64, want bool) {
				got, err := an.IsQuasiconvex(expr.MustParse(src), "x", a, b)
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(Equal(want))
			},
			Entry("parabola", "x**2", -1.0, 1.0, true),
			Entry("shifted parabola", "(x - 0.3)**2", 0.0, 1.0, true),
			Entry("increasing cubic", "x**3", -1.0, 1.0, true),
			Entry("decreasing exponential", "exp(-x)", 0.0, 3.0, true),
			Entry("concave cap", "-x**2", -1.0, 1.0, false),
			Entry("double well", "(x**2 - 1)**2", -2.0, 2.0, false),
			Entry("sine over a full period", "sin(x)", 0.0, 6.0, false),
			Entry("abs valley", "abs(x - 0.5) + x**2", 0.0, 1.0, true),
		)

		It("treats monotone functions as quasiconvex without solving", func() {
			spy := &countingEngine{Engine: oracle.NewNumeric(oracle.DefaultSettings())}
			an = New(spy, nil)

			ok, err := an.IsQuasiconvex(expr.MustParse("x**3 + x"), "x", -2, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(spy.solves.Load()).To(BeZero())
		})

		It("solves for critical points when not monotone", func() {
			spy := &countingEngine{Engine: oracle.NewNumeric(oracle.DefaultSettings())}
			an = New(spy, nil)

			_, err := an.IsQuasiconvex(expr.MustParse("x**2"), "x", -1, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(spy.solves.Load()).To(BeNumerically("==", 1))
		})

		It("breaks ties between equal minima towards the left", func() {
			x, err := an.lowest(expr.MustParse("(x**2 - 1)**2"), "x", []float64{-1, 0, 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(x).To(Equal(-1.0))
		})

		It("rejects inverted intervals before touching the engine", func() {
			spy := &countingEngine{Engine: oracle.NewNumeric(oracle.DefaultSettings())}
			an = New(spy, nil)

			_, err := an.IsQuasiconvex(expr.MustParse("x**2"), "x", 1, 0)
			Expect(err).To(MatchError(ErrDegenerateInput))
			Expect(errors.Is(err, interval.ErrDegenerate)).To(BeTrue())
			Expect(spy.solves.Load()).To(BeZero())
		})
	})

	Describe("LevelSet", func() {
		It("returns the band where |f'| stays below alpha", func() {
			set, err := an.LevelSet(expr.MustParse(alg1Example), "x", 0, 1, 0.1)
			Expect(err).NotTo(HaveOccurred())
			Expect(set.Len()).To(Equal(1))
			Expect(set.Inf()).To(BeNumerically("~", 2-math.Sqrt(2.1), 1e-6))
			Expect(set.Sup()).To(BeNumerically("~", 2-math.Sqrt(1.9), 1e-6))
		})

		It("is empty below the smallest slope", func() {
			set, err := an.LevelSet(expr.MustParse(alg2Example), "x", 0, 1, 0.5)
			Expect(err).NotTo(HaveOccurred())
			Expect(set.IsEmpty()).To(BeTrue())
		})
	})

	Describe("Search", func() {
		DescribeTable("convex functions are unbounded",
			func(src string, a, b float64) {
				sf, err := search(src, a, b, 0.1)
				Expect(err).NotTo(HaveOccurred())
				Expect(sf.IsUnbounded()).To(BeTrue())
			},
			Entry("parabola", "x**2", -1.0, 1.0),
			Entry("exponential", "exp(x)", 0.0, 2.0),
			Entry("linear", "3*x - 1", 0.0, 1.0),
		)

		It("finds the bound in the growth phase", func() {
			sf, err := search(alg2Example, 0, 1, 0.1)
			Expect(err).NotTo(HaveOccurred())
			Expect(sf.IsFinite()).To(BeTrue())
			Expect(sf.Float64()).To(BeNumerically(">=", 0.9-1e-9))
			Expect(sf.Float64()).To(BeNumerically("<=", 1+1e-9))
		})

		It("reports a function whose level sets are never convex as non-robust", func() {
			sf, err := search(alg1Example, 0, 1, 0.1)
			Expect(err).NotTo(HaveOccurred())
			Expect(sf.IsNonRobust()).To(BeTrue())
			Expect(sf.String()).To(Equal("-oo"))
		})

		It("finds the bound in the shrink phase when starting above it", func() {
			s := DefaultSearchSettings()
			s.Gamma, s.Alpha0 = 0.1, 1.5
			sf, err := an.Search(ctx, expr.MustParse(alg2Example), "x", 0, 1, s)
			Expect(err).NotTo(HaveOccurred())
			Expect(sf.Float64()).To(BeNumerically("~", 0.9, 1e-9))
		})

		It("stops with ErrSearchNonConvergent when iterations run out", func() {
			s := DefaultSearchSettings()
			s.MaxIterations = 5
			_, err := an.Search(ctx, expr.MustParse(alg2Example), "x", 0, 1, s)
			Expect(err).To(MatchError(ErrSearchNonConvergent))

			var cerr *ComputationError
			Expect(errors.As(err, &cerr)).To(BeTrue())
			Expect(cerr.Phase).To(Equal("growth"))
			Expect(cerr.Iteration).To(Equal(5))
		})

		It("honours context cancellation", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := an.Search(cctx, expr.MustParse(alg2Example), "x", 0, 1, DefaultSearchSettings())
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})

		It("rejects invalid settings", func() {
			for _, s := range []SearchSettings{
				{Gamma: 0, Zmin: 1e-9, MaxIterations: 10},
				{Gamma: 0.1, Zmin: 0, MaxIterations: 10},
				{Gamma: 0.1, Zmin: 1e-9, Alpha0: -1, MaxIterations: 10},
				{Gamma: math.NaN(), Zmin: 1e-9, MaxIterations: 10},
				{Gamma: 0.1, Zmin: 1e-9},
			} {
				_, err := an.Search(ctx, expr.MustParse("x**2"), "x", 0, 1, s)
				Expect(err).To(MatchError(ErrInvalidSettings))
			}
		})

		It("surfaces undecidable evaluations as ErrIndeterminate", func() {
			_, err := search("log(x)", -1, 1, 0.1)
			Expect(err).To(MatchError(ErrIndeterminate))
		})

		It("is idempotent", func() {
			first, err := search(alg2Example, 0, 1, 0.05)
			Expect(err).NotTo(HaveOccurred())
			second, err := search(alg2Example, 0, 1, 0.05)
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(Equal(first))
		})
	})

	Describe("ClosedForm", func() {
		It("reads the bound off the derivative at the concave edge", func() {
			sf, err := an.ClosedForm(expr.MustParse(alg2Example), "x", 0, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(sf.Float64()).To(BeNumerically("~", 1, 1e-9))
		})

		It("returns -oo when the candidate bound vanishes", func() {
			sf, err := an.ClosedForm(expr.MustParse(alg1Example), "x", 0, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(sf.IsNonRobust()).To(BeTrue())
		})

		DescribeTable("agrees with the search when f' changes sign where f is concave",
			func(src string) {
				sf, err := an.ClosedForm(expr.MustParse(src), "x", 0, 1)
				Expect(err).NotTo(HaveOccurred())
				Expect(sf.IsNonRobust()).To(BeTrue(), "closed form gave %v", sf)

				sf, err = search(src, 0, 1, 0.1)
				Expect(err).NotTo(HaveOccurred())
				Expect(sf.IsNonRobust()).To(BeTrue(), "search gave %v", sf)
			},
			Entry("worked example", alg1Example),
			Entry("sine", "sin(6*x)"),
			Entry("cap", "-(x - 0.3)**2"),
		)

		It("tightens the bound at an inflection whose tilt is not quasiconvex", func() {
			f := expr.MustParse(tiltExample)
			sf, err := an.ClosedForm(f, "x", 0, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(sf.Float64()).To(BeNumerically("~", 0.295275, 1e-6))

			df := expr.Derivative(f, "x")
			end, err := an.Engine().EvaluateAt(df, "x", 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(end).To(BeNumerically("~", 0.7375, 1e-9))

			tilted := expr.Subtract(f, expr.Mul(expr.Const(sf.Float64()), expr.Variable("x")))
			qc, err := an.IsQuasiconvex(tilted, "x", 0, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(qc).To(BeFalse())
		})

		It("returns +oo for convex functions", func() {
			sf, err := an.ClosedForm(expr.MustParse("x**4 + x**2"), "x", -1, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(sf.IsUnbounded()).To(BeTrue())
		})

		It("agrees with the search within one step", func() {
			closed, err := an.ClosedForm(expr.MustParse(alg2Example), "x", 0, 1)
			Expect(err).NotTo(HaveOccurred())
			for _, gamma := range []float64{0.1, 0.05, 0.01} {
				sf, err := search(alg2Example, 0, 1, gamma)
				Expect(err).NotTo(HaveOccurred())
				Expect(math.Abs(sf.Float64() - closed.Float64())).To(BeNumerically("<=", gamma+1e-9))
			}
		})

		It("is idempotent", func() {
			f := expr.MustParse(alg2Example)
			first, err := an.ClosedForm(f, "x", 0, 1)
			Expect(err).NotTo(HaveOccurred())
			second, err := an.ClosedForm(f, "x", 0, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(Equal(first))
		})

		It("rejects non-finite bounds", func() {
			_, err := an.ClosedForm(expr.MustParse("x**2"), "x", math.Inf(-1), 1)
			Expect(err).To(MatchError(ErrDegenerateInput))
		})
	})
})

var _ = Describe("Index", func() {
	DescribeTable("String",
		func(idx Index, want string) {
			Expect(idx.String()).To(Equal(want))
		},
		Entry("unbounded", Unbounded, "oo"),
		Entry("non-robust", NonRobust, "-oo"),
		Entry("finite", Index(0.25), "0.25"),
		Entry("zero", Index(0), "0"),
	)

	It("parses its own notation", func() {
		for _, idx := range []Index{Unbounded, NonRobust, 1.5, 0} {
			got, err := ParseIndex(idx.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(idx))
		}
		_, err := ParseIndex("nan")
		Expect(err).To(HaveOccurred())
	})

	It("marshals as text inside JSON", func() {
		data, err := json.Marshal(map[string]Index{"sf": NonRobust})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(`{"sf":"-oo"}`))

		var back map[string]Index
		Expect(json.Unmarshal(data, &back)).To(Succeed())
		Expect(back["sf"].IsNonRobust()).To(BeTrue())
	})

	It("orders infinities around finite values", func() {
		Expect(Min(Unbounded, 2)).To(Equal(Index(2)))
		Expect(Min(2, NonRobust)).To(Equal(NonRobust))
	})
})
