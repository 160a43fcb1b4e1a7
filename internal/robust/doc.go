// Package robust computes the robustness index of quasiconvex functions of
// one variable.
//
// The robustness index sf of f on [a, b] is the largest bound α such that f
// stays convex on the level set
//
//	L(α) = {x ∈ [a, b] : |f'(x)| <= α}
//
// Two strategies are provided:
//
//   - [Analyzer.Search]: grows or shrinks α in steps of γ and re-tests
//     convexity on L(α) until the answer flips.
//   - [Analyzer.ClosedForm]: reads candidate bounds off the derivative at the
//     edges of the concave region and at the inflection points.
//
// Both return an [Index]: +oo when f is already convex on [a, b], -oo when no
// bound makes it convex, or a finite non-negative value otherwise. -oo is a
// result, not an error; failures to decide are reported through the errors
// in errors.go.
//
// # Example
//
//	an := robust.New(oracle.NewNumeric(oracle.DefaultSettings()), logger)
//	f := expr.MustParse("x**3/3 - 2*x**2 + 4*x")
//	sf, err := an.ClosedForm(f, "x", 0, 1)
//
// # Thread Safety
//
// An Analyzer holds no mutable state. It is safe for concurrent use as long
// as its Engine is.
package robust
