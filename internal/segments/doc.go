// Package segments reduces a robustness question on a rectangle to a family
// of one-dimensional ones.
//
// The rectangle boundary is sampled at 2^m points of equal arc-length
// spacing, every unordered pair of points forms a segment, and the function
// restricted to each segment is handed to Algorithm 1 as a function of arc
// length. The domain-wide index is the minimum over all segments.
//
// # Cost
//
// A run evaluates Pairs(2^m) = 2^m(2^m - 1)/2 segments, each a full search.
// m = 3 gives 28 searches, m = 6 already 2016. Segments are independent and
// run on a bounded worker pool; a non-robust segment stops scheduling since
// the minimum cannot drop any further.
package segments
