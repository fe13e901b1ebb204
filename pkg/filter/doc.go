// Package filter applies one named cosmetic transform to a finished print.
//
// The result is written next to the input as "<stem>_<name><ext>"; the input
// file is never modified. The "original" filter and any unknown name are the
// identity and return the input path unchanged.
//
//	eng := filter.New(filter.WithLogger(logger))
//	out, err := eng.Apply(ctx, "/srv/results/print_20260314_150926.jpg", "warm")
//	// out == "/srv/results/print_20260314_150926_warm.jpg"
package filter
