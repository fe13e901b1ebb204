// Package log provides a logging abstraction for tetherbooth components.
//
// Every component accepts a [Logger] and falls back to [NoopLogger] when none
// is supplied, so the library stays silent unless the embedding program opts
// in. The CLI wires the zerolog adapter:
//
//	logger := log.NewZerologAdapterWithLogger(zerolog.New(os.Stderr))
//
// Use [With] to attach a component name to every message:
//
//	watcherLog := log.With(logger, log.String("component", "capture"))
//
// Field values of type string, int, int64, float64, bool, time.Duration,
// time.Time, []string, error and fmt.Stringer keep their type in the zerolog
// output. Anything else is encoded as JSON.
package log
