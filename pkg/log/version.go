package log

// Version information for the log package. pkg/booth checks these at
// construction time.
const (
	Version              = "1.1.0"
	MinCompatibleVersion = "1.0.0"
)
