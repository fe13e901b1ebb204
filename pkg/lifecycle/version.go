package lifecycle

// Version information for the lifecycle package.
const (
	Version              = "1.2.0"
	MinCompatibleVersion = "1.1.0"
)
