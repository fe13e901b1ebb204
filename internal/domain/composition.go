package domain

// CompositionRequest describes one print composition.
type CompositionRequest struct {
	// Photos is the ordered list of source paths. It may be shorter than the
	// layout's slot count, in which case photos are reused cyclically.
	Photos []string

	// LayoutKey names the slot layout, e.g. "full_v4a".
	LayoutKey string

	// FramePath is an optional overlay composited over the photos.
	FramePath string

	// Mirror flips every source photo horizontally before placement.
	Mirror bool
}

// CompositeResult is the output of one composition.
type CompositeResult struct {
	Path   string
	Width  int
	Height int

	// LayoutKey is the layout actually used. It differs from the request
	// when the requested key was unknown.
	LayoutKey string

	// Fallback is true when the default layout replaced an unknown key.
	Fallback bool

	// Placeholders lists slot indexes filled with the placeholder colour
	// because their source photo could not be read.
	Placeholders []int
}
