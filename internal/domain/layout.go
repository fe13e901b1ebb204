package domain

import "image"

// Canonical canvas sizes in pixels.
const (
	PortraitWidth   = 2400
	PortraitHeight  = 3600
	LandscapeWidth  = 3600
	LandscapeHeight = 2400
)

// Slot is a target rectangle within the canonical canvas.
type Slot struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
	W int `yaml:"w" json:"w"`
	H int `yaml:"h" json:"h"`
}

// Rect returns the slot as a half-open image rectangle.
func (s Slot) Rect() image.Rectangle {
	return image.Rect(s.X, s.Y, s.X+s.W, s.Y+s.H)
}

// SlotLayout is a named, ordered list of slots on a canvas.
// Slot order defines photo-assignment order.
type SlotLayout struct {
	Key    string
	Width  int
	Height int
	Slots  []Slot
}

// Canvas returns the canvas bounds.
func (l SlotLayout) Canvas() image.Rectangle {
	return image.Rect(0, 0, l.Width, l.Height)
}
