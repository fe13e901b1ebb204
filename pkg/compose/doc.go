// Package compose renders print sheets from captured photos and a slot
// layout.
//
// A [Compositor] builds a white canvas of the layout's canonical size and
// fills slot i with photo i modulo the number of photos. Every photo is
// center-cropped to the slot's aspect ratio ([FitRect]) and resized to the
// exact slot size, so the canvas never depends on input dimensions. An
// optional frame image is stretched to the canvas and alpha-composited over
// the photos.
//
// Missing inputs never abort a composition: an unreadable photo leaves its
// slot filled with a neutral placeholder colour and an unreadable frame is
// skipped. Only an empty photo list and output I/O are errors.
//
// Mirroring is a pre-pass handled by [MirrorCache], which writes flipped
// copies into a dedicated cache directory with its own retention policy. The
// compositor itself is unaware of mirroring.
//
// Identical requests produce byte-identical output; nothing time-dependent is
// drawn into the image.
package compose
