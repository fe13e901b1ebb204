// Package domain contains the core entities and value objects for tetherbooth.
//
// This package is the innermost layer. It has no dependencies on file system,
// imaging, or logging concerns and holds only the booth's data model.
//
// # Entities
//
//   - [CaptureSession]: one bounded photo-collection period for a customer
//   - [CapturedPhoto]: a stabilized file copied into a session directory
//   - [SlotLayout]: a named, ordered list of [Slot] rectangles on a canvas
//   - [CompositionRequest] and [CompositeResult]: input and output of compositing
//
// CapturedPhoto, Slot and SlotLayout values are immutable once built. A
// CaptureSession is mutated only by the session manager that owns it.
package domain
