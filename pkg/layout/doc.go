// Package layout holds the validated table of print layouts.
//
// A layout key has the form "<paper-class>_<variant>", for example "full_v4a"
// or "half_h3". The canvas size is derived from the key alone: a variant that
// starts with "h" selects the 3600x2400 landscape canvas, anything else the
// 2400x3600 portrait canvas.
//
// The table ships embedded as YAML and is validated once, in [New]. Slots must
// lie inside their canvas, have a positive size and must not overlap each
// other. A table that breaks any of these rules is rejected as a whole.
//
// Lookups never fail: [Registry.Get] returns the default layout for an unknown
// key. Callers that need to know whether that happened use [Registry.Lookup].
package layout
