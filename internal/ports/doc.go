// Package ports defines the interfaces (ports) that connect the booth's
// components to infrastructure adapters.
//
// Ports are the boundary between the capture/compose core and the file
// system. They describe what the core needs without saying how it is done.
//
// # Port Interfaces
//
//   - [SessionRepository]: Creates session directories and persists their contents
//   - [ResultRepository]: Persists composed prints under unique names
//   - [WindowActivator]: Brings a remote-capture window to the foreground
//   - [KeySender]: Delivers the capture keystroke to the focused window
//
// # Usage
//
// Packages under pkg/ depend only on these interfaces. Adapters under
// internal/adapters implement them against the local file system.
package ports
