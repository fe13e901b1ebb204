// Package fs implements the storage ports on the local file system.
//
// All metadata files are written through a temp file and rename, so a crash
// leaves either the previous or the new content on disk.
package fs
