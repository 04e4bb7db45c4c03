package platform

// Package platform contains OS integration glue: opening downloaded music
// in the system file manager across macOS, Windows, and Linux.
