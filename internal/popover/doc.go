// Package popover owns the single popover window toggled from the tray.
//
// The controller is a three-state machine (Absent, Hidden, Visible) over a
// Host that creates and places windows. Host failures are returned as
// *WindowError and never leave more than one window alive.
package popover
