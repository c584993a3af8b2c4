// Package display hosts the popover in a GTK4 window. It implements
// popover.Host, positions the window via Wayland layer-shell and renders
// the recent captures list.
package display
