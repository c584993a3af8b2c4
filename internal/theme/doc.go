// Package theme handles CSS themes for the popover window. Themes are
// looked up in the user's themes directory first and then among the
// bundled themes; user themes are polled for changes and hot-reloaded.
package theme
