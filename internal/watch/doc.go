// Package watch reports newly created screenshot files under a root
// directory.
//
// A Watcher subscribes to create events recursively using fsnotify. When
// native events are unavailable it polls the tree at a fixed interval.
// Every created path is checked against a match.Rule and each qualifying
// path is handed to a notify.Sink exactly once, synchronously from the
// watcher goroutine. Sink failures and per-event faults are logged and never
// stop the watch.
package watch
