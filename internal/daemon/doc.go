// Package daemon provides the main orchestration for shotwatchd.
// It owns the screenshot watcher for the process lifetime and coordinates
// capture history, desktop notifications and configuration hot-reload.
package daemon
