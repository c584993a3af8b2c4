// Package dbus implements the shotwatch session bus surface: the
// io.github.jmylchreest.Shotwatch service that broadcasts ScreenshotCreated
// signals and accepts popover commands, a client for the CLI, and a small
// org.freedesktop.Notifications client for desktop notifications.
package dbus
