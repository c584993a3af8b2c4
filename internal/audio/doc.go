// Package audio plays the capture sound. It uses the beep library to
// decode WAV, OGG and MP3 files.
package audio
