// Package language defines the closed set of nine languages vocalens
// teaches, their display labels, result field names and the speech
// locales used for playback.
package language
