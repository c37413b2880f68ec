// Package camera acquires and releases camera streams and extracts still
// snapshots from them. A stream is held by exactly one owner at a time and
// Release is safe to call more than once.
package camera
