// Package counter persists the number of words a learner has collected.
//
// The value lives under a single key in a small key-value Backend. Memory,
// file, SQLite and Redis backends are provided; Store adds the integer
// encoding and treats a missing or corrupt value as zero.
package counter
