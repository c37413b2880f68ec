// Package console is the terminal front end: it turns typed commands into
// session commands and renders the machine's events as text.
package console
