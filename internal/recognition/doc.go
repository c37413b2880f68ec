// Package recognition identifies the main object in a photo and returns
// the word and a pronunciation hint for it in nine languages. Results are
// all-or-nothing: a reply missing any language is a failure.
package recognition
