// Package processor wires the vocalens components together. It builds the
// camera, recognizer, speaker and counter from flags and configuration and
// runs the interactive console, one-shot and batch identification, the
// recognition proxy, and the model listing.
package processor
