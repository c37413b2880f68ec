// Package server exposes a recognizer over HTTP so that clients without
// their own API key can identify photos through a shared proxy. Clients
// reach it with recognition.RemoteRecognizer.
package server
