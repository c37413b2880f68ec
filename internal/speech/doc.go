// Package speech reads words aloud.
//
// A Synthesizer turns text into an audio file (OpenAI TTS or espeak-ng), a
// Player plays that file through a platform command, and a Speaker ties the
// two together with the rule that only one utterance is ever audible: a new
// Speak call cancels whatever was still being synthesized or played.
package speech
