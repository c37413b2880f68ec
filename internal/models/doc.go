// Package models lists the models available to the configured API keys:
// Gemini models that can generate content from images, and OpenAI vision
// chat and text-to-speech models.
package models
