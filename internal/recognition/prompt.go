package recognition

import (
	"fmt"
	"strings"

	"google.golang.org/genai"

	"codeberg.org/snonux/vocalens/internal/language"
)

// Prompt is the fixed instruction sent along with every photo.
const Prompt = `Identify the main object in this photo for a kid's learning app.
Rules:
1. Identify as a single simple English noun.
2. Provide word and phonetic pronunciation for: English, Korean, Japanese, Chinese (Simplified), Spanish, French, German, Russian, and Hindi.
3. Output strictly in JSON.`

// Schema returns the response schema enforced by Gemini.
func Schema() *genai.Schema {
	entry := func() *genai.Schema {
		return &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"word":          {Type: genai.TypeString},
				"pronunciation": {Type: genai.TypeString},
			},
			Required: []string{"word", "pronunciation"},
		}
	}

	properties := make(map[string]*genai.Schema)
	var required []string
	for _, info := range language.All() {
		properties[info.Field] = entry()
		required = append(required, info.Field)
	}

	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: properties,
		Required:   required,
	}
}

// schemaInstruction spells the schema out for providers that only support
// a generic JSON mode.
func schemaInstruction() string {
	var fields []string
	for _, info := range language.All() {
		fields = append(fields, fmt.Sprintf(`"%s": {"word": "...", "pronunciation": "..."}`, info.Field))
	}
	return "Respond with a single JSON object of exactly this shape:\n{" + strings.Join(fields, ", ") + "}"
}
