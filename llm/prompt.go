package llm

import (
	"encoding/base64"
	"strings"

	"github.com/openai/openai-go/v3"
)

// systemPrompt fixes the response layout ParseProfile expects.
const systemPrompt = `You are a character writer. Build a complete, lore-accurate character profile from the source material you are given, which may include scraped web pages and an image.

Answer in EXACTLY this layout, each label at the start of its own line:

NAME: the character's full name, with titles and aliases.

DESCRIPTION: a long, detailed account of the character covering background and history, physical appearance, clothing and style, personality, relationships, skills and abilities, likes and dislikes, daily habits, goals, speech patterns and any further lore. Use only facts found in the sources or clearly implied by them.

PERSONALITY_SUMMARY: two or three sentences.

SCENARIO: three to five paragraphs describing where and why {{user}} meets {{char}}.

GREETING_MESSAGE: three to five paragraphs in third person from {{char}}'s point of view, ending with an opening for {{user}} to reply.

EXAMPLE_MESSAGES: two to four sample exchanges, each starting with <START>, in the form
{{user}}: "Dialogue"
{{char}}: *action* "Dialogue."

Do not invent facts that are not in the sources. Do not use generic filler phrases.`

const (
	userPrompt      = "Generate the character based on the provided content."
	userImagePrompt = "Generate the character based on the provided content and image."
)

// Image is a picture of the character sent alongside the text.
type Image struct {
	MIME string // e.g. "image/png"
	Data []byte
}

// DataURL encodes the image as a data: URL.
func (img *Image) DataURL() string {
	mime := img.MIME
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// sourceMessage folds scraped content and caller instructions into one
// system message. Empty parts are dropped.
func sourceMessage(content, instructions string) string {
	var parts []string
	if c := strings.TrimSpace(content); c != "" {
		parts = append(parts, c)
	}
	if in := strings.TrimSpace(instructions); in != "" {
		parts = append(parts, "ADDITIONAL INSTRUCTIONS:\n"+in)
	}
	return strings.Join(parts, "\n")
}

// buildMessages assembles the chat: source material, the layout prompt,
// then a user turn that carries the image when there is one.
func buildMessages(content, instructions string, img *Image) []openai.ChatCompletionMessageParamUnion {
	var msgs []openai.ChatCompletionMessageParamUnion
	if src := sourceMessage(content, instructions); src != "" {
		msgs = append(msgs, openai.SystemMessage(src))
	}
	msgs = append(msgs, openai.SystemMessage(systemPrompt))

	if img == nil {
		return append(msgs, openai.UserMessage(userPrompt))
	}
	parts := []openai.ChatCompletionContentPartUnionParam{
		{OfText: &openai.ChatCompletionContentPartTextParam{Text: userImagePrompt}},
		{OfImageURL: &openai.ChatCompletionContentPartImageParam{
			ImageURL: openai.ChatCompletionContentPartImageImageURLParam{
				URL:    img.DataURL(),
				Detail: "auto",
			},
		}},
	}
	return append(msgs, openai.ChatCompletionMessageParamUnion{
		OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{
				OfArrayOfContentParts: parts,
			},
		},
	})
}
