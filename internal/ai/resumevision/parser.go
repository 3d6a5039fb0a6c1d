package resumevision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared/constant"
)

// Parser extracts resume text from scanned PDFs using OpenAI Vision.
// Only used when plain text extraction yields nothing.
type Parser struct {
	client *openai.Client
}

// NewParser creates a new vision parser
func NewParser(apiKey string) *Parser {
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)
	return &Parser{
		client: &client,
	}
}

const systemPrompt = `You are a professional resume transcriber. Extract ALL text content from the resume images, preserving section structure. Return ONLY valid JSON.`

const userPromptTemplate = `Transcribe this resume into the following JSON structure:

{
  "full_name": string,
  "email": string,
  "phone": string,
  "sections": [{
    "heading": string (e.g. "Experience", "Education", "Skills"),
    "content": string (full text of the section, bullet points preserved as lines)
  }]
}

IMPORTANT:
- Transcribe ALL visible text accurately
- If a field is not visible, use an empty string
- Return ONLY the JSON, no explanatory text`

// Transcript is the structured transcription of a scanned resume
type Transcript struct {
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone"`
	Sections []Section `json:"sections"`
}

type Section struct {
	Heading string `json:"heading"`
	Content string `json:"content"`
}

// Text flattens the transcript back into plain resume text
func (t *Transcript) Text() string {
	var b strings.Builder
	if t.FullName != "" {
		b.WriteString(t.FullName + "\n")
	}
	if t.Email != "" {
		b.WriteString("Email: " + t.Email + "\n")
	}
	if t.Phone != "" {
		b.WriteString("Phone: " + t.Phone + "\n")
	}
	for _, s := range t.Sections {
		b.WriteString("\n" + s.Heading + "\n" + s.Content + "\n")
	}
	return b.String()
}

// TranscribePages transcribes rendered resume pages (JPEG) into text
func (p *Parser) TranscribePages(ctx context.Context, pages [][]byte) (*Transcript, error) {
	if len(pages) == 0 {
		return nil, errors.New("no pages provided")
	}

	contentParts := []openai.ChatCompletionContentPartUnionParam{
		{
			OfText: &openai.ChatCompletionContentPartTextParam{
				Type: constant.Text("text"),
				Text: userPromptTemplate,
			},
		},
	}

	for i, pageData := range pages {
		dataURL := fmt.Sprintf("data:image/jpeg;base64,%s", base64.StdEncoding.EncodeToString(pageData))
		contentParts = append(contentParts, openai.ChatCompletionContentPartUnionParam{
			OfImageURL: &openai.ChatCompletionContentPartImageParam{
				Type: constant.ImageURL("image_url"),
				ImageURL: openai.ChatCompletionContentPartImageImageURLParam{
					URL:    dataURL,
					Detail: "high", // High detail for better OCR
				},
			},
		})

		if i < len(pages)-1 {
			contentParts = append(contentParts, openai.ChatCompletionContentPartUnionParam{
				OfText: &openai.ChatCompletionContentPartTextParam{
					Type: constant.Text("text"),
					Text: fmt.Sprintf("--- Page %d ends, Page %d begins ---", i+1, i+2),
				},
			})
		}
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
		{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfArrayOfContentParts: contentParts,
				},
			},
		},
	}

	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    "gpt-4o", // best vision capabilities
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{
				Type: constant.JSONObject("json_object"),
			},
		},
		Temperature: openai.Float(0.1),
		MaxTokens:   openai.Int(6000),
	})
	if err != nil {
		return nil, fmt.Errorf("openai vision api error: %w", err)
	}

	if len(completion.Choices) == 0 {
		return nil, errors.New("no response from openai")
	}

	var transcript Transcript
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &transcript); err != nil {
		return nil, fmt.Errorf("failed to parse transcript JSON: %w", err)
	}
	return &transcript, nil
}
