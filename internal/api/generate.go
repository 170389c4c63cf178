package api

import (
	"context"
	"strings"

	http "github.com/bogdanfinn/fhttp"
	"github.com/tidwall/gjson"

	apierrors "github.com/qanoonbot/qanoonchat/internal/errors"
)

// GenerateRequest is the body sent to the generation endpoint
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateText sends a prompt to the generation endpoint and returns the reply
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", apierrors.ErrEmptyPrompt
	}

	endpoint := c.endpoints.Generate
	resp, err := c.do(ctx, "generate text", http.MethodPost, endpoint, GenerateRequest{Prompt: prompt}, nil)
	if err != nil {
		return "", err
	}

	if !resp.ok() {
		return "", statusError("generate text", endpoint, resp)
	}

	return parseGenerateResponse(resp.body)
}

// parseGenerateResponse extracts generated_text, rejecting any other shape
func parseGenerateResponse(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", apierrors.NewParseError("response is not valid JSON", "")
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return "", apierrors.NewParseError("response is not a JSON object", "")
	}

	text := root.Get(PathGeneratedText)
	if !text.Exists() {
		return "", apierrors.NewParseError("missing generated text", PathGeneratedText)
	}
	if text.Type != gjson.String {
		return "", apierrors.NewParseError("generated text is not a string", PathGeneratedText)
	}

	return text.String(), nil
}
