package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrRecommendationFailed marks any failure of the text-generation service.
// Recommendations are an enhancement, so the pipeline treats it as row-local
// and never aborts a run on it.
var ErrRecommendationFailed = errors.New("recommendation failed")

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// RecommendationClient asks Gemini for disposal/recycling guidance for a
// spoiled reading. One prompt per bad row.
type RecommendationClient struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

func NewRecommendationClient(apiKey, model string, timeout time.Duration) *RecommendationClient {
	return &RecommendationClient{
		baseURL: defaultGeminiBaseURL,
		apiKey:  apiKey,
		model:   model,
		http:    &http.Client{Timeout: timeout},
	}
}

// WithBaseURL overrides the service endpoint, used by tests.
func (c *RecommendationClient) WithBaseURL(baseURL string) *RecommendationClient {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

func (c *RecommendationClient) Recommend(ctx context.Context, foodCategory, spoilageSummary string) (string, error) {
	prompt := fmt.Sprintf(
		"Food in a KAMA smartbox has been classified as spoiled.\n"+
			"Food category: %s.\nCondition: %s.\n"+
			"Give short, practical guidance on how to dispose of or recycle this food safely "+
			"(for example composting or animal feed where appropriate). Answer in plain text.",
		foodCategory, spoilageSummary,
	)

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrRecommendationFailed, err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRecommendationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRecommendationFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrRecommendationFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrRecommendationFailed, resp.StatusCode, raw)
	}

	var out geminiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrRecommendationFailed, err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrRecommendationFailed, out.Error.Message)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrRecommendationFailed)
	}

	text := strings.TrimSpace(out.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", fmt.Errorf("%w: empty recommendation text", ErrRecommendationFailed)
	}

	return text, nil
}
