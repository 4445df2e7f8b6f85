// Gemini REST implementation of the Client interface.
//
// The client speaks the generativelanguage.googleapis.com generateContent
// API directly over HTTP: text and inline-image parts in, candidates plus
// grounding metadata out. Keeping the wire layer here means the services
// package never sees provider-specific shapes.
package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GeminiConfig configures the REST client.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Endpoint    string        // base URL, e.g. "https://generativelanguage.googleapis.com"
	Timeout     time.Duration // per-call deadline applied on top of ctx
	Temperature float64       // default sampling temperature
}

// GeminiClient calls the Gemini generateContent endpoint.
type GeminiClient struct {
	cfg  GeminiConfig
	http *http.Client
}

// NewGeminiClient validates the configuration and returns a ready client.
func NewGeminiClient(cfg GeminiConfig) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("ai: GEMINI_API_KEY is not set")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://generativelanguage.googleapis.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &GeminiClient{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// ---- wire types (request) ----

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiTool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature float64 `json:"temperature"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	Tools            []geminiTool           `json:"tools,omitempty"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

// ---- wire types (response) ----

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		GroundingMetadata *struct {
			GroundingChunks []struct {
				Web struct {
					URI   string `json:"uri"`
					Title string `json:"title"`
				} `json:"web"`
			} `json:"groundingChunks"`
			WebSearchQueries []string `json:"webSearchQueries"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate implements Client.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(c.cfg.Endpoint, "/"), c.cfg.Model)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: http %d", ErrQuotaExceeded, resp.StatusCode)
	case resp.StatusCode == http.StatusGatewayTimeout:
		return nil, fmt.Errorf("%w: http %d", ErrTimeout, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: http %d: %s", ErrUnavailable, resp.StatusCode, truncateBody(raw))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if parsed.Error != nil {
		if parsed.Error.Status == "RESOURCE_EXHAUSTED" {
			return nil, fmt.Errorf("%w: %s", ErrQuotaExceeded, parsed.Error.Message)
		}
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates", ErrMalformed)
	}

	cand := parsed.Candidates[0]
	var sb strings.Builder
	for _, p := range cand.Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", ErrMalformed)
	}

	out := &Result{Text: text}
	if gm := cand.GroundingMetadata; gm != nil {
		out.Queries = gm.WebSearchQueries
		for _, ch := range gm.GroundingChunks {
			if ch.Web.URI == "" && ch.Web.Title == "" {
				continue
			}
			out.Sources = append(out.Sources, Source{
				Type:  "web",
				Title: ch.Web.Title,
				URL:   ch.Web.URI,
			})
		}
	}
	return out, nil
}

func (c *GeminiClient) buildRequest(req Request) geminiRequest {
	parts := []geminiPart{{Text: req.Prompt}}
	if len(req.Image) > 0 {
		mime := req.ImageMIME
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MIMEType: mime,
			Data:     base64.StdEncoding.EncodeToString(req.Image),
		}})
	}

	temp := req.Temperature
	if temp <= 0 {
		temp = c.cfg.Temperature
	}

	out := geminiRequest{
		Contents:         []geminiContent{{Parts: parts}},
		GenerationConfig: geminiGenerationConfig{Temperature: temp},
	}
	if req.Grounding {
		out.Tools = []geminiTool{{GoogleSearch: &struct{}{}}}
	}
	return out
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func truncateBody(b []byte) string {
	const max = 512
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "…"
}
