// Package ai defines the boundary to the generative-AI capability: given a
// prompt, an optional image, and an optional search-grounding toggle, return
// generated text plus source attributions — or a typed failure.
//
// The rest of the application depends only on the Client interface; the
// concrete Gemini implementation lives in gemini.go and test doubles stand in
// for it everywhere else.
package ai

import (
	"context"
	"errors"
)

// Upstream failure classes. Callers surface these to clients untouched; the
// application never retries internally.
var (
	// ErrQuotaExceeded indicates the upstream rejected the call for quota or
	// billing reasons (HTTP 429 and friends).
	ErrQuotaExceeded = errors.New("ai: quota exceeded")

	// ErrTimeout indicates the upstream call exceeded its deadline.
	ErrTimeout = errors.New("ai: deadline exceeded")

	// ErrMalformed indicates the upstream returned a response that could not
	// be parsed into a Result.
	ErrMalformed = errors.New("ai: malformed response")

	// ErrUnavailable covers auth failures and transport-level errors.
	ErrUnavailable = errors.New("ai: upstream unavailable")
)

// Source is one attribution returned alongside generated text.
type Source struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// Request is a single generation call.
type Request struct {
	// Prompt is the fully assembled text prompt.
	Prompt string

	// Image, when non-nil, is attached as an inline multimodal part.
	Image     []byte
	ImageMIME string

	// Grounding enables web-search grounding; the Result then carries the
	// sources the model consulted and the queries it ran.
	Grounding bool

	// Temperature overrides the client default when > 0.
	Temperature float64
}

// Result is a successful generation.
type Result struct {
	// Text is the generated explanation or search summary.
	Text string

	// Sources are attributions: grounding chunks when Grounding was set,
	// otherwise whatever the implementation can attribute.
	Sources []Source

	// Queries are the web-search queries the model actually executed
	// (grounded calls only).
	Queries []string
}

// Client is the opaque generative capability consumed by the services layer.
type Client interface {
	// Generate performs one generation call. It honors ctx cancellation and
	// returns one of the package error values (possibly wrapped) on failure.
	Generate(ctx context.Context, req Request) (*Result, error)
}
