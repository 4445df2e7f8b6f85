// Package services – ExplainService
//
// ExplainService is the cache-or-generate orchestrator: given a selected
// subtitle span it first consults the request cache, and only on a miss
// assembles a grounded prompt (video metadata, stored references, recent
// subtitle context, optional screenshot) and calls the generation backend.
// Caching is strictly best-effort; a cache write failure never fails the
// request. Generation failures are passed through untouched so the handler
// layer can map them to the upstream error taxonomy.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/docentlabs/go-docent-backend/internal/ai"
	"github.com/docentlabs/go-docent-backend/internal/domain"
	"github.com/docentlabs/go-docent-backend/internal/observability"
	"github.com/docentlabs/go-docent-backend/internal/repo"
)

// defaultContextMaxItems bounds how many prior subtitle lines enter a prompt.
const defaultContextMaxItems = 10

// ExplainStore is the persistence contract the explain flow needs.
type ExplainStore interface {
	GetVideo(ctx context.Context, db *gorm.DB, videoID string) (*domain.Video, error)
	ListReferences(ctx context.Context, db *gorm.DB, videoID string) ([]domain.Reference, error)
	GetCachedRequest(ctx context.Context, db *gorm.DB, requestKey string) (*domain.CachedRequest, error)
	CreateCachedRequest(ctx context.Context, db *gorm.DB, r *domain.CachedRequest) error
	GetImage(ctx context.Context, db *gorm.DB, id string) (*domain.Image, error)
}

// PromptProvider yields prompt templates by identifier.
type PromptProvider interface {
	Value(ctx context.Context, id string) (string, error)
}

// ContextEntry is one prior subtitle line supplied by the client.
type ContextEntry struct {
	Text      string
	Timestamp float64
}

// ExplainInput carries one explanation request.
type ExplainInput struct {
	VideoID         string
	SelectedText    string
	Timestamp       float64
	Language        string
	Context         []ContextEntry
	CurrentSubtitle string
	NonverbalCues   string
	ImageID         string

	// FallbackTitle and FallbackPlatform stand in for an unregistered video.
	FallbackTitle    string
	FallbackPlatform string

	SessionID string
}

// ExplainSource is one provenance entry attached to an explanation.
type ExplainSource struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// ExplainResult is the outcome of one explain call.
type ExplainResult struct {
	Explanation string
	Sources     []ExplainSource
	References  []ExplainSource
	Cached      bool
	Duration    time.Duration // generation time; zero on cache hits
}

// ExplainService orchestrates cache lookup, prompt assembly and generation.
type ExplainService struct {
	DB      *gorm.DB
	Store   ExplainStore
	Prompts PromptProvider
	AI      ai.Client

	// ImageDepot is the directory image rows resolve against.
	ImageDepot string
	// ContextMaxItems clamps inbound subtitle context; 0 means the default.
	ContextMaxItems int
	// ReadImage is a seam for tests; nil means os.ReadFile.
	ReadImage func(path string) ([]byte, error)
}

// NewExplainService constructs an ExplainService.
func NewExplainService(db *gorm.DB, store ExplainStore, prompts PromptProvider, client ai.Client, imageDepot string) *ExplainService {
	return &ExplainService{
		DB:         db,
		Store:      store,
		Prompts:    prompts,
		AI:         client,
		ImageDepot: imageDepot,
	}
}

// Explain answers one selected-text explanation request, replaying a cached
// answer when an identical request was answered before.
func (s *ExplainService) Explain(ctx context.Context, in ExplainInput) (*ExplainResult, error) {
	tr := otel.Tracer("services/ExplainService")
	ctx, span := tr.Start(ctx, "Explain",
		trace.WithAttributes(
			attribute.String("video.id", in.VideoID),
			attribute.String("lang", in.Language),
		),
	)
	defer span.End()

	in.VideoID = strings.TrimSpace(in.VideoID)
	in.SelectedText = strings.TrimSpace(in.SelectedText)
	if in.VideoID == "" {
		return nil, ErrMissingVideoID
	}
	if in.SelectedText == "" {
		return nil, ErrEmptySelection
	}
	in.Language = normalizeLang(in.Language)

	key := domain.RequestKey(in.VideoID, in.SelectedText, in.Timestamp, in.Language)

	// Step 1: cache lookup. A hit replays the stored answer verbatim and
	// never touches the generation backend.
	if hit, err := s.Store.GetCachedRequest(ctx, s.DB, key); err == nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		observability.ExplainRequests.WithLabelValues("cache_hit").Inc()
		return s.fromCache(hit), nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		log.Warn().Err(err).Str("video_id", in.VideoID).Msg("cache lookup failed, generating")
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	started := time.Now()

	// Step 2: video metadata, with synthesis for unregistered videos so an
	// explanation never blocks on registration ordering.
	video := s.resolveVideo(ctx, in)

	// Step 3: stored references are advisory; a read failure degrades to an
	// ungrounded prompt.
	refs, err := s.Store.ListReferences(ctx, s.DB, in.VideoID)
	if err != nil {
		log.Warn().Err(err).Str("video_id", in.VideoID).Msg("reference load failed, proceeding without")
		refs = nil
	}

	// Step 4: the prompt template is mandatory configuration.
	tmpl, err := s.Prompts.Value(ctx, SettingExplainPrompt)
	if err != nil {
		return nil, err
	}

	// Step 5: the screenshot is optional; any miss degrades to text-only.
	imageData, imageMIME := s.loadImage(ctx, in.ImageID)

	prompt := s.buildPrompt(tmpl, video, in, refs)

	res, err := s.AI.Generate(ctx, ai.Request{
		Prompt:    prompt,
		Image:     imageData,
		ImageMIME: imageMIME,
	})
	if err != nil {
		observability.ExplainRequests.WithLabelValues("failed").Inc()
		return nil, err
	}

	sources := make([]ExplainSource, 0, len(res.Sources)+1)
	for _, src := range res.Sources {
		sources = append(sources, ExplainSource{Type: src.Type, Title: src.Title, URL: src.URL})
	}
	sources = append(sources, ExplainSource{
		Type:  "video_context",
		Title: video.Title,
	})

	refSources := referenceItems(refs)

	out := &ExplainResult{
		Explanation: res.Text,
		Sources:     sources,
		References:  refSources,
		Cached:      false,
		Duration:    time.Since(started),
	}
	observability.ExplainRequests.WithLabelValues("generated").Inc()
	observability.GenerationSeconds.Observe(out.Duration.Seconds())

	// Step 6: best-effort cache write. A concurrent identical request may
	// have already written the row; either answer is valid.
	s.writeCache(ctx, key, in, out)

	return out, nil
}

// fromCache rehydrates a stored answer.
func (s *ExplainService) fromCache(row *domain.CachedRequest) *ExplainResult {
	out := &ExplainResult{
		Explanation: row.Explanation,
		Cached:      true,
	}
	if len(row.Sources) > 0 {
		if err := json.Unmarshal(row.Sources, &out.Sources); err != nil {
			log.Warn().Err(err).Str("request_key", row.RequestKey).Msg("cached sources decode failed")
		}
	}
	if len(row.Refs) > 0 {
		if err := json.Unmarshal(row.Refs, &out.References); err != nil {
			log.Warn().Err(err).Str("request_key", row.RequestKey).Msg("cached references decode failed")
		}
	}
	return out
}

// resolveVideo loads the registered row, or synthesizes a transient record
// from the request fallbacks when the video is unknown.
func (s *ExplainService) resolveVideo(ctx context.Context, in ExplainInput) *domain.Video {
	v, err := s.Store.GetVideo(ctx, s.DB, in.VideoID)
	if err == nil {
		return v
	}
	if !errors.Is(err, repo.ErrNotFound) {
		log.Warn().Err(err).Str("video_id", in.VideoID).Msg("video load failed, using request fallbacks")
	}
	title := in.FallbackTitle
	if title == "" {
		title = in.VideoID
	}
	return &domain.Video{
		VideoID:  in.VideoID,
		Platform: in.FallbackPlatform,
		Title:    title,
		Lang:     in.Language,
	}
}

// loadImage resolves an optional screenshot to raw bytes. Every failure path
// logs and returns nil so generation falls back to text-only.
func (s *ExplainService) loadImage(ctx context.Context, imageID string) ([]byte, string) {
	if imageID == "" {
		return nil, ""
	}
	img, err := s.Store.GetImage(ctx, s.DB, imageID)
	if err != nil {
		log.Warn().Err(err).Str("image_id", imageID).Msg("image row missing, text-only generation")
		return nil, ""
	}
	read := s.ReadImage
	if read == nil {
		read = os.ReadFile
	}
	data, err := read(filepath.Join(s.ImageDepot, img.DepotPath))
	if err != nil {
		log.Warn().Err(err).Str("image_id", imageID).Msg("image read failed, text-only generation")
		return nil, ""
	}
	mime := img.ContentType
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return data, mime
}

// buildPrompt renders the template and appends context, cues and references.
func (s *ExplainService) buildPrompt(tmpl string, video *domain.Video, in ExplainInput, refs []domain.Reference) string {
	base := strings.NewReplacer(
		"{video_title}", video.Title,
		"{language}", in.Language,
		"{selected_text}", in.SelectedText,
	).Replace(tmpl)

	var b strings.Builder
	b.WriteString(base)

	if entries := s.clampContext(in.Context); len(entries) > 0 {
		b.WriteString("\n\nRecent subtitles (most recent first):\n")
		for i := len(entries) - 1; i >= 0; i-- {
			fmt.Fprintf(&b, "- [%.1fs] %s\n", entries[i].Timestamp, entries[i].Text)
		}
	}
	if in.CurrentSubtitle != "" {
		b.WriteString("\nCurrent subtitle: ")
		b.WriteString(in.CurrentSubtitle)
		b.WriteString("\n")
	}
	if in.NonverbalCues != "" {
		b.WriteString("\nNon-verbal cues: ")
		b.WriteString(in.NonverbalCues)
		b.WriteString("\n")
	}
	if items := referenceItems(refs); len(items) > 0 {
		b.WriteString("\nBackground references:\n")
		for _, it := range items {
			if it.URL != "" {
				fmt.Fprintf(&b, "- %s (%s)\n", it.Title, it.URL)
			} else {
				fmt.Fprintf(&b, "- %s\n", it.Title)
			}
		}
	}
	return b.String()
}

// clampContext keeps only the most recent entries, preserving order.
func (s *ExplainService) clampContext(entries []ContextEntry) []ContextEntry {
	max := s.ContextMaxItems
	if max <= 0 {
		max = defaultContextMaxItems
	}
	if len(entries) <= max {
		return entries
	}
	return entries[len(entries)-max:]
}

// referenceItems flattens stored reference batches into display entries.
func referenceItems(refs []domain.Reference) []ExplainSource {
	var out []ExplainSource
	for _, ref := range refs {
		var payload struct {
			Items []struct {
				Title string `json:"title"`
				URL   string `json:"url"`
			} `json:"items"`
		}
		if err := json.Unmarshal(ref.Payload, &payload); err != nil {
			log.Warn().Err(err).Str("video_id", ref.VideoID).Msg("reference payload decode failed")
			continue
		}
		for _, it := range payload.Items {
			out = append(out, ExplainSource{Type: "reference", Title: it.Title, URL: it.URL})
		}
	}
	return out
}

// writeCache persists the generated answer. Failures are logged, never
// surfaced; a duplicate key means a concurrent request beat us to it.
func (s *ExplainService) writeCache(ctx context.Context, key string, in ExplainInput, out *ExplainResult) {
	sources, err := json.Marshal(out.Sources)
	if err != nil {
		log.Warn().Err(err).Msg("cache sources encode failed")
		return
	}
	refs, err := json.Marshal(out.References)
	if err != nil {
		log.Warn().Err(err).Msg("cache references encode failed")
		return
	}
	row := &domain.CachedRequest{
		RequestKey:   key,
		VideoID:      in.VideoID,
		SessionID:    in.SessionID,
		Lang:         in.Language,
		SelectedText: in.SelectedText,
		Timestamp:    in.Timestamp,
		Explanation:  out.Explanation,
		Sources:      datatypes.JSON(sources),
		Refs:         datatypes.JSON(refs),
	}
	if in.ImageID != "" {
		id := in.ImageID
		row.ImageID = &id
	}
	if err := s.Store.CreateCachedRequest(ctx, s.DB, row); err != nil && !errors.Is(err, repo.ErrDuplicate) {
		log.Warn().Err(err).Str("video_id", in.VideoID).Msg("cache write failed")
	}
}
