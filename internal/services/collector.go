// Package services – Collector
//
// The collector gathers background reference material for newly registered
// videos. It runs fully detached from the HTTP request that triggered it:
// jobs travel through a bounded channel to a small worker pool, each job is
// executed at most once per video (singleflight + a persisted-references
// guard), and every failure is logged and dropped. Registration latency and
// registration success are never coupled to collection outcome.
//
// Observability: collection runs are OpenTelemetry-instrumented root spans,
// since there is no live request context to parent them to.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/docentlabs/go-docent-backend/internal/ai"
	"github.com/docentlabs/go-docent-backend/internal/observability"
)

// groundingTemperature keeps reference gathering factual rather than creative.
const groundingTemperature = 0.3

// maxReferenceItems caps how many grounded results are persisted per video.
const maxReferenceItems = 3

// CollectionJob identifies one video whose references should be gathered.
type CollectionJob struct {
	VideoID  string
	Title    string
	Platform string
}

// ReferenceStore is the persistence contract the collector needs.
type ReferenceStore interface {
	CountReferences(ctx context.Context, db *gorm.DB, videoID string) (int64, error)
	CreateReference(ctx context.Context, db *gorm.DB, videoID string, payload, metadata datatypes.JSON) error
}

// Collector runs grounded reference collection in the background.
type Collector struct {
	DB      *gorm.DB
	Store   ReferenceStore
	AI      ai.Client
	Timeout time.Duration // per-job budget; 0 means 60s

	jobs    chan CollectionJob
	workers int
	group   singleflight.Group

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// NewCollector constructs a collector with a bounded job queue.
// queueSize and workers fall back to sane minimums when non-positive.
func NewCollector(db *gorm.DB, store ReferenceStore, client ai.Client, queueSize, workers int) *Collector {
	if queueSize <= 0 {
		queueSize = 64
	}
	if workers <= 0 {
		workers = 1
	}
	return &Collector{
		DB:      db,
		Store:   store,
		AI:      client,
		jobs:    make(chan CollectionJob, queueSize),
		workers: workers,
	}
}

// Start launches the worker pool. It must be called once before Enqueue.
func (c *Collector) Start() {
	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.run()
	}
}

// Enqueue offers a job to the pool without blocking. It reports false when
// the pool is stopped or the queue is full; callers treat that as a dropped
// best-effort job. The send happens under the stop lock so Enqueue can never
// race Stop's close of the queue.
func (c *Collector) Enqueue(job CollectionJob) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return false
	}
	select {
	case c.jobs <- job:
		return true
	default:
		observability.CollectorJobs.WithLabelValues("dropped").Inc()
		log.Warn().Str("video_id", job.VideoID).Msg("collector queue full, dropping job")
		return false
	}
}

// Stop closes the queue and waits for the workers to drain it — including any
// job mid-collection — or for ctx to expire, whichever comes first. Stop is
// idempotent.
func (c *Collector) Stop(ctx context.Context) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	close(c.jobs)
	c.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-ctx.Done():
	}
}

func (c *Collector) run() {
	defer c.wg.Done()
	for job := range c.jobs {
		// Coalesce concurrent jobs for the same video.
		_, _, _ = c.group.Do(job.VideoID, func() (any, error) {
			c.collect(job)
			return nil, nil
		})
	}
}

// collect performs one collection pass. It is deliberately detached from any
// request context: the originating HTTP request may be long gone.
func (c *Collector) collect(job CollectionJob) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	tr := otel.Tracer("services/Collector")
	ctx, span := tr.Start(ctx, "collect",
		trace.WithAttributes(attribute.String("video.id", job.VideoID)),
	)
	defer span.End()

	// One-time guard: if any batch already exists, this video is done.
	n, err := c.Store.CountReferences(ctx, c.DB, job.VideoID)
	if err != nil {
		observability.CollectorJobs.WithLabelValues("failed").Inc()
		log.Error().Err(err).Str("video_id", job.VideoID).Msg("reference count failed")
		return
	}
	if n > 0 {
		observability.CollectorJobs.WithLabelValues("skipped").Inc()
		log.Debug().Str("video_id", job.VideoID).Int64("existing", n).Msg("references already collected, skipping")
		return
	}

	query := c.searchQuery(job)
	res, err := c.AI.Generate(ctx, ai.Request{
		Prompt:      query,
		Grounding:   true,
		Temperature: groundingTemperature,
	})
	if err != nil {
		observability.CollectorJobs.WithLabelValues("failed").Inc()
		log.Error().Err(err).Str("video_id", job.VideoID).Msg("reference generation failed")
		return
	}
	if len(res.Sources) == 0 {
		// Nothing grounded: write no row so a later registration can retry.
		observability.CollectorJobs.WithLabelValues("skipped").Inc()
		log.Info().Str("video_id", job.VideoID).Msg("no grounded sources, skipping reference write")
		return
	}

	items := make([]map[string]string, 0, maxReferenceItems)
	for _, src := range res.Sources {
		if len(items) == maxReferenceItems {
			break
		}
		items = append(items, map[string]string{
			"title": src.Title,
			"url":   src.URL,
		})
	}

	payload, err := json.Marshal(map[string]any{
		"query":          query,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"search_queries": res.Queries,
		"items":          items,
	})
	if err != nil {
		log.Error().Err(err).Str("video_id", job.VideoID).Msg("reference payload encoding failed")
		return
	}
	metadata, _ := json.Marshal(map[string]any{
		"source":        "gemini_grounding",
		"query":         query,
		"results_count": len(items),
	})

	if err := c.Store.CreateReference(ctx, c.DB, job.VideoID, payload, metadata); err != nil {
		observability.CollectorJobs.WithLabelValues("failed").Inc()
		log.Error().Err(err).Str("video_id", job.VideoID).Msg("reference persist failed")
		return
	}
	observability.CollectorJobs.WithLabelValues("collected").Inc()
	log.Info().Str("video_id", job.VideoID).Int("items", len(items)).Msg("references collected")
}

// searchQuery builds an English grounding query from the video metadata.
// Placeholder titles fall back to the platform identifier so the search has
// at least one concrete handle.
func (c *Collector) searchQuery(job CollectionJob) string {
	title := strings.TrimSpace(job.Title)
	if title != "" && !isGenericTitle(title) {
		if job.Platform != "" {
			return fmt.Sprintf("%s %s plot characters background", job.Platform, title)
		}
		return fmt.Sprintf("%s plot characters background", title)
	}
	if job.Platform != "" {
		return fmt.Sprintf("%s video %s information", job.Platform, job.VideoID)
	}
	return fmt.Sprintf("video %s information", job.VideoID)
}

// isGenericTitle reports whether the title carries no searchable signal.
func isGenericTitle(title string) bool {
	switch strings.ToLower(title) {
	case "video", "untitled", "unknown", "watch", "netflix", "home":
		return true
	}
	return false
}
