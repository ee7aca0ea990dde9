package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rongwang/pioneer-fleet/internal/fleet"
	"github.com/rongwang/pioneer-fleet/internal/metrics"
	"github.com/rongwang/pioneer-fleet/internal/models"
	"github.com/rongwang/pioneer-fleet/internal/utils"
)

var (
	// ErrDocumentNotFound is returned by a backend that holds no document yet
	ErrDocumentNotFound = errors.New("document not found")
	// ErrPayloadTooLarge is returned by a backend refusing a document over its size cap
	ErrPayloadTooLarge = errors.New("document exceeds the store size limit")
)

// Backend stores one opaque JSON document. Every write replaces the whole
// document; there is no partial update and no version check.
type Backend interface {
	Fetch(ctx context.Context) ([]byte, error)
	Put(ctx context.Context, data []byte) error
	Close() error
}

// SaveResult tells callers what became of a save
type SaveResult int

const (
	SaveFailed SaveResult = iota
	Saved
	// SavedOversize means the store refused the document for its size. It is
	// reported as a success so pilots are not blocked, but nothing was written.
	SavedOversize
)

// Warning returns the code surfaced to clients for a soft success
func (r SaveResult) Warning() string {
	if r == SavedOversize {
		return "DOCUMENT_TOO_LARGE"
	}
	return ""
}

func (r SaveResult) String() string {
	switch r {
	case Saved:
		return "saved"
	case SavedOversize:
		return "oversize"
	default:
		return "error"
	}
}

// Options tunes a DocumentStore
type Options struct {
	// Timeout bounds every backend call
	Timeout time.Duration
	// CacheTTL is the freshness window of the loaded document; 0 disables caching
	CacheTTL time.Duration
	// MaxBytes rejects larger documents before they reach the backend; 0 means no limit
	MaxBytes int
}

// DocumentStore loads and saves the corporation document through a Backend.
//
// Load never fails: on any error it logs a warning and hands out the default
// document. Save overwrites the stored document wholesale, so concurrent
// writers silently replace each other's changes (last writer wins).
type DocumentStore struct {
	backend    Backend
	normalizer fleet.Normalizer
	opts       Options
	logger     *utils.Logger
	metrics    *metrics.Registry
	now        func() time.Time

	mu       sync.Mutex
	cached   *models.Document
	cachedAt time.Time
}

// NewDocumentStore creates a DocumentStore
func NewDocumentStore(backend Backend, normalizer fleet.Normalizer, opts Options, logger *utils.Logger, m *metrics.Registry) *DocumentStore {
	return &DocumentStore{
		backend:    backend,
		normalizer: normalizer,
		opts:       opts,
		logger:     logger,
		metrics:    m,
		now:        time.Now,
	}
}

// Load returns a normalized private copy of the document
func (s *DocumentStore) Load(ctx context.Context) *models.Document {
	if doc := s.fromCache(); doc != nil {
		s.metrics.StoreLoads.WithLabelValues("cached").Inc()
		return doc
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := s.now()
	data, err := s.backend.Fetch(ctx)
	s.metrics.StoreLatency.WithLabelValues("load").Observe(s.now().Sub(start).Seconds())

	if errors.Is(err, ErrDocumentNotFound) {
		s.logger.Info("No stored document yet, starting from an empty one")
		s.metrics.StoreLoads.WithLabelValues("empty").Inc()
		return s.defaultDocument()
	}
	if err != nil {
		s.logger.Warn("Failed to load document, using the default one: %v", err)
		s.metrics.StoreLoads.WithLabelValues("fallback").Inc()
		return s.defaultDocument()
	}

	raw, err := models.DecodeDocument(data)
	if err != nil {
		s.logger.Warn("Stored document is unreadable, using the default one: %v", err)
		s.metrics.StoreLoads.WithLabelValues("fallback").Inc()
		return s.defaultDocument()
	}

	doc := s.normalizer.Normalize(raw)
	s.metrics.StoreLoads.WithLabelValues("fetched").Inc()
	s.metrics.DocumentBytes.Set(float64(len(data)))
	s.metrics.FleetShips.Set(float64(len(doc.Fleet)))
	s.remember(doc)
	return doc
}

// Save normalizes doc once more and overwrites the stored document with it.
// A size-limit refusal is a soft success: the result is SavedOversize and the
// error is nil. Failures are not retried.
func (s *DocumentStore) Save(ctx context.Context, doc *models.Document) (SaveResult, error) {
	doc = s.normalizer.Normalize(doc)
	data, err := models.EncodeDocument(doc)
	if err != nil {
		s.metrics.StoreSaves.WithLabelValues(SaveFailed.String()).Inc()
		return SaveFailed, fmt.Errorf("encode document: %w", err)
	}

	if s.opts.MaxBytes > 0 && len(data) > s.opts.MaxBytes {
		return s.oversize(len(data)), nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := s.now()
	err = s.backend.Put(ctx, data)
	s.metrics.StoreLatency.WithLabelValues("save").Observe(s.now().Sub(start).Seconds())

	if errors.Is(err, ErrPayloadTooLarge) {
		return s.oversize(len(data)), nil
	}
	if err != nil {
		s.logger.Error("Failed to save document: %v", err)
		s.metrics.StoreSaves.WithLabelValues(SaveFailed.String()).Inc()
		s.forget()
		return SaveFailed, fmt.Errorf("save document: %w", err)
	}

	s.logger.Info("Saved document: %d ships, %d bytes, digest %s", len(doc.Fleet), len(data), models.Digest(data)[:16])
	s.metrics.StoreSaves.WithLabelValues(Saved.String()).Inc()
	s.metrics.DocumentBytes.Set(float64(len(data)))
	s.metrics.FleetShips.Set(float64(len(doc.Fleet)))
	s.remember(doc)
	return Saved, nil
}

// Close releases the backend
func (s *DocumentStore) Close() error {
	return s.backend.Close()
}

func (s *DocumentStore) oversize(size int) SaveResult {
	s.logger.Warn("Document of %d bytes refused for its size, changes were not stored", size)
	s.metrics.StoreSaves.WithLabelValues(SavedOversize.String()).Inc()
	s.forget()
	return SavedOversize
}

func (s *DocumentStore) defaultDocument() *models.Document {
	return s.normalizer.Normalize(nil)
}

func (s *DocumentStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.Timeout)
}

func (s *DocumentStore) fromCache() *models.Document {
	if s.opts.CacheTTL <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached == nil || s.now().Sub(s.cachedAt) >= s.opts.CacheTTL {
		return nil
	}
	return s.cached.Clone()
}

func (s *DocumentStore) remember(doc *models.Document) {
	if s.opts.CacheTTL <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = doc.Clone()
	s.cachedAt = s.now()
}

func (s *DocumentStore) forget() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
}
