package repository

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rongwang/pioneer-fleet/internal/fleet"
	"github.com/rongwang/pioneer-fleet/internal/metrics"
	"github.com/rongwang/pioneer-fleet/internal/models"
	"github.com/rongwang/pioneer-fleet/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedBackend wraps a MemoryBackend with injectable failures
type scriptedBackend struct {
	*MemoryBackend
	fetchErr error
	putErr   error
	fetches  int
}

func (s *scriptedBackend) Fetch(ctx context.Context) ([]byte, error) {
	s.fetches++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.MemoryBackend.Fetch(ctx)
}

func (s *scriptedBackend) Put(ctx context.Context, data []byte) error {
	if s.putErr != nil {
		return s.putErr
	}
	return s.MemoryBackend.Put(ctx, data)
}

func newTestStore(backend Backend, opts Options) (*DocumentStore, *bytes.Buffer) {
	var logs bytes.Buffer
	normalizer := fleet.Normalizer{DefaultAdminCode: "4242", DefaultCorpoCode: "CORP"}
	s := NewDocumentStore(backend, normalizer, opts, utils.NewLoggerTo(&logs, &logs), metrics.NewRegistry())
	return s, &logs
}

func TestLoadFallsBackToDefaultDocument(t *testing.T) {
	backend := &scriptedBackend{MemoryBackend: NewMemoryBackend(0)}
	store, logs := newTestStore(backend, Options{})

	// Empty store
	doc := store.Load(context.Background())
	assert.Equal(t, "4242", doc.AdminCode)
	assert.Equal(t, "CORP", doc.CorpoCode)
	assert.Empty(t, doc.Fleet)

	// Transport failure
	backend.fetchErr = errors.New("dial tcp: i/o timeout")
	doc = store.Load(context.Background())
	assert.Equal(t, "CORP", doc.CorpoCode)
	assert.Contains(t, logs.String(), "WARN")

	// Undecodable body
	backend.fetchErr = nil
	require.NoError(t, backend.MemoryBackend.Put(context.Background(), []byte(`[1, 2, 3]`)))
	doc = store.Load(context.Background())
	assert.Equal(t, "CORP", doc.CorpoCode)
}

func TestLoadNormalizes(t *testing.T) {
	backend := NewMemoryBackend(0)
	require.NoError(t, backend.Put(context.Background(), []byte(`{
		"corpo_code": "XYZ",
		"users": {"Nova": "1234"},
		"fleet": [{"Vaisseau": "Polaris", "Dispo": "oui"}]
	}`)))
	store, _ := newTestStore(backend, Options{})

	doc := store.Load(context.Background())
	assert.Equal(t, "XYZ", doc.CorpoCode)
	assert.Equal(t, "4242", doc.AdminCode)
	assert.Contains(t, doc.UserData, "Nova")
	require.Len(t, doc.Fleet, 1)
	assert.Equal(t, "Polaris", doc.Fleet[0].ShipName)
	assert.True(t, doc.Fleet[0].FlightReady)
	assert.Equal(t, int64(1), doc.Fleet[0].ID)
}

func TestSaveResults(t *testing.T) {
	backend := &scriptedBackend{MemoryBackend: NewMemoryBackend(0)}
	store, _ := newTestStore(backend, Options{})
	doc := store.Load(context.Background())
	doc.Users["Nova"] = "1234"

	// Test case 1: Saved, and normalized on the way out
	result, err := store.Save(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, Saved, result)
	assert.Empty(t, result.Warning())

	saved, err := backend.MemoryBackend.Fetch(context.Background())
	require.NoError(t, err)
	stored, err := models.DecodeDocument(saved)
	require.NoError(t, err)
	assert.Contains(t, stored.UserData, "Nova")

	// Test case 2: Size refusal is a soft success
	backend.putErr = ErrPayloadTooLarge
	result, err = store.Save(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, SavedOversize, result)
	assert.Equal(t, "DOCUMENT_TOO_LARGE", result.Warning())

	// Test case 3: Any other failure is reported
	backend.putErr = errors.New("503 service unavailable")
	result, err = store.Save(context.Background(), doc)
	assert.Error(t, err)
	assert.Equal(t, SaveFailed, result)
	assert.Equal(t, 1, backend.Writes())
}

func TestSaveRespectsLocalSizeCap(t *testing.T) {
	backend := NewMemoryBackend(0)
	store, _ := newTestStore(backend, Options{MaxBytes: 10})

	result, err := store.Save(context.Background(), models.NewDocument(""))
	require.NoError(t, err)
	assert.Equal(t, SavedOversize, result)
	assert.Equal(t, 0, backend.Writes())
}

func TestCacheFreshnessWindow(t *testing.T) {
	backend := &scriptedBackend{MemoryBackend: NewMemoryBackend(0)}
	store, _ := newTestStore(backend, Options{CacheTTL: time.Minute})
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	doc := store.Load(context.Background())
	doc.Users["Nova"] = "1234"
	_, err := store.Save(context.Background(), doc)
	require.NoError(t, err)

	// our own save refreshed the cache
	cached := store.Load(context.Background())
	assert.Equal(t, 1, backend.fetches)
	assert.Contains(t, cached.Users, "Nova")

	// callers get private copies
	cached.Users["Mallory"] = "6666"
	assert.NotContains(t, store.Load(context.Background()).Users, "Mallory")

	// a write from elsewhere is only seen after the window
	require.NoError(t, backend.MemoryBackend.Put(context.Background(), []byte(`{"users":{"Ace":"1111"}}`)))
	assert.NotContains(t, store.Load(context.Background()).Users, "Ace")
	clock = clock.Add(time.Minute)
	assert.Contains(t, store.Load(context.Background()).Users, "Ace")
	assert.Equal(t, 2, backend.fetches)

	// a failed save drops the cache
	backend.putErr = errors.New("boom")
	_, err = store.Save(context.Background(), doc)
	require.Error(t, err)
	store.Load(context.Background())
	assert.Equal(t, 3, backend.fetches)
}

func TestSaveResultString(t *testing.T) {
	assert.Equal(t, "saved", Saved.String())
	assert.Equal(t, "oversize", SavedOversize.String())
	assert.Equal(t, "error", SaveFailed.String())
}
