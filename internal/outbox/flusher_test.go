package outbox

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"

	"github.com/pawkeep/pawkeep/internal/datastore/entities"
	"github.com/pawkeep/pawkeep/internal/datastore/repository"
)

func setupOutboxRepo(t *testing.T) repository.OutboxRepository {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=ON", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Silent),
	})
	require.NoError(t, err, "failed to open in-memory database")
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&entities.OutboxOperation{}))
	return repository.NewOutboxRepository(db)
}

func TestFlushAcknowledgesDeliveredOperations(t *testing.T) {
	t.Parallel()

	repo := setupOutboxRepo(t)

	var gotKey atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey.Store(r.Header.Get(IdempotencyHeader))
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(srv.Close)

	f, err := NewFlusher(repo, srv.Client(), srv.URL)
	require.NoError(t, err)

	op, err := f.Queue(t.Context(), "POST", "/api/v1/pets/1/medications", `{"name":"Heartgard"}`)
	require.NoError(t, err)

	require.NoError(t, f.Flush(t.Context()))

	assert.Equal(t, op.IdempotencyKey, gotKey.Load(), "replay must carry the stored idempotency key")
	count, err := repo.CountPending(t.Context())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestFlushRetriesWithSameKey(t *testing.T) {
	t.Parallel()

	repo := setupOutboxRepo(t)

	var keys []string
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		keys = append(keys, r.Header.Get(IdempotencyHeader))
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	f, err := NewFlusher(repo, srv.Client(), srv.URL)
	require.NoError(t, err)

	op, err := f.Queue(t.Context(), "PUT", "/api/v1/pets/1", `{"name":"Max"}`)
	require.NoError(t, err)

	require.NoError(t, f.Flush(t.Context()))

	require.GreaterOrEqual(t, attempts, 3)
	for _, k := range keys {
		assert.Equal(t, op.IdempotencyKey, k, "every attempt carries the same key")
	}
}

func TestFlushConflictKeepsBackendState(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusConflict, http.StatusGone} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			t.Parallel()

			repo := setupOutboxRepo(t)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(status)
			}))
			t.Cleanup(srv.Close)

			f, err := NewFlusher(repo, srv.Client(), srv.URL)
			require.NoError(t, err)

			_, err = f.Queue(t.Context(), "DELETE", "/api/v1/pets/1", "")
			require.NoError(t, err)

			require.NoError(t, f.Flush(t.Context()), "conflict is a resolution, not a flush error")

			count, err := repo.CountPending(t.Context())
			require.NoError(t, err)
			assert.Zero(t, count, "conflicting operation leaves the queue")
		})
	}
}

func TestFlushTransientFailureStaysQueued(t *testing.T) {
	t.Parallel()

	repo := setupOutboxRepo(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	f, err := NewFlusher(repo, srv.Client(), srv.URL, WithMaxRetries(5))
	require.NoError(t, err)

	_, err = f.Queue(t.Context(), "POST", "/api/v1/pets", `{"name":"Luna"}`)
	require.NoError(t, err)

	assert.Error(t, f.Flush(t.Context()))

	ops, err := repo.ListPending(t.Context(), 0)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, 1, ops[0].Retries)
}

func TestFlushAbandonsAfterRetryBudget(t *testing.T) {
	t.Parallel()

	repo := setupOutboxRepo(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	f, err := NewFlusher(repo, srv.Client(), srv.URL, WithMaxRetries(2))
	require.NoError(t, err)

	_, err = f.Queue(t.Context(), "POST", "/api/v1/pets", `{"name":"Luna"}`)
	require.NoError(t, err)

	assert.Error(t, f.Flush(t.Context()), "first pass records a failure")
	assert.Error(t, f.Flush(t.Context()), "second pass exhausts the budget")

	count, err := repo.CountPending(t.Context())
	require.NoError(t, err)
	assert.Zero(t, count, "abandoned operation leaves the pending set")
}

func TestNewFlusherValidation(t *testing.T) {
	t.Parallel()

	repo := setupOutboxRepo(t)

	_, err := NewFlusher(nil, nil, "http://localhost")
	assert.Error(t, err)

	_, err = NewFlusher(repo, nil, "")
	assert.Error(t, err)
}
