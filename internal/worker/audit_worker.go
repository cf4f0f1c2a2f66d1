package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/lenterailmu/ujian-backend/internal/config"
	"github.com/lenterailmu/ujian-backend/internal/model"
	"github.com/lenterailmu/ujian-backend/internal/repository"
)

const (
	AuditBatchSize    = 50
	AuditBatchTimeout = 2 * time.Second
	AuditPollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// AuditWorker drains the audit events queue into session_audit_log. The log
// is observability, not a correctness gate, so the worker absorbs every
// failure it can: bulk insert falls back to row-by-row, rows that still fail
// are requeued.
type AuditWorker struct {
	repo *repository.AuditRepository
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewAuditWorker creates a new AuditWorker.
func NewAuditWorker(repo *repository.AuditRepository, rdb *redis.Client, log zerolog.Logger) *AuditWorker {
	return &AuditWorker{
		repo: repo,
		rdb:  rdb,
		log:  log.With().Str("component", "audit_worker").Logger(),
	}
}

// Start begins the worker loop with batching. Call in a goroutine.
func (w *AuditWorker) Start(ctx context.Context) {
	w.log.Info().Msg("AuditWorker started")

	batch := make([]*model.SessionAuditEntry, 0, AuditBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= AuditBatchSize || time.Since(lastFlush) >= AuditBatchTimeout) {
			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining audit batch...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			w.flushSafe(shutdownCtx, batch)
			cancel()
			return

		default:
			item, err := w.rdb.BLPop(ctx, AuditPollTimeout, config.WorkerKey.AuditEventsQueue).Result()
			if err != nil {
				if err == redis.Nil {
					continue // Queue empty, loop back to check the flush timer
				}
				if ctx.Err() != nil {
					return
				}
				w.log.Error().Err(err).Msg("BLPop error, sleeping 3s")
				time.Sleep(3 * time.Second)
				continue
			}

			if len(item) < 2 {
				continue
			}

			var entry model.SessionAuditEntry
			if err := json.Unmarshal([]byte(item[1]), &entry); err != nil {
				// Malformed JSON cannot be retried. Log and discard.
				w.log.Error().Err(err).Str("data", item[1]).Msg("Discarding malformed audit entry")
				continue
			}
			batch = append(batch, &entry)
		}
	}
}

// flushSafe attempts bulk insert, then row-by-row recovery, then requeue.
func (w *AuditWorker) flushSafe(ctx context.Context, batch []*model.SessionAuditEntry) {
	if len(batch) == 0 {
		return
	}

	if err := w.repo.BulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk audit insert failed, recovering row by row")
		w.fallbackInsert(ctx, batch)
	}
}

func (w *AuditWorker) fallbackInsert(ctx context.Context, batch []*model.SessionAuditEntry) {
	var requeueList []*model.SessionAuditEntry

	for _, e := range batch {
		if err := w.repo.Insert(ctx, e); err != nil {
			w.log.Error().Err(err).
				Str("session_id", e.SessionID.String()).
				Msg("Audit insert failed, requeueing")
			requeueList = append(requeueList, e)
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *AuditWorker) requeue(ctx context.Context, entries []*model.SessionAuditEntry) {
	pipe := w.rdb.Pipeline()
	for _, e := range entries {
		raw, _ := json.Marshal(e)
		pipe.RPush(ctx, config.WorkerKey.AuditEventsQueue, raw)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Int("count", len(entries)).Msg("CRITICAL: failed to requeue audit entries, data lost")
		return
	}
	w.log.Info().Int("count", len(entries)).Msg("Requeued failed audit entries")
	// Back off a little if the database is down hard.
	time.Sleep(2 * time.Second)
}
