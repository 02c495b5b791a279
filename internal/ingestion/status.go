package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/codelens-labs/codelens/internal/config"
)

const (
	statusKeyPrefix = "codelens:run:"
	statusTTL       = 24 * time.Hour
)

// RunState is the observable lifecycle of an async processing run.
type RunState string

const (
	RunPending    RunState = "pending"
	RunProcessing RunState = "processing"
	RunCompleted  RunState = "completed"
	RunFailed     RunState = "failed"
	RunSkipped    RunState = "skipped"
)

// StatusRecord is the tracked state of one processing run.
type StatusRecord struct {
	ProcessingID string    `json:"processingId"`
	State        RunState  `json:"status"`
	Detail       string    `json:"detail,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// StatusTracker records run lifecycle transitions for status lookups.
// Set failures must not fail the run itself.
type StatusTracker interface {
	Set(ctx context.Context, rec StatusRecord)
	Get(ctx context.Context, processingID string) (StatusRecord, bool)
}

// ValkeyTracker persists status records in Valkey with a TTL, so status
// lookups survive across API instances.
type ValkeyTracker struct {
	client valkey.Client
	logger *slog.Logger
}

// NewValkeyTracker connects to Valkey and verifies connectivity.
func NewValkeyTracker(cfg config.ValkeyConfig, logger *slog.Logger) (*ValkeyTracker, error) {
	opts := valkey.ClientOption{
		InitAddress: []string{cfg.Addr},
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("create valkey client: %w", err)
	}

	ctx := context.Background()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping valkey: %w", err)
	}

	return &ValkeyTracker{client: client, logger: logger}, nil
}

func (t *ValkeyTracker) Set(ctx context.Context, rec StatusRecord) {
	rec.UpdatedAt = time.Now()
	data, err := json.Marshal(rec)
	if err != nil {
		t.logger.Error("marshal status record", slog.String("error", err.Error()))
		return
	}

	resp := t.client.Do(ctx, t.client.B().Set().
		Key(statusKeyPrefix+rec.ProcessingID).Value(string(data)).
		Ex(statusTTL).Build())
	if err := resp.Error(); err != nil {
		t.logger.Error("store status record",
			slog.String("processing_id", rec.ProcessingID),
			slog.String("error", err.Error()))
	}
}

func (t *ValkeyTracker) Get(ctx context.Context, processingID string) (StatusRecord, bool) {
	resp := t.client.Do(ctx, t.client.B().Get().Key(statusKeyPrefix+processingID).Build())
	if err := resp.Error(); err != nil {
		return StatusRecord{}, false
	}

	data, err := resp.AsBytes()
	if err != nil {
		return StatusRecord{}, false
	}

	var rec StatusRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		t.logger.Error("unmarshal status record", slog.String("error", err.Error()))
		return StatusRecord{}, false
	}
	return rec, true
}

// Close releases the underlying Valkey connection.
func (t *ValkeyTracker) Close() {
	t.client.Close()
}

// MemoryTracker is the in-process fallback used when Valkey is not
// configured. Records live only for the process lifetime.
type MemoryTracker struct {
	mu      sync.RWMutex
	records map[string]StatusRecord
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{records: make(map[string]StatusRecord)}
}

func (t *MemoryTracker) Set(_ context.Context, rec StatusRecord) {
	rec.UpdatedAt = time.Now()
	t.mu.Lock()
	t.records[rec.ProcessingID] = rec
	t.mu.Unlock()
}

func (t *MemoryTracker) Get(_ context.Context, processingID string) (StatusRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.records[processingID]
	return rec, ok
}
