package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/s1natex/taskboard/internal/storage"
)

const DefaultKey = "TASKS"

// Persistence writes the whole task list under one key of a KV store and reads
// it back. There is no per-task storage: every save replaces the full list.
type Persistence struct {
	kv       storage.KV
	key      string
	logger   *slog.Logger
	maxTries uint
	backoff  func() backoff.BackOff
}

type PersistenceOption func(*Persistence)

// WithKey overrides the storage key (default "TASKS").
func WithKey(key string) PersistenceOption {
	return func(p *Persistence) {
		if strings.TrimSpace(key) != "" {
			p.key = key
		}
	}
}

func WithPersistenceLogger(logger *slog.Logger) PersistenceOption {
	return func(p *Persistence) { p.logger = logger }
}

// WithRetry sets how many attempts a save gets and the backoff between them.
func WithRetry(maxTries uint, b func() backoff.BackOff) PersistenceOption {
	return func(p *Persistence) {
		if maxTries > 0 {
			p.maxTries = maxTries
		}
		if b != nil {
			p.backoff = b
		}
	}
}

func NewPersistence(kv storage.KV, opts ...PersistenceOption) *Persistence {
	p := &Persistence{
		kv:       kv,
		key:      DefaultKey,
		logger:   slog.Default(),
		maxTries: 3,
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 50 * time.Millisecond
			b.MaxInterval = time.Second
			return b
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Persistence) Key() string { return p.key }

// CorruptKey is where Load copies a document it cannot read.
func (p *Persistence) CorruptKey() string { return p.key + ".corrupt" }

// Save encodes list as a JSON array and writes it, retrying transient failures.
func (p *Persistence) Save(ctx context.Context, list []Task) error {
	ctx, span := otel.Tracer("storage").Start(ctx, "tasks.save")
	defer span.End()
	span.SetAttributes(attribute.String("store.key", p.key), attribute.Int("tasks.count", len(list)))

	if list == nil {
		list = []Task{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("encode tasks: %w", err)
	}

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, p.kv.Set(ctx, p.key, data)
	},
		backoff.WithBackOff(p.backoff()),
		backoff.WithMaxTries(p.maxTries),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		storeSavesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	storeSavesTotal.WithLabelValues("ok").Inc()
	return nil
}

// Load reads the stored list. A missing key is a first run and yields an empty
// list. Records that fail validation are dropped one by one; only a document
// that is not a JSON array at all is reported as ErrStorageCorrupt, after it has
// been copied to CorruptKey.
func (p *Persistence) Load(ctx context.Context) ([]Task, error) {
	ctx, span := otel.Tracer("storage").Start(ctx, "tasks.load")
	defer span.End()
	span.SetAttributes(attribute.String("store.key", p.key))

	data, err := p.kv.Get(ctx, p.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []Task{}, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	list, err := p.decode(data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "corrupt document")
		// the next save overwrites the key, so keep the unreadable bytes first
		if berr := p.kv.Set(ctx, p.CorruptKey(), data); berr != nil {
			return nil, fmt.Errorf("%w: keep corrupt document: %w", ErrStorageUnavailable, berr)
		}
		p.logger.Warn("store_document_kept_aside",
			slog.String("key", p.key),
			slog.String("backup_key", p.CorruptKey()),
		)
		return nil, err
	}
	span.SetAttributes(attribute.Int("tasks.count", len(list)))
	return list, nil
}

func (p *Persistence) decode(data []byte) ([]Task, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageCorrupt, err)
	}
	if raw == nil {
		// literal null
		return []Task{}, nil
	}

	out := make([]Task, 0, len(raw))
	seen := make(map[int64]struct{}, len(raw))
	for i, rec := range raw {
		t, err := decodeRecord(rec)
		if err != nil {
			p.discard(i, err.Error())
			continue
		}
		if _, dup := seen[t.ID]; dup {
			p.discard(i, fmt.Sprintf("duplicate id %d", t.ID))
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}

func (p *Persistence) discard(index int, reason string) {
	storeDiscardedTotal.Inc()
	p.logger.Warn("store_record_discarded",
		slog.String("key", p.key),
		slog.Int("index", index),
		slog.String("reason", reason),
	)
}

func decodeRecord(rec json.RawMessage) (Task, error) {
	dec := json.NewDecoder(bytes.NewReader(rec))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return Task{}, err
	}
	if err := recordSchema.Validate(v); err != nil {
		loc, msg := firstSchemaCause(err)
		if loc == "" {
			return Task{}, errors.New(msg)
		}
		return Task{}, fmt.Errorf("%s: %s", loc, msg)
	}

	var t Task
	if err := json.Unmarshal(rec, &t); err != nil {
		return Task{}, err
	}
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return Task{}, errors.New("/title: blank")
	}
	return t, nil
}
