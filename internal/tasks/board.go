package tasks

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Store is what the board persists through. *Persistence is the production one.
type Store interface {
	Load(ctx context.Context) ([]Task, error)
	Save(ctx context.Context, list []Task) error
}

// Board owns the ordered task list. Every mutation builds a new list, swaps it
// in, and writes it through to the store while still holding the lock, so the
// store sees saves in mutation order.
type Board struct {
	mu      sync.Mutex
	tasks   []Task
	store   Store
	ids     IDGenerator
	now     func() time.Time
	logger  *slog.Logger
	lastErr error
	loaded  bool
}

type Option func(*Board)

func WithIDGenerator(g IDGenerator) Option {
	return func(b *Board) { b.ids = g }
}

func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(b *Board) { b.logger = logger }
}

// Open loads the stored list once. A corrupt document leaves the board empty
// (the unreadable copy is kept aside by the store). An unreachable store also
// leaves it empty, but every mutation first retries the load and is refused
// while that fails, so the stored list is never overwritten unseen.
func Open(ctx context.Context, store Store, opts ...Option) *Board {
	b := &Board{
		store:  store,
		ids:    &SequenceIDs{},
		now:    time.Now,
		logger: slog.Default(),
		tasks:  []Task{},
	}
	for _, opt := range opts {
		opt(b)
	}

	if err := b.load(ctx); err != nil {
		b.logger.Error("store_load_failed",
			slog.String("error", err.Error()),
			slog.Bool("corrupt", errors.Is(err, ErrStorageCorrupt)),
		)
	}
	b.logger.Info("board_loaded", slog.Int("tasks", len(b.tasks)), slog.Bool("loaded", b.loaded))
	return b
}

// load reads the stored list into the board. Called under b.mu or before the
// board is shared.
func (b *Board) load(ctx context.Context) error {
	list, err := b.store.Load(ctx)
	switch {
	case err == nil:
		b.lastErr = nil
	case errors.Is(err, ErrStorageCorrupt):
		b.lastErr = err
		list = []Task{}
	default:
		b.lastErr = err
		return err
	}
	b.tasks = list
	b.ids.Seed(list)
	b.loaded = true
	observeTasks(list)
	return err
}

// ensureLoaded retries a load that failed at Open. Mutations must not run
// until the stored list has been read.
func (b *Board) ensureLoaded(ctx context.Context) error {
	if b.loaded {
		return nil
	}
	if err := b.load(ctx); err != nil && !errors.Is(err, ErrStorageCorrupt) {
		return err
	}
	b.logger.Info("board_loaded", slog.Int("tasks", len(b.tasks)), slog.Bool("loaded", true))
	return nil
}

// Add appends a new pending task. Blank titles are rejected with ErrTitleRequired.
func (b *Board) Add(ctx context.Context, title string) (Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Task{}, ErrTitleRequired
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureLoaded(ctx); err != nil {
		return Task{}, err
	}

	current := b.tasks
	t := Task{
		ID:        b.ids.Next(func(id int64) bool { return containsID(current, id) }),
		Title:     title,
		Completed: false,
		CreatedAt: b.now().UTC(),
	}
	b.replace(ctx, withAppended(b.tasks, t))
	return t, nil
}

// Delete removes the task with id. An unknown id leaves the list as it was and
// returns ErrNotFound; the list is still written back.
func (b *Board) Delete(ctx context.Context, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureLoaded(ctx); err != nil {
		return err
	}

	next, found := withoutID(b.tasks, id)
	b.replace(ctx, next)
	if !found {
		return ErrNotFound
	}
	return nil
}

// Toggle flips the completion flag of the task with id and returns the updated task.
func (b *Board) Toggle(ctx context.Context, id int64) (Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureLoaded(ctx); err != nil {
		return Task{}, err
	}

	next, t, found := withToggled(b.tasks, id)
	b.replace(ctx, next)
	if !found {
		return Task{}, ErrNotFound
	}
	return t, nil
}

// MoveUp swaps the task at position index of the filtered view with the one
// shown above it. At the top of the view it does nothing.
func (b *Board) MoveUp(ctx context.Context, f Filter, index int) error {
	return b.move(ctx, f, index, -1)
}

// MoveDown swaps the task at position index of the filtered view with the one
// shown below it. At the bottom of the view it does nothing.
func (b *Board) MoveDown(ctx context.Context, f Filter, index int) error {
	return b.move(ctx, f, index, +1)
}

func (b *Board) move(ctx context.Context, f Filter, index, delta int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensureLoaded(ctx); err != nil {
		return err
	}

	next, moved, err := withMoved(b.tasks, f, index, delta)
	if err != nil {
		return err
	}
	if moved {
		b.replace(ctx, next)
	}
	return nil
}

// Tasks returns a copy of the filtered view.
func (b *Board) Tasks(f Filter) []Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return f.Apply(b.tasks)
}

// Groups returns the filtered view split into age groups.
func (b *Board) Groups(f Filter) []Group {
	b.mu.Lock()
	view := f.Apply(b.tasks)
	now := b.now()
	b.mu.Unlock()
	return GroupByAge(view, now)
}

// Health reports the last storage fault, or nil once a save has gone through.
func (b *Board) Health() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// replace installs next as the current list and writes it through. The save is
// detached from ctx cancellation: once a change is accepted it gets written even
// if the caller has gone away. A failed save keeps next in memory; the fault is
// remembered for Health.
func (b *Board) replace(ctx context.Context, next []Task) {
	b.tasks = next
	observeTasks(next)

	if err := b.store.Save(context.WithoutCancel(ctx), next); err != nil {
		b.lastErr = err
		b.logger.Error("store_save_failed",
			slog.String("error", err.Error()),
			slog.Int("tasks", len(next)),
		)
		return
	}
	b.lastErr = nil
}
