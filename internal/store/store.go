package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/sciddle/sciddle/internal/entity"
)

// ErrStackNotFound indicates that no stack with the given id is persisted.
var ErrStackNotFound = errors.New("stack not found")

// Event is published to subscribers after every successful write, or with Err
// set when the database reports a failure.
type Event struct {
	StackID string
	Err     error
}

// Store persists stacks as JSON documents in sqlite and notifies subscribers
// of stack changes.
type Store struct {
	db *sql.DB

	subMu  sync.Mutex
	subs   map[int]chan Event
	nextID int
}

// Open opens or creates the database at path and bootstraps the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// WAL and a busy timeout keep concurrent readers happy.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	schema := `CREATE TABLE IF NOT EXISTS stacks (
		id TEXT PRIMARY KEY,
		document TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, subs: make(map[int]chan Event)}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Subscribe returns a channel of stack-change events and a cancel func.
// Slow consumers lose events rather than blocking writers.
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	ch := make(chan Event, 16)
	s.subs[id] = ch
	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (s *Store) publish(ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// FindStackByID loads one stack. Returns ErrStackNotFound when absent.
func (s *Store) FindStackByID(ctx context.Context, id string) (*entity.Stack, error) {
	var document string
	err := s.db.QueryRowContext(ctx, "SELECT document FROM stacks WHERE id = ?", id).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStackNotFound
	}
	if err != nil {
		s.publish(Event{StackID: id, Err: err})
		return nil, fmt.Errorf("find stack %s: %w", id, err)
	}
	var stack entity.Stack
	if err := json.Unmarshal([]byte(document), &stack); err != nil {
		return nil, fmt.Errorf("decode stack %s: %w", id, err)
	}
	return &stack, nil
}

// FindAllStacks loads every persisted stack ordered by id.
func (s *Store) FindAllStacks(ctx context.Context) ([]*entity.Stack, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT document FROM stacks ORDER BY id")
	if err != nil {
		s.publish(Event{Err: err})
		return nil, fmt.Errorf("find stacks: %w", err)
	}
	defer rows.Close()
	var stacks []*entity.Stack
	for rows.Next() {
		var document string
		if err := rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("scan stack: %w", err)
		}
		var stack entity.Stack
		if err := json.Unmarshal([]byte(document), &stack); err != nil {
			return nil, fmt.Errorf("decode stack: %w", err)
		}
		stacks = append(stacks, &stack)
	}
	return stacks, rows.Err()
}

// UpdateStack upserts the stack document and notifies subscribers.
func (s *Store) UpdateStack(ctx context.Context, stack *entity.Stack) error {
	document, err := json.Marshal(stack)
	if err != nil {
		return fmt.Errorf("encode stack %s: %w", stack.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO stacks (id, document, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(id) DO UPDATE SET document = excluded.document, updated_at = CURRENT_TIMESTAMP`,
		stack.ID, string(document))
	if err != nil {
		s.publish(Event{StackID: stack.ID, Err: err})
		return fmt.Errorf("update stack %s: %w", stack.ID, err)
	}
	s.publish(Event{StackID: stack.ID})
	return nil
}

// DeleteStack removes one stack.
func (s *Store) DeleteStack(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM stacks WHERE id = ?", id)
	if err != nil {
		s.publish(Event{StackID: id, Err: err})
		return fmt.Errorf("delete stack %s: %w", id, err)
	}
	s.publish(Event{StackID: id})
	return nil
}

// ClearStacks removes all stacks.
func (s *Store) ClearStacks(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM stacks")
	if err != nil {
		s.publish(Event{Err: err})
		return fmt.Errorf("clear stacks: %w", err)
	}
	s.publish(Event{})
	return nil
}
