package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sciddle/sciddle/internal/entity"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "sciddle.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleStack() *entity.Stack {
	return &entity.Stack{
		ID:    "0",
		Title: "Climate",
		Theme: "green",
		Cards: []entity.Card{
			{ID: "0", Index: 0, Word: "Drought", Taboos: []string{"dry", "rain"}, Difficulty: entity.DifficultyEasy, PartOfStack: true},
			{ID: "1", Index: 1, Word: "Albedo", Taboos: []string{"reflection"}, Difficulty: entity.DifficultyHard, PartOfStack: false},
		},
	}
}

func TestStackRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	stack := sampleStack()
	stack.Game = &entity.Game{
		ID:    "g1",
		State: entity.GameStateOngoing,
		Teams: []entity.Team{{Index: 0, Score: 3, Icon: "looks_one", Color: "#e57373"}},
		Turn:  &entity.Turn{ID: "t1", State: entity.TurnStateDisplayCard, ActiveTeamIndex: 0},
	}

	if err := st.UpdateStack(ctx, stack); err != nil {
		t.Fatalf("update: %v", err)
	}
	loaded, err := st.FindStackByID(ctx, "0")
	if err != nil {
		t.Fatalf("find: %v", err)
	}

	if loaded.Title != "Climate" || loaded.Theme != "green" {
		t.Fatalf("stack metadata lost: %+v", loaded)
	}
	if len(loaded.Cards) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(loaded.Cards))
	}
	if loaded.Cards[1].PartOfStack {
		t.Fatal("drawn flag must round-trip")
	}
	if loaded.Game == nil || loaded.Game.Turn == nil {
		t.Fatal("embedded game must round-trip")
	}
	if loaded.Game.Turn.State != entity.TurnStateDisplayCard {
		t.Fatalf("turn state lost: %s", loaded.Game.Turn.State)
	}
	if loaded.Game.Teams[0].Score != 3 {
		t.Fatalf("team score lost: %d", loaded.Game.Teams[0].Score)
	}
}

func TestFindStackByIDNotFound(t *testing.T) {
	st := openTestStore(t)
	if _, err := st.FindStackByID(context.Background(), "missing"); !errors.Is(err, ErrStackNotFound) {
		t.Fatalf("expected ErrStackNotFound, got %v", err)
	}
}

func TestUpdateStackUpserts(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	stack := sampleStack()
	if err := st.UpdateStack(ctx, stack); err != nil {
		t.Fatalf("insert: %v", err)
	}
	stack.Title = "Changed"
	if err := st.UpdateStack(ctx, stack); err != nil {
		t.Fatalf("update: %v", err)
	}

	all, err := st.FindAllStacks(ctx)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("upsert must not duplicate rows, got %d", len(all))
	}
	if all[0].Title != "Changed" {
		t.Fatalf("expected updated title, got %s", all[0].Title)
	}
}

func TestFindAllStacksOrdersByID(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"2", "0", "1"} {
		stack := sampleStack()
		stack.ID = id
		if err := st.UpdateStack(ctx, stack); err != nil {
			t.Fatalf("update %s: %v", id, err)
		}
	}
	all, err := st.FindAllStacks(ctx)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	for i, want := range []string{"0", "1", "2"} {
		if all[i].ID != want {
			t.Fatalf("expected stack %s at position %d, got %s", want, i, all[i].ID)
		}
	}
}

func TestClearStacks(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if err := st.UpdateStack(ctx, sampleStack()); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := st.ClearStacks(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	all, err := st.FindAllStacks(ctx)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected no stacks after clear, got %d", len(all))
	}
}

func TestSubscribeReceivesChangeEvents(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	events, cancel := st.Subscribe()
	defer cancel()

	if err := st.UpdateStack(ctx, sampleStack()); err != nil {
		t.Fatalf("update: %v", err)
	}

	select {
	case ev := <-events:
		if ev.StackID != "0" || ev.Err != nil {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a change event")
	}
}

func TestSubscribeCancelStopsDelivery(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	events, cancel := st.Subscribe()
	cancel()

	if err := st.UpdateStack(ctx, sampleStack()); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, ok := <-events; ok {
		t.Fatal("expected the channel to be closed after cancel")
	}
}
