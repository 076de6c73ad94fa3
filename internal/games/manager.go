package games

import (
	"context"
	"sync"

	"github.com/sciddle/sciddle/internal/cards"
	"github.com/sciddle/sciddle/internal/entity"
)

// Store is the persistence collaborator the manager mutates through.
type Store interface {
	FindStackByID(ctx context.Context, id string) (*entity.Stack, error)
	UpdateStack(ctx context.Context, stack *entity.Stack) error
}

// Manager serializes all game mutations per stack. Every read-modify-write
// runs under the stack's own mutex, so a superseded in-flight mutation cannot
// clobber a later one.
type Manager struct {
	store   Store
	weights Weights

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewManager(store Store, weights Weights) *Manager {
	return &Manager{
		store:   store,
		weights: weights,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (m *Manager) lockFor(stackID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock := m.locks[stackID]
	if lock == nil {
		lock = &sync.Mutex{}
		m.locks[stackID] = lock
	}
	return lock
}

// mutate loads the stack, applies fn under the stack lock and persists when
// fn reports a change. fn returning false skips the write entirely.
func (m *Manager) mutate(ctx context.Context, stackID string, fn func(*entity.Stack) (bool, error)) (*entity.Stack, error) {
	lock := m.lockFor(stackID)
	lock.Lock()
	defer lock.Unlock()

	stack, err := m.store.FindStackByID(ctx, stackID)
	if err != nil {
		return nil, err
	}
	changed, err := fn(stack)
	if err != nil {
		return nil, err
	}
	if !changed {
		return stack, nil
	}
	if err := m.store.UpdateStack(ctx, stack); err != nil {
		return nil, err
	}
	return stack, nil
}

// StartGame creates and starts a game on the stack. The deck is restored and
// reshuffled first. A stack that already carries a game is left untouched.
func (m *Manager) StartGame(ctx context.Context, stackID string, cfg entity.GameConfig) (*entity.Stack, error) {
	return m.mutate(ctx, stackID, func(stack *entity.Stack) (bool, error) {
		if ExistsGame(stack) {
			return false, nil
		}
		cards.PutCardsBackIntoStack(stack)
		cards.ShuffleStack(stack)
		stack.Game = StartGame(NewGame(cfg))
		return true, nil
	})
}

// AbandonGame detaches the game from the stack. The stack and its cards stay.
func (m *Manager) AbandonGame(ctx context.Context, stackID string) (*entity.Stack, error) {
	return m.mutate(ctx, stackID, func(stack *entity.Stack) (bool, error) {
		if !ExistsGame(stack) {
			return false, nil
		}
		stack.Game = nil
		cards.SortStack(stack)
		return true, nil
	})
}

// StartTurn begins the next team's turn. Calling it while the turn is not in
// New is a no-op: nothing changes and nothing is persisted.
func (m *Manager) StartTurn(ctx context.Context, stackID string) (*entity.Stack, error) {
	return m.mutate(ctx, stackID, func(stack *entity.Stack) (bool, error) {
		if !ExistsGame(stack) {
			return false, ErrNoGame
		}
		return StartTurn(stack.Game) != nil, nil
	})
}

// AcknowledgeTeam moves past the team announcement. When only one difficulty
// tier is left in the deck the selection step is skipped and the matching
// card comes up directly.
func (m *Manager) AcknowledgeTeam(ctx context.Context, stackID string) (*entity.Stack, error) {
	return m.mutate(ctx, stackID, func(stack *entity.Stack) (bool, error) {
		if !ExistsGame(stack) {
			return false, ErrNoGame
		}
		if stack.Game.Turn == nil || stack.Game.Turn.State != entity.TurnStateDisplayTeamTakingTurn {
			return false, ErrInvalidState
		}
		if sole, ok := cards.SoleDifficulty(stack); ok {
			if cards.MoveCardWithDifficultyToTop(stack, sole) == nil {
				return false, ErrNoCardForTier
			}
			ShowCard(stack.Game)
			return true, nil
		}
		ShowDifficultySelection(stack.Game)
		return true, nil
	})
}

// SelectDifficulty picks the tier for this turn and moves the first matching
// undrawn card to the top of the deck. Only valid while the turn is at the
// difficulty pick.
func (m *Manager) SelectDifficulty(ctx context.Context, stackID string, difficulty entity.Difficulty) (*entity.Stack, error) {
	return m.mutate(ctx, stackID, func(stack *entity.Stack) (bool, error) {
		if !ExistsGame(stack) {
			return false, ErrNoGame
		}
		if stack.Game.Turn == nil || stack.Game.Turn.State != entity.TurnStateSelectDifficulty {
			return false, ErrInvalidState
		}
		if cards.MoveCardWithDifficultyToTop(stack, difficulty) == nil {
			return false, ErrNoCardForTier
		}
		ShowCard(stack.Game)
		return true, nil
	})
}

// CardGuessed resolves the displayed card as guessed: the card is put away
// and the active team scores by difficulty. Only valid while a card is
// displayed, so a duplicate request cannot score twice.
func (m *Manager) CardGuessed(ctx context.Context, stackID string) (*entity.Stack, error) {
	return m.mutate(ctx, stackID, func(stack *entity.Stack) (bool, error) {
		if !ExistsGame(stack) {
			return false, ErrNoGame
		}
		if stack.Game.Turn == nil || stack.Game.Turn.State != entity.TurnStateDisplayCard {
			return false, ErrInvalidState
		}
		card := cards.TopCard(stack)
		if card == nil {
			return false, ErrInvalidState
		}
		resolved := *card
		cards.PutCardAway(stack, resolved)
		_, err := EvaluateTurn(stack.Game, stack.Game.Turn.ActiveTeamIndex, resolved.ID, resolved.Difficulty, true, m.weights)
		if err != nil {
			return false, err
		}
		return true, nil
	})
}

// CardSkipped resolves the displayed card as skipped: no points, and the card
// moves to the end of the deck to come around again.
func (m *Manager) CardSkipped(ctx context.Context, stackID string) (*entity.Stack, error) {
	return m.mutate(ctx, stackID, func(stack *entity.Stack) (bool, error) {
		if !ExistsGame(stack) {
			return false, ErrNoGame
		}
		if stack.Game.Turn == nil || stack.Game.Turn.State != entity.TurnStateDisplayCard {
			return false, ErrInvalidState
		}
		card := cards.TopCard(stack)
		if card == nil {
			return false, ErrInvalidState
		}
		skipped := *card
		cards.PutCardToEnd(stack, skipped)
		_, err := EvaluateTurn(stack.Game, stack.Game.Turn.ActiveTeamIndex, skipped.ID, skipped.Difficulty, false, m.weights)
		if err != nil {
			return false, err
		}
		return true, nil
	})
}

// CloseTurn ends the turn. With no undrawn cards left, or the card budget
// spent, the game finishes; otherwise the next team is up. Closing a game
// whose turn is already detached is a no-op: nothing is persisted.
func (m *Manager) CloseTurn(ctx context.Context, stackID string) (*entity.Stack, error) {
	return m.mutate(ctx, stackID, func(stack *entity.Stack) (bool, error) {
		if !ExistsGame(stack) {
			return false, ErrNoGame
		}
		if stack.Game.Turn == nil {
			return false, nil
		}
		CloseTurn(len(cards.RemainingCards(stack)), stack.Game)
		return true, nil
	})
}

// Winners returns all teams tied for the maximum score.
func (m *Manager) Winners(ctx context.Context, stackID string) ([]entity.Team, error) {
	stack, err := m.store.FindStackByID(ctx, stackID)
	if err != nil {
		return nil, err
	}
	if !ExistsGame(stack) {
		return nil, ErrNoGame
	}
	return DetermineWinningTeams(stack.Game), nil
}
