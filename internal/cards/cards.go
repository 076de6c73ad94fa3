package cards

import (
	"math/rand"
	"sort"

	"github.com/sciddle/sciddle/internal/entity"
)

// IsCardPartOfStack reports whether the card has not been played away yet.
func IsCardPartOfStack(card entity.Card) bool {
	return card.PartOfStack
}

func IsEasy(card entity.Card) bool   { return card.Difficulty == entity.DifficultyEasy }
func IsMedium(card entity.Card) bool { return card.Difficulty == entity.DifficultyMedium }
func IsHard(card entity.Card) bool   { return card.Difficulty == entity.DifficultyHard }

// SortCards is a comparator ordering cards by index ascending.
func SortCards(a, b entity.Card) int {
	switch {
	case a.Index < b.Index:
		return -1
	case a.Index > b.Index:
		return 1
	default:
		return 0
	}
}

// ShuffleStack permutes the stack's cards uniformly at random and returns the
// mutated stack. No card is lost or duplicated.
func ShuffleStack(stack *entity.Stack) *entity.Stack {
	rand.Shuffle(len(stack.Cards), func(i, j int) {
		stack.Cards[i], stack.Cards[j] = stack.Cards[j], stack.Cards[i]
	})
	return stack
}

// SortStack restores the original index order.
func SortStack(stack *entity.Stack) *entity.Stack {
	sort.SliceStable(stack.Cards, func(i, j int) bool {
		return SortCards(stack.Cards[i], stack.Cards[j]) < 0
	})
	return stack
}

// MoveCardWithDifficultyToTop moves the first undrawn card of the given
// difficulty to position 0, keeping the relative order of all other cards.
// Returns nil when no eligible card remains; the stack is left untouched in
// that case.
func MoveCardWithDifficultyToTop(stack *entity.Stack, difficulty entity.Difficulty) *entity.Stack {
	for i, card := range stack.Cards {
		if !IsCardPartOfStack(card) || card.Difficulty != difficulty {
			continue
		}
		stack.Cards = append(stack.Cards[:i], stack.Cards[i+1:]...)
		stack.Cards = append([]entity.Card{card}, stack.Cards...)
		return stack
	}
	return nil
}

// PutCardToEnd relocates the card to the end of the sequence. This is the
// single-player skip: the card comes around again later.
func PutCardToEnd(stack *entity.Stack, card entity.Card) *entity.Stack {
	for i, c := range stack.Cards {
		if c.ID == card.ID {
			moved := stack.Cards[i]
			stack.Cards = append(stack.Cards[:i], stack.Cards[i+1:]...)
			stack.Cards = append(stack.Cards, moved)
			break
		}
	}
	return stack
}

// PutCardAway marks the card as drawn without removing it from the
// collection, so totals and history stay available.
func PutCardAway(stack *entity.Stack, card entity.Card) *entity.Stack {
	for i := range stack.Cards {
		if stack.Cards[i].ID == card.ID {
			stack.Cards[i].PartOfStack = false
			break
		}
	}
	return stack
}

// PutCardsBackIntoStack marks every card as undrawn again, used when a fresh
// game starts on a stack that has been played before.
func PutCardsBackIntoStack(stack *entity.Stack) *entity.Stack {
	for i := range stack.Cards {
		stack.Cards[i].PartOfStack = true
	}
	return stack
}

// UpdateCard replaces the stored card with the same ID field by field,
// preserving ID and index.
func UpdateCard(stack *entity.Stack, card entity.Card) *entity.Stack {
	for i := range stack.Cards {
		if stack.Cards[i].ID == card.ID {
			card.Index = stack.Cards[i].Index
			stack.Cards[i] = card
			break
		}
	}
	return stack
}

// RemainingCards returns the cards still undrawn, front of the stack first.
func RemainingCards(stack *entity.Stack) []entity.Card {
	remaining := make([]entity.Card, 0, len(stack.Cards))
	for _, card := range stack.Cards {
		if IsCardPartOfStack(card) {
			remaining = append(remaining, card)
		}
	}
	return remaining
}

// TopCard returns the next undrawn card, or nil when the stack is exhausted.
func TopCard(stack *entity.Stack) *entity.Card {
	for i := range stack.Cards {
		if IsCardPartOfStack(stack.Cards[i]) {
			return &stack.Cards[i]
		}
	}
	return nil
}

// AvailableDifficulties returns the difficulty tiers still present among the
// undrawn cards, ascending.
func AvailableDifficulties(stack *entity.Stack) []entity.Difficulty {
	present := map[entity.Difficulty]bool{}
	for _, card := range stack.Cards {
		if IsCardPartOfStack(card) {
			present[card.Difficulty] = true
		}
	}
	difficulties := make([]entity.Difficulty, 0, 3)
	for _, d := range []entity.Difficulty{entity.DifficultyEasy, entity.DifficultyMedium, entity.DifficultyHard} {
		if present[d] {
			difficulties = append(difficulties, d)
		}
	}
	return difficulties
}

// SoleDifficulty returns the only remaining tier when exactly one is left,
// letting callers skip the difficulty selection step.
func SoleDifficulty(stack *entity.Stack) (entity.Difficulty, bool) {
	difficulties := AvailableDifficulties(stack)
	if len(difficulties) == 1 {
		return difficulties[0], true
	}
	return 0, false
}
