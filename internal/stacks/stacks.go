package stacks

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/sciddle/sciddle/internal/entity"
)

//go:embed assets/*.json
var assets embed.FS

// ErrUnknownStack indicates a stack id the registry has no asset file for.
var ErrUnknownStack = errors.New("unknown stack")

// Registry maps stack ids to bundled asset filenames. It is constructed once
// and injected read-only; there is no process-wide mutable table.
type Registry map[string]string

// DefaultRegistry lists the four bundled stacks.
func DefaultRegistry() Registry {
	return Registry{
		"0": "climate.json",
		"1": "astronomy.json",
		"2": "future.json",
		"3": "physics.json",
	}
}

// Service reconciles persisted stacks against the bundled canonical content.
type Service struct {
	registry Registry
	maxCards int
}

func NewService(registry Registry, maxCards int) *Service {
	return &Service{registry: registry, maxCards: maxCards}
}

// IDs returns all stack ids the registry knows about.
func (s *Service) IDs() []string {
	ids := make([]string, 0, len(s.registry))
	for id := range s.registry {
		ids = append(ids, id)
	}
	return ids
}

// Knows reports whether the registry has an asset file for the id.
func (s *Service) Knows(id string) bool {
	_, ok := s.registry[id]
	return ok
}

// UninitializedStackIDs returns registry ids with no persisted counterpart.
func (s *Service) UninitializedStackIDs(existing []*entity.Stack) []string {
	ids := make([]string, 0, len(s.registry))
	for id := range s.registry {
		found := false
		for _, stack := range existing {
			if stack != nil && stack.ID == id {
				found = true
				break
			}
		}
		if !found {
			ids = append(ids, id)
		}
	}
	return ids
}

// GetStackFromAssets loads a bundled stack by filename.
func (s *Service) GetStackFromAssets(fileName string) (*entity.Stack, error) {
	data, err := assets.ReadFile("assets/" + fileName)
	if err != nil {
		return nil, fmt.Errorf("read stack asset %s: %w", fileName, err)
	}
	var stack entity.Stack
	if err := json.Unmarshal(data, &stack); err != nil {
		return nil, fmt.Errorf("decode stack asset %s: %w", fileName, err)
	}
	return &stack, nil
}

// NewStack builds a fresh stack for the id entirely from assets.
func (s *Service) NewStack(id string) (*entity.Stack, error) {
	fileName, ok := s.registry[id]
	if !ok {
		return nil, ErrUnknownStack
	}
	asset, err := s.GetStackFromAssets(fileName)
	if err != nil {
		return nil, err
	}
	stack := &entity.Stack{ID: id, Title: asset.Title, Theme: asset.Theme}
	merged, _ := MergeCardsFromAssets(stack, asset.Cards, s.maxCards)
	stack.Cards = merged
	return stack, nil
}

// MergeStackFromAssets reconciles the bundled content for the stack's id into
// the persisted stack. Reports false when nothing changed, in which case the
// caller must not persist.
func (s *Service) MergeStackFromAssets(stack *entity.Stack) (bool, error) {
	fileName, ok := s.registry[stack.ID]
	if !ok {
		return false, ErrUnknownStack
	}
	asset, err := s.GetStackFromAssets(fileName)
	if err != nil {
		return false, err
	}
	changed := stack.Title != asset.Title || stack.Theme != asset.Theme
	stack.Title = asset.Title
	stack.Theme = asset.Theme

	merged, cardsChanged := MergeCardsFromAssets(stack, asset.Cards, s.maxCards)
	if cardsChanged {
		stack.Cards = merged
	}
	return changed || cardsChanged, nil
}

// MergeCardsFromAssets merges the authoritative asset card list into the
// stack's cards. Asset cards get position-based id and index, capped at
// maxCards. Cards already present by id keep their stateful fields and only
// have content overwritten; unknown cards are inserted as new and undrawn.
// The change report comes from a structural comparison of before and after
// snapshots.
func MergeCardsFromAssets(stack *entity.Stack, cardsFromAssets []entity.Card, maxCards int) ([]entity.Card, bool) {
	existing := make(map[string]int, len(stack.Cards))
	for i, card := range stack.Cards {
		existing[card.ID] = i
	}

	before, _ := json.Marshal(stack.Cards)

	merged := make([]entity.Card, len(stack.Cards))
	copy(merged, stack.Cards)

	if maxCards > 0 && len(cardsFromAssets) > maxCards {
		cardsFromAssets = cardsFromAssets[:maxCards]
	}
	for i, card := range cardsFromAssets {
		card.ID = strconv.Itoa(i)
		card.Index = i
		if at, ok := existing[card.ID]; ok {
			merged[at].Word = card.Word
			merged[at].Taboos = card.Taboos
			merged[at].Difficulty = card.Difficulty
			merged[at].AlternateExplanationText = card.AlternateExplanationText
			merged[at].AlternateWikipediaArticle = card.AlternateWikipediaArticle
			merged[at].Index = card.Index
		} else {
			card.PartOfStack = true
			merged = append(merged, card)
		}
	}

	after, _ := json.Marshal(merged)
	return merged, !bytes.Equal(before, after)
}
