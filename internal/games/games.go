package games

import (
	"errors"

	"github.com/google/uuid"
	"github.com/sciddle/sciddle/internal/entity"
)

var (
	ErrNoGame        = errors.New("no game on stack")
	ErrInvalidState  = errors.New("invalid state for action")
	ErrTeamNotFound  = errors.New("team not found")
	ErrNoCardForTier = errors.New("no card left for difficulty")
)

// Weights maps difficulty tiers to points. Values come from configuration,
// never from the state machine itself.
type Weights struct {
	Easy   int
	Medium int
	Hard   int
}

// DefaultWeights follows the classic 1/2/3 table.
func DefaultWeights() Weights {
	return Weights{Easy: 1, Medium: 2, Hard: 3}
}

func (w Weights) Points(difficulty entity.Difficulty) int {
	switch difficulty {
	case entity.DifficultyEasy:
		return w.Easy
	case entity.DifficultyMedium:
		return w.Medium
	case entity.DifficultyHard:
		return w.Hard
	}
	return 0
}

// teamPalette assigns icons and colors by team position.
var teamPalette = []entity.Team{
	{Icon: "looks_one", Color: "#e57373"},
	{Icon: "looks_two", Color: "#64b5f6"},
	{Icon: "looks_3", Color: "#81c784"},
	{Icon: "looks_4", Color: "#ffd54f"},
	{Icon: "looks_5", Color: "#ba68c8"},
	{Icon: "looks_6", Color: "#4db6ac"},
}

// NewGame builds an uninitialized game for the given configuration.
func NewGame(cfg entity.GameConfig) *entity.Game {
	return &entity.Game{
		ID:     uuid.NewString(),
		State:  entity.GameStateUninitialized,
		Config: cfg,
	}
}

// ExistsGame reports whether the stack carries an active game.
func ExistsGame(stack *entity.Stack) bool {
	return stack != nil && stack.Game != nil
}

// Mode derives the game mode from the team configuration: exactly one team
// means single-player.
func Mode(game *entity.Game) entity.GameMode {
	if game.Config.TeamCount <= 1 {
		return entity.GameModeSinglePlayer
	}
	return entity.GameModeMultiPlayer
}

func ModeByStack(stack *entity.Stack) (entity.GameMode, error) {
	if !ExistsGame(stack) {
		return "", ErrNoGame
	}
	return Mode(stack.Game), nil
}

// StartGame transitions Uninitialized to Ongoing, initializes the teams from
// configuration and arms a fresh turn. Calling it on a game that is already
// ongoing or finished returns the game unchanged; callers guard re-entry.
func StartGame(game *entity.Game) *entity.Game {
	if game.State != entity.GameStateUninitialized {
		return game
	}
	teamCount := game.Config.TeamCount
	if teamCount < 1 {
		teamCount = 1
	}
	game.Teams = make([]entity.Team, 0, teamCount)
	for i := 0; i < teamCount; i++ {
		team := entity.NewTeam()
		team.Index = i
		if i < len(teamPalette) {
			team.Icon = teamPalette[i].Icon
			team.Color = teamPalette[i].Color
		}
		game.Teams = append(game.Teams, team)
	}
	game.State = entity.GameStateOngoing
	game.Turn = &entity.Turn{
		ID:              uuid.NewString(),
		State:           entity.TurnStateNew,
		ActiveTeamIndex: -1,
	}
	return game
}

// StartTurn advances a new turn to DisplayTeamTakingTurn and picks the next
// active team round-robin. Returns nil when the turn is not in New, which
// signals a no-op the caller must not persist.
func StartTurn(game *entity.Game) *entity.Game {
	if game.Turn == nil || game.Turn.State != entity.TurnStateNew {
		return nil
	}
	game.Turn.ActiveTeamIndex = (game.Turn.ActiveTeamIndex + 1) % len(game.Teams)
	game.Turn.State = entity.TurnStateDisplayTeamTakingTurn
	return game
}

// ShowDifficultySelection moves the turn to the difficulty pick.
func ShowDifficultySelection(game *entity.Game) *entity.Game {
	if game.Turn != nil {
		game.Turn.State = entity.TurnStateSelectDifficulty
	}
	return game
}

// ShowCard moves the turn to card display.
func ShowCard(game *entity.Game) *entity.Game {
	if game.Turn != nil {
		game.Turn.State = entity.TurnStateDisplayCard
	}
	return game
}

// ShowTurnEvaluation moves the turn to the outcome display.
func ShowTurnEvaluation(game *entity.Game) *entity.Game {
	if game.Turn != nil {
		game.Turn.State = entity.TurnStateDisplayOutcomes
	}
	return game
}

// EvaluateTurn awards points for a guessed card to the team at teamIndex
// according to the weight table, records the outcome and leaves the turn at
// DisplayOutcomes for the caller to advance. A teamIndex outside the team
// slice is a contract violation and yields ErrTeamNotFound.
func EvaluateTurn(game *entity.Game, teamIndex int, cardID string, difficulty entity.Difficulty, guessed bool, weights Weights) (*entity.Game, error) {
	if game.Turn == nil {
		return nil, ErrInvalidState
	}
	if teamIndex < 0 || teamIndex >= len(game.Teams) {
		return nil, ErrTeamNotFound
	}
	points := 0
	if guessed {
		points = weights.Points(difficulty)
		game.Teams[teamIndex].Score += points
		game.CardsPlayed++
	}
	game.Turn.Outcomes = append(game.Turn.Outcomes, entity.TurnOutcome{
		CardID:     cardID,
		TeamIndex:  teamIndex,
		Difficulty: difficulty,
		Guessed:    guessed,
		Points:     points,
	})
	game.Turn.State = entity.TurnStateDisplayOutcomes
	return game, nil
}

// CloseTurn ends the current turn. When no cards remain or the configured
// card budget is exhausted the game finishes and the turn detaches; otherwise
// the turn resets to New for the next team.
func CloseTurn(remainingCards int, game *entity.Game) *entity.Game {
	if game.Turn == nil {
		return game
	}
	budgetSpent := game.Config.CardCount > 0 && game.CardsPlayed >= game.Config.CardCount
	if remainingCards == 0 || budgetSpent {
		game.State = entity.GameStateFinished
		game.Turn = nil
		return game
	}
	game.Turn.State = entity.TurnStateNew
	game.Turn.Outcomes = nil
	return game
}

// DetermineWinningTeams returns every team tied for the maximum score.
func DetermineWinningTeams(game *entity.Game) []entity.Team {
	if len(game.Teams) == 0 {
		return nil
	}
	max := game.Teams[0].Score
	for _, team := range game.Teams[1:] {
		if team.Score > max {
			max = team.Score
		}
	}
	winners := make([]entity.Team, 0, len(game.Teams))
	for _, team := range game.Teams {
		if team.Score == max {
			winners = append(winners, team)
		}
	}
	return winners
}
