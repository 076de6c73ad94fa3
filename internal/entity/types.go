package entity

// Difficulty classifies how hard a card is to explain. It drives both card
// selection and scoring weight.
type Difficulty int

const (
	DifficultyEasy   Difficulty = 1
	DifficultyMedium Difficulty = 2
	DifficultyHard   Difficulty = 3
)

type GameState string

const (
	GameStateUninitialized GameState = "Uninitialized"
	GameStateOngoing       GameState = "Ongoing"
	GameStateFinished      GameState = "Finished"
)

type TurnState string

const (
	TurnStateNew                   TurnState = "New"
	TurnStateDisplayTeamTakingTurn TurnState = "DisplayTeamTakingTurn"
	TurnStateSelectDifficulty      TurnState = "SelectDifficulty"
	TurnStateDisplayCard           TurnState = "DisplayCard"
	TurnStateDisplayOutcomes       TurnState = "DisplayOutcomes"
)

type GameMode string

const (
	GameModeSinglePlayer GameMode = "SinglePlayer"
	GameModeMultiPlayer  GameMode = "MultiPlayer"
)

// Card is one entry of a stack. ID and Index are assigned by position within
// the owning stack and stay stable across merges; PartOfStack tracks whether
// the card is still undrawn in the current pass.
type Card struct {
	ID                        string     `json:"id"`
	Index                     int        `json:"index"`
	Word                      string     `json:"word"`
	Taboos                    []string   `json:"taboos"`
	Difficulty                Difficulty `json:"difficulty"`
	AlternateExplanationText  string     `json:"alternateExplanationText,omitempty"`
	AlternateWikipediaArticle string     `json:"alternateWikipediaArticle,omitempty"`
	PartOfStack               bool       `json:"partOfStack"`
}

// Stack is a themed deck of cards plus at most one active game. Card order is
// meaningful: the front of the slice is the next card to draw.
type Stack struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Theme string `json:"theme"`
	Cards []Card `json:"cards"`
	Game  *Game  `json:"game,omitempty"`
}

type Team struct {
	Index int    `json:"index"`
	Score int    `json:"score"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// NewTeam returns an unassigned team. Index stays -1 until the game hands the
// team its position.
func NewTeam() Team {
	return Team{Index: -1}
}

// GameConfig is the read-only configuration a game is started with.
type GameConfig struct {
	TeamCount    int          `json:"teamCount"`
	CardCount    int          `json:"cardCount"` // 0 means play the whole stack
	TurnTime     int          `json:"turnTime"`  // seconds, 0 means untimed
	UseAlarm     bool         `json:"useAlarm"`
	Difficulties []Difficulty `json:"difficulties"`
}

// Game is owned by exactly one stack at a time. Turn is present only while
// the game is ongoing.
type Game struct {
	ID          string     `json:"id"`
	State       GameState  `json:"state"`
	Config      GameConfig `json:"config"`
	Teams       []Team     `json:"teams"`
	Turn        *Turn      `json:"turn,omitempty"`
	CardsPlayed int        `json:"cardsPlayed"`
}

// TurnOutcome records one card resolution within a turn.
type TurnOutcome struct {
	CardID     string     `json:"cardId"`
	TeamIndex  int        `json:"teamIndex"`
	Difficulty Difficulty `json:"difficulty"`
	Guessed    bool       `json:"guessed"`
	Points     int        `json:"points"`
}

type Turn struct {
	ID              string        `json:"id"`
	State           TurnState     `json:"state"`
	ActiveTeamIndex int           `json:"activeTeamIndex"`
	Outcomes        []TurnOutcome `json:"outcomes,omitempty"`
}
