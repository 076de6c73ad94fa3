package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is read from the environment at process start and read-only after.
type Config struct {
	Port   string `env:"PORT" envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"./sciddle.db"`

	DefaultStack string `env:"DEFAULT_STACK" envDefault:"0"`
	MinCards     int    `env:"MIN_CARDS" envDefault:"20"`
	MaxCardCount int    `env:"MAX_CARD_COUNT" envDefault:"52"`

	// Turn duration in seconds.
	Timer int `env:"TIMER" envDefault:"30"`

	// Score weights per difficulty tier.
	ScoreEasy   int `env:"SCORE_EASY" envDefault:"1"`
	ScoreMedium int `env:"SCORE_MEDIUM" envDefault:"2"`
	ScoreHard   int `env:"SCORE_HARD" envDefault:"3"`

	// Remote lookup settings, milliseconds.
	APITimeout int `env:"API_TIMEOUT" envDefault:"5000"`
	APIDelay   int `env:"API_DELAY" envDefault:"0"`

	WikipediaBaseURL string `env:"WIKIPEDIA_BASE_URL" envDefault:"https://en.wikipedia.org/w/api.php"`
}

// FromEnv parses the configuration from environment variables.
func FromEnv() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return c, nil
}
