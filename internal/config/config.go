// Package config reads process settings from the environment. Only the
// entry points under cmd/ call it; packages receive plain values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// AWS
	StateTable  string `envconfig:"STATE_TABLE"`
	ParamPrefix string `envconfig:"PARAM_PREFIX" validate:"omitempty,startswith=/"`

	// Inference endpoint
	HuggingFaceToken   string        `envconfig:"HUGGINGFACE_API_KEY"`
	HuggingFaceBaseURL string        `envconfig:"HUGGINGFACE_BASE_URL" default:"https://api-inference.huggingface.co" validate:"required,url"`
	Model              string        `envconfig:"HUGGINGFACE_MODEL" default:"mistralai/Mistral-7B-Instruct-v0.2" validate:"required"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s" validate:"gt=0"`
	RetryAttempts      uint          `envconfig:"RETRY_ATTEMPTS" default:"3" validate:"gte=1,lte=10"`
	RetryInitialDelay  time.Duration `envconfig:"RETRY_INITIAL_DELAY" default:"1s" validate:"gt=0"`

	// Answering
	FAQFile        string `envconfig:"FAQ_FILE"`
	MaxQuestionLen int    `envconfig:"MAX_QUESTION_LENGTH" default:"500" validate:"gte=1"`
	HistoryTurns   int    `envconfig:"HISTORY_TURNS" default:"5" validate:"gte=1"`
	CacheSize      int    `envconfig:"RESPONSE_CACHE_SIZE" default:"256" validate:"gte=0"`
	SupportContact string `envconfig:"SUPPORT_CONTACT" default:"support@adigy.com" validate:"required,email"`

	// Support notifications
	MailFrom          string   `envconfig:"SUPPORT_MAIL_FROM" validate:"omitempty,email"`
	MailTo            []string `envconfig:"SUPPORT_MAIL_TO" validate:"dive,email"`
	MailSubjectPrefix string   `envconfig:"SUPPORT_MAIL_SUBJECT_PREFIX" default:"[AdigyAssist]"`

	Debug bool `envconfig:"DEBUG"`
}

// MailEnabled reports whether support notifications can be sent.
func (c Config) MailEnabled() bool {
	return c.MailFrom != "" && len(c.MailTo) > 0
}

// Load reads and validates the environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: read environment: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: invalid: %w", err)
	}
	return cfg, nil
}

// ValidateLambda checks the settings the Lambda deployment cannot run
// without.
func (c Config) ValidateLambda() error {
	v := validator.New()
	if err := v.Var(c.StateTable, "required"); err != nil {
		return fmt.Errorf("config: STATE_TABLE: %w", err)
	}
	if err := v.Var(c.ParamPrefix, "required"); err != nil {
		return fmt.Errorf("config: PARAM_PREFIX: %w", err)
	}
	return nil
}

// LoadDotEnv loads variables from the given files (".env" by default)
// without overriding the environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", p, err)
		}
	}
	return nil
}
