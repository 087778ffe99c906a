package config

import (
	"errors"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/etl76/etl/internal/logging"
)

// Environment variables that override the config file.
const (
	EnvDataset  = "ETL_DATASET"
	EnvLogLevel = "ETL_LOG_LEVEL"
)

// Settings is the resolved configuration used by the commands.
type Settings struct {
	DatasetPath     string
	LogLevel        string
	LogFormat       string
	Concept2Gear    string
	Concept2Profile string
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		DatasetPath: DefaultDatasetPath(),
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// Apply overlays values present in the file.
func (s *Settings) Apply(cfg FileConfig) {
	setString(&s.DatasetPath, cfg.Dataset.Path)
	setString(&s.LogLevel, cfg.Log.Level)
	setString(&s.LogFormat, cfg.Log.Format)
	setString(&s.Concept2Gear, cfg.Import.Concept2Gear)
	setString(&s.Concept2Profile, cfg.Import.Concept2Profile)
}

// ApplyEnv overlays values set in the environment.
func (s *Settings) ApplyEnv() {
	if v := os.Getenv(EnvDataset); v != "" {
		s.DatasetPath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		s.LogLevel = v
	}
}

// Validate checks the resolved settings and expands ~ in the dataset path.
// Level and format names are accepted in any case, as logging.Setup does.
func (s *Settings) Validate() error {
	s.DatasetPath = ExpandHome(s.DatasetPath)
	s.LogFormat = strings.ToLower(s.LogFormat)
	return validation.ValidateStruct(s,
		validation.Field(&s.DatasetPath, validation.Required),
		validation.Field(&s.LogLevel, validation.Required, validation.By(knownLevel)),
		validation.Field(&s.LogFormat, validation.Required, validation.In("text", "json")),
	)
}

func knownLevel(value interface{}) error {
	if _, err := logging.ParseLevel(value.(string)); err != nil {
		return errors.New("must be one of debug, info, warn, warning, error")
	}
	return nil
}

func setString(target *string, value *string) {
	if value != nil {
		*target = *value
	}
}
