package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults applied when neither flag nor config file provides a value.
const (
	DefaultPATEnvVar  = "ADO_PAT"
	DefaultInputFile  = "Intial_URL_to_be_converted.txt"
	DefaultManifest   = "requirements.txt"
	DefaultPython     = "python3"
	DefaultEntryPoint = "migaccelerator.py"
	DefaultStateDir   = ".migaccel"
)

// Settings holds persistent CLI defaults loaded from a config file.
type Settings struct {
	RepoURL        string        `yaml:"repo_url"`
	WorkDir        string        `yaml:"work_dir"`
	Python         string        `yaml:"python"`
	RuntimeVersion string        `yaml:"runtime_version"`
	Manifest       string        `yaml:"manifest"`
	EntryPoint     string        `yaml:"entry_point"` // script path or "builtin"
	InputFile      string        `yaml:"input_file"`
	PATEnvVar      string        `yaml:"pat_env_var"`
	MaxRuntime     time.Duration `yaml:"max_runtime"`
	PostRun        string        `yaml:"post_run"` // shell command run after the report is written; $MIGACCEL_RUN_DIR is set
}

// LoadSettings reads a YAML config file into Settings.
// If the file does not exist, it returns zero-value Settings and nil error.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Settings{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return &s, nil
}

// LoadDotenv loads a .env file into the process environment if one exists.
// Lets the PAT live in an uncommitted local file instead of the shell profile.
func LoadDotenv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
