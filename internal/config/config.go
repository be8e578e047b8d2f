package config

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"election-simulator/internal/election"

	"github.com/caarlos0/env/v11"
)

// ErrNoVariant is returned when no valid election variant was given
var ErrNoVariant = errors.New("Specify General or Primary")

// Config for one run of the simulator. Environment variables are read first, then command-line flags override them,
// then a positional argument may name the variant.
type Config struct {
	Variant   string `env:"ELECTION_VARIANT"`
	InputPath string `env:"ELECTION_INPUT" envDefault:"election.dat"`
	LogLevel  string `env:"ELECTION_LOG_LEVEL" envDefault:"warn"`
	LogFormat string `env:"ELECTION_LOG_FORMAT" envDefault:"text"`
	NoColor   bool   `env:"ELECTION_NO_COLOR"`
	// QueueSize bounds the intake queue shared by the voting machines
	QueueSize int  `env:"ELECTION_QUEUE_SIZE" envDefault:"64"`
	Metrics   bool `env:"ELECTION_METRICS"`
}

// ParseEnv loads configuration from environment variables
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load builds the configuration from the environment and args (without the program name). Usage and flag errors are
// written to output.
func Load(args []string, output io.Writer) (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs := flag.NewFlagSet("election", flag.ContinueOnError)
	fs.SetOutput(output)

	// Flag defaults are the environment values, so a flag only wins when it is given
	fs.StringVar(&cfg.Variant, "variant", cfg.Variant, "Election variant (General or Primary)")
	fs.StringVar(&cfg.InputPath, "input", cfg.InputPath, "File of commands, one per line")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Diagnostic log level")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Diagnostic log format (text or json)")
	fs.BoolVar(&cfg.NoColor, "no-color", cfg.NoColor, "Disable colored output")
	fs.IntVar(&cfg.QueueSize, "queue-size", cfg.QueueSize, "Intake queue size")
	fs.BoolVar(&cfg.Metrics, "metrics", cfg.Metrics, "Print a run report at exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if fs.NArg() > 0 {
		cfg.Variant = fs.Arg(0)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := c.ElectionVariant(); err != nil {
		return err
	}
	if c.QueueSize < 0 {
		return fmt.Errorf("invalid queue size %d: must not be negative", c.QueueSize)
	}
	return nil
}

// ElectionVariant parses the configured variant
func (c Config) ElectionVariant() (election.Variant, error) {
	v, err := election.ParseVariant(c.Variant)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrNoVariant, err)
	}
	return v, nil
}
