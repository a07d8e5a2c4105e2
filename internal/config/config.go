// Package config loads scenekit settings from YAML or CUE files layered over
// built-in defaults.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/scenekit/internal/engine"
	"github.com/roach88/scenekit/internal/llm"
	"github.com/roach88/scenekit/internal/retry"
	"github.com/roach88/scenekit/internal/synth"
)

// Config is the complete settings tree.
type Config struct {
	Canvas      CanvasConfig      `yaml:"canvas" json:"canvas"`
	Connector   ConnectorConfig   `yaml:"connector" json:"connector"`
	Interpreter InterpreterConfig `yaml:"interpreter" json:"interpreter"`
	Retry       RetryConfig       `yaml:"retry" json:"retry"`
	Server      ServerConfig      `yaml:"server" json:"server"`
	Store       StoreConfig       `yaml:"store" json:"store"`
	Generation  GenerationConfig  `yaml:"generation" json:"generation"`
}

// CanvasConfig holds defaults for under-specified elements.
type CanvasConfig struct {
	X        float64 `yaml:"x" json:"x"`
	Y        float64 `yaml:"y" json:"y"`
	Width    float64 `yaml:"width" json:"width"`
	Height   float64 `yaml:"height" json:"height"`
	FontSize float64 `yaml:"font_size" json:"font_size"`
}

// ConnectorConfig holds connector geometry.
type ConnectorConfig struct {
	Gap float64 `yaml:"gap" json:"gap"`
}

// InterpreterConfig tunes action execution.
type InterpreterConfig struct {
	Delay   Duration `yaml:"delay" json:"delay"`
	Spacing float64  `yaml:"spacing" json:"spacing"`
}

// RetryConfig bounds generation retries.
type RetryConfig struct {
	MaxAttempts int      `yaml:"max_attempts" json:"max_attempts"`
	Delay       Duration `yaml:"delay" json:"delay"`
}

// ServerConfig configures the HTTP ingress and the inbox watcher.
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
	// Inbox is a directory watched for *.json batches; empty disables it.
	Inbox string `yaml:"inbox" json:"inbox"`
}

// StoreConfig configures persistence.
type StoreConfig struct {
	Path  string `yaml:"path" json:"path"`
	Scene string `yaml:"scene" json:"scene"`
}

// GenerationConfig configures the text-generation collaborator.
type GenerationConfig struct {
	Model   string        `yaml:"model" json:"model"`
	Breaker BreakerConfig `yaml:"breaker" json:"breaker"`
}

// BreakerConfig configures the circuit breaker around generation calls.
type BreakerConfig struct {
	MaxRequests      uint32   `yaml:"max_requests" json:"max_requests"`
	Interval         Duration `yaml:"interval" json:"interval"`
	Timeout          Duration `yaml:"timeout" json:"timeout"`
	FailureThreshold float64  `yaml:"failure_threshold" json:"failure_threshold"`
	MinRequests      uint32   `yaml:"min_requests" json:"min_requests"`
}

// Default returns the built-in settings.
func Default() Config {
	so := synth.DefaultOptions()
	br := llm.DefaultBreakerSettings("generation")
	return Config{
		Canvas: CanvasConfig{
			X:        so.X,
			Y:        so.Y,
			Width:    so.Width,
			Height:   so.Height,
			FontSize: so.FontSize,
		},
		Connector:   ConnectorConfig{Gap: so.ConnectorGap},
		Interpreter: InterpreterConfig{Spacing: engine.DefaultInterpreterOptions().Spacing},
		Retry: RetryConfig{
			MaxAttempts: retry.DefaultMaxAttempts,
			Delay:       Duration(retry.DefaultDelay),
		},
		Server: ServerConfig{Addr: ":8080"},
		Store:  StoreConfig{Path: "scenekit.db", Scene: "default"},
		Generation: GenerationConfig{
			Model: llm.DefaultGenAIModel,
			Breaker: BreakerConfig{
				MaxRequests:      br.MaxRequests,
				Interval:         Duration(br.Interval),
				Timeout:          Duration(br.Timeout),
				FailureThreshold: br.FailureThreshold,
				MinRequests:      br.MinRequests,
			},
		},
	}
}

// Load reads path and layers it over Default. The format is chosen by
// extension: .yaml/.yml (strict: unknown fields are rejected) or .cue.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := decodeYAML(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case ".cue":
		if err := decodeCUE(data, path, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q (want .yaml, .yml or .cue)", ext)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown fields
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// decodeCUE evaluates the file and decodes its concrete value. Fields the
// file leaves out keep their defaults.
func decodeCUE(data []byte, path string, cfg *Config) error {
	v := cuecontext.New().CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return err
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return err
	}
	raw, err := v.MarshalJSON()
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}

// Validate rejects settings no component can work with.
func (c Config) Validate() error {
	var errs []error
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		errs = append(errs, errors.New("canvas width and height must be positive"))
	}
	if c.Canvas.FontSize <= 0 {
		errs = append(errs, errors.New("canvas font_size must be positive"))
	}
	if c.Connector.Gap < 0 {
		errs = append(errs, errors.New("connector gap must not be negative"))
	}
	if c.Interpreter.Delay < 0 || c.Retry.Delay < 0 {
		errs = append(errs, errors.New("delays must not be negative"))
	}
	if c.Interpreter.Spacing < 0 {
		errs = append(errs, errors.New("interpreter spacing must not be negative"))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry max_attempts must be at least 1, got %d", c.Retry.MaxAttempts))
	}
	if c.Store.Scene == "" {
		errs = append(errs, errors.New("store scene name is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SynthOptions returns the synthesizer defaults.
func (c Config) SynthOptions() synth.Options {
	return synth.Options{
		X:            c.Canvas.X,
		Y:            c.Canvas.Y,
		Width:        c.Canvas.Width,
		Height:       c.Canvas.Height,
		FontSize:     c.Canvas.FontSize,
		ConnectorGap: c.Connector.Gap,
	}
}

// InterpreterOptions returns the interpreter settings.
func (c Config) InterpreterOptions() engine.InterpreterOptions {
	return engine.InterpreterOptions{
		Delay:   c.Interpreter.Delay.Std(),
		Spacing: c.Interpreter.Spacing,
	}
}

// RetryPolicy returns a retry policy using v as the validator.
func (c Config) RetryPolicy(v retry.Validator) retry.Policy {
	return retry.Policy{
		MaxAttempts: c.Retry.MaxAttempts,
		Delay:       c.Retry.Delay.Std(),
		Validator:   v,
	}
}

// BreakerSettings returns the circuit breaker settings.
func (c Config) BreakerSettings() llm.BreakerSettings {
	b := c.Generation.Breaker
	return llm.BreakerSettings{
		Name:             "generation",
		MaxRequests:      b.MaxRequests,
		Interval:         time.Duration(b.Interval),
		Timeout:          time.Duration(b.Timeout),
		FailureThreshold: b.FailureThreshold,
		MinRequests:      b.MinRequests,
	}
}
