// Package config holds run-time parameters of abandoned objects detection.
// Parameters are fixed once processing starts: defaults, then JSON file, then environment overrides.
package config

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// ErrInvalid is returned (wrapped) by Validate
var ErrInvalid = errors.New("invalid configuration")

// EnvPrefix is the prefix of environment variables overriding configuration fields
const EnvPrefix = "ABANDONED_"

// Config is the full set of parameters for a processing run.
type Config struct {
	// Tracker
	MaxSimilarDistance int `json:"max_similar_distance"`
	MinFrames          int `json:"min_frames"`

	// Candidate detection
	ErosionSize     int     `json:"erosion_size"`
	DilationSize    int     `json:"dilation_size"`
	PolyEpsilon     float64 `json:"poly_epsilon"`
	MOGHistory      int     `json:"mog_history"`
	MOGVarThreshold float64 `json:"mog_var_threshold"`

	// Visualization and diagnostics
	EnableVisualization  bool `json:"enable_visualization"`
	VisualizationDelayMs int  `json:"visualization_delay_ms"`
	AuditAssignments     bool `json:"audit_assignments"`

	// Output
	DatabasePath string `json:"database_path"`
	LogLevel     string `json:"log_level"`
	LogJSON      bool   `json:"log_json"`
}

// Default returns configuration matching the reference parameters of the algorithm
func Default() Config {
	return Config{
		MaxSimilarDistance:   10,
		MinFrames:            40,
		ErosionSize:          2,
		DilationSize:         20,
		PolyEpsilon:          3,
		MOGHistory:           500,
		MOGVarThreshold:      16,
		EnableVisualization:  false,
		VisualizationDelayMs: 30,
		AuditAssignments:     false,
		DatabasePath:         "",
		LogLevel:             "info",
		LogJSON:              false,
	}
}

// fileConfig mirrors Config with optional fields so a file may override only a subset
type fileConfig struct {
	MaxSimilarDistance   *int     `json:"max_similar_distance,omitempty"`
	MinFrames            *int     `json:"min_frames,omitempty"`
	ErosionSize          *int     `json:"erosion_size,omitempty"`
	DilationSize         *int     `json:"dilation_size,omitempty"`
	PolyEpsilon          *float64 `json:"poly_epsilon,omitempty"`
	MOGHistory           *int     `json:"mog_history,omitempty"`
	MOGVarThreshold      *float64 `json:"mog_var_threshold,omitempty"`
	EnableVisualization  *bool    `json:"enable_visualization,omitempty"`
	VisualizationDelayMs *int     `json:"visualization_delay_ms,omitempty"`
	AuditAssignments     *bool    `json:"audit_assignments,omitempty"`
	DatabasePath         *string  `json:"database_path,omitempty"`
	LogLevel             *string  `json:"log_level,omitempty"`
	LogJSON              *bool    `json:"log_json,omitempty"`
}

// Load builds configuration from defaults, optional JSON file (empty path skips it) and environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrapf(err, "can't read config file %s", path)
		}
		if err := cfg.MergeJSON(data); err != nil {
			return cfg, errors.Wrapf(err, "can't parse config file %s", path)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// MergeJSON overrides fields present in the JSON document
func (cfg *Config) MergeJSON(data []byte) error {
	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return errors.Wrap(err, "can't unmarshal JSON")
	}
	setInt(&cfg.MaxSimilarDistance, fc.MaxSimilarDistance)
	setInt(&cfg.MinFrames, fc.MinFrames)
	setInt(&cfg.ErosionSize, fc.ErosionSize)
	setInt(&cfg.DilationSize, fc.DilationSize)
	setFloat(&cfg.PolyEpsilon, fc.PolyEpsilon)
	setInt(&cfg.MOGHistory, fc.MOGHistory)
	setFloat(&cfg.MOGVarThreshold, fc.MOGVarThreshold)
	setBool(&cfg.EnableVisualization, fc.EnableVisualization)
	setInt(&cfg.VisualizationDelayMs, fc.VisualizationDelayMs)
	setBool(&cfg.AuditAssignments, fc.AuditAssignments)
	setString(&cfg.DatabasePath, fc.DatabasePath)
	setString(&cfg.LogLevel, fc.LogLevel)
	setBool(&cfg.LogJSON, fc.LogJSON)
	return nil
}

// ApplyEnv overrides fields from environment variables named EnvPrefix + upper-cased JSON key,
// e.g. ABANDONED_MIN_FRAMES. lookup is usually os.LookupEnv.
func (cfg *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	ints := map[string]*int{
		"max_similar_distance":   &cfg.MaxSimilarDistance,
		"min_frames":             &cfg.MinFrames,
		"erosion_size":           &cfg.ErosionSize,
		"dilation_size":          &cfg.DilationSize,
		"mog_history":            &cfg.MOGHistory,
		"visualization_delay_ms": &cfg.VisualizationDelayMs,
	}
	floats := map[string]*float64{
		"poly_epsilon":      &cfg.PolyEpsilon,
		"mog_var_threshold": &cfg.MOGVarThreshold,
	}
	bools := map[string]*bool{
		"enable_visualization": &cfg.EnableVisualization,
		"audit_assignments":    &cfg.AuditAssignments,
		"log_json":             &cfg.LogJSON,
	}
	strs := map[string]*string{
		"database_path": &cfg.DatabasePath,
		"log_level":     &cfg.LogLevel,
	}
	for key, dst := range ints {
		if raw, ok := lookup(envName(key)); ok {
			v, err := cast.ToIntE(strings.TrimSpace(raw))
			if err != nil {
				return errors.Wrapf(err, "bad value for %s", envName(key))
			}
			*dst = v
		}
	}
	for key, dst := range floats {
		if raw, ok := lookup(envName(key)); ok {
			v, err := cast.ToFloat64E(strings.TrimSpace(raw))
			if err != nil {
				return errors.Wrapf(err, "bad value for %s", envName(key))
			}
			*dst = v
		}
	}
	for key, dst := range bools {
		if raw, ok := lookup(envName(key)); ok {
			v, err := cast.ToBoolE(strings.TrimSpace(raw))
			if err != nil {
				return errors.Wrapf(err, "bad value for %s", envName(key))
			}
			*dst = v
		}
	}
	for key, dst := range strs {
		if raw, ok := lookup(envName(key)); ok {
			*dst = cast.ToString(raw)
		}
	}
	return nil
}

// Validate checks parameters which would make processing meaningless
func (cfg Config) Validate() error {
	switch {
	case cfg.MaxSimilarDistance <= 0:
		return errors.Wrapf(ErrInvalid, "max_similar_distance must be positive, got %d", cfg.MaxSimilarDistance)
	case cfg.MinFrames <= 0:
		return errors.Wrapf(ErrInvalid, "min_frames must be positive, got %d", cfg.MinFrames)
	case cfg.ErosionSize < 0:
		return errors.Wrapf(ErrInvalid, "erosion_size must not be negative, got %d", cfg.ErosionSize)
	case cfg.DilationSize < 0:
		return errors.Wrapf(ErrInvalid, "dilation_size must not be negative, got %d", cfg.DilationSize)
	case cfg.PolyEpsilon < 0:
		return errors.Wrapf(ErrInvalid, "poly_epsilon must not be negative, got %f", cfg.PolyEpsilon)
	case cfg.MOGHistory <= 0:
		return errors.Wrapf(ErrInvalid, "mog_history must be positive, got %d", cfg.MOGHistory)
	case cfg.MOGVarThreshold <= 0:
		return errors.Wrapf(ErrInvalid, "mog_var_threshold must be positive, got %f", cfg.MOGVarThreshold)
	case cfg.VisualizationDelayMs < 0:
		return errors.Wrapf(ErrInvalid, "visualization_delay_ms must not be negative, got %d", cfg.VisualizationDelayMs)
	}
	return nil
}

func envName(key string) string {
	return EnvPrefix + strings.ToUpper(key)
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
