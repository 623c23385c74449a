// Package config holds the process-wide settings. Defaults come from struct
// tags and may be overridden by a TOML file.
package config

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mcuadros/go-defaults"
	"github.com/rs/zerolog"

	"github.com/high-horse/fingerprint-server/matching"
	"github.com/high-horse/fingerprint-server/skeleton"
)

// Config is the active configuration. LoadDefaultConfig or LoadConfig must
// be called before it is read.
var Config *Settings

type Settings struct {
	// Workers bounds the goroutines used for extraction and identification.
	// Zero means one per CPU.
	Workers  int      `toml:"workers"`
	Matching Matching `toml:"matching"`
	Skeleton Skeleton `toml:"skeleton"`
	Storage  Storage  `toml:"storage"`
	Server   Server   `toml:"server"`
	Log      Log      `toml:"log"`
}

type Matching struct {
	Threshold         int     `toml:"threshold" default:"5"`
	DistanceTolerance float64 `toml:"distance_tolerance" default:"10"`
	// Not used by any decision, minutiae have no orientation.
	AngleTolerance float64 `toml:"angle_tolerance" default:"20"`
	Strategy       string  `toml:"strategy" default:"first"`
	Exclusive      bool    `toml:"exclusive"`
}

type Skeleton struct {
	Threshold  uint8  `toml:"threshold" default:"128"`
	Foreground string `toml:"foreground" default:"white"`
}

type Storage struct {
	Backend string `toml:"backend" default:"memory"`
	Path    string `toml:"path" default:"templates.cbor"`
	Redis   Redis  `toml:"redis"`
}

type Redis struct {
	Addr     string `toml:"addr" default:"localhost:6379"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix" default:"fingerprint:"`
}

type Server struct {
	Listen    string `toml:"listen" default:":9090"`
	BodyLimit int    `toml:"body_limit" default:"10485760"`
}

type Log struct {
	Level string `toml:"level" default:"info"`
	// File is a strftime pattern for rotated log files, e.g.
	// "/var/log/fingerprint/server.%Y%m%d.log". Empty disables file output.
	File         string        `toml:"file"`
	MaxAge       time.Duration `toml:"max_age" default:"168h"`
	RotationTime time.Duration `toml:"rotation_time" default:"24h"`
}

func Default() *Settings {
	s := new(Settings)
	defaults.SetDefaults(s)
	return s
}

func LoadDefaultConfig() {
	Config = Default()
}

// LoadConfig reads path over the defaults and installs the result as
// Config.
func LoadConfig(path string) error {
	s, err := Load(path)
	if err != nil {
		return err
	}
	Config = s
	return nil
}

func Load(path string) (*Settings, error) {
	s := Default()
	md, err := toml.DecodeFile(path, s)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("read config %s: unknown keys %v", path, undecoded)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return s, nil
}

func (s *Settings) Validate() error {
	var errs []error
	if s.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative (%d)", s.Workers))
	}
	if s.Matching.Threshold < 0 {
		errs = append(errs, fmt.Errorf("matching.threshold must not be negative (%d)", s.Matching.Threshold))
	}
	if math.IsNaN(s.Matching.DistanceTolerance) || s.Matching.DistanceTolerance <= 0 {
		errs = append(errs, fmt.Errorf("matching.distance_tolerance must be positive (%g)", s.Matching.DistanceTolerance))
	}
	if _, err := matching.ParseStrategy(s.Matching.Strategy); err != nil {
		errs = append(errs, fmt.Errorf("matching.strategy: %w", err))
	}
	if _, err := skeleton.ParsePolarity(s.Skeleton.Foreground); err != nil {
		errs = append(errs, fmt.Errorf("skeleton.foreground: %w", err))
	}
	switch s.Storage.Backend {
	case "memory", "redis":
	case "file":
		if s.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required for the file backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q is not one of memory, file, redis", s.Storage.Backend))
	}
	if s.Server.BodyLimit <= 0 {
		errs = append(errs, fmt.Errorf("server.body_limit must be positive (%d)", s.Server.BodyLimit))
	}
	if _, err := zerolog.ParseLevel(s.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}

func (s *Settings) NumWorkers() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return runtime.NumCPU()
}

func (s *Settings) MatchingOptions() matching.Options {
	strategy, _ := matching.ParseStrategy(s.Matching.Strategy)
	return matching.Options{
		Threshold:         s.Matching.Threshold,
		DistanceTolerance: s.Matching.DistanceTolerance,
		AngleTolerance:    s.Matching.AngleTolerance,
		Strategy:          strategy,
		Exclusive:         s.Matching.Exclusive,
		Workers:           s.NumWorkers(),
	}
}

func (s *Settings) SkeletonOptions() skeleton.Options {
	fg, _ := skeleton.ParsePolarity(s.Skeleton.Foreground)
	return skeleton.Options{Threshold: s.Skeleton.Threshold, Foreground: fg}
}
