package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/high-horse/fingerprint-server/matching"
	"github.com/high-horse/fingerprint-server/skeleton"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	s := Default()

	assert.Equal(t, 5, s.Matching.Threshold)
	assert.Equal(t, 10.0, s.Matching.DistanceTolerance)
	assert.Equal(t, 20.0, s.Matching.AngleTolerance)
	assert.Equal(t, "first", s.Matching.Strategy)
	assert.False(t, s.Matching.Exclusive)
	assert.Equal(t, uint8(128), s.Skeleton.Threshold)
	assert.Equal(t, "white", s.Skeleton.Foreground)
	assert.Equal(t, "memory", s.Storage.Backend)
	assert.Equal(t, "localhost:6379", s.Storage.Redis.Addr)
	assert.Equal(t, ":9090", s.Server.Listen)
	assert.Equal(t, 10485760, s.Server.BodyLimit)
	assert.Equal(t, "info", s.Log.Level)
	assert.Equal(t, 168*time.Hour, s.Log.MaxAge)
	assert.Equal(t, 24*time.Hour, s.Log.RotationTime)
	assert.NoError(t, s.Validate())
}

func TestLoadDefaultConfig(t *testing.T) {
	LoadDefaultConfig()
	require.NotNil(t, Config)
	assert.Equal(t, 5, Config.Matching.Threshold)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
workers = 3

[matching]
threshold = 8
distance_tolerance = 6.5
strategy = "best"
exclusive = true

[skeleton]
foreground = "black"

[storage]
backend = "file"
path = "/tmp/prints.cbor"

[log]
level = "debug"
max_age = "72h"
`)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, s.NumWorkers())
	assert.Equal(t, matching.Options{
		Threshold:         8,
		DistanceTolerance: 6.5,
		AngleTolerance:    20,
		Strategy:          matching.Best,
		Exclusive:         true,
		Workers:           3,
	}, s.MatchingOptions())
	assert.Equal(t, skeleton.Options{Threshold: 128, Foreground: skeleton.BlackRidges}, s.SkeletonOptions())
	assert.Equal(t, "/tmp/prints.cbor", s.Storage.Path)
	assert.Equal(t, 72*time.Hour, s.Log.MaxAge)
	assert.Equal(t, ":9090", s.Server.Listen, "untouched sections keep defaults")
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"syntax":            "threshold = = 3",
		"unknown key":       "[matching]\nthreshhold = 3\n",
		"zero tolerance":    "[matching]\ndistance_tolerance = 0\n",
		"nan tolerance":     "[matching]\ndistance_tolerance = nan\n",
		"bad strategy":      "[matching]\nstrategy = \"random\"\n",
		"bad foreground":    "[skeleton]\nforeground = \"grey\"\n",
		"bad backend":       "[storage]\nbackend = \"postgres\"\n",
		"file without path": "[storage]\nbackend = \"file\"\npath = \"\"\n",
		"bad level":         "[log]\nlevel = \"loud\"\n",
		"negative workers":  "workers = -1\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Example(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "fingerprintd.toml"))
	require.NoError(t, err)

	expected := Default()
	expected.Storage.Backend = "file"
	expected.Storage.Path = "/var/lib/fingerprint/templates.cbor"
	expected.Log.File = "/var/log/fingerprint/fingerprintd.%Y%m%d.log"
	assert.Equal(t, expected, s)
}
