// Package config loads and saves engine configuration as YAML, following
// the enumerated configuration surface.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/darianrosebrook/deduper/internal/api"
	"gopkg.in/yaml.v3"
)

// Thresholds controls the duplicate/similar confidence cutoffs.
type Thresholds struct {
	ConfidenceDuplicate float64 `yaml:"confidence_duplicate"`
	ConfidenceSimilar   float64 `yaml:"confidence_similar"`
	HashNearDup         int     `yaml:"hash_near_dup"`
}

// Weights controls per-signal scoring contributions.
type Weights struct {
	Checksum    float64 `yaml:"checksum"`
	Hash        float64 `yaml:"hash"`
	Metadata    float64 `yaml:"metadata"`
	Name        float64 `yaml:"name"`
	CaptureTime float64 `yaml:"capture_time"`
	PolicyBonus float64 `yaml:"policy_bonus"`
}

// Policies toggles cross-type bonus rules and holds ignored pairs.
type Policies struct {
	EnableRAWJPEG   bool       `yaml:"enable_raw_jpeg"`
	EnableLivePhoto bool       `yaml:"enable_live_photo"`
	IgnoredPairs    [][2]string `yaml:"ignored_pairs"`
}

// Limits bounds per-bucket scoring work.
type Limits struct {
	MaxComparisonsPerBucket int64 `yaml:"max_comparisons_per_bucket"`
	MaxBucketSize           int   `yaml:"max_bucket_size"`
	TimeBudgetMS            int   `yaml:"time_budget_ms"`
}

// Merge controls transaction executor behavior.
type Merge struct {
	EnableDryRun        bool `yaml:"enable_dry_run"`
	EnableUndo          bool `yaml:"enable_undo"`
	UndoDepth           int  `yaml:"undo_depth"`
	RetentionDays       int  `yaml:"retention_days"`
	MoveToTrash         bool `yaml:"move_to_trash"`
	RequireConfirmation bool `yaml:"require_confirmation"`
	AtomicWrites        bool `yaml:"atomic_writes"`
}

// Video controls the frame-sampling fingerprinter.
type Video struct {
	MiddleSampleMinimumDuration float64 `yaml:"middle_sample_minimum_duration"`
	EndSampleOffset             float64 `yaml:"end_sample_offset"`
	GeneratorMaxDimension       int     `yaml:"generator_max_dimension"`
	PreferredTimescale         int     `yaml:"preferred_timescale"`
}

// Config is the engine's full configuration surface.
type Config struct {
	Thresholds Thresholds `yaml:"thresholds"`
	Weights    Weights    `yaml:"weights"`
	Policies   Policies   `yaml:"policies"`
	Limits     Limits     `yaml:"limits"`
	Merge      Merge      `yaml:"merge"`
	Video      Video      `yaml:"video"`

	Workers                 int     `yaml:"workers"`
	MemoryPressureThreshold float64 `yaml:"memory_pressure_threshold"`
	MemoryLimitBytes        uint64  `yaml:"memory_limit_bytes"`
	TransactionLogPath string `yaml:"transaction_log_path"`
	TrashDataHome      string `yaml:"trash_data_home"`
}

// Default returns the documented default configuration.
func Default() Config {
	return Config{
		Thresholds: Thresholds{
			ConfidenceDuplicate: api.DefaultConfidenceDuplicate,
			ConfidenceSimilar:   api.DefaultConfidenceSimilar,
			HashNearDup:         api.DefaultHashNearDupThreshold,
		},
		Weights: Weights{
			Checksum:    api.DefaultWeightChecksum,
			Hash:        api.DefaultWeightHash,
			Metadata:    api.DefaultWeightMetadata,
			Name:        api.DefaultWeightName,
			CaptureTime: api.DefaultWeightCaptureTime,
			PolicyBonus: api.DefaultWeightPolicyBonus,
		},
		Policies: Policies{EnableRAWJPEG: true, EnableLivePhoto: true},
		Limits: Limits{
			MaxComparisonsPerBucket: api.DefaultMaxComparisonsPerBucket,
			MaxBucketSize:           api.DefaultMaxBucketSize,
			TimeBudgetMS:            api.DefaultTimeBudgetMS,
		},
		Merge: Merge{
			EnableUndo:    true,
			UndoDepth:     1,
			RetentionDays: api.DefaultRetentionDays,
			MoveToTrash:   true,
			AtomicWrites:  true,
		},
		Video: Video{
			MiddleSampleMinimumDuration: api.DefaultMiddleSampleMinimumDurationSec,
			EndSampleOffset:             api.DefaultEndSampleOffsetSec,
			GeneratorMaxDimension:       api.DefaultGeneratorMaxDimension,
			PreferredTimescale:          api.DefaultPreferredTimescale,
		},
		Workers:                 0, // 0 means runtime.GOMAXPROCS(0)
		MemoryPressureThreshold: api.DefaultMemoryPressureThreshold,
		MemoryLimitBytes:        api.DefaultMemoryLimitBytes,
		TransactionLogPath:      "mediadedupe.transactions.db",
		TrashDataHome:           "",
	}
}

// RetentionDuration converts Merge.RetentionDays to a time.Duration.
func (c Config) RetentionDuration() time.Duration {
	return time.Duration(c.Merge.RetentionDays) * 24 * time.Hour
}

// Manager loads and saves Config as YAML at a fixed path, mirroring the
// teacher's ConfigManager.
type Manager struct {
	path string
}

// NewManager returns a Manager rooted at path.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Load reads and parses the config file. A missing file is not an error —
// Default() is returned instead, so first-run has a sane config.
func (m *Manager) Load() (Config, error) {
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to the config file, creating parent directories as
// needed.
func (m *Manager) Save(cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0o644)
}

// Exists reports whether the config file is present on disk.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.path)
	return !os.IsNotExist(err)
}

// DefaultConfigPath returns the conventional per-user config location.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "mediadedupe.yaml"
	}
	return filepath.Join(home, ".config", "mediadedupe", "config.yaml")
}
