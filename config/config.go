package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"go-melodycards/debug"
)

// OutputType identifies where notes are sent
type OutputType string

const (
	OutputSynth OutputType = "synth"
	OutputMIDI  OutputType = "midi"
	OutputNone  OutputType = "none"
)

// FusedDropPolicy decides what happens when a card lands on a complete fused placement
type FusedDropPolicy string

const (
	FusedDropReject  FusedDropPolicy = "reject"
	FusedDropReplace FusedDropPolicy = "replace"
)

// TimeSignature is numerator/denominator, e.g. 3/4
type TimeSignature struct {
	Numerator   int `yaml:"numerator" json:"numerator"`
	Denominator int `yaml:"denominator" json:"denominator"`
}

// AudioConfig selects and tunes the note output
type AudioConfig struct {
	Output     OutputType `yaml:"output"`
	Port       string     `yaml:"port,omitempty"` // MIDI output port name
	SampleRate int        `yaml:"sampleRate"`
	Volume     float64    `yaml:"volume"`
}

// HTTPConfig configures the JSON API
type HTTPConfig struct {
	Addr    string   `yaml:"addr"`
	Origins []string `yaml:"origins,omitempty"`
}

// ChapterConfig is one chapter's goal
type ChapterConfig struct {
	Title          string `yaml:"title"`
	TargetScore    int    `yaml:"targetScore"`
	TargetMeasures int    `yaml:"targetMeasures"`
}

// Config is the main configuration structure
type Config struct {
	Tempo          float64         `yaml:"tempo"`
	TimeSignature  TimeSignature   `yaml:"timeSignature"`
	MaxMeasures    int             `yaml:"maxMeasures"`
	SnapTolerance  int             `yaml:"snapTolerance"`
	PitchUnits     int             `yaml:"pitchUnits"`
	FusedDrop      FusedDropPolicy `yaml:"fusedDrop"`
	PreviewDelayMS int             `yaml:"previewDelayMs"`
	ChapterDelayMS int             `yaml:"chapterDelayMs"`
	RefillBelow    int             `yaml:"refillBelow"`
	DealSize       int             `yaml:"dealSize"`
	Seed           int64           `yaml:"seed,omitempty"`
	Audio          AudioConfig     `yaml:"audio"`
	HTTP           HTTPConfig      `yaml:"http"`
	LogLevel       string          `yaml:"logLevel,omitempty"`
	Palette        string          `yaml:"palette,omitempty"` // GIMP palette for the terminal UI
	Chapters       []ChapterConfig `yaml:"chapters"`
}

// DefaultChapters mirrors the three-chapter story
func DefaultChapters() []ChapterConfig {
	return []ChapterConfig{
		{Title: "The First Melody", TargetScore: 1000, TargetMeasures: 16},
		{Title: "The Forest Sage", TargetScore: 2000, TargetMeasures: 16},
		{Title: "The Festival Song", TargetScore: 3000, TargetMeasures: 16},
	}
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Tempo:          120,
		TimeSignature:  TimeSignature{Numerator: 4, Denominator: 4},
		MaxMeasures:    16,
		SnapTolerance:  4,
		PitchUnits:     1,
		FusedDrop:      FusedDropReject,
		PreviewDelayMS: 300,
		ChapterDelayMS: 500,
		RefillBelow:    2,
		DealSize:       3,
		Audio: AudioConfig{
			Output:     OutputSynth,
			SampleRate: 44100,
			Volume:     0.2,
		},
		HTTP: HTTPConfig{
			Addr:    ":8080",
			Origins: []string{"*"},
		},
		LogLevel: "info",
		Chapters: DefaultChapters(),
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-melodycards"), nil
}

// ConfigPath returns the full path to config.yaml
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a specific file. Keys missing from the file keep their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Validate()

	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating its directory
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate replaces malformed values with defaults, logging each repair
func (c *Config) Validate() {
	def := DefaultConfig()

	if c.Tempo <= 0 || c.Tempo > 400 {
		debug.Warn("config", "tempo %v out of range, using %v", c.Tempo, def.Tempo)
		c.Tempo = def.Tempo
	}
	if !c.TimeSignature.Valid() {
		debug.Warn("config", "time signature %d/%d unsupported, using 4/4", c.TimeSignature.Numerator, c.TimeSignature.Denominator)
		c.TimeSignature = def.TimeSignature
	}
	if c.MaxMeasures <= 0 {
		c.MaxMeasures = def.MaxMeasures
	}
	if c.SnapTolerance < 0 {
		c.SnapTolerance = 0
	}
	if c.PitchUnits != 1 && c.PitchUnits != 2 {
		debug.Warn("config", "pitchUnits %d unsupported, using %d", c.PitchUnits, def.PitchUnits)
		c.PitchUnits = def.PitchUnits
	}
	if c.FusedDrop != FusedDropReject && c.FusedDrop != FusedDropReplace {
		debug.Warn("config", "fusedDrop %q unknown, using %q", c.FusedDrop, def.FusedDrop)
		c.FusedDrop = def.FusedDrop
	}
	if c.PreviewDelayMS < 0 {
		c.PreviewDelayMS = def.PreviewDelayMS
	}
	if c.ChapterDelayMS < 0 {
		c.ChapterDelayMS = def.ChapterDelayMS
	}
	if c.RefillBelow < 0 {
		c.RefillBelow = def.RefillBelow
	}
	if c.DealSize <= 0 {
		c.DealSize = def.DealSize
	}
	switch c.Audio.Output {
	case OutputSynth, OutputMIDI, OutputNone:
	default:
		debug.Warn("config", "audio output %q unknown, using %q", c.Audio.Output, def.Audio.Output)
		c.Audio.Output = def.Audio.Output
	}
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = def.Audio.SampleRate
	}
	if c.Audio.Volume <= 0 || c.Audio.Volume > 1 {
		c.Audio.Volume = def.Audio.Volume
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = def.HTTP.Addr
	}
	if len(c.Chapters) == 0 {
		c.Chapters = def.Chapters
	}
}

// Valid reports whether the denominator maps onto the grid evenly
func (ts TimeSignature) Valid() bool {
	if ts.Numerator <= 0 {
		return false
	}
	switch ts.Denominator {
	case 1, 2, 4, 8, 16:
		return true
	}
	return false
}

// EighthNotesPerMeasure is the measure size in grid units. Card values are
// note-value denominators (8 is an eighth, 4 a quarter) summed as units, so
// a 4/4 bar holds 16.
func (ts TimeSignature) EighthNotesPerMeasure() int {
	return ts.Numerator * (16 / ts.Denominator)
}
