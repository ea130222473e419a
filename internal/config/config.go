// internal/config/config.go
package config

type Config struct {
	Regpoll RegpollConfig `yaml:"regpoll"`
}

type RegpollConfig struct {
	LogLevel string       `yaml:"log_level"`
	Units    []UnitConfig `yaml:"units"`
}

// ---- UNIT ----

type UnitConfig struct {
	ID      string         `yaml:"id"`
	Source  SourceConfig   `yaml:"source"`
	Poll    PollConfig     `yaml:"poll"`
	Retry   RetryConfig    `yaml:"retry"`
	Windows []WindowConfig `yaml:"windows"`
}

// ---- SOURCE ----

// SourceConfig selects TCP (Endpoint) or RTU (Serial).
type SourceConfig struct {
	Endpoint  string        `yaml:"endpoint"`
	Serial    *SerialConfig `yaml:"serial"`
	UnitID    uint8         `yaml:"unit_id"`
	TimeoutMs int           `yaml:"timeout_ms"`
}

type SerialConfig struct {
	Device   string `yaml:"device"`
	BaudRate int    `yaml:"baud_rate"`
	DataBits int    `yaml:"data_bits"`
	Parity   string `yaml:"parity"` // N, E, O
	StopBits int    `yaml:"stop_bits"`
}

// ---- POLL / RETRY ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

// RetryConfig controls setup backoff. Zero means retry immediately.
type RetryConfig struct {
	InitialBackoffMs int `yaml:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms"`
}

// ---- READ GEOMETRY ----

// WindowConfig is one bulk holding-register read, [Start, End).
type WindowConfig struct {
	Start  uint16        `yaml:"start"`
	End    uint16        `yaml:"end"`
	Fields []FieldConfig `yaml:"fields"`
}

// FieldConfig is one decoded value inside a window.
// Type is u16, s16, u32, s32 or ascii; Length (registers) applies to ascii.
type FieldConfig struct {
	Name     string `yaml:"name"`
	Register uint16 `yaml:"register"`
	Type     string `yaml:"type"`
	Length   uint16 `yaml:"length"`
}

const FieldTypeASCII = "ascii"
