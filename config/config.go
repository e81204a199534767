package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"buddy/internal/domain"
)

type Config struct {
	Audio         AudioConfig         `yaml:"audio"`
	Chat          ChatConfig          `yaml:"chat"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Feedback      FeedbackConfig      `yaml:"feedback"`
	Files         map[string]string   `yaml:"files"`
	Applications  map[string]string   `yaml:"applications"`
	System        SystemConfig        `yaml:"system"`
	Log           LogConfig           `yaml:"log"`
}

type AudioConfig struct {
	Source          string `yaml:"source"`
	HTTPAddr        string `yaml:"http_addr"`
	AuthToken       string `yaml:"auth_token"`
	SampleRate      int    `yaml:"sample_rate"`
	CaptureDuration string `yaml:"capture_duration"`
}

type ChatConfig struct {
	Provider      string  `yaml:"provider"`
	Endpoint      string  `yaml:"endpoint"`
	Model         string  `yaml:"model"`
	Timeout       string  `yaml:"timeout"`
	MinConfidence float64 `yaml:"min_confidence"`
	Retries       int     `yaml:"retries"`
	RetryBackoff  string  `yaml:"retry_backoff"`
}

type TranscriptionConfig struct {
	Endpoint string `yaml:"endpoint"`
	Language string `yaml:"language"`
}

type FeedbackConfig struct {
	Mode       string   `yaml:"mode"`
	TTSCommand []string `yaml:"tts_command"`
}

// SystemConfig enables individual system actions. Unset flags default
// to on; users disable the destructive ones explicitly.
type SystemConfig struct {
	VolumeMute *bool `yaml:"volume_mute"`
	VolumeUp   *bool `yaml:"volume_up"`
	VolumeDown *bool `yaml:"volume_down"`
	VolumeSet  *bool `yaml:"volume_set"`
	Sleep      *bool `yaml:"sleep"`
	Shutdown   *bool `yaml:"shutdown"`
	Restart    *bool `yaml:"restart"`
	Lock       *bool `yaml:"lock"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

// Default returns the built-in configuration used when no config file
// is present.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	if c.Audio.Source == "" {
		c.Audio.Source = "stdin"
	}
	if c.Audio.HTTPAddr == "" {
		c.Audio.HTTPAddr = "127.0.0.1:8484"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.CaptureDuration == "" {
		c.Audio.CaptureDuration = "3s"
	}
	if c.Chat.Provider == "" {
		c.Chat.Provider = "ollama"
	}
	if c.Chat.Endpoint == "" {
		c.Chat.Endpoint = "http://localhost:11434/api/chat"
	}
	if c.Chat.Model == "" {
		c.Chat.Model = "deepseek-r1:latest"
	}
	if c.Chat.Timeout == "" {
		c.Chat.Timeout = "5s"
	}
	if c.Chat.MinConfidence == 0 {
		c.Chat.MinConfidence = 0.6
	}
	if c.Chat.Retries == 0 {
		c.Chat.Retries = 1
	}
	if c.Chat.RetryBackoff == "" {
		c.Chat.RetryBackoff = "250ms"
	}
	if c.Transcription.Endpoint == "" {
		c.Transcription.Endpoint = "http://localhost:8178/inference"
	}
	if c.Transcription.Language == "" {
		c.Transcription.Language = "en"
	}
	if c.Feedback.Mode == "" {
		c.Feedback.Mode = "tts"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) ChatTimeout() time.Duration {
	return durationOr(c.Chat.Timeout, 5*time.Second)
}

func (c *Config) ChatRetryBackoff() time.Duration {
	return durationOr(c.Chat.RetryBackoff, 250*time.Millisecond)
}

func (c *Config) CaptureDuration() time.Duration {
	return durationOr(c.Audio.CaptureDuration, 3*time.Second)
}

func durationOr(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// CapabilityTable builds the immutable capability snapshot the pipeline
// validates against.
func (c *Config) CapabilityTable() domain.CapabilityTable {
	return domain.NewCapabilityTable(c.Files, c.Applications, c.System.enabledActions())
}

func (s *SystemConfig) enabledActions() []string {
	flags := map[string]*bool{
		"volume_mute": s.VolumeMute,
		"volume_up":   s.VolumeUp,
		"volume_down": s.VolumeDown,
		"volume_set":  s.VolumeSet,
		"sleep":       s.Sleep,
		"shutdown":    s.Shutdown,
		"restart":     s.Restart,
		"lock":        s.Lock,
	}

	var actions []string
	for _, name := range domain.SystemActionNames {
		if flag := flags[name]; flag == nil || *flag {
			actions = append(actions, name)
		}
	}
	return actions
}
