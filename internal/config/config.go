package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/viper"

	"github.com/junsooki/moodballoon/internal/emotion"
)

// Config holds all runtime configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Model    ModelConfig    `mapstructure:"model"`
	Detect   DetectConfig   `mapstructure:"detect"`
	Preview  PreviewConfig  `mapstructure:"preview"`
	Game     GameConfig     `mapstructure:"game"`
	Spectate SpectateConfig `mapstructure:"spectate"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
	History  HistoryConfig  `mapstructure:"history"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"` // optional, appended to alongside stdout
}

// ModelConfig points at the artifacts the classifier needs at startup.
type ModelConfig struct {
	Path        string `mapstructure:"path"`
	CascadePath string `mapstructure:"cascade_path"`
	InputLayout string `mapstructure:"input_layout"` // "nhwc" (Keras export) or "nchw"
}

// DetectConfig tunes face detection and the no-face policy.
type DetectConfig struct {
	ScaleFactor  float64 `mapstructure:"scale_factor"`
	MinNeighbors int     `mapstructure:"min_neighbors"`
	NoFaceLabel  string  `mapstructure:"no_face_label"`
}

// PreviewConfig controls the live camera window of the inference loop.
type PreviewConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Title   string `mapstructure:"title"`
	QuitKey string `mapstructure:"quit_key"`
}

// GameConfig holds balloon game settings.
type GameConfig struct {
	Width      int           `mapstructure:"width"`
	Height     int           `mapstructure:"height"`
	TPS        int           `mapstructure:"tps"`
	StartDelay time.Duration `mapstructure:"start_delay"`
}

// SpectateConfig controls the spectator feed server.
type SpectateConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Addr          string `mapstructure:"addr"`
	FrameInterval int    `mapstructure:"frame_interval"` // send every Nth preview frame
	Quality       int    `mapstructure:"quality"`        // JPEG quality 1-100
}

// MQTTConfig holds settings for publishing mood changes.
type MQTTConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	ClientID string `mapstructure:"client_id"`
	Topic    string `mapstructure:"topic"`
}

// HistoryConfig controls the session history database.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	File    string `mapstructure:"file"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetDefault("model.path", "model/emotion_model.onnx")
	v.SetDefault("model.cascade_path", "data/haarcascade_frontalface_default.xml")
	v.SetDefault("model.input_layout", "nhwc")

	v.SetDefault("detect.scale_factor", 1.3)
	v.SetDefault("detect.min_neighbors", 5)
	v.SetDefault("detect.no_face_label", "neutral")

	v.SetDefault("preview.enabled", true)
	v.SetDefault("preview.title", "Emotion Detection")
	v.SetDefault("preview.quit_key", "q")

	v.SetDefault("game.width", 800)
	v.SetDefault("game.height", 600)
	v.SetDefault("game.tps", 60)
	v.SetDefault("game.start_delay", 2*time.Second)

	v.SetDefault("spectate.enabled", false)
	v.SetDefault("spectate.addr", "127.0.0.1:8090")
	v.SetDefault("spectate.frame_interval", 3)
	v.SetDefault("spectate.quality", 70)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "localhost")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.client_id", "moodballoon")
	v.SetDefault("mqtt.topic", "moodballoon/emotion")

	v.SetDefault("history.enabled", false)
	v.SetDefault("history.file", "data/history.db")
}

// Load reads configuration from defaults, an optional YAML file, and
// MOODBALLOON_* environment variables. Flags bound to v take precedence.
// An explicit path must exist; the default search locations are optional.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix("MOODBALLOON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("moodballoon")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/moodballoon")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Model.InputLayout = strings.ToLower(cfg.Model.InputLayout)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and returns every problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.Model.Path == "" {
		errs = append(errs, errors.New("model.path must be set"))
	}
	if c.Model.CascadePath == "" {
		errs = append(errs, errors.New("model.cascade_path must be set"))
	}
	if c.Model.InputLayout != "nhwc" && c.Model.InputLayout != "nchw" {
		errs = append(errs, fmt.Errorf("model.input_layout must be nhwc or nchw, got %q", c.Model.InputLayout))
	}
	if c.Detect.ScaleFactor <= 1.0 {
		errs = append(errs, fmt.Errorf("detect.scale_factor must be greater than 1, got %v", c.Detect.ScaleFactor))
	}
	if c.Detect.MinNeighbors < 0 {
		errs = append(errs, fmt.Errorf("detect.min_neighbors must not be negative, got %d", c.Detect.MinNeighbors))
	}
	if _, err := emotion.Parse(c.Detect.NoFaceLabel); err != nil {
		errs = append(errs, fmt.Errorf("detect.no_face_label: %w", err))
	}
	if utf8.RuneCountInString(c.Preview.QuitKey) != 1 {
		errs = append(errs, fmt.Errorf("preview.quit_key must be a single character, got %q", c.Preview.QuitKey))
	}
	if c.Game.Width < 200 || c.Game.Height < 200 {
		errs = append(errs, fmt.Errorf("game window must be at least 200x200, got %dx%d", c.Game.Width, c.Game.Height))
	}
	if c.Game.TPS < 1 || c.Game.TPS > 240 {
		errs = append(errs, fmt.Errorf("game.tps must be between 1 and 240, got %d", c.Game.TPS))
	}
	if c.Game.StartDelay < 0 {
		errs = append(errs, fmt.Errorf("game.start_delay must not be negative, got %s", c.Game.StartDelay))
	}
	if c.Spectate.FrameInterval < 1 {
		errs = append(errs, fmt.Errorf("spectate.frame_interval must be at least 1, got %d", c.Spectate.FrameInterval))
	}
	if c.Spectate.Quality < 1 || c.Spectate.Quality > 100 {
		errs = append(errs, fmt.Errorf("spectate.quality must be between 1 and 100, got %d", c.Spectate.Quality))
	}
	if c.MQTT.Enabled && (c.MQTT.Broker == "" || c.MQTT.Topic == "") {
		errs = append(errs, errors.New("mqtt.broker and mqtt.topic must be set when mqtt is enabled"))
	}
	if c.History.Enabled && c.History.File == "" {
		errs = append(errs, errors.New("history.file must be set when history is enabled"))
	}

	return errors.Join(errs...)
}

// NoFaceLabel returns the label reported to consumers when no face is found.
func (c *Config) NoFaceLabel() emotion.Label {
	l, err := emotion.Parse(c.Detect.NoFaceLabel)
	if err != nil {
		return emotion.Neutral
	}
	return l
}

// QuitKeyCode returns the key code the preview window reports for the quit key.
func (c *Config) QuitKeyCode() int {
	r, _ := utf8.DecodeRuneInString(c.Preview.QuitKey)
	return int(r)
}
