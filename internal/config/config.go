package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"mikecheck/internal/domain"
)

// Config stores runtime configuration for the desktop app and the stories server.
type Config struct {
	Deepgram     DeepgramConfig
	Audio        AudioConfig
	Speech       SpeechConfig
	Rules        RulesConfig
	Conversation ConversationConfig
	Stories      StoriesConfig
	Emergency    EmergencyConfig
	Log          LogConfig
}

type DeepgramConfig struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	SmartFormat bool
	Endpointing int
}

type AudioConfig struct {
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
	ChunkSize       int
}

type SpeechConfig struct {
	Language        domain.Language
	SynthCommand    string
	PlaybackPause   time.Duration
	PlaybackRetries int
	MinConfidence   float64
	SilenceWindow   time.Duration
}

type RulesConfig struct {
	Path   string
	Passes int
}

type ConversationConfig struct {
	ResponsePause       time.Duration
	UserResponseTimeout time.Duration
	ClarificationHold   time.Duration
}

type StoriesConfig struct {
	Addr      string
	File      string
	StaticDir string
	// TipJournal, when set, receives every shared community tip.
	TipJournal string
}

type EmergencyConfig struct {
	WebhookURL string
	AlertLog   string
}

type LogConfig struct {
	Level   string
	Console bool
	File    string
}

// Load reads an optional env file, then resolves configuration from
// environment variables and defaults. Variables already set win over the file.
func Load() (Config, error) {
	if err := loadEnvFile(envOrDefault("MIKECHECK_ENV_FILE", ".env")); err != nil {
		return Config{}, err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}

	language := domain.Language(strings.ToLower(envOrDefault("MIKECHECK_LANGUAGE", string(domain.DefaultLanguage))))
	if !language.Valid() {
		return Config{}, fmt.Errorf("unsupported MIKECHECK_LANGUAGE %q", language)
	}

	rulesPath := strings.TrimSpace(os.Getenv("MIKECHECK_RULES_FILE"))
	if rulesPath == "" {
		rulesPath = filepath.Join(home, ".config", "mikecheck", "speech.rules")
	}

	cfg := Config{
		Deepgram: DeepgramConfig{
			APIKey:      strings.TrimSpace(os.Getenv("DEEPGRAM_API_KEY")),
			APIBaseURL:  envOrDefault("DEEPGRAM_API_BASE", "https://api.deepgram.com/v1"),
			Model:       envOrDefault("DEEPGRAM_MODEL", "nova-2"),
			SmartFormat: envOrDefaultBool("DEEPGRAM_SMART_FORMAT", true),
			Endpointing: envOrDefaultInt("DEEPGRAM_ENDPOINTING_MS", 300),
		},
		Audio: AudioConfig{
			RecorderCommand: envOrDefault("MIKECHECK_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:     envOrDefault("MIKECHECK_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice: firstNonEmpty(
				os.Getenv("MIKECHECK_AUDIO_INPUT_DEVICE"),
				os.Getenv("DEEPGRAM_PULSE_SOURCE"),
				"default",
			),
			SampleRate: envOrDefaultInt("MIKECHECK_SAMPLE_RATE", 16000),
			Channels:   envOrDefaultInt("MIKECHECK_CHANNELS", 1),
			ChunkSize:  envOrDefaultInt("MIKECHECK_AUDIO_CHUNK_SIZE", 4096),
		},
		Speech: SpeechConfig{
			Language:        language,
			SynthCommand:    envOrDefault("MIKECHECK_ESPEAK_COMMAND", "espeak-ng"),
			PlaybackPause:   envOrDefaultMillis("MIKECHECK_PLAYBACK_PAUSE_MS", 300*time.Millisecond),
			PlaybackRetries: envOrDefaultInt("MIKECHECK_PLAYBACK_ATTEMPTS", 3),
			MinConfidence:   envOrDefaultFloat("MIKECHECK_MIN_CONFIDENCE", 0.6),
			SilenceWindow:   envOrDefaultMillis("MIKECHECK_SILENCE_MS", 2*time.Second),
		},
		Rules: RulesConfig{
			Path:   rulesPath,
			Passes: envOrDefaultInt("MIKECHECK_RULE_PASSES", 10),
		},
		Conversation: ConversationConfig{
			ResponsePause:       envOrDefaultMillis("MIKECHECK_RESPONSE_PAUSE_MS", 3*time.Second),
			UserResponseTimeout: envOrDefaultMillis("MIKECHECK_USER_TIMEOUT_MS", 7*time.Second),
			ClarificationHold:   envOrDefaultMillis("MIKECHECK_CLARIFICATION_MS", 10*time.Second),
		},
		Stories: StoriesConfig{
			Addr:       envOrDefault("MIKECHECK_STORIES_ADDR", ":3000"),
			File:       envOrDefault("MIKECHECK_STORIES_FILE", "stories.json"),
			StaticDir:  strings.TrimSpace(os.Getenv("MIKECHECK_STORIES_STATIC")),
			TipJournal: strings.TrimSpace(os.Getenv("MIKECHECK_TIP_JOURNAL")),
		},
		Emergency: EmergencyConfig{
			WebhookURL: strings.TrimSpace(os.Getenv("MIKECHECK_ALERT_WEBHOOK")),
			AlertLog:   strings.TrimSpace(os.Getenv("MIKECHECK_ALERT_LOG")),
		},
		Log: LogConfig{
			Level:   envOrDefault("MIKECHECK_LOG_LEVEL", "info"),
			Console: envOrDefaultBool("MIKECHECK_LOG_CONSOLE", true),
			File:    strings.TrimSpace(os.Getenv("MIKECHECK_LOG_FILE")),
		},
	}

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Audio.ChunkSize < 256 {
		cfg.Audio.ChunkSize = 4096
	}
	if cfg.Deepgram.Endpointing < 0 {
		cfg.Deepgram.Endpointing = 0
	}
	if cfg.Speech.PlaybackRetries <= 0 {
		cfg.Speech.PlaybackRetries = 3
	}
	if cfg.Speech.MinConfidence <= 0 || cfg.Speech.MinConfidence >= 1 {
		cfg.Speech.MinConfidence = 0.6
	}
	if cfg.Rules.Passes <= 0 {
		cfg.Rules.Passes = 10
	}

	return cfg, nil
}

// loadEnvFile applies path to the environment. A missing file is ignored.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// envOrDefaultMillis reads a non-negative millisecond count.
func envOrDefaultMillis(key string, fallback time.Duration) time.Duration {
	ms := envOrDefaultInt(key, -1)
	if ms < 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
