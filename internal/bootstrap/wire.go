package bootstrap

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"mikecheck/internal/audio"
	"mikecheck/internal/capture"
	"mikecheck/internal/clock"
	"mikecheck/internal/community"
	"mikecheck/internal/config"
	"mikecheck/internal/emergency"
	"mikecheck/internal/logging"
	"mikecheck/internal/playback"
	"mikecheck/internal/ports"
	"mikecheck/internal/preferences"
	"mikecheck/internal/providers/deepgram"
	"mikecheck/internal/recommend"
	"mikecheck/internal/rules"
	"mikecheck/internal/stories"
	"mikecheck/internal/tts"
	"mikecheck/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Controller *usecase.Controller
	Config     config.Config
	Logger     zerolog.Logger

	closers []func() error
}

// Close releases resources opened by Build.
func (s Services) Close() error {
	var errs []error
	for _, closeFn := range s.closers {
		errs = append(errs, closeFn())
	}
	return errors.Join(errs...)
}

// Build wires all backend dependencies for the current runtime. The caller
// runs the returned controller.
func Build(events ports.EventSink) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	logger, closeLog, err := logging.New(logging.Config{
		Level:   cfg.Log.Level,
		Console: cfg.Log.Console,
		File:    cfg.Log.File,
	})
	if err != nil {
		return Services{}, err
	}
	services := Services{Config: cfg, Logger: logger, closers: []func() error{closeLog}}

	normalizer, err := rules.New(rules.Options{Path: cfg.Rules.Path, Passes: cfg.Rules.Passes})
	if err != nil {
		_ = services.Close()
		return Services{}, err
	}
	logger.Debug().Int("rules", normalizer.Len()).Str("path", cfg.Rules.Path).Msg("rules loaded")

	catalog, err := recommend.DefaultCatalog()
	if err != nil {
		_ = services.Close()
		return Services{}, fmt.Errorf("load recommendation catalog: %w", err)
	}

	systemClock := clock.System{}
	randomness := clock.Random{}

	listener := capture.NewService(
		audio.NewFFMPEGCapture(cfg.Audio.RecorderCommand, logger),
		deepgram.NewProvider(deepgram.Config{
			APIKey:      cfg.Deepgram.APIKey,
			APIBaseURL:  cfg.Deepgram.APIBaseURL,
			Model:       cfg.Deepgram.Model,
			SmartFormat: cfg.Deepgram.SmartFormat,
			Endpointing: cfg.Deepgram.Endpointing,
		}, logger),
		normalizer,
		capture.Config{
			Audio: ports.AudioConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
			},
			Streaming: ports.StreamingConfig{
				SampleRate:     cfg.Audio.SampleRate,
				Channels:       cfg.Audio.Channels,
				Encoding:       "linear16",
				InterimResults: true,
			},
			ChunkSize:     cfg.Audio.ChunkSize,
			MinConfidence: cfg.Speech.MinConfidence,
			SilenceWindow: cfg.Speech.SilenceWindow,
			Clock:         systemClock,
		},
		logger,
	)

	speaker := playback.NewQueue(
		tts.NewEspeak(cfg.Speech.SynthCommand, logger),
		playback.Config{Pause: cfg.Speech.PlaybackPause, MaxAttempts: cfg.Speech.PlaybackRetries},
		logger,
	)

	tipOptions := community.Options{Random: randomness, Seed: true}
	if cfg.Stories.TipJournal != "" {
		tipOptions.Journal = stories.NewFileStore(cfg.Stories.TipJournal)
	}

	alertOptions := emergency.Options{WebhookURL: cfg.Emergency.WebhookURL}
	if cfg.Emergency.AlertLog != "" {
		alertOptions.Recorder = stories.NewFileStore(cfg.Emergency.AlertLog)
	}

	services.Controller = usecase.NewController(
		usecase.Dependencies{
			Capture:     listener,
			Playback:    speaker,
			Tips:        community.NewStore(tipOptions),
			Preferences: preferences.NewStore(cfg.Speech.Language),
			Recommender: recommend.NewResolver(catalog, randomness),
			Alerter:     emergency.NewNotifier(alertOptions, logger),
			Events:      events,
			Clock:       systemClock,
			Random:      randomness,
		},
		usecase.Config{Timings: usecase.Timings{
			ResponsePause:       cfg.Conversation.ResponsePause,
			UserResponseTimeout: cfg.Conversation.UserResponseTimeout,
			ClarificationHold:   cfg.Conversation.ClarificationHold,
		}},
		logger,
	)

	return services, nil
}
