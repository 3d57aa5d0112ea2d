package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"mikecheck/internal/bootstrap"
	"mikecheck/internal/domain"
	"mikecheck/internal/usecase"
)

const (
	eventSession = "mikecheck:session"
	eventNotice  = "mikecheck:notice"
)

var errNotInitialized = errors.New("application is not initialized")

// App is the Wails application root.
type App struct {
	ctx  context.Context
	emit func(ctx context.Context, name string, data ...interface{})

	controller *usecase.Controller
	services   bootstrap.Services
	bootErr    error

	stopRun context.CancelFunc
	runDone chan struct{}
}

func NewApp() *App {
	return &App{emit: runtime.EventsEmit}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a)
	if err != nil {
		a.bootErr = err
		a.Notice(domain.ErrorCodeStartup, err.Error())
		return
	}
	a.services = services
	a.controller = services.Controller

	runCtx, cancel := context.WithCancel(ctx)
	a.stopRun = cancel
	a.runDone = make(chan struct{})
	go func() {
		defer close(a.runDone)
		if err := a.controller.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			services.Logger.Error().Err(err).Msg("controller stopped")
		}
	}()

	services.Logger.Info().Str("language", string(services.Config.Speech.Language)).Msg("mike is ready")
	a.SessionChanged(a.controller.Snapshot())
}

func (a *App) shutdown(_ context.Context) {
	if a.stopRun == nil {
		return
	}
	a.stopRun()
	<-a.runDone
	if err := a.services.Close(); err != nil {
		a.services.Logger.Warn().Err(err).Msg("shutdown")
	}
}

// Listen waits for the wake phrase.
func (a *App) Listen() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.controller.Listen()
	return nil
}

func (a *App) SelectMode(mode string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.controller.SelectMode(domain.Mode(mode))
}

// SubmitText handles a typed reply or a clicked suggestion.
func (a *App) SubmitText(text string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.controller.SubmitText(text)
	return nil
}

func (a *App) RequestContent(contentType string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.controller.RequestContent(domain.ContentType(contentType))
}

func (a *App) RequestCommunity() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.controller.RequestCommunity()
	return nil
}

func (a *App) RequestEmergency() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.controller.RequestEmergency()
	return nil
}

func (a *App) SetLanguage(language string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.controller.SetLanguage(domain.Language(language))
}

func (a *App) SaveEmergencyContact(name string, phone string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.controller.SaveEmergencyContact(name, phone)
}

func (a *App) DismissEmergencyContact() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.controller.DismissEmergencyContact()
	return nil
}

func (a *App) LikeRecommendation() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.controller.LikeRecommendation()
	return nil
}

func (a *App) DislikeRecommendation() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.controller.DislikeRecommendation()
	return nil
}

func (a *App) Stop() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.controller.Stop()
	return nil
}

func (a *App) Reset() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.controller.Reset()
	return nil
}

// GetSnapshot returns the latest session view.
func (a *App) GetSnapshot() domain.Snapshot {
	if a.controller == nil {
		snapshot := domain.Snapshot{State: domain.StateIdle, Mode: domain.ModeIdle, Language: domain.DefaultLanguage}
		if a.bootErr != nil {
			snapshot.Message = a.bootErr.Error()
		}
		return snapshot
	}
	return a.controller.Snapshot()
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	cfg := a.services.Config
	return map[string]string{
		"provider":    "Deepgram",
		"model":       cfg.Deepgram.Model,
		"language":    string(cfg.Speech.Language),
		"rulesFile":   cfg.Rules.Path,
		"audioInput":  cfg.Audio.InputDevice,
		"synthesizer": cfg.Speech.SynthCommand,
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.controller == nil {
		return errNotInitialized
	}
	return nil
}

// SessionChanged emits the session view to the frontend.
func (a *App) SessionChanged(snapshot domain.Snapshot) {
	if a.ctx == nil {
		return
	}
	a.emit(a.ctx, eventSession, snapshot)
}

// Notice emits non-fatal backend problems to the UI.
func (a *App) Notice(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	a.emit(a.ctx, eventNotice, map[string]string{
		"code":    string(code),
		"message": noticeMessage(code, detail),
		"detail":  detail,
	})
}

func noticeMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeCapture:
		return "Listening issue"
	case domain.ErrorCodePlayback:
		return "Speech playback issue"
	case domain.ErrorCodeAlert:
		return "Emergency alert failed"
	case domain.ErrorCodePreferences:
		return "Preferences not saved"
	case domain.ErrorCodeStorage:
		return "Tip not saved"
	case domain.ErrorCodeInput:
		return fmt.Sprintf("Can't do that right now: %s", detail)
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
