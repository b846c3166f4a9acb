// Package app wires configuration, logging, and pipeline clients into the
// CLI commands.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/mistri-ai/mistri/internal/audio"
	"github.com/mistri-ai/mistri/internal/catalog"
	"github.com/mistri-ai/mistri/internal/cli"
	"github.com/mistri-ai/mistri/internal/config"
	"github.com/mistri-ai/mistri/internal/doctor"
	"github.com/mistri-ai/mistri/internal/enhance"
	"github.com/mistri-ai/mistri/internal/fsm"
	"github.com/mistri-ai/mistri/internal/logging"
	"github.com/mistri-ai/mistri/internal/order"
	"github.com/mistri-ai/mistri/internal/speech"
	"github.com/mistri-ai/mistri/internal/version"
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr, Stdin: os.Stdin}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("mistri"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("mistri"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	loaded, err := config.Load(parsed.EnvPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, warning := range loaded.Warnings {
		fmt.Fprintf(r.Stderr, "warning: %s\n", warning)
		logger.Warn("config warning", "message", warning)
	}

	switch parsed.Command {
	case cli.CommandDevices:
		return r.runDevices(ctx)
	case cli.CommandDoctor:
		return r.runDoctor(ctx, loaded)
	case cli.CommandMigrate:
		return r.runMigrate(ctx, loaded.Config)
	case cli.CommandSearch:
		return r.runSearch(ctx, loaded.Config, logger, parsed.Query)
	case cli.CommandOrder:
		return r.runOrder(ctx, loaded.Config, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unknown command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) runDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	for _, dev := range devices {
		marker := " "
		if dev.Default {
			marker = "*"
		}
		status := "available"
		if !dev.Available {
			status = "unavailable"
		}
		if dev.Muted {
			status += ", muted"
		}
		fmt.Fprintf(r.Stdout, "%s %s (%s) [%s]\n", marker, dev.ID, dev.Description, status)
	}
	return 0
}

func (r Runner) runDoctor(ctx context.Context, loaded config.Loaded) int {
	report := doctor.Run(ctx, loaded)
	fmt.Fprintln(r.Stdout, report.String())
	if !report.OK() {
		return 1
	}
	return 0
}

func (r Runner) runMigrate(ctx context.Context, cfg config.Config) int {
	if cfg.Database.URL == "" {
		fmt.Fprintln(r.Stderr, "error: MISTRI_DATABASE_URL is required for migrate")
		return 1
	}
	if err := catalog.Migrate(ctx, cfg.Database.URL); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintln(r.Stdout, "migrations applied")
	return 0
}

// runSearch executes the manual path: enhancement is attempted when the
// completion service is configured, then the basic search runs.
func (r Runner) runSearch(ctx context.Context, cfg config.Config, logger *slog.Logger, query string) int {
	if strings.TrimSpace(query) == "" {
		fmt.Fprintln(r.Stderr, "error: search requires query text")
		return 2
	}

	pipeline, cleanup, err := r.buildPipeline(ctx, cfg, logger, false)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer cleanup()

	terms := pipeline.enhancer.Enhance(ctx, query)
	if err := pipeline.controller.SubmitManual(ctx, terms); err != nil {
		fmt.Fprintf(r.Stderr, "error: %s\n", userMessage(err))
		return 1
	}
	r.printResults(pipeline.controller.Snapshot())
	return 0
}

// runOrder executes the interactive voice path, degrading to typed input
// when the speech service is unavailable.
func (r Runner) runOrder(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	pipeline, cleanup, err := r.buildPipeline(ctx, cfg, logger, true)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer cleanup()

	ctrl := pipeline.controller
	defer ctrl.Close()

	if err := ctrl.StartListening(ctx); err != nil {
		fmt.Fprintf(r.Stderr, "error: %s\n", userMessage(err))
		return 1
	}
	fmt.Fprintln(r.Stdout, "Recording... press Enter to stop.")

	if !r.waitForLine(ctx) {
		return 1 // interrupted; deferred Close releases the device
	}

	fmt.Fprintln(r.Stdout, "Processing...")
	_ = ctrl.StopAndSearch(ctx)

	switch ctrl.State() {
	case fsm.StateSuccess:
		r.printResults(ctrl.Snapshot())
		return 0
	case fsm.StateAwaitingManual:
		return r.runManualFallback(ctx, ctrl)
	default:
		fmt.Fprintf(r.Stderr, "error: %s\n", userMessage(ctrl.Snapshot().Err))
		return 1
	}
}

// runManualFallback keeps the session alive on the typed-entry path.
func (r Runner) runManualFallback(ctx context.Context, ctrl *order.Controller) int {
	fmt.Fprintln(r.Stdout, "Speech service is unavailable right now. Type your search terms:")
	line, ok := r.readLine(ctx)
	if !ok || strings.TrimSpace(line) == "" {
		return 1
	}

	if err := ctrl.SubmitManual(ctx, line); err != nil {
		fmt.Fprintf(r.Stderr, "error: %s\n", userMessage(err))
		return 1
	}
	r.printResults(ctrl.Snapshot())
	return 0
}

func (r Runner) printResults(snap order.Snapshot) {
	if snap.Transcript != "" {
		fmt.Fprintf(r.Stdout, "Heard: %s\n", snap.Transcript)
	}
	if snap.SearchTerms != "" && snap.SearchTerms != snap.Transcript {
		fmt.Fprintf(r.Stdout, "Searching for: %s\n", snap.SearchTerms)
	}
	if len(snap.Products) == 0 {
		fmt.Fprintln(r.Stdout, "No products matched.")
		return
	}
	for _, p := range snap.Products {
		fmt.Fprintf(r.Stdout, "- %s (%s) ₹%.2f, %d in stock\n", p.Name, p.Brand, p.Price, p.Stock)
	}
}

// waitForLine blocks until the user presses Enter or ctx is cancelled.
func (r Runner) waitForLine(ctx context.Context) bool {
	_, ok := r.readLine(ctx)
	return ok
}

func (r Runner) readLine(ctx context.Context) (string, bool) {
	lines := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(r.Stdin)
		if scanner.Scan() {
			lines <- scanner.Text()
			return
		}
		close(lines)
	}()

	select {
	case <-ctx.Done():
		return "", false
	case line, ok := <-lines:
		return line, ok
	}
}

// pipeline bundles the wired clients behind the controller.
type pipeline struct {
	controller *order.Controller
	enhancer   order.Enhancer
}

// buildPipeline constructs the dependency-injected clients. The recorder is
// only wired for voice commands; manual search needs no device.
func (r Runner) buildPipeline(ctx context.Context, cfg config.Config, logger *slog.Logger, withAudio bool) (*pipeline, func(), error) {
	if cfg.Database.URL == "" {
		return nil, nil, errors.New("MISTRI_DATABASE_URL is required for product search")
	}

	pool, err := catalog.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	cleanup := pool.Close

	searcher := catalog.NewSearcher(catalog.NewPostgresStore(pool), logger)

	var (
		transcriber order.Transcriber
		enhancer    order.Enhancer
	)
	if cfg.Speech.APIKey != "" {
		clientCfg := openai.DefaultConfig(cfg.Speech.APIKey)
		if cfg.Speech.BaseURL != "" {
			clientCfg.BaseURL = cfg.Speech.BaseURL
		}
		client := openai.NewClientWithConfig(clientCfg)
		transcriber = speech.NewClient(client, cfg.Speech.TranscribeModel, logger)
		enhancer = enhance.New(client, cfg.Speech.EnhanceModel, logger)
	} else {
		if withAudio {
			cleanup()
			return nil, nil, errors.New("MISTRI_OPENAI_API_KEY is required for voice ordering")
		}
		enhancer = identityEnhancer{}
	}

	var recorder order.Recorder = noDeviceRecorder{}
	if withAudio {
		recorder = audio.NewRecorder(cfg.Audio.Input, cfg.Audio.Fallback, logger)
	}

	ctrl := order.NewController(logger, recorder, transcriber, enhancer, searcher, cfg.Speech.Language)
	ctrl.SetStageTimeout(cfg.Pipeline.StageTimeout)
	return &pipeline{controller: ctrl, enhancer: enhancer}, cleanup, nil
}

// userMessage maps pipeline failures onto actionable user-facing text.
func userMessage(err error) string {
	if err == nil {
		return "search failed"
	}
	if errors.Is(err, audio.ErrDeviceAccess) {
		return "microphone unavailable; check permissions and input devices"
	}
	if errors.Is(err, catalog.ErrNoValidSearchTerms) {
		return "no usable search terms; please refine your search"
	}
	switch speech.KindOf(err) {
	case speech.KindNoSpeech:
		return "no speech detected; try recording again"
	case speech.KindInvalidCredentials:
		return "speech service credentials rejected; try typed search instead"
	case speech.KindPayloadTooLarge:
		return "recording too large; try a shorter recording"
	case speech.KindUnsupportedFormat:
		return "recording format rejected by the speech service"
	case speech.KindQuotaExceeded, speech.KindServerError:
		return "speech service unavailable; use typed search"
	}
	return err.Error()
}

// identityEnhancer skips enhancement when no completion service is wired.
type identityEnhancer struct{}

func (identityEnhancer) Enhance(_ context.Context, raw string) string { return raw }

// noDeviceRecorder guards manual-only commands from touching the microphone.
type noDeviceRecorder struct{}

func (noDeviceRecorder) Start(context.Context) error { return audio.ErrDeviceAccess }
func (noDeviceRecorder) Stop() (audio.Payload, error) {
	return audio.Payload{}, audio.ErrNotRecording
}
func (noDeviceRecorder) Cleanup() {}
