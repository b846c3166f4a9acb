// Package order coordinates the voice-ordering lifecycle: capture,
// transcription, enhancement, and product search, with a manual-entry
// fallback when the speech service is degraded.
package order

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mistri-ai/mistri/internal/audio"
	"github.com/mistri-ai/mistri/internal/catalog"
	"github.com/mistri-ai/mistri/internal/fsm"
	"github.com/mistri-ai/mistri/internal/speech"
)

// defaultStageTimeout bounds each remote stage; the source platform relied
// on socket defaults, which is not a portable guarantee.
const defaultStageTimeout = 30 * time.Second

// Recorder is the microphone lifecycle consumed by the controller.
type Recorder interface {
	Start(ctx context.Context) error
	Stop() (audio.Payload, error)
	Cleanup()
}

// Transcriber converts one finalized audio payload into text.
type Transcriber interface {
	Transcribe(ctx context.Context, payload audio.Payload, language string) (string, error)
}

// Enhancer rewrites a transcript into search terms, best-effort.
type Enhancer interface {
	Enhance(ctx context.Context, raw string) string
}

// Searcher runs the product search for a text query.
type Searcher interface {
	Search(ctx context.Context, text string) ([]catalog.Product, error)
}

// identityEnhancer preserves pipeline flow when no enhancer is wired.
type identityEnhancer struct{}

func (identityEnhancer) Enhance(_ context.Context, raw string) string { return raw }

// Snapshot is a point-in-time view of one ordering session.
type Snapshot struct {
	State       fsm.State
	SessionID   string
	Transcript  string
	SearchTerms string
	Products    []catalog.Product
	Err         error
}

// Controller owns the orchestrator state machine. All remote stages run
// strictly sequentially within one session; every stage result is committed
// through a generation check so responses resolving after Close are
// discarded instead of mutating a closed session.
type Controller struct {
	logger       *slog.Logger
	recorder     Recorder
	transcriber  Transcriber
	enhancer     Enhancer
	searcher     Searcher
	language     string
	stageTimeout time.Duration

	mu          sync.RWMutex
	state       fsm.State
	generation  uint64
	sessionID   string
	transcript  string
	searchTerms string
	products    []catalog.Product
	lastErr     error
}

// NewController wires the pipeline stages into one orchestrator.
func NewController(
	logger *slog.Logger,
	recorder Recorder,
	transcriber Transcriber,
	enhancer Enhancer,
	searcher Searcher,
	language string,
) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if enhancer == nil {
		enhancer = identityEnhancer{}
	}
	return &Controller{
		logger:       logger,
		recorder:     recorder,
		transcriber:  transcriber,
		enhancer:     enhancer,
		searcher:     searcher,
		language:     language,
		stageTimeout: defaultStageTimeout,
	}
}

// SetStageTimeout overrides the per-stage deadline. Zero or negative values
// keep the default.
func (c *Controller) SetStageTimeout(d time.Duration) {
	if d > 0 {
		c.stageTimeout = d
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state == "" {
		return fsm.StateIdle
	}
	return c.state
}

// Snapshot returns a copy of the visible session fields.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	state := c.state
	if state == "" {
		state = fsm.StateIdle
	}
	products := make([]catalog.Product, len(c.products))
	copy(products, c.products)
	return Snapshot{
		State:       state,
		SessionID:   c.sessionID,
		Transcript:  c.transcript,
		SearchTerms: c.searchTerms,
		Products:    products,
		Err:         c.lastErr,
	}
}

// StartListening begins a recording session. On device failure the session
// moves to Failed and the user may retry.
func (c *Controller) StartListening(ctx context.Context) error {
	gen, err := c.begin(fsm.EventStart)
	if err != nil {
		return err
	}

	if err := c.recorder.Start(ctx); err != nil {
		c.recorder.Cleanup()
		c.fail(gen, err)
		return err
	}

	if !c.commit(gen, "", nil) {
		// Close ran while the device was being acquired; release the
		// handle Close could not see yet.
		c.recorder.Cleanup()
		return nil
	}

	c.logger.Info("listening", "session", c.sessionSnapshotID())
	return nil
}

// StopAndSearch ends recording and runs the full pipeline: transcribe,
// enhance (best-effort), search. Quota and server-side speech failures
// degrade to manual entry instead of failing the session.
func (c *Controller) StopAndSearch(ctx context.Context) error {
	gen, err := c.begin(fsm.EventStop)
	if err != nil {
		return err
	}

	payload, err := c.recorder.Stop()
	if err != nil {
		c.recorder.Cleanup()
		c.fail(gen, err)
		return err
	}

	text, err := c.transcribe(ctx, payload)
	if err != nil {
		switch speech.KindOf(err) {
		case speech.KindQuotaExceeded, speech.KindServerError:
			c.logger.Warn("speech service degraded; offering manual entry",
				"kind", string(speech.KindOf(err)))
			c.commit(gen, fsm.EventDegrade, func() { c.lastErr = err })
		default:
			c.fail(gen, err)
		}
		return err
	}

	if !c.commit(gen, "", func() { c.transcript = text }) {
		return nil // session closed while transcribing
	}

	terms := c.enhance(ctx, text)
	if !c.commit(gen, "", func() { c.searchTerms = terms }) {
		return nil
	}

	return c.runSearch(ctx, gen, terms)
}

// SubmitManual runs the basic search path on user-typed text, bypassing
// audio and transcription entirely.
func (c *Controller) SubmitManual(ctx context.Context, text string) error {
	gen, err := c.begin(fsm.EventSubmit)
	if err != nil {
		return err
	}
	if !c.commit(gen, "", func() { c.searchTerms = text }) {
		return nil
	}
	return c.runSearch(ctx, gen, text)
}

// Close abandons the session from any state: the device is released,
// transient session data is discarded, and any in-flight stage results are
// ignored when they resolve.
func (c *Controller) Close() {
	c.mu.Lock()
	c.generation++
	c.state = fsm.StateIdle
	c.sessionID = ""
	c.transcript = ""
	c.searchTerms = ""
	c.products = nil
	c.lastErr = nil
	c.mu.Unlock()

	c.recorder.Cleanup()
	c.logger.Info("session closed")
}

// begin validates and applies the entry transition for a public action and
// returns the generation its results must commit against. A new recording
// mints a fresh session; a manual submit keeps the session context of a
// degraded voice attempt.
func (c *Controller) begin(event fsm.Event) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.state
	if current == "" {
		current = fsm.StateIdle
	}
	next, err := fsm.Transition(current, event)
	if err != nil {
		return 0, err
	}
	c.state = next
	c.generation++

	switch event {
	case fsm.EventStart:
		c.sessionID = uuid.NewString()
		c.transcript = ""
		c.searchTerms = ""
		c.products = nil
		c.lastErr = nil
	case fsm.EventSubmit:
		if c.sessionID == "" {
			c.sessionID = uuid.NewString()
		}
		c.products = nil
		c.lastErr = nil
	}
	return c.generation, nil
}

// commit applies an event and mutation only when gen is still the live
// generation. A stale generation means Close ran mid-stage; the result is
// dropped and the visible state left untouched. An empty event commits the
// mutation without a state change.
func (c *Controller) commit(gen uint64, event fsm.Event, mutate func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return false
	}
	if event != "" {
		next, err := fsm.Transition(c.state, event)
		if err != nil {
			return false
		}
		c.state = next
	}
	if mutate != nil {
		mutate()
	}
	return true
}

func (c *Controller) fail(gen uint64, err error) {
	c.commit(gen, fsm.EventFail, func() { c.lastErr = err })
}

// runSearch executes the search stage and commits Success or Failed.
// Zero matches is a valid success, distinct from pipeline failure.
func (c *Controller) runSearch(ctx context.Context, gen uint64, terms string) error {
	stageCtx, cancel := c.stageContext(ctx)
	defer cancel()

	products, err := c.searcher.Search(stageCtx, terms)
	if err != nil {
		c.fail(gen, err)
		return err
	}

	c.commit(gen, fsm.EventFound, func() { c.products = products })
	c.logger.Info("order search complete", "matches", len(products))
	return nil
}

func (c *Controller) transcribe(ctx context.Context, payload audio.Payload) (string, error) {
	stageCtx, cancel := c.stageContext(ctx)
	defer cancel()
	return c.transcriber.Transcribe(stageCtx, payload, c.language)
}

func (c *Controller) enhance(ctx context.Context, text string) string {
	stageCtx, cancel := c.stageContext(ctx)
	defer cancel()
	return c.enhancer.Enhance(stageCtx, text)
}

func (c *Controller) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := c.stageTimeout
	if timeout <= 0 {
		timeout = defaultStageTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

func (c *Controller) sessionSnapshotID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}
