// Package engine wires user gestures to the annotation features: in-place
// simplification, hover definitions, bias banners and read-aloud.
//
// Every controller method runs on the dispatcher's thread. Service calls run
// on their own goroutines and post their continuation back, so document,
// registry and prompt state is never touched concurrently.
package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/metcalfc/simplyread/internal/annotate"
	"github.com/metcalfc/simplyread/internal/document"
	"github.com/metcalfc/simplyread/internal/events"
	"github.com/metcalfc/simplyread/internal/logger"
	"github.com/metcalfc/simplyread/internal/prompt"
	"github.com/metcalfc/simplyread/internal/speech"
)

const (
	DefaultBannerDwell   = 5 * time.Second
	DefaultAffordanceTTL = 10 * time.Second
)

// Service is the subset of simplify.Service the controllers call.
type Service interface {
	Simplify(ctx context.Context, word, sentence string, level prompt.Level) string
	Define(ctx context.Context, word, sentence string) string
	AnalyzeBias(ctx context.Context, passage string) string
}

// Deps are the collaborators an Engine is built from.
type Deps struct {
	Doc        *document.Document
	Service    Service
	Speaker    speech.Speaker
	Dispatcher events.Dispatcher
	Clock      events.Clock

	BannerDwell   time.Duration
	AffordanceTTL time.Duration
	Logger        *zap.SugaredLogger
}

// env is shared by the controllers of one engine.
type env struct {
	doc      *document.Document
	svc      Service
	dispatch events.Dispatcher
	clock    events.Clock
	logger   *zap.SugaredLogger

	ctx      context.Context
	inflight sync.WaitGroup
}

// goAsync runs call off the loop and posts then(result) back to it.
func goAsync[T any](e *env, call func(ctx context.Context) T, then func(T)) {
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		v := call(e.ctx)
		e.dispatch.Post(func() { then(v) })
	}()
}

// after schedules fn on the loop once d has elapsed.
func (e *env) after(d time.Duration, fn func()) events.Timer {
	return e.clock.AfterFunc(d, func() { e.dispatch.Post(fn) })
}

// Engine owns the per-document annotation state and its controllers.
type Engine struct {
	env      *env
	cancel   context.CancelFunc
	registry *annotate.Registry
	prompt   *prompt.Prompt

	Simplify  *SimplifyController
	Tooltip   *TooltipController
	Bias      *BiasController
	ReadAloud *ReadAloudController

	unsubscribe []func()
}

// New builds an engine for d.Doc.
func New(d Deps) *Engine {
	if d.Speaker == nil {
		d.Speaker = speech.Nop{}
	}
	if d.Clock == nil {
		d.Clock = events.RealClock{}
	}
	if d.BannerDwell <= 0 {
		d.BannerDwell = DefaultBannerDwell
	}
	if d.AffordanceTTL <= 0 {
		d.AffordanceTTL = DefaultAffordanceTTL
	}
	if d.Logger == nil {
		d.Logger = logger.Named("engine")
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &env{
		doc:      d.Doc,
		svc:      d.Service,
		dispatch: d.Dispatcher,
		clock:    d.Clock,
		logger:   d.Logger,
		ctx:      ctx,
	}

	reg := annotate.NewRegistry()
	p := prompt.New(d.Doc)
	return &Engine{
		env:       e,
		cancel:    cancel,
		registry:  reg,
		prompt:    p,
		Simplify:  newSimplifyController(e, annotate.NewAnnotator(d.Doc, reg), p),
		Tooltip:   newTooltipController(e),
		Bias:      newBiasController(e, d.BannerDwell),
		ReadAloud: newReadAloudController(e, d.Speaker, d.AffordanceTTL),
	}
}

// Attach subscribes every controller to bus.
func (e *Engine) Attach(bus *events.Bus) {
	e.unsubscribe = append(e.unsubscribe,
		e.Simplify.Attach(bus),
		e.Tooltip.Attach(bus),
		e.Bias.Attach(bus),
		e.ReadAloud.Attach(bus),
	)
}

// Detach unsubscribes every controller.
func (e *Engine) Detach() {
	for _, u := range e.unsubscribe {
		u()
	}
	e.unsubscribe = nil
}

// Close detaches the engine and cancels outstanding service calls. Their
// results are still posted and handled as fallbacks.
func (e *Engine) Close() {
	e.Detach()
	e.cancel()
}

// Wait blocks until every outstanding service call has posted its result.
func (e *Engine) Wait() {
	e.env.inflight.Wait()
}

// Document returns the document the engine annotates.
func (e *Engine) Document() *document.Document { return e.env.doc }

// Registry returns the live substitution registry.
func (e *Engine) Registry() *annotate.Registry { return e.registry }

// Prompt returns the difficulty prompt.
func (e *Engine) Prompt() *prompt.Prompt { return e.prompt }
