package main

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/metcalfc/simplyread/internal/config"
	"github.com/metcalfc/simplyread/internal/credential"
	"github.com/metcalfc/simplyread/internal/engine"
	"github.com/metcalfc/simplyread/internal/errors"
	"github.com/metcalfc/simplyread/internal/events"
	"github.com/metcalfc/simplyread/internal/genai"
	"github.com/metcalfc/simplyread/internal/logger"
	"github.com/metcalfc/simplyread/internal/reader"
	"github.com/metcalfc/simplyread/internal/simplify"
	"github.com/metcalfc/simplyread/internal/speech"
	"github.com/metcalfc/simplyread/internal/state"
)

const logFileName = "simplyread.log"

// keySource lists where the API key may come from, in order. The helper is
// left out when serving as the helper so it cannot call itself.
func keySource(cfg *config.Config, withHelper bool) credential.Source {
	chain := credential.Chain{
		credential.StaticSource(cfg.Credential.APIKey),
		credential.EnvSource(cfg.Credential.Env),
	}
	if withHelper && cfg.Credential.Helper != "" {
		chain = append(chain, credential.HelperSource{Command: cfg.Credential.Helper})
	}
	return chain
}

// newGenerator builds the configured backend behind a rate limiter and
// circuit breaker.
func newGenerator(cfg *config.Config, key genai.KeyFunc) (genai.Generator, error) {
	b := cfg.ActiveBackend()
	var gen genai.Generator
	switch cfg.Backend {
	case config.BackendGemini:
		gen = genai.NewGemini(genai.GeminiConfig{
			Model:   b.Model,
			BaseURL: b.BaseURL,
			Key:     key,
		})
	case config.BackendOpenAI:
		gen = genai.NewOpenAI(genai.OpenAIConfig{
			Model:   b.Model,
			BaseURL: b.BaseURL,
			Key:     key,
		})
	default:
		return nil, errors.Newf("unknown backend %q", cfg.Backend)
	}
	return genai.NewGuard(gen, genai.GuardConfig{
		Name:      cfg.Backend,
		PerMinute: cfg.Requests.PerMinute,
		Failures:  cfg.Requests.BreakerFailures,
		Cooldown:  cfg.Requests.BreakerCooldown(),
	}), nil
}

// newService wires credentials, backend and single-flight service together.
func newService(cfg *config.Config) (*simplify.Service, error) {
	broker := credential.NewBroker(keySource(cfg, true))
	gen, err := newGenerator(cfg, broker.Key)
	if err != nil {
		return nil, err
	}
	return simplify.New(gen, simplify.Options{Timeout: cfg.Requests.Timeout()}), nil
}

// newSpeaker returns the configured speech command, or a silent speaker when
// the command line cannot be parsed.
func newSpeaker(cfg *config.Config) speech.Speaker {
	cmd, err := speech.NewCommand(cfg.Speech.Command)
	if err != nil {
		logger.Logger.Warnw("read aloud disabled", logger.FieldError, err)
		return speech.Nop{}
	}
	return cmd
}

// logPath is where the terminal UI logs when no file is configured.
func logPath(cfg *config.Config) string {
	if cfg.Log.File != "" {
		return cfg.Log.File
	}
	return filepath.Join(config.StateDir(), logFileName)
}

// session is one open book: a lazily built engine per chapter sharing one
// event bus, service and speaker.
type session struct {
	cfg     *config.Config
	book    *reader.Book
	svc     engine.Service
	speaker speech.Speaker
	store   *state.Store
	key     string
	bus     *events.Bus
	log     *zap.SugaredLogger

	dispatch events.Dispatcher
	clock    events.Clock
	engines  map[int]*engine.Engine
	chapter  int
}

func newSession(cfg *config.Config, book *reader.Book, svc engine.Service, speaker speech.Speaker) *session {
	return &session{
		cfg:     cfg,
		book:    book,
		svc:     svc,
		speaker: speaker,
		bus:     events.NewBus(),
		log:     logger.Named("session"),
		clock:   events.RealClock{},
		engines: map[int]*engine.Engine{},
		chapter: -1,
	}
}

// openSession loads source and restores its saved position unless fresh.
func openSession(ctx context.Context, cfg *config.Config, source string, fresh bool) (*session, state.Position, error) {
	book, err := reader.Load(ctx, source)
	if err != nil {
		return nil, state.Position{}, err
	}
	svc, err := newService(cfg)
	if err != nil {
		return nil, state.Position{}, err
	}
	s := newSession(cfg, book, svc, newSpeaker(cfg))

	var pos state.Position
	store, err := state.NewStore(config.StateDir())
	if err != nil {
		s.log.Warnw("reading position will not be saved", logger.FieldError, err)
		return s, pos, nil
	}
	key, err := state.Key(source, reader.IsURL(source))
	if err != nil {
		s.log.Warnw("reading position will not be saved", logger.FieldError, err)
		return s, pos, nil
	}
	s.store, s.key = store, key
	if fresh {
		if err := store.Clear(key); err != nil {
			s.log.Warnw("clear reading position", logger.FieldError, err)
		}
	} else {
		pos = store.Get(key)
	}
	if pos.Chapter < 0 || pos.Chapter >= len(book.Chapters) {
		pos = state.Position{}
	}
	return s, pos, nil
}

// start sets the dispatcher the engines post back through. Front ends call
// it once their event loop exists and before opening a chapter.
func (s *session) start(d events.Dispatcher) {
	s.dispatch = d
}

// open makes chapter i current, building its engine on first use. Engines of
// other chapters stay alive but unsubscribed, so their substitutions can
// still be reverted when the reader comes back.
func (s *session) open(i int) *engine.Engine {
	if i < 0 || i >= len(s.book.Chapters) {
		return s.current()
	}
	if cur := s.current(); cur != nil {
		if i == s.chapter {
			return cur
		}
		cur.Detach()
	}

	eng, ok := s.engines[i]
	if !ok {
		ch := s.book.Chapters[i]
		n := ch.Doc.HighlightTerms(s.cfg.UI.TermMinLength)
		s.log.Debugw("chapter opened",
			logger.FieldChapter, i,
			logger.FieldWords, ch.Words(),
			logger.FieldCount, n)
		eng = engine.New(engine.Deps{
			Doc:           ch.Doc,
			Service:       s.svc,
			Speaker:       s.speaker,
			Dispatcher:    s.dispatch,
			Clock:         s.clock,
			BannerDwell:   s.cfg.UI.BannerDwell(),
			AffordanceTTL: s.cfg.UI.AffordanceTTL(),
			Logger:        logger.Named("engine").With(logger.FieldChapter, i),
		})
		s.engines[i] = eng
	}
	eng.Attach(s.bus)
	s.chapter = i
	return eng
}

// current returns the engine of the open chapter, or nil before open.
func (s *session) current() *engine.Engine {
	return s.engines[s.chapter]
}

// publish hands a gesture to the current chapter's controllers.
func (s *session) publish(ev events.Event) {
	s.bus.Publish(ev)
}

// title returns the book title, falling back to the chapter title.
func (s *session) title() string {
	if s.book.Title != "" {
		return s.book.Title
	}
	if s.chapter >= 0 {
		return s.book.Chapters[s.chapter].Title
	}
	return ""
}

// save records the word cursor of the current chapter.
func (s *session) save(word int) {
	if s.store == nil || s.chapter < 0 {
		return
	}
	if err := s.store.Set(s.key, state.Position{Chapter: s.chapter, Word: word}); err != nil {
		s.log.Warnw("save reading position", logger.FieldError, err)
	}
}

// close cancels outstanding requests and silences speech.
func (s *session) close() {
	for _, eng := range s.engines {
		eng.Close()
	}
	if c, ok := s.speaker.(*speech.Command); ok {
		c.Stop()
	}
}
