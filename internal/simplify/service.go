// Package simplify turns single-word simplification, term definition and
// passage bias analysis into total operations over a text-generation
// backend. Failures are logged and replaced by fallbacks; identical
// in-flight requests are shared.
package simplify

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/metcalfc/simplyread/internal/errors"
	"github.com/metcalfc/simplyread/internal/genai"
	"github.com/metcalfc/simplyread/internal/logger"
	"github.com/metcalfc/simplyread/internal/prompt"
)

const (
	// BiasFailure is returned when the bias request fails.
	BiasFailure = "Error analyzing text."
	// BiasEmpty is returned when the backend answers with no text.
	BiasEmpty = "No analysis available."

	// DefaultTimeout bounds one backend request.
	DefaultTimeout = 20 * time.Second
)

// Options configures a Service.
type Options struct {
	Timeout time.Duration
	Logger  *zap.SugaredLogger
}

// Service is safe for concurrent use.
type Service struct {
	gen     genai.Generator
	group   singleflight.Group
	timeout time.Duration
	logger  *zap.SugaredLogger
}

// New returns a service issuing requests through gen.
func New(gen genai.Generator, opts Options) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.Named("simplify")
	}
	return &Service{gen: gen, timeout: opts.Timeout, logger: opts.Logger}
}

// Simplify returns a simpler synonym for word at the given level, or word
// itself when none is available.
func (s *Service) Simplify(ctx context.Context, word, sentence string, level prompt.Level) string {
	key := strings.Join([]string{"simplify", word, sentence, level.String()}, "\x00")
	text, err := s.do(ctx, "simplify", key, simplifyInstruction(word, sentence, level))
	if err != nil {
		s.logger.Warnw("simplify failed",
			logger.FieldWord, word,
			logger.FieldLevel, level.String(),
			logger.FieldError, err)
		return word
	}

	sub := firstToken(text)
	if sub == "" || sub == word {
		return word
	}
	s.logger.Debugw("simplified",
		logger.FieldWord, word,
		logger.FieldSubstituted, sub,
		logger.FieldLevel, level.String())
	return sub
}

// Define returns a short definition of word, or "" when none is available.
func (s *Service) Define(ctx context.Context, word, sentence string) string {
	key := strings.Join([]string{"define", word, sentence}, "\x00")
	text, err := s.do(ctx, "define", key, defineInstruction(word, sentence))
	if err != nil {
		s.logger.Warnw("define failed", logger.FieldWord, word, logger.FieldError, err)
		return ""
	}
	return strings.TrimSpace(text)
}

// AnalyzeBias returns an advisory about bias in passage. It never returns
// an empty string.
func (s *Service) AnalyzeBias(ctx context.Context, passage string) string {
	key := strings.Join([]string{"bias", passage}, "\x00")
	text, err := s.do(ctx, "bias", key, biasInstruction(passage))
	if err != nil {
		s.logger.Warnw("bias analysis failed", logger.FieldCount, len(passage), logger.FieldError, err)
		return BiasFailure
	}
	if text = strings.TrimSpace(text); text == "" {
		return BiasEmpty
	}
	return text
}

// do runs one backend request per key. The shared request is detached from
// the first caller's cancellation so a later caller with the same key is not
// failed by it, and is bounded by the service timeout instead.
func (s *Service) do(ctx context.Context, op, key, instruction string) (string, error) {
	ch := s.group.DoChan(key, func() (interface{}, error) {
		reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		start := time.Now()
		text, err := s.gen.Generate(reqCtx, instruction)
		s.logger.Debugw("backend request",
			logger.FieldOperation, op,
			logger.FieldDurationMS, time.Since(start).Milliseconds(),
			logger.FieldError, err)
		return text, err
	})

	select {
	case res := <-ch:
		if errors.Is(res.Err, genai.ErrEmptyResponse) {
			return "", nil
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
