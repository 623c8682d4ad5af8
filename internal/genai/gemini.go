package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/metcalfc/simplyread/internal/errors"
	"github.com/metcalfc/simplyread/internal/logger"
)

const (
	// DefaultGeminiModel is used when GeminiConfig.Model is empty.
	DefaultGeminiModel = "gemini-2.0-flash"
	// DefaultGeminiBaseURL is the public generativelanguage endpoint.
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	maxErrorBody = 4 << 10
)

// GeminiConfig configures a Gemini client.
type GeminiConfig struct {
	Model      string
	BaseURL    string
	Key        KeyFunc
	HTTPClient *http.Client
	Logger     *zap.SugaredLogger // nil = logger.Named("gemini")
}

// Gemini talks to the generateContent REST endpoint.
type Gemini struct {
	model   string
	baseURL string
	key     KeyFunc
	http    *http.Client
	logger  *zap.SugaredLogger
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// NewGemini returns a client with defaults filled in.
func NewGemini(cfg GeminiConfig) *Gemini {
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGeminiBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Named("gemini")
	}
	return &Gemini{
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		key:     cfg.Key,
		http:    cfg.HTTPClient,
		logger:  cfg.Logger,
	}
}

// Generate posts the instruction as a single user part and returns the text
// of the first part of the first candidate.
func (g *Gemini) Generate(ctx context.Context, instruction string) (string, error) {
	if g.key == nil {
		return "", errors.New("gemini: no key source configured")
	}
	key, err := g.key(ctx)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: instruction}}}},
	})
	if err != nil {
		return "", errors.Wrap(err, "encode gemini request")
	}

	endpoint := g.baseURL + "/models/" + url.PathEscape(g.model) + ":generateContent"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "build gemini request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", key)

	start := time.Now()
	resp, err := g.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "gemini request")
	}
	defer resp.Body.Close()

	g.logger.Debugw("gemini response",
		logger.FieldModel, g.model,
		logger.FieldStatus, resp.StatusCode,
		logger.FieldDurationMS, time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", errors.WithDetail(
			errors.Mark(errors.Newf("gemini returned %d", resp.StatusCode), ErrStatus),
			strings.TrimSpace(string(snippet)))
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(err, "decode gemini response")
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	text := out.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
