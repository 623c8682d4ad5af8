package reader

import (
	"context"
	"io"
	"mime"
	"net/http"

	"github.com/metcalfc/simplyread/internal/errors"
	"github.com/metcalfc/simplyread/internal/logger"
)

func (l *Loader) fetch(ctx context.Context, source string) ([]Section, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "text/html, text/plain;q=0.9, text/markdown;q=0.8")

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", source)
	}
	defer resp.Body.Close()

	logger.Named("reader").Debugw("fetched page",
		logger.FieldSource, source,
		logger.FieldStatus, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Newf("fetch %s: status %d", source, resp.StatusCode)
	}

	body := io.Reader(resp.Body)
	if l.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, l.MaxBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", source)
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "", "text/html", "application/xhtml+xml":
		text, err := decode(data, contentType)
		if err != nil {
			return nil, err
		}
		title := titleOf(text)
		return []Section{{Title: title, HTML: text, Book: title}}, nil
	case "text/markdown", "text/x-markdown":
		return markdownSections(data)
	case "text/plain":
		text, err := decode(data, contentType)
		if err != nil {
			return nil, err
		}
		return TextSections(text)
	default:
		return nil, errors.WithDetailf(ErrUnsupported, "content type %s", mediaType)
	}
}
