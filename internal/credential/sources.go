package credential

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"strings"

	shellquote "github.com/kballard/go-shellquote"

	"github.com/metcalfc/simplyread/internal/errors"
)

// ActionGetAPIKey is the only request the helper protocol knows.
const ActionGetAPIKey = "getAPIKey"

// Request is sent to a credential helper on stdin.
type Request struct {
	Action string `json:"action"`
}

// Response is read back from a credential helper's stdout.
type Response struct {
	APIKey string `json:"apiKey"`
}

// StaticSource returns a fixed key, typically from the config file.
type StaticSource string

// FetchKey returns the key or ErrNoKey when it is empty.
func (s StaticSource) FetchKey(context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", ErrNoKey
	}
	return strings.TrimSpace(string(s)), nil
}

// EnvSource returns the first non-empty environment variable in the list.
type EnvSource []string

// FetchKey looks the variables up in order.
func (e EnvSource) FetchKey(context.Context) (string, error) {
	for _, name := range e {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v, nil
		}
	}
	return "", errors.WithHintf(ErrNoKey, "set one of %s", strings.Join(e, ", "))
}

// HelperSource asks an external credential helper for the key. The helper
// reads a JSON Request on stdin and writes a JSON Response on stdout.
type HelperSource struct {
	// Command is split with shell quoting rules.
	Command string
}

// FetchKey runs the helper once.
func (h HelperSource) FetchKey(ctx context.Context) (string, error) {
	argv, err := shellquote.Split(h.Command)
	if err != nil {
		return "", errors.Wrapf(err, "parse credential helper %q", h.Command)
	}
	if len(argv) == 0 {
		return "", ErrNoKey
	}

	req, err := json.Marshal(Request{Action: ActionGetAPIKey})
	if err != nil {
		return "", errors.Wrap(err, "encode helper request")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = bytes.NewReader(req)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", errors.WithDetailf(errors.Wrapf(err, "run credential helper %s", argv[0]),
			"stderr: %s", strings.TrimSpace(stderr.String()))
	}

	var resp Response
	if err := json.Unmarshal(out, &resp); err != nil {
		return "", errors.Wrap(err, "decode helper response")
	}
	if strings.TrimSpace(resp.APIKey) == "" {
		return "", ErrNoKey
	}
	return strings.TrimSpace(resp.APIKey), nil
}

// Chain tries each source in order and returns the first key found.
type Chain []Source

// FetchKey returns the first key, or ErrNoKey with every failure attached.
func (c Chain) FetchKey(ctx context.Context) (string, error) {
	var errs []string
	for _, s := range c {
		k, err := s.FetchKey(ctx)
		if err == nil && k != "" {
			return k, nil
		}
		if err != nil && !errors.Is(err, ErrNoKey) {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return "", errors.WithDetail(ErrNoKey, strings.Join(errs, "; "))
	}
	return "", ErrNoKey
}

// Serve answers one helper Request from r on w using src. It is the
// privileged side of the helper protocol.
func Serve(ctx context.Context, r io.Reader, w io.Writer, src Source) error {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return errors.Wrap(err, "decode helper request")
	}
	if req.Action != ActionGetAPIKey {
		return errors.Newf("unsupported action %q", req.Action)
	}

	var resp Response
	if k, err := src.FetchKey(ctx); err == nil {
		resp.APIKey = k
	}
	return json.NewEncoder(w).Encode(resp)
}
