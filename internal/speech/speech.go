// Package speech renders text audibly through a platform speech command.
package speech

import (
	"io"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	shellquote "github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"github.com/metcalfc/simplyread/internal/errors"
	"github.com/metcalfc/simplyread/internal/logger"
)

// Speaker reads text aloud. Speak cancels any rendering still in progress.
type Speaker interface {
	Speak(text string) error
}

// Nop discards speech.
type Nop struct{}

// Speak does nothing.
func (Nop) Speak(string) error { return nil }

// DefaultCommand returns the speech command for the current platform. Both
// read the text to speak from standard input.
func DefaultCommand() string {
	if runtime.GOOS == "darwin" {
		return "say -f -"
	}
	return "espeak-ng --stdin"
}

// Command speaks by running an external program that reads the text from
// standard input. The text never becomes an argument, so selected content
// cannot pass options to the program.
type Command struct {
	argv   []string
	start  func(argv []string, stdin io.Reader) (*exec.Cmd, error)
	logger *zap.SugaredLogger

	mu      sync.Mutex
	current *exec.Cmd
}

// NewCommand parses line with shell quoting rules. An empty line selects
// DefaultCommand.
func NewCommand(line string) (*Command, error) {
	if strings.TrimSpace(line) == "" {
		line = DefaultCommand()
	}
	argv, err := shellquote.Split(line)
	if err != nil {
		return nil, errors.Wrapf(err, "parse speech command %q", line)
	}
	if len(argv) == 0 {
		return nil, errors.New("empty speech command")
	}
	return &Command{argv: argv, start: startCmd, logger: logger.Named("speech")}, nil
}

func startCmd(argv []string, stdin io.Reader) (*exec.Cmd, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = stdin
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd, nil
}

// Speak stops the previous utterance, if any, and starts a new one. It does
// not wait for the new one to finish.
func (c *Command) Speak(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()

	cmd, err := c.start(c.argv, strings.NewReader(text+"\n"))
	if err != nil {
		return errors.Wrapf(err, "start %s", c.argv[0])
	}
	c.current = cmd
	go c.reap(cmd)

	c.logger.Debugw("speaking", logger.FieldCount, len(text))
	return nil
}

// Stop cancels the current utterance.
func (c *Command) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Command) stopLocked() {
	if c.current == nil || c.current.Process == nil {
		return
	}
	if err := c.current.Process.Kill(); err != nil {
		c.logger.Debugw("kill speech process", logger.FieldError, err)
	}
	c.current = nil
}

func (c *Command) reap(cmd *exec.Cmd) {
	_ = cmd.Wait()
	c.mu.Lock()
	if c.current == cmd {
		c.current = nil
	}
	c.mu.Unlock()
}

// Speaking reports whether an utterance is in progress.
func (c *Command) Speaking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}
