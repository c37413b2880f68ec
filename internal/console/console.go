package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/vocalens/internal/language"
	"codeberg.org/snonux/vocalens/internal/logging"
	"codeberg.org/snonux/vocalens/internal/session"
)

// Controller is the part of session.Machine the console drives
type Controller interface {
	Start() error
	Snapshot() error
	CaptureAnother() error
	StartOver() error
	Speak(code language.Code) error
	Status() session.View
}

// Console reads commands line by line and renders session events
type Console struct {
	in     io.Reader
	out    io.Writer
	log    *logrus.Entry
	prompt bool

	ctrl Controller

	mu       sync.Mutex // serializes writes from the loop and the machine
	last     session.View
	rendered bool
}

// Ensure Console implements session.EventSink
var _ session.EventSink = (*Console)(nil)

// New creates a console. The prompt is shown only when out is a terminal.
func New(in io.Reader, out io.Writer, log *logrus.Entry) *Console {
	if log == nil {
		log = logging.Discard()
	}
	c := &Console{in: in, out: out, log: log}
	if f, ok := out.(*os.File); ok {
		c.prompt = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return c
}

// Attach sets the controller commands are sent to. The machine needs the
// console as its sink first, so the two are wired in two steps.
func (c *Console) Attach(ctrl Controller) {
	c.ctrl = ctrl
}

// Run processes commands until quit, end of input or ctx cancellation
func (c *Console) Run(ctx context.Context) error {
	if c.ctrl == nil {
		return fmt.Errorf("console has no controller attached")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	c.printf("VocaLens: photograph an object and learn its name in nine languages. Type 'help' for commands.\n")
	c.showPrompt()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return err
		case line := <-lines:
			if quit := c.Execute(line); quit {
				return nil
			}
			c.showPrompt()
		}
	}
}

// Execute runs one command line and reports whether the user asked to quit
func (c *Console) Execute(line string) bool {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return false
	}

	var err error
	switch cmd := fields[0]; cmd {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		c.locked(renderHelp)
	case "status":
		v := c.ctrl.Status()
		c.locked(func(w io.Writer) { renderStatus(w, v) })
	case "start":
		err = c.ctrl.Start()
	case "snap", "snapshot", "photo":
		err = c.ctrl.Snapshot()
	case "again", "another":
		err = c.ctrl.CaptureAnother()
	case "reset", "restart":
		err = c.ctrl.StartOver()
	case "say", "speak":
		if len(fields) < 2 {
			c.printf("Usage: say <code>, e.g. say ko\n")
			return false
		}
		err = c.speak(fields[1])
	default:
		if _, perr := language.Parse(cmd); perr == nil {
			err = c.speak(cmd)
		} else {
			c.printf("Unknown command %q. Type 'help' for commands.\n", cmd)
		}
	}

	if err != nil {
		c.reportError(err)
	}
	return false
}

func (c *Console) speak(s string) error {
	code, err := language.Parse(s)
	if err != nil {
		return err
	}
	return c.ctrl.Speak(code)
}

func (c *Console) reportError(err error) {
	c.log.WithError(err).Debug("Command rejected")
	switch {
	case errors.Is(err, session.ErrInvalidTransition):
		c.printf("Not now: %v\n", err)
	case errors.Is(err, session.ErrClosed):
		c.printf("The session has ended.\n")
	default:
		c.printf("Error: %v\n", err)
	}
}

// StateChanged renders a new view. Publishes that only change the speaking
// indicator are left to SpeakingChanged.
func (c *Console) StateChanged(v session.View) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rendered && sameScreen(c.last, v) {
		c.last = v
		return
	}
	c.last = v
	c.rendered = true

	switch v.State {
	case session.Idle:
		renderIdle(c.out, v)
	case session.Capturing:
		renderCapturing(c.out)
	case session.Processing:
		renderProcessing(c.out, v)
	case session.Result:
		renderCard(c.out, v.Result, v.Count, v.Speaking)
	}
}

func sameScreen(a, b session.View) bool {
	return a.State == b.State &&
		a.Acquiring == b.Acquiring &&
		a.Retrying == b.Retrying &&
		a.SessionID == b.SessionID &&
		a.Result == b.Result &&
		a.Count == b.Count
}

// Notice prints a user-facing message
func (c *Console) Notice(n session.Notice) {
	if n.Err != nil {
		c.log.WithError(n.Err).Debug(n.Message)
	}
	c.printf("⚠️  %s\n", n.Message)
}

// SpeakingChanged prints the word being read aloud
func (c *Console) SpeakingChanged(code language.Code) {
	if code == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last.Result != nil {
		renderSpeaking(c.out, code, c.last.Result)
	}
}

func (c *Console) printf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) locked(render func(io.Writer)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	render(c.out)
}

func (c *Console) showPrompt() {
	if c.prompt {
		c.printf("> ")
	}
}
