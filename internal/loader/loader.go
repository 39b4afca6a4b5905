// Package loader implements the progressive loading controller for the
// presentations stream: a single-use client that consumes progress events
// from the server, drives a view through them, and performs a one-time swap
// to the final content when the server finishes.
package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"

	"chomikai/internal/logging"
	"chomikai/internal/sse"
)

// State is the controller's lifecycle position.
type State int

const (
	// StateIdle is the state before Run is called.
	StateIdle State = iota
	// StateConnecting is entered when the stream is opened and holds until
	// the first event arrives.
	StateConnecting
	// StateReceiving is entered on the first progress event.
	StateReceiving
	// StateComplete is the terminal success state.
	StateComplete
	// StateFailed is the terminal failure state.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateReceiving:
		return "receiving"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Status messages shown by the controller. The view renders these verbatim.
const (
	StatusConnecting = "Connecting..."
	StatusDone       = "Done!"
	StatusFailed     = "Something went wrong while loading your presentations. Please reload the page."
)

// ErrStreamFailed is returned by Run when the server reports an error event.
var ErrStreamFailed = errors.New("presentation stream reported an error")

// ProgressEvent is the payload of a progress event.
type ProgressEvent struct {
	Percent   float64 `json:"percent"`
	Processed int     `json:"processed"`
	Total     int     `json:"total"`
}

// CompleteEvent is the payload of the terminal complete event.
type CompleteEvent struct {
	HTML string `json:"html"`
}

// View is the set of UI handles the controller drives: a progress
// indicator, a status line, and the loading-to-content section toggle.
// The handles are injected at construction; the controller performs no
// lookups of its own.
type View interface {
	// SetProgress updates the indicator. percent is already rounded for
	// display; processed and total are passed through verbatim.
	SetProgress(percent, processed, total int)
	// SetStatus replaces the status text.
	SetStatus(text string)
	// ShowContent hides the loading view, reveals the content container
	// and sets its contents. Called at most once per controller.
	ShowContent(html string)
}

// Controller consumes one presentation stream for one page view. It is
// single-use: after reaching a terminal state it processes no further
// events, and a new Controller is needed to try again.
type Controller struct {
	view   View
	client *http.Client

	mu    sync.Mutex
	state State

	closeOnce sync.Once
	body      io.Closer
}

// New creates a controller driving the given view.
func New(view View) *Controller {
	return &Controller{
		view:   view,
		client: http.DefaultClient,
		state:  StateIdle,
	}
}

// NewWithClient creates a controller using a custom HTTP client, so callers
// can attach cookies or timeouts.
func NewWithClient(view View, client *http.Client) *Controller {
	c := New(view)
	c.client = client
	return c
}

// State returns the controller's current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// closeStream releases the connection. Safe to call more than once; only
// the first call closes the body.
func (c *Controller) closeStream() {
	c.closeOnce.Do(func() {
		if c.body != nil {
			if err := c.body.Close(); err != nil {
				logging.Debugf("Closing stream body: %v", err)
			}
		}
	})
}

// Run opens the event stream at endpoint and processes events until a
// terminal transition. It returns nil after a complete event,
// ErrStreamFailed after a server error event, and the transport error
// after a connection-level failure. The stream is closed exactly once on
// every path.
func (c *Controller) Run(ctx context.Context, endpoint string) error {
	if c.State() != StateIdle {
		return fmt.Errorf("loader: controller is single-use, currently %s", c.State())
	}

	c.setState(StateConnecting)
	c.view.SetProgress(0, 0, 0)
	c.view.SetStatus(StatusConnecting)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return c.fail(fmt.Errorf("loader: create request: %w", err))
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return c.fail(fmt.Errorf("loader: open stream: %w", err))
	}
	c.body = resp.Body
	defer c.closeStream()

	if resp.StatusCode != http.StatusOK {
		return c.fail(fmt.Errorf("loader: unexpected status %d from %s", resp.StatusCode, endpoint))
	}

	reader := sse.NewReader(resp.Body)
	for {
		event, err := reader.Next()
		if err != nil {
			// EOF without a terminal event is a dropped connection
			return c.fail(fmt.Errorf("loader: stream ended unexpectedly: %w", err))
		}

		switch event.Name {
		case "progress":
			if err := c.handleProgress(event.Data); err != nil {
				return c.fail(err)
			}
		case "complete":
			return c.handleComplete(event.Data)
		case "error":
			logging.Warnf("Stream reported error event: %s", event.Data)
			c.view.SetStatus(StatusFailed)
			c.setState(StateFailed)
			c.closeStream()
			return ErrStreamFailed
		default:
			// Unknown event names are ignored, per the protocol contract
		}
	}
}

// handleProgress renders one progress snapshot. Values are rendered as
// received: no monotonicity clamp, no processed<=total check.
func (c *Controller) handleProgress(data string) error {
	var ev ProgressEvent
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		return fmt.Errorf("loader: malformed progress payload: %w", err)
	}
	if math.IsNaN(ev.Percent) || math.IsInf(ev.Percent, 0) {
		return fmt.Errorf("loader: progress percent is not a finite number")
	}

	percent := int(math.Round(ev.Percent))
	c.view.SetProgress(percent, ev.Processed, ev.Total)
	c.view.SetStatus(fmt.Sprintf("Processing %d of %d presentations...", ev.Processed, ev.Total))
	c.setState(StateReceiving)
	return nil
}

// handleComplete performs the one-time swap to final content and closes
// the stream. Terminal.
func (c *Controller) handleComplete(data string) error {
	var ev CompleteEvent
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		return c.fail(fmt.Errorf("loader: malformed complete payload: %w", err))
	}

	c.view.ShowContent(ev.HTML)
	c.view.SetStatus(StatusDone)
	c.setState(StateComplete)
	c.closeStream()
	return nil
}

// fail moves the controller to the terminal Failed state, shows the fixed
// failure message and releases the connection.
func (c *Controller) fail(err error) error {
	logging.Errorf("Progressive load failed: %v", err)
	c.view.SetStatus(StatusFailed)
	c.setState(StateFailed)
	c.closeStream()
	return err
}
