package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labelwire/labelwire/internal/protocol"
	"github.com/labelwire/labelwire/pkg/log"
)

const defaultTimeout = 10 * time.Second

// Dispatcher posts outbound protocol messages to the chat channel webhook.
// Delivery is best-effort: transport failures are logged and reported via the
// returned flag, never as an error that halts the caller.
type Dispatcher struct {
	resolveURL func() string
	client     *http.Client
	logger     log.Logger
	timeout    time.Duration
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithHTTPClient overrides the HTTP client (mainly for tests).
func WithHTTPClient(c *http.Client) Option {
	return func(d *Dispatcher) { d.client = c }
}

// WithTimeout bounds each delivery attempt.
func WithTimeout(t time.Duration) Option {
	return func(d *Dispatcher) {
		if t > 0 {
			d.timeout = t
		}
	}
}

// NewDispatcher returns a Dispatcher targeting a fixed channel webhook URL.
func NewDispatcher(url string, logger log.Logger, opts ...Option) *Dispatcher {
	return NewDispatcherFunc(func() string { return url }, logger, opts...)
}

// NewDispatcherFunc returns a Dispatcher that resolves the channel webhook URL
// on every delivery, so configuration reloads take effect without a restart.
func NewDispatcherFunc(resolve func() string, logger log.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		resolveURL: resolve,
		client:     http.DefaultClient,
		logger:     logger.WithComponent("channel"),
		timeout:    defaultTimeout,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Send encodes and delivers one message. It returns true when the channel
// acknowledged with a 2xx status.
func (d *Dispatcher) Send(ctx context.Context, msg protocol.Message) bool {
	return d.SendText(ctx, msg.Encode())
}

// SendText delivers raw message text as the channel payload {"text": ...}.
func (d *Dispatcher) SendText(ctx context.Context, text string) bool {
	url := d.resolveURL()
	if url == "" {
		d.logger.Warn("channel URL not configured, dropping message")
		return false
	}
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		d.logger.Error("encode channel payload", log.Err(err))
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		d.logger.Error("build channel request", log.Err(err))
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Warn("channel delivery failed", log.Err(err))
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		d.logger.Warn("channel rejected message", log.F("status", resp.StatusCode))
		return false
	}
	return true
}

// TestConnection sends a TEST_CHAT_CONNECTION message and returns an error
// when the channel did not acknowledge it.
func (d *Dispatcher) TestConnection(ctx context.Context, instanceTag string) error {
	msg := protocol.Message{
		InstanceTag: instanceTag,
		Type:        protocol.TypeTestChat,
		Body:        "Connection test from " + instanceTag,
	}
	if !d.Send(ctx, msg) {
		return fmt.Errorf("channel did not acknowledge test message")
	}
	return nil
}
