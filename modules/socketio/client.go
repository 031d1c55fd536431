package socketio

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/capitalone/Stratum-Observability/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

const defaultConnectTimeout = 15 * time.Second

// Emitter is the transport the publisher emits through.
type Emitter interface {
	Emit(event string, args ...any) error
	Connected() bool
	Close()
}

// Client is a socket.io connection that tracks its own connection state.
type Client struct {
	io        *socket.Socket
	connected atomic.Bool
}

var _ Emitter = (*Client)(nil)

// Connect dials cfg.URL over the websocket transport and waits for the
// namespace to connect. The client reconnects on its own afterwards;
// Connected reports the current state.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	logger := ctxlog.FromContext(ctx).With("publisher", cfg.name(), "url", cfg.URL)
	logger.Debug("Creating socket.io client.")

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("URL %q must include a scheme and host", cfg.URL)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	c := &Client{io: manager.Socket(cfg.Namespace, opts)}

	connectChan := make(chan error, 1)
	c.io.On(types.EventName("connect"), func(...any) {
		c.connected.Store(true)
		logger.Debug("Connected.", "sid", c.io.Id())
		select {
		case connectChan <- nil:
		default:
		}
	})
	c.io.On(types.EventName("disconnect"), func(reason ...any) {
		c.connected.Store(false)
		logger.Debug("Disconnected.", "reason", reason)
	})
	c.io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case connectChan <- err:
		default:
		}
	})

	c.io.Connect()

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	select {
	case err := <-connectChan:
		if err != nil {
			c.io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return c, nil
	case <-ctx.Done():
		c.io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(timeout):
		c.io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}
}

// Emit sends event with args. It fails fast when the socket is down.
func (c *Client) Emit(event string, args ...any) error {
	if !c.connected.Load() {
		return errors.New("socket.io client is not connected")
	}
	c.io.Emit(event, args...)
	return nil
}

// Connected reports whether the namespace is currently connected.
func (c *Client) Connected() bool { return c.connected.Load() }

// Close disconnects the socket.
func (c *Client) Close() {
	c.connected.Store(false)
	c.io.Disconnect()
}
