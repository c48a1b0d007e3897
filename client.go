// Package botcircuits is a Go client for the BotCircuits conversational bot
// backend. Bot replies arrive over a GraphQL subscription on a WebSocket
// (graphql-ws); user turns are published with a GraphQL mutation over HTTPS.
//
// One Client is one session: it owns at most one socket and one receive
// goroutine at a time.
package botcircuits

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"

	"github.com/botcircuits/botcircuits-go-sdk/wire"
)

const (
	defaultDialTimeout = 10 * time.Second
	defaultSendTimeout = 10 * time.Second
)

// Config holds connection parameters. Host, AppID and Credential are
// required.
type Config struct {
	Host        string // GraphQL API host (e.g. "xyz.appsync-api.eu-west-1.amazonaws.com")
	AppID       string // bot application id
	Credential  string // API key or JWT, sent verbatim as Authorization
	RealtimeURL string // defaults to wss://<Host>/graphql/realtime
	GraphQLURL  string // defaults to https://<Host>/graphql

	Revision    wire.Revision // executor request field set
	DialTimeout time.Duration
	SendTimeout time.Duration

	Logger     *slog.Logger
	HTTPClient *http.Client

	// OnError, if set, receives non-fatal protocol and decode errors as
	// well as the error that ends a failed subscription. It is called from
	// the receive goroutine.
	OnError func(error)
}

func (cfg *Config) validate() error {
	var missing []string
	if strings.TrimSpace(cfg.Host) == "" {
		missing = append(missing, "host")
	}
	if strings.TrimSpace(cfg.AppID) == "" {
		missing = append(missing, "app id")
	}
	if strings.TrimSpace(cfg.Credential) == "" {
		missing = append(missing, "credential")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrConfig, strings.Join(missing, ", "))
	}
	if cfg.Revision != wire.RevisionAttributes && cfg.Revision != wire.RevisionVoice {
		return fmt.Errorf("%w: unknown protocol %s", ErrConfig, cfg.Revision)
	}
	return nil
}

func (cfg *Config) defaults() {
	if cfg.RealtimeURL == "" {
		cfg.RealtimeURL = "wss://" + cfg.Host + "/graphql/realtime"
	}
	if cfg.GraphQLURL == "" {
		cfg.GraphQLURL = "https://" + cfg.Host + "/graphql"
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Transport: gzhttp.Transport(http.DefaultTransport)}
	}
}

// subscription is the handle of one receive goroutine.
type subscription struct {
	cancel     context.CancelFunc
	done       chan struct{}
	subscribed chan struct{}
	state      atomic.Int32
	err        error // written before done is closed
}

func newSubscription(cancel context.CancelFunc) *subscription {
	return &subscription{
		cancel:     cancel,
		done:       make(chan struct{}),
		subscribed: make(chan struct{}),
	}
}

func (s *subscription) setState(st State) { s.state.Store(int32(st)) }

func (s *subscription) State() State { return State(s.state.Load()) }

func (s *subscription) running() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Client is one BotCircuits session.
type Client struct {
	cfg       Config
	sessionID string
	log       *slog.Logger

	// lifeMu serialises Start and Stop. mu guards sub, the current or most
	// recent subscription, for the accessors.
	lifeMu sync.Mutex
	mu     sync.Mutex
	sub    *subscription
}

// New validates cfg and returns a client for sessionID. An empty sessionID
// gets a random UUID. No I/O happens until Start or Send.
func New(cfg Config, sessionID string) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.defaults()
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return &Client{
		cfg:       cfg,
		sessionID: sessionID,
		log:       cfg.Logger.With("app_id", cfg.AppID, "session_id", sessionID),
	}, nil
}

// SessionID returns the session this client is bound to.
func (c *Client) SessionID() string { return c.sessionID }

// AppID returns the configured application id.
func (c *Client) AppID() string { return c.cfg.AppID }

// Start subscribes to bot messages for this session and returns without
// waiting for the handshake. If a subscription is already running Start
// does nothing and the original handler stays registered.
func (c *Client) Start(h Handler) error {
	if h == nil {
		return ErrNilHandler
	}

	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	if s := c.current(); s != nil && s.running() {
		c.log.Debug("subscription already running")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := newSubscription(cancel)
	c.mu.Lock()
	c.sub = s
	c.mu.Unlock()

	go func() {
		err := c.subscribe(ctx, s, h)
		cancel()
		s.err = err
		close(s.done)
		if err != nil {
			c.log.Warn("subscription failed", "error", err)
			c.report(err)
		}
	}()
	return nil
}

func (c *Client) current() *subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sub
}

// WaitSubscribed blocks until the running subscription has sent its start
// frame. It returns the subscription's error if it ended first.
func (c *Client) WaitSubscribed(ctx context.Context) error {
	s := c.current()
	if s == nil {
		return ErrNotStarted
	}

	select {
	case <-s.subscribed:
		return nil
	case <-s.done:
		if s.err != nil {
			return s.err
		}
		return ErrNotStarted
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop cancels the running subscription and waits until its socket is
// closed. After Stop returns the handler is not called again. Stop is safe
// to call when nothing is running.
func (c *Client) Stop() {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	s := c.current()
	if s == nil || !s.running() {
		return
	}
	s.cancel()
	<-s.done
	c.log.Info("subscription stopped")
}

// Close stops the subscription. It always returns nil.
func (c *Client) Close() error {
	c.Stop()
	return nil
}

// State returns the state of the current or most recent subscription.
func (c *Client) State() State {
	s := c.current()
	if s == nil {
		return StateDisconnected
	}
	return s.State()
}

// Done returns a channel closed when the current subscription ends, whether
// stopped or failed. It returns nil if Start was never called.
func (c *Client) Done() <-chan struct{} {
	s := c.current()
	if s == nil {
		return nil
	}
	return s.done
}

// Err returns the error that ended the most recent subscription, or nil if
// it is still running or was stopped.
func (c *Client) Err() error {
	s := c.current()
	if s == nil || s.running() {
		return nil
	}
	return s.err
}

func (c *Client) report(err error) {
	if c.cfg.OnError != nil {
		c.cfg.OnError(err)
	}
}
