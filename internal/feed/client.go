package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rileyhilliard/commandcenter/internal/errors"
	"github.com/rileyhilliard/commandcenter/internal/event"
	"github.com/rileyhilliard/commandcenter/internal/logger"
	"github.com/rileyhilliard/commandcenter/internal/login"
)

// SessionHeader carries the client's per-connection session id.
const SessionHeader = "X-Command-Center-Session"

// Backoff bounds the delay between reconnect attempts.
type Backoff struct {
	Min time.Duration
	Max time.Duration
}

// DefaultBackoff is used when a client is given a zero Backoff.
var DefaultBackoff = Backoff{Min: time.Second, Max: 30 * time.Second}

// Delay returns the wait before reconnect attempt n (1-based), doubling
// from Min and capped at Max.
func (b Backoff) Delay(n int) time.Duration {
	if b.Min <= 0 {
		b = DefaultBackoff
	}
	d := b.Min
	for i := 1; i < n; i++ {
		d *= 2
		if d >= b.Max {
			return b.Max
		}
	}
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}

// Handler receives decoded messages. It runs on the event queue.
type Handler func(Message)

// Client keeps one gateway's websocket connection open, answering
// authentication challenges through a login.ChallengeHandler.
type Client struct {
	name     string
	url      string
	sched    event.Scheduler
	auth     *login.ChallengeHandler
	dialer   *websocket.Dialer
	backoff  Backoff
	log      logger.Logger
	onMsg    Handler
	sessions chan<- string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBackoff sets the reconnect backoff.
func WithBackoff(b Backoff) ClientOption {
	return func(c *Client) { c.backoff = b }
}

// WithDialer replaces the websocket dialer.
func WithDialer(d *websocket.Dialer) ClientOption {
	return func(c *Client) { c.dialer = d }
}

// WithClientLogger sets the client logger.
func WithClientLogger(l logger.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithSessionNotify sends every new session id to ch without blocking.
func WithSessionNotify(ch chan<- string) ClientOption {
	return func(c *Client) { c.sessions = ch }
}

// NewClient creates a client for the named gateway. Decoded messages are
// handed to onMsg on sched; auth answers the gateway's challenges.
func NewClient(name, url string, sched event.Scheduler, auth *login.ChallengeHandler, onMsg Handler, opts ...ClientOption) *Client {
	c := &Client{
		name:    name,
		url:     url,
		sched:   sched,
		auth:    auth,
		dialer:  websocket.DefaultDialer,
		backoff: DefaultBackoff,
		log:     logger.Noop(),
		onMsg:   onMsg,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logger.WithPrefix(c.log, "["+name+"]")
	return c
}

// Name returns the gateway name.
func (c *Client) Name() string { return c.name }

// challengeAnswer is what the handler decided, captured on the queue.
type challengeAnswer struct {
	resp *login.ChallengeResponse
	url  string
}

// Run connects and reads until ctx is cancelled or the user cancels the
// login. Lost connections are retried with backoff.
func (c *Client) Run(ctx context.Context) error {
	var authorization string
	attempt := 0
	// answered is set while a dial carries an answer the gateway has not
	// yet accepted or rejected.
	answered := false

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		header := http.Header{}
		session := uuid.NewString()
		header.Set(SessionHeader, session)
		if authorization != "" {
			header.Set("Authorization", authorization)
		}

		conn, resp, err := c.dialer.DialContext(ctx, c.url, header)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusUnauthorized {
				answer, aerr := c.challenge(ctx, resp.Header.Get("WWW-Authenticate"))
				if aerr != nil {
					return aerr
				}
				authorization = answer.resp.Header()
				if answer.url != "" && answer.url != c.url {
					c.url = answer.url
				}
				answered = true
				continue
			}

			if answered {
				// The answer never reached a verdict. Let the handler give
				// up the login lock while we back off.
				answered = false
				url := c.url
				c.sched.Schedule(func() { c.auth.OnClose(url) })
			}

			attempt++
			delay := c.backoff.Delay(attempt)
			c.log.Warn("connect to %s failed (attempt %d), retrying in %s: %v", c.url, attempt, delay, err)
			if !sleep(ctx, delay) {
				return nil
			}
			continue
		}

		attempt = 0
		authorization = ""
		answered = false
		c.log.Info("connected to %s (session %s)", c.url, session)
		c.notifySession(session)

		url := c.url
		c.sched.Schedule(func() { c.auth.OnOpen(url) })

		rerr := c.read(ctx, conn)

		c.sched.Schedule(func() { c.auth.OnClose(url) })
		if ctx.Err() != nil {
			return nil
		}

		attempt++
		delay := c.backoff.Delay(attempt)
		c.log.Warn("connection to %s lost, reconnecting in %s: %v", url, delay, rerr)
		if !sleep(ctx, delay) {
			return nil
		}
	}
}

// challenge posts a 401 challenge to the handler on the event queue and
// waits for its answer. A nil answer ends the client.
func (c *Client) challenge(ctx context.Context, scheme string) (challengeAnswer, error) {
	req := login.ChallengeRequest{Scheme: scheme, Location: c.url}
	answers := make(chan challengeAnswer, 1)

	c.sched.Schedule(func() {
		c.auth.Handle(req, func(resp *login.ChallengeResponse) {
			answers <- challengeAnswer{resp: resp, url: c.auth.ConnectionURL()}
		})
	})

	select {
	case <-ctx.Done():
		return challengeAnswer{}, ctx.Err()
	case a := <-answers:
		if a.resp == nil {
			return a, errors.New(errors.ErrAuth,
				fmt.Sprintf("Login to %s was cancelled or refused", c.url),
				"Check the gateway credentials, then reconnect")
		}
		return a, nil
	}
}

func (c *Client) read(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		m, err := decode(data, c.name)
		if err != nil {
			c.log.Debug("dropping message: %v", err)
			continue
		}
		c.sched.Schedule(func() { c.onMsg(m) })
	}
}

func (c *Client) notifySession(id string) {
	if c.sessions == nil {
		return
	}
	select {
	case c.sessions <- id:
	default:
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
