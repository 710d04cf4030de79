package login

import (
	"net/url"
	"strings"

	"github.com/rileyhilliard/commandcenter/internal/logger"
)

const (
	// DefaultScheme is the authentication scheme gateways challenge with.
	DefaultScheme = "Application Basic"
	// DefaultPath is the management service path the handler answers for.
	DefaultPath = "/snmp"
)

// State is the challenge handler's position in the login flow.
type State int

const (
	StateNone State = iota
	StateTryingCachedResponse
	StateTryingRevalidate
	StateGatheringCredentials
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateTryingCachedResponse:
		return "trying-cached-response"
	case StateTryingRevalidate:
		return "trying-revalidate"
	case StateGatheringCredentials:
		return "gathering-credentials"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ChallengeRequest is an authentication challenge raised by the transport.
type ChallengeRequest struct {
	Scheme   string
	Location string
}

// ChallengeResponse carries encoded credentials for a challenge.
type ChallengeResponse struct {
	Scheme      string
	Credentials string
}

// Header renders the response as an Authorization header value.
func (r *ChallengeResponse) Header() string {
	return r.Scheme + " " + r.Credentials
}

// ChallengeHandler answers authentication challenges for one gateway
// connection. Not safe for concurrent use; drive it from the event queue.
type ChallengeHandler struct {
	url    string
	coord  *Coordinator
	shared *SharedCredentials
	log    logger.Logger

	scheme       string
	path         string
	canChangeURL bool

	state     State
	cached    string
	username  string
	password  string
	showError bool
	connected bool

	revalidations int
	pending       func(*ChallengeResponse)
}

// HandlerOption configures a ChallengeHandler.
type HandlerOption func(*ChallengeHandler)

// WithScheme sets the accepted authentication scheme.
func WithScheme(scheme string) HandlerOption {
	return func(h *ChallengeHandler) { h.scheme = scheme }
}

// WithPath sets the location path the handler answers for.
func WithPath(path string) HandlerOption {
	return func(h *ChallengeHandler) { h.path = path }
}

// WithCanChangeURL lets the login dialog edit the connection URL.
func WithCanChangeURL(allowed bool) HandlerOption {
	return func(h *ChallengeHandler) { h.canChangeURL = allowed }
}

// WithCachedCredentials seeds connection-specific encoded credentials.
func WithCachedCredentials(encoded string) HandlerOption {
	return func(h *ChallengeHandler) { h.cached = encoded }
}

// WithHandlerLogger sets the handler logger.
func WithHandlerLogger(l logger.Logger) HandlerOption {
	return func(h *ChallengeHandler) {
		if l != nil {
			h.log = l
		}
	}
}

// NewChallengeHandler creates the handler for the connection at
// connectionURL. shared is the process-wide fallback credential slot.
func NewChallengeHandler(connectionURL string, coord *Coordinator, shared *SharedCredentials, opts ...HandlerOption) *ChallengeHandler {
	h := &ChallengeHandler{
		url:    connectionURL,
		coord:  coord,
		shared: shared,
		log:    logger.Noop(),
		scheme: DefaultScheme,
		path:   DefaultPath,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ConnectionURL implements Requester.
func (h *ChallengeHandler) ConnectionURL() string { return h.url }

// Prompt implements Requester.
func (h *ChallengeHandler) Prompt() Prompt {
	return Prompt{
		ConnectionURL: h.url,
		ShowError:     h.showError,
		Username:      h.username,
		Password:      h.password,
	}
}

// State returns the current state.
func (h *ChallengeHandler) State() State { return h.state }

// Connected reports whether the connection is currently open.
func (h *ChallengeHandler) Connected() bool { return h.connected }

// CachedCredentials returns the connection's encoded credentials, if any.
func (h *ChallengeHandler) CachedCredentials() string { return h.cached }

// CanHandle reports whether req matches the scheme and path this handler
// answers for.
func (h *ChallengeHandler) CanHandle(req ChallengeRequest) bool {
	if !strings.EqualFold(strings.TrimSpace(req.Scheme), h.scheme) {
		return false
	}
	return locationPath(req.Location) == h.path
}

// Handle answers a challenge through respond, either immediately or once
// the user has been through the login dialog. A nil response means the
// handler cannot or will not answer.
func (h *ChallengeHandler) Handle(req ChallengeRequest, respond func(*ChallengeResponse)) {
	if !h.CanHandle(req) {
		h.log.Debug("not handling %q challenge at %s", req.Scheme, req.Location)
		respond(nil)
		return
	}

	switch h.state {
	case StateNone:
		creds := h.cached
		if creds == "" {
			creds = h.shared.Get()
		}
		if creds == "" {
			h.gather(false, respond)
			return
		}
		h.cached = creds
		if h.connected {
			h.state = StateTryingRevalidate
			h.revalidations = 0
		} else {
			h.state = StateTryingCachedResponse
		}
		h.log.Debug("answering %s from cached credentials (%s)", h.url, h.state)
		respond(h.response())

	case StateTryingRevalidate:
		if h.cached == "" {
			h.gather(false, respond)
			return
		}
		// Only one revalidation is offered; the transport closes the
		// connection when it times out.
		h.revalidations++
		if h.revalidations > 1 {
			h.log.Warn("revalidation for %s challenged again (%d)", h.url, h.revalidations)
		}
		respond(h.response())

	case StateTryingCachedResponse:
		h.log.Debug("cached credentials for %s rejected", h.url)
		h.cached = ""
		h.gather(false, respond)

	case StateCancelled:
		respond(nil)

	default:
		h.gather(true, respond)
	}
}

// OnOpen is called once the connection is authenticated and open.
func (h *ChallengeHandler) OnOpen(connectionURL string) {
	if connectionURL != "" {
		h.url = connectionURL
	}
	h.username, h.password = "", ""
	h.showError = false
	h.state = StateNone
	h.connected = true

	if h.shared != nil && h.shared.Publish(h.cached) {
		h.log.Debug("%s published the shared credentials", h.url)
	}
	h.coord.ReleaseLock(h)
}

// OnClose is called when the connection closes, or when a dial carrying
// an answer failed before the gateway accepted or rejected it. Unless the
// dialog is still open for it, the handler gives up the login lock or its
// place in the queue. Credentials the user entered stay cached and are
// sent as a cached response on the next challenge.
func (h *ChallengeHandler) OnClose(connectionURL string) {
	h.connected = false
	if h.pending != nil {
		return
	}
	if h.state == StateGatheringCredentials {
		h.state = StateTryingCachedResponse
		h.username, h.password = "", ""
		h.showError = false
	}
	h.coord.ReleaseLock(h)
}

// Reset prepares for a fresh, user-initiated connection attempt. It is the
// only way out of StateCancelled.
func (h *ChallengeHandler) Reset() {
	if h.state == StateCancelled {
		h.state = StateNone
	}
	h.showError = false
}

// Dispose gives up any claim on the login dialog and forgets credentials.
// Called when the connection is removed for good.
func (h *ChallengeHandler) Dispose() {
	h.coord.ReleaseLock(h)
	h.clear()
	if h.pending != nil {
		respond := h.pending
		h.pending = nil
		respond(nil)
	}
}

func (h *ChallengeHandler) gather(showError bool, respond func(*ChallengeResponse)) {
	if h.pending != nil {
		// A newer challenge supersedes one still waiting on the dialog.
		h.pending(nil)
	}
	h.state = StateGatheringCredentials
	h.showError = showError
	h.pending = respond

	if h.coord.Reprompt(h) {
		return
	}
	h.coord.RequestLock(LockRequest{
		Requester:              h,
		OnResult:               h.onResult,
		CanChangeConnectionURL: h.canChangeURL,
	})
}

func (h *ChallengeHandler) onResult(res Result) {
	respond := h.pending
	h.pending = nil

	if res.Cancelled || res.Username == "" {
		h.log.Info("login to %s cancelled", h.url)
		h.state = StateCancelled
		h.clear()
		h.coord.ReleaseLock(h)
		if respond != nil {
			respond(nil)
		}
		return
	}

	if res.ConnectionURL != "" && res.ConnectionURL != h.url {
		h.log.Info("connection URL changed from %s to %s", h.url, res.ConnectionURL)
		h.url = res.ConnectionURL
	}
	h.username, h.password = res.Username, res.Password
	h.cached = EncodeCredentials(res.Username, res.Password)

	if respond != nil {
		respond(h.response())
	}
}

func (h *ChallengeHandler) response() *ChallengeResponse {
	return &ChallengeResponse{Scheme: h.scheme, Credentials: h.cached}
}

func (h *ChallengeHandler) clear() {
	h.cached = ""
	h.username, h.password = "", ""
}

// locationPath accepts either a full URL or a bare path.
func locationPath(location string) string {
	if u, err := url.Parse(location); err == nil && u.Path != "" {
		return u.Path
	}
	return location
}
