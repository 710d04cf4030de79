package login

import (
	"github.com/rileyhilliard/commandcenter/internal/event"
	"github.com/rileyhilliard/commandcenter/internal/logger"
)

// Requester is a party that can hold the login lock. The coordinator asks
// it for the prompt to show each time its login cycle runs.
type Requester interface {
	ConnectionURL() string
	Prompt() Prompt
}

// LockRequest is one entry in the login lock queue.
type LockRequest struct {
	Requester              Requester
	OnResult               func(Result)
	CanChangeConnectionURL bool
}

// Coordinator grants the single login dialog to one requester at a time,
// strictly in arrival order. Not safe for concurrent use; drive it from the
// event queue.
type Coordinator struct {
	sched  event.Scheduler
	dialog Dialog
	log    logger.Logger

	holder *LockRequest
	queue  []*LockRequest

	// cycle increments whenever a login cycle is scheduled or the lock is
	// reset, so results from superseded dialogs can be told apart.
	cycle uint64
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithCoordinatorLogger sets the coordinator logger.
func WithCoordinatorLogger(l logger.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

// NewCoordinator creates a coordinator that schedules login cycles on sched
// and shows dialog for them.
func NewCoordinator(sched event.Scheduler, dialog Dialog, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		sched:  sched,
		dialog: dialog,
		log:    logger.Noop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetDialog swaps the dialog used for subsequent login cycles.
func (c *Coordinator) SetDialog(d Dialog) {
	c.dialog = d
}

// RequestLock makes req the holder if the lock is free and schedules its
// login cycle; otherwise it joins the back of the queue. Requesting again
// while holding or queued does nothing.
func (c *Coordinator) RequestLock(req LockRequest) {
	if req.Requester == nil {
		return
	}
	if c.Holds(req.Requester) || c.queuedAt(req.Requester) >= 0 {
		c.log.Debug("%s already holds or waits for the login lock", req.Requester.ConnectionURL())
		return
	}

	r := req
	if c.holder == nil {
		c.holder = &r
		c.log.Debug("login lock granted to %s", r.Requester.ConnectionURL())
		c.scheduleCycle()
		return
	}

	c.queue = append(c.queue, &r)
	c.log.Debug("%s queued for the login lock (position %d)", r.Requester.ConnectionURL(), len(c.queue))
}

// ReleaseLock gives up the lock or a place in the queue. Releasing the
// holder promotes the next queued request; removing a queued request
// promotes nothing.
func (c *Coordinator) ReleaseLock(r Requester) {
	if r == nil {
		return
	}
	if c.Holds(r) {
		c.holder = nil
		c.log.Debug("login lock released by %s", r.ConnectionURL())
		c.promote()
		return
	}
	if i := c.queuedAt(r); i >= 0 {
		c.queue = append(c.queue[:i], c.queue[i+1:]...)
		c.log.Debug("%s left the login queue", r.ConnectionURL())
	}
}

// ResetAll drops the holder and every queued request. A dialog still on
// screen for the old holder is ignored when it completes. Requesters are
// not told: challenge handlers still waiting on the dialog must be
// disposed or challenged again by the caller.
func (c *Coordinator) ResetAll() {
	c.holder = nil
	c.queue = nil
	c.cycle++
	c.log.Debug("login lock reset")
}

// Reprompt schedules another login cycle for r if it holds the lock.
// Used to show the dialog again after the server rejected what the user
// typed. Returns false when r is not the holder.
func (c *Coordinator) Reprompt(r Requester) bool {
	if !c.Holds(r) {
		return false
	}
	c.scheduleCycle()
	return true
}

// Holds reports whether r is the current holder.
func (c *Coordinator) Holds(r Requester) bool {
	return c.holder != nil && c.holder.Requester == r
}

// Holder returns the current holder, or nil.
func (c *Coordinator) Holder() Requester {
	if c.holder == nil {
		return nil
	}
	return c.holder.Requester
}

// Queued returns the waiting requesters in service order.
func (c *Coordinator) Queued() []Requester {
	out := make([]Requester, len(c.queue))
	for i, req := range c.queue {
		out[i] = req.Requester
	}
	return out
}

func (c *Coordinator) queuedAt(r Requester) int {
	for i, req := range c.queue {
		if req.Requester == r {
			return i
		}
	}
	return -1
}

func (c *Coordinator) promote() {
	if len(c.queue) == 0 {
		return
	}
	next := c.queue[0]
	c.queue[0] = nil
	c.queue = c.queue[1:]
	c.holder = next
	c.log.Debug("login lock passed to %s", next.Requester.ConnectionURL())
	c.scheduleCycle()
}

// scheduleCycle defers the dialog so the requester's own call finishes
// before anything is shown.
func (c *Coordinator) scheduleCycle() {
	c.cycle++
	holder, gen := c.holder, c.cycle
	c.sched.Schedule(func() { c.runCycle(holder, gen) })
}

func (c *Coordinator) current(holder *LockRequest, gen uint64) bool {
	return c.holder == holder && c.cycle == gen
}

func (c *Coordinator) runCycle(holder *LockRequest, gen uint64) {
	if !c.current(holder, gen) {
		return
	}

	p := holder.Requester.Prompt()
	p.CanChangeConnectionURL = holder.CanChangeConnectionURL
	if p.ConnectionURL == "" {
		p.ConnectionURL = holder.Requester.ConnectionURL()
	}

	c.dialog.Display(p, func(res Result) { c.complete(holder, gen, res) })
}

func (c *Coordinator) complete(holder *LockRequest, gen uint64, res Result) {
	if !c.current(holder, gen) {
		c.log.Debug("ignoring superseded login result for %s", holder.Requester.ConnectionURL())
		return
	}

	if res.Cancelled || res.Username == "" {
		res.Cancelled = true
		res.Username, res.Password = "", ""
		c.ReleaseLock(holder.Requester)
	}

	if holder.OnResult != nil {
		holder.OnResult(res)
	}
}
