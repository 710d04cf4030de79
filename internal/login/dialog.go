package login

import (
	"github.com/rileyhilliard/commandcenter/internal/event"
)

// Prompt is what the login dialog shows for one request.
type Prompt struct {
	ConnectionURL          string
	CanChangeConnectionURL bool

	// ShowError asks the dialog to say the previous credentials were rejected.
	ShowError bool

	Username string
	Password string
}

// Result is what the user answered.
type Result struct {
	ConnectionURL string
	Username      string
	Password      string
	Cancelled     bool
}

// Dialog gathers credentials from the user. Display must return without
// blocking and call done exactly once, on the event queue.
type Dialog interface {
	Display(p Prompt, done func(Result))
}

// DialogFunc adapts a function to the Dialog interface.
type DialogFunc func(p Prompt, done func(Result))

// Display calls f.
func (f DialogFunc) Display(p Prompt, done func(Result)) {
	f(p, done)
}

// StaticDialog answers with fixed credentials for unattended use. Once
// those credentials have been rejected it cancels instead of looping.
type StaticDialog struct {
	Username string
	Password string

	sched event.Scheduler
}

// NewStaticDialog creates a dialog that answers on sched.
func NewStaticDialog(sched event.Scheduler, username, password string) *StaticDialog {
	return &StaticDialog{Username: username, Password: password, sched: sched}
}

// Display schedules the configured answer.
func (d *StaticDialog) Display(p Prompt, done func(Result)) {
	res := Result{
		ConnectionURL: p.ConnectionURL,
		Username:      d.Username,
		Password:      d.Password,
	}
	if p.ShowError || d.Username == "" {
		res = Result{ConnectionURL: p.ConnectionURL, Cancelled: true}
	}
	d.sched.Schedule(func() { done(res) })
}
