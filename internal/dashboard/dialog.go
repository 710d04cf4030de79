package dashboard

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/commandcenter/internal/event"
	"github.com/rileyhilliard/commandcenter/internal/login"
)

// LoginRequestMsg asks the model to show the login form. Done must be
// called exactly once; it hands the answer back to the event queue.
type LoginRequestMsg struct {
	Prompt login.Prompt
	Done   func(login.Result)
}

// Dialog is a login.Dialog that shows its form inside the running
// dashboard so huh and bubbletea share one terminal.
type Dialog struct {
	sched event.Scheduler

	mu   sync.Mutex
	send func(tea.Msg)
}

// NewDialog creates a dialog that answers on sched.
func NewDialog(sched event.Scheduler) *Dialog {
	return &Dialog{sched: sched}
}

// Attach connects the dialog to a program, usually (*tea.Program).Send.
// Passing nil detaches it.
func (d *Dialog) Attach(send func(tea.Msg)) {
	d.mu.Lock()
	d.send = send
	d.mu.Unlock()
}

// Display forwards the prompt to the program. Without a program attached
// the request is cancelled.
func (d *Dialog) Display(p login.Prompt, done func(login.Result)) {
	d.mu.Lock()
	send := d.send
	d.mu.Unlock()

	if send == nil {
		res := login.Result{ConnectionURL: p.ConnectionURL, Cancelled: true}
		d.sched.Schedule(func() { done(res) })
		return
	}

	var once sync.Once
	msg := LoginRequestMsg{
		Prompt: p,
		Done: func(res login.Result) {
			once.Do(func() {
				d.sched.Schedule(func() { done(res) })
			})
		},
	}
	// Program.Send blocks until the program reads it.
	go send(msg)
}
