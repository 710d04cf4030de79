// Package testing provides test doubles for the login package.
package testing

import (
	"sync"

	"github.com/rileyhilliard/commandcenter/internal/login"
)

// FakeDialog records every prompt and lets the test decide when and how
// each one is answered.
type FakeDialog struct {
	mu      sync.Mutex
	Prompts []login.Prompt
	pending []func(login.Result)
}

// NewFakeDialog creates a dialog that never answers on its own.
func NewFakeDialog() *FakeDialog {
	return &FakeDialog{}
}

// Display records the prompt and keeps done until the test answers.
func (d *FakeDialog) Display(p login.Prompt, done func(login.Result)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Prompts = append(d.Prompts, p)
	d.pending = append(d.pending, done)
}

// Shown returns how many times the dialog was displayed.
func (d *FakeDialog) Shown() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Prompts)
}

// Last returns the most recent prompt.
func (d *FakeDialog) Last() login.Prompt {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Prompts) == 0 {
		return login.Prompt{}
	}
	return d.Prompts[len(d.Prompts)-1]
}

// Open reports whether a displayed dialog is still waiting for an answer.
func (d *FakeDialog) Open() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending) > 0
}

// Submit answers the oldest open dialog with credentials. Returns false if
// nothing was open.
func (d *FakeDialog) Submit(username, password string) bool {
	d.mu.Lock()
	url := ""
	if len(d.Prompts) > 0 {
		url = d.Prompts[len(d.Prompts)-len(d.pending)].ConnectionURL
	}
	d.mu.Unlock()
	return d.Answer(login.Result{ConnectionURL: url, Username: username, Password: password})
}

// Cancel answers the oldest open dialog as cancelled.
func (d *FakeDialog) Cancel() bool {
	return d.Answer(login.Result{Cancelled: true})
}

// Answer completes the oldest open dialog with res. The callback runs on
// the caller's goroutine; tests drive the event queue themselves.
func (d *FakeDialog) Answer(res login.Result) bool {
	d.mu.Lock()
	if len(d.pending) == 0 {
		d.mu.Unlock()
		return false
	}
	done := d.pending[0]
	d.pending = d.pending[1:]
	d.mu.Unlock()

	done(res)
	return true
}
