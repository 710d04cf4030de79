package login

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/commandcenter/internal/event"
	"github.com/rileyhilliard/commandcenter/internal/logger"
)

// IncorrectCredentialsMessage is shown when ShowError is set.
const IncorrectCredentialsMessage = "Incorrect username or password"

// NewForm builds the huh login form for p. Answers are written into res
// as the user types; the caller decides what an aborted form means.
func NewForm(p Prompt, res *Result) *huh.Form {
	res.ConnectionURL = p.ConnectionURL
	res.Username = p.Username
	res.Password = p.Password

	var fields []huh.Field

	header := huh.NewNote().
		Title("Log in to " + p.ConnectionURL)
	if p.ShowError {
		header = header.Description(IncorrectCredentialsMessage)
	}
	fields = append(fields, header)

	if p.CanChangeConnectionURL {
		fields = append(fields, huh.NewInput().
			Title("Gateway URL").
			Value(&res.ConnectionURL).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("gateway URL is required")
				}
				return nil
			}))
	}

	fields = append(fields,
		huh.NewInput().
			Title("Username").
			Value(&res.Username),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&res.Password),
	)

	return huh.NewForm(huh.NewGroup(fields...))
}

// FormDialog shows the login form on the terminal. The form runs on its
// own goroutine and the answer is scheduled back onto the event queue.
type FormDialog struct {
	sched event.Scheduler
	log   logger.Logger

	// run shows the form and blocks until it is submitted or aborted.
	run func(p Prompt) (Result, error)
}

// NewFormDialog creates a terminal login dialog.
func NewFormDialog(sched event.Scheduler, log logger.Logger) *FormDialog {
	if log == nil {
		log = logger.Noop()
	}
	return &FormDialog{sched: sched, log: log, run: runForm}
}

// Display starts the form and returns immediately.
func (d *FormDialog) Display(p Prompt, done func(Result)) {
	go func() {
		res, err := d.run(p)
		if err != nil {
			if !errors.Is(err, huh.ErrUserAborted) {
				d.log.Warn("login form for %s failed: %v", p.ConnectionURL, err)
			}
			res = Result{ConnectionURL: p.ConnectionURL, Cancelled: true}
		}
		d.sched.Schedule(func() { done(res) })
	}()
}

func runForm(p Prompt) (Result, error) {
	var res Result
	if err := NewForm(p, &res).Run(); err != nil {
		return Result{}, err
	}
	res.Username = strings.TrimSpace(res.Username)
	res.ConnectionURL = strings.TrimSpace(res.ConnectionURL)
	return res, nil
}
