// Package cli implements the commandcenter command-line interface.
//
// Each cobra command loads the config through a session, which owns the
// event queue and the cluster, then wires the pieces for its job:
//
//	commandcenter monitor          - Live dashboard for every gateway
//	commandcenter watch            - Print updates as text, optionally recording them
//	commandcenter replay <file>    - Play a recorded feed, as text or in the dashboard
//	commandcenter version          - Print build information
//	commandcenter completion       - Generate shell completion
//
// # Login Dialogs
//
// The login mode in the config picks who answers gateway login prompts.
// "form" always asks the user, in the dashboard for monitor and on the
// terminal for watch. "static" answers with the configured username and
// the password from password_env. "auto" asks when stdin and stdout are a
// terminal and answers statically otherwise.
//
// URLs changed in the login form are written back to the config file when
// the command exits.
package cli
