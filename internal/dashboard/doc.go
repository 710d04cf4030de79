// Package dashboard implements the command center TUI.
//
// Every gateway gets a card with its session count, CPU and heap use, and
// service states. Enter opens a scrollable view of every summary store the
// gateway has reported.
//
// # Message Flow
//
//  1. tickMsg fires at the configured interval
//  2. refreshCmd asks the Source for a Snapshot, which QueueSource copies
//     out of the cluster on the event queue
//  3. snapshotMsg replaces the model's snapshot and View re-renders
//
// Login prompts arrive as LoginRequestMsg through Dialog. The form is drawn
// in place of the dashboard until it is submitted or cancelled, and the
// answer is scheduled back onto the event queue.
package dashboard
