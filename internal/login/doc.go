// Package login serializes credential prompting across gateway connections.
//
// Each gateway connection owns a ChallengeHandler. When the transport is
// challenged, the handler answers straight from cached credentials when it
// can (a reconnect or a periodic revalidation) and otherwise asks the
// process-wide Coordinator for the single login dialog. The Coordinator
// grants the dialog to one handler at a time in request order, shows the
// Dialog on that handler's behalf and hands the result back.
//
// # States
//
//	None ──cached──▶ TryingCachedResponse ──rejected──▶ GatheringCredentials
//	None ──cached, open──▶ TryingRevalidate (re-answers with the same credentials)
//	None ──nothing cached──▶ GatheringCredentials
//	GatheringCredentials ──rejected──▶ GatheringCredentials (error shown)
//	GatheringCredentials ──cancel──▶ Cancelled (answers nil until Reset)
//	any ──OnOpen──▶ None
//
// The first connection to open publishes its credentials to a shared,
// write-once SharedCredentials slot that connections without their own
// cached credentials fall back to.
//
// Everything here runs on one event.Queue. Dialog implementations must
// deliver their result on that queue.
package login
