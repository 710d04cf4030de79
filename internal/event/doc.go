// Package event holds the two primitives the rest of commandcenter is built
// on: a synchronous observer list and a cooperative task queue.
//
// Stores, the login coordinator and challenge handlers are not safe for
// concurrent use. They are only ever touched from tasks running on a single
// Queue, which gives the whole core one logical thread. Transport goroutines
// and terminal forms hand their results back by scheduling a task rather
// than calling into the core directly.
package event
