package event

// Listeners is an ordered list of callbacks fired synchronously.
// The zero value is ready to use. Not safe for concurrent use.
type Listeners[T any] struct {
	nextID int
	subs   []subscription[T]
}

type subscription[T any] struct {
	id int
	fn func(T)
}

// Subscribe registers fn and returns a function that removes it again.
// Calling the returned function more than once is harmless.
func (l *Listeners[T]) Subscribe(fn func(T)) func() {
	if fn == nil {
		return func() {}
	}
	l.nextID++
	id := l.nextID
	l.subs = append(l.subs, subscription[T]{id: id, fn: fn})
	return func() { l.remove(id) }
}

// Fire calls every listener in subscription order. Listeners added or
// removed while firing take effect from the next Fire.
func (l *Listeners[T]) Fire(v T) {
	if len(l.subs) == 0 {
		return
	}
	subs := make([]subscription[T], len(l.subs))
	copy(subs, l.subs)
	for _, s := range subs {
		s.fn(v)
	}
}

// Len returns the number of registered listeners.
func (l *Listeners[T]) Len() int {
	return len(l.subs)
}

// Clear drops every listener.
func (l *Listeners[T]) Clear() {
	l.subs = nil
}

func (l *Listeners[T]) remove(id int) {
	for i, s := range l.subs {
		if s.id == id {
			l.subs = append(l.subs[:i:i], l.subs[i+1:]...)
			return
		}
	}
}
