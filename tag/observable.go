package tag

import (
	"slices"
	"strings"
)

// Handler receives the arguments passed to [Observable.Trigger]. A handler
// registered for "*" receives the event name as its first argument.
type Handler func(args ...any)

type listener struct {
	fn   Handler
	once bool
}

// Observable is a synchronous event emitter. Handlers run in registration
// order on the goroutine that calls [Observable.Trigger].
//
// The zero value is ready to use.
type Observable struct {
	handlers map[string][]*listener
}

// On registers fn for each space-separated event name in events and returns
// a function that removes those registrations.
func (o *Observable) On(events string, fn Handler) (off func()) {
	return o.add(events, fn, false)
}

// One is [Observable.On] for a handler that is removed before its first
// invocation.
func (o *Observable) One(events string, fn Handler) (off func()) {
	return o.add(events, fn, true)
}

func (o *Observable) add(events string, fn Handler, once bool) func() {
	if fn == nil {
		return func() {}
	}

	if o.handlers == nil {
		o.handlers = make(map[string][]*listener)
	}

	l := &listener{fn: fn, once: once}
	names := strings.Fields(events)

	for _, name := range names {
		o.handlers[name] = append(o.handlers[name], l)
	}

	return func() {
		for _, name := range names {
			o.remove(name, l)
		}
	}
}

func (o *Observable) remove(name string, l *listener) {
	list := slices.DeleteFunc(slices.Clone(o.handlers[name]), func(x *listener) bool {
		return x == l
	})

	if len(list) == 0 {
		delete(o.handlers, name)
	} else {
		o.handlers[name] = list
	}
}

// Off removes every handler of each space-separated event name in events.
// The name "*" removes all handlers of all events.
func (o *Observable) Off(events string) {
	for _, name := range strings.Fields(events) {
		if name == "*" {
			clear(o.handlers)

			return
		}

		delete(o.handlers, name)
	}
}

// Trigger invokes the handlers of event with args, followed by the handlers
// registered for "*". Handlers added or removed by a running handler take
// effect on the next trigger.
func (o *Observable) Trigger(event string, args ...any) {
	o.dispatch(event, args)

	if event != "*" {
		o.dispatch("*", append([]any{event}, args...))
	}
}

func (o *Observable) dispatch(name string, args []any) {
	list := slices.Clone(o.handlers[name])

	for _, l := range list {
		if l.once {
			o.remove(name, l)
		}
	}

	for _, l := range list {
		l.fn(args...)
	}
}

// Listeners returns the number of handlers registered for event.
func (o *Observable) Listeners(event string) int {
	return len(o.handlers[event])
}
