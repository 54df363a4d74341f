// Package audit provides structured audit logging for authentication and
// authorization decisions.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Actions recorded by the service.
const (
	ActionLogin         = "login"
	ActionTokenValidate = "token_validate"
	ActionAccessDenied  = "access_denied"
)

// Results of an audited action.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultDenied  = "denied"
)

// Event represents one audited decision.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Username  string    `json:"username,omitempty"`
	Action    string    `json:"action"`
	Result    string    `json:"result"`
	Path      string    `json:"path,omitempty"`
	IP        string    `json:"ip,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Handler processes audit events. Implementations should not block.
type Handler func(event Event)

// Logger emits audit events to configured handlers from a buffered queue,
// so the request path never blocks on audit I/O.
type Logger struct {
	handlers []Handler
	queue    chan Event
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// Option configures Logger behavior.
type Option func(*Logger)

// WithStdoutHandler adds a handler that writes JSON events to stdout.
func WithStdoutHandler() Option {
	return func(l *Logger) {
		l.handlers = append(l.handlers, func(e Event) {
			data, _ := json.Marshal(e)
			fmt.Fprintf(os.Stdout, "%s\n", data)
		})
	}
}

// WithHandler adds a custom event handler.
func WithHandler(h Handler) Option {
	return func(l *Logger) {
		l.handlers = append(l.handlers, h)
	}
}

// New creates an audit logger with buffered async emission.
func New(opts ...Option) *Logger {
	l := &Logger{
		queue: make(chan Event, 1000),
		done:  make(chan struct{}),
	}
	for _, o := range opts {
		o(l)
	}

	l.wg.Add(1)
	go l.run()
	return l
}

func (l *Logger) run() {
	defer l.wg.Done()
	for {
		select {
		case e := <-l.queue:
			l.dispatch(e)
		case <-l.done:
			// drain remaining events
			for {
				select {
				case e := <-l.queue:
					l.dispatch(e)
				default:
					return
				}
			}
		}
	}
}

func (l *Logger) dispatch(e Event) {
	for _, h := range l.handlers {
		h(e)
	}
}

// Log queues an event. Drops the event if the queue is full rather than
// blocking the request path.
func (l *Logger) Log(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	select {
	case l.queue <- e:
	default:
	}
}

// Close flushes queued events and stops the logger.
func (l *Logger) Close() {
	l.once.Do(func() { close(l.done) })
	l.wg.Wait()
}
