package job

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/target/jobmatch/internal/domain/model"
)

// ErrListenerRequired indicates a notifier cannot be constructed without a listener.
var ErrListenerRequired = errors.New("notifier listener is required")

// Listener registers interest in postings of one job type.
type Listener interface {
	// Listen returns once the registration is active. Postings made after it
	// returns are delivered through Wait, even if nobody is waiting at the time.
	Listen(ctx context.Context, jobType model.JobType) (Listening, error)
}

// Listening is an active registration returned by Listener.Listen.
type Listening interface {
	// Wait blocks until a posting arrives or ctx ends.
	Wait(ctx context.Context) error
	Close() error
}

// Notifier fans posting notifications out to long-polling workers.
// One registration is held per job type while at least one subscriber wants it.
type Notifier interface {
	// Subscribe returns a channel that receives a signal whenever a job of any of
	// the given types is posted. It returns once every type is being listened
	// for, so a posting made after Subscribe returns is always signalled. The
	// returned func releases the subscription. On error nothing stays subscribed.
	Subscribe(ctx context.Context, types ...model.JobType) (func(), <-chan struct{}, error)
	StopAll()
}

// NotifierOptions configure the behaviour of the default notifier implementation.
type NotifierOptions struct {
	Listener   Listener
	WaitWindow time.Duration
	Backoff    time.Duration
}

// DefaultNotifier is the default implementation of Notifier.
type DefaultNotifier struct {
	listener   Listener
	waitWindow time.Duration
	backoff    time.Duration

	mu        sync.Mutex
	subs      map[model.JobType]map[chan struct{}]struct{}
	listeners map[model.JobType]*typeListener
}

// typeListener tracks the registration loop for one job type.
type typeListener struct {
	cancel    context.CancelFunc
	ready     chan struct{} // closed after the first Listen attempt
	readyOnce sync.Once
	err       error // latest Listen result, guarded by DefaultNotifier.mu
}

// NewNotifier constructs the default notifier implementation.
func NewNotifier(opts NotifierOptions) (*DefaultNotifier, error) {
	if opts.Listener == nil {
		return nil, ErrListenerRequired
	}

	waitWindow := opts.WaitWindow
	if waitWindow <= 0 {
		waitWindow = time.Minute
	}

	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}

	return &DefaultNotifier{
		listener:   opts.Listener,
		waitWindow: waitWindow,
		backoff:    backoff,
		subs:       make(map[model.JobType]map[chan struct{}]struct{}),
		listeners:  make(map[model.JobType]*typeListener),
	}, nil
}

func (n *DefaultNotifier) Subscribe(ctx context.Context, types ...model.JobType) (func(), <-chan struct{}, error) {
	ch := make(chan struct{}, 1)
	types = uniqueTypes(types)

	n.mu.Lock()
	pending := make([]*typeListener, 0, len(types))
	for _, jobType := range types {
		l, ok := n.listeners[jobType]
		if !ok {
			lctx, cancel := context.WithCancel(context.Background())
			l = &typeListener{cancel: cancel, ready: make(chan struct{})}
			n.listeners[jobType] = l
			go n.listenLoop(lctx, jobType, l)
		}
		pending = append(pending, l)
		if n.subs[jobType] == nil {
			n.subs[jobType] = make(map[chan struct{}]struct{})
		}
		n.subs[jobType][ch] = struct{}{}
	}
	n.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			registered := false
			for _, jobType := range types {
				subscribers := n.subs[jobType]
				if _, ok := subscribers[ch]; !ok {
					continue
				}
				registered = true
				delete(subscribers, ch)
				if len(subscribers) == 0 {
					n.stopListener(jobType)
					delete(n.subs, jobType)
				}
			}
			if registered {
				drainAndClose(ch)
			}
		})
	}

	for _, l := range pending {
		select {
		case <-l.ready:
		case <-ctx.Done():
			unsub()
			return func() {}, nil, ctx.Err()
		}
		n.mu.Lock()
		err := l.err
		n.mu.Unlock()
		if err != nil {
			unsub()
			return func() {}, nil, fmt.Errorf("listen for postings: %w", err)
		}
	}

	return unsub, ch, nil
}

func (n *DefaultNotifier) StopAll() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for jobType, l := range n.listeners {
		l.cancel()
		delete(n.listeners, jobType)
	}
	closed := make(map[chan struct{}]struct{})
	for jobType, subscribers := range n.subs {
		for ch := range subscribers {
			if _, done := closed[ch]; !done {
				drainAndClose(ch)
				closed[ch] = struct{}{}
			}
		}
		delete(n.subs, jobType)
	}
}

func (n *DefaultNotifier) stopListener(jobType model.JobType) {
	l, ok := n.listeners[jobType]
	if !ok {
		return
	}
	l.cancel()
	delete(n.listeners, jobType)
}

// listenLoop holds a registration for jobType until ctx ends, re-registering
// after failures. Subscribers are woken after a re-registration because
// postings made while nothing was registered were not delivered.
func (n *DefaultNotifier) listenLoop(ctx context.Context, jobType model.JobType, l *typeListener) {
	defer n.recordListen(l, context.Canceled)

	reregistered := false
	for ctx.Err() == nil {
		listening, err := n.listener.Listen(ctx, jobType)
		n.recordListen(l, err)
		if err != nil {
			if ctx.Err() != nil || !n.sleepBackoff(ctx) {
				return
			}
			reregistered = true
			continue
		}

		if reregistered {
			n.broadcast(jobType)
		}
		n.waitLoop(ctx, jobType, listening)
		_ = listening.Close()

		if !n.sleepBackoff(ctx) {
			return
		}
		reregistered = true
	}
}

// waitLoop signals subscribers for every posting until the registration fails
// or ctx ends.
func (n *DefaultNotifier) waitLoop(ctx context.Context, jobType model.JobType, listening Listening) {
	for {
		waitCtx, cancel := context.WithTimeout(ctx, n.waitWindow)
		err := listening.Wait(waitCtx)
		cancel()

		switch {
		case err == nil:
			n.broadcast(jobType)
		case ctx.Err() != nil:
			return
		case errors.Is(err, context.DeadlineExceeded):
			// Quiet window; the registration stays active.
		default:
			return
		}
	}
}

func (n *DefaultNotifier) recordListen(l *typeListener, err error) {
	n.mu.Lock()
	l.err = err
	n.mu.Unlock()
	l.readyOnce.Do(func() { close(l.ready) })
}

func (n *DefaultNotifier) sleepBackoff(ctx context.Context) bool {
	timer := time.NewTimer(n.backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (n *DefaultNotifier) broadcast(jobType model.JobType) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for ch := range n.subs[jobType] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func uniqueTypes(types []model.JobType) []model.JobType {
	seen := make(map[model.JobType]struct{}, len(types))
	out := make([]model.JobType, 0, len(types))
	for _, t := range types {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// drainAndClose removes any buffered signal before closing so receivers observe
// a closed channel immediately.
func drainAndClose(ch chan struct{}) {
	for {
		select {
		case <-ch:
		default:
			close(ch)
			return
		}
	}
}

var _ Notifier = (*DefaultNotifier)(nil)
