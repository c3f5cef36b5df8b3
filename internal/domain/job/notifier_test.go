package job

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/jobmatch/internal/domain/model"
)

// fakeBroker behaves like Postgres LISTEN/NOTIFY: a posting reaches only the
// registrations active when it is sent, and waits in their buffer until read.
type fakeBroker struct {
	mu          sync.Mutex
	regs        map[model.JobType]map[*fakeListening]struct{}
	listens     chan model.JobType
	listenErr   error
	listenDelay time.Duration
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{
		regs:    make(map[model.JobType]map[*fakeListening]struct{}),
		listens: make(chan model.JobType, 16),
	}
}

func (b *fakeBroker) Listen(ctx context.Context, jobType model.JobType) (Listening, error) {
	if b.listenDelay > 0 {
		timer := time.NewTimer(b.listenDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	select {
	case b.listens <- jobType:
	default:
	}
	if b.listenErr != nil {
		return nil, b.listenErr
	}
	l := &fakeListening{
		broker:  b,
		jobType: jobType,
		inbox:   make(chan struct{}, 16),
		broken:  make(chan struct{}),
	}
	if b.regs[jobType] == nil {
		b.regs[jobType] = make(map[*fakeListening]struct{})
	}
	b.regs[jobType][l] = struct{}{}
	return l, nil
}

// notify posts a job of jobType and reports how many registrations received it.
func (b *fakeBroker) notify(jobType model.JobType) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	for l := range b.regs[jobType] {
		l.inbox <- struct{}{}
	}
	return len(b.regs[jobType])
}

// drop breaks every registration for jobType, as a lost connection would.
func (b *fakeBroker) drop(jobType model.JobType) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for l := range b.regs[jobType] {
		close(l.broken)
		delete(b.regs[jobType], l)
	}
}

func (b *fakeBroker) registered(jobType model.JobType) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.regs[jobType])
}

type fakeListening struct {
	broker  *fakeBroker
	jobType model.JobType
	inbox   chan struct{}
	broken  chan struct{}
}

func (l *fakeListening) Wait(ctx context.Context) error {
	select {
	case <-l.inbox:
		return nil
	case <-l.broken:
		return errors.New("connection reset")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *fakeListening) Close() error {
	l.broker.mu.Lock()
	defer l.broker.mu.Unlock()
	delete(l.broker.regs[l.jobType], l)
	return nil
}

func expectSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case _, ok := <-ch:
		require.True(t, ok, "expected a signal, channel was closed")
	case <-time.After(time.Second):
		t.Fatal("expected notification to be delivered")
	}
}

func expectClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("expected channel to close")
	}
}

func TestNewNotifierRequiresListener(t *testing.T) {
	notifier, err := NewNotifier(NotifierOptions{})
	require.ErrorIs(t, err, ErrListenerRequired)
	assert.Nil(t, notifier)
}

func TestNotifier_PostingRightAfterSubscribeIsSignalled(t *testing.T) {
	broker := newFakeBroker()
	broker.listenDelay = 50 * time.Millisecond
	notifier, err := NewNotifier(NotifierOptions{Listener: broker})
	require.NoError(t, err)
	defer notifier.StopAll()

	unsub, ch, err := notifier.Subscribe(context.Background(), model.JobTypeSnowRemoval)
	require.NoError(t, err)
	defer unsub()

	assert.Equal(t, 1, broker.notify(model.JobTypeSnowRemoval), "registration must be active when Subscribe returns")
	expectSignal(t, ch)
}

func TestNotifier_RegistrationOutlivesQuietWindows(t *testing.T) {
	broker := newFakeBroker()
	notifier, err := NewNotifier(NotifierOptions{Listener: broker, WaitWindow: 5 * time.Millisecond})
	require.NoError(t, err)
	defer notifier.StopAll()

	unsub, ch, err := notifier.Subscribe(context.Background(), model.JobTypeLawnCare)
	require.NoError(t, err)
	defer unsub()

	// Several wait windows elapse; the registration must not be torn down between them.
	time.Sleep(40 * time.Millisecond)
	require.Equal(t, 1, broker.notify(model.JobTypeLawnCare))
	expectSignal(t, ch)

	require.Equal(t, 1, broker.notify(model.JobTypeLawnCare))
	expectSignal(t, ch)
	assert.Len(t, broker.listens, 1, "one registration per type")
}

func TestNotifier_ReregistrationWakesSubscribers(t *testing.T) {
	broker := newFakeBroker()
	notifier, err := NewNotifier(NotifierOptions{Listener: broker, Backoff: 5 * time.Millisecond})
	require.NoError(t, err)
	defer notifier.StopAll()

	unsub, ch, err := notifier.Subscribe(context.Background(), model.JobTypeHandyman)
	require.NoError(t, err)
	defer unsub()

	broker.drop(model.JobTypeHandyman)

	// Postings made while unregistered are lost, so subscribers are told to look again.
	expectSignal(t, ch)
	assert.Eventually(t, func() bool { return broker.registered(model.JobTypeHandyman) == 1 },
		time.Second, 5*time.Millisecond)
}

func TestNotifier_SubscribeFailsWhenListenFails(t *testing.T) {
	broker := newFakeBroker()
	broker.listenErr = errors.New("too many connections")
	notifier, err := NewNotifier(NotifierOptions{Listener: broker})
	require.NoError(t, err)
	defer notifier.StopAll()

	unsub, ch, err := notifier.Subscribe(context.Background(), model.JobTypePlumbing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many connections")
	assert.Nil(t, ch)
	unsub()

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Empty(t, notifier.listeners)
	assert.Empty(t, notifier.subs)
}

func TestNotifier_SubscribeHonoursContext(t *testing.T) {
	broker := newFakeBroker()
	broker.listenDelay = time.Second
	notifier, err := NewNotifier(NotifierOptions{Listener: broker})
	require.NoError(t, err)
	defer notifier.StopAll()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, ch, err := notifier.Subscribe(ctx, model.JobTypeCarpentry)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, ch)
}

func TestNotifier_UnsubscribeClosesChannel(t *testing.T) {
	broker := newFakeBroker()
	notifier, err := NewNotifier(NotifierOptions{Listener: broker})
	require.NoError(t, err)

	unsub, ch, err := notifier.Subscribe(context.Background(), model.JobTypeLawnCare)
	require.NoError(t, err)

	unsub()
	expectClosed(t, ch)
	assert.Eventually(t, func() bool { return broker.registered(model.JobTypeLawnCare) == 0 },
		time.Second, 5*time.Millisecond, "last unsubscribe releases the registration")
}

func TestNotifier_StopAllClosesChannels(t *testing.T) {
	broker := newFakeBroker()
	notifier, err := NewNotifier(NotifierOptions{Listener: broker})
	require.NoError(t, err)

	unsubSnow, chSnow, err := notifier.Subscribe(context.Background(), model.JobTypeSnowRemoval)
	require.NoError(t, err)
	unsubLawn, chLawn, err := notifier.Subscribe(context.Background(), model.JobTypeLawnCare)
	require.NoError(t, err)

	notifier.StopAll()

	expectClosed(t, chSnow)
	expectClosed(t, chLawn)

	// Unsubscribes should remain safe post-stop.
	unsubSnow()
	unsubLawn()
}

func TestNotifier_SubscribeManyTypesSharesOneChannel(t *testing.T) {
	broker := newFakeBroker()
	notifier, err := NewNotifier(NotifierOptions{Listener: broker})
	require.NoError(t, err)
	defer notifier.StopAll()

	unsub, ch, err := notifier.Subscribe(context.Background(),
		model.JobTypePlumbing, model.JobTypeElectrical, model.JobTypePlumbing)
	require.NoError(t, err)
	assert.Len(t, broker.listens, 2)

	require.Equal(t, 1, broker.notify(model.JobTypeElectrical))
	expectSignal(t, ch)

	unsub()
	unsub()
	expectClosed(t, ch)
}
