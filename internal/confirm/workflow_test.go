package confirm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"opsgate/internal/audit"
	"opsgate/internal/command"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []Record
	err   error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, rec Record) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, rec)
	return d.err
}

func (d *fakeDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

func testCommand(t *testing.T) command.Command {
	t.Helper()
	cmd, err := command.Validate(command.Raw{Action: "create_vm", Name: "web-server", Flavor: "medium"})
	require.NoError(t, err)
	return cmd
}

func newTestWorkflow(t *testing.T) (*Workflow, *testClock, *fakeDispatcher, *audit.Memory) {
	t.Helper()
	clock := newTestClock()
	disp := &fakeDispatcher{}
	trail := audit.NewMemory()
	wf := NewWorkflow(Config{
		TTL:        5 * time.Minute,
		Retention:  time.Hour,
		Dispatcher: disp,
		Audit:      trail,
		Now:        clock.Now,
	})
	return wf, clock, disp, trail
}

func TestRegisterPendingRecord(t *testing.T) {
	wf, clock, _, _ := newTestWorkflow(t)
	rec := wf.Register(context.Background(), testCommand(t))

	require.NotEmpty(t, rec.Token)
	require.Equal(t, StatusPending, rec.Status)
	require.Equal(t, clock.Now(), rec.CreatedAt)
	require.Equal(t, clock.Now().Add(5*time.Minute), rec.ExpiresAt)
	require.True(t, rec.DecidedAt.IsZero())
}

func TestRegisterTokensUnique(t *testing.T) {
	wf, _, _, _ := newTestWorkflow(t)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		rec := wf.Register(context.Background(), testCommand(t))
		require.False(t, seen[rec.Token])
		seen[rec.Token] = true
	}
}

func TestRegisterTokensUniqueConcurrently(t *testing.T) {
	wf, _, _, _ := newTestWorkflow(t)
	cmd := testCommand(t)
	const n = 64
	tokens := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tokens <- wf.Register(context.Background(), cmd).Token
		}()
	}
	wg.Wait()
	close(tokens)

	seen := map[string]bool{}
	for token := range tokens {
		require.False(t, seen[token])
		seen[token] = true
	}
	require.Len(t, seen, n)
}

func TestDecideConfirmDispatchesOnce(t *testing.T) {
	wf, _, disp, trail := newTestWorkflow(t)
	ctx := context.Background()
	rec := wf.Register(ctx, testCommand(t))

	got, err := wf.Decide(ctx, rec.Token, DecisionConfirm)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, got.Status)
	require.Equal(t, rec.Command, got.Command)
	require.False(t, got.DecidedAt.IsZero())
	require.Equal(t, 1, disp.count())

	events, err := trail.ListByToken(ctx, rec.Token)
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.Equal(t, audit.EventRegistered, events[0].Event)
	require.Equal(t, audit.EventConfirmed, events[1].Event)
	require.Equal(t, audit.EventDispatched, events[2].Event)
}

func TestDecideCancelSkipsDispatch(t *testing.T) {
	wf, _, disp, _ := newTestWorkflow(t)
	ctx := context.Background()
	rec := wf.Register(ctx, testCommand(t))

	got, err := wf.Decide(ctx, rec.Token, DecisionCancel)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, got.Status)
	require.Zero(t, disp.count())
}

func TestDecideUnknownToken(t *testing.T) {
	wf, _, _, _ := newTestWorkflow(t)
	_, err := wf.Decide(context.Background(), "no-such-token", DecisionConfirm)
	var nf *TokenNotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "no-such-token", nf.Token)
}

func TestDecideIdempotentResubmit(t *testing.T) {
	wf, _, disp, _ := newTestWorkflow(t)
	ctx := context.Background()
	rec := wf.Register(ctx, testCommand(t))

	first, err := wf.Decide(ctx, rec.Token, DecisionConfirm)
	require.NoError(t, err)
	second, err := wf.Decide(ctx, rec.Token, DecisionConfirm)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, disp.count(), "re-submit must not dispatch again")
}

func TestDecideConflictAfterDecision(t *testing.T) {
	wf, _, _, _ := newTestWorkflow(t)
	ctx := context.Background()
	rec := wf.Register(ctx, testCommand(t))

	_, err := wf.Decide(ctx, rec.Token, DecisionCancel)
	require.NoError(t, err)

	_, err = wf.Decide(ctx, rec.Token, DecisionConfirm)
	var conflict *AlreadyDecidedError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, StatusCancelled, conflict.Status)
}

func TestDecideAfterDeadlineExpires(t *testing.T) {
	wf, clock, disp, _ := newTestWorkflow(t)
	ctx := context.Background()
	rec := wf.Register(ctx, testCommand(t))

	clock.Advance(5*time.Minute + time.Second)

	got, err := wf.Decide(ctx, rec.Token, DecisionConfirm)
	var expired *ExpiredError
	require.ErrorAs(t, err, &expired)
	require.Equal(t, rec.ExpiresAt, expired.ExpiresAt)
	require.Equal(t, StatusExpired, got.Status)
	require.Zero(t, disp.count())

	// expiry keeps winning over the already-decided check
	_, err = wf.Decide(ctx, rec.Token, DecisionCancel)
	require.ErrorAs(t, err, &expired)
	var conflict *AlreadyDecidedError
	require.False(t, errors.As(err, &conflict))
}

func TestDecisionInTimeSurvivesDeadline(t *testing.T) {
	wf, clock, _, _ := newTestWorkflow(t)
	ctx := context.Background()
	rec := wf.Register(ctx, testCommand(t))

	_, err := wf.Decide(ctx, rec.Token, DecisionConfirm)
	require.NoError(t, err)

	clock.Advance(time.Hour / 2)

	got, err := wf.Decide(ctx, rec.Token, DecisionConfirm)
	require.NoError(t, err, "a record decided in time never expires")
	require.Equal(t, StatusConfirmed, got.Status)
}

func TestGetFlipsStalePending(t *testing.T) {
	wf, clock, _, trail := newTestWorkflow(t)
	ctx := context.Background()
	rec := wf.Register(ctx, testCommand(t))

	got, err := wf.Get(ctx, rec.Token)
	require.NoError(t, err)
	require.Equal(t, StatusPending, got.Status)

	clock.Advance(6 * time.Minute)

	got, err = wf.Get(ctx, rec.Token)
	require.NoError(t, err)
	require.Equal(t, StatusExpired, got.Status)

	events, err := trail.ListByToken(ctx, rec.Token)
	require.NoError(t, err)
	require.Equal(t, audit.EventExpired, events[len(events)-1].Event)
}

func TestSweepExpiresStaleAndKeepsFresh(t *testing.T) {
	wf, clock, _, _ := newTestWorkflow(t)
	ctx := context.Background()
	stale1 := wf.Register(ctx, testCommand(t))
	stale2 := wf.Register(ctx, testCommand(t))

	clock.Advance(4 * time.Minute)
	fresh := wf.Register(ctx, testCommand(t))
	clock.Advance(2 * time.Minute) // stale1/2 at 6m, fresh at 2m

	require.Equal(t, 2, wf.Sweep(ctx))

	for _, token := range []string{stale1.Token, stale2.Token} {
		got, err := wf.Get(ctx, token)
		require.NoError(t, err)
		require.Equal(t, StatusExpired, got.Status)
	}
	got, err := wf.Get(ctx, fresh.Token)
	require.NoError(t, err)
	require.Equal(t, StatusPending, got.Status)
}

func TestSweepPrunesAfterRetention(t *testing.T) {
	wf, clock, _, _ := newTestWorkflow(t)
	ctx := context.Background()
	rec := wf.Register(ctx, testCommand(t))

	_, err := wf.Decide(ctx, rec.Token, DecisionCancel)
	require.NoError(t, err)

	// still queryable within retention
	clock.Advance(30 * time.Minute)
	wf.Sweep(ctx)
	_, err = wf.Get(ctx, rec.Token)
	require.NoError(t, err)

	clock.Advance(31 * time.Minute)
	wf.Sweep(ctx)
	_, err = wf.Get(ctx, rec.Token)
	var nf *TokenNotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestSweepNeverPrunesPending(t *testing.T) {
	clock := newTestClock()
	wf := NewWorkflow(Config{TTL: 24 * time.Hour, Retention: time.Minute, Now: clock.Now})
	ctx := context.Background()

	rec := wf.Register(ctx, testCommand(t))
	clock.Advance(12 * time.Hour)
	wf.Sweep(ctx)

	got, err := wf.Get(ctx, rec.Token)
	require.NoError(t, err)
	require.Equal(t, StatusPending, got.Status)
}

func TestDispatchFailureKeepsConfirmation(t *testing.T) {
	wf, _, disp, trail := newTestWorkflow(t)
	disp.err = errors.New("nats: no servers")
	ctx := context.Background()
	rec := wf.Register(ctx, testCommand(t))

	got, err := wf.Decide(ctx, rec.Token, DecisionConfirm)
	require.NoError(t, err, "dispatch failure must not undo the decision")
	require.Equal(t, StatusConfirmed, got.Status)

	events, err := trail.ListByToken(ctx, rec.Token)
	require.NoError(t, err)
	last := events[len(events)-1]
	require.Equal(t, audit.EventDispatched, last.Event)
	require.Contains(t, last.Note, "no servers")
}

func TestConcurrentDecidesSingleWinner(t *testing.T) {
	wf, _, disp, _ := newTestWorkflow(t)
	ctx := context.Background()
	rec := wf.Register(ctx, testCommand(t))

	const n = 16
	results := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		decision := DecisionConfirm
		if i%2 == 1 {
			decision = DecisionCancel
		}
		wg.Add(1)
		go func(d Decision) {
			defer wg.Done()
			_, err := wf.Decide(ctx, rec.Token, d)
			results <- err
		}(decision)
	}
	wg.Wait()
	close(results)

	conflicts := 0
	for err := range results {
		if err == nil {
			continue
		}
		var conflict *AlreadyDecidedError
		require.ErrorAs(t, err, &conflict)
		conflicts++
	}
	require.Greater(t, conflicts, 0, "racing opposite decisions must conflict")
	require.LessOrEqual(t, disp.count(), 1, "dispatch at most once")

	got, err := wf.Get(ctx, rec.Token)
	require.NoError(t, err)
	require.True(t, got.Status == StatusConfirmed || got.Status == StatusCancelled)
}

func TestParseDecisionWords(t *testing.T) {
	for word, want := range map[string]Decision{
		"confirm": DecisionConfirm,
		"YES":     DecisionConfirm,
		" y ":     DecisionConfirm,
		"approve": DecisionConfirm,
		"cancel":  DecisionCancel,
		"No":      DecisionCancel,
		"reject":  DecisionCancel,
	} {
		got, err := ParseDecision(word)
		require.NoError(t, err, word)
		require.Equal(t, want, got, word)
	}
	_, err := ParseDecision("maybe")
	require.ErrorIs(t, err, ErrBadDecision)
}
