package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanderai/travel-gateway/pkg/logger"
)

type fakeClient struct {
	name  string
	text  string
	err   error
	delay time.Duration
	calls int
}

func (f *fakeClient) Name() string { return f.name }

func (f *fakeClient) Generate(ctx context.Context, req *Request) (string, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func newDispatcher(timeout time.Duration, clients ...Client) *Dispatcher {
	return NewDispatcher(clients, timeout, logger.NewNop())
}

func TestDispatchFirstProviderWins(t *testing.T) {
	primary := &fakeClient{name: "primary", text: "hello"}
	secondary := &fakeClient{name: "secondary", text: "unused"}
	d := newDispatcher(time.Second, primary, secondary)

	reply, err := d.Dispatch(context.Background(), &Request{})
	require.NoError(t, err)
	assert.Equal(t, "hello", reply.Text)
	assert.Equal(t, "primary", reply.Provider)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, secondary.calls, "dispatch must short-circuit on first success")
}

func TestDispatchFailsOverInOrder(t *testing.T) {
	primary := &fakeClient{name: "primary", err: errors.New("boom")}
	secondary := &fakeClient{name: "secondary", text: "fallback answer"}
	d := newDispatcher(time.Second, primary, secondary)

	reply, err := d.Dispatch(context.Background(), &Request{})
	require.NoError(t, err)
	assert.Equal(t, "secondary", reply.Provider)
	assert.Equal(t, "fallback answer", reply.Text)
	assert.Equal(t, 1, primary.calls, "failed provider is tried exactly once")
	assert.Equal(t, 1, secondary.calls)
}

func TestDispatchExhaustionCarriesAttempts(t *testing.T) {
	first := &fakeClient{name: "first", err: errors.New("timeout")}
	second := &fakeClient{name: "second", err: errors.New("bad gateway")}
	d := newDispatcher(time.Second, first, second)

	_, err := d.Dispatch(context.Background(), &Request{})
	require.Error(t, err)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Len(t, exhausted.Attempts, 2)
	assert.Equal(t, "first", exhausted.Attempts[0].Provider)
	assert.Equal(t, "second", exhausted.Attempts[1].Provider)
	assert.Contains(t, err.Error(), "all providers exhausted")
	assert.Contains(t, err.Error(), "bad gateway")
}

func TestDispatchTimesOutSlowProvider(t *testing.T) {
	slow := &fakeClient{name: "slow", text: "late", delay: 500 * time.Millisecond}
	fast := &fakeClient{name: "fast", text: "quick"}
	d := newDispatcher(20*time.Millisecond, slow, fast)

	start := time.Now()
	reply, err := d.Dispatch(context.Background(), &Request{})
	require.NoError(t, err)
	assert.Equal(t, "fast", reply.Provider)
	assert.Less(t, time.Since(start), 400*time.Millisecond, "failover must not wait for the slow provider")
}

func TestDispatchNoProviders(t *testing.T) {
	d := newDispatcher(time.Second)

	_, err := d.Dispatch(context.Background(), &Request{})
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Empty(t, exhausted.Attempts)
}

func TestProvidersReturnsPriorityOrder(t *testing.T) {
	d := newDispatcher(time.Second,
		&fakeClient{name: "groq"},
		&fakeClient{name: "openai"},
		&fakeClient{name: "anthropic"},
	)
	assert.Equal(t, []string{"groq", "openai", "anthropic"}, d.Providers())
}
