package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/zenithflow/internal/domain/auth"
	"github.com/target/zenithflow/internal/testutil"
)

func TestEventBus_PublishAndListen(t *testing.T) {
	mr, client := testutil.SetupMiniRedis(t)
	bus := NewEventBus(client, EventBusOptions{Channel: "zenithflow:session-events"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []domainauth.SessionEvent
	done := make(chan error, 1)
	go func() {
		done <- bus.Listen(ctx, func(ev domainauth.SessionEvent) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, ev)
		})
	}()

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub("zenithflow:session-events")["zenithflow:session-events"] == 1
	}, 2*time.Second, 5*time.Millisecond)

	sess := testSession()
	require.NoError(t, bus.Publish(ctx, domainauth.SessionEvent{Kind: domainauth.EventSignedIn, Session: &sess, Origin: "proc-a"}))
	require.NoError(t, bus.Publish(ctx, domainauth.SessionEvent{Kind: domainauth.EventSignedOut, Origin: "proc-a"}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, domainauth.EventSignedIn, got[0].Kind)
	assert.Equal(t, "user-123", got[0].Session.IdentityID())
	assert.Equal(t, "proc-a", got[0].Origin)
	assert.Equal(t, domainauth.EventSignedOut, got[1].Kind)
	assert.Nil(t, got[1].Session)
	mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not return after cancel")
	}
}

func TestEventBus_SkipsMalformedPayload(t *testing.T) {
	mr, client := testutil.SetupMiniRedis(t)
	bus := NewEventBus(client, EventBusOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan domainauth.SessionEvent, 1)
	go func() {
		_ = bus.Listen(ctx, func(ev domainauth.SessionEvent) { received <- ev })
	}()

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(defaultEventsChannel)[defaultEventsChannel] == 1
	}, 2*time.Second, 5*time.Millisecond)

	mr.Publish(defaultEventsChannel, "not-json")
	require.NoError(t, bus.Publish(ctx, domainauth.SessionEvent{Kind: domainauth.EventTokenRefreshed}))

	select {
	case ev := <-received:
		assert.Equal(t, domainauth.EventTokenRefreshed, ev.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("expected the well-formed event")
	}
}
