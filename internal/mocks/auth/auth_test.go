package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/zenithflow/internal/domain/auth"
	apperrors "github.com/target/zenithflow/internal/errors"
)

func TestFakeGateway_EmitAndUnsubscribe(t *testing.T) {
	g := NewFakeGateway()

	var got []domainauth.EventKind
	unsub := g.Subscribe(func(ev domainauth.SessionEvent) { got = append(got, ev.Kind) })
	assert.Equal(t, 1, g.Subscribers())

	g.Emit(domainauth.SessionEvent{Kind: domainauth.EventSignedIn})
	unsub()
	unsub()
	g.Emit(domainauth.SessionEvent{Kind: domainauth.EventSignedOut})

	assert.Equal(t, []domainauth.EventKind{domainauth.EventSignedIn}, got)
	assert.Equal(t, 0, g.Subscribers())
}

func TestFakeGateway_DefaultSignInEmits(t *testing.T) {
	g := NewFakeGateway()
	var events []domainauth.SessionEvent
	g.Subscribe(func(ev domainauth.SessionEvent) { events = append(events, ev) })

	sess, err := g.SignIn(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)
	assert.Equal(t, "user-a@b.c", sess.IdentityID())
	require.Len(t, events, 1)
	assert.Equal(t, domainauth.EventSignedIn, events[0].Kind)
}

func TestFakeGateway_RestoreDefaults(t *testing.T) {
	g := NewFakeGateway()
	sess, err := g.RestoreSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sess)
	assert.Equal(t, 1, g.RestoreCalls())
}

func TestMemorySessionStore(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "default")
	assert.True(t, apperrors.IsNotFound(err))

	require.Error(t, store.Save(ctx, "", domainauth.Session{}))

	sess := domainauth.Session{AccessToken: "t", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Save(ctx, "default", sess))

	got, err := store.Get(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, "t", got.AccessToken)

	require.NoError(t, store.Delete(ctx, "default"))
	_, err = store.Get(ctx, "default")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGatedProfiles(t *testing.T) {
	p := NewGatedProfiles(map[string]*domainauth.Profile{
		"u1": {ID: "u1", Role: domainauth.RoleClient},
	})
	p.Hold("u1")

	done := make(chan *domainauth.Profile, 1)
	go func() { done <- p.Resolve(context.Background(), "u1") }()

	select {
	case <-done:
		t.Fatal("lookup should block while held")
	case <-time.After(20 * time.Millisecond):
	}

	p.Release("u1")
	got := <-done
	require.NotNil(t, got)
	assert.Equal(t, domainauth.RoleClient, got.Role)
	assert.Equal(t, 1, p.Calls("u1"))
	assert.Nil(t, p.Resolve(context.Background(), "missing"))
}
