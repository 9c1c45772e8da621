package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisSequencer(t *testing.T) (*RedisSequencer, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisSequencer(client, time.Minute), mr
}

// sequencerContract runs the same checks against every implementation.
func sequencerContract(t *testing.T, s Sequencer) {
	ctx := context.Background()

	ok, err := s.Register(ctx, "s1", 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Register(ctx, "s1", 2)
	require.NoError(t, err)
	assert.True(t, ok)

	// request 1 finishes after request 2 was issued
	latest, err := s.IsLatest(ctx, "s1", 1)
	require.NoError(t, err)
	assert.False(t, latest)

	latest, err = s.IsLatest(ctx, "s1", 2)
	require.NoError(t, err)
	assert.True(t, latest)

	// a late registration of an old request is refused
	ok, err = s.Register(ctx, "s1", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	// re-registering the current sequence is allowed
	ok, err = s.Register(ctx, "s1", 2)
	require.NoError(t, err)
	assert.True(t, ok)

	// sessions are independent
	latest, err = s.IsLatest(ctx, "s2", 1)
	require.NoError(t, err)
	assert.True(t, latest)

	// no session id, no sequencing
	ok, err = s.Register(ctx, "", 0)
	require.NoError(t, err)
	assert.True(t, ok)
	latest, err = s.IsLatest(ctx, "", -5)
	require.NoError(t, err)
	assert.True(t, latest)
}

// ==========================
// LocalSequencer
// ==========================

func TestLocalSequencer_Contract(t *testing.T) {
	sequencerContract(t, NewLocalSequencer())
}

func TestLocalSequencer_NextIsMonotonic(t *testing.T) {
	s := NewLocalSequencer()
	assert.Equal(t, int64(1), s.Next("a"))
	assert.Equal(t, int64(2), s.Next("a"))
	assert.Equal(t, int64(1), s.Next("b"))

	latest, _ := s.IsLatest(context.Background(), "a", 1)
	assert.False(t, latest)

	s.Forget("a")
	assert.Equal(t, int64(1), s.Next("a"))
}

func TestLocalSequencer_ConcurrentRegisterKeepsMax(t *testing.T) {
	s := NewLocalSequencer()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := int64(1); i <= 200; i++ {
		wg.Add(1)
		go func(seq int64) {
			defer wg.Done()
			_, _ = s.Register(ctx, "busy", seq)
		}(i)
	}
	wg.Wait()

	latest, err := s.IsLatest(ctx, "busy", 200)
	require.NoError(t, err)
	assert.True(t, latest)
	latest, _ = s.IsLatest(ctx, "busy", 199)
	assert.False(t, latest)
}

// ==========================
// RedisSequencer
// ==========================

func TestRedisSequencer_Contract(t *testing.T) {
	s, _ := newRedisSequencer(t)
	sequencerContract(t, s)
}

func TestRedisSequencer_KeyAndTTL(t *testing.T) {
	s, mr := newRedisSequencer(t)
	ctx := context.Background()

	_, err := s.Register(ctx, "sess-42", 7)
	require.NoError(t, err)

	val, err := mr.Get("discovery:seq:sess-42")
	require.NoError(t, err)
	assert.Equal(t, "7", val)
	assert.Equal(t, time.Minute, mr.TTL("discovery:seq:sess-42"))

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists("discovery:seq:sess-42"))

	// expired sessions accept any sequence again
	latest, err := s.IsLatest(ctx, "sess-42", 1)
	require.NoError(t, err)
	assert.True(t, latest)
}

func TestRedisSequencer_SharedAcrossReplicas(t *testing.T) {
	mr := miniredis.RunT(t)
	replicaA := NewRedisSequencer(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	replicaB := NewRedisSequencer(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	ctx := context.Background()

	_, err := replicaA.Register(ctx, "s", 1)
	require.NoError(t, err)
	_, err = replicaB.Register(ctx, "s", 2)
	require.NoError(t, err)

	latest, err := replicaA.IsLatest(ctx, "s", 1)
	require.NoError(t, err)
	assert.False(t, latest)
}

func TestRedisSequencer_Errors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisSequencer(db, time.Minute)
	ctx := context.Background()

	mock.ExpectEvalSha(registerScript.Hash(), []string{Key("s1")}, int64(3), int64(60000)).
		SetErr(errors.New("connection reset by peer"))
	_, err := s.Register(ctx, "s1", 3)
	assert.ErrorContains(t, err, "register sequence for session s1")

	mock.ExpectGet(Key("s1")).SetErr(errors.New("i/o timeout"))
	_, err = s.IsLatest(ctx, "s1", 3)
	assert.ErrorContains(t, err, "read sequence")

	mock.ExpectGet(Key("s1")).SetVal("not-a-number")
	_, err = s.IsLatest(ctx, "s1", 3)
	assert.ErrorContains(t, err, "corrupt sequence")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewRedisSequencer_DefaultTTL(t *testing.T) {
	s := NewRedisSequencer(nil, 0)
	assert.Equal(t, DefaultTTL, s.ttl)
}
