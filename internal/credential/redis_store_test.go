package credential

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
)

func testRedisClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, srv
}

func TestRedisStore_RoundTrip(t *testing.T) {
	client, srv := testRedisClient(t)
	store := NewRedisStore(client, "veriface", "terminal-1")
	ctx := context.Background()

	record, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, record)

	saved := Record{
		Credential: testCredential("kiosk-key"),
		Identity:   &domain.IdentitySnapshot{FaceID: "deadbeef", Features: []float64{0.1, 0.2}},
	}
	require.NoError(t, store.Save(ctx, saved))

	record, err = store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "kiosk-key", record.Credential.PublicKey)
	require.NotNil(t, record.Identity)
	assert.Equal(t, "deadbeef", record.Identity.FaceID)

	assert.True(t, srv.Exists("veriface:credential:terminal-1"))
}

func TestRedisStore_DevicesAreIsolated(t *testing.T) {
	client, _ := testRedisClient(t)
	ctx := context.Background()

	one := NewRedisStore(client, "veriface", "terminal-1")
	two := NewRedisStore(client, "veriface", "terminal-2")

	require.NoError(t, one.Save(ctx, Record{Credential: testCredential("key-one")}))

	record, err := two.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, record)

	record, err = one.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "key-one", record.Credential.PublicKey)
}

func TestRedisStore_CorruptRecordErrors(t *testing.T) {
	client, srv := testRedisClient(t)
	store := NewRedisStore(client, "veriface", "terminal-1")

	require.NoError(t, srv.Set("veriface:credential:terminal-1", "not json"))

	_, err := store.Load(context.Background())
	assert.Error(t, err)
}

func TestStateMachine_EnrollOverRedis(t *testing.T) {
	client, _ := testRedisClient(t)
	store := NewRedisStore(client, "veriface", "terminal-1")
	machine := NewStateMachine(store, testLogger())
	ctx := context.Background()

	outcome, err := machine.Enroll(ctx, testCredential("kiosk-key"), nil, acceptAll)
	require.NoError(t, err)
	assert.True(t, outcome.Committed)

	cred, err := machine.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "kiosk-key", cred.PublicKey)
}
