package session_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/curnce/curnce-client/session"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*session.RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return session.NewRedisStore(rdb, "curnce:session", uuid.NewString(), time.Hour), mr
}

// storeFactories runs the same contract against every store implementation.
func storeFactories() map[string]func(t *testing.T) session.Store {
	return map[string]func(t *testing.T) session.Store{
		"memory": func(t *testing.T) session.Store {
			return session.NewMemoryStore()
		},
		"file": func(t *testing.T) session.Store {
			return session.NewFileStore(filepath.Join(t.TempDir(), "session.json"), "")
		},
		"file encrypted": func(t *testing.T) session.Store {
			return session.NewFileStore(filepath.Join(t.TempDir(), "session.json"), "correct horse")
		},
		"redis": func(t *testing.T) session.Store {
			s, _ := newRedisStore(t)
			return s
		},
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			store := factory(t)

			_, ok, err := store.Get(ctx, session.KeyToken)
			require.NoError(t, err)
			require.False(t, ok)

			require.NoError(t, store.SetMany(ctx, map[string]string{
				session.KeyToken:        "access-1",
				session.KeyRefreshToken: "refresh-1",
			}))

			v, ok, err := store.Get(ctx, session.KeyToken)
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, "access-1", v)

			swapped, err := store.CompareAndSwap(ctx, session.KeyToken, "stale", map[string]string{session.KeyToken: "access-x"})
			require.NoError(t, err)
			require.False(t, swapped)

			swapped, err = store.CompareAndSwap(ctx, session.KeyToken, "access-1", map[string]string{
				session.KeyToken:        "access-2",
				session.KeyRefreshToken: "refresh-2",
			})
			require.NoError(t, err)
			require.True(t, swapped)

			v, _, err = store.Get(ctx, session.KeyRefreshToken)
			require.NoError(t, err)
			require.Equal(t, "refresh-2", v)

			require.NoError(t, store.Delete(ctx, session.Keys...))
			_, ok, err = store.Get(ctx, session.KeyToken)
			require.NoError(t, err)
			require.False(t, ok)

			// deleting again is not an error
			require.NoError(t, store.Delete(ctx, session.Keys...))
		})
	}
}

func TestFileStore_PlaintextIsPrivate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := session.NewFileStore(path, "")

	require.NoError(t, store.SetMany(context.Background(), map[string]string{session.KeyToken: "access-1"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "access-1")
}

func TestFileStore_Encrypted(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	store := session.NewFileStore(path, "correct horse")
	require.NoError(t, store.SetMany(ctx, map[string]string{session.KeyToken: "access-secret"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "access-secret")

	reopened := session.NewFileStore(path, "correct horse")
	v, ok, err := reopened.Get(ctx, session.KeyToken)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "access-secret", v)

	wrong := session.NewFileStore(path, "battery staple")
	_, _, err = wrong.Get(ctx, session.KeyToken)
	require.ErrorIs(t, err, session.ErrDecrypt)
}

func TestFileStore_DerivesKeyOncePerSalt(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	derivations := 0
	original := session.KeyDerivationFunc
	session.KeyDerivationFunc = func(password, salt []byte, N, r, p, keyLen int) ([]byte, error) {
		derivations++
		return original(password, salt, N, r, p, keyLen)
	}
	t.Cleanup(func() { session.KeyDerivationFunc = original })

	store := session.NewFileStore(path, "correct horse")
	require.NoError(t, store.SetMany(ctx, map[string]string{
		session.KeyToken:        "access-1",
		session.KeyRefreshToken: "refresh-1",
	}))

	m := session.NewManager(store)
	_, err := m.Load(ctx)
	require.NoError(t, err)
	_, err = m.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, store.SetMany(ctx, map[string]string{session.KeyToken: "access-2"}))
	require.Equal(t, 1, derivations)

	reopened := session.NewFileStore(path, "correct horse")
	v, ok, err := reopened.Get(ctx, session.KeyToken)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "access-2", v)
	require.Equal(t, 2, derivations)
}

func TestFileStore_DeleteLastKeyRemovesFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	store := session.NewFileStore(path, "")

	require.NoError(t, store.SetMany(ctx, map[string]string{session.KeyToken: "access-1"}))
	require.NoError(t, store.Delete(ctx, session.Keys...))

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestRedisStore_TTLAndKey(t *testing.T) {
	store, mr := newRedisStore(t)

	require.NoError(t, store.SetMany(context.Background(), map[string]string{session.KeyToken: "access-1"}))
	require.True(t, mr.Exists(store.Key()))
	require.Equal(t, time.Hour, mr.TTL(store.Key()))
	require.Equal(t, "access-1", mr.HGet(store.Key(), session.KeyToken))
}
