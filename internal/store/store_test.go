package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/running-machin/legal-advice-bot/internal/config"
	"github.com/running-machin/legal-advice-bot/internal/domain"
)

func newSQLiteForTest(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "sessions.db"), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newRedisForTest(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedis(context.Background(), &redis.Options{Addr: mr.Addr()}, time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func backends(t *testing.T) map[string]HistoryStore {
	rs, _ := newRedisForTest(t)
	return map[string]HistoryStore{
		"memory": NewMemory(time.Hour),
		"sqlite": newSQLiteForTest(t),
		"redis":  rs,
	}
}

func TestHistoryUnknownSessionIsEmpty(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			got, err := s.History(context.Background(), "missing")
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestAppendKeepsOrderAndBound(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 13; i++ {
				require.NoError(t, s.Append(ctx, "sess", domain.Exchange{
					User:      fmt.Sprintf("q%d", i),
					Assistant: fmt.Sprintf("a%d", i),
				}))
				got, err := s.History(ctx, "sess")
				require.NoError(t, err)
				require.LessOrEqual(t, len(got), domain.MaxHistory)
			}

			got, err := s.History(ctx, "sess")
			require.NoError(t, err)
			require.Len(t, got, domain.MaxHistory)
			assert.Equal(t, "q3", got[0].User)
			assert.Equal(t, "a12", got[len(got)-1].Assistant)
		})
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Append(ctx, "a", domain.Exchange{User: "qa", Assistant: "aa"}))
			require.NoError(t, s.Append(ctx, "b", domain.Exchange{User: "qb", Assistant: "ab"}))

			require.NoError(t, s.Clear(ctx, "a"))

			gotA, err := s.History(ctx, "a")
			require.NoError(t, err)
			assert.Empty(t, gotA)

			gotB, err := s.History(ctx, "b")
			require.NoError(t, err)
			assert.Equal(t, []domain.Exchange{{User: "qb", Assistant: "ab"}}, gotB)
		})
	}
}

func TestConcurrentAppendsStayBounded(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					assert.NoError(t, s.Append(ctx, "shared", domain.Exchange{User: fmt.Sprint(i), Assistant: "x"}))
				}(i)
			}
			wg.Wait()

			got, err := s.History(ctx, "shared")
			require.NoError(t, err)
			assert.Len(t, got, domain.MaxHistory)
		})
	}
}

func TestMemoryCleanupExpired(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(time.Hour)
	now := time.Now()
	s.now = func() time.Time { return now.Add(-2 * time.Hour) }
	require.NoError(t, s.Append(ctx, "old", domain.Exchange{User: "q", Assistant: "a"}))
	s.now = func() time.Time { return now }
	require.NoError(t, s.Append(ctx, "fresh", domain.Exchange{User: "q", Assistant: "a"}))

	removed, err := s.CleanupExpired(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	got, err := s.History(ctx, "fresh")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSQLiteCleanupExpired(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteForTest(t)
	require.NoError(t, s.Append(ctx, "old", domain.Exchange{User: "q", Assistant: "a"}))
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET updated_at = ? WHERE session_id = ?`,
		time.Now().Add(-2*time.Hour).Unix(), "old")
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, "fresh", domain.Exchange{User: "q", Assistant: "a"}))

	removed, err := s.CleanupExpired(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	got, err := s.History(ctx, "old")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.db")

	s, err := NewSQLite(path, time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, "sess", domain.Exchange{User: "q", Assistant: "a"}))
	require.NoError(t, s.Close())

	reopened, err := NewSQLite(path, time.Hour)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, err := reopened.History(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, []domain.Exchange{{User: "q", Assistant: "a"}}, got)
}

func TestRunTTLWorkerSweepsAndStops(t *testing.T) {
	s := NewMemory(time.Hour)
	now := time.Now()
	s.now = func() time.Time { return now.Add(-2 * time.Hour) }
	require.NoError(t, s.Append(context.Background(), "old", domain.Exchange{User: "q", Assistant: "a"}))
	s.now = time.Now

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunTTLWorker(ctx, s, time.Hour, 10*time.Millisecond) }()

	require.Eventually(t, func() bool {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return len(s.sessions) == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("TTL worker did not stop")
	}
}

func TestNewRedisFailsWhenUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedis(ctx, &redis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1}, time.Hour)
	require.Error(t, err)
}

func TestRedisAppendRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisForTest(t)

	require.NoError(t, s.Append(ctx, "sess", domain.Exchange{User: "q1", Assistant: "a1"}))
	assert.Equal(t, time.Hour, mr.TTL(redisKey("sess")))

	mr.FastForward(30 * time.Minute)
	require.NoError(t, s.Append(ctx, "sess", domain.Exchange{User: "q2", Assistant: "a2"}))
	assert.Equal(t, time.Hour, mr.TTL(redisKey("sess")))

	mr.FastForward(2 * time.Hour)
	got, err := s.History(ctx, "sess")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisKey(t *testing.T) {
	assert.Equal(t, "legalchat:history:abc", redisKey("abc"))
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()

	mem, err := Open(ctx, &config.Config{SessionBackend: config.BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, mem)

	sq, err := Open(ctx, &config.Config{SessionBackend: config.BackendSQLite, DBPath: filepath.Join(t.TempDir(), "s.db")})
	require.NoError(t, err)
	defer func() { _ = sq.Close() }()
	assert.IsType(t, &SQLiteStore{}, sq)

	_, err = Open(ctx, &config.Config{SessionBackend: "etcd"})
	require.Error(t, err)
}

func TestMemoryHistoryExpiresBeforeSweep(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(time.Hour)
	now := time.Now()
	s.now = func() time.Time { return now }
	require.NoError(t, s.Append(ctx, "sess", domain.Exchange{User: "old", Assistant: "a"}))

	s.now = func() time.Time { return now.Add(61 * time.Minute) }
	got, err := s.History(ctx, "sess")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Append(ctx, "sess", domain.Exchange{User: "new", Assistant: "b"}))
	got, err = s.History(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, []domain.Exchange{{User: "new", Assistant: "b"}}, got)
}

func TestSQLiteHistoryExpiresBeforeSweep(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteForTest(t)
	require.NoError(t, s.Append(ctx, "sess", domain.Exchange{User: "old", Assistant: "a"}))
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET updated_at = ? WHERE session_id = ?`,
		time.Now().Add(-61*time.Minute).Unix(), "sess")
	require.NoError(t, err)

	got, err := s.History(ctx, "sess")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, s.Append(ctx, "sess", domain.Exchange{User: "new", Assistant: "b"}))
	got, err = s.History(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, []domain.Exchange{{User: "new", Assistant: "b"}}, got)
}

func TestSQLitePragmasApplyToEveryConnection(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteForTest(t)

	var mode string
	require.NoError(t, s.db.QueryRowContext(ctx, `PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)

	c1, err := s.db.Conn(ctx)
	require.NoError(t, err)
	defer func() { _ = c1.Close() }()
	c2, err := s.db.Conn(ctx)
	require.NoError(t, err)
	defer func() { _ = c2.Close() }()

	for _, c := range []*sql.Conn{c1, c2} {
		var timeout int
		require.NoError(t, c.QueryRowContext(ctx, `PRAGMA busy_timeout`).Scan(&timeout))
		assert.Equal(t, 5000, timeout)
	}
}
