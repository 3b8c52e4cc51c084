package kv_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/souling-backend/internal/data/db"
	"github.com/yungbote/souling-backend/internal/data/kv"
	"github.com/yungbote/souling-backend/internal/platform/logger"
)

type counter struct {
	ID    string `json:"id"`
	Value int    `json:"value"`
}

type engineFactory func(t *testing.T) kv.Engine

func engines(t *testing.T) map[string]engineFactory {
	t.Helper()
	out := map[string]engineFactory{
		"memory": func(t *testing.T) kv.Engine { return kv.NewMemory() },
		"sqlite": func(t *testing.T) kv.Engine {
			return openSQL(t, db.DriverSQLite, filepath.Join(t.TempDir(), "kv.db"))
		},
	}
	if dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN")); dsn != "" {
		out["postgres"] = func(t *testing.T) kv.Engine { return openSQL(t, db.DriverPostgres, dsn) }
	}
	if addr := strings.TrimSpace(os.Getenv("TEST_REDIS_ADDR")); addr != "" {
		out["redis"] = func(t *testing.T) kv.Engine {
			e, err := kv.NewRedis(context.Background(), kv.RedisConfig{Addr: addr, Prefix: "test-" + uuid.NewString()}, logger.Nop())
			require.NoError(t, err)
			t.Cleanup(func() { _ = e.Close() })
			return e
		}
	}
	if strings.TrimSpace(os.Getenv("FIRESTORE_EMULATOR_HOST")) != "" {
		out["firestore"] = func(t *testing.T) kv.Engine {
			e, err := kv.NewFirestore(context.Background(), kv.FirestoreConfig{ProjectID: "souling-test", Prefix: "t" + strings.ReplaceAll(uuid.NewString(), "-", "") + "_"}, logger.Nop())
			require.NoError(t, err)
			t.Cleanup(func() { _ = e.Close() })
			return e
		}
	}
	return out
}

func openSQL(t *testing.T, driver, dsn string) kv.Engine {
	t.Helper()
	svc, err := db.NewSQLService(logger.Nop(), driver, dsn)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrateAll(svc.DB()))
	e := kv.NewSQL(svc.DB(), logger.Nop())
	t.Cleanup(func() { _ = e.Close() })
	return e
}

// Collections are namespaced per test so shared postgres/redis servers stay isolated.
func collName(t *testing.T) string {
	return "c" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func TestEngineConformance(t *testing.T) {
	for name, factory := range engines(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("insert get and duplicate", func(t *testing.T) {
				e := factory(t)
				ctx := context.Background()
				c := collName(t)

				require.NoError(t, e.Insert(ctx, c, "a", []byte(`{"v":1}`)))
				err := e.Insert(ctx, c, "a", []byte(`{"v":2}`))
				require.ErrorIs(t, err, kv.ErrDuplicateID)

				got, err := e.Get(ctx, c, "a")
				require.NoError(t, err)
				assert.JSONEq(t, `{"v":1}`, string(got))

				_, err = e.Get(ctx, c, "missing")
				require.ErrorIs(t, err, kv.ErrNotFound)
			})

			t.Run("scan keeps creation order", func(t *testing.T) {
				e := factory(t)
				ctx := context.Background()
				c := collName(t)

				ids := []string{"z", "a", "m", "b"}
				for i, id := range ids {
					require.NoError(t, e.Insert(ctx, c, id, []byte(fmt.Sprintf(`{"i":%d}`, i))))
				}
				var seen []string
				for rec, err := range e.Scan(ctx, c) {
					require.NoError(t, err)
					seen = append(seen, rec.ID)
				}
				assert.Equal(t, ids, seen)

				var first []string
				for rec, err := range e.Scan(ctx, c) {
					require.NoError(t, err)
					first = append(first, rec.ID)
					break
				}
				assert.Equal(t, []string{"z"}, first)
			})

			t.Run("scan empty collection", func(t *testing.T) {
				e := factory(t)
				n := 0
				for _, err := range e.Scan(context.Background(), collName(t)) {
					require.NoError(t, err)
					n++
				}
				assert.Zero(t, n)
			})

			t.Run("update missing and mutator error", func(t *testing.T) {
				e := factory(t)
				ctx := context.Background()
				c := collName(t)

				_, err := e.Update(ctx, c, "nope", func(b []byte) ([]byte, error) { return b, nil })
				require.ErrorIs(t, err, kv.ErrNotFound)

				require.NoError(t, e.Insert(ctx, c, "x", []byte(`{"v":1}`)))
				sentinel := errors.New("refuse")
				_, err = e.Update(ctx, c, "x", func(b []byte) ([]byte, error) { return nil, sentinel })
				require.ErrorIs(t, err, sentinel)

				got, err := e.Get(ctx, c, "x")
				require.NoError(t, err)
				assert.JSONEq(t, `{"v":1}`, string(got))
			})

			t.Run("delete is idempotent and drops from scan", func(t *testing.T) {
				e := factory(t)
				ctx := context.Background()
				c := collName(t)

				require.NoError(t, e.Insert(ctx, c, "a", []byte(`{}`)))
				require.NoError(t, e.Insert(ctx, c, "b", []byte(`{}`)))
				require.NoError(t, e.Delete(ctx, c, "a"))
				require.NoError(t, e.Delete(ctx, c, "a"))
				require.NoError(t, e.Delete(ctx, c, "never"))

				_, err := e.Get(ctx, c, "a")
				require.ErrorIs(t, err, kv.ErrNotFound)

				var seen []string
				for rec, err := range e.Scan(ctx, c) {
					require.NoError(t, err)
					seen = append(seen, rec.ID)
				}
				assert.Equal(t, []string{"b"}, seen)
			})

			t.Run("concurrent updates are not lost", func(t *testing.T) {
				e := factory(t)
				ctx := context.Background()
				coll := kv.NewCollection[counter](e, collName(t))
				require.NoError(t, coll.Insert(ctx, "n", &counter{ID: "n"}))

				const workers = 8
				var wg sync.WaitGroup
				errs := make(chan error, workers)
				for i := 0; i < workers; i++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						_, err := coll.Update(ctx, "n", func(c *counter) error {
							c.Value++
							return nil
						})
						errs <- err
					}()
				}
				wg.Wait()
				close(errs)
				for err := range errs {
					require.NoError(t, err)
				}

				got, err := coll.Get(ctx, "n")
				require.NoError(t, err)
				assert.Equal(t, workers, got.Value)
			})
		})
	}
}
