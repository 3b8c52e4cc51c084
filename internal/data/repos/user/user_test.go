package user

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/souling-backend/internal/data/kv"
	"github.com/yungbote/souling-backend/internal/data/repos/testutil"
	types "github.com/yungbote/souling-backend/internal/domain"
)

func newUser(email string) *types.User {
	return &types.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: "hash",
		Role:         types.RolePatient,
		Name:         "Ana",
		CreatedAt:    time.Now().UTC(),
	}
}

func TestUserRepo(t *testing.T) {
	repo := NewUserRepo(testutil.Engine(t), testutil.Logger(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, newUser("  Ana@Example.com "))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Email != "ana@example.com" {
		t.Fatalf("Create: email not normalized: %q", created.Email)
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.PasswordHash != "hash" || got.Role != types.RolePatient {
		t.Fatalf("GetByID: unexpected user: %+v", got)
	}

	byEmail, err := repo.GetByEmail(ctx, "ANA@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if byEmail.ID != created.ID {
		t.Fatalf("GetByEmail: got %s want %s", byEmail.ID, created.ID)
	}

	exists, err := repo.EmailExists(ctx, "ana@example.com")
	if err != nil || !exists {
		t.Fatalf("EmailExists: expected true, got %v (%v)", exists, err)
	}
	exists, err = repo.EmailExists(ctx, "nobody@example.com")
	if err != nil || exists {
		t.Fatalf("EmailExists: expected false, got %v (%v)", exists, err)
	}

	if _, err := repo.Create(ctx, newUser("ana@example.com")); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("Create duplicate: expected ErrEmailTaken, got %v", err)
	}

	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, created.ID); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("GetByID after delete: expected ErrNotFound, got %v", err)
	}
	if _, err := repo.Create(ctx, newUser("ana@example.com")); err != nil {
		t.Fatalf("Create after delete should reuse email: %v", err)
	}
}

func TestUserRepoConcurrentSameEmail(t *testing.T) {
	repo := NewUserRepo(testutil.Engine(t), testutil.Logger(t))
	ctx := context.Background()

	const n = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		taken   int
		unknown []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, newUser("race@example.com"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrEmailTaken):
				taken++
			default:
				unknown = append(unknown, err)
			}
		}()
	}
	wg.Wait()

	if len(unknown) > 0 {
		t.Fatalf("unexpected errors: %v", unknown)
	}
	if ok != 1 || taken != n-1 {
		t.Fatalf("expected exactly one winner, got ok=%d taken=%d", ok, taken)
	}
}

// cancelAfterInsert cancels the caller's context once a record lands in collection.
type cancelAfterInsert struct {
	kv.Engine
	collection string
	cancel     context.CancelFunc
}

func (e *cancelAfterInsert) Insert(ctx context.Context, collection, id string, data []byte) error {
	err := e.Engine.Insert(ctx, collection, id, data)
	if err == nil && collection == e.collection && e.cancel != nil {
		e.cancel()
	}
	return err
}

func TestUserRepoCancelledCreateReleasesEmail(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine := &cancelAfterInsert{Engine: testutil.Engine(t), collection: CollectionEmailIndex, cancel: cancel}
	repo := NewUserRepo(engine, testutil.Logger(t))

	if _, err := repo.Create(ctx, newUser("ana@example.com")); err == nil {
		t.Fatalf("Create: expected failure after cancellation")
	}
	engine.cancel = nil

	exists, err := repo.EmailExists(context.Background(), "ana@example.com")
	if err != nil {
		t.Fatalf("EmailExists: %v", err)
	}
	if exists {
		t.Fatalf("email reservation survived a failed create")
	}
	if _, err := repo.Create(context.Background(), newUser("ana@example.com")); err != nil {
		t.Fatalf("Create after rollback: %v", err)
	}
}
