package therapy

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/souling-backend/internal/data/kv"
	"github.com/yungbote/souling-backend/internal/data/repos/testutil"
	types "github.com/yungbote/souling-backend/internal/domain"
	"github.com/yungbote/souling-backend/internal/domain/therapy"
)

func strPtr(s string) *string { return &s }

func TestTherapistRepo(t *testing.T) {
	repo := NewTherapistRepo(testutil.Engine(t), testutil.Logger(t))
	ctx := context.Background()
	now := time.Now().UTC()

	p := therapy.NewTherapistProfile(uuid.NewString(), "user-1", now)
	if _, err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	dup := therapy.NewTherapistProfile(uuid.NewString(), "user-1", now)
	if _, err := repo.Create(ctx, dup); !errors.Is(err, ErrProfileExists) {
		t.Fatalf("Create second profile for user: expected ErrProfileExists, got %v", err)
	}

	byUser, err := repo.GetByUserID(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if byUser.ID != p.ID || byUser.Verified || byUser.SessionsCount != 0 || len(byUser.Specializations) != 0 {
		t.Fatalf("GetByUserID: unexpected profile %+v", byUser)
	}

	updated, err := repo.Update(ctx, p.ID, func(tp *types.TherapistProfile) error {
		tp.SessionsCount++
		tp.Bio = "IFS practitioner"
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.SessionsCount != 1 || updated.Bio != "IFS practitioner" {
		t.Fatalf("Update: unexpected profile %+v", updated)
	}

	list, err := repo.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("List: expected 1 profile, got %d (%v)", len(list), err)
	}

	if err := repo.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByUserID(ctx, "user-1"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("GetByUserID after delete: expected ErrNotFound, got %v", err)
	}
}

func TestInnerChildRepoLatestWins(t *testing.T) {
	repo := NewInnerChildRepo(testutil.Engine(t), testutil.Logger(t))
	ctx := context.Background()

	if _, err := repo.LatestByUserID(ctx, "u1"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("LatestByUserID on empty: expected ErrNotFound, got %v", err)
	}

	for i, text := range []string{"first", "other-user", "second"} {
		userID := "u1"
		if i == 1 {
			userID = "u2"
		}
		_, err := repo.Create(ctx, &types.InnerChildProfile{
			ID:                 uuid.NewString(),
			UserID:             userID,
			Age:                7,
			Memories:           []string{"m"},
			Characteristics:    json.RawMessage(`{}`),
			AIGeneratedProfile: text,
			CreatedAt:          time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}

	latest, err := repo.LatestByUserID(ctx, "u1")
	if err != nil {
		t.Fatalf("LatestByUserID: %v", err)
	}
	if latest.AIGeneratedProfile != "second" {
		t.Fatalf("LatestByUserID: got %q want second", latest.AIGeneratedProfile)
	}

	all, err := repo.ListByUserID(ctx, "u1")
	if err != nil || len(all) != 2 {
		t.Fatalf("ListByUserID: expected 2, got %d (%v)", len(all), err)
	}
}

func TestSessionAndEnhancementRepos(t *testing.T) {
	engine := testutil.Engine(t)
	sessions := NewSessionRepo(engine, testutil.Logger(t))
	enhancements := NewEnhancementRepo(engine, testutil.Logger(t))
	ctx := context.Background()

	s := &types.Session{
		ID:          uuid.NewString(),
		PatientID:   "p1",
		TherapistID: "t1",
		SessionType: "inner-child-healing",
		Goals:       json.RawMessage(`["self-compassion"]`),
		Memories:    json.RawMessage(`null`),
		Status:      types.SessionStatusScheduled,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := sessions.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := sessions.GetByID(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Script != nil || got.Status != types.SessionStatusScheduled {
		t.Fatalf("GetByID: unexpected session %+v", got)
	}

	_, err = sessions.Update(ctx, s.ID, func(cur *types.Session) error {
		cur.Script = strPtr("S1")
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := sessions.Update(ctx, "missing", func(*types.Session) error { return nil }); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("Update missing: expected ErrNotFound, got %v", err)
	}

	list, err := sessions.ListByPatientID(ctx, "p1")
	if err != nil || len(list) != 1 || list[0].Script == nil || *list[0].Script != "S1" {
		t.Fatalf("ListByPatientID: unexpected %+v (%v)", list, err)
	}

	var ids []string
	for _, pair := range [][2]string{{"S1", "S2"}, {"S2", "S3"}} {
		rec := &types.EnhancementRecord{
			ID:             uuid.NewString(),
			SessionID:      s.ID,
			OriginalScript: pair[0],
			EnhancedScript: pair[1],
			CreatedAt:      time.Now().UTC(),
		}
		if _, err := enhancements.Create(ctx, rec); err != nil {
			t.Fatalf("Create enhancement: %v", err)
		}
		ids = append(ids, rec.ID)
	}
	chain, err := enhancements.ListBySessionID(ctx, s.ID)
	if err != nil || len(chain) != 2 {
		t.Fatalf("ListBySessionID: expected 2, got %d (%v)", len(chain), err)
	}
	if chain[0].EnhancedScript != chain[1].OriginalScript {
		t.Fatalf("ListBySessionID: chain out of order: %+v", chain)
	}

	if err := enhancements.Delete(ctx, ids[1]); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	chain, _ = enhancements.ListBySessionID(ctx, s.ID)
	if len(chain) != 1 {
		t.Fatalf("ListBySessionID after delete: expected 1, got %d", len(chain))
	}
}

func TestSessionsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "souling.db")
	ctx := context.Background()

	first := testutil.SQLite(t, path)
	s := &types.Session{ID: uuid.NewString(), PatientID: "p1", SessionType: "x", Status: types.SessionStatusScheduled}
	if _, err := NewSessionRepo(first, testutil.Logger(t)).Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second := testutil.SQLite(t, path)
	got, err := NewSessionRepo(second, testutil.Logger(t)).GetByID(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetByID after reopen: %v", err)
	}
	if got.PatientID != "p1" {
		t.Fatalf("GetByID after reopen: unexpected %+v", got)
	}
}

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

func TestTherapistRepoCancelledCreateReleasesClaim(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	engine := &cancelAfterInsert{Engine: testutil.Engine(t), collection: CollectionTherapistUser, cancel: cancel}
	repo := NewTherapistRepo(engine, testutil.Logger(t))
	now := time.Now().UTC()

	if _, err := repo.Create(ctx, therapy.NewTherapistProfile(uuid.NewString(), "user-9", now)); err == nil {
		t.Fatalf("Create: expected failure after cancellation")
	}
	engine.cancel = nil

	if _, err := repo.GetByUserID(context.Background(), "user-9"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("GetByUserID after failed create: expected ErrNotFound, got %v", err)
	}
	if _, err := repo.Create(context.Background(), therapy.NewTherapistProfile(uuid.NewString(), "user-9", now)); err != nil {
		t.Fatalf("claim not released, Create: %v", err)
	}
}
