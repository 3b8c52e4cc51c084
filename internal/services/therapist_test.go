package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/souling-backend/internal/domain"
	"github.com/yungbote/souling-backend/internal/platform/llm"
)

func TestListTherapistsJoinsUsers(t *testing.T) {
	f := newFixture(t, llm.NewMock())
	ctx := context.Background()
	_, therapistID := registerPair(t, f)

	orphan := domain.NewTherapistProfile("orphan", "deleted-user", nowUTC())
	_, err := f.therapists.Create(ctx, orphan)
	require.NoError(t, err)

	list, err := f.directory.ListTherapists(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, therapistID, list[0].ID)
	assert.Equal(t, "Dr. Reyes", list[0].Name)
	assert.Equal(t, "dr@example.com", list[0].Email)
}

func TestUpdateTherapistProfile(t *testing.T) {
	f := newFixture(t, llm.NewMock())
	ctx := context.Background()
	_, therapistID := registerPair(t, f)

	updated, err := f.directory.UpdateProfile(ctx, UpdateProfileInput{
		TherapistID:     therapistID,
		Specializations: []string{"inner child", "regression"},
		Bio:             ptr("Twenty years of practice."),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"inner child", "regression"}, updated.Specializations)
	assert.Equal(t, "Twenty years of practice.", updated.Bio)
	assert.Nil(t, updated.Certifications)

	again, err := f.directory.UpdateProfile(ctx, UpdateProfileInput{TherapistID: therapistID, Certifications: []string{"NGH"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"inner child", "regression"}, again.Specializations, "unset fields are kept")
	assert.Equal(t, []string{"NGH"}, again.Certifications)

	_, err = f.directory.UpdateProfile(ctx, UpdateProfileInput{TherapistID: "missing"})
	require.Error(t, err)
	var dErr *domain.Error
	require.True(t, errors.As(err, &dErr))
	assert.Equal(t, domain.CodeNotFound, dErr.Code)
	assert.Equal(t, "Therapist not found", dErr.Public())
}

func TestAnalyzeJournalEntry(t *testing.T) {
	gen := &fakeGen{fn: func(context.Context, int, llm.Request) (string, error) { return "You showed courage.", nil }}
	f := newFixture(t, gen)
	ctx := context.Background()

	_, err := f.journal.AnalyzeEntry(ctx, JournalInput{UserID: "u1", Entry: "  "})
	assert.True(t, domain.IsCode(err, domain.CodeInvalidInput), "got %v", err)

	insights, err := f.journal.AnalyzeEntry(ctx, JournalInput{UserID: "u1", Entry: "I cried in the car today."})
	require.NoError(t, err)
	assert.Equal(t, "You showed courage.", insights)

	reqs := gen.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, journalMaxTokens, reqs[0].MaxTokens)
	assert.Contains(t, reqs[0].Prompt, "Entry: I cried in the car today.")
}
