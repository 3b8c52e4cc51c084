package services

import (
	"context"
	"errors"
	"strings"

	"github.com/yungbote/souling-backend/internal/data/kv"
	"github.com/yungbote/souling-backend/internal/data/repos"
	"github.com/yungbote/souling-backend/internal/domain"
	"github.com/yungbote/souling-backend/internal/platform/logger"
)

// TherapistListing is a profile joined with its owner's display fields.
type TherapistListing struct {
	domain.TherapistProfile
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateProfileInput overwrites only the fields that are set.
type UpdateProfileInput struct {
	TherapistID     string
	Specializations []string
	Bio             *string
	Certifications  []string
}

type TherapistService interface {
	ListTherapists(ctx context.Context) ([]*TherapistListing, error)
	UpdateProfile(ctx context.Context, in UpdateProfileInput) (*domain.TherapistProfile, error)
}

type therapistService struct {
	log           *logger.Logger
	userRepo      repos.UserRepo
	therapistRepo repos.TherapistRepo
}

func NewTherapistService(log *logger.Logger, userRepo repos.UserRepo, therapistRepo repos.TherapistRepo) TherapistService {
	return &therapistService{
		log:           log.With("service", "TherapistService"),
		userRepo:      userRepo,
		therapistRepo: therapistRepo,
	}
}

func (ts *therapistService) ListTherapists(ctx context.Context) ([]*TherapistListing, error) {
	const op = "therapist.list"
	profiles, err := ts.therapistRepo.List(ctx)
	if err != nil {
		return nil, storeError(op, "therapists", err)
	}
	out := make([]*TherapistListing, 0, len(profiles))
	for _, p := range profiles {
		u, err := ts.userRepo.GetByID(ctx, p.UserID)
		if errors.Is(err, kv.ErrNotFound) {
			ts.log.Warn("therapist profile without user, skipping", "therapist_id", p.ID, "user_id", p.UserID)
			continue
		}
		if err != nil {
			return nil, storeError(op, "user", err)
		}
		out = append(out, &TherapistListing{TherapistProfile: *p, Name: u.Name, Email: u.Email})
	}
	return out, nil
}

func (ts *therapistService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*domain.TherapistProfile, error) {
	const op = "therapist.update_profile"
	if strings.TrimSpace(in.TherapistID) == "" {
		return nil, domain.InvalidInput(op, "therapistId is required")
	}
	updated, err := ts.therapistRepo.Update(ctx, in.TherapistID, func(p *domain.TherapistProfile) error {
		if in.Specializations != nil {
			p.Specializations = in.Specializations
		}
		if in.Bio != nil {
			p.Bio = *in.Bio
		}
		if in.Certifications != nil {
			p.Certifications = in.Certifications
		}
		p.UpdatedAt = nowUTC()
		return nil
	})
	if errors.Is(err, kv.ErrNotFound) {
		return nil, domain.NewError(domain.CodeNotFound, op, "Therapist not found", err)
	}
	if err != nil {
		return nil, storeError(op, "therapist", err)
	}
	return updated, nil
}
