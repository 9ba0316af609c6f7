package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"finassist/internal/model"
	"finassist/internal/repository"
	"finassist/internal/storage"
)

// ProfileResult is the outcome of a profile update.
type ProfileResult struct {
	Profile       *model.User
	ExtractedData *model.ExtractedFields
	IncomeMode    *string
}

// AccountInput is a partial change of login identity. Nil fields are left as they are.
type AccountInput struct {
	Username *string `json:"username" validate:"omitempty,min=1,max=64"`
	Email    *string `json:"email" validate:"omitempty,email,max=254"`
}

// ProfileService mutates the profile of an already resolved user.
type ProfileService interface {
	// Update merges form values and fields extracted from doc into usr's profile in one write.
	Update(ctx context.Context, usr *model.User, form model.Profile, doc *Upload) (*ProfileResult, error)
	// UpdateAccount changes username and/or email.
	UpdateAccount(ctx context.Context, usr *model.User, in AccountInput) (*model.User, error)
	// DocumentURL returns a temporary download link for the archived ITR document.
	DocumentURL(ctx context.Context, usr *model.User) (string, error)
}

type profileService struct {
	repo    repository.UserRepository
	ingest  *Ingestor
	store   storage.Storage
	linkTTL time.Duration
	log     *zap.Logger
}

// NewProfileService constructs a ProfileService. store may be nil when archiving is disabled.
func NewProfileService(repo repository.UserRepository, ingest *Ingestor, store storage.Storage, linkTTL time.Duration, log *zap.Logger) ProfileService {
	if log == nil {
		log = zap.NewNop()
	}
	return &profileService{repo: repo, ingest: ingest, store: store, linkTTL: linkTTL, log: log}
}

// BuildUpdate merges document-derived fields with form values. Form values are
// applied last and win on a shared key. Blank values never become assignments.
func BuildUpdate(form model.Profile, ing *Ingested) model.ProfileUpdate {
	var upd model.ProfileUpdate
	if ing != nil {
		upd.Document = ing.Fields
		upd.DocumentKey = ing.Key
	}
	set := func(dst **string, v *string) {
		if v != nil && model.NonEmpty(*v) != nil {
			*dst = v
		}
	}
	set(&upd.Profile.Age, form.Age)
	set(&upd.Profile.Goal, form.Goal)
	set(&upd.Profile.RiskTolerance, form.RiskTolerance)
	set(&upd.Profile.WorkType, form.WorkType)
	return upd
}

func (s *profileService) Update(ctx context.Context, usr *model.User, form model.Profile, doc *Upload) (*ProfileResult, error) {
	var ing *Ingested
	if doc != nil {
		var err error
		if ing, err = s.ingest.Ingest(ctx, usr.ID, doc); err != nil {
			return nil, err
		}
	}

	upd := BuildUpdate(form, ing)
	if upd.IsEmpty() {
		return nil, ErrNoUpdateData
	}

	updated, prevKey, err := s.repo.ApplyUpdate(ctx, usr.ID, upd)
	if err != nil {
		s.ingest.Discard(ctx, upd.DocumentKey)
		return nil, err
	}

	res := &ProfileResult{Profile: updated}
	if ing != nil {
		res.ExtractedData = &ing.Fields
		res.IncomeMode = ing.Fields.IncomeMode
		// prevKey comes from the row as it was under the write, not from usr,
		// so concurrent uploads each release the object they displaced.
		if upd.DocumentKey != nil && prevKey != nil && *prevKey != *upd.DocumentKey {
			s.ingest.Discard(ctx, prevKey)
		}
	}
	s.log.Debug("profile_updated", zap.String("user_id", usr.ID), zap.Int("fields", len(upd.Fields())))
	return res, nil
}

func (s *profileService) UpdateAccount(ctx context.Context, usr *model.User, in AccountInput) (*model.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	upd := model.ProfileUpdate{Username: in.Username, Email: in.Email}
	if upd.IsEmpty() {
		return nil, ErrNoUpdateData
	}
	updated, _, err := s.repo.ApplyUpdate(ctx, usr.ID, upd)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *profileService) DocumentURL(ctx context.Context, usr *model.User) (string, error) {
	if s.store == nil || usr.DocumentKey == nil {
		return "", repository.ErrNotFound
	}
	return s.store.PresignGet(ctx, *usr.DocumentKey, s.linkTTL)
}
