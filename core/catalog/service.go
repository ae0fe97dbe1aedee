// Package catalog owns the vocal track lifecycle: upload, discovery,
// owner edits and retirement.
package catalog

import (
	"os"

	"Musga/core/audio"
	"Musga/errs"
	"Musga/logger"
	"Musga/model"
	"Musga/repository"
)

// Jobs enqueues asset processing work; satisfied by *audio.Pipeline.
type Jobs interface {
	Submit(job audio.Job)
}

// Service implements catalog operations. Every operation takes the resolved
// caller account explicitly; there is no ambient auth state.
type Service struct {
	vocals     repository.VocalRepository
	jobs       Jobs
	previewDir string
}

// NewService creates a catalog service.
func NewService(vocals repository.VocalRepository, jobs Jobs, previewDir string) *Service {
	return &Service{vocals: vocals, jobs: jobs, previewDir: previewDir}
}

// UploadInput carries the user-supplied metadata plus the stored file facts.
type UploadInput struct {
	Title         string
	Description   string
	Genre         model.Genre
	Bpm           int
	Key           string
	Tone          string
	Price         float64
	LicensingType model.LicensingType
	FilePath      string
	FileSize      int64
}

func validateUpload(in UploadInput) error {
	if in.Title == "" {
		return errs.E(errs.InvalidArgument, "title is required")
	}
	if !in.Genre.Valid() {
		return errs.Ef(errs.InvalidArgument, "unknown genre %q", in.Genre)
	}
	if !in.LicensingType.Valid() {
		return errs.Ef(errs.InvalidArgument, "unknown licensing type %q", in.LicensingType)
	}
	if in.Bpm < 60 || in.Bpm > 200 {
		return errs.E(errs.InvalidArgument, "bpm must be between 60 and 200")
	}
	if in.Price < 5 || in.Price > 100 {
		return errs.E(errs.InvalidArgument, "price must be between 5 and 100")
	}
	if in.Key == "" || in.Tone == "" {
		return errs.E(errs.InvalidArgument, "key and tone are required")
	}
	return nil
}

// Upload records a new vocal for the owner and queues asset processing.
// The vocal starts in processing status and surfaces in search only once
// the pipeline completes.
func (s *Service) Upload(owner *model.User, in UploadInput) (*model.Vocal, error) {
	if owner.Role != model.RoleSinger {
		return nil, errs.E(errs.Forbidden, "only singers can upload vocals")
	}
	if in.FilePath == "" {
		return nil, errs.E(errs.InvalidArgument, "audio file is required")
	}
	if err := validateUpload(in); err != nil {
		return nil, err
	}

	vocal := &model.Vocal{
		SingerID:      owner.ID,
		Title:         in.Title,
		Description:   in.Description,
		Genre:         in.Genre,
		Bpm:           in.Bpm,
		Key:           in.Key,
		Tone:          in.Tone,
		Price:         model.Round2(in.Price),
		LicensingType: in.LicensingType,
		FilePath:      in.FilePath,
		FileSize:      in.FileSize,
		Status:        model.VocalProcessing,
		IsExclusive:   in.LicensingType == model.LicensingExclusive,
		IsSold:        false,
		IsActive:      true,
	}

	id, err := s.vocals.CreateVocal(vocal)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to store vocal", err)
	}
	vocal.ID = id

	s.jobs.Submit(audio.Job{
		VocalID:    id,
		MasterPath: in.FilePath,
		PreviewDir: s.previewDir,
	})

	return vocal, nil
}

// CompleteProcessing records the asset pipeline outcome. Wired as the
// pipeline's result handler.
func (s *Service) CompleteProcessing(res audio.Result) {
	status := model.VocalCompleted
	if res.Err != nil {
		status = model.VocalFailed
	}
	if err := s.vocals.SetProcessingResult(res.VocalID, res.Duration, res.PreviewPath, status); err != nil {
		logger.Error("failed to record processing result",
			logger.Int64("vocalId", res.VocalID),
			logger.ErrorField(err))
	}
}

// Search returns purchasable vocals matching the filters, newest first.
func (s *Service) Search(filters model.SearchFilters, page model.Page) (model.Paginated[*model.Vocal], error) {
	if filters.Genre != "" && !filters.Genre.Valid() {
		return model.Paginated[*model.Vocal]{}, errs.Ef(errs.InvalidArgument, "unknown genre %q", filters.Genre)
	}
	if filters.LicensingType != "" && !filters.LicensingType.Valid() {
		return model.Paginated[*model.Vocal]{}, errs.Ef(errs.InvalidArgument, "unknown licensing type %q", filters.LicensingType)
	}

	vocals, total, err := s.vocals.Search(filters, page)
	if err != nil {
		return model.Paginated[*model.Vocal]{}, errs.Wrap(errs.Internal, "search failed", err)
	}
	return model.NewPaginated(vocals, total, page), nil
}

// GetByID returns an active vocal and bumps its view counter. The increment
// is an atomic update in the storage layer; every successful fetch counts.
func (s *Service) GetByID(id int64) (*model.Vocal, error) {
	vocal, err := s.vocals.GetVocalByID(id)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to load vocal", err)
	}
	if vocal == nil || !vocal.IsActive {
		return nil, errs.E(errs.NotFound, "vocal not found")
	}

	if err := s.vocals.IncrementViewCount(id); err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to increment view count", err)
	}
	vocal.ViewCount++

	return vocal, nil
}

// ListBySinger returns the singer's own active vocals, any sale status.
func (s *Service) ListBySinger(singerID int64, page model.Page) (model.Paginated[*model.Vocal], error) {
	vocals, total, err := s.vocals.ListBySinger(singerID, page)
	if err != nil {
		return model.Paginated[*model.Vocal]{}, errs.Wrap(errs.Internal, "failed to list vocals", err)
	}
	return model.NewPaginated(vocals, total, page), nil
}

// CanMutateVocal is the single capability check used by update and retire.
func CanMutateVocal(account *model.User, vocal *model.Vocal) bool {
	return account != nil && vocal != nil && account.ID == vocal.SingerID
}

// loadForMutation fetches the vocal and applies the shared ownership and
// sale-state checks. Sold vocals report InvalidState even though a completed
// exclusive sale also deactivates the row; only retired-but-unsold vocals are
// hidden as NotFound.
func (s *Service) loadForMutation(id int64, requester *model.User) (*model.Vocal, error) {
	vocal, err := s.vocals.GetVocalByID(id)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to load vocal", err)
	}
	if vocal == nil {
		return nil, errs.E(errs.NotFound, "vocal not found")
	}
	if !CanMutateVocal(requester, vocal) {
		return nil, errs.E(errs.Forbidden, "you can only modify your own vocals")
	}
	if vocal.IsSold {
		return nil, errs.E(errs.InvalidState, "sold vocals cannot be modified")
	}
	if !vocal.IsActive {
		return nil, errs.E(errs.NotFound, "vocal not found")
	}
	return vocal, nil
}

func validatePatch(patch model.VocalPatch) error {
	if patch.Title != nil && *patch.Title == "" {
		return errs.E(errs.InvalidArgument, "title cannot be empty")
	}
	if patch.Genre != nil && !patch.Genre.Valid() {
		return errs.Ef(errs.InvalidArgument, "unknown genre %q", *patch.Genre)
	}
	if patch.LicensingType != nil && !patch.LicensingType.Valid() {
		return errs.Ef(errs.InvalidArgument, "unknown licensing type %q", *patch.LicensingType)
	}
	if patch.Bpm != nil && (*patch.Bpm < 60 || *patch.Bpm > 200) {
		return errs.E(errs.InvalidArgument, "bpm must be between 60 and 200")
	}
	if patch.Price != nil && (*patch.Price < 5 || *patch.Price > 100) {
		return errs.E(errs.InvalidArgument, "price must be between 5 and 100")
	}
	return nil
}

// Update applies a partial patch to an owned, unsold vocal.
func (s *Service) Update(id int64, patch model.VocalPatch, requester *model.User) (*model.Vocal, error) {
	if _, err := s.loadForMutation(id, requester); err != nil {
		return nil, err
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	if patch.Price != nil {
		rounded := model.Round2(*patch.Price)
		patch.Price = &rounded
	}

	if err := s.vocals.UpdateVocal(id, patch); err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to update vocal", err)
	}

	vocal, err := s.vocals.GetVocalByID(id)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to reload vocal", err)
	}
	return vocal, nil
}

// Retire soft-deletes an owned, unsold vocal. Removal of the underlying
// files is best effort; failures are logged, never raised.
func (s *Service) Retire(id int64, requester *model.User) error {
	vocal, err := s.loadForMutation(id, requester)
	if err != nil {
		return err
	}

	if err := s.vocals.SoftDelete(id); err != nil {
		return errs.Wrap(errs.Internal, "failed to retire vocal", err)
	}

	for _, path := range []string{vocal.FilePath, vocal.PreviewPath} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to delete vocal file",
				logger.Int64("vocalId", id),
				logger.String("path", path),
				logger.ErrorField(err))
		}
	}

	return nil
}
