package service

import (
	"context"

	"github.com/surya9901/diary-manager-backend/internal/models"
)

// EntryRepository defines the persistence operations needed by the EntryService.
// All operations are scoped to the owning account.
type EntryRepository interface {
	CreateEntry(ctx context.Context, userID string, e models.Entry) (string, error)
	ListEntries(ctx context.Context, userID string) ([]models.Entry, error)
	SearchEntries(ctx context.Context, userID, q string) ([]models.Entry, error)
	GetEntry(ctx context.Context, userID, id string) (*models.Entry, error)
	UpdateEntry(ctx context.Context, userID string, e models.Entry) error
	DeleteEntry(ctx context.Context, userID, id string) error
}

// EntryService implements journal entry operations for an authenticated account.
type EntryService struct {
	repo EntryRepository
}

// NewEntryService constructs an EntryService with the provided EntryRepository.
func NewEntryService(repo EntryRepository) *EntryService {
	return &EntryService{repo: repo}
}

// Create stores e for userID and returns the new entry ID.
func (s *EntryService) Create(ctx context.Context, userID string, e models.Entry) (string, error) {
	return s.repo.CreateEntry(ctx, userID, e)
}

// List returns every entry of userID.
func (s *EntryService) List(ctx context.Context, userID string) ([]models.Entry, error) {
	return s.repo.ListEntries(ctx, userID)
}

// Search returns the entries of userID whose title or date matches q, ignoring case.
func (s *EntryService) Search(ctx context.Context, userID, q string) ([]models.Entry, error) {
	return s.repo.SearchEntries(ctx, userID, q)
}

// Get returns a single entry.
func (s *EntryService) Get(ctx context.Context, userID, id string) (*models.Entry, error) {
	return s.repo.GetEntry(ctx, userID, id)
}

// Update overwrites the entry e.ID.
func (s *EntryService) Update(ctx context.Context, userID string, e models.Entry) error {
	return s.repo.UpdateEntry(ctx, userID, e)
}

// Delete removes the entry id.
func (s *EntryService) Delete(ctx context.Context, userID, id string) error {
	return s.repo.DeleteEntry(ctx, userID, id)
}
