package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

// ProfileRepository implements storage.ProfileRepository for BadgerDB.
// Profiles are keyed by owner, one record per user.
type ProfileRepository struct {
	backend *Backend
}

var _ storage.ProfileRepository = (*ProfileRepository)(nil)

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(backend *Backend) *ProfileRepository {
	return &ProfileRepository{backend: backend}
}

// GetProfile retrieves a user's profile.
func (r *ProfileRepository) GetProfile(ctx context.Context, ownerId core.ID) (*core.Profile, error) {
	var result *core.Profile
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeProfileKey(ownerId))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalProfile(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}

// PutProfile stores or replaces a user's profile.
func (r *ProfileRepository) PutProfile(ctx context.Context, profile *core.Profile) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		profile.UpdatedAt = time.Now().UTC()
		key := makeProfileKey(profile.OwnerId)
		if err := tx.Set(key, storage.MarshalProfile(profile)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
