package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

// NoteRepository implements storage.NoteRepository for BadgerDB.
type NoteRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.NoteRepository = (*NoteRepository)(nil)

// NewNoteRepository creates a new NoteRepository.
func NewNoteRepository(backend *Backend) (*NoteRepository, error) {
	idSeq, err := backend.GetSequence(noteIDSeq)
	if err != nil {
		return nil, err
	}

	return &NoteRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *NoteRepository) Close() error {
	return r.idSeq.Release()
}

// AddNote adds a note to storage.
func (r *NoteRepository) AddNote(ctx context.Context, note *core.Note) (*core.Note, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		id, err := nextID(r.idSeq)
		if err != nil {
			return err
		}
		note.Id = id
		note.InsertedAt = time.Now().UTC()
		note.UpdatedAt = note.InsertedAt

		if err := tx.Set(makeNoteKey(note.Id), storage.MarshalNote(note)); err != nil {
			return err
		}
		ownerKey := makeNoteOwnerKey(note.OwnerId, note.Id)
		if err := tx.Set(ownerKey, storage.MarshalID(note.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return note, err
}

// UpdateNote updates an existing note.
func (r *NoteRepository) UpdateNote(ctx context.Context, note *core.Note) (*core.Note, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		old, err := r.readNote(tx, makeNoteKey(note.Id))
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}

		note.OwnerId = old.OwnerId
		note.InsertedAt = old.InsertedAt
		note.UpdatedAt = time.Now().UTC()

		if err := tx.Set(makeNoteKey(note.Id), storage.MarshalNote(note)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return note, err
}

// GetNote retrieves a note by ID.
func (r *NoteRepository) GetNote(ctx context.Context, id core.ID) (*core.Note, error) {
	var result *core.Note
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readNote(tx, makeNoteKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetNotesByOwner retrieves all notes owned by a user, ordered by ID.
func (r *NoteRepository) GetNotesByOwner(ctx context.Context, ownerId core.ID) ([]*core.Note, error) {
	var results []*core.Note
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return r.scanOwnerNotes(tx, ownerId, func(note *core.Note) {
			results = append(results, note)
		})
	}, false)
	return results, err
}

// DeleteNote removes a note by ID.
func (r *NoteRepository) DeleteNote(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		note, err := r.readNote(tx, makeNoteKey(id))
		if err != nil {
			return err
		}
		if note == nil {
			return storage.ErrNotFound
		}

		if err := tx.Delete(makeNoteOwnerKey(note.OwnerId, note.Id)); err != nil {
			return err
		}
		if err := tx.Delete(makeNoteKey(note.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// FindSimilarNotes scans the owner's notes for vectors similar to the query.
func (r *NoteRepository) FindSimilarNotes(ctx context.Context, q storage.VectorQuery) ([]*core.Note, []float32, error) {
	var matches []scored[*core.Note]

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return r.scanOwnerNotes(tx, q.OwnerId, func(note *core.Note) {
			sim, ok := cosineSimilarity(q.Vector, note.Vector)
			if !ok || sim < q.MinSimilarity {
				return
			}
			matches = append(matches, scored[*core.Note]{record: note, score: sim})
		})
	}, false)
	if err != nil {
		return nil, nil, err
	}

	matches = topScored(matches, q.Limit)
	notes := make([]*core.Note, len(matches))
	scores := make([]float32, len(matches))
	for i, m := range matches {
		notes[i] = m.record
		scores[i] = m.score
	}
	return notes, scores, nil
}

// scanOwnerNotes walks the owner index and yields each note.
func (r *NoteRepository) scanOwnerNotes(tx *badger.Txn, ownerId core.ID, yield func(*core.Note)) error {
	prefix := makePartialNoteOwnerKey(ownerId)
	iter := tx.NewIterator(badger.DefaultIteratorOptions)
	defer iter.Close()

	for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
		var noteId core.ID
		if err := iter.Item().Value(func(val []byte) error {
			var err error
			noteId, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}

		note, err := r.readNote(tx, makeNoteKey(noteId))
		if err != nil {
			return err
		}
		if note != nil {
			yield(note)
		}
	}
	return nil
}

// readNote reads a note, returning nil if the key doesn't exist.
func (r *NoteRepository) readNote(tx *badger.Txn, key []byte) (*core.Note, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var note *core.Note
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		note, unmarshalErr = storage.UnmarshalNote(val)
		return unmarshalErr
	})
	return note, err
}
