// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend  *Backend
	docSeq   *badger.Sequence
	chunkSeq *badger.Sequence
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	docSeq, err := backend.GetSequence(documentIDSeq)
	if err != nil {
		return nil, err
	}
	chunkSeq, err := backend.GetSequence(chunkIDSeq)
	if err != nil {
		docSeq.Release()
		return nil, err
	}

	return &DocumentRepository{
		backend:  backend,
		docSeq:   docSeq,
		chunkSeq: chunkSeq,
	}, nil
}

// Close releases the ID sequences.
func (r *DocumentRepository) Close() error {
	err := r.docSeq.Release()
	if cerr := r.chunkSeq.Release(); err == nil {
		err = cerr
	}
	return err
}

// AddDocument adds a document to storage.
func (r *DocumentRepository) AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		id, err := nextID(r.docSeq)
		if err != nil {
			return err
		}
		doc.Id = id
		doc.InsertedAt = time.Now().UTC()
		doc.UpdatedAt = doc.InsertedAt

		if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
			return err
		}

		// Owner index
		ownerKey := makeDocumentOwnerKey(doc.OwnerId, doc.Id)
		if err := tx.Set(ownerKey, storage.MarshalID(doc.Id)); err != nil {
			return err
		}

		// Collection index (0 means unassigned)
		if doc.CollectionId != 0 {
			colKey := makeDocumentColKey(doc.OwnerId, doc.CollectionId, doc.Id)
			if err := tx.Set(colKey, storage.MarshalID(doc.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return doc, err
}

// UpdateDocument updates an existing document.
func (r *DocumentRepository) UpdateDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		old, err := r.readDocument(tx, makeDocumentKey(doc.Id))
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}

		doc.InsertedAt = old.InsertedAt
		doc.UpdatedAt = time.Now().UTC()

		if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
			return err
		}

		if old.CollectionId != doc.CollectionId {
			if err := r.moveCollectionIndex(tx, old, doc.CollectionId); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return doc, err
}

// GetDocument retrieves a document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readDocument(tx, makeDocumentKey(id))
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

// GetDocumentsByOwner retrieves all documents owned by a user, ordered by ID.
func (r *DocumentRepository) GetDocumentsByOwner(ctx context.Context, ownerId core.ID) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialDocumentOwnerKey(ownerId)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			var docId core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				docId, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			doc, err := r.readDocument(tx, makeDocumentKey(docId))
			if err != nil {
				return err
			}
			if doc != nil {
				results = append(results, doc)
			}
		}
		return nil
	}, false)

	return results, err
}

// GetDocumentIdsByCollection retrieves the IDs of an owner's documents in a collection.
func (r *DocumentRepository) GetDocumentIdsByCollection(ctx context.Context, ownerId, collectionId core.ID) ([]core.ID, error) {
	var results []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialDocumentColKey(ownerId, collectionId)
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			key := iter.Item().Key()
			results = append(results, bigEndianID(key[len(key)-8:]))
		}
		return nil
	}, false)

	return results, err
}

// ReassignCollection moves a document to another collection. A collectionId
// of 0 clears the assignment.
func (r *DocumentRepository) ReassignCollection(ctx context.Context, id, collectionId core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		doc, err := r.readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}
		if doc.CollectionId == collectionId {
			return nil
		}

		if err := r.moveCollectionIndex(tx, doc, collectionId); err != nil {
			return err
		}

		doc.CollectionId = collectionId
		doc.UpdatedAt = time.Now().UTC()
		if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteDocument removes a document and all of its chunks.
func (r *DocumentRepository) DeleteDocument(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		doc, err := r.readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}

		if err := tx.Delete(makeDocumentOwnerKey(doc.OwnerId, doc.Id)); err != nil {
			return err
		}
		if doc.CollectionId != 0 {
			if err := tx.Delete(makeDocumentColKey(doc.OwnerId, doc.CollectionId, doc.Id)); err != nil {
				return err
			}
		}

		// Cascade to chunks. Keys are collected first so the iterator is
		// closed before the transaction mutates the range it covered.
		prefix := makePartialChunkKey(doc.Id)
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		iter := tx.NewIterator(opts)

		var chunkKeys [][]byte
		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			chunkKeys = append(chunkKeys, iter.Item().KeyCopy(nil))
		}
		iter.Close()

		for _, key := range chunkKeys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}

		if err := tx.Delete(makeDocumentKey(doc.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// AddChunk persists one embedded chunk. Returns ErrDuplicateKey if the
// document already has a chunk at the same index.
func (r *DocumentRepository) AddChunk(ctx context.Context, chunk *core.DocumentChunk) (*core.DocumentChunk, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeChunkKey(chunk.DocumentId, chunk.ChunkIndex)
		if _, err := tx.Get(key); err == nil {
			return storage.ErrDuplicateKey
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		id, err := nextID(r.chunkSeq)
		if err != nil {
			return err
		}
		chunk.Id = id
		chunk.InsertedAt = time.Now().UTC()

		if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return chunk, err
}

// GetChunksByDocument retrieves a document's chunks in chunk-index order.
func (r *DocumentRepository) GetChunksByDocument(ctx context.Context, documentId core.ID) ([]*core.DocumentChunk, error) {
	var results []*core.DocumentChunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialChunkKey(documentId)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			var chunk *core.DocumentChunk
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			}); err != nil {
				return err
			}
			results = append(results, chunk)
		}
		return nil
	}, false)

	return results, err
}

// UpdateChunk updates an existing chunk in place.
func (r *DocumentRepository) UpdateChunk(ctx context.Context, chunk *core.DocumentChunk) (*core.DocumentChunk, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeChunkKey(chunk.DocumentId, chunk.ChunkIndex)
		if _, err := tx.Get(key); err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return chunk, err
}

// FindSimilarChunks scans chunks of the owner's documents for vectors similar
// to the query. When q.DocumentIds is set the scan is restricted to those
// documents; documents not owned by q.OwnerId are skipped.
func (r *DocumentRepository) FindSimilarChunks(ctx context.Context, q storage.VectorQuery) ([]*core.DocumentChunk, []float32, error) {
	var matches []scored[*core.DocumentChunk]

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		docIds := q.DocumentIds
		if len(docIds) == 0 {
			var err error
			docIds, err = r.ownerDocumentIds(tx, q.OwnerId)
			if err != nil {
				return err
			}
		}

		for _, docId := range docIds {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			doc, err := r.readDocument(tx, makeDocumentKey(docId))
			if err != nil {
				return err
			}
			if doc == nil || doc.OwnerId != q.OwnerId {
				continue
			}

			prefix := makePartialChunkKey(docId)
			iter := tx.NewIterator(badger.DefaultIteratorOptions)

			for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
				var chunk *core.DocumentChunk
				if err := iter.Item().Value(func(val []byte) error {
					var err error
					chunk, err = storage.UnmarshalChunk(val)
					return err
				}); err != nil {
					iter.Close()
					return err
				}

				sim, ok := cosineSimilarity(q.Vector, chunk.Vector)
				if !ok || sim < q.MinSimilarity {
					continue
				}
				matches = append(matches, scored[*core.DocumentChunk]{record: chunk, score: sim})
			}
			iter.Close()
		}
		return nil
	}, false)
	if err != nil {
		return nil, nil, err
	}

	matches = topScored(matches, q.Limit)
	chunks := make([]*core.DocumentChunk, len(matches))
	scores := make([]float32, len(matches))
	for i, m := range matches {
		chunks[i] = m.record
		scores[i] = m.score
	}
	return chunks, scores, nil
}

// ownerDocumentIds collects every document ID in the owner index.
func (r *DocumentRepository) ownerDocumentIds(tx *badger.Txn, ownerId core.ID) ([]core.ID, error) {
	prefix := makePartialDocumentOwnerKey(ownerId)
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false

	iter := tx.NewIterator(opts)
	defer iter.Close()

	var ids []core.ID
	for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
		key := iter.Item().Key()
		ids = append(ids, bigEndianID(key[len(key)-8:]))
	}
	return ids, nil
}

// moveCollectionIndex rewrites the collection index entry when a document
// changes collection. The document record itself is not touched.
func (r *DocumentRepository) moveCollectionIndex(tx *badger.Txn, old *core.Document, newCollectionId core.ID) error {
	if old.CollectionId != 0 {
		if err := tx.Delete(makeDocumentColKey(old.OwnerId, old.CollectionId, old.Id)); err != nil {
			return err
		}
	}
	if newCollectionId != 0 {
		colKey := makeDocumentColKey(old.OwnerId, newCollectionId, old.Id)
		if err := tx.Set(colKey, storage.MarshalID(old.Id)); err != nil {
			return err
		}
	}
	return nil
}

// readDocument reads a document, returning nil if the key doesn't exist.
func (r *DocumentRepository) readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}
