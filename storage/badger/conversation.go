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
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

// ConversationRepository implements storage.ConversationRepository for BadgerDB.
type ConversationRepository struct {
	backend *Backend
	convSeq *badger.Sequence
	msgSeq  *badger.Sequence
}

var _ storage.ConversationRepository = (*ConversationRepository)(nil)

// NewConversationRepository creates a new ConversationRepository.
func NewConversationRepository(backend *Backend) (*ConversationRepository, error) {
	convSeq, err := backend.GetSequence(conversationIDSeq)
	if err != nil {
		return nil, err
	}
	msgSeq, err := backend.GetSequence(messageIDSeq)
	if err != nil {
		convSeq.Release()
		return nil, err
	}

	return &ConversationRepository{
		backend: backend,
		convSeq: convSeq,
		msgSeq:  msgSeq,
	}, nil
}

// Close releases the ID sequences.
func (r *ConversationRepository) Close() error {
	err := r.convSeq.Release()
	if cerr := r.msgSeq.Release(); err == nil {
		err = cerr
	}
	return err
}

// AddConversation adds a conversation to storage.
func (r *ConversationRepository) AddConversation(ctx context.Context, conv *core.Conversation) (*core.Conversation, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		id, err := nextID(r.convSeq)
		if err != nil {
			return err
		}
		conv.Id = id
		conv.InsertedAt = time.Now().UTC()
		conv.UpdatedAt = conv.InsertedAt

		if err := tx.Set(makeConversationKey(conv.Id), storage.MarshalConversation(conv)); err != nil {
			return err
		}
		ownerKey := makeConversationOwnerKey(conv.OwnerId, conv.Id)
		if err := tx.Set(ownerKey, storage.MarshalID(conv.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return conv, err
}

// GetConversation retrieves a conversation by ID.
func (r *ConversationRepository) GetConversation(ctx context.Context, id core.ID) (*core.Conversation, error) {
	var result *core.Conversation
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readConversation(tx, makeConversationKey(id))
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

// GetConversationsByOwner retrieves all conversations owned by a user.
func (r *ConversationRepository) GetConversationsByOwner(ctx context.Context, ownerId core.ID) ([]*core.Conversation, error) {
	var results []*core.Conversation
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialConversationOwnerKey(ownerId)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			var convId core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				convId, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			conv, err := r.readConversation(tx, makeConversationKey(convId))
			if err != nil {
				return err
			}
			if conv != nil {
				results = append(results, conv)
			}
		}
		return nil
	}, false)

	return results, err
}

// AppendMessages appends messages to a conversation. Message IDs come from a
// single sequence, so per-conversation key order is append order. The
// conversation's UpdatedAt is advanced in the same transaction.
func (r *ConversationRepository) AppendMessages(ctx context.Context, conversationId core.ID, msgs ...*core.Message) ([]*core.Message, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		conv, err := r.readConversation(tx, makeConversationKey(conversationId))
		if err != nil {
			return err
		}
		if conv == nil {
			return storage.ErrNotFound
		}

		now := time.Now().UTC()
		for _, msg := range msgs {
			id, err := nextID(r.msgSeq)
			if err != nil {
				return err
			}
			msg.Id = id
			msg.ConversationId = conversationId
			msg.OwnerId = conv.OwnerId
			if msg.Timestamp.IsZero() {
				msg.Timestamp = now
			}
			msg.InsertedAt = now
			msg.UpdatedAt = now

			key := makeMessageKey(conversationId, msg.Id)
			if err := tx.Set(key, storage.MarshalMessage(msg)); err != nil {
				return err
			}

			// Owner index stores the conversation id so a scan can locate
			// the primary record.
			ownerKey := makeMessageOwnerKey(msg.OwnerId, msg.Id)
			if err := tx.Set(ownerKey, storage.MarshalID(conversationId)); err != nil {
				return err
			}
		}

		conv.UpdatedAt = now
		if err := tx.Set(makeConversationKey(conv.Id), storage.MarshalConversation(conv)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return msgs, err
}

// GetMessages retrieves a conversation's messages in append order.
func (r *ConversationRepository) GetMessages(ctx context.Context, conversationId core.ID) ([]*core.Message, error) {
	var results []*core.Message
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialMessageKey(conversationId)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			var msg *core.Message
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				msg, err = storage.UnmarshalMessage(val)
				return err
			}); err != nil {
				return err
			}
			results = append(results, msg)
		}
		return nil
	}, false)

	return results, err
}

// GetRecentMessages retrieves the last limit messages of a conversation,
// returned in append order.
func (r *ConversationRepository) GetRecentMessages(ctx context.Context, conversationId core.ID, limit int) ([]*core.Message, error) {
	var results []*core.Message
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialMessageKey(conversationId)

		// Reverse iterator, seeking past the last possible key for the
		// conversation.
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true

		iter := tx.NewIterator(opts)
		defer iter.Close()

		seekKey := makeMessageKey(conversationId, core.ID(^uint64(0)))
		for iter.Seek(seekKey); iter.ValidForPrefix(prefix) && len(results) < limit; iter.Next() {
			var msg *core.Message
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				msg, err = storage.UnmarshalMessage(val)
				return err
			}); err != nil {
				return err
			}
			results = append(results, msg)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.Reverse(results)
	return results, nil
}

// UpdateMessages replaces existing message records.
func (r *ConversationRepository) UpdateMessages(ctx context.Context, msgs ...*core.Message) ([]*core.Message, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, msg := range msgs {
			key := makeMessageKey(msg.ConversationId, msg.Id)
			if _, err := tx.Get(key); err != nil {
				if err == badger.ErrKeyNotFound {
					return storage.ErrNotFound
				}
				return err
			}

			msg.UpdatedAt = now
			if err := tx.Set(key, storage.MarshalMessage(msg)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return msgs, err
}

// FindSimilarMessages scans the owner's messages for vectors similar to the
// query. Messages without a vector (backfill pending) are skipped by the
// dimension check.
func (r *ConversationRepository) FindSimilarMessages(ctx context.Context, q storage.VectorQuery) ([]*core.Message, []float32, error) {
	var matches []scored[*core.Message]

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		prefix := makePartialMessageOwnerKey(q.OwnerId)
		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			msgId := messageIdFromOwnerKey(iter.Item().Key())

			var convId core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				convId, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			msg, err := r.readMessage(tx, makeMessageKey(convId, msgId))
			if err != nil {
				return err
			}
			if msg == nil {
				continue
			}

			sim, ok := cosineSimilarity(q.Vector, msg.Vector)
			if !ok || sim < q.MinSimilarity {
				continue
			}
			matches = append(matches, scored[*core.Message]{record: msg, score: sim})
		}
		return nil
	}, false)
	if err != nil {
		return nil, nil, err
	}

	matches = topScored(matches, q.Limit)
	msgs := make([]*core.Message, len(matches))
	scores := make([]float32, len(matches))
	for i, m := range matches {
		msgs[i] = m.record
		scores[i] = m.score
	}
	return msgs, scores, nil
}

// readConversation reads a conversation, returning nil if the key doesn't exist.
func (r *ConversationRepository) readConversation(tx *badger.Txn, key []byte) (*core.Conversation, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var conv *core.Conversation
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		conv, unmarshalErr = storage.UnmarshalConversation(val)
		return unmarshalErr
	})
	return conv, err
}

// readMessage reads a message, returning nil if the key doesn't exist.
func (r *ConversationRepository) readMessage(tx *badger.Txn, key []byte) (*core.Message, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var msg *core.Message
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		msg, unmarshalErr = storage.UnmarshalMessage(val)
		return unmarshalErr
	})
	return msg, err
}
