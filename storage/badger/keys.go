package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/recall/core"
)

// Key prefixes for different data types
const (
	documentPrefix      = "docrec"
	documentOwnerPrefix = "docown"
	documentColPrefix   = "doccol"
	documentIDSeq       = "docseq"

	chunkPrefix = "chkrec"
	chunkIDSeq  = "chkseq"

	notePrefix      = "notrec"
	noteOwnerPrefix = "notown"
	noteIDSeq       = "notseq"

	conversationPrefix      = "convrec"
	conversationOwnerPrefix = "convown"
	conversationIDSeq       = "convseq"

	messagePrefix      = "msgrec"
	messageOwnerPrefix = "msgown"
	messageIDSeq       = "msgseq"

	profilePrefix = "profrec"
)

// appendBigEndian appends ids in BigEndian order so lexicographic key sort
// matches numeric order.
func appendBigEndian(buf []byte, ids ...core.ID) []byte {
	for _, id := range ids {
		var scratch [8]byte
		binary.BigEndian.PutUint64(scratch[:], uint64(id))
		buf = append(buf, scratch[:]...)
	}
	return buf
}

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeDocumentOwnerKey generates a composite key for the owner index.
// Format: prefix:ownerId:docId
func makeDocumentOwnerKey(ownerId, docId core.ID) []byte {
	return appendBigEndian([]byte(documentOwnerPrefix+":"), ownerId, docId)
}

// makePartialDocumentOwnerKey generates a partial key for owner scans.
func makePartialDocumentOwnerKey(ownerId core.ID) []byte {
	return appendBigEndian([]byte(documentOwnerPrefix+":"), ownerId)
}

// makeDocumentColKey generates a composite key for the collection index.
// Format: prefix:ownerId:collectionId:docId
func makeDocumentColKey(ownerId, collectionId, docId core.ID) []byte {
	return appendBigEndian([]byte(documentColPrefix+":"), ownerId, collectionId, docId)
}

// makePartialDocumentColKey generates a partial key for collection scans.
func makePartialDocumentColKey(ownerId, collectionId core.ID) []byte {
	return appendBigEndian([]byte(documentColPrefix+":"), ownerId, collectionId)
}

// makeChunkKey generates a composite key for a chunk.
// Format: prefix:documentId:chunkIndex, so iteration order per document is
// chunk-index order, and the composite key makes duplicate indices
// impossible to store twice without detection.
func makeChunkKey(documentId core.ID, chunkIndex int) []byte {
	return appendBigEndian([]byte(chunkPrefix+":"), documentId, core.ID(chunkIndex))
}

// makePartialChunkKey generates a partial key for per-document chunk scans.
func makePartialChunkKey(documentId core.ID) []byte {
	return appendBigEndian([]byte(chunkPrefix+":"), documentId)
}

// makeNoteKey generates a key for a note by ID.
func makeNoteKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", notePrefix, id))
}

// makeNoteOwnerKey generates a composite key for the note owner index.
func makeNoteOwnerKey(ownerId, noteId core.ID) []byte {
	return appendBigEndian([]byte(noteOwnerPrefix+":"), ownerId, noteId)
}

// makePartialNoteOwnerKey generates a partial key for owner scans.
func makePartialNoteOwnerKey(ownerId core.ID) []byte {
	return appendBigEndian([]byte(noteOwnerPrefix+":"), ownerId)
}

// makeConversationKey generates a key for a conversation by ID.
func makeConversationKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", conversationPrefix, id))
}

// makeConversationOwnerKey generates a composite key for the owner index.
func makeConversationOwnerKey(ownerId, convId core.ID) []byte {
	return appendBigEndian([]byte(conversationOwnerPrefix+":"), ownerId, convId)
}

// makePartialConversationOwnerKey generates a partial key for owner scans.
func makePartialConversationOwnerKey(ownerId core.ID) []byte {
	return appendBigEndian([]byte(conversationOwnerPrefix+":"), ownerId)
}

// makeMessageKey generates a composite key for a message.
// Format: prefix:conversationId:messageId. Message ids come from a single
// sequence, so iteration order per conversation is append order.
func makeMessageKey(conversationId, messageId core.ID) []byte {
	return appendBigEndian([]byte(messagePrefix+":"), conversationId, messageId)
}

// makePartialMessageKey generates a partial key for per-conversation scans.
func makePartialMessageKey(conversationId core.ID) []byte {
	return appendBigEndian([]byte(messagePrefix+":"), conversationId)
}

// makeMessageOwnerKey generates a composite key for the message owner index.
// The value stored under this key is the conversation id, which together
// with the message id locates the primary record.
func makeMessageOwnerKey(ownerId, messageId core.ID) []byte {
	return appendBigEndian([]byte(messageOwnerPrefix+":"), ownerId, messageId)
}

// makePartialMessageOwnerKey generates a partial key for owner scans.
func makePartialMessageOwnerKey(ownerId core.ID) []byte {
	return appendBigEndian([]byte(messageOwnerPrefix+":"), ownerId)
}

// messageIdFromOwnerKey extracts the message id suffix from an owner index key.
func messageIdFromOwnerKey(key []byte) core.ID {
	return core.ID(binary.BigEndian.Uint64(key[len(key)-8:]))
}

// bigEndianID decodes an 8-byte BigEndian key segment.
func bigEndianID(b []byte) core.ID {
	return core.ID(binary.BigEndian.Uint64(b))
}

// makeProfileKey generates a key for a profile by owner ID.
func makeProfileKey(ownerId core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", profilePrefix, ownerId))
}
