package ai

import "errors"

// ErrEmbedding classifies embedding-service failures (transport, auth,
// model errors) so callers can match the class without knowing the client
// library. Embedding failures are non-fatal everywhere: chunks are skipped,
// notes are stored unembedded, retrieval domains come back empty.
var ErrEmbedding = errors.New("embedding failed")
