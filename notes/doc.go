// Package notes manages user-authored notes and their embeddings.
//
// The note vector is derived from the title, content and tags. Creates and
// edits regenerate it whenever that text changes, tracked by a content
// fingerprint, so similarity search never serves a vector for text the
// note no longer contains. Embedding failures degrade to an unembedded
// note rather than a failed write.
package notes
