// Package ingestion turns uploaded documents into embedded, searchable
// chunks.
//
// The Pipeline runs extraction, chunking, embedding and persistence as a
// detached background task on a worker pool. A failure before chunking aborts
// the one task; a failure on an individual chunk skips that chunk and the
// loop continues. The upload that triggered ingestion is never failed by it.
package ingestion
