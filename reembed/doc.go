// Package reembed regenerates stored embeddings after an embedding-model
// change. Notes and document chunks are embedded in batches with bounded
// exponential-backoff retry; a batch that exhausts its retries is skipped
// and counted rather than aborting the run.
package reembed
