// Package ingest loads market insights into the repository and generates
// their embedding vectors.
//
// A Pipeline stores insights in either replace mode, which purges the
// existing corpus first, or merge mode, which skips insights whose text
// fingerprint is already stored. Embedding runs concurrently in batches on
// a worker pool, with exponential backoff retry around each model call.
//
// The pipeline does not touch the search index; callers rebuild it from the
// repository once Run returns.
package ingest
