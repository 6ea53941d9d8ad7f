// Package index provides the in-process vector index over insight
// embeddings.
//
// The index is an exact nearest-neighbor linear scan: corpora here are
// hundreds of insights, not millions of documents, so approximate structures
// would add tuning surface without buying anything. Vectors are
// unit-normalized at build time and scored by inner product, which on unit
// vectors equals cosine similarity.
//
// There is no incremental update path. When the corpus changes, build a new
// Index and swap it into the Handle; see Handle for the concurrency contract.
package index
