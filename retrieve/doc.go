// Package retrieve implements the query-time retrieval step: embed the
// question, find the nearest insight vectors, hydrate them into full
// records.
//
// The retriever holds the index through an index.Handle, so a corpus rebuild
// never affects an in-flight retrieval; each call sees one consistent index.
// Threshold and default top-k are explicit configuration, not baked-in
// behavior.
package retrieve
