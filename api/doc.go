// Package api exposes the question-answering engine over HTTP.
//
// POST /query accepts a natural-language question and returns the composed
// answer together with the insights that grounded it. When the language
// model is unreachable the response is a 502 that still carries the query
// and the retrieved insights. GET /healthz and GET /stats report liveness
// and corpus statistics.
package api
