// Package mock provides test doubles for the ai interfaces.
//
// The default behaviors are deterministic: embeddings are derived from an FNV
// hash of the input text, so repeated runs index and retrieve identically
// without any external service. Inject failures or fixed vectors through the
// exported function fields.
package mock
