// Copyright 2026 Appsage Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package index

import "sync/atomic"

// Handle is the single mutable reference to the current index. Rebuilds
// construct a complete new Index and then Swap it in; readers therefore
// always observe either the previous or the fully built index, never a
// partial one. The handle owner is the only writer.
type Handle struct {
	current atomic.Pointer[Index]
}

// NewHandle creates a handle. With a nil index the handle starts unset and
// searches fail with ErrEmptyIndex until the first Swap.
func NewHandle(idx *Index) *Handle {
	h := &Handle{}
	if idx != nil {
		h.current.Store(idx)
	}
	return h
}

// Swap atomically replaces the current index with a fully built one.
func (h *Handle) Swap(idx *Index) {
	h.current.Store(idx)
}

// Search searches the current index. Returns ErrEmptyIndex when the handle
// was never set.
func (h *Handle) Search(query []float32, k int) ([]Match, error) {
	idx := h.current.Load()
	if idx == nil {
		return nil, ErrEmptyIndex
	}
	return idx.Search(query, k)
}

// Size returns the entry count of the current index, 0 when unset.
func (h *Handle) Size() int {
	idx := h.current.Load()
	if idx == nil {
		return 0
	}
	return idx.Size()
}

// Dimension returns the embedding dimension of the current index, 0 when
// unset or empty.
func (h *Handle) Dimension() int {
	idx := h.current.Load()
	if idx == nil {
		return 0
	}
	return idx.Dimension()
}
