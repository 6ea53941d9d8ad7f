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


// Package store defines the insight corpus: the file loader for the
// generated-insights JSON and the repository abstraction over persistent
// storage.
//
// Insights are produced upstream by the offline insight generator; this
// package has no write path for insight content. The repository exists to
// persist the corpus together with its embedding vectors so the process can
// rebuild the vector index without re-embedding on every start.
//
// The concrete repository lives in store/badger. Corpus order (the Position
// field) is preserved by an insertion-order index and serves as the stable
// ranking tiebreak during retrieval.
package store
