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


// Package compose turns retrieved insights into a natural-language answer.
//
// The composer is deliberately thin: one prompt, one model call, one
// timeout. Retry policy belongs to the caller; what this package guarantees
// is that a failed call carries the original query back out (UpstreamError)
// so a UI can offer retry, and that the retrieved context survives the
// failure for graceful degradation.
package compose
