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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidInsight indicates an Insight failed validation.
	ErrInvalidInsight = errors.New("invalid insight")

	// ErrMissingID indicates the Id field is zero.
	ErrMissingID = errors.New("insight id is required")

	// ErrEmptyText indicates the Text field is empty.
	ErrEmptyText = errors.New("insight text cannot be empty")

	// ErrInvalidImpactScore indicates an impact score outside [0, 100].
	ErrInvalidImpactScore = errors.New("impact score must be between 0 and 100")
)
