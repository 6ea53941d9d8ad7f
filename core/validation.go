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

import "fmt"

// ValidateInsight validates an Insight according to domain rules.
//
// Validation rules:
//   - Id must be non-zero
//   - Text must not be empty
//   - ImpactScore, when set, must be within [0, 100]
//
// NOT validated (populated later):
//   - Vector (empty until the ingestion pipeline embeds the record)
//   - Position (assigned by the repository on insert)
func ValidateInsight(insight *Insight) error {
	if insight == nil {
		return fmt.Errorf("%w: insight is nil", ErrInvalidInsight)
	}

	if insight.Id == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidInsight, ErrMissingID)
	}

	if insight.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidInsight, ErrEmptyText)
	}

	if insight.ImpactScore < 0 || insight.ImpactScore > 100 {
		return fmt.Errorf("%w: %w: got %v", ErrInvalidInsight, ErrInvalidImpactScore, insight.ImpactScore)
	}

	return nil
}
