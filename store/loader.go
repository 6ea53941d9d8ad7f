package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/appsage/appsage/core"
)

// insightRecord mirrors one object in the generated-insights JSON file.
// Pointer fields distinguish "absent" from zero values so required fields
// can be enforced.
type insightRecord struct {
	Id              *uint64  `json:"id"`
	Text            *string  `json:"text"`
	InsightText     *string  `json:"insight_text"` // legacy field name from the upstream generator
	Category        string   `json:"category"`
	ImpactScore     float64  `json:"impact_score"`
	SourceStat      string   `json:"source_stat"`
	Tags            []string `json:"tags"`
	Recommendations []string `json:"recommendations"`
}

// insightFile is the envelope the upstream generator writes.
type insightFile struct {
	Insights []insightRecord `json:"insights"`
}

// LoadFile reads the insight corpus from a JSON file and returns the insights
// in file order, with positions assigned sequentially. Both the generator's
// envelope form {"insights": [...]} and a bare array are accepted.
//
// Any failure - missing file, malformed JSON, or a record missing a required
// field (id, text) - wraps ErrDataUnavailable. The caller must treat that as
// fatal at startup.
func LoadFile(path string) ([]*core.Insight, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrDataUnavailable, path, err)
	}

	records, err := decodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", ErrDataUnavailable, path, err)
	}

	insights := make([]*core.Insight, 0, len(records))
	for i, rec := range records {
		insight, err := rec.toInsight()
		if err != nil {
			return nil, fmt.Errorf("%w: record %d in %s: %w", ErrDataUnavailable, i, path, err)
		}
		insight.Position = i
		insights = append(insights, insight)
	}

	return insights, nil
}

// decodeRecords tries the envelope form first, then a bare array.
func decodeRecords(data []byte) ([]insightRecord, error) {
	var file insightFile
	envErr := json.Unmarshal(data, &file)
	if envErr == nil && file.Insights != nil {
		return file.Insights, nil
	}

	var records []insightRecord
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	if envErr != nil {
		return nil, envErr
	}
	return nil, fmt.Errorf("no \"insights\" array found")
}

func (r *insightRecord) toInsight() (*core.Insight, error) {
	text := r.Text
	if text == nil {
		text = r.InsightText
	}

	if r.Id == nil {
		return nil, fmt.Errorf("missing required field \"id\"")
	}
	if text == nil || *text == "" {
		return nil, fmt.Errorf("missing required field \"text\"")
	}

	insight := &core.Insight{
		Id:              core.ID(*r.Id),
		Text:            *text,
		Category:        r.Category,
		ImpactScore:     r.ImpactScore,
		SourceStat:      r.SourceStat,
		Tags:            r.Tags,
		Recommendations: r.Recommendations,
	}

	if err := core.ValidateInsight(insight); err != nil {
		return nil, err
	}

	return insight, nil
}
