// Package songfilter narrows and orders an in-memory song catalog.
//
// The same engine backs the private song browser, the random-setlist
// generator and public-page curation, so every caller sees identical
// matching semantics.
package songfilter

import "encoding/json"

// Threshold option values as the UI submits them.
const (
	OptionAtLeast = "以上"
	OptionAtMost  = "以下"
)

// Criteria is one search request. Empty or zero fields do not narrow the
// result; non-empty criteria compose by logical AND.
type Criteria struct {
	FreeKeyword      string `json:"freeKeyword,omitempty"`
	MaxSung          int    `json:"maxSung,omitempty"`
	MaxSungOption    string `json:"maxSungOption,omitempty"`
	Tag              string `json:"tag,omitempty"`
	Artist           string `json:"artist,omitempty"`
	Genre            string `json:"genre,omitempty"`
	SkillLevel       int    `json:"skillLevel,omitempty"`
	SkillLevelOption string `json:"skillLevelOption,omitempty"`
	Memo             string `json:"memo,omitempty"`
	Note             string `json:"note,omitempty"`
	ExcludedTags     string `json:"excludedTags,omitempty"`
	ExcludedGenres   string `json:"excludedGenres,omitempty"`
}

// ParseCriteria decodes a stored criteria blob; an empty blob means
// "match everything".
func ParseCriteria(raw json.RawMessage) (Criteria, error) {
	var c Criteria
	if len(raw) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return Criteria{}, err
	}
	return c, nil
}
