package models

import (
	"encoding/json"
	"fmt"
)

// Filter types persisted in the exclusion_filters table.
const (
	FilterExactIDs   = "exclude_exact_ids"
	FilterIDPatterns = "exclude_id_patterns"
)

// ExclusionFilters is the global policy hiding message ids from read views.
type ExclusionFilters struct {
	ExcludeIDs        []string `json:"exclude_ids"`
	ExcludeIDPatterns []string `json:"exclude_id_patterns"`
}

// ExclusionFiltersResponse is ExclusionFilters with counts.
type ExclusionFiltersResponse struct {
	ExcludeIDs        []string `json:"exclude_ids"`
	ExcludeIDPatterns []string `json:"exclude_id_patterns"`
	TotalExcludedIDs  int      `json:"total_excluded_ids"`
	TotalPatterns     int      `json:"total_patterns"`
}

// IDList decodes a JSON array whose entries may be strings or numbers.
type IDList []string

// UnmarshalJSON keeps numbers in their literal decimal form.
func (l *IDList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ids := make([]string, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			ids = append(ids, s)
			continue
		}
		var n json.Number
		if err := json.Unmarshal(item, &n); err != nil {
			return fmt.Errorf("exclude id must be a string or number: %s", string(item))
		}
		ids = append(ids, n.String())
	}
	*l = ids
	return nil
}

// ExclusionFiltersRequest replaces the exclusion policy. Exact ids may be
// sent as strings or numbers.
type ExclusionFiltersRequest struct {
	ExcludeIDs        IDList   `json:"exclude_ids"`
	ExcludeIDPatterns []string `json:"exclude_id_patterns"`
}

// Filters converts the request to the stored policy shape.
func (r *ExclusionFiltersRequest) Filters() *ExclusionFilters {
	return &ExclusionFilters{
		ExcludeIDs:        []string(r.ExcludeIDs),
		ExcludeIDPatterns: r.ExcludeIDPatterns,
	}
}

// NewExclusionFiltersResponse adds counts to filters.
func NewExclusionFiltersResponse(filters *ExclusionFilters) *ExclusionFiltersResponse {
	resp := &ExclusionFiltersResponse{ExcludeIDs: []string{}, ExcludeIDPatterns: []string{}}
	if filters == nil {
		return resp
	}
	if filters.ExcludeIDs != nil {
		resp.ExcludeIDs = filters.ExcludeIDs
	}
	if filters.ExcludeIDPatterns != nil {
		resp.ExcludeIDPatterns = filters.ExcludeIDPatterns
	}
	resp.TotalExcludedIDs = len(resp.ExcludeIDs)
	resp.TotalPatterns = len(resp.ExcludeIDPatterns)
	return resp
}
