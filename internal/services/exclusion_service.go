package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"chat-log-server/internal/db"
	"chat-log-server/internal/models"
)

// ExclusionPolicy is a loaded snapshot of the exclusion filters.
type ExclusionPolicy struct {
	exact    map[string]struct{}
	patterns []string
}

// NewExclusionPolicy builds a policy from raw filter lists.
func NewExclusionPolicy(filters *models.ExclusionFilters) *ExclusionPolicy {
	p := &ExclusionPolicy{exact: make(map[string]struct{})}
	if filters == nil {
		return p
	}
	for _, id := range filters.ExcludeIDs {
		p.exact[id] = struct{}{}
	}
	for _, pattern := range filters.ExcludeIDPatterns {
		if pattern == "" {
			continue
		}
		p.patterns = append(p.patterns, strings.ToLower(pattern))
	}
	return p
}

// Empty reports whether the policy excludes nothing.
func (p *ExclusionPolicy) Empty() bool {
	return p == nil || (len(p.exact) == 0 && len(p.patterns) == 0)
}

// ShouldExclude reports whether the decimal form of id is an exact entry or
// contains any pattern, ignoring case.
func (p *ExclusionPolicy) ShouldExclude(id int64) bool {
	if p.Empty() {
		return false
	}
	idStr := strconv.FormatInt(id, 10)
	if _, ok := p.exact[idStr]; ok {
		return true
	}
	lowered := strings.ToLower(idStr)
	for _, pattern := range p.patterns {
		if strings.Contains(lowered, pattern) {
			return true
		}
	}
	return false
}

// Apply returns the messages the policy does not hide, in order.
func (p *ExclusionPolicy) Apply(messages []*models.Message) []*models.Message {
	if p.Empty() {
		return messages
	}
	kept := make([]*models.Message, 0, len(messages))
	for _, msg := range messages {
		if !p.ShouldExclude(msg.ID) {
			kept = append(kept, msg)
		}
	}
	return kept
}

// ExclusionService manages the global id exclusion policy
type ExclusionService struct {
	repo db.FilterRepository
}

// NewExclusionService creates a new ExclusionService
func NewExclusionService(repo db.FilterRepository) *ExclusionService {
	return &ExclusionService{repo: repo}
}

// GetFilters returns the stored policy; absent halves are empty.
func (s *ExclusionService) GetFilters(ctx context.Context) (*models.ExclusionFilters, error) {
	filters, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load exclusion filters: %w", err)
	}
	return filters, nil
}

// GetExactIDs returns the exact-match half of the policy
func (s *ExclusionService) GetExactIDs(ctx context.Context) ([]string, error) {
	filters, err := s.GetFilters(ctx)
	if err != nil {
		return nil, err
	}
	return filters.ExcludeIDs, nil
}

// GetPatterns returns the substring half of the policy
func (s *ExclusionService) GetPatterns(ctx context.Context) ([]string, error) {
	filters, err := s.GetFilters(ctx)
	if err != nil {
		return nil, err
	}
	return filters.ExcludeIDPatterns, nil
}

// SetFilters replaces both halves wholesale after trimming, dropping blanks
// and deduplicating. It returns what was stored.
func (s *ExclusionService) SetFilters(ctx context.Context, filters *models.ExclusionFilters) (*models.ExclusionFilters, error) {
	if filters == nil {
		filters = &models.ExclusionFilters{}
	}
	clean := &models.ExclusionFilters{
		ExcludeIDs:        cleanEntries(filters.ExcludeIDs),
		ExcludeIDPatterns: cleanEntries(filters.ExcludeIDPatterns),
	}
	if err := s.repo.Replace(ctx, clean); err != nil {
		return nil, fmt.Errorf("failed to store exclusion filters: %w", err)
	}
	return clean, nil
}

// ClearFilters removes the policy and returns how many halves were stored.
func (s *ExclusionService) ClearFilters(ctx context.Context) (int64, error) {
	removed, err := s.repo.Clear(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear exclusion filters: %w", err)
	}
	return removed, nil
}

// Policy loads the current filters as an ExclusionPolicy.
func (s *ExclusionService) Policy(ctx context.Context) (*ExclusionPolicy, error) {
	filters, err := s.GetFilters(ctx)
	if err != nil {
		return nil, err
	}
	return NewExclusionPolicy(filters), nil
}

// ShouldExclude checks a single id against the current policy.
func (s *ExclusionService) ShouldExclude(ctx context.Context, id int64) (bool, error) {
	policy, err := s.Policy(ctx)
	if err != nil {
		return false, err
	}
	return policy.ShouldExclude(id), nil
}

func cleanEntries(entries []string) []string {
	seen := make(map[string]struct{}, len(entries))
	clean := make([]string, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if _, dup := seen[entry]; dup {
			continue
		}
		seen[entry] = struct{}{}
		clean = append(clean, entry)
	}
	return clean
}
