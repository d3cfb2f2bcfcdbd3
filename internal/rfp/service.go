package rfp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// ValidationError maps payload field names to messages. All problems are
// reported together.
type ValidationError map[string]string

func (v ValidationError) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[k])
	}
	return "invalid rfp: " + strings.Join(parts, "; ")
}

// CreateInput carries the fields accepted when creating an RFP.
type CreateInput struct {
	Title        string  `json:"title"`
	Organization string  `json:"organization"`
	Category     string  `json:"category"`
	Status       string  `json:"status"`
	Description  string  `json:"description"`
	URL          *string `json:"url"`
	Deadline     *string `json:"deadline"`
	Budget       *string `json:"budget"`
}

// UpdateInput is a partial update; nil fields keep their stored value.
// An empty string clears an optional field.
type UpdateInput struct {
	Title        *string `json:"title"`
	Organization *string `json:"organization"`
	Category     *string `json:"category"`
	Status       *string `json:"status"`
	Description  *string `json:"description"`
	URL          *string `json:"url"`
	Deadline     *string `json:"deadline"`
	Budget       *string `json:"budget"`
}

type Service struct {
	repo Repository
	log  *zap.Logger
	now  func() time.Time
}

func NewService(repo Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo: repo,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Search returns the RFPs matching query. A blank query returns no records
// and does not touch storage. Storage failures are wrapped with ErrStorage.
func (s *Service) Search(ctx context.Context, query string) ([]RFP, error) {
	needle := NormalizeQuery(query)
	if needle == "" {
		return []RFP{}, nil
	}

	results, err := s.repo.Search(ctx, needle)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", ErrStorage, err)
	}
	s.log.Debug("search", zap.String("needle", needle), zap.Int("matches", len(results)))
	return results, nil
}

func (s *Service) List(ctx context.Context) ([]RFP, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", ErrStorage, err)
	}
	return items, nil
}

func (s *Service) GetByID(ctx context.Context, id int) (RFP, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return RFP{}, storageErr("get", err)
	}
	return item, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (RFP, error) {
	now := s.now().Format(time.RFC3339)
	item := RFP{
		Title:        strings.TrimSpace(in.Title),
		Organization: strings.TrimSpace(in.Organization),
		Category:     strings.TrimSpace(in.Category),
		Status:       normalizeStatus(in.Status),
		Description:  strings.TrimSpace(in.Description),
		URL:          optional(in.URL),
		Deadline:     optional(in.Deadline),
		Budget:       optional(in.Budget),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := validate(item); err != nil {
		return RFP{}, err
	}

	created, err := s.repo.Create(ctx, item)
	if err != nil {
		return RFP{}, fmt.Errorf("%w: create: %w", ErrStorage, err)
	}
	s.log.Info("rfp created", zap.Int("id", created.ID))
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int, in UpdateInput) (RFP, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return RFP{}, storageErr("update", err)
	}

	if in.Title != nil {
		item.Title = strings.TrimSpace(*in.Title)
	}
	if in.Organization != nil {
		item.Organization = strings.TrimSpace(*in.Organization)
	}
	if in.Category != nil {
		item.Category = strings.TrimSpace(*in.Category)
	}
	if in.Status != nil {
		item.Status = normalizeStatus(*in.Status)
	}
	if in.Description != nil {
		item.Description = strings.TrimSpace(*in.Description)
	}
	if in.URL != nil {
		item.URL = optional(in.URL)
	}
	if in.Deadline != nil {
		item.Deadline = optional(in.Deadline)
	}
	if in.Budget != nil {
		item.Budget = optional(in.Budget)
	}
	if err := validate(item); err != nil {
		return RFP{}, err
	}

	item.UpdatedAt = s.now().Format(time.RFC3339)
	updated, err := s.repo.Update(ctx, id, item)
	if err != nil {
		return RFP{}, storageErr("update", err)
	}
	s.log.Info("rfp updated", zap.Int("id", id))
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storageErr("delete", err)
	}
	s.log.Info("rfp deleted", zap.Int("id", id))
	return nil
}

func storageErr(op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

func normalizeStatus(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return StatusOpen
	}
	return status
}

// optional trims v and maps blank values to nil.
func optional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func validate(item RFP) error {
	errs := ValidationError{}
	if item.Title == "" {
		errs["title"] = "title is required"
	} else if utf8.RuneCountInString(item.Title) > MaxTitleLength {
		errs["title"] = fmt.Sprintf("title must be at most %d characters", MaxTitleLength)
	}
	if utf8.RuneCountInString(item.Organization) > MaxOrganizationLength {
		errs["organization"] = fmt.Sprintf("organization must be at most %d characters", MaxOrganizationLength)
	}
	if utf8.RuneCountInString(item.Category) > MaxCategoryLength {
		errs["category"] = fmt.Sprintf("category must be at most %d characters", MaxCategoryLength)
	}
	if !slices.Contains(AllowedStatuses, item.Status) {
		errs["status"] = "status must be one of " + strings.Join(AllowedStatuses, ", ")
	}
	if item.URL != nil {
		if utf8.RuneCountInString(*item.URL) > MaxURLLength {
			errs["url"] = fmt.Sprintf("url must be at most %d characters", MaxURLLength)
		} else if u, err := url.ParseRequestURI(*item.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs["url"] = "url must be an absolute http(s) URL"
		}
	}
	if item.Deadline != nil {
		if _, err := time.Parse(DeadlineLayout, *item.Deadline); err != nil {
			errs["deadline"] = "deadline must be a date in YYYY-MM-DD format"
		}
	}
	if item.Budget != nil && utf8.RuneCountInString(*item.Budget) > MaxBudgetLength {
		errs["budget"] = fmt.Sprintf("budget must be at most %d characters", MaxBudgetLength)
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
