// Package public serves the read-only showcase API consumed by the landing pages.
package public

import (
	"context"
	"time"

	"github.com/microsolutions/showcase/internal/models"
	"github.com/microsolutions/showcase/internal/modules/localcache"
	"github.com/microsolutions/showcase/internal/pkg/markdown"
	"github.com/microsolutions/showcase/internal/pkg/metrics"
	"go.uber.org/zap"
)

// SolutionSource is the part of the solution repository the public layer reads.
type SolutionSource interface {
	ListContext(ctx context.Context) ([]models.SolutionModel, error)
	Get(ctx context.Context, id string) (*models.SolutionModel, error)
}

// Loader loads a singleton row, nil when the table is empty.
type Loader[E any] interface {
	Load(ctx context.Context) (*E, error)
}

type Image struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Caption  string `json:"caption"`
	Position int    `json:"position"`
}

type Solution struct {
	ID                       string    `json:"id"`
	Title                    string    `json:"title"`
	Subtitle                 string    `json:"subtitle"`
	Description              string    `json:"description"`
	DescriptionHTML          string    `json:"description_html"`
	Status                   string    `json:"status"`
	BusinessAreas            []string  `json:"business_areas"`
	Problem                  string    `json:"problem"`
	ProblemHTML              string    `json:"problem_html"`
	Solution                 string    `json:"solution"`
	SolutionHTML             string    `json:"solution_html"`
	HumanImpact              string    `json:"human_impact"`
	HumanImpactHTML          string    `json:"human_impact_html"`
	SustainabilityImpact     string    `json:"sustainability_impact"`
	SustainabilityImpactHTML string    `json:"sustainability_impact_html"`
	SDGGoals                 []int     `json:"sdg_goals"`
	HoursSaved               int64     `json:"hours_saved"`
	UsersImpacted            int64     `json:"users_impacted"`
	IconURL                  string    `json:"icon_url"`
	Images                   []Image   `json:"images"`
	Created                  time.Time `json:"created"`
	Modified                 time.Time `json:"modified"`
}

type Company struct {
	*models.CompanyInfoModel
	MissionHTML string `json:"mission_html"`
	VisionHTML  string `json:"vision_html"`
	AboutHTML   string `json:"about_html"`
}

// Overview bundles everything a landing page renders. Version is the latest
// modification time across all rows; pages poll it to detect changes.
type Overview struct {
	Version    time.Time                `json:"version"`
	Company    *Company                 `json:"company"`
	Contacts   *models.ContactInfoModel `json:"contacts"`
	Statistics *models.StatisticsModel  `json:"statistics"`
	Solutions  []Solution               `json:"solutions"`
}

type Service struct {
	solutions  SolutionSource
	company    Loader[models.CompanyInfoModel]
	contacts   Loader[models.ContactInfoModel]
	statistics Loader[models.StatisticsModel]
	fallback   *localcache.Store
	logger     *zap.Logger
}

// NewService wires the read layer. fallback may be nil to disable the on-disk copy.
func NewService(
	solutions SolutionSource,
	company Loader[models.CompanyInfoModel],
	contacts Loader[models.ContactInfoModel],
	statistics Loader[models.StatisticsModel],
	fallback *localcache.Store,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		solutions:  solutions,
		company:    company,
		contacts:   contacts,
		statistics: statistics,
		fallback:   fallback,
		logger:     logger.Named("public"),
	}
}

// Solutions lists every solution. When the database is unreachable the last list
// saved to the fallback cache is served instead. Reads never write the cache; the
// refresh job does.
func (s *Service) Solutions(ctx context.Context) []Solution {
	return present(s.rawSolutions(ctx))
}

func (s *Service) rawSolutions(ctx context.Context) []models.SolutionModel {
	items, err := s.solutions.ListContext(ctx)
	if err != nil {
		s.logger.Warn("list solutions failed, serving fallback cache", zap.Error(err))
		return s.fromFallback()
	}
	return items
}

func (s *Service) fromFallback() []models.SolutionModel {
	metrics.ObserveFallbackRead()
	if s.fallback == nil {
		return nil
	}
	return s.fallback.Load()
}

// Solution returns one solution, nil when it does not exist. The fallback cache is
// consulted when the database fails.
func (s *Service) Solution(ctx context.Context, id string) (*Solution, error) {
	sol, err := s.solutions.Get(ctx, id)
	if err != nil {
		s.logger.Warn("get solution failed, serving fallback cache", zap.String("id", id), zap.Error(err))
		for _, cached := range s.fromFallback() {
			if cached.ID == id {
				out := toSolution(&cached)
				return &out, nil
			}
		}
		return nil, err
	}
	if sol == nil {
		return nil, nil
	}
	out := toSolution(sol)
	return &out, nil
}

func (s *Service) Company(ctx context.Context) (*Company, error) {
	row, err := s.company.Load(ctx)
	if err != nil || row == nil {
		return nil, err
	}
	return &Company{
		CompanyInfoModel: row,
		MissionHTML:      markdown.Render(row.Mission),
		VisionHTML:       markdown.Render(row.Vision),
		AboutHTML:        markdown.Render(row.About),
	}, nil
}

func (s *Service) Contacts(ctx context.Context) (*models.ContactInfoModel, error) {
	return s.contacts.Load(ctx)
}

func (s *Service) Statistics(ctx context.Context) (*models.StatisticsModel, error) {
	return s.statistics.Load(ctx)
}

func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	company, err := s.Company(ctx)
	if err != nil {
		return nil, err
	}
	contacts, err := s.Contacts(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := s.Statistics(ctx)
	if err != nil {
		return nil, err
	}
	raw := s.rawSolutions(ctx)

	out := &Overview{Company: company, Contacts: contacts, Statistics: stats, Solutions: present(raw)}
	bump := func(t time.Time) {
		if t.After(out.Version) {
			out.Version = t
		}
	}
	if company != nil {
		bump(company.UpdatedAt)
	}
	if contacts != nil {
		bump(contacts.UpdatedAt)
	}
	if stats != nil {
		bump(stats.UpdatedAt)
	}
	for i := range raw {
		bump(raw[i].UpdatedAt)
		for _, img := range raw[i].Images {
			bump(img.UpdatedAt)
		}
	}
	return out, nil
}

func present(items []models.SolutionModel) []Solution {
	out := make([]Solution, len(items))
	for i := range items {
		out[i] = toSolution(&items[i])
	}
	return out
}

func toSolution(m *models.SolutionModel) Solution {
	images := make([]Image, len(m.Images))
	for i, img := range m.Images {
		images[i] = Image{ID: img.ID, URL: img.URL, Caption: img.Caption, Position: img.Position}
	}
	return Solution{
		ID:                       m.ID,
		Title:                    m.Title,
		Subtitle:                 m.Subtitle,
		Description:              m.Description,
		DescriptionHTML:          markdown.Render(m.Description),
		Status:                   string(m.Status),
		BusinessAreas:            m.Areas(),
		Problem:                  m.Problem,
		ProblemHTML:              markdown.Render(m.Problem),
		Solution:                 m.Solution,
		SolutionHTML:             markdown.Render(m.Solution),
		HumanImpact:              m.HumanImpact,
		HumanImpactHTML:          markdown.Render(m.HumanImpact),
		SustainabilityImpact:     m.SustainabilityImpact,
		SustainabilityImpactHTML: markdown.Render(m.SustainabilityImpact),
		SDGGoals:                 m.Goals(),
		HoursSaved:               m.HoursSaved,
		UsersImpacted:            m.UsersImpacted,
		IconURL:                  m.IconURL,
		Images:                   images,
		Created:                  m.CreatedAt,
		Modified:                 m.UpdatedAt,
	}
}
