// Package transfer exports and imports showcase data.
package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/microsolutions/showcase/internal/models"
	"github.com/microsolutions/showcase/internal/modules/singleton"
	"github.com/microsolutions/showcase/internal/modules/solution"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var ErrMalformed = errors.New("malformed import file")

// ExportedSolution is the portable form of a solution. Icon and image URLs are not
// exported; they point at storage owned by the source deployment.
type ExportedSolution struct {
	Title                string    `json:"title"`
	Subtitle             string    `json:"subtitle"`
	Description          string    `json:"description"`
	Status               string    `json:"status"`
	BusinessAreas        []string  `json:"business_areas"`
	Problem              string    `json:"problem"`
	Solution             string    `json:"solution"`
	HumanImpact          string    `json:"human_impact"`
	SustainabilityImpact string    `json:"sustainability_impact"`
	SDGGoals             []int     `json:"sdg_goals"`
	HoursSaved           int64     `json:"hours_saved"`
	UsersImpacted        int64     `json:"users_impacted"`
	Created              time.Time `json:"created,omitempty"`
}

// Singletons is the export of the single-row tables.
type Singletons struct {
	Company    *models.CompanyInfoModel `json:"company"`
	Contacts   *models.ContactInfoModel `json:"contacts"`
	Statistics *models.StatisticsModel  `json:"statistics"`
}

type Service struct {
	solutions  *solution.Service
	company    *singleton.CompanyForm
	contacts   *singleton.ContactsForm
	statistics *singleton.StatisticsForm
	logger     *zap.Logger
}

func NewService(solutions *solution.Service, company *singleton.CompanyForm, contacts *singleton.ContactsForm, statistics *singleton.StatisticsForm, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		solutions:  solutions,
		company:    company,
		contacts:   contacts,
		statistics: statistics,
		logger:     logger.Named("transfer"),
	}
}

func toExported(s *models.SolutionModel) ExportedSolution {
	return ExportedSolution{
		Title:                s.Title,
		Subtitle:             s.Subtitle,
		Description:          s.Description,
		Status:               string(s.Status),
		BusinessAreas:        s.Areas(),
		Problem:              s.Problem,
		Solution:             s.Solution,
		HumanImpact:          s.HumanImpact,
		SustainabilityImpact: s.SustainabilityImpact,
		SDGGoals:             s.Goals(),
		HoursSaved:           s.HoursSaved,
		UsersImpacted:        s.UsersImpacted,
		Created:              s.CreatedAt,
	}
}

// Solutions returns every solution in export form.
func (s *Service) Solutions(ctx context.Context) ([]ExportedSolution, error) {
	list, err := s.solutions.ListContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ExportedSolution, len(list))
	for i := range list {
		out[i] = toExported(&list[i])
	}
	return out, nil
}

func (s *Service) ExportSolutionsJSON(ctx context.Context) ([]byte, error) {
	out, err := s.Solutions(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(out, "", "  ")
}

func (s *Service) ExportSingletonsJSON(ctx context.Context) ([]byte, error) {
	var (
		out Singletons
		err error
	)
	if out.Company, err = s.company.Load(ctx); err != nil {
		return nil, err
	}
	if out.Contacts, err = s.contacts.Load(ctx); err != nil {
		return nil, err
	}
	if out.Statistics, err = s.statistics.Load(ctx); err != nil {
		return nil, err
	}
	return json.MarshalIndent(out, "", "  ")
}

var xlsxHeader = []string{
	"Title", "Subtitle", "Description", "Status", "Business areas", "Problem", "Solution",
	"Human impact", "Sustainability impact", "SDG goals", "Hours saved", "Users impacted", "Created",
}

const xlsxSheet = "Solutions"

// ExportSolutionsXLSX renders the solutions as a spreadsheet, one row per solution.
func (s *Service) ExportSolutionsXLSX(ctx context.Context) ([]byte, error) {
	list, err := s.Solutions(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), xlsxSheet); err != nil {
		return nil, err
	}
	header := make([]interface{}, len(xlsxHeader))
	for i, h := range xlsxHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, e := range list {
		goals := make([]string, len(e.SDGGoals))
		for j, g := range e.SDGGoals {
			goals[j] = fmt.Sprint(g)
		}
		row := []interface{}{
			e.Title, e.Subtitle, e.Description, e.Status, strings.Join(e.BusinessAreas, ", "),
			e.Problem, e.Solution, e.HumanImpact, e.SustainabilityImpact, strings.Join(goals, ", "),
			e.HoursSaved, e.UsersImpacted, e.Created.UTC().Format(time.RFC3339),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := f.SetPanes(xlsxSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ImportSolutions inserts every solution in data, a JSON array in export form, in one
// transaction. Each row needs a title; everything else is normalised, not validated.
func (s *Service) ImportSolutions(ctx context.Context, data []byte) ([]string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: top level must be an array", ErrMalformed)
	}
	var rows []ExportedSolution
	if err := json.Unmarshal(trimmed, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	items := make([]models.SolutionModel, len(rows))
	for i, r := range rows {
		if strings.TrimSpace(r.Title) == "" {
			return nil, fmt.Errorf("%w: row %d has no title", ErrMalformed, i)
		}
		items[i] = fromExported(r)
	}
	ids, err := s.solutions.InsertBatch(ctx, items)
	if err != nil {
		return nil, err
	}
	s.logger.Info("solutions imported", zap.Int("count", len(ids)))
	return ids, nil
}

func fromExported(r ExportedSolution) models.SolutionModel {
	m := models.SolutionModel{
		Title:                strings.TrimSpace(r.Title),
		Subtitle:             strings.TrimSpace(r.Subtitle),
		Description:          strings.TrimSpace(r.Description),
		Status:               models.SolutionStatus(strings.ToLower(strings.TrimSpace(r.Status))),
		Problem:              r.Problem,
		Solution:             r.Solution,
		HumanImpact:          r.HumanImpact,
		SustainabilityImpact: r.SustainabilityImpact,
		HoursSaved:           max(r.HoursSaved, 0),
		UsersImpacted:        max(r.UsersImpacted, 0),
	}
	if !m.Status.Valid() {
		m.Status = models.StatusConcept
	}

	areas := make([]string, 0, len(r.BusinessAreas))
	for _, a := range r.BusinessAreas {
		if a = strings.ToLower(strings.TrimSpace(a)); models.BusinessAreaIndex(a) >= 0 && !slices.Contains(areas, a) {
			areas = append(areas, a)
		}
	}
	slices.SortFunc(areas, func(a, b string) int {
		return models.BusinessAreaIndex(a) - models.BusinessAreaIndex(b)
	})
	m.SetAreas(areas)

	goals := make([]int, 0, len(r.SDGGoals))
	for _, g := range r.SDGGoals {
		if g >= 1 && g <= 17 && !slices.Contains(goals, g) {
			goals = append(goals, g)
		}
	}
	slices.Sort(goals)
	m.SetGoals(goals)
	return m
}
