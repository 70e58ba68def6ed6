package solution

import (
	"errors"
	"time"

	"github.com/microsolutions/showcase/internal/models"
	"github.com/microsolutions/showcase/internal/modules/asset"
)

// MinCreateImages is the number of demonstration images a new solution needs.
const MinCreateImages = 3

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("solution not found")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// Fields are the scalar columns of a solution. Updates replace all of them.
type Fields struct {
	Title                string   `json:"title"`
	Subtitle             string   `json:"subtitle"`
	Description          string   `json:"description"`
	Status               string   `json:"status"`
	BusinessAreas        []string `json:"business_areas"`
	Problem              string   `json:"problem"`
	Solution             string   `json:"solution"`
	HumanImpact          string   `json:"human_impact"`
	SustainabilityImpact string   `json:"sustainability_impact"`
	SDGGoals             []int    `json:"sdg_goals"`
	HoursSaved           int64    `json:"hours_saved"`
	UsersImpacted        int64    `json:"users_impacted"`
}

// ImageInput is one entry of a submitted image list: an existing image (ID or URL)
// or a new file.
type ImageInput struct {
	ID      string
	URL     string
	Caption string
	File    *asset.File
}

type CreateInput struct {
	Fields
	// ID is optional; the title is slugified when empty.
	ID     string
	Images []ImageInput
	Icon   *asset.File
}

type UpdateInput struct {
	Fields
	// Images nil leaves the image set untouched. Otherwise it is the complete new set.
	Images     []ImageInput
	Icon       *asset.File
	RemoveIcon bool
}

type imageResponse struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Caption  string `json:"caption"`
	Position int    `json:"position"`
}

type solutionResponse struct {
	ID                   string          `json:"id"`
	Title                string          `json:"title"`
	Subtitle             string          `json:"subtitle"`
	Description          string          `json:"description"`
	Status               string          `json:"status"`
	BusinessAreas        []string        `json:"business_areas"`
	Problem              string          `json:"problem"`
	Solution             string          `json:"solution"`
	HumanImpact          string          `json:"human_impact"`
	SustainabilityImpact string          `json:"sustainability_impact"`
	SDGGoals             []int           `json:"sdg_goals"`
	HoursSaved           int64           `json:"hours_saved"`
	UsersImpacted        int64           `json:"users_impacted"`
	IconURL              string          `json:"icon_url"`
	Images               []imageResponse `json:"images"`
	Created              time.Time       `json:"created"`
	Modified             time.Time       `json:"modified"`
}

func toResponse(s *models.SolutionModel) solutionResponse {
	images := make([]imageResponse, len(s.Images))
	for i, img := range s.Images {
		images[i] = imageResponse{ID: img.ID, URL: img.URL, Caption: img.Caption, Position: img.Position}
	}
	return solutionResponse{
		ID: s.ID, Title: s.Title, Subtitle: s.Subtitle, Description: s.Description,
		Status: string(s.Status), BusinessAreas: s.Areas(),
		Problem: s.Problem, Solution: s.Solution,
		HumanImpact: s.HumanImpact, SustainabilityImpact: s.SustainabilityImpact,
		SDGGoals: s.Goals(), HoursSaved: s.HoursSaved, UsersImpacted: s.UsersImpacted,
		IconURL: s.IconURL, Images: images,
		Created: s.CreatedAt, Modified: s.UpdatedAt,
	}
}
