package solution

import (
	"sort"
	"strings"

	"github.com/microsolutions/showcase/internal/models"
)

// normalize trims the fields, fills defaults and validates them.
func normalize(f Fields) (Fields, error) {
	f.Title = strings.TrimSpace(f.Title)
	f.Subtitle = strings.TrimSpace(f.Subtitle)
	f.Description = strings.TrimSpace(f.Description)
	if f.Title == "" {
		return f, invalid("title", "is required")
	}
	if f.Subtitle == "" {
		return f, invalid("subtitle", "is required")
	}
	if f.Description == "" {
		return f, invalid("description", "is required")
	}

	f.Status = strings.ToLower(strings.TrimSpace(f.Status))
	if f.Status == "" {
		f.Status = string(models.StatusConcept)
	}
	if !models.SolutionStatus(f.Status).Valid() {
		return f, invalid("status", "unknown status "+f.Status)
	}

	areas, err := normalizeAreas(f.BusinessAreas)
	if err != nil {
		return f, err
	}
	f.BusinessAreas = areas

	goals, err := normalizeGoals(f.SDGGoals)
	if err != nil {
		return f, err
	}
	f.SDGGoals = goals

	if f.HoursSaved < 0 {
		return f, invalid("hours_saved", "must be >= 0")
	}
	if f.UsersImpacted < 0 {
		return f, invalid("users_impacted", "must be >= 0")
	}
	return f, nil
}

// normalizeAreas de-duplicates tags and sorts them by declaration order.
func normalizeAreas(in []string) ([]string, error) {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		area := strings.ToLower(strings.TrimSpace(raw))
		if area == "" || seen[area] {
			continue
		}
		if models.BusinessAreaIndex(area) < 0 {
			return nil, invalid("business_areas", "unknown business area "+area)
		}
		seen[area] = true
		out = append(out, area)
	}
	sort.Slice(out, func(i, j int) bool {
		return models.BusinessAreaIndex(out[i]) < models.BusinessAreaIndex(out[j])
	})
	return out, nil
}

func normalizeGoals(in []int) ([]int, error) {
	seen := make(map[int]bool, len(in))
	out := make([]int, 0, len(in))
	for _, g := range in {
		if g < 1 || g > 17 {
			return nil, invalid("sdg_goals", "goals must be between 1 and 17")
		}
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	sort.Ints(out)
	return out, nil
}

// checkImages requires each entry to be either a file or a reference.
// distinctImages counts uploads plus distinct resupplied URLs. Each file becomes its own
// object; repeated URLs point at one.
func distinctImages(images []ImageInput) int {
	n := 0
	seen := make(map[string]bool, len(images))
	for _, img := range images {
		if img.File != nil {
			n++
			continue
		}
		u := strings.TrimSpace(img.URL)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		n++
	}
	return n
}

func checkImages(images []ImageInput, allowID bool) error {
	for _, img := range images {
		hasFile := img.File != nil
		hasRef := strings.TrimSpace(img.URL) != "" || (allowID && strings.TrimSpace(img.ID) != "")
		if hasFile == hasRef {
			return invalid("images", "each image needs exactly one of file or existing reference")
		}
		if !allowID && img.ID != "" {
			return invalid("images", "image ids are not accepted on create")
		}
	}
	return nil
}

func applyFields(m *models.SolutionModel, f Fields) {
	m.Title = f.Title
	m.Subtitle = f.Subtitle
	m.Description = f.Description
	m.Status = models.SolutionStatus(f.Status)
	m.SetAreas(f.BusinessAreas)
	m.Problem = f.Problem
	m.Solution = f.Solution
	m.HumanImpact = f.HumanImpact
	m.SustainabilityImpact = f.SustainabilityImpact
	m.SetGoals(f.SDGGoals)
	m.HoursSaved = f.HoursSaved
	m.UsersImpacted = f.UsersImpacted
}
