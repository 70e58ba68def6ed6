package solution

import (
	"fmt"
	"strings"

	"github.com/microsolutions/showcase/internal/models"
	"github.com/microsolutions/showcase/internal/modules/asset"
	"gorm.io/gorm"
)

// imagePlan is the diff between the stored images and a submitted image list.
type imagePlan struct {
	// keep maps a submitted index to the stored image it refers to.
	keep    map[int]string
	removed []models.SolutionImage
}

func planImages(existing []models.SolutionImage, in []ImageInput) (*imagePlan, error) {
	byID := make(map[string]models.SolutionImage, len(existing))
	byURL := make(map[string]models.SolutionImage, len(existing))
	for _, e := range existing {
		byID[e.ID] = e
		byURL[e.URL] = e
	}

	p := &imagePlan{keep: make(map[int]string)}
	used := make(map[string]bool, len(existing))
	for i, img := range in {
		if img.File != nil {
			continue
		}
		var match models.SolutionImage
		var ok bool
		if id := strings.TrimSpace(img.ID); id != "" {
			if match, ok = byID[id]; !ok {
				return nil, invalid("images", "unknown image "+id)
			}
		} else {
			match, ok = byURL[strings.TrimSpace(img.URL)]
		}
		if !ok {
			continue
		}
		if used[match.ID] {
			return nil, invalid("images", fmt.Sprintf("image %s listed twice", match.ID))
		}
		used[match.ID] = true
		p.keep[i] = match.ID
	}
	for _, e := range existing {
		if !used[e.ID] {
			p.removed = append(p.removed, e)
		}
	}
	return p, nil
}

// apply writes the plan inside tx. Positions follow the submitted order; resupplied
// URLs get the storage path pathFor resolves for them.
func (p *imagePlan) apply(tx *gorm.DB, solutionID string, in []ImageInput, uploaded []*asset.Asset, pathFor func(string) string) error {
	if len(p.removed) > 0 {
		ids := make([]string, len(p.removed))
		for i, r := range p.removed {
			ids[i] = r.ID
		}
		if err := tx.Where("solution_id = ? AND id IN ?", solutionID, ids).Delete(&models.SolutionImage{}).Error; err != nil {
			return fmt.Errorf("delete removed images: %w", err)
		}
	}

	var added []models.SolutionImage
	for i, img := range in {
		caption := strings.TrimSpace(img.Caption)
		if id, ok := p.keep[i]; ok {
			if err := tx.Model(&models.SolutionImage{}).Where("id = ?", id).
				Updates(map[string]any{"position": i, "caption": caption}).Error; err != nil {
				return fmt.Errorf("reorder image %s: %w", id, err)
			}
			continue
		}
		row := models.SolutionImage{SolutionID: solutionID, Position: i, Caption: caption}
		if a := uploaded[i]; a != nil {
			row.URL, row.Path = a.URL, a.Path
		} else {
			row.URL = strings.TrimSpace(img.URL)
			row.Path = pathFor(row.URL)
		}
		added = append(added, row)
	}
	if len(added) > 0 {
		if err := tx.Create(&added).Error; err != nil {
			return fmt.Errorf("insert images: %w", err)
		}
	}
	return nil
}

func (p *imagePlan) removedRefs() []asset.Ref {
	refs := make([]asset.Ref, len(p.removed))
	for i, r := range p.removed {
		refs[i] = asset.Ref{Path: r.Path, URL: r.URL}
	}
	return refs
}
