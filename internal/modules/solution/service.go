package solution

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/microsolutions/showcase/internal/models"
	"github.com/microsolutions/showcase/internal/modules/asset"
	"github.com/microsolutions/showcase/internal/pkg/events"
	"github.com/microsolutions/showcase/internal/pkg/metrics"
	"github.com/microsolutions/showcase/internal/pkg/slug"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	imageFolder = "solutions"
	iconFolder  = "icons"
)

// Service is the solution repository. Parent and child rows are written in one
// transaction; object uploads happen before it and are compensated on failure.
type Service struct {
	db     *gorm.DB
	assets *asset.Manager
	events events.Publisher
	logger *zap.Logger
}

func NewService(db *gorm.DB, assets *asset.Manager, pub events.Publisher, logger *zap.Logger) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, assets: assets, events: pub, logger: logger.Named("solution")}
}

// List returns every solution newest first. Store errors are logged and yield an
// empty list.
func (s *Service) List(ctx context.Context) []models.SolutionModel {
	items, err := s.ListContext(ctx)
	if err != nil {
		s.logger.Warn("list solutions failed", zap.Error(err))
		return []models.SolutionModel{}
	}
	return items
}

// ListContext is List with the store error surfaced.
func (s *Service) ListContext(ctx context.Context) ([]models.SolutionModel, error) {
	var items []models.SolutionModel
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&items).Error; err != nil {
		metrics.ObserveRepository("list", metrics.ResultError)
		return nil, err
	}
	if len(items) == 0 {
		metrics.ObserveRepository("list", metrics.ResultOK)
		return []models.SolutionModel{}, nil
	}

	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	var images []models.SolutionImage
	if err := s.imageOrder(s.db.WithContext(ctx)).Where("solution_id IN ?", ids).Find(&images).Error; err != nil {
		metrics.ObserveRepository("list", metrics.ResultError)
		return nil, err
	}
	byParent := make(map[string][]models.SolutionImage, len(items))
	for _, img := range images {
		byParent[img.SolutionID] = append(byParent[img.SolutionID], img)
	}
	for i := range items {
		items[i].Images = byParent[items[i].ID]
		if items[i].Images == nil {
			items[i].Images = []models.SolutionImage{}
		}
	}
	metrics.ObserveRepository("list", metrics.ResultOK)
	return items, nil
}

// Get returns the solution or nil when it does not exist.
func (s *Service) Get(ctx context.Context, id string) (*models.SolutionModel, error) {
	var sol models.SolutionModel
	if err := s.db.WithContext(ctx).First(&sol, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	images, err := s.images(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	sol.Images = images
	return &sol, nil
}

func (s *Service) imageOrder(tx *gorm.DB) *gorm.DB {
	return tx.Order("position ASC").Order("created_at ASC")
}

func (s *Service) images(tx *gorm.DB, solutionID string) ([]models.SolutionImage, error) {
	images := []models.SolutionImage{}
	err := s.imageOrder(tx).Where("solution_id = ?", solutionID).Find(&images).Error
	return images, err
}

// Create validates, uploads every file, then inserts the solution and its image rows in
// one transaction. Uploaded objects are removed when any step fails.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.SolutionModel, error) {
	fields, err := normalize(in.Fields)
	if err != nil {
		metrics.ObserveRepository("create", metrics.ResultInvalid)
		return nil, err
	}
	if err := checkImages(in.Images, false); err != nil {
		metrics.ObserveRepository("create", metrics.ResultInvalid)
		return nil, err
	}
	if distinctImages(in.Images) < MinCreateImages {
		metrics.ObserveRepository("create", metrics.ResultInvalid)
		return nil, invalid("images", fmt.Sprintf("at least %d images are required", MinCreateImages))
	}

	base := in.ID
	if strings.TrimSpace(base) == "" {
		base = fields.Title
	}
	id, err := s.uniqueID(ctx, slug.Make(base, "solution"))
	if err != nil {
		return nil, err
	}

	uploaded, icon, err := s.uploadAll(ctx, id, in.Images, in.Icon)
	if err != nil {
		metrics.ObserveRepository("create", metrics.ResultError)
		return nil, err
	}

	sol := models.SolutionModel{Base: models.Base{ID: id}}
	applyFields(&sol, fields)
	if icon != nil {
		sol.IconURL, sol.IconPath = icon.URL, icon.Path
	}
	rows := make([]models.SolutionImage, len(in.Images))
	for i, img := range in.Images {
		rows[i] = models.SolutionImage{SolutionID: id, Caption: strings.TrimSpace(img.Caption), Position: i}
		if a := uploaded[i]; a != nil {
			rows[i].URL, rows[i].Path = a.URL, a.Path
		} else {
			rows[i].URL = strings.TrimSpace(img.URL)
			rows[i].Path = s.assets.PathForURL(rows[i].URL)
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sol).Error; err != nil {
			return fmt.Errorf("insert solution: %w", err)
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("insert images: %w", err)
		}
		return nil
	})
	if err != nil {
		s.compensate(ctx, uploaded, icon)
		metrics.ObserveRepository("create", metrics.ResultError)
		return nil, err
	}

	s.attach(ctx, id, uploaded, icon)
	sol.Images = rows
	s.events.Publish(ctx, events.SolutionsUpdate, changePayload("create", id))
	metrics.ObserveRepository("create", metrics.ResultOK)
	return &sol, nil
}

// Update replaces the scalar fields. A non-nil image list is reconciled against the
// stored rows: kept images keep their identity, new files are uploaded first, and one
// transaction deletes removed rows, inserts added ones and rewrites positions. Objects
// of removed images are deleted after commit. Returns nil when id does not exist.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*models.SolutionModel, error) {
	fields, err := normalize(in.Fields)
	if err != nil {
		metrics.ObserveRepository("update", metrics.ResultInvalid)
		return nil, err
	}
	if err := checkImages(in.Images, true); err != nil {
		metrics.ObserveRepository("update", metrics.ResultInvalid)
		return nil, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		metrics.ObserveRepository("update", metrics.ResultError)
		return nil, err
	}
	if current == nil {
		metrics.ObserveRepository("update", metrics.ResultNotFound)
		return nil, nil
	}

	var plan *imagePlan
	if in.Images != nil {
		if plan, err = planImages(current.Images, in.Images); err != nil {
			metrics.ObserveRepository("update", metrics.ResultInvalid)
			return nil, err
		}
	}

	var uploaded []*asset.Asset
	var icon *asset.Asset
	if plan != nil {
		uploaded, icon, err = s.uploadAll(ctx, id, in.Images, in.Icon)
	} else if in.Icon != nil {
		_, icon, err = s.uploadAll(ctx, id, nil, in.Icon)
	}
	if err != nil {
		metrics.ObserveRepository("update", metrics.ResultError)
		return nil, err
	}

	updates := map[string]any{
		"title":                 fields.Title,
		"subtitle":              fields.Subtitle,
		"description":           fields.Description,
		"status":                fields.Status,
		"problem":               fields.Problem,
		"solution":              fields.Solution,
		"human_impact":          fields.HumanImpact,
		"sustainability_impact": fields.SustainabilityImpact,
		"hours_saved":           fields.HoursSaved,
		"users_impacted":        fields.UsersImpacted,
	}
	scratch := models.SolutionModel{}
	applyFields(&scratch, fields)
	updates["business_areas"] = scratch.BusinessAreas
	updates["sdg_goals"] = scratch.SDGGoals

	var staleIcon *asset.Ref
	switch {
	case icon != nil:
		updates["icon_url"], updates["icon_path"] = icon.URL, icon.Path
	case in.RemoveIcon:
		updates["icon_url"], updates["icon_path"] = "", ""
	}
	if (icon != nil || in.RemoveIcon) && (current.IconURL != "" || current.IconPath != "") {
		staleIcon = &asset.Ref{Path: current.IconPath, URL: current.IconURL}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(current).Updates(updates).Error; err != nil {
			return fmt.Errorf("update solution: %w", err)
		}
		if plan == nil {
			return nil
		}
		return plan.apply(tx, id, in.Images, uploaded, s.assets.PathForURL)
	})
	if err != nil {
		s.compensate(ctx, uploaded, icon)
		metrics.ObserveRepository("update", metrics.ResultError)
		return nil, err
	}

	var stale []asset.Ref
	if plan != nil {
		stale = append(stale, plan.removedRefs()...)
	}
	if staleIcon != nil {
		stale = append(stale, *staleIcon)
	}
	s.assets.RemoveAll(ctx, stale...)
	s.attach(ctx, id, uploaded, icon)
	s.events.Publish(ctx, events.SolutionsUpdate, changePayload("update", id))
	metrics.ObserveRepository("update", metrics.ResultOK)

	return s.Get(ctx, id)
}

// Delete removes the image rows and the solution row in one transaction, then deletes
// the stored objects best-effort.
func (s *Service) Delete(ctx context.Context, id string) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		metrics.ObserveRepository("delete", metrics.ResultError)
		return err
	}
	if current == nil {
		metrics.ObserveRepository("delete", metrics.ResultNotFound)
		return ErrNotFound
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("solution_id = ?", id).Delete(&models.SolutionImage{}).Error; err != nil {
			return fmt.Errorf("delete images: %w", err)
		}
		res := tx.Delete(&models.SolutionModel{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("delete solution: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		metrics.ObserveRepository("delete", metrics.ResultError)
		return err
	}

	refs := make([]asset.Ref, 0, len(current.Images)+1)
	for _, img := range current.Images {
		refs = append(refs, asset.Ref{Path: img.Path, URL: img.URL})
	}
	if current.IconURL != "" || current.IconPath != "" {
		refs = append(refs, asset.Ref{Path: current.IconPath, URL: current.IconURL})
	}
	s.assets.RemoveAll(ctx, refs...)
	s.events.Publish(ctx, events.SolutionsUpdate, changePayload("delete", id))
	metrics.ObserveRepository("delete", metrics.ResultOK)
	return nil
}

// InsertBatch inserts solutions without images in one transaction, giving each a fresh
// id derived from its title.
func (s *Service) InsertBatch(ctx context.Context, items []models.SolutionModel) ([]string, error) {
	if len(items) == 0 {
		return []string{}, nil
	}
	taken := make(map[string]bool, len(items))
	ids := make([]string, len(items))
	for i := range items {
		base := slug.Make(items[i].Title, "solution")
		id, err := slug.Unique(base, func(candidate string) (bool, error) {
			if taken[candidate] {
				return true, nil
			}
			return s.exists(ctx, candidate)
		})
		if err != nil {
			return nil, err
		}
		taken[id] = true
		ids[i] = id
		items[i].ID = id
		items[i].Images = nil
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&items).Error
	}); err != nil {
		metrics.ObserveRepository("import", metrics.ResultError)
		return nil, err
	}
	s.events.Publish(ctx, events.SolutionsUpdate, map[string]any{"action": "import", "ids": ids})
	metrics.ObserveRepository("import", metrics.ResultOK)
	return ids, nil
}

func (s *Service) exists(ctx context.Context, id string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.SolutionModel{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (s *Service) uniqueID(ctx context.Context, base string) (string, error) {
	return slug.Unique(base, func(candidate string) (bool, error) {
		return s.exists(ctx, candidate)
	})
}

// uploadAll uploads every new image file and the icon concurrently. The returned slice
// is indexed like images. On failure, anything already uploaded is removed.
func (s *Service) uploadAll(ctx context.Context, id string, images []ImageInput, icon *asset.File) ([]*asset.Asset, *asset.Asset, error) {
	uploaded := make([]*asset.Asset, len(images))
	var iconAsset *asset.Asset

	g, gctx := errgroup.WithContext(ctx)
	for i, img := range images {
		if img.File == nil {
			continue
		}
		i, f := i, *img.File
		g.Go(func() error {
			a, err := s.assets.Upload(gctx, f, asset.IndexedKey(imageFolder+"/"+id, i, f.Name))
			if err != nil {
				return fmt.Errorf("image %d: %w", i, err)
			}
			uploaded[i] = a
			return nil
		})
	}
	if icon != nil {
		f := *icon
		g.Go(func() error {
			a, err := s.assets.Upload(gctx, f, asset.ObjectKey(iconFolder, id, f.Name))
			if err != nil {
				return fmt.Errorf("icon: %w", err)
			}
			iconAsset = a
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.compensate(ctx, uploaded, iconAsset)
		return nil, nil, err
	}
	return uploaded, iconAsset, nil
}

// compensate removes objects uploaded by a write that did not commit.
func (s *Service) compensate(ctx context.Context, uploaded []*asset.Asset, icon *asset.Asset) {
	refs := make([]asset.Ref, 0, len(uploaded)+1)
	for _, a := range uploaded {
		if a != nil {
			refs = append(refs, asset.Ref{Path: a.Path})
		}
	}
	if icon != nil {
		refs = append(refs, asset.Ref{Path: icon.Path})
	}
	if len(refs) > 0 {
		s.logger.Warn("rolling back uploaded assets", zap.Int("count", len(refs)))
		s.assets.RemoveAll(context.WithoutCancel(ctx), refs...)
	}
}

func (s *Service) attach(ctx context.Context, id string, uploaded []*asset.Asset, icon *asset.Asset) {
	paths := make([]string, 0, len(uploaded)+1)
	for _, a := range uploaded {
		if a != nil {
			paths = append(paths, a.Path)
		}
	}
	if icon != nil {
		paths = append(paths, icon.Path)
	}
	if err := s.assets.Attach(ctx, id, paths...); err != nil {
		s.logger.Warn("attach assets failed", zap.String("solution", id), zap.Error(err))
	}
}

func changePayload(action, id string) map[string]any {
	return map[string]any{"action": action, "id": id}
}
