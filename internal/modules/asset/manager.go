package asset

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/microsolutions/showcase/internal/models"
	"github.com/microsolutions/showcase/internal/pkg/metrics"
	"github.com/microsolutions/showcase/internal/pkg/pagination"
	"github.com/microsolutions/showcase/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// File is an upload payload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Asset describes a stored object.
type Asset struct {
	URL         string `json:"url"`
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Transcoded  bool   `json:"transcoded"`
}

// Manager uploads, tracks and removes image assets.
type Manager struct {
	db     *gorm.DB
	store  ObjectStore
	logger *zap.Logger
	now    func() time.Time
}

func NewManager(db *gorm.DB, store ObjectStore, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{db: db, store: store, logger: logger.Named("asset"), now: time.Now}
}

// Upload stores f at dest. Raster images are re-encoded as JPEG and dest gets a .jpg
// extension; when re-encoding fails the original bytes are stored. Storage errors are
// returned.
func (m *Manager) Upload(ctx context.Context, f File, dest string) (*Asset, error) {
	if len(f.Data) == 0 {
		return nil, fmt.Errorf("upload %s: empty file", dest)
	}
	contentType := detectContentType(f.ContentType, f.Data)
	body := f.Data
	key := dest
	transcoded := false

	if shouldTranscode(contentType) {
		out, err := transcodeJPEG(f.Data)
		if err != nil {
			m.logger.Warn("re-encode failed, uploading original",
				zap.String("file", f.Name), zap.String("content_type", contentType), zap.Error(err))
		} else {
			body = out
			contentType = "image/jpeg"
			key = withExt(dest, ".jpg")
			transcoded = true
		}
	}

	if err := m.store.Put(ctx, key, body, contentType); err != nil {
		metrics.ObserveUpload(metrics.UploadFailed)
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}
	if transcoded {
		metrics.ObserveUpload(metrics.UploadTranscoded)
	} else {
		metrics.ObserveUpload(metrics.UploadOriginal)
	}

	a := &Asset{
		URL:         m.store.PublicURL(key),
		Path:        key,
		ContentType: contentType,
		Size:        int64(len(body)),
		Transcoded:  transcoded,
	}
	ref := models.AssetReferenceModel{
		Path:        a.Path,
		URL:         a.URL,
		ContentType: a.ContentType,
		Size:        a.Size,
		Status:      models.AssetPending,
	}
	if err := m.db.WithContext(ctx).Create(&ref).Error; err != nil {
		m.logger.Warn("record asset reference failed", zap.String("path", key), zap.Error(err))
	}
	return a, nil
}

// Remove deletes the object at path unless a solution, image or company row still
// references it. Failures are logged, never returned.
func (m *Manager) Remove(ctx context.Context, path string) {
	m.removeUnused(ctx, strings.TrimSpace(path), "")
}

// RemoveURL deletes the object behind a public URL for rows that carry no stored path.
// URLs issued by the current store map back exactly; anything else falls back to the
// legacy "<folder>/<filename>" suffix.
func (m *Manager) RemoveURL(ctx context.Context, rawURL string) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return
	}
	if key, ok := m.keyFromPublicURL(rawURL); ok {
		m.removeUnused(ctx, key, rawURL)
		return
	}
	key, ok := LegacyKeyFromURL(rawURL)
	if !ok {
		m.logger.Warn("cannot derive storage path from url", zap.String("url", rawURL))
		return
	}
	m.removeUnused(ctx, key, rawURL)
}

// RemoveAll removes each asset, preferring the stored path over the URL.
func (m *Manager) RemoveAll(ctx context.Context, refs ...Ref) {
	for _, r := range refs {
		if r.Path != "" {
			m.removeUnused(ctx, strings.TrimSpace(r.Path), strings.TrimSpace(r.URL))
		} else {
			m.RemoveURL(ctx, r.URL)
		}
	}
}

func (m *Manager) removeUnused(ctx context.Context, path, rawURL string) {
	if path == "" {
		return
	}
	inUse, err := m.inUse(ctx, path, rawURL)
	if err != nil {
		metrics.ObserveRemoval(metrics.ResultError)
		m.logger.Warn("check asset usage failed, keeping object", zap.String("path", path), zap.Error(err))
		return
	}
	if inUse {
		m.logger.Debug("asset still referenced, keeping object", zap.String("path", path))
		return
	}
	if err := m.store.Delete(ctx, path); err != nil {
		metrics.ObserveRemoval(metrics.ResultError)
		m.logger.Warn("remove asset failed", zap.String("path", path), zap.Error(err))
		return
	}
	metrics.ObserveRemoval(metrics.ResultOK)
	if err := m.db.WithContext(ctx).Where("path = ?", path).Delete(&models.AssetReferenceModel{}).Error; err != nil {
		m.logger.Warn("drop asset reference failed", zap.String("path", path), zap.Error(err))
	}
}

// Ref identifies a stored object by path, or by URL for rows without one.
type Ref struct {
	Path string
	URL  string
}

// PathForURL returns the storage path behind a URL issued by the current store, or ""
// for anything else.
func (m *Manager) PathForURL(rawURL string) string {
	key, _ := m.keyFromPublicURL(strings.TrimSpace(rawURL))
	return key
}

func (m *Manager) keyFromPublicURL(rawURL string) (string, bool) {
	prefix := m.store.PublicURL("")
	if prefix == "" || !strings.HasPrefix(rawURL, prefix) {
		return "", false
	}
	key, err := url.PathUnescape(strings.TrimPrefix(rawURL, prefix))
	if err != nil || validateKey(key) != nil {
		return "", false
	}
	return key, true
}

// Attach marks the references for paths as in use by refID.
func (m *Manager) Attach(ctx context.Context, refID string, paths ...string) error {
	keep := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != "" {
			keep = append(keep, p)
		}
	}
	if len(keep) == 0 {
		return nil
	}
	return m.db.WithContext(ctx).Model(&models.AssetReferenceModel{}).
		Where("path IN ?", keep).
		Updates(map[string]any{"status": models.AssetAttached, "ref_id": refID}).Error
}

// CleanupOrphans removes pending references older than olderThan together with their
// objects. References still used by a row are marked attached instead.
func (m *Manager) CleanupOrphans(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := m.now().Add(-olderThan)
	var refs []models.AssetReferenceModel
	if err := m.db.WithContext(ctx).
		Where("status = ? AND created_at <= ?", models.AssetPending, cutoff).
		Find(&refs).Error; err != nil {
		return 0, err
	}

	deleted := 0
	for _, ref := range refs {
		inUse, err := m.inUse(ctx, ref.Path)
		if err != nil {
			return deleted, err
		}
		if inUse {
			if err := m.db.WithContext(ctx).Model(&models.AssetReferenceModel{}).
				Where("id = ?", ref.ID).Update("status", models.AssetAttached).Error; err != nil {
				return deleted, err
			}
			continue
		}
		if err := m.store.Delete(ctx, ref.Path); err != nil {
			m.logger.Warn("delete orphan failed", zap.String("path", ref.Path), zap.Error(err))
			continue
		}
		if err := m.db.WithContext(ctx).Delete(&models.AssetReferenceModel{}, "id = ?", ref.ID).Error; err != nil {
			return deleted, err
		}
		deleted++
	}
	if deleted > 0 {
		m.logger.Info("orphan assets removed", zap.Int("count", deleted))
	}
	return deleted, nil
}

// inUse reports whether any stored row points at path, either directly or through one
// of the URLs the object is served under.
func (m *Manager) inUse(ctx context.Context, path string, urls ...string) (bool, error) {
	urls = append(urls, m.store.PublicURL(path))
	candidates := make([]string, 0, len(urls))
	for _, u := range urls {
		if u != "" {
			candidates = append(candidates, u)
		}
	}
	checks := []struct {
		model     any
		pathCol   string
		urlColumn string
	}{
		{&models.SolutionImage{}, "path", "url"},
		{&models.SolutionModel{}, "icon_path", "icon_url"},
		{&models.CompanyInfoModel{}, "logo_path", "logo_url"},
	}
	for _, c := range checks {
		var n int64
		if err := m.db.WithContext(ctx).Model(c.model).
			Where(c.pathCol+" = ? OR "+c.urlColumn+" IN ?", path, candidates).
			Count(&n).Error; err != nil {
			return false, err
		}
		if n > 0 {
			return true, nil
		}
	}
	return false, nil
}

// ListOrphans pages through pending references, newest first.
func (m *Manager) ListOrphans(ctx context.Context, q pagination.Query) ([]models.AssetReferenceModel, response.Pagination, error) {
	tx := m.db.Model(&models.AssetReferenceModel{}).
		Where("status = ?", models.AssetPending).
		Order("created_at DESC")
	var refs []models.AssetReferenceModel
	pag, err := pagination.Paginate(ctx, tx, q, &refs)
	if err != nil {
		return nil, response.Pagination{}, err
	}
	return refs, pag, nil
}
