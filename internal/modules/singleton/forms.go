package singleton

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/microsolutions/showcase/internal/models"
	"github.com/microsolutions/showcase/internal/modules/asset"
	"github.com/microsolutions/showcase/internal/pkg/events"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type (
	CompanyForm    = Form[models.CompanyInfoModel, *models.CompanyInfoModel]
	ContactsForm   = Form[models.ContactInfoModel, *models.ContactInfoModel]
	StatisticsForm = Form[models.StatisticsModel, *models.StatisticsModel]
)

// NewCompanyForm builds the company form. A replaced logo is removed from storage once
// the new one is saved.
func NewCompanyForm(db *gorm.DB, assets *asset.Manager, pub events.Publisher, logger *zap.Logger) *CompanyForm {
	if logger == nil {
		logger = zap.NewNop()
	}
	return NewForm[models.CompanyInfoModel](db, "company", events.CompanyInfoUpdate, pub, logger).
		WithHooks(Hooks[models.CompanyInfoModel]{
			Validate: validateCompany,
			Prepare: func(_ context.Context, next *models.CompanyInfoModel) {
				next.Name = strings.TrimSpace(next.Name)
				next.LogoURL = strings.TrimSpace(next.LogoURL)
				next.LogoPath = ""
				if assets != nil && next.LogoURL != "" {
					next.LogoPath = assets.PathForURL(next.LogoURL)
				}
			},
			Committed: func(ctx context.Context, prev, next *models.CompanyInfoModel) {
				if assets == nil {
					return
				}
				if prev != nil && prev.LogoURL != "" && prev.LogoURL != next.LogoURL {
					assets.RemoveAll(ctx, asset.Ref{Path: prev.LogoPath, URL: prev.LogoURL})
				}
				if err := assets.Attach(ctx, next.ID, next.LogoPath); err != nil {
					logger.Warn("attach logo failed", zap.Error(err))
				}
			},
		})
}

func validateCompany(c *models.CompanyInfoModel) error {
	if c.FoundedYear < 0 || c.FoundedYear > time.Now().Year()+1 {
		return errors.New("founded_year is out of range")
	}
	return nil
}

func NewContactsForm(db *gorm.DB, pub events.Publisher, logger *zap.Logger) *ContactsForm {
	return NewForm[models.ContactInfoModel](db, "contacts", events.ContactInfoUpdate, pub, logger).
		WithHooks(Hooks[models.ContactInfoModel]{
			Prepare: func(_ context.Context, next *models.ContactInfoModel) {
				next.Email = strings.TrimSpace(next.Email)
			},
		})
}

func NewStatisticsForm(db *gorm.DB, pub events.Publisher, logger *zap.Logger) *StatisticsForm {
	return NewForm[models.StatisticsModel](db, "statistics", events.StatisticsUpdate, pub, logger).
		WithHooks(Hooks[models.StatisticsModel]{Validate: validateStatistics})
}

func validateStatistics(s *models.StatisticsModel) error {
	for name, v := range map[string]int64{
		"solutions_delivered": s.SolutionsDelivered,
		"hours_saved":         s.HoursSaved,
		"users_impacted":      s.UsersImpacted,
		"partners":            s.Partners,
		"countries":           s.Countries,
	} {
		if v < 0 {
			return errors.New(name + " must be >= 0")
		}
	}
	return nil
}
