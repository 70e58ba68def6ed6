package app

import (
	"context"
	"fmt"

	"github.com/microsolutions/showcase/internal/config"
	"github.com/microsolutions/showcase/internal/modules/adminuser"
	"github.com/microsolutions/showcase/internal/modules/asset"
	"github.com/microsolutions/showcase/internal/modules/localcache"
	"github.com/microsolutions/showcase/internal/modules/public"
	"github.com/microsolutions/showcase/internal/modules/singleton"
	"github.com/microsolutions/showcase/internal/modules/solution"
	"github.com/microsolutions/showcase/internal/modules/transfer"
	"github.com/microsolutions/showcase/internal/pkg/events"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services is the domain layer shared by the HTTP server and the CLI.
type Services struct {
	Store      asset.ObjectStore
	Assets     *asset.Manager
	Solutions  *solution.Service
	Company    *singleton.CompanyForm
	Contacts   *singleton.ContactsForm
	Statistics *singleton.StatisticsForm
	Users      *adminuser.Service
	Transfer   *transfer.Service
	Cache      *localcache.Store
	Public     *public.Service
}

// NewServices builds the domain services over db. Writes are announced through pub.
func NewServices(ctx context.Context, cfg *config.AppConfig, db *gorm.DB, pub events.Publisher, logger *zap.Logger) (*Services, error) {
	if pub == nil {
		pub = events.Nop{}
	}
	store, err := asset.NewStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("object store: %w", err)
	}
	return newServices(cfg, db, store, pub, logger), nil
}

func newServices(cfg *config.AppConfig, db *gorm.DB, store asset.ObjectStore, pub events.Publisher, logger *zap.Logger) *Services {
	assets := asset.NewManager(db, store, logger)
	s := &Services{
		Store:      store,
		Assets:     assets,
		Solutions:  solution.NewService(db, assets, pub, logger),
		Company:    singleton.NewCompanyForm(db, assets, pub, logger),
		Contacts:   singleton.NewContactsForm(db, pub, logger),
		Statistics: singleton.NewStatisticsForm(db, pub, logger),
		Users:      adminuser.NewService(db, pub),
		Cache:      localcache.New(cfg.CacheFilePath(), logger),
	}
	s.Transfer = transfer.NewService(s.Solutions, s.Company, s.Contacts, s.Statistics, logger)
	s.Public = public.NewService(s.Solutions, s.Company, s.Contacts, s.Statistics, s.Cache, logger)
	return s
}
