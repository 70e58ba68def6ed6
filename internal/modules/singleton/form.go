// Package singleton implements the admin forms backed by single-row tables
// (company profile, contact sheet, headline statistics).
package singleton

import (
	"context"
	"errors"
	"fmt"

	"github.com/microsolutions/showcase/internal/pkg/events"
	"github.com/microsolutions/showcase/internal/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrValidation = errors.New("validation failed")
)

// Record is the pointer constraint for a singleton model.
type Record[E any] interface {
	*E
	Identity() string
	ClearIdentity()
}

// Hooks customise a form. Every hook is optional.
type Hooks[E any] struct {
	// Validate rejects fields before anything is written. Errors are wrapped with ErrValidation.
	Validate func(*E) error
	// Prepare adjusts fields before they are written.
	Prepare func(ctx context.Context, next *E)
	// Committed runs after a successful write. prev is nil for inserts.
	Committed func(ctx context.Context, prev, next *E)
}

// Form loads and saves one logical row. There is no unique constraint: the row in
// use is the oldest one, and two saves without an id both insert.
type Form[E any, P Record[E]] struct {
	db     *gorm.DB
	name   string
	event  string
	events events.Publisher
	hooks  Hooks[E]
	logger *zap.Logger
}

func NewForm[E any, P Record[E]](db *gorm.DB, name, event string, pub events.Publisher, logger *zap.Logger) *Form[E, P] {
	if pub == nil {
		pub = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Form[E, P]{db: db, name: name, event: event, events: pub, logger: logger.Named(name)}
}

// WithHooks replaces the form hooks and returns the form.
func (f *Form[E, P]) WithHooks(h Hooks[E]) *Form[E, P] {
	f.hooks = h
	return f
}

func (f *Form[E, P]) Name() string { return f.name }

// Load returns the oldest row, or nil when the table is empty.
func (f *Form[E, P]) Load(ctx context.Context) (*E, error) {
	var row E
	err := f.db.WithContext(ctx).Order("created_at ASC").Order("id ASC").Take(P(&row)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Save inserts fields when id is empty, otherwise replaces every column of row id.
func (f *Form[E, P]) Save(ctx context.Context, id string, fields E) (*E, error) {
	if f.hooks.Validate != nil {
		if err := f.hooks.Validate(&fields); err != nil {
			metrics.ObserveRepository(f.name+"_save", metrics.ResultInvalid)
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	if f.hooks.Prepare != nil {
		f.hooks.Prepare(ctx, &fields)
	}

	if id == "" {
		P(&fields).ClearIdentity()
		if err := f.db.WithContext(ctx).Create(P(&fields)).Error; err != nil {
			metrics.ObserveRepository(f.name+"_save", metrics.ResultError)
			return nil, fmt.Errorf("insert %s: %w", f.name, err)
		}
		f.committed(ctx, nil, &fields)
		return &fields, nil
	}

	var prev, next E
	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Take(P(&prev), "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Model(P(new(E))).Where("id = ?", id).
			Select("*").Omit("id", "created_at").
			Updates(P(&fields)).Error; err != nil {
			return fmt.Errorf("update %s: %w", f.name, err)
		}
		return tx.Take(P(&next), "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.ObserveRepository(f.name+"_save", metrics.ResultNotFound)
		} else {
			metrics.ObserveRepository(f.name+"_save", metrics.ResultError)
		}
		return nil, err
	}
	f.committed(ctx, &prev, &next)
	return &next, nil
}

func (f *Form[E, P]) committed(ctx context.Context, prev, next *E) {
	if f.hooks.Committed != nil {
		f.hooks.Committed(ctx, prev, next)
	}
	f.events.Publish(ctx, f.event, next)
	metrics.ObserveRepository(f.name+"_save", metrics.ResultOK)
	f.logger.Debug("saved", zap.String("id", P(next).Identity()), zap.Bool("insert", prev == nil))
}
