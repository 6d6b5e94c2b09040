package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	feedomain "github.com/oakline/closedesk/internal/feeschedule/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) feedomain.Repository {
	return &repository{db: db}
}

func (r *repository) FindByKey(ctx context.Context, key string) (*feedomain.FeeSchedule, error) {
	var fee feedomain.FeeSchedule
	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&fee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &fee, nil
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*feedomain.FeeSchedule, error) {
	var fee feedomain.FeeSchedule
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&fee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &fee, nil
}

func (r *repository) List(ctx context.Context, filter feedomain.ListRequest) ([]feedomain.FeeSchedule, error) {
	var items []feedomain.FeeSchedule
	stmt := r.db.WithContext(ctx).Model(&feedomain.FeeSchedule{})

	if filter.Key != "" {
		stmt = stmt.Where("key = ?", filter.Key)
	}
	if filter.IsEnabled != nil {
		stmt = stmt.Where("is_enabled = ?", *filter.IsEnabled)
	}

	err := stmt.Order("key ASC").Find(&items).Error
	return items, err
}

func (r *repository) Create(ctx context.Context, fee *feedomain.FeeSchedule) error {
	return r.db.WithContext(ctx).Create(fee).Error
}

func (r *repository) Update(ctx context.Context, fee *feedomain.FeeSchedule) error {
	return r.db.WithContext(ctx).Save(fee).Error
}
