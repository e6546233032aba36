package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/retailpos/backoffice/internal/models"
)

func (r *GormRepo) CreateStore(ctx context.Context, s *models.Store) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *GormRepo) GetStore(ctx context.Context, id uint) (*models.Store, error) {
	var store models.Store
	if err := r.DB.WithContext(ctx).First(&store, id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *GormRepo) GetStoreByAdminEmail(ctx context.Context, email string) (*models.Store, error) {
	var store models.Store
	if err := r.DB.WithContext(ctx).Where("admin_email = ?", email).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *GormRepo) ListStores(ctx context.Context, limit, offset int) ([]models.Store, error) {
	var stores []models.Store
	if err := r.DB.WithContext(ctx).Order("id ASC").Limit(limit).Offset(offset).Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

func (r *GormRepo) SaveStore(ctx context.Context, s *models.Store) error {
	return r.DB.WithContext(ctx).Save(s).Error
}

func (r *GormRepo) CountStoreEmployees(ctx context.Context, storeID uint) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Employee{}).
		Where("store_id = ?", storeID).
		Count(&count).Error
	return count, err
}

func (r *GormRepo) DeleteStore(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Store{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
