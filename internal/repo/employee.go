package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/retailpos/backoffice/internal/models"
)

func (r *GormRepo) GetEmployee(ctx context.Context, id uint) (*models.Employee, error) {
	var emp models.Employee
	err := r.DB.WithContext(ctx).Preload("User").Preload("Store").First(&emp, id).Error
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *GormRepo) GetEmployeeByUserID(ctx context.Context, userID uint) (*models.Employee, error) {
	var emp models.Employee
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&emp).Error
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

// ListEmployees narrows to one store when storeID is non-nil.
func (r *GormRepo) ListEmployees(ctx context.Context, storeID *uint, limit, offset int) ([]models.Employee, error) {
	q := r.DB.WithContext(ctx).Model(&models.Employee{}).Preload("User").Preload("Store")
	if storeID != nil {
		q = q.Where("store_id = ?", *storeID)
	}

	var emps []models.Employee
	if err := q.Order("id ASC").Limit(limit).Offset(offset).Find(&emps).Error; err != nil {
		return nil, err
	}
	return emps, nil
}

func (r *GormRepo) SaveEmployee(ctx context.Context, e *models.Employee) error {
	return r.DB.WithContext(ctx).Save(e).Error
}

func (r *GormRepo) DeleteEmployee(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Employee{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
