package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/retailpos/backoffice/internal/models"
)

func (r *GormRepo) CreateCustomer(ctx context.Context, c *models.Customer) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *GormRepo) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	var cust models.Customer
	if err := r.DB.WithContext(ctx).First(&cust, id).Error; err != nil {
		return nil, err
	}
	return &cust, nil
}

func (r *GormRepo) GetCustomerByUserID(ctx context.Context, userID uint) (*models.Customer, error) {
	var cust models.Customer
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&cust).Error; err != nil {
		return nil, err
	}
	return &cust, nil
}

// ListCustomers narrows to rows the creator owns when createdBy is set.
func (r *GormRepo) ListCustomers(ctx context.Context, createdBy string, limit, offset int) ([]models.Customer, error) {
	q := r.DB.WithContext(ctx).Model(&models.Customer{})
	if createdBy != "" {
		q = q.Where("created_by = ?", createdBy)
	}

	var custs []models.Customer
	if err := q.Order("id ASC").Limit(limit).Offset(offset).Find(&custs).Error; err != nil {
		return nil, err
	}
	return custs, nil
}

func (r *GormRepo) SaveCustomer(ctx context.Context, c *models.Customer) error {
	return r.DB.WithContext(ctx).Save(c).Error
}

func (r *GormRepo) DeleteCustomer(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Customer{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
