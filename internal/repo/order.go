package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/retailpos/backoffice/internal/models"
)

// CreateOrder persists the order with its items and deducts stock for every
// item in one transaction. Any failed deduction rolls the whole order back.
func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range order.Items {
			if err := deductStock(tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return tx.Create(order).Error
	})
}

func (r *GormRepo) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items").Preload("Store").Preload("Customer").
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

type OrderFilter struct {
	StoreID    *uint
	CustomerID *uint
	Status     *models.OrderStatus
	CreatedBy  string
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

func (r *GormRepo) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{})
	if f.StoreID != nil {
		q = q.Where("store_id = ?", *f.StoreID)
	}
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.CreatedBy != "" {
		q = q.Where("created_by = ?", f.CreatedBy)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	var orders []models.Order
	err := q.Preload("Items").Order("created_at DESC").
		Limit(f.Limit).Offset(f.Offset).Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus writes the new status and, when restock is set, returns
// every item's quantity to product stock in the same transaction.
func (r *GormRepo) UpdateOrderStatus(ctx context.Context, order *models.Order, newStatus models.OrderStatus, restock bool, updatedBy string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, order.Status).
			Updates(map[string]any{
				"status":     newStatus,
				"updated_by": updatedBy,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Status moved under us; the caller retries against fresh state.
			return ErrStaleStatus
		}

		if restock {
			for _, item := range order.Items {
				if err := restoreStock(tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
