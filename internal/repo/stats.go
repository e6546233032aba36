package repo

import (
	"context"
	"time"

	"github.com/retailpos/backoffice/internal/models"
)

type StatusCount struct {
	Status models.OrderStatus `json:"status"`
	Count  int64              `json:"count"`
}

type StoreRevenue struct {
	StoreID uint    `json:"store_id"`
	Orders  int64   `json:"orders"`
	Revenue float64 `json:"revenue"`
}

type ProductSales struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
}

func statsRange(from, to *time.Time) (string, []any) {
	where := "1=1"
	var args []any
	if from != nil {
		where += " AND orders.created_at >= ?"
		args = append(args, *from)
	}
	if to != nil {
		where += " AND orders.created_at < ?"
		args = append(args, *to)
	}
	return where, args
}

func (r *GormRepo) CountOrdersByStatus(ctx context.Context, storeID *uint, from, to *time.Time) ([]StatusCount, error) {
	where, args := statsRange(from, to)
	q := r.DB.WithContext(ctx).Model(&models.Order{}).Where(where, args...)
	if storeID != nil {
		q = q.Where("store_id = ?", *storeID)
	}

	var out []StatusCount
	err := q.Select("status, COUNT(*) AS count").
		Group("status").Order("status ASC").
		Scan(&out).Error
	return out, err
}

// RevenueByStore sums totals of completed orders only.
func (r *GormRepo) RevenueByStore(ctx context.Context, storeID *uint, from, to *time.Time) ([]StoreRevenue, error) {
	where, args := statsRange(from, to)
	q := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where(where, args...).
		Where("status = ?", models.OrderCompleted)
	if storeID != nil {
		q = q.Where("store_id = ?", *storeID)
	}

	var out []StoreRevenue
	err := q.Select("store_id, COUNT(*) AS orders, COALESCE(SUM(total), 0) AS revenue").
		Group("store_id").Order("store_id ASC").
		Scan(&out).Error
	return out, err
}

func (r *GormRepo) TopProducts(ctx context.Context, storeID *uint, from, to *time.Time, limit int) ([]ProductSales, error) {
	where, args := statsRange(from, to)
	q := r.DB.WithContext(ctx).Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where(where, args...).
		Where("orders.status <> ? AND orders.status <> ?", models.OrderFailed, models.OrderReturned)
	if storeID != nil {
		q = q.Where("orders.store_id = ?", *storeID)
	}

	var out []ProductSales
	err := q.Select("order_items.product_id, MAX(order_items.name) AS name, SUM(order_items.quantity) AS quantity").
		Group("order_items.product_id").
		Order("quantity DESC").
		Limit(limit).
		Scan(&out).Error
	return out, err
}
