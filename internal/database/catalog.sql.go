package database

import (
	"context"
)

const listActiveEmployees = `-- name: ListActiveEmployees :many
SELECT id, name, role, phone, email, is_active, hire_date, created_at FROM employees
WHERE is_active = true
ORDER BY name ASC
`

func (q *Queries) ListActiveEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := q.db.Query(ctx, listActiveEmployees)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Employee
	for rows.Next() {
		var i Employee
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Role,
			&i.Phone,
			&i.Email,
			&i.IsActive,
			&i.HireDate,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listInventory = `-- name: ListInventory :many
SELECT id, brand, product_line, model, part_type, quantity, unit_cost, selling_price, low_stock_threshold, supplier, sku, created_at, updated_at FROM inventory
ORDER BY brand ASC, product_line ASC, model ASC
`

func (q *Queries) ListInventory(ctx context.Context) ([]Inventory, error) {
	rows, err := q.db.Query(ctx, listInventory)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Inventory
	for rows.Next() {
		var i Inventory
		if err := rows.Scan(
			&i.ID,
			&i.Brand,
			&i.ProductLine,
			&i.Model,
			&i.PartType,
			&i.Quantity,
			&i.UnitCost,
			&i.SellingPrice,
			&i.LowStockThreshold,
			&i.Supplier,
			&i.Sku,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
