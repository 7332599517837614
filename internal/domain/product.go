package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimestampPrecision — точность, с которой хранятся created_at/updated_at во всех хранилищах.
const TimestampPrecision = time.Microsecond

// Product описывает продукт
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal // Точное десятичное значение, без float64
	Stock       int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewProduct создаёт продукт; оба timestamp'а получают одно и то же значение now.
func NewProduct(id, name, description string, price decimal.Decimal, stock int64, now time.Time) *Product {
	return &Product{
		ID:          id,
		Name:        name,
		Description: description,
		Price:       price,
		Stock:       stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ProductPatch описывает частичное обновление. nil означает «поле не передано».
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int64
	UpdatedAt   time.Time
}

// Apply применяет patch к копии продукта.
func (p Product) Apply(patch *ProductPatch) Product {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	p.UpdatedAt = patch.UpdatedAt
	return p
}

// NormalizeTime приводит время к UTC и точности хранилища.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(TimestampPrecision)
}
