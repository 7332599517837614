package converter

import "time"

// ProductRedisModel — JSON-представление продукта в кэше. Цена хранится строкой без потери точности.
type ProductRedisModel struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Stock       int64     `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
