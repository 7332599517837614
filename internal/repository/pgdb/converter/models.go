package converter

import "time"

// ProductModel представляет запись таблицы products в PostgreSQL.
// Price читается как text (price::text), чтобы не терять точность NUMERIC.
type ProductModel struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Price       string    `db:"price"`
	Stock       int64     `db:"stock"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}
