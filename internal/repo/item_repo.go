package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/offerslab/offers-api/internal/model"
)

// ItemRepo defines the interface for the single-table item store.
type ItemRepo interface {
	// Put inserts or replaces an item by id.
	Put(ctx context.Context, item model.Item) error
	Get(ctx context.Context, itemID string) (model.Item, error)
}

// ErrItemNotFound is returned when no item matches the id.
var ErrItemNotFound = errors.New("item not found")

type itemRepo struct {
	db *sql.DB
}

// NewItemRepo creates a new ItemRepo instance.
func NewItemRepo(db *sql.DB) ItemRepo {
	return &itemRepo{db: db}
}

func (r *itemRepo) Put(ctx context.Context, item model.Item) error {
	query := `
		INSERT INTO items (item_id, name, price)
		VALUES ($1, $2, $3)
		ON CONFLICT (item_id) DO UPDATE
		SET name = EXCLUDED.name, price = EXCLUDED.price
	`
	if _, err := r.db.ExecContext(ctx, query, item.ItemID, item.Name, item.Price); err != nil {
		return fmt.Errorf("failed to store item: %w", err)
	}
	return nil
}

func (r *itemRepo) Get(ctx context.Context, itemID string) (model.Item, error) {
	query := `
		SELECT item_id, name, price
		FROM items
		WHERE item_id = $1
	`
	var item model.Item
	err := r.db.QueryRowContext(ctx, query, itemID).Scan(&item.ItemID, &item.Name, &item.Price)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Item{}, ErrItemNotFound
		}
		return model.Item{}, fmt.Errorf("failed to query item: %w", err)
	}
	return item, nil
}
