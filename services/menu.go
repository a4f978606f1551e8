package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"food-webapp/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrMenuItemNotFound = errors.New("menu item not found")

// Menu is the catalog the page shows. Category "" or "all" lists everything.
type Menu interface {
	List(ctx context.Context, category string) ([]models.MenuItem, error)
	Get(ctx context.Context, id models.ItemID) (*models.MenuItem, error)
}

type PostgresMenu struct {
	pool *pgxpool.Pool
}

func NewPostgresMenu(pool *pgxpool.Pool) *PostgresMenu {
	return &PostgresMenu{pool: pool}
}

func (m *PostgresMenu) List(ctx context.Context, category string) ([]models.MenuItem, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if category == "" || category == models.CategoryAll {
		rows, err = m.pool.Query(ctx, `
			SELECT id, category, name, price, img FROM menu_items
			ORDER BY category, id`,
		)
	} else {
		rows, err = m.pool.Query(ctx, `
			SELECT id, category, name, price, img FROM menu_items
			WHERE category = $1
			ORDER BY id`,
			category,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		var id int64
		var item models.MenuItem
		if err := rows.Scan(&id, &item.Category, &item.Name, &item.Price, &item.Img); err != nil {
			return nil, err
		}
		item.ID = models.ItemID(strconv.FormatInt(id, 10))
		items = append(items, item)
	}
	return items, rows.Err()
}

func (m *PostgresMenu) Get(ctx context.Context, id models.ItemID) (*models.MenuItem, error) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return nil, ErrMenuItemNotFound
	}
	item := models.MenuItem{ID: id}
	err = m.pool.QueryRow(ctx, `
		SELECT category, name, price, img FROM menu_items WHERE id = $1`,
		n,
	).Scan(&item.Category, &item.Name, &item.Price, &item.Img)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMenuItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// AddMenuItem inserts a dish and returns its id.
func (m *PostgresMenu) AddMenuItem(ctx context.Context, item models.MenuItem) (models.ItemID, error) {
	if err := validateMenuItem(item); err != nil {
		return "", err
	}
	var id int64
	err := m.pool.QueryRow(ctx, `
		INSERT INTO menu_items (category, name, price, img) VALUES ($1, $2, $3, $4)
		RETURNING id`,
		item.Category, item.Name, item.Price, item.Img,
	).Scan(&id)
	return models.ItemID(strconv.FormatInt(id, 10)), err
}

// StaticMenu serves a fixed list, usually read from a JSON file.
type StaticMenu struct {
	items []models.MenuItem
	byID  map[models.ItemID]int
}

func NewStaticMenu(items []models.MenuItem) (*StaticMenu, error) {
	m := &StaticMenu{byID: make(map[models.ItemID]int, len(items))}
	for _, item := range items {
		item.ID = models.ParseItemID(string(item.ID))
		if item.ID == "" {
			return nil, fmt.Errorf("menu item %q has no id", item.Name)
		}
		if err := validateMenuItem(item); err != nil {
			return nil, fmt.Errorf("menu item %s: %w", item.ID, err)
		}
		if _, dup := m.byID[item.ID]; dup {
			return nil, fmt.Errorf("duplicate menu item id %s", item.ID)
		}
		m.byID[item.ID] = len(m.items)
		m.items = append(m.items, item)
	}
	return m, nil
}

// LoadStaticMenu reads a JSON array of menu items.
func LoadStaticMenu(path string) (*StaticMenu, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menu: %w", err)
	}
	var items []models.MenuItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse menu %s: %w", path, err)
	}
	return NewStaticMenu(items)
}

func (m *StaticMenu) List(_ context.Context, category string) ([]models.MenuItem, error) {
	if category == "" || category == models.CategoryAll {
		return append([]models.MenuItem(nil), m.items...), nil
	}
	var out []models.MenuItem
	for _, item := range m.items {
		if item.Category == category {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *StaticMenu) Get(_ context.Context, id models.ItemID) (*models.MenuItem, error) {
	i, ok := m.byID[models.ParseItemID(string(id))]
	if !ok {
		return nil, ErrMenuItemNotFound
	}
	item := m.items[i]
	return &item, nil
}

func validateMenuItem(item models.MenuItem) error {
	if !models.ValidCategory(item.Category) {
		return fmt.Errorf("invalid category: %s", item.Category)
	}
	if item.Name == "" {
		return fmt.Errorf("name is required")
	}
	if item.Price < 0 {
		return fmt.Errorf("price must be >= 0")
	}
	return nil
}
