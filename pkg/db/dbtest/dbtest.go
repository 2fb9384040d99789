// Package dbtest opens throwaway SQLite databases carrying the storefront
// schema for repository and service tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// schema mirrors the Postgres migrations closely enough for SQLite. Arrays
// and vectors are stored as their text encodings.
var schema = []string{
	`CREATE TABLE users (
		id uuid PRIMARY KEY,
		full_name text NOT NULL,
		email text NOT NULL UNIQUE,
		phone_number text,
		address text,
		role text NOT NULL DEFAULT 'user',
		password_hash text NOT NULL,
		is_active boolean NOT NULL DEFAULT true,
		last_login_at datetime,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE categories (
		id uuid PRIMARY KEY,
		name text NOT NULL UNIQUE,
		description text,
		created_at datetime
	)`,
	`CREATE TABLE products (
		id uuid PRIMARY KEY,
		category_id uuid REFERENCES categories(id),
		name text NOT NULL,
		brand text NOT NULL DEFAULT '',
		description text,
		price numeric NOT NULL,
		image_url text,
		features text,
		tags text,
		stock_quantity integer NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE carts (
		id uuid PRIMARY KEY,
		user_id uuid NOT NULL UNIQUE,
		created_at datetime,
		updated_at datetime
	)`,
	`CREATE TABLE cart_items (
		id uuid PRIMARY KEY,
		cart_id uuid NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
		product_id uuid NOT NULL REFERENCES products(id),
		quantity integer NOT NULL CHECK (quantity > 0),
		created_at datetime,
		updated_at datetime,
		UNIQUE (cart_id, product_id)
	)`,
	`CREATE TABLE wishlists (
		id uuid PRIMARY KEY,
		user_id uuid NOT NULL UNIQUE,
		created_at datetime
	)`,
	`CREATE TABLE wishlist_items (
		id uuid PRIMARY KEY,
		wishlist_id uuid NOT NULL REFERENCES wishlists(id) ON DELETE CASCADE,
		product_id uuid NOT NULL REFERENCES products(id),
		created_at datetime,
		UNIQUE (wishlist_id, product_id)
	)`,
	`CREATE TABLE orders (
		id uuid PRIMARY KEY,
		user_id uuid NOT NULL,
		order_date datetime NOT NULL,
		status text NOT NULL DEFAULT 'pending',
		total_amount numeric NOT NULL,
		shipping_address text,
		updated_at datetime
	)`,
	`CREATE TABLE order_items (
		id uuid PRIMARY KEY,
		order_id uuid NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id uuid NOT NULL REFERENCES products(id),
		quantity integer NOT NULL,
		price_at_purchase numeric NOT NULL
	)`,
	`CREATE TABLE product_reviews (
		id uuid PRIMARY KEY,
		product_id uuid NOT NULL REFERENCES products(id),
		user_id uuid NOT NULL,
		rating integer NOT NULL CHECK (rating BETWEEN 1 AND 5),
		review_text text,
		created_at datetime
	)`,
	`CREATE TABLE product_vectors (
		id uuid PRIMARY KEY REFERENCES products(id) ON DELETE CASCADE,
		embedding text NOT NULL,
		updated_at datetime
	)`,
}

// Open returns an isolated in-memory database with the schema applied.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:vapevault_%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// Keep one connection so the shared in-memory database survives the test.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}
