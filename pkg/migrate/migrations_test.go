package migrate_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/vapevault-backend/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations: %v", err)
	}
}

func TestEmbeddedMigrationsMatchSourceDir(t *testing.T) {
	if err := migrate.ValidateFS(migrate.Migrations()); err != nil {
		t.Fatalf("validate embedded migrations: %v", err)
	}
	embedded, err := fs.Glob(migrate.Migrations(), "*.sql")
	if err != nil {
		t.Fatalf("glob embedded: %v", err)
	}
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob disk: %v", err)
	}
	if len(embedded) != len(onDisk) {
		t.Fatalf("embedded %d migrations, disk has %d", len(embedded), len(onDisk))
	}
}

func TestMigrationsContainStorefrontSchema(t *testing.T) {
	checks := map[string][]string{
		"*_create_users_table.sql": {
			"CREATE TYPE user_role AS ENUM ('user', 'admin')",
			"CREATE TABLE IF NOT EXISTS users",
			"users_email_key",
		},
		"*_create_catalog_tables.sql": {
			"CREATE TABLE IF NOT EXISTS categories",
			"CREATE TABLE IF NOT EXISTS products",
			"CHECK (stock_quantity >= 0)",
			"tags text[]",
		},
		"*_create_cart_and_wishlist_tables.sql": {
			"CONSTRAINT carts_user_id_key UNIQUE (user_id)",
			"CONSTRAINT cart_items_cart_product_key UNIQUE (cart_id, product_id)",
			"CONSTRAINT wishlists_user_id_key UNIQUE (user_id)",
			"CONSTRAINT wishlist_items_wishlist_product_key UNIQUE (wishlist_id, product_id)",
		},
		"*_create_orders_tables.sql": {
			"CREATE TYPE order_status AS ENUM ('pending', 'shipped', 'delivered', 'cancelled')",
			"CREATE TABLE IF NOT EXISTS orders",
			"price_at_purchase numeric(10,2)",
		},
		"*_create_product_reviews_table.sql": {
			"CHECK (rating BETWEEN 1 AND 5)",
		},
		"*_create_product_vectors.sql": {
			"CREATE EXTENSION IF NOT EXISTS vector",
			"embedding vector(1536)",
			"CREATE OR REPLACE FUNCTION match_product_vectors",
			"RETURNS TABLE (product_id uuid, similarity double precision)",
		},
	}

	for pattern, wants := range checks {
		matches, err := filepath.Glob(filepath.Join("migrations", pattern))
		if err != nil {
			t.Fatalf("glob %s: %v", pattern, err)
		}
		if len(matches) != 1 {
			t.Fatalf("expected one migration for %s, got %v", pattern, matches)
		}
		data, err := os.ReadFile(matches[0])
		if err != nil {
			t.Fatalf("read %s: %v", matches[0], err)
		}
		for _, sub := range wants {
			if !strings.Contains(string(data), sub) {
				t.Errorf("%s missing %q", matches[0], sub)
			}
		}
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Product Badges!")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasSuffix(path, "_add_product_badges.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "001_init.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil {
		t.Fatalf("expected invalid filename error")
	}
}

func TestValidateDirRejectsMissingDown(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "20250601120000_init.sql"), []byte("-- +goose Up\nSELECT 1;\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil || !strings.Contains(err.Error(), "+goose Down") {
		t.Fatalf("expected missing down error, got %v", err)
	}
}
