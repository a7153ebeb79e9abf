// Package dbtest opens isolated in-memory SQLite databases carrying the same
// tables the goose migrations create on Postgres.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var schema = []string{
	`CREATE TABLE categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE services (
  id TEXT PRIMARY KEY,
  category_id TEXT,
  title TEXT NOT NULL,
  subtitle TEXT,
  description TEXT,
  price TEXT NOT NULL,
  type TEXT NOT NULL CHECK (type IN ('checkout','quote')),
  order_type TEXT,
  is_south_african BOOLEAN NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE questionnaires (
  id TEXT PRIMARY KEY,
  service_id TEXT NOT NULL,
  name TEXT NOT NULL,
  kind TEXT NOT NULL CHECK (kind IN ('text','dropdown','checkbox','file')),
  options TEXT,
  is_required BOOLEAN NOT NULL DEFAULT 0,
  position INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`,
	`CREATE TABLE delivery_options (
  id TEXT PRIMARY KEY,
  service_id TEXT NOT NULL,
  label TEXT NOT NULL,
  price TEXT NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE required_documents (
  id TEXT PRIMARY KEY,
  service_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT,
  created_at DATETIME
);`,
	`CREATE TABLE carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
  service_id TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  delivery_option_ids TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE answers (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  owner_type TEXT NOT NULL CHECK (owner_type IN ('cart_item','order_item','service_quote')),
  owner_id TEXT NOT NULL,
  questionnaire_id TEXT NOT NULL,
  value_kind TEXT NOT NULL CHECK (value_kind IN ('literal','file')),
  value TEXT NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE quotes (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL CHECK (type IN ('custom','service')),
  status TEXT NOT NULL DEFAULT 'open',
  created_at DATETIME
);`,
	`CREATE TABLE custom_quotes (
  quote_id TEXT PRIMARY KEY REFERENCES quotes(id) ON DELETE CASCADE,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  contact_number TEXT NOT NULL,
  residence_country TEXT NOT NULL,
  doc_request TEXT NOT NULL
);`,
	`CREATE TABLE service_quotes (
  quote_id TEXT PRIMARY KEY REFERENCES quotes(id) ON DELETE CASCADE,
  service_id TEXT NOT NULL,
  delivery_option_ids TEXT
);`,
	`CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  reference TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  total_amount TEXT NOT NULL,
  currency TEXT NOT NULL,
  is_south_africa BOOLEAN NOT NULL DEFAULT 0,
  payment_intent_id TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL CHECK (status IN ('pending','paid','completed','failed')),
  paid_at DATETIME,
  completed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL REFERENCES orders(id),
  service_id TEXT NOT NULL,
  service_title TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity >= 1),
  unit_price TEXT NOT NULL,
  delivery_total TEXT NOT NULL,
  subtotal TEXT NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE order_item_delivery_options (
  order_item_id TEXT NOT NULL REFERENCES order_items(id),
  delivery_option_id TEXT NOT NULL,
  label TEXT NOT NULL,
  price TEXT NOT NULL,
  PRIMARY KEY (order_item_id, delivery_option_id)
);`,
	`CREATE TABLE transactions (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL REFERENCES orders(id),
  user_id TEXT NOT NULL,
  payment_intent_id TEXT NOT NULL,
  amount TEXT NOT NULL,
  currency TEXT NOT NULL,
  gateway_status TEXT NOT NULL,
  checkout_state TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  body TEXT NOT NULL,
  order_id TEXT,
  read_at DATETIME,
  dispatched_at DATETIME,
  created_at DATETIME
);`,
	`CREATE TABLE outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload BLOB NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`,
}

// Open returns a fresh database with every table created. Each call gets its
// own named in-memory database and a single pooled connection, so callers must
// issue every statement of an open transaction through the tx handle.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return conn
}
