package catalog

import (
	"context"
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/rushteam/shoprec/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	id          INTEGER PRIMARY KEY,
	name        TEXT    NOT NULL,
	slug        TEXT    NOT NULL,
	category    TEXT    NOT NULL DEFAULT '',
	price_cents INTEGER NOT NULL DEFAULT 0,
	available   INTEGER NOT NULL DEFAULT 1
);`

// SQLiteCatalog 是基于 SQLite 的只读商品目录（另提供 Upsert 供导入/测试）。
type SQLiteCatalog struct {
	db *sql.DB
}

// OpenSQLite 打开（必要时创建）SQLite 目录。
// dsn 为文件路径或 ":memory:"；内存库限制为单连接，否则每个连接各自一份数据。
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteCatalog, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, catalogErr("open", err)
	}
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, catalogErr("migrate", err)
	}
	return &SQLiteCatalog{db: db}, nil
}

func catalogErr(op string, err error) error {
	return core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "catalog: "+op, err)
}

// Upsert 写入商品，已存在则覆盖。
func (c *SQLiteCatalog) Upsert(ctx context.Context, products ...core.Product) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return catalogErr("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO products (id, name, slug, category, price_cents, available)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	slug = excluded.slug,
	category = excluded.category,
	price_cents = excluded.price_cents,
	available = excluded.available`)
	if err != nil {
		return catalogErr("prepare", err)
	}
	defer stmt.Close()

	for _, p := range products {
		if _, err := stmt.ExecContext(ctx, p.ID, p.Name, p.Slug, p.Category, p.PriceCents, p.Available); err != nil {
			return catalogErr("upsert", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return catalogErr("commit", err)
	}
	return nil
}

func (c *SQLiteCatalog) Products(ctx context.Context, ids []int64) ([]core.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT id, name, slug, category, price_cents, available FROM products WHERE id IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return nil, catalogErr("query", err)
	}
	defer rows.Close()

	var out []core.Product
	for rows.Next() {
		var p core.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Slug, &p.Category, &p.PriceCents, &p.Available); err != nil {
			return nil, catalogErr("scan", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, catalogErr("rows", err)
	}
	return out, nil
}

func (c *SQLiteCatalog) ProductIDs(ctx context.Context) ([]int64, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id FROM products ORDER BY id`)
	if err != nil {
		return nil, catalogErr("query", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, catalogErr("scan", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, catalogErr("rows", err)
	}
	return ids, nil
}

func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}

var _ core.Catalog = (*SQLiteCatalog)(nil)
