package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rushteam/hybridrec/core"
)

// Querier 是 PostgresLoader 依赖的最小查询接口，*pgxpool.Pool 与 pgxmock 均满足。
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// productsQuery 聚合商品、品牌、类目与规格文本。
const productsQuery = `
SELECT p.product_sys_id,
       COALESCE(p.name, ''),
       COALESCE(c.name, ''),
       COALESCE(b.name, ''),
       COALESCE(STRING_AGG(sv.value, ' ' ORDER BY sv.spec_value_id), ''),
       COALESCE(p.sell_price, 0),
       COALESCE(p.stock, 0),
       COALESCE(p.status, '')
FROM product p
LEFT JOIN brand b ON b.brand_id = p.brand_id
LEFT JOIN category c ON c.category_id = p.category_id
LEFT JOIN specs s ON s.product_sys_id = p.product_sys_id
LEFT JOIN spec_value sv ON sv.spec_value_id = s.spec_value_id
GROUP BY p.product_sys_id, p.name, c.name, b.name, p.sell_price, p.stock, p.status
ORDER BY p.product_sys_id`

// PostgresLoader 从商品库加载商品列表，用于构建 Catalog 与内容索引。
type PostgresLoader struct {
	db Querier
}

// NewPostgresLoader 用已有连接创建 loader。
func NewPostgresLoader(db Querier) *PostgresLoader {
	return &PostgresLoader{db: db}
}

// ConnectPostgres 根据 DSN 建立连接池并校验连通性。
func ConnectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return pool, nil
}

// LoadProducts 读取全部商品，ID 为空的行被跳过。
func (l *PostgresLoader) LoadProducts(ctx context.Context) ([]Product, error) {
	rows, err := l.db.Query(ctx, productsQuery)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var (
			p      Product
			status string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Brand, &p.Specs, &p.Price, &p.Stock, &status); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.Status = core.ParseAvailability(status)
		if p.ID == "" {
			continue
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return out, nil
}
