package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/hybridrec/core"
)

var productColumns = []string{"product_sys_id", "name", "category", "brand", "specs", "sell_price", "stock", "status"}

func TestPostgresLoader_LoadProducts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM product p").WillReturnRows(
		pgxmock.NewRows(productColumns).
			AddRow("1", "Phone X", "phone", "acme", "128GB black", 100.0, 5, "instock").
			AddRow("", "ghost", "", "", "", 0.0, 0, "").
			AddRow("2", "Cable", "accessory", "acme", "", 9.9, 0, "outstock"),
	)

	products, err := NewPostgresLoader(mock).LoadProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Phone X", products[0].Name)
	assert.Equal(t, "128GB black", products[0].Specs)
	assert.Equal(t, core.AvailabilityInStock, products[0].Status)
	assert.Equal(t, core.AvailabilityOutOfStock, products[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLoader_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM product p").WillReturnError(errors.New("connection reset"))

	_, err = NewPostgresLoader(mock).LoadProducts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query products")
	assert.NoError(t, mock.ExpectationsWereMet())
}
