package repository_test

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/text/currency"

	"github.com/salespoint/pos/internal/domain"
	"github.com/salespoint/pos/internal/repository"
)

type productRepositorySuite struct {
	suite.Suite

	repo *repository.ProductRepository
	pool *pgxpool.Pool
}

// entry point to run the tests in the suite
func TestProductRepositorySuite(t *testing.T) {
	suite.Run(t, new(productRepositorySuite))
}

// before all tests in the suite
func (suite *productRepositorySuite) SetupSuite() {
	ctx := suite.T().Context()

	_, connStr, err := startPostgres(ctx)
	suite.NoError(err)

	suite.pool, err = pgxpool.New(ctx, connStr)
	suite.NoError(err)

	suite.repo = repository.NewProduct(suite.pool)
}

// after all tests in the suite
func (suite *productRepositorySuite) TearDownSuite() {
	if suite.pool != nil {
		suite.pool.Close()
	}
}

func (suite *productRepositorySuite) TestCreateAndGetProduct() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	p := randomProduct()

	created, err := suite.repo.CreateProduct(ctx, p)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	got, err := suite.repo.GetProduct(ctx, created.ID)
	require.NoError(t, err)

	assertProduct(t, created, got)
	assert.False(t, got.CreatedAt.IsZero())
}

func (suite *productRepositorySuite) TestCreateProduct_EmptyName() {
	t := suite.T()

	_, err := suite.repo.CreateProduct(t.Context(), domain.Product{})
	require.EqualError(t, err, "product name is empty")
}

func (suite *productRepositorySuite) TestGetProduct_NotFound() {
	t := suite.T()

	_, err := suite.repo.GetProduct(t.Context(), uuid.New())
	require.ErrorIs(t, err, repository.ErrProductNotFound)
}

func (suite *productRepositorySuite) TestListProducts() {
	defer suite.deleteAll()

	t := suite.T()
	ctx := t.Context()

	products := []domain.Product{randomProduct(), randomProduct(), randomProduct()}
	for _, p := range products {
		_, err := suite.repo.CreateProduct(ctx, p)
		require.NoError(t, err)
	}

	listed, err := suite.repo.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, listed, len(products))

	// sorted by name
	for i := 1; i < len(listed); i++ {
		assert.LessOrEqual(t, listed[i-1].Name, listed[i].Name)
	}
}

func (suite *productRepositorySuite) deleteAll() {
	_, err := suite.pool.Exec(suite.T().Context(), "TRUNCATE TABLE products CASCADE")
	suite.NoError(err)
}

func randomProduct() domain.Product {
	return domain.Product{
		Name:      gofakeit.ProductName(),
		Barcode:   gofakeit.DigitN(13),
		UnitPrice: domain.NewMoney(decimal.NewFromFloat(gofakeit.Price(1, 100)), currency.USD),
		StockQty:  gofakeit.Number(1, 50),
		Status:    domain.ProductActive,
	}
}

func assertProduct(t *testing.T, expected, actual domain.Product) {
	t.Helper()

	diff := cmp.Diff(expected, actual, productCmpOpts())
	assert.Empty(t, diff)
}

func productCmpOpts() cmp.Options {
	currencyComparer := cmp.Comparer(func(x, y currency.Unit) bool {
		return x.String() == y.String()
	})
	decimalComparer := cmp.Comparer(func(x, y decimal.Decimal) bool {
		return x.Equal(y)
	})

	return cmp.Options{
		cmpopts.IgnoreFields(domain.Product{}, "CreatedAt", "UpdatedAt"),
		currencyComparer,
		decimalComparer,
	}
}
