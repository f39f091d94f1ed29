//go:build integration

package main

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type PostgresInventoryRepositoryTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	pool      *pgxpool.Pool
	repo      *PostgresInventoryRepository
}

func (suite *PostgresInventoryRepositoryTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("supplier_db"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	pool, err := pgxpool.New(ctx, dsn)
	suite.Require().NoError(err)
	suite.pool = pool

	suite.repo = NewPostgresInventoryRepository(pool)
	suite.Require().NoError(suite.repo.EnsureSchema(ctx))
}

func (suite *PostgresInventoryRepositoryTestSuite) TearDownSuite() {
	if suite.pool != nil {
		suite.pool.Close()
	}
	if suite.container != nil {
		err := suite.container.Terminate(context.Background())
		suite.Require().NoError(err)
	}
}

func (suite *PostgresInventoryRepositoryTestSuite) SetupTest() {
	ctx := context.Background()
	_, err := suite.pool.Exec(ctx, "TRUNCATE TABLE inventory_movements, supplier_orders, supplier_inventory CASCADE")
	suite.Require().NoError(err)
	_, err = suite.pool.Exec(ctx, "ALTER SEQUENCE supplier_order_seq RESTART WITH 1001")
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repo.Seed(ctx, testCatalog()))
}

func (suite *PostgresInventoryRepositoryTestSuite) useCase() *InventoryUseCase {
	return newTestUseCase(suite.T(), suite.repo)
}

func (suite *PostgresInventoryRepositoryTestSuite) TestSeedIsIdempotent() {
	ctx := context.Background()

	suite.Require().NoError(suite.repo.Seed(ctx, testCatalog()))
	items, err := suite.repo.ListProducts(ctx)

	suite.Require().NoError(err)
	suite.Len(items, 3)
	suite.True(decimal.RequireFromString("89.90").Equal(items[1].UnitPrice))
}

func (suite *PostgresInventoryRepositoryTestSuite) TestGetProductsIgnoresCase() {
	items, err := suite.repo.GetProducts(context.Background(), []string{"p1001", "missing"})

	suite.Require().NoError(err)
	suite.Len(items, 1)
	suite.Equal(10, items["p1001"].CurrentStock)
}

func (suite *PostgresInventoryRepositoryTestSuite) TestPlaceOrderCommitsAtomically() {
	uc := suite.useCase()

	order, replayed, err := uc.PlaceOrder(context.Background(), "GH-1", []OrderItem{
		{ProductID: "P1001", Quantity: 4},
		{ProductID: "p1002", Quantity: 1},
	})

	suite.Require().NoError(err)
	suite.False(replayed)
	suite.Equal("TW-1001", order.ID)
	suite.Equal(4, order.DeliveryDays)
	suite.Equal(6, stockOf(suite.T(), suite.repo, "P1001"))
	suite.Equal(4, stockOf(suite.T(), suite.repo, "P1002"))

	stored, err := uc.GetOrder(context.Background(), "GH-1")
	suite.Require().NoError(err)
	suite.ElementsMatch([]OrderItem{{ProductID: "P1001", Quantity: 4}, {ProductID: "P1002", Quantity: 1}}, stored.Items)
}

func (suite *PostgresInventoryRepositoryTestSuite) TestPlaceOrderRollsBackOnShortfall() {
	uc := suite.useCase()

	_, _, err := uc.PlaceOrder(context.Background(), "GH-1", []OrderItem{
		{ProductID: "P1001", Quantity: 4},
		{ProductID: "P1003", Quantity: 2},
	})

	suite.ErrorIs(err, ErrInsufficientStock)
	suite.Equal(10, stockOf(suite.T(), suite.repo, "P1001"))
	suite.Equal(1, stockOf(suite.T(), suite.repo, "P1003"))
}

func (suite *PostgresInventoryRepositoryTestSuite) TestPlaceOrderReplay() {
	uc := suite.useCase()
	items := []OrderItem{{ProductID: "P1001", Quantity: 2}}

	first, _, err := uc.PlaceOrder(context.Background(), "GH-1", items)
	suite.Require().NoError(err)
	second, replayed, err := uc.PlaceOrder(context.Background(), "GH-1", items)

	suite.Require().NoError(err)
	suite.True(replayed)
	suite.Equal(first.ID, second.ID)
	suite.Equal(8, stockOf(suite.T(), suite.repo, "P1001"))
}

func (suite *PostgresInventoryRepositoryTestSuite) TestConcurrentOrdersNeverOversell() {
	uc := suite.useCase()

	var wg sync.WaitGroup
	var mu sync.Mutex
	confirmed := 0
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := uc.PlaceOrder(context.Background(), fmt.Sprintf("GH-%d", i), []OrderItem{
				{ProductID: "P1002", Quantity: 1},
				{ProductID: "P1001", Quantity: 1},
			})
			if err == nil {
				mu.Lock()
				confirmed++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	suite.Equal(5, confirmed)
	suite.Equal(0, stockOf(suite.T(), suite.repo, "P1002"))
	suite.Equal(5, stockOf(suite.T(), suite.repo, "P1001"))
}

func (suite *PostgresInventoryRepositoryTestSuite) TestConcurrentSameCustomerOrderWithDifferentProducts() {
	uc := suite.useCase()

	var wg sync.WaitGroup
	var mu sync.Mutex
	replays := 0
	var ids []string
	var errs []error
	for _, product := range []string{"P1001", "P1002"} {
		wg.Add(1)
		go func(product string) {
			defer wg.Done()
			order, replayed, err := uc.PlaceOrder(context.Background(), "GH-1", []OrderItem{{ProductID: product, Quantity: 1}})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			ids = append(ids, order.ID)
			if replayed {
				replays++
			}
		}(product)
	}
	wg.Wait()

	suite.Empty(errs)
	suite.Equal(1, replays)
	suite.Require().Len(ids, 2)
	suite.Equal(ids[0], ids[1])
	suite.Equal(14, stockOf(suite.T(), suite.repo, "P1001")+stockOf(suite.T(), suite.repo, "P1002"))
}

func TestPostgresInventoryRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(PostgresInventoryRepositoryTestSuite))
}
