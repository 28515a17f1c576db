package database

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rsmith2002/filingwatcher/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAnalytics(insider string, cost float64) *models.InsiderAnalytics {
	return &models.InsiderAnalytics{
		Ticker:       "ACME",
		InsiderName:  insider,
		OfficerTitle: "Director",
		IsDirector:   true,
		FirstTxnDate: ptrDate(2023, 5, 1),
		EntryPrice:   decimal.NewNullDecimal(decimal.NewFromInt(10)),
		CurrentPrice: decimal.NewNullDecimal(decimal.NewFromInt(15)),
		WindowReturns: []models.WindowReturn{
			{Label: "2w", Days: 14, Pct: decimal.NewNullDecimal(decimal.NewFromInt(5))},
			{Label: "1y", Days: 365},
		},
		NOpenMktBuys:     1,
		OpenMktTotalCost: decimal.NewNullDecimal(decimal.NewFromFloat(cost)),
		NetOpenMktShares: decimal.NewFromInt(1000),
	}
}

func TestUpsertInsiderAnalyticsBatch_RollsBackOnError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db := &DB{conn: sqlDB}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO insider_analytics")
	prep.ExpectQuery().WillReturnRows(sqlmock.NewRows([]string{"id", "computed_at"}).AddRow(1, *ptrDate(2024, 1, 1)))
	prep.ExpectQuery().WillReturnError(errors.New("numeric field overflow"))
	mock.ExpectRollback()

	err = db.UpsertInsiderAnalyticsBatch([]*models.InsiderAnalytics{
		testAnalytics("Jane Doe", 10000),
		testAnalytics("John Roe", 5000),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upsert analytics for ACME/John Roe")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertInsiderAnalyticsBatch_EncodesWindowReturnsAsText(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db := &DB{conn: sqlDB}

	a := testAnalytics("Jane Doe", 10000)

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO insider_analytics").
		ExpectQuery().
		WithArgs(
			"ACME", "Jane Doe", "", "", "Director",
			true, false, false, sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			`[{"label":"2w","days":14,"pct":"5"},{"label":"1y","days":365,"pct":null}]`,
			sqlmock.AnyArg(), sqlmock.AnyArg(),
			1, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(),
			0, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnRows(sqlmock.NewRows([]string{"id", "computed_at"}).AddRow(5, *ptrDate(2024, 1, 1)))
	mock.ExpectCommit()

	require.NoError(t, db.UpsertInsiderAnalyticsBatch([]*models.InsiderAnalytics{a}))
	assert.Equal(t, 5, a.ID)
	assert.False(t, a.ComputedAt.IsZero())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsiderAnalyticsRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("upsert replaces the existing record", func(t *testing.T) {
		testDB.TruncateAll(t)

		first := testAnalytics("Jane Doe", 10000)
		require.NoError(t, testDB.UpsertInsiderAnalyticsBatch([]*models.InsiderAnalytics{first}))

		second := testAnalytics("Jane Doe", 25000)
		second.NOpenMktBuys = 2
		require.NoError(t, testDB.UpsertInsiderAnalyticsBatch([]*models.InsiderAnalytics{second}))
		assert.Equal(t, first.ID, second.ID)

		got, err := testDB.GetInsiderAnalytics("ACME", "Jane Doe")
		require.NoError(t, err)
		assert.Equal(t, 2, got.NOpenMktBuys)
		assert.True(t, decimal.NewFromInt(25000).Equal(got.OpenMktTotalCost.Decimal))
		assert.False(t, got.OpenMktWACB.Valid)

		require.Len(t, got.WindowReturns, 2)
		assert.True(t, decimal.NewFromInt(5).Equal(got.WindowPct("2w").Decimal))
		assert.False(t, got.WindowPct("1y").Valid)
		require.NotNil(t, got.FirstTxnDate)
		assert.Equal(t, "2023-05-01", got.FirstTxnDate.Format("2006-01-02"))
		assert.Nil(t, got.LastFilingDate)
	})

	t.Run("GetInsiderAnalyticsByTicker orders by open-market cost", func(t *testing.T) {
		testDB.TruncateAll(t)

		noBuys := testAnalytics("Zed Award", 0)
		noBuys.OpenMktTotalCost = decimal.NullDecimal{}
		require.NoError(t, testDB.UpsertInsiderAnalyticsBatch([]*models.InsiderAnalytics{
			testAnalytics("Jane Doe", 10000),
			noBuys,
			testAnalytics("John Roe", 50000),
		}))

		records, err := testDB.GetInsiderAnalyticsByTicker("ACME")
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "John Roe", records[0].InsiderName)
		assert.Equal(t, "Jane Doe", records[1].InsiderName)
		assert.Equal(t, "Zed Award", records[2].InsiderName)
	})

	t.Run("GetInsiderAnalytics not found", func(t *testing.T) {
		testDB.TruncateAll(t)

		_, err := testDB.GetInsiderAnalytics("ACME", "Nobody")
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}
