package database

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rsmith2002/filingwatcher/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartIngestRun_StoresNullEventID(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db := &DB{conn: sqlDB}

	mock.ExpectQuery("INSERT INTO ingest_runs").
		WithArgs(nil, sqlmock.AnyArg(), models.RunStatusRunning).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	run := &models.IngestRun{}
	require.NoError(t, db.StartIngestRun(run))
	assert.Equal(t, 3, run.ID)
	assert.Equal(t, models.RunStatusRunning, run.Status)
	assert.False(t, run.RunAt.IsZero())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLastSuccessfulRun_NoneIsNil(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db := &DB{conn: sqlDB}

	mock.ExpectQuery("SELECT (.+) FROM ingest_runs").
		WithArgs(models.RunStatusSuccess).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	run, err := db.LastSuccessfulRun()
	require.NoError(t, err)
	assert.Nil(t, run)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIngestRunsRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("start and finish a run", func(t *testing.T) {
		testDB.TruncateAll(t)

		run := &models.IngestRun{EventID: "evt-1"}
		require.NoError(t, testDB.StartIngestRun(run))
		assert.NotZero(t, run.ID)

		exists, err := testDB.RunExistsForEvent("evt-1")
		require.NoError(t, err)
		assert.True(t, exists)

		last, err := testDB.LastSuccessfulRun()
		require.NoError(t, err)
		assert.Nil(t, last)

		run.NewFilingRows = 4
		run.FlagsRaised = 2
		run.AnalyticsRefreshed = 3
		run.Status = models.RunStatusSuccess
		require.NoError(t, testDB.FinishIngestRun(run))
		require.NotNil(t, run.FinishedAt)

		last, err = testDB.LastSuccessfulRun()
		require.NoError(t, err)
		require.NotNil(t, last)
		assert.Equal(t, run.ID, last.ID)
		assert.Equal(t, "evt-1", last.EventID)
		assert.Equal(t, 4, last.NewFilingRows)
		assert.Equal(t, 2, last.FlagsRaised)
		assert.Equal(t, "", last.Errors)
	})

	t.Run("duplicate event id is rejected", func(t *testing.T) {
		testDB.TruncateAll(t)

		require.NoError(t, testDB.StartIngestRun(&models.IngestRun{EventID: "evt-2"}))
		assert.Error(t, testDB.StartIngestRun(&models.IngestRun{EventID: "evt-2"}))

		// scheduled runs carry no event id
		require.NoError(t, testDB.StartIngestRun(&models.IngestRun{}))
		require.NoError(t, testDB.StartIngestRun(&models.IngestRun{}))
	})

	t.Run("LastSuccessfulRun ignores failed runs", func(t *testing.T) {
		testDB.TruncateAll(t)

		ok := &models.IngestRun{RunAt: time.Now().Add(-time.Hour)}
		require.NoError(t, testDB.StartIngestRun(ok))
		ok.Status = models.RunStatusSuccess
		require.NoError(t, testDB.FinishIngestRun(ok))

		failed := &models.IngestRun{}
		require.NoError(t, testDB.StartIngestRun(failed))
		failed.Status = models.RunStatusFailed
		failed.Errors = "price lookup failed"
		require.NoError(t, testDB.FinishIngestRun(failed))

		last, err := testDB.LastSuccessfulRun()
		require.NoError(t, err)
		require.NotNil(t, last)
		assert.Equal(t, ok.ID, last.ID)

		err = testDB.FinishIngestRun(&models.IngestRun{ID: 9999, Status: models.RunStatusFailed})
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}
