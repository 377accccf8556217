package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencivic/civicflow-api/internal/models"
)

func TestBidRepositoryUpdateStatusGuarded(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBidRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bids SET status").
		WithArgs(models.BidStatusAccepted, sqlmock.AnyArg(), "bid-1", models.BidStatusSubmitted).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	err = repo.UpdateStatusWithTx(context.Background(), tx, "bid-1", models.BidStatusSubmitted, models.BidStatusAccepted)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBidRepositoryUpdateStatusStale(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBidRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bids SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.Beginx()
	require.NoError(t, err)
	err = repo.UpdateStatusWithTx(context.Background(), tx, "bid-1", models.BidStatusSubmitted, models.BidStatusAccepted)
	assert.ErrorIs(t, err, ErrStaleStage)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBidRepositoryAcceptedForTender(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBidRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "tender_id", "bidder_id", "amount", "proposal", "status", "submitted_at", "decided_at"}).
		AddRow("bid-1", "tender-1", "contractor-1", 1500.0, "p", "ACCEPTED", now, now)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bids WHERE tender_id = \\$1 AND status = \\$2").
		WithArgs("tender-1", models.BidStatusAccepted).
		WillReturnRows(rows)
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	bid, err := repo.AcceptedForTenderWithTx(context.Background(), tx, "tender-1")
	require.NoError(t, err)
	require.NotNil(t, bid)
	assert.Equal(t, "bid-1", bid.ID)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBidRepositoryAcceptedForTenderNone(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBidRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM bids WHERE tender_id = \\$1 AND status = \\$2").
		WithArgs("tender-1", models.BidStatusAccepted).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	tx, err := db.Beginx()
	require.NoError(t, err)
	bid, err := repo.AcceptedForTenderWithTx(context.Background(), tx, "tender-1")
	require.NoError(t, err)
	assert.Nil(t, bid)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBidRepositoryRejectSiblings(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBidRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "tender_id", "bidder_id", "amount", "proposal", "status", "submitted_at", "decided_at"}).
		AddRow("bid-2", "tender-1", "contractor-2", 1800.0, "p", "REJECTED", now, now).
		AddRow("bid-3", "tender-1", "contractor-3", 2100.0, "p", "REJECTED", now, now)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE bids SET status").
		WillReturnRows(rows)
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	rejected, err := repo.RejectSiblingsWithTx(context.Background(), tx, "tender-1", "bid-1")
	require.NoError(t, err)
	assert.Len(t, rejected, 2)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBidRepositoryCreateEvaluationDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBidRepository(db)

	mock.ExpectExec("INSERT INTO bid_evaluations").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "bid_evaluations_bid_id_evaluator_id_key"})

	err := repo.CreateEvaluation(context.Background(), &models.BidEvaluation{
		BidID:          "bid-1",
		EvaluatorID:    "admin-1",
		Recommendation: models.RecommendAccept,
	})
	assert.ErrorIs(t, err, ErrDuplicateEvaluation)
	assert.NoError(t, mock.ExpectationsWereMet())
}
