package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencivic/civicflow-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestIssueRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewIssueRepository(db)

	mock.ExpectExec("INSERT INTO issues").WillReturnResult(sqlmock.NewResult(1, 1))

	issue := &models.Issue{
		Title:       "Broken streetlight",
		Description: "Dark corner on Elm St",
		ReporterID:  "citizen-1",
	}
	require.NoError(t, repo.Create(context.Background(), issue))
	assert.NotEmpty(t, issue.ID)
	assert.Equal(t, models.IssueStageReported, issue.WorkflowStage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueRepositoryAdvanceStageWithTx(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewIssueRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE issues SET workflow_stage").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	err = repo.AdvanceStageWithTx(context.Background(), tx, IssueStageUpdate{
		ID:   "issue-1",
		From: models.IssueStageInProgress,
		To:   models.IssueStageDepartmentReview,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueRepositoryAdvanceStageStale(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewIssueRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE issues SET workflow_stage").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.Beginx()
	require.NoError(t, err)
	err = repo.AdvanceStageWithTx(context.Background(), tx, IssueStageUpdate{
		ID:   "issue-1",
		From: models.IssueStageInProgress,
		To:   models.IssueStageDepartmentReview,
	})
	assert.ErrorIs(t, err, ErrStaleStage)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueRepositoryGetWithTxLocksRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewIssueRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "title", "description", "category", "location", "reporter_id", "workflow_stage", "assigned_area_id", "assigned_department_id", "current_assignee_id", "resolution_notes", "created_at", "updated_at"}).
		AddRow("issue-1", "t", "d", "", "", "citizen-1", "REPORTED", nil, nil, nil, nil, now, now)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM issues WHERE id = \\$1 FOR UPDATE").
		WithArgs("issue-1").
		WillReturnRows(rows)
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)
	issue, err := repo.GetWithTx(context.Background(), tx, "issue-1")
	require.NoError(t, err)
	assert.Equal(t, models.IssueStageReported, issue.WorkflowStage)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
