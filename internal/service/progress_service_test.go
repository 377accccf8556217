package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opencivic/civicflow-api/internal/models"
	appErrors "github.com/opencivic/civicflow-api/pkg/errors"
)

type mockProgressStore struct {
	entries   map[string]models.WorkProgressEntry
	created   []*models.WorkProgressEntry
	decisions []string
}

func (m *mockProgressStore) CreateWithTx(ctx context.Context, tx *sqlx.Tx, entry *models.WorkProgressEntry) error {
	if entry.ID == "" {
		entry.ID = "entry-new"
	}
	m.created = append(m.created, entry)
	return nil
}

func (m *mockProgressStore) GetByID(ctx context.Context, id string) (*models.WorkProgressEntry, error) {
	if entry, ok := m.entries[id]; ok {
		return &entry, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProgressStore) List(ctx context.Context, filter models.ProgressFilter) ([]models.WorkProgressEntry, error) {
	out := make([]models.WorkProgressEntry, 0, len(m.entries))
	for _, entry := range m.entries {
		out = append(out, entry)
	}
	return out, nil
}

func (m *mockProgressStore) RecordDecisionWithTx(ctx context.Context, tx *sqlx.Tx, id string, decision models.ProgressStatus, reviewerID string, notes *string) error {
	m.decisions = append(m.decisions, id+":"+string(decision))
	return nil
}

type mockProgressCascader struct {
	recorded         []models.TransitionEvent
	completionEvents []models.NotificationEvent
	completionCalled bool
}

func (m *mockProgressCascader) Record(ctx context.Context, tx *sqlx.Tx, event models.TransitionEvent) error {
	m.recorded = append(m.recorded, event)
	return nil
}

func (m *mockProgressCascader) CompletionSubmitted(ctx context.Context, tx *sqlx.Tx, tender *models.Tender, entry *models.WorkProgressEntry, actorID string) ([]models.NotificationEvent, error) {
	m.completionCalled = true
	return m.completionEvents, nil
}

func awardedTender(stage models.TenderStage, contractorID string) models.Tender {
	tender := newTenderFixture(stage)
	tender.AwardedContractorID = &contractorID
	return tender
}

func TestProgressServiceSubmitStartsWork(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	tenders := &mockTenderStore{tenders: map[string]models.Tender{
		"tender-1": awardedTender(models.TenderStageAwarded, "contractor-1"),
	}}
	entries := &mockProgressStore{}
	cascader := &mockProgressCascader{}
	svc := NewProgressService(db, entries, tenders, NewAccessService(), cascader, &mockDelivery{}, zap.NewNop())

	entry, err := svc.Submit(context.Background(), contractor("contractor-1"), "tender-1", &models.WorkProgressEntry{
		ProgressType:       models.ProgressTypeUpdate,
		ProgressPercentage: 25,
		Description:        "groundwork done",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ProgressStatusSubmitted, entry.Status)
	require.Len(t, tenders.advanced, 1)
	assert.Equal(t, models.TenderStageWorkInProgress, tenders.advanced[0].To)
	assert.NotNil(t, tenders.advanced[0].WorkStartedAt)
	assert.False(t, cascader.completionCalled)
}

func TestProgressServiceSubmitCompletionCascades(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	tenders := &mockTenderStore{tenders: map[string]models.Tender{
		"tender-1": awardedTender(models.TenderStageWorkInProgress, "contractor-1"),
	}}
	cascader := &mockProgressCascader{completionEvents: []models.NotificationEvent{{ID: "evt-1"}}}
	delivery := &mockDelivery{}
	svc := NewProgressService(db, &mockProgressStore{}, tenders, NewAccessService(), cascader, delivery, zap.NewNop())

	entry, err := svc.Submit(context.Background(), contractor("contractor-1"), "tender-1", &models.WorkProgressEntry{
		ProgressType:       models.ProgressTypeCompletion,
		ProgressPercentage: 100,
		Description:        "all done",
	})
	require.NoError(t, err)
	assert.True(t, cascader.completionCalled)
	assert.Len(t, delivery.enqueued, 1)
	assert.Empty(t, tenders.advanced)
	assert.Equal(t, models.ProgressStatusSubmitted, entry.Status)
}

func TestProgressServiceSubmitMilestoneFlag(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	tenders := &mockTenderStore{tenders: map[string]models.Tender{
		"tender-1": awardedTender(models.TenderStageWorkInProgress, "contractor-1"),
	}}
	svc := NewProgressService(db, &mockProgressStore{}, tenders, NewAccessService(), &mockProgressCascader{}, &mockDelivery{}, zap.NewNop())

	entry, err := svc.Submit(context.Background(), contractor("contractor-1"), "tender-1", &models.WorkProgressEntry{
		ProgressType: models.ProgressTypeMilestone,
		Description:  "phase one",
	})
	require.NoError(t, err)
	assert.True(t, entry.IsMilestone)
}

func TestProgressServiceSubmitOnlyAwardedContractor(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectRollback()

	tenders := &mockTenderStore{tenders: map[string]models.Tender{
		"tender-1": awardedTender(models.TenderStageWorkInProgress, "contractor-1"),
	}}
	svc := NewProgressService(db, &mockProgressStore{}, tenders, NewAccessService(), &mockProgressCascader{}, &mockDelivery{}, zap.NewNop())

	_, err := svc.Submit(context.Background(), contractor("contractor-2"), "tender-1", &models.WorkProgressEntry{
		ProgressType: models.ProgressTypeUpdate,
	})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestProgressServiceSubmitWrongStage(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectRollback()

	tenders := &mockTenderStore{tenders: map[string]models.Tender{
		"tender-1": awardedTender(models.TenderStageVerified, "contractor-1"),
	}}
	svc := NewProgressService(db, &mockProgressStore{}, tenders, NewAccessService(), &mockProgressCascader{}, &mockDelivery{}, zap.NewNop())

	_, err := svc.Submit(context.Background(), contractor("contractor-1"), "tender-1", &models.WorkProgressEntry{
		ProgressType: models.ProgressTypeUpdate,
	})
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
}

func TestProgressServiceReview(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	tenders := &mockTenderStore{tenders: map[string]models.Tender{
		"tender-1": awardedTender(models.TenderStageWorkInProgress, "contractor-1"),
	}}
	entries := &mockProgressStore{entries: map[string]models.WorkProgressEntry{
		"entry-1": {ID: "entry-1", TenderID: "tender-1", ContractorID: "contractor-1", Status: models.ProgressStatusSubmitted},
	}}
	svc := NewProgressService(db, entries, tenders, NewAccessService(), &mockProgressCascader{}, &mockDelivery{}, zap.NewNop())

	notes := "looks good"
	entry, err := svc.Review(context.Background(), deptAdmin("dept-1"), "entry-1", models.ProgressStatusApproved, &notes)
	require.NoError(t, err)
	assert.Equal(t, models.ProgressStatusApproved, entry.Status)
	assert.Contains(t, entries.decisions, "entry-1:APPROVED")
}

func TestProgressServiceReviewRejectsNonTerminalDecision(t *testing.T) {
	db, _, cleanup := newTxMock(t)
	defer cleanup()

	svc := NewProgressService(db, &mockProgressStore{}, &mockTenderStore{}, NewAccessService(), &mockProgressCascader{}, &mockDelivery{}, zap.NewNop())

	_, err := svc.Review(context.Background(), deptAdmin("dept-1"), "entry-1", models.ProgressStatusSubmitted, nil)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestProgressServiceReviewAlreadyDecided(t *testing.T) {
	db, _, cleanup := newTxMock(t)
	defer cleanup()

	tenders := &mockTenderStore{tenders: map[string]models.Tender{
		"tender-1": awardedTender(models.TenderStageWorkInProgress, "contractor-1"),
	}}
	entries := &mockProgressStore{entries: map[string]models.WorkProgressEntry{
		"entry-1": {ID: "entry-1", TenderID: "tender-1", Status: models.ProgressStatusApproved},
	}}
	svc := NewProgressService(db, entries, tenders, NewAccessService(), &mockProgressCascader{}, &mockDelivery{}, zap.NewNop())

	_, err := svc.Review(context.Background(), deptAdmin("dept-1"), "entry-1", models.ProgressStatusRejected, nil)
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
}
