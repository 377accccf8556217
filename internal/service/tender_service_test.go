package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opencivic/civicflow-api/internal/models"
	"github.com/opencivic/civicflow-api/internal/repository"
	appErrors "github.com/opencivic/civicflow-api/pkg/errors"
)

func newTxMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

type mockTenderStore struct {
	tenders     map[string]models.Tender
	listResp    []models.Tender
	lastFilter  models.TenderFilter
	listFilters []models.TenderFilter
	advanced    []repository.TenderStageUpdate
	advanceErr  error
	created     []*models.Tender
}

func (m *mockTenderStore) Create(ctx context.Context, tender *models.Tender) error {
	if tender.ID == "" {
		tender.ID = "tender-new"
	}
	m.created = append(m.created, tender)
	return nil
}

func (m *mockTenderStore) GetByID(ctx context.Context, id string) (*models.Tender, error) {
	if tender, ok := m.tenders[id]; ok {
		return &tender, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTenderStore) GetWithTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Tender, error) {
	return m.GetByID(ctx, id)
}

func (m *mockTenderStore) List(ctx context.Context, filter models.TenderFilter) ([]models.Tender, error) {
	m.lastFilter = filter
	m.listFilters = append(m.listFilters, filter)
	out := []models.Tender{}
	for _, tender := range m.listResp {
		if len(filter.Stage) > 0 && !stageListed(tender.WorkflowStage, filter.Stage) {
			continue
		}
		if filter.ContractorID != "" && (tender.AwardedContractorID == nil || *tender.AwardedContractorID != filter.ContractorID) {
			continue
		}
		if filter.DepartmentID != "" && tender.DepartmentID != filter.DepartmentID {
			continue
		}
		out = append(out, tender)
	}
	return out, nil
}

func stageListed(stage models.TenderStage, stages []models.TenderStage) bool {
	for _, s := range stages {
		if s == stage {
			return true
		}
	}
	return false
}

func (m *mockTenderStore) AdvanceStageWithTx(ctx context.Context, tx *sqlx.Tx, upd repository.TenderStageUpdate) error {
	if m.advanceErr != nil {
		return m.advanceErr
	}
	m.advanced = append(m.advanced, upd)
	if tender, ok := m.tenders[upd.ID]; ok {
		tender.WorkflowStage = upd.To
		m.tenders[upd.ID] = tender
	}
	return nil
}

type mockBidStore struct {
	bids           map[string]models.Bid
	byTender       []models.Bid
	accepted       *models.Bid
	statusUpdates  []string
	statusErr      error
	rejectedSibs   []models.Bid
	sibsCalled     bool
	evaluations    []*models.BidEvaluation
	evalErr        error
	hasEvaluation  bool
	byBidder       []models.Bid
}

func (m *mockBidStore) Create(ctx context.Context, bid *models.Bid) error {
	if bid.ID == "" {
		bid.ID = "bid-new"
	}
	if m.bids == nil {
		m.bids = make(map[string]models.Bid)
	}
	m.bids[bid.ID] = *bid
	return nil
}

func (m *mockBidStore) GetByID(ctx context.Context, id string) (*models.Bid, error) {
	if bid, ok := m.bids[id]; ok {
		return &bid, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockBidStore) GetWithTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Bid, error) {
	return m.GetByID(ctx, id)
}

func (m *mockBidStore) ListByTender(ctx context.Context, tenderID string) ([]models.Bid, error) {
	return m.byTender, nil
}

func (m *mockBidStore) ListByBidder(ctx context.Context, bidderID string) ([]models.Bid, error) {
	return m.byBidder, nil
}

func (m *mockBidStore) AcceptedForTenderWithTx(ctx context.Context, tx *sqlx.Tx, tenderID string) (*models.Bid, error) {
	return m.accepted, nil
}

func (m *mockBidStore) UpdateStatusWithTx(ctx context.Context, tx *sqlx.Tx, id string, from, to models.BidStatus) error {
	if m.statusErr != nil {
		return m.statusErr
	}
	m.statusUpdates = append(m.statusUpdates, id+":"+string(from)+">"+string(to))
	return nil
}

func (m *mockBidStore) RejectSiblingsWithTx(ctx context.Context, tx *sqlx.Tx, tenderID, exceptBidID string) ([]models.Bid, error) {
	m.sibsCalled = true
	return m.rejectedSibs, nil
}

func (m *mockBidStore) CreateEvaluation(ctx context.Context, evaluation *models.BidEvaluation) error {
	if m.evalErr != nil {
		return m.evalErr
	}
	m.evaluations = append(m.evaluations, evaluation)
	return nil
}

func (m *mockBidStore) HasEvaluationBy(ctx context.Context, bidID, evaluatorID string) (bool, error) {
	return m.hasEvaluation, nil
}

func (m *mockBidStore) ListEvaluations(ctx context.Context, bidID string) ([]models.BidEvaluation, error) {
	out := make([]models.BidEvaluation, 0, len(m.evaluations))
	for _, e := range m.evaluations {
		out = append(out, *e)
	}
	return out, nil
}

type mockIssueStore struct {
	issues     map[string]models.Issue
	advanced   []repository.IssueStageUpdate
	lastFilter models.IssueFilter
}

func (m *mockIssueStore) Create(ctx context.Context, issue *models.Issue) error {
	if issue.ID == "" {
		issue.ID = "issue-new"
	}
	if m.issues == nil {
		m.issues = make(map[string]models.Issue)
	}
	m.issues[issue.ID] = *issue
	return nil
}

func (m *mockIssueStore) GetByID(ctx context.Context, id string) (*models.Issue, error) {
	if issue, ok := m.issues[id]; ok {
		return &issue, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockIssueStore) GetWithTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Issue, error) {
	return m.GetByID(ctx, id)
}

func (m *mockIssueStore) List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, error) {
	m.lastFilter = filter
	out := make([]models.Issue, 0, len(m.issues))
	for _, issue := range m.issues {
		out = append(out, issue)
	}
	return out, nil
}

func (m *mockIssueStore) AdvanceStageWithTx(ctx context.Context, tx *sqlx.Tx, upd repository.IssueStageUpdate) error {
	m.advanced = append(m.advanced, upd)
	if issue, ok := m.issues[upd.ID]; ok {
		issue.WorkflowStage = upd.To
		m.issues[upd.ID] = issue
	}
	return nil
}

type mockTenderCascader struct {
	recorded     []models.TransitionEvent
	acceptEvents []models.NotificationEvent
	rejectEvents []models.NotificationEvent
	acceptCalled bool
	rejectCalled bool
}

func (m *mockTenderCascader) Record(ctx context.Context, tx *sqlx.Tx, event models.TransitionEvent) error {
	m.recorded = append(m.recorded, event)
	return nil
}

func (m *mockTenderCascader) BidAccepted(ctx context.Context, tx *sqlx.Tx, tender *models.Tender, bid *models.Bid, rejected []models.Bid, actorID string) ([]models.NotificationEvent, error) {
	m.acceptCalled = true
	return m.acceptEvents, nil
}

func (m *mockTenderCascader) BidRejected(ctx context.Context, tx *sqlx.Tx, tender *models.Tender, bid *models.Bid) ([]models.NotificationEvent, error) {
	m.rejectCalled = true
	return m.rejectEvents, nil
}

type mockDelivery struct {
	enqueued []models.NotificationEvent
}

func (m *mockDelivery) EnqueueDelivery(events []models.NotificationEvent) {
	m.enqueued = append(m.enqueued, events...)
}

func deptAdmin(dept string) *models.Actor {
	return &models.Actor{ID: "admin-1", Role: models.RoleDepartmentAdmin, DepartmentID: &dept, Active: true}
}

func contractor(id string) *models.Actor {
	return &models.Actor{ID: id, Role: models.RoleContractor, Active: true}
}

func newTenderFixture(stage models.TenderStage) models.Tender {
	return models.Tender{
		ID:            "tender-1",
		Reference:     "TND-2026-0001",
		Title:         "Streetlight repair",
		DepartmentID:  "dept-1",
		WorkflowStage: stage,
		CreatedBy:     "admin-1",
		CreatedAt:     time.Now().UTC(),
	}
}

func TestTenderServiceAcceptBid(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	tenders := &mockTenderStore{tenders: map[string]models.Tender{"tender-1": newTenderFixture(models.TenderStageUnderReview)}}
	bids := &mockBidStore{bids: map[string]models.Bid{
		"bid-1": {ID: "bid-1", TenderID: "tender-1", BidderID: "contractor-1", Amount: 1500, Status: models.BidStatusUnderEvaluation},
	}}
	cascader := &mockTenderCascader{acceptEvents: []models.NotificationEvent{{ID: "evt-1"}}}
	delivery := &mockDelivery{}
	svc := NewTenderService(db, tenders, bids, &mockIssueStore{}, NewAccessService(), cascader, delivery, false, zap.NewNop())

	bid, err := svc.AcceptBid(context.Background(), deptAdmin("dept-1"), "tender-1", "bid-1")
	require.NoError(t, err)
	assert.Equal(t, models.BidStatusAccepted, bid.Status)
	assert.True(t, cascader.acceptCalled)
	assert.False(t, bids.sibsCalled)
	require.Len(t, tenders.advanced, 1)
	assert.Equal(t, models.TenderStageAwarded, tenders.advanced[0].To)
	assert.Equal(t, "contractor-1", *tenders.advanced[0].AwardedContractorID)
	assert.Len(t, delivery.enqueued, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTenderServiceAcceptBidAutoRejectsSiblings(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	tenders := &mockTenderStore{tenders: map[string]models.Tender{"tender-1": newTenderFixture(models.TenderStageBiddingClosed)}}
	bids := &mockBidStore{
		bids: map[string]models.Bid{
			"bid-1": {ID: "bid-1", TenderID: "tender-1", BidderID: "contractor-1", Amount: 1500, Status: models.BidStatusSubmitted},
		},
		rejectedSibs: []models.Bid{{ID: "bid-2", TenderID: "tender-1", BidderID: "contractor-2", Status: models.BidStatusRejected}},
	}
	svc := NewTenderService(db, tenders, bids, &mockIssueStore{}, NewAccessService(), &mockTenderCascader{}, &mockDelivery{}, true, zap.NewNop())

	_, err := svc.AcceptBid(context.Background(), deptAdmin("dept-1"), "tender-1", "bid-1")
	require.NoError(t, err)
	assert.True(t, bids.sibsCalled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTenderServiceAcceptBidIdempotent(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectRollback()

	already := models.Bid{ID: "bid-1", TenderID: "tender-1", BidderID: "contractor-1", Status: models.BidStatusAccepted}
	tenders := &mockTenderStore{tenders: map[string]models.Tender{"tender-1": newTenderFixture(models.TenderStageAwarded)}}
	bids := &mockBidStore{accepted: &already}
	svc := NewTenderService(db, tenders, bids, &mockIssueStore{}, NewAccessService(), &mockTenderCascader{}, &mockDelivery{}, false, zap.NewNop())

	bid, err := svc.AcceptBid(context.Background(), deptAdmin("dept-1"), "tender-1", "bid-1")
	require.NoError(t, err)
	assert.Equal(t, models.BidStatusAccepted, bid.Status)
	assert.Empty(t, bids.statusUpdates)
	assert.Empty(t, tenders.advanced)
}

func TestTenderServiceAcceptBidConflictsWithHolder(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectRollback()

	already := models.Bid{ID: "bid-1", TenderID: "tender-1", BidderID: "contractor-1", Status: models.BidStatusAccepted}
	tenders := &mockTenderStore{tenders: map[string]models.Tender{"tender-1": newTenderFixture(models.TenderStageAwarded)}}
	bids := &mockBidStore{accepted: &already}
	svc := NewTenderService(db, tenders, bids, &mockIssueStore{}, NewAccessService(), &mockTenderCascader{}, &mockDelivery{}, false, zap.NewNop())

	_, err := svc.AcceptBid(context.Background(), deptAdmin("dept-1"), "tender-1", "bid-2")
	assert.ErrorIs(t, err, appErrors.ErrConflictingState)
}

func TestTenderServiceAcceptBidNotAwardable(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectRollback()

	tenders := &mockTenderStore{tenders: map[string]models.Tender{"tender-1": newTenderFixture(models.TenderStageBiddingOpen)}}
	svc := NewTenderService(db, tenders, &mockBidStore{}, &mockIssueStore{}, NewAccessService(), &mockTenderCascader{}, &mockDelivery{}, false, zap.NewNop())

	_, err := svc.AcceptBid(context.Background(), deptAdmin("dept-1"), "tender-1", "bid-1")
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
}

func TestTenderServiceAcceptBidStaleStatusConflicts(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectRollback()

	tenders := &mockTenderStore{tenders: map[string]models.Tender{"tender-1": newTenderFixture(models.TenderStageUnderReview)}}
	bids := &mockBidStore{
		bids:      map[string]models.Bid{"bid-1": {ID: "bid-1", TenderID: "tender-1", BidderID: "contractor-1", Status: models.BidStatusSubmitted}},
		statusErr: repository.ErrStaleStage,
	}
	svc := NewTenderService(db, tenders, bids, &mockIssueStore{}, NewAccessService(), &mockTenderCascader{}, &mockDelivery{}, false, zap.NewNop())

	_, err := svc.AcceptBid(context.Background(), deptAdmin("dept-1"), "tender-1", "bid-1")
	assert.ErrorIs(t, err, appErrors.ErrConflictingState)
}

func TestTenderServiceAcceptBidWrongDepartmentDenied(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectRollback()

	tenders := &mockTenderStore{tenders: map[string]models.Tender{"tender-1": newTenderFixture(models.TenderStageUnderReview)}}
	svc := NewTenderService(db, tenders, &mockBidStore{}, &mockIssueStore{}, NewAccessService(), &mockTenderCascader{}, &mockDelivery{}, false, zap.NewNop())

	_, err := svc.AcceptBid(context.Background(), deptAdmin("dept-other"), "tender-1", "bid-1")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestTenderServiceSubmitBid(t *testing.T) {
	db, _, cleanup := newTxMock(t)
	defer cleanup()

	tenders := &mockTenderStore{tenders: map[string]models.Tender{"tender-1": newTenderFixture(models.TenderStageBiddingOpen)}}
	bids := &mockBidStore{}
	svc := NewTenderService(db, tenders, bids, &mockIssueStore{}, NewAccessService(), &mockTenderCascader{}, &mockDelivery{}, false, zap.NewNop())

	bid, err := svc.SubmitBid(context.Background(), contractor("contractor-1"), "tender-1", 1500, "fix it")
	require.NoError(t, err)
	assert.Equal(t, models.BidStatusSubmitted, bid.Status)
	assert.Equal(t, "contractor-1", bid.BidderID)
}

func TestTenderServiceSubmitBidClosedTender(t *testing.T) {
	db, _, cleanup := newTxMock(t)
	defer cleanup()

	tenders := &mockTenderStore{tenders: map[string]models.Tender{"tender-1": newTenderFixture(models.TenderStageBiddingClosed)}}
	svc := NewTenderService(db, tenders, &mockBidStore{}, &mockIssueStore{}, NewAccessService(), &mockTenderCascader{}, &mockDelivery{}, false, zap.NewNop())

	_, err := svc.SubmitBid(context.Background(), contractor("contractor-1"), "tender-1", 1500, "fix it")
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
}

func TestTenderServiceSubmitBidDuplicateUndecided(t *testing.T) {
	db, _, cleanup := newTxMock(t)
	defer cleanup()

	tenders := &mockTenderStore{tenders: map[string]models.Tender{"tender-1": newTenderFixture(models.TenderStageBiddingOpen)}}
	bids := &mockBidStore{byTender: []models.Bid{
		{ID: "bid-1", TenderID: "tender-1", BidderID: "contractor-1", Status: models.BidStatusSubmitted},
	}}
	svc := NewTenderService(db, tenders, bids, &mockIssueStore{}, NewAccessService(), &mockTenderCascader{}, &mockDelivery{}, false, zap.NewNop())

	_, err := svc.SubmitBid(context.Background(), contractor("contractor-1"), "tender-1", 1800, "again")
	assert.ErrorIs(t, err, appErrors.ErrConflictingState)
}

func TestTenderServiceSubmitBidAfterWithdrawal(t *testing.T) {
	db, _, cleanup := newTxMock(t)
	defer cleanup()

	tenders := &mockTenderStore{tenders: map[string]models.Tender{"tender-1": newTenderFixture(models.TenderStageBiddingOpen)}}
	bids := &mockBidStore{byTender: []models.Bid{
		{ID: "bid-1", TenderID: "tender-1", BidderID: "contractor-1", Status: models.BidStatusWithdrawn},
	}}
	svc := NewTenderService(db, tenders, bids, &mockIssueStore{}, NewAccessService(), &mockTenderCascader{}, &mockDelivery{}, false, zap.NewNop())

	_, err := svc.SubmitBid(context.Background(), contractor("contractor-1"), "tender-1", 1800, "again")
	assert.NoError(t, err)
}

func TestTenderServiceEvaluateBid(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	// first evaluation also moves the bid to UNDER_EVALUATION
	mock.ExpectBegin()
	mock.ExpectCommit()

	tenders := &mockTenderStore{tenders: map[string]models.Tender{"tender-1": newTenderFixture(models.TenderStageUnderReview)}}
	bids := &mockBidStore{bids: map[string]models.Bid{
		"bid-1": {ID: "bid-1", TenderID: "tender-1", BidderID: "contractor-1", Status: models.BidStatusSubmitted},
	}}
	svc := NewTenderService(db, tenders, bids, &mockIssueStore{}, NewAccessService(), &mockTenderCascader{}, &mockDelivery{}, false, zap.NewNop())

	evaluation, err := svc.EvaluateBid(context.Background(), deptAdmin("dept-1"), "bid-1", &models.BidEvaluation{
		TechnicalScore:  90,
		FinancialScore:  60,
		ExperienceScore: 75,
		Recommendation:  models.RecommendAccept,
	})
	require.NoError(t, err)
	assert.InDelta(t, 75.0, evaluation.TotalScore, 0.001)
	assert.Contains(t, bids.statusUpdates, "bid-1:SUBMITTED>UNDER_EVALUATION")
}

func TestTenderServiceEvaluateBidOncePerEvaluator(t *testing.T) {
	db, _, cleanup := newTxMock(t)
	defer cleanup()

	tenders := &mockTenderStore{tenders: map[string]models.Tender{"tender-1": newTenderFixture(models.TenderStageUnderReview)}}
	bids := &mockBidStore{
		bids:          map[string]models.Bid{"bid-1": {ID: "bid-1", TenderID: "tender-1", Status: models.BidStatusUnderEvaluation}},
		hasEvaluation: true,
	}
	svc := NewTenderService(db, tenders, bids, &mockIssueStore{}, NewAccessService(), &mockTenderCascader{}, &mockDelivery{}, false, zap.NewNop())

	_, err := svc.EvaluateBid(context.Background(), deptAdmin("dept-1"), "bid-1", &models.BidEvaluation{Recommendation: models.RecommendAccept})
	assert.ErrorIs(t, err, appErrors.ErrConflictingState)
}

func TestTenderServiceEvaluateBidConcurrentDuplicateConflicts(t *testing.T) {
	db, _, cleanup := newTxMock(t)
	defer cleanup()

	// a racing evaluator slips in between the existence check and the insert
	tenders := &mockTenderStore{tenders: map[string]models.Tender{"tender-1": newTenderFixture(models.TenderStageUnderReview)}}
	bids := &mockBidStore{
		bids:    map[string]models.Bid{"bid-1": {ID: "bid-1", TenderID: "tender-1", Status: models.BidStatusUnderEvaluation}},
		evalErr: repository.ErrDuplicateEvaluation,
	}
	svc := NewTenderService(db, tenders, bids, &mockIssueStore{}, NewAccessService(), &mockTenderCascader{}, &mockDelivery{}, false, zap.NewNop())

	_, err := svc.EvaluateBid(context.Background(), deptAdmin("dept-1"), "bid-1", &models.BidEvaluation{Recommendation: models.RecommendAccept})
	assert.ErrorIs(t, err, appErrors.ErrConflictingState)
}

func TestTenderServiceWithdrawBidOwnerOnly(t *testing.T) {
	db, _, cleanup := newTxMock(t)
	defer cleanup()

	bids := &mockBidStore{bids: map[string]models.Bid{
		"bid-1": {ID: "bid-1", TenderID: "tender-1", BidderID: "contractor-1", Status: models.BidStatusSubmitted},
	}}
	svc := NewTenderService(db, &mockTenderStore{}, bids, &mockIssueStore{}, NewAccessService(), &mockTenderCascader{}, &mockDelivery{}, false, zap.NewNop())

	_, err := svc.WithdrawBid(context.Background(), contractor("contractor-2"), "bid-1")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestTenderServiceRejectBidNotifiesBidder(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	tenders := &mockTenderStore{tenders: map[string]models.Tender{"tender-1": newTenderFixture(models.TenderStageUnderReview)}}
	bids := &mockBidStore{bids: map[string]models.Bid{
		"bid-1": {ID: "bid-1", TenderID: "tender-1", BidderID: "contractor-1", Status: models.BidStatusUnderEvaluation},
	}}
	cascader := &mockTenderCascader{rejectEvents: []models.NotificationEvent{{ID: "evt-1"}}}
	delivery := &mockDelivery{}
	svc := NewTenderService(db, tenders, bids, &mockIssueStore{}, NewAccessService(), cascader, delivery, false, zap.NewNop())

	bid, err := svc.RejectBid(context.Background(), deptAdmin("dept-1"), "bid-1")
	require.NoError(t, err)
	assert.Equal(t, models.BidStatusRejected, bid.Status)
	assert.True(t, cascader.rejectCalled)
	assert.Len(t, delivery.enqueued, 1)
}

func TestTenderServiceCreateForcesOwnDepartment(t *testing.T) {
	db, _, cleanup := newTxMock(t)
	defer cleanup()

	tenders := &mockTenderStore{}
	svc := NewTenderService(db, tenders, &mockBidStore{}, &mockIssueStore{}, NewAccessService(), &mockTenderCascader{}, &mockDelivery{}, false, zap.NewNop())

	tender, err := svc.Create(context.Background(), deptAdmin("dept-1"), &models.Tender{
		Title:        "Pothole works",
		DepartmentID: "dept-other",
	})
	require.NoError(t, err)
	assert.Equal(t, "dept-1", tender.DepartmentID)
	assert.Equal(t, models.TenderStageCreated, tender.WorkflowStage)
}

func TestTenderServiceCreateRejectsForeignIssue(t *testing.T) {
	db, _, cleanup := newTxMock(t)
	defer cleanup()

	otherDept := "dept-other"
	issues := &mockIssueStore{issues: map[string]models.Issue{
		"issue-1": {ID: "issue-1", WorkflowStage: models.IssueStageDepartmentAssigned, AssignedDepartmentID: &otherDept},
	}}
	svc := NewTenderService(db, &mockTenderStore{}, &mockBidStore{}, issues, NewAccessService(), &mockTenderCascader{}, &mockDelivery{}, false, zap.NewNop())

	sourceID := "issue-1"
	_, err := svc.Create(context.Background(), deptAdmin("dept-1"), &models.Tender{
		Title:         "Pothole works",
		SourceIssueID: &sourceID,
	})
	assert.ErrorIs(t, err, appErrors.ErrReferentialViolation)
}

func TestTenderServiceListScopesContractor(t *testing.T) {
	db, _, cleanup := newTxMock(t)
	defer cleanup()

	tenders := &mockTenderStore{}
	svc := NewTenderService(db, tenders, &mockBidStore{}, &mockIssueStore{}, NewAccessService(), &mockTenderCascader{}, &mockDelivery{}, false, zap.NewNop())

	_, err := svc.List(context.Background(), contractor("contractor-1"), models.TenderFilter{})
	require.NoError(t, err)

	// pre-award window plus a second pass for the contractor's own awards
	require.Len(t, tenders.listFilters, 2)
	assert.ElementsMatch(t, []models.TenderStage{
		models.TenderStageBiddingOpen,
		models.TenderStageBiddingClosed,
		models.TenderStageUnderReview,
	}, tenders.listFilters[0].Stage)
	assert.Equal(t, "contractor-1", tenders.listFilters[1].ContractorID)
}

func TestTenderServiceListContractorCannotFilterPastAwards(t *testing.T) {
	db, _, cleanup := newTxMock(t)
	defer cleanup()

	mine, theirs := "contractor-1", "contractor-2"
	own := newTenderFixture(models.TenderStageAwarded)
	own.AwardedContractorID = &mine
	foreign := newTenderFixture(models.TenderStageAwarded)
	foreign.ID = "tender-2"
	foreign.AwardedContractorID = &theirs

	tenders := &mockTenderStore{listResp: []models.Tender{own, foreign}}
	svc := NewTenderService(db, tenders, &mockBidStore{}, &mockIssueStore{}, NewAccessService(), &mockTenderCascader{}, &mockDelivery{}, false, zap.NewNop())

	got, err := svc.List(context.Background(), contractor("contractor-1"), models.TenderFilter{
		Stage: []models.TenderStage{models.TenderStageAwarded},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "tender-1", got[0].ID)
}

func TestTenderServiceListContractorDeduplicatesOwnAward(t *testing.T) {
	db, _, cleanup := newTxMock(t)
	defer cleanup()

	mine := "contractor-1"
	open := newTenderFixture(models.TenderStageBiddingOpen)
	open.ID = "tender-2"
	awarded := newTenderFixture(models.TenderStageAwarded)
	awarded.AwardedContractorID = &mine

	tenders := &mockTenderStore{listResp: []models.Tender{open, awarded}}
	svc := NewTenderService(db, tenders, &mockBidStore{}, &mockIssueStore{}, NewAccessService(), &mockTenderCascader{}, &mockDelivery{}, false, zap.NewNop())

	got, err := svc.List(context.Background(), contractor("contractor-1"), models.TenderFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestTenderServiceListOwnBids(t *testing.T) {
	db, _, cleanup := newTxMock(t)
	defer cleanup()

	bids := &mockBidStore{byBidder: []models.Bid{
		{ID: "bid-1", TenderID: "tender-1", BidderID: "contractor-1", Status: models.BidStatusSubmitted},
		{ID: "bid-2", TenderID: "tender-2", BidderID: "contractor-1", Status: models.BidStatusRejected},
	}}
	svc := NewTenderService(db, &mockTenderStore{}, bids, &mockIssueStore{}, NewAccessService(), &mockTenderCascader{}, &mockDelivery{}, false, zap.NewNop())

	got, err := svc.ListOwnBids(context.Background(), contractor("contractor-1"))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = svc.ListOwnBids(context.Background(), &models.Actor{ID: "citizen-1", Role: models.RoleCitizen, Active: true})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
