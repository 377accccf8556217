package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/opencivic/civicflow-api/internal/middleware"
	"github.com/opencivic/civicflow-api/internal/models"
)

// Handlers bundles every handler for route registration.
type Handlers struct {
	Issues        *IssueHandler
	Tenders       *TenderHandler
	Bids          *BidHandler
	Progress      *ProgressHandler
	Documents     *DocumentHandler
	Notifications *NotificationHandler
	Directory     *DirectoryHandler
	Exports       *ExportHandler
}

// RegisterRoutes attaches the API surface under the given group. The actor
// middleware must already be installed on the group; role gates here are
// the coarse cut, relationship checks live in the access service.
func RegisterRoutes(api *gin.RouterGroup, h Handlers) {
	delegating := middleware.RequireRoles(
		models.RolePlatformAdmin, models.RoleAreaSupervisor, models.RoleDepartmentAdmin)
	departmental := middleware.RequireRoles(
		models.RolePlatformAdmin, models.RoleDepartmentAdmin)
	contractors := middleware.RequireRoles(models.RoleContractor)

	api.GET("/me", h.Directory.Me)
	api.GET("/areas", h.Directory.ListAreas)
	api.GET("/departments", h.Directory.ListDepartments)
	api.GET("/notifications", h.Notifications.List)

	issues := api.Group("/issues")
	{
		issues.POST("", h.Issues.Report)
		issues.GET("", h.Issues.List)
		issues.GET("/:id", h.Issues.Get)
		issues.GET("/:id/history", h.Issues.History)
		issues.POST("/:id/assignments", delegating, h.Issues.Delegate)
		issues.GET("/:id/assignments", h.Issues.ListAssignments)
		issues.POST("/:id/complete", h.Issues.Complete)
		issues.POST("/:id/resolve", departmental, h.Issues.Resolve)
	}

	tenders := api.Group("/tenders")
	{
		tenders.POST("", departmental, h.Tenders.Create)
		tenders.GET("", h.Tenders.List)
		tenders.GET("/:id", h.Tenders.Get)
		tenders.POST("/:id/open-bidding", departmental, h.Tenders.OpenBidding)
		tenders.POST("/:id/close-bidding", departmental, h.Tenders.CloseBidding)
		tenders.POST("/:id/start-review", departmental, h.Tenders.StartReview)
		tenders.POST("/:id/start-work", departmental, h.Tenders.StartWork)
		tenders.POST("/:id/verify", departmental, h.Tenders.Verify)
		tenders.POST("/:id/close", departmental, h.Tenders.Close)

		tenders.POST("/:id/bids", contractors, h.Bids.Submit)
		tenders.GET("/:id/bids", h.Bids.List)
		tenders.POST("/:id/bids/:bidId/accept", departmental, h.Bids.Accept)

		tenders.POST("/:id/progress", contractors, h.Progress.Submit)
		tenders.GET("/:id/progress", h.Progress.List)

		tenders.POST("/:id/documents", h.Documents.Upload)
		tenders.GET("/:id/documents", h.Documents.List)
	}

	bids := api.Group("/bids")
	{
		bids.GET("", contractors, h.Bids.ListOwn)
		bids.POST("/:id/reject", departmental, h.Bids.Reject)
		bids.POST("/:id/withdraw", contractors, h.Bids.Withdraw)
		bids.POST("/:id/evaluations", departmental, h.Bids.Evaluate)
		bids.GET("/:id/evaluations", departmental, h.Bids.ListEvaluations)
	}

	api.POST("/progress/:id/review", departmental, h.Progress.Review)
	api.GET("/documents/:id/link", h.Documents.SignDownload)
	api.GET("/departments/:id/tenders/export", departmental, h.Exports.TenderRegister)
}
