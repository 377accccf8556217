package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/opencivic/civicflow-api/internal/middleware"
	"github.com/opencivic/civicflow-api/internal/models"
)

func actorFromContext(c *gin.Context) *models.Actor {
	return middleware.CurrentActor(c)
}

// pageWindow converts page/limit query values into a limit and offset.
func pageWindow(c *gin.Context) (limit, offset int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 200 {
		limit = 20
	}
	return limit, (page - 1) * limit
}

// splitStages parses a comma separated stage filter.
func splitStages(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	stages := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			stages = append(stages, trimmed)
		}
	}
	return stages
}
