package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/grievances/models"
	"github.com/cppla/grievances/utils"
)

const statsCacheKey = grievanceCachePrefix + "stats"

// StatsController provides community-wide counters.
type StatsController struct {
	db    *gorm.DB
	cache *utils.Cache
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB, cache *utils.Cache) *StatsController {
	return &StatsController{db: db, cache: cache}
}

// GetStats returns aggregate statistics for the board.
func (s *StatsController) GetStats(ctx *gin.Context) {
	if b, ok := s.cache.GetBytes(ctx.Request.Context(), statsCacheKey); ok {
		ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
		return
	}

	db := s.db.WithContext(ctx.Request.Context())
	var users, grievances, resolved, comments, responded int64

	// A failed count degrades to 0 instead of failing the whole endpoint
	if err := db.Model(&models.User{}).Count(&users).Error; err != nil {
		users = 0
	}
	if err := db.Model(&models.Grievance{}).Count(&grievances).Error; err != nil {
		grievances = 0
	}
	if err := db.Model(&models.Grievance{}).Where("status IN ?", []string{models.StatusResolved, models.StatusClosed}).Count(&resolved).Error; err != nil {
		resolved = 0
	}
	if err := db.Model(&models.Grievance{}).Where("communication_status = ?", models.CommunicationResponded).Count(&responded).Error; err != nil {
		responded = 0
	}
	if err := db.Model(&models.Comment{}).Count(&comments).Error; err != nil {
		comments = 0
	}

	payload := gin.H{
		"users":      users,
		"grievances": grievances,
		"resolved":   resolved,
		"responded":  responded,
		"comments":   comments,
	}
	s.cache.SetJSON(ctx.Request.Context(), statsCacheKey, payload)
	ctx.JSON(http.StatusOK, payload)
}
