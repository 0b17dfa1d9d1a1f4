package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/grievances/models"
	"github.com/cppla/grievances/services"
	"github.com/cppla/grievances/utils"
)

const grievanceCachePrefix = "cache:grievances:"

// GrievanceController serves the grievance feed and every per-grievance operation.
type GrievanceController struct {
	grievances *services.GrievanceService
	cache      *utils.Cache
}

// NewGrievanceController creates a GrievanceController. cache may be nil.
func NewGrievanceController(grievances *services.GrievanceService, cache *utils.Cache) *GrievanceController {
	return &GrievanceController{grievances: grievances, cache: cache}
}

// ListGrievances returns the public feed. partnerOnly=true needs a token and narrows the feed
// to the requester and their partner.
func (g *GrievanceController) ListGrievances(ctx *gin.Context) {
	filter := services.ListFilter{
		Category: strings.TrimSpace(ctx.Query("category")),
		Severity: strings.TrimSpace(ctx.Query("severity")),
		Status:   strings.TrimSpace(ctx.Query("status")),
		Search:   strings.TrimSpace(ctx.Query("search")),
	}

	if ctx.Query("partnerOnly") == "true" {
		userID, ok := requesterID(ctx)
		if !ok {
			return
		}
		ids, err := g.grievances.AuthorScope(ctx.Request.Context(), userID)
		if err != nil {
			respondServiceError(ctx, err)
			return
		}
		filter.AuthorIDs = ids
	}

	// Only the plain filtered feed is cached, to keep the key space small
	var cacheKey string
	if filter.Search == "" && len(filter.AuthorIDs) == 0 {
		cacheKey = fmt.Sprintf("%slist:cat=%s:sev=%s:status=%s", grievanceCachePrefix, filter.Category, filter.Severity, filter.Status)
		if g.serveCached(ctx, cacheKey) {
			return
		}
	}

	list, err := g.grievances.List(ctx.Request.Context(), filter)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	payload := gin.H{"grievances": presentGrievances(list)}
	if cacheKey != "" {
		g.cache.SetJSON(ctx.Request.Context(), cacheKey, payload)
	}
	ctx.JSON(http.StatusOK, payload)
}

// PartnerGrievances lists grievances written by the requester or their partner.
func (g *GrievanceController) PartnerGrievances(ctx *gin.Context) {
	userID, ok := requesterID(ctx)
	if !ok {
		return
	}
	list, err := g.grievances.PartnerFeed(ctx.Request.Context(), userID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"grievances": presentGrievances(list)})
}

// GetGrievance returns one grievance in full.
func (g *GrievanceController) GetGrievance(ctx *gin.Context) {
	id, ok := grievanceID(ctx)
	if !ok {
		return
	}

	cacheKey := grievanceCachePrefix + "detail:" + strconv.FormatUint(uint64(id), 10)
	if g.serveCached(ctx, cacheKey) {
		return
	}

	grievance, err := g.grievances.Get(ctx.Request.Context(), id)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	view := presentGrievance(grievance, true)
	g.cache.SetJSON(ctx.Request.Context(), cacheKey, view)
	ctx.JSON(http.StatusOK, view)
}

// CreateGrievance files a grievance for the requester.
func (g *GrievanceController) CreateGrievance(ctx *gin.Context) {
	userID, ok := requesterID(ctx)
	if !ok {
		return
	}

	var req struct {
		Title                string   `json:"title" binding:"required"`
		Description          string   `json:"description" binding:"required"`
		Category             string   `json:"category" binding:"required"`
		Severity             string   `json:"severity" binding:"required"`
		BoyfriendName        string   `json:"boyfriendName" binding:"required"`
		RelationshipDuration string   `json:"relationshipDuration" binding:"required"`
		Evidence             []string `json:"evidence"`
		Tags                 []string `json:"tags"`
		IsAnonymous          bool     `json:"isAnonymous"`
	}
	if !bindJSON(ctx, &req) {
		return
	}

	grievance, err := g.grievances.Create(ctx.Request.Context(), userID, services.CreateInput{
		Title:                req.Title,
		Description:          req.Description,
		Category:             req.Category,
		Severity:             req.Severity,
		BoyfriendName:        req.BoyfriendName,
		RelationshipDuration: req.RelationshipDuration,
		Evidence:             req.Evidence,
		Tags:                 req.Tags,
		IsAnonymous:          req.IsAnonymous,
	})
	g.respondMutation(ctx, grievance, err)
}

// UpdateGrievance edits a grievance as its author or the author's partner.
func (g *GrievanceController) UpdateGrievance(ctx *gin.Context) {
	userID, ok := requesterID(ctx)
	if !ok {
		return
	}
	id, ok := grievanceID(ctx)
	if !ok {
		return
	}

	var req struct {
		Title                string   `json:"title"`
		Description          string   `json:"description"`
		Category             string   `json:"category"`
		Severity             string   `json:"severity"`
		Status               string   `json:"status"`
		CommunicationStatus  string   `json:"communicationStatus"`
		BoyfriendName        string   `json:"boyfriendName"`
		RelationshipDuration string   `json:"relationshipDuration"`
		Evidence             []string `json:"evidence"`
		Tags                 []string `json:"tags"`
		PartnerResponse      string   `json:"partnerResponse"`
	}
	if !bindJSON(ctx, &req) {
		return
	}

	grievance, err := g.grievances.Update(ctx.Request.Context(), userID, id, services.UpdateInput{
		Title:                req.Title,
		Description:          req.Description,
		Category:             req.Category,
		Severity:             req.Severity,
		Status:               req.Status,
		CommunicationStatus:  req.CommunicationStatus,
		BoyfriendName:        req.BoyfriendName,
		RelationshipDuration: req.RelationshipDuration,
		Evidence:             req.Evidence,
		Tags:                 req.Tags,
		PartnerResponse:      req.PartnerResponse,
	})
	g.respondMutation(ctx, grievance, err)
}

// DeleteGrievance removes a grievance. Author only.
func (g *GrievanceController) DeleteGrievance(ctx *gin.Context) {
	userID, ok := requesterID(ctx)
	if !ok {
		return
	}
	id, ok := grievanceID(ctx)
	if !ok {
		return
	}

	if err := g.grievances.Delete(ctx.Request.Context(), userID, id); err != nil {
		respondServiceError(ctx, err)
		return
	}
	g.cache.InvalidateByPrefix(ctx.Request.Context(), grievanceCachePrefix)
	utils.Message(ctx, http.StatusOK, "Grievance removed")
}

// ToggleLike likes or unlikes a grievance.
func (g *GrievanceController) ToggleLike(ctx *gin.Context) {
	userID, ok := requesterID(ctx)
	if !ok {
		return
	}
	id, ok := grievanceID(ctx)
	if !ok {
		return
	}

	grievance, err := g.grievances.ToggleLike(ctx.Request.Context(), userID, id)
	g.respondMutation(ctx, grievance, err)
}

// AddComment adds a comment to a grievance.
func (g *GrievanceController) AddComment(ctx *gin.Context) {
	userID, ok := requesterID(ctx)
	if !ok {
		return
	}
	id, ok := grievanceID(ctx)
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if !bindJSON(ctx, &req) {
		return
	}

	grievance, err := g.grievances.Comment(ctx.Request.Context(), userID, id, req.Text)
	g.respondMutation(ctx, grievance, err)
}

// PartnerResponse sets the response slot. Only the author's linked partner may respond.
func (g *GrievanceController) PartnerResponse(ctx *gin.Context) {
	userID, ok := requesterID(ctx)
	if !ok {
		return
	}
	id, ok := grievanceID(ctx)
	if !ok {
		return
	}

	var req struct {
		Response string `json:"response" binding:"required"`
	}
	if !bindJSON(ctx, &req) {
		return
	}

	grievance, err := g.grievances.Respond(ctx.Request.Context(), userID, id, req.Response)
	if errors.Is(err, services.ErrNotAuthorized) {
		utils.Error(ctx, http.StatusUnauthorized, "Not authorized to respond to this grievance")
		return
	}
	g.respondMutation(ctx, grievance, err)
}

// MarkRead marks the partner response as read. Author only.
func (g *GrievanceController) MarkRead(ctx *gin.Context) {
	userID, ok := requesterID(ctx)
	if !ok {
		return
	}
	id, ok := grievanceID(ctx)
	if !ok {
		return
	}

	grievance, err := g.grievances.MarkRead(ctx.Request.Context(), userID, id)
	g.respondMutation(ctx, grievance, err)
}

func (g *GrievanceController) respondMutation(ctx *gin.Context, grievance *models.Grievance, err error) {
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	g.cache.InvalidateByPrefix(ctx.Request.Context(), grievanceCachePrefix)
	ctx.JSON(http.StatusOK, presentGrievance(grievance, true))
}

func (g *GrievanceController) serveCached(ctx *gin.Context, key string) bool {
	if g.cache == nil {
		return false
	}
	b, ok := g.cache.GetBytes(ctx.Request.Context(), key)
	if !ok {
		utils.CacheLookups.WithLabelValues("miss").Inc()
		return false
	}
	utils.CacheLookups.WithLabelValues("hit").Inc()
	ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
	return true
}

// grievanceID parses :id. A malformed id is reported like a missing grievance.
func grievanceID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusNotFound, "Grievance not found")
		return 0, false
	}
	return uint(id), true
}
