package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/grievances/services"
	"github.com/cppla/grievances/utils"
)

// UserController manages accounts, profiles and the partner link.
type UserController struct {
	users    *services.UserService
	partners *services.PartnerService
	issuer   *utils.TokenIssuer
	cache    *utils.Cache
}

// NewUserController creates a UserController. cache may be nil.
func NewUserController(users *services.UserService, partners *services.PartnerService, issuer *utils.TokenIssuer, cache *utils.Cache) *UserController {
	return &UserController{users: users, partners: partners, issuer: issuer, cache: cache}
}

// Register creates an account and returns a token for it.
func (u *UserController) Register(ctx *gin.Context) {
	var req struct {
		Username           string `json:"username" binding:"required"`
		Email              string `json:"email" binding:"required,email"`
		Password           string `json:"password" binding:"required,min=6"`
		RelationshipStatus string `json:"relationshipStatus"`
	}
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := u.users.Register(ctx.Request.Context(), services.RegisterInput{
		Username:           req.Username,
		Email:              req.Email,
		Password:           req.Password,
		RelationshipStatus: req.RelationshipStatus,
	})
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	u.respondToken(ctx, user.ID)
}

// Login verifies credentials and issues a token.
func (u *UserController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := u.users.Authenticate(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	u.respondToken(ctx, user.ID)
}

func (u *UserController) respondToken(ctx *gin.Context, userID uint) {
	token, err := u.issuer.GenerateToken(userID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"token": token})
}

// Profile returns the authenticated user.
func (u *UserController) Profile(ctx *gin.Context) {
	userID, ok := requesterID(ctx)
	if !ok {
		return
	}
	user, err := u.users.Profile(ctx.Request.Context(), userID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, user)
}

// UpdateProfile edits profile fields; preference objects are merged into the stored ones.
func (u *UserController) UpdateProfile(ctx *gin.Context) {
	userID, ok := requesterID(ctx)
	if !ok {
		return
	}

	var req struct {
		Username                 string                                  `json:"username"`
		Bio                      string                                  `json:"bio"`
		RelationshipStatus       string                                  `json:"relationshipStatus"`
		Avatar                   string                                  `json:"avatar"`
		Preferences              *services.PreferencesPatch              `json:"preferences"`
		CommunicationPreferences *services.CommunicationPreferencesPatch `json:"communicationPreferences"`
	}
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := u.users.UpdateProfile(ctx.Request.Context(), userID, services.ProfileInput{
		Username:                 req.Username,
		Bio:                      req.Bio,
		RelationshipStatus:       req.RelationshipStatus,
		Avatar:                   req.Avatar,
		Preferences:              req.Preferences,
		CommunicationPreferences: req.CommunicationPreferences,
	})
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	// grievance views embed author summaries
	u.cache.InvalidateByPrefix(ctx.Request.Context(), grievanceCachePrefix)
	ctx.JSON(http.StatusOK, user)
}

// LinkPartner links the requester with a registered user by email.
func (u *UserController) LinkPartner(ctx *gin.Context) {
	userID, ok := requesterID(ctx)
	if !ok {
		return
	}

	var req struct {
		PartnerEmail string `json:"partnerEmail" binding:"required,email"`
	}
	if !bindJSON(ctx, &req) {
		return
	}

	partner, err := u.partners.Link(ctx.Request.Context(), userID, req.PartnerEmail)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"msg": "Partner linked successfully!",
		"partner": gin.H{
			"id":       partner.ID,
			"username": partner.Username,
			"email":    partner.Email,
		},
	})
}

// UnlinkPartner clears the link on both sides.
func (u *UserController) UnlinkPartner(ctx *gin.Context) {
	userID, ok := requesterID(ctx)
	if !ok {
		return
	}

	if err := u.partners.Unlink(ctx.Request.Context(), userID); err != nil {
		if errors.Is(err, services.ErrNoPartner) {
			utils.Error(ctx, http.StatusBadRequest, "No partner linked")
			return
		}
		respondServiceError(ctx, err)
		return
	}
	utils.Message(ctx, http.StatusOK, "Partner unlinked successfully")
}

// Partner returns the linked partner's public fields.
func (u *UserController) Partner(ctx *gin.Context) {
	userID, ok := requesterID(ctx)
	if !ok {
		return
	}
	partner, err := u.partners.Partner(ctx.Request.Context(), userID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, presentPartner(partner))
}

// Stats returns the requester's counters.
func (u *UserController) Stats(ctx *gin.Context) {
	userID, ok := requesterID(ctx)
	if !ok {
		return
	}
	stats, err := u.users.Stats(ctx.Request.Context(), userID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, stats)
}
