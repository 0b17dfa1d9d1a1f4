package controllers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cppla/grievances/middleware"
	"github.com/cppla/grievances/services"
	"github.com/cppla/grievances/utils"
)

func init() {
	// Report binding failures under the JSON field name clients actually send
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

var serviceErrors = []struct {
	err    error
	status int
	msg    string
}{
	{services.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{services.ErrGrievanceNotFound, http.StatusNotFound, "Grievance not found"},
	{services.ErrPartnerNotFound, http.StatusNotFound, "Partner not found. They need to register first."},
	{services.ErrNoPartner, http.StatusNotFound, "No partner linked"},
	{services.ErrNotAuthorized, http.StatusUnauthorized, "Not authorized"},
	{services.ErrAlreadyLinked, http.StatusBadRequest, "Already linked with this partner"},
	{services.ErrSelfLink, http.StatusBadRequest, "You cannot link with yourself"},
	{services.ErrAlreadyHasPartner, http.StatusBadRequest, "Already linked with another partner. Unlink first."},
	{services.ErrPartnerUnavailable, http.StatusBadRequest, "Partner is already linked with someone else"},
	{services.ErrUserExists, http.StatusBadRequest, "User already exists"},
	{services.ErrInvalidCredentials, http.StatusBadRequest, "Invalid credentials"},
}

// respondServiceError maps service errors to HTTP responses. Unknown errors are logged and hidden.
func respondServiceError(ctx *gin.Context, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		utils.ValidationErrors(ctx, verr.Fields)
		return
	}
	for _, se := range serviceErrors {
		if errors.Is(err, se.err) {
			utils.Error(ctx, se.status, se.msg)
			return
		}
	}

	userID, _ := middleware.UserID(ctx)
	utils.Logger.Error("request failed",
		zap.Error(err),
		zap.String("request_id", utils.RequestID(ctx)),
		zap.String("method", ctx.Request.Method),
		zap.String("path", ctx.FullPath()),
		zap.Uint("user_id", userID),
	)
	utils.Error(ctx, http.StatusInternalServerError, "Server error")
}

// bindJSON binds the request body and writes the 400 response itself on failure.
func bindJSON(ctx *gin.Context, req interface{}) bool {
	err := ctx.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]utils.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, utils.FieldError{Param: fe.Field(), Msg: fieldMessage(fe)})
		}
		utils.ValidationErrors(ctx, fields)
		return false
	}
	utils.Error(ctx, http.StatusBadRequest, "Invalid request payload")
	return false
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "Please include a valid email"
	case "min":
		return fe.Field() + " must be at least " + fe.Param() + " characters"
	case "max":
		return fe.Field() + " cannot exceed " + fe.Param() + " characters"
	default:
		return fe.Field() + " is invalid"
	}
}

// requesterID reads the id set by the auth middleware. Routes behind AuthRequired always have one.
func requesterID(ctx *gin.Context) (uint, bool) {
	id, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "No token, authorization denied")
	}
	return id, ok
}
