package utils

import "github.com/gin-gonic/gin"

// FieldError describes one invalid request field.
type FieldError struct {
	Param string `json:"param"`
	Msg   string `json:"msg"`
}

// Message writes {"msg": message} with the given status.
func Message(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{"msg": message})
}

// Error aborts the chain with {"msg": message}.
func Error(ctx *gin.Context, status int, message string) {
	ctx.AbortWithStatusJSON(status, gin.H{"msg": message})
}

// ValidationErrors aborts with 400 and {"errors": [...]}.
func ValidationErrors(ctx *gin.Context, errs []FieldError) {
	ctx.AbortWithStatusJSON(400, gin.H{"errors": errs})
}
