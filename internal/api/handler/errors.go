package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"solveit/internal/api/middleware"
	"solveit/internal/service"
	pkgerrors "solveit/pkg/errors"
	"solveit/pkg/response"
)

// Error codes. 1xxxx are transport/auth level, 2xxxx domain level.
const (
	CodeBadRequest        = 10001
	CodeUnauthenticated   = 10002
	CodeForbidden         = 10003
	CodeBodyTooLarge      = 10005
	CodeInvalidCredential = 11001
	CodeInvalidToken      = 11002
	CodeAccountDisabled   = 11003
	CodeNotFound          = 20001
	CodeConflict          = 20002
	CodeValidation        = 20003
	CodeNoEligibleStaff   = 20004
)

// respondError maps service errors onto HTTP by category
func respondError(c *gin.Context, err error) {
	var ve *pkgerrors.ValidationError
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, CodeInvalidCredential, "invalid email or password")
	case errors.Is(err, service.ErrInvalidToken):
		response.Unauthorized(c, CodeInvalidToken, err.Error())
	case errors.Is(err, service.ErrAccountDisabled):
		response.Forbidden(c, CodeAccountDisabled, "account disabled")
	case errors.Is(err, pkgerrors.ErrNotFound):
		response.NotFound(c, CodeNotFound, err.Error())
	case errors.Is(err, pkgerrors.ErrForbidden):
		response.Forbidden(c, CodeForbidden, err.Error())
	case errors.Is(err, pkgerrors.ErrConflict):
		response.Conflict(c, CodeConflict, err.Error())
	case errors.Is(err, pkgerrors.ErrNoEligibleStaff):
		response.UnprocessableEntity(c, CodeNoEligibleStaff, err.Error())
	case errors.As(err, &ve):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, CodeValidation, ve.Error(), ve.Field)
	case errors.Is(err, pkgerrors.ErrValidation):
		response.UnprocessableEntity(c, CodeValidation, err.Error())
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}

// respondBindError reports a request that failed to decode or validate
func respondBindError(c *gin.Context, err error) {
	if middleware.IsBodyTooLarge(err) {
		response.Error(c, http.StatusRequestEntityTooLarge, CodeBodyTooLarge, "request body too large")
		return
	}
	response.ErrorWithDetails(c, http.StatusBadRequest, CodeBadRequest, "invalid request parameters", err.Error())
}
