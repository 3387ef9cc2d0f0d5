package handler

import (
	"github.com/gin-gonic/gin"

	"solveit/internal/api/middleware"
	"solveit/internal/model"
	"solveit/internal/service"
	"solveit/pkg/jwt"
	"solveit/pkg/response"
)

// MustGetClaims returns the access token claims placed by JWTAuth.
// On false a 401 has been written and the caller should return.
func MustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(middleware.ClaimsKey)
	if !exists {
		response.Unauthorized(c, 10002, "not authenticated")
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok || claims.UserID == "" {
		response.Unauthorized(c, 10002, "not authenticated")
		return nil, false
	}
	return claims, true
}

// MustGetActor builds the service-level caller from the token claims
func MustGetActor(c *gin.Context) (service.Actor, bool) {
	claims, ok := MustGetClaims(c)
	if !ok {
		return service.Actor{}, false
	}
	role, known := model.ParseRole(claims.Role)
	if !known {
		response.Unauthorized(c, 10002, "unknown role in token")
		return service.Actor{}, false
	}
	return service.Actor{
		UserID:    claims.UserID,
		Role:      role,
		Name:      claims.Name,
		Email:     claims.Email,
		Phone:     claims.Phone,
		CollegeID: claims.CollegeID,
		StaffID:   claims.StaffID,
	}, true
}

// MustGetUserID caller's user id
func MustGetUserID(c *gin.Context) (string, bool) {
	claims, ok := MustGetClaims(c)
	if !ok {
		return "", false
	}
	return claims.UserID, true
}
