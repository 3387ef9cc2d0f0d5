package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"solveit/internal/dto"
	"solveit/internal/service"
	"solveit/pkg/response"
)

const refreshCookieName = "refresh_token"

// CookieConfig refresh-token cookie attributes
type CookieConfig struct {
	Secure bool
	MaxAge time.Duration
}

// AuthHandler authentication endpoints
type AuthHandler struct {
	authSvc service.AuthService
	cookies CookieConfig
}

// NewAuthHandler creates an AuthHandler
func NewAuthHandler(authSvc service.AuthService, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, cookies: cookies}
}

// Login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	response.OK(c, result)
}

// Register student self-registration
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.authSvc.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	response.Created(c, result)
}

// Refresh rotates the token pair. The refresh token comes from the body or the cookie.
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	token := h.refreshTokenFrom(c)
	if token == "" {
		response.BadRequest(c, CodeBadRequest, "refresh_token is required")
		return
	}

	result, err := h.authSvc.Refresh(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	response.OK(c, result)
}

// Logout revokes the presented access token and the refresh token, if supplied
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := MustGetClaims(c)
	if !ok {
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), claims, h.refreshTokenFrom(c)); err != nil {
		respondError(c, err)
		return
	}

	h.clearRefreshCookie(c)
	response.OK(c, nil)
}

// Me current account
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.Me(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, user)
}

// ChangePassword
// PUT /api/v1/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		respondError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *AuthHandler) refreshTokenFrom(c *gin.Context) string {
	var req dto.RefreshTokenRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err == nil && req.RefreshToken != "" {
			return req.RefreshToken
		}
	}
	if v, err := c.Cookie(refreshCookieName); err == nil {
		return v
	}
	return ""
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, token, int(h.cookies.MaxAge.Seconds()), "/api/v1/auth", "", h.cookies.Secure, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, "", -1, "/api/v1/auth", "", h.cookies.Secure, true)
}
