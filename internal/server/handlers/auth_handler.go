package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/assettracker/internal/domain/models"
	"github.com/mamadbah2/assettracker/internal/service/auth"
)

const (
	sessionCookie = "session"
	sessionKey    = "session"
)

// AuthHandler exposes login/logout and guards the API with sessions.
type AuthHandler struct {
	svc    *auth.Service
	logger *zap.Logger
}

// NewAuthHandler constructs the HTTP handler adapter.
func NewAuthHandler(svc *auth.Service, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{svc: svc, logger: logger}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	User      string    `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login opens a session and returns its token, also set as a cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	session, err := h.svc.Login(req.Username, req.Password)
	if err != nil {
		respondError(c, h.logger, "login failed", err)
		return
	}

	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(sessionCookie, session.Token, maxAge, "/", "", false, true)
	c.JSON(http.StatusOK, loginResponse{Token: session.Token, User: session.User, ExpiresAt: session.ExpiresAt})
}

// Logout discards the caller's session.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.svc.Logout(tokenFrom(c))
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

// RequireSession rejects requests without a live session.
func (h *AuthHandler) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFrom(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		session, err := h.svc.Resolve(token)
		if err != nil {
			c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.Set(sessionKey, session)
		c.Next()
	}
}

func tokenFrom(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	token, _ := c.Cookie(sessionCookie)
	return token
}

func sessionFrom(c *gin.Context) models.Session {
	if v, ok := c.Get(sessionKey); ok {
		if session, ok := v.(models.Session); ok {
			return session
		}
	}
	return models.Session{}
}
