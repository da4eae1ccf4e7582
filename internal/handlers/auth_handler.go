package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Userride/gmail-var-backend/internal/models"
	"github.com/Userride/gmail-var-backend/internal/services"
)

type AuthHandler struct {
	userService services.UserService
	sessions    services.SessionService
	clientURL   string // base URL of the client app, for the post-verify redirect
}

func NewAuthHandler(userService services.UserService, sessions services.SessionService, clientURL string) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		sessions:    sessions,
		clientURL:   strings.TrimRight(clientURL, "/"),
	}
}

// @Summary      Register a new account
// @Description  Creates an unverified user and emails a verification link
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        register  body      models.RegisterRequest  true  "Registration data"
// @Success      200       {object}  map[string]string
// @Failure      400       {object}  map[string]string
// @Failure      500       {object}  map[string]string
// @Router       /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[auth][register] bad request: bind json failed: err=%v", err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "All fields are required"})
		return
	}

	_, err := h.userService.Register(req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingFields):
			c.JSON(http.StatusBadRequest, gin.H{"message": "All fields are required"})
		case errors.Is(err, services.ErrEmailTaken):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Email already registered"})
		default:
			log.Printf("[auth][register] failed for email=%q: %v", req.Email, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		}
		return
	}

	// generic confirmation; the token travels only by email
	c.JSON(http.StatusOK, gin.H{"message": "Registered. Verification email sent."})
}

// @Summary      Verify an email address
// @Description  Consumes the emailed token, then redirects to the client login page with a session token
// @Tags         Auth
// @Produce      plain
// @Param        token  path  string  true  "Verification token"
// @Success      302
// @Failure      400  {string}  string
// @Failure      500  {string}  string
// @Router       /verify/{token} [get]
func (h *AuthHandler) Verify(c *gin.Context) {
	token := c.Param("token")

	user, err := h.userService.Verify(token)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			c.String(http.StatusBadRequest, "Invalid verification token")
			return
		}
		log.Printf("[auth][verify] failed: %v", err)
		c.String(http.StatusInternalServerError, "Server error")
		return
	}

	// auto-login: redirect carries the session token as a query parameter.
	// Deliberate contract; the token can leak via browser history/referrer.
	jwtToken, err := h.sessions.Issue(user.ID)
	if err != nil {
		log.Printf("[auth][verify] sign session token failed for userID=%d: %v", user.ID, err)
		c.String(http.StatusInternalServerError, "Server error")
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("%s/login?token=%s", h.clientURL, jwtToken))
}

// @Summary      Log in
// @Description  Checks credentials and returns a session token with the public user
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Credentials"
// @Success      200    {object}  map[string]interface{}
// @Failure      400    {object}  map[string]string
// @Failure      403    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[auth][login] bad request: bind json failed: err=%v", err)
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email and password required"})
		return
	}

	user, err := h.userService.Login(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid credentials"})
		case errors.Is(err, services.ErrNotVerified):
			c.JSON(http.StatusForbidden, gin.H{"message": "Please verify your email first"})
		default:
			log.Printf("[auth][login] failed for email=%q: %v", req.Email, err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		}
		return
	}

	jwtToken, err := h.sessions.Issue(user.ID)
	if err != nil {
		log.Printf("[auth][login] sign session token failed for userID=%d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": jwtToken,
		"user":  user.Public(),
	})
}
