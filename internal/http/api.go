package http

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"gatekeeper/internal/domain"
	"gatekeeper/internal/service"
	"gatekeeper/internal/session"
)

const (
	msgMissingCredentials = "Please provide username and password."
	msgUsernameTaken      = "Username taken, pick a different one."
	msgDenied             = "You shall not pass!"
)

// Options configures the middleware stack installed by RegisterRoutes.
type Options struct {
	SessionName    string
	SessionStore   sessions.Store
	RollingSession bool
	AllowedOrigins []string
}

// Handler wires HTTP routes to the user service.
type Handler struct {
	users  service.UserService
	logger *logrus.Logger
	opts   Options
}

// NewHandler returns a Handler serving users; a nil logger falls back to logrus defaults.
func NewHandler(users service.UserService, logger *logrus.Logger, opts Options) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		users:  users,
		logger: logger,
		opts:   opts,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger))
	router.Use(securityHeaders())
	router.Use(corsMiddleware(h.opts.AllowedOrigins))
	router.Use(session.Middleware(h.opts.SessionName, h.opts.SessionStore))
	if h.opts.RollingSession {
		router.Use(session.Rolling())
	}

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Server up!"})
	})

	api := router.Group("/api")
	{
		api.POST("/register", h.register)
		api.POST("/login", h.login)
		api.GET("/logout", h.logout)
		api.GET("/users", RequireSession(), h.listUsers)
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerResponse struct {
	UserID int64 `json:"userId"`
}

// UserResponse is the public view of a user; it never carries credentials.
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgMissingCredentials})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrMissingCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"message": msgMissingCredentials})
		return
	case errors.Is(err, service.ErrUserAlreadyExists):
		c.JSON(http.StatusInternalServerError, gin.H{"msg": msgUsernameTaken})
		return
	default:
		h.logger.WithError(err).Error("register user")
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
		return
	}

	if err := session.Login(c, user.Username); err != nil {
		h.logger.WithError(err).Error("save session after register")
		c.JSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, registerResponse{UserID: user.ID})
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": msgMissingCredentials})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": msgDenied})
			return
		}
		h.logger.WithError(err).Error("authenticate user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := session.Login(c, user.Username); err != nil {
		h.logger.WithError(err).Error("save session after login")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Welcome " + user.Username + "!"})
}

func (h *Handler) logout(c *gin.Context) {
	if err := session.Err(c); err != nil {
		_ = c.Error(err)
		h.logger.WithError(err).Error("load session for logout")
		c.String(http.StatusOK, "error encountered logging out")
		return
	}
	if !session.Active(c) {
		c.Status(http.StatusOK)
		return
	}

	if err := session.Destroy(c); err != nil {
		h.logger.WithError(err).Warn("destroy session")
		c.String(http.StatusOK, "error encountered logging out")
		return
	}
	c.String(http.StatusOK, "come back soon!")
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("list users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]UserResponse, len(users))
	for i := range users {
		resp[i] = userToResponse(users[i])
	}
	c.JSON(http.StatusOK, resp)
}

func userToResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:       user.ID,
		Username: user.Username,
	}
}
