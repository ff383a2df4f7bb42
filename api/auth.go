package api

import (
	"kontor/config"
	"kontor/database"
	"kontor/middleware"
	"kontor/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	cfg *config.Config
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50" example:"freelancer"`
	Password string `json:"password" binding:"required,min=6,max=50" example:"password123"`
	Email    string `json:"email" binding:"omitempty,email" example:"me@example.com"`
}

// LoginRequest is the login payload; username or email both work.
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"freelancer"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token    string      `json:"token"`
	UserInfo models.User `json:"user_info"`
}

// Register creates a new account
// @Summary Register
// @Description Creates a new user account. New accounts start locked until activated.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "registration payload"
// @Success 200 {object} Response{data=models.User}
// @Failure 400 {object} Response
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "invalid request"))
		return
	}

	var existingUser models.User
	if err := database.DB.Where("username = ?", req.Username).First(&existingUser).Error; err == nil {
		BadRequest(c, "username already taken")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		InternalError(c, "hashing password failed")
		return
	}

	user := models.User{
		Username: req.Username,
		Password: string(hashedPassword),
		Email:    req.Email,
		Status:   models.UserStatusLocked,
	}

	if err := database.DB.Create(&user).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "creating user failed"))
		return
	}

	SuccessWithMessage(c, "registered", user)
}

// Login issues a JWT token
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "login payload"
// @Success 200 {object} Response{data=LoginResponse}
// @Failure 401 {object} Response
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "invalid request"))
		return
	}

	var user models.User
	if err := database.DB.Where("username = ? OR email = ?", req.Username, req.Username).First(&user).Error; err != nil {
		Unauthorized(c, "wrong username or password")
		return
	}

	if user.Status != models.UserStatusActive {
		Unauthorized(c, "account is locked")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		Unauthorized(c, "wrong username or password")
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Username, h.cfg.JWT.ExpireTime)
	if err != nil {
		InternalError(c, "issuing token failed")
		return
	}

	Success(c, LoginResponse{Token: token, UserInfo: user})
}

// GetProfile returns the authenticated user
// @Summary Profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=models.User}
// @Failure 401 {object} Response
// @Router /api/v1/auth/profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		NotFound(c, "user not found")
		return
	}

	Success(c, user)
}
