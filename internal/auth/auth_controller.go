package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DhavalSuthar-24/arena/pkg/responses"
)

type AuthController struct {
	service *Service
}

func NewAuthController(service *Service) *AuthController {
	return &AuthController{service: service}
}

// @Summary      Register a new user
// @Description  Create a new player account with username, email and password.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        user  body  RegisterRequest  true  "User registration details"
// @Success      201   {object} AuthResponse "User registered successfully, returns token and user info"
// @Failure      400   {object} map[string]interface{} "Validation error or invalid input"
// @Failure      409   {object} map[string]interface{} "User with this email or username already exists"
// @Failure      500   {object} map[string]interface{} "Internal server error"
// @Router       /auth/register [post]
func (ac *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ValidationErrorResponse(c, err)
		return
	}

	resp, err := ac.service.Register(c.Request.Context(), req)
	if err != nil {
		responses.DomainErrorResponse(c, err)
		return
	}
	responses.SuccessResponse(c, http.StatusCreated, resp)
}

// @Summary      Login user
// @Description  Authenticate with email or username and password. Banned accounts are refused.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        credentials  body  LoginRequest  true  "Login credentials"
// @Success      200   {object} AuthResponse "Login successful, returns token and user info"
// @Failure      400   {object} map[string]interface{} "Invalid input"
// @Failure      401   {object} map[string]interface{} "Invalid credentials"
// @Failure      403   {object} map[string]interface{} "Account banned"
// @Failure      500   {object} map[string]interface{} "Internal server error"
// @Router       /auth/login [post]
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.ValidationErrorResponse(c, err)
		return
	}

	resp, err := ac.service.Login(c.Request.Context(), req)
	if err != nil {
		responses.DomainErrorResponse(c, err)
		return
	}
	responses.SuccessResponse(c, http.StatusOK, resp)
}
