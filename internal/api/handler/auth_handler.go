package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/seedlearn/seed-api/internal/core/domain"
	"github.com/seedlearn/seed-api/internal/core/ports"
)

const bearerTokenType = "Bearer"

// AuthHandler exposes registration, login, refresh and logout.
type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterStudent creates a student account.
//
// @Summary      Register a student
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/student/register [post]
func (h *AuthHandler) RegisterStudent(c echo.Context) error {
	return h.register(c, domain.RoleStudent)
}

// RegisterTeacher creates a teacher account. Requires an admin token or the
// X-Admin-Key header.
//
// @Summary      Register a teacher
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Security     AdminKey
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/teacher/register [post]
func (h *AuthHandler) RegisterTeacher(c echo.Context) error {
	return h.register(c, domain.RoleTeacher)
}

func (h *AuthHandler) register(c echo.Context, role domain.Role) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toRegisterResponse(user))
}

// LoginStudent authenticates a student and returns a token pair.
//
// @Summary      Student login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  tokenPairResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/student/login [post]
func (h *AuthHandler) LoginStudent(c echo.Context) error {
	return h.login(c, domain.RoleStudent)
}

// LoginTeacher authenticates a teacher and returns a token pair.
//
// @Summary      Teacher login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  tokenPairResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/teacher/login [post]
func (h *AuthHandler) LoginTeacher(c echo.Context) error {
	return h.login(c, domain.RoleTeacher)
}

// LoginAdmin authenticates an administrator and returns a token pair.
//
// @Summary      Administrator login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  tokenPairResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/admin/login [post]
func (h *AuthHandler) LoginAdmin(c echo.Context) error {
	return h.login(c, domain.RoleAdmin)
}

func (h *AuthHandler) login(c echo.Context, role domain.Role) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	var (
		pair *domain.TokenPair
		err  error
	)
	if role == domain.RoleAdmin {
		pair, err = h.authService.AuthenticateAdmin(ctx, req.Email, req.Password)
	} else {
		pair, err = h.authService.Authenticate(ctx, req.Email, req.Password, role)
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    bearerTokenType,
	})
}

// Refresh mints a new access token. The refresh token is not rotated.
//
// @Summary      Refresh the access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshTokenRequest  true  "Refresh token"
// @Success      200   {object}  accessTokenResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/token/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	access, err := h.authService.RefreshAccessToken(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, accessTokenResponse{AccessToken: access, TokenType: bearerTokenType})
}

// Logout revokes the refresh token. Issued access tokens stay valid until
// they expire.
//
// @Summary      Logout
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshTokenRequest  true  "Refresh token"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.authService.RevokeRefreshToken(c.Request().Context(), req.RefreshToken); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}
