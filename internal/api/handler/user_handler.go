package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/seedlearn/seed-api/internal/core/domain"
	"github.com/seedlearn/seed-api/internal/core/ports"
)

// UserHandler serves the account directory and the caller's own profile.
type UserHandler struct {
	directory ports.DirectoryService
}

func NewUserHandler(directory ports.DirectoryService) *UserHandler {
	return &UserHandler{directory: directory}
}

// List returns a handler listing users of role, or of every role when role
// is empty.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (1-based)"
// @Param        limit  query     int  false  "Page size (max 100)"
// @Success      200    {object}  listUsersResponse
// @Failure      400    {object}  errorResponse
// @Failure      401    {object}  errorResponse
// @Router       /api/users [get]
// @Router       /api/students [get]
// @Router       /api/teachers [get]
func (h *UserHandler) List(role domain.Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := ctxClaims(c)
		if err != nil {
			return err
		}

		var page, limit int
		if err := echo.QueryParamsBinder(c).
			Int("page", &page).
			Int("limit", &limit).
			BindError(); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "page and limit must be integers")
		}

		res, err := h.directory.ListUsers(c.Request().Context(), ports.ListUsersInput{
			Role:  role,
			Page:  page,
			Limit: limit,
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, toListUsersResponse(res, claims.IsAdmin()))
	}
}

// Get returns a handler fetching one user by id, restricted to role when set.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  publicUserResponse
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/users/{id} [get]
// @Router       /api/students/{id} [get]
// @Router       /api/teachers/{id} [get]
func (h *UserHandler) Get(role domain.Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := ctxClaims(c)
		if err != nil {
			return err
		}

		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || id <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
		}

		user, err := h.directory.GetUser(c.Request().Context(), id, role)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, toUserView(user, claims.IsAdmin()))
	}
}

// Me returns the caller's own profile.
//
// @Summary      Current user profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/users/me [get]
// @Router       /api/student/me [get]
// @Router       /api/teacher/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	id, err := ctxUserID(c)
	if err != nil {
		return err
	}

	user, err := h.directory.GetUser(c.Request().Context(), id, "")
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// DeleteMe soft-deletes the caller's account after confirming the password.
//
// @Summary      Delete own account
// @Tags         users
// @Accept       json
// @Security     BearerAuth
// @Param        body  body  deleteAccountRequest  true  "Password confirmation"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/users/me [delete]
func (h *UserHandler) DeleteMe(c echo.Context) error {
	id, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req deleteAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.directory.DeleteAccount(c.Request().Context(), id, req.Password); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
