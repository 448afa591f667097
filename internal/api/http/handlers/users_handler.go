package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/bsc-kit/scorecard-api/internal/api/dto"
	"github.com/bsc-kit/scorecard-api/internal/auth"
	"github.com/bsc-kit/scorecard-api/internal/service"
	apperrors "github.com/bsc-kit/scorecard-api/pkg/util/errorutil"
)

// UsersHandler exposes user management endpoints.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// List handles GET /api/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.users.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(users)
}

// Get handles GET /api/users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	user, err := h.users.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// Update handles PUT /api/users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	claim, ok := auth.ClaimFromContext(c)
	if !ok {
		return apperrors.ErrUnauthenticated
	}

	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	user, err := h.users.Update(c.UserContext(), *claim, id, service.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// Delete handles DELETE /api/users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	claim, ok := auth.ClaimFromContext(c)
	if !ok {
		return apperrors.ErrUnauthenticated
	}

	user, err := h.users.Delete(c.UserContext(), *claim, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "user deleted",
		"usuario": user,
	})
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("id must be a positive integer", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}
