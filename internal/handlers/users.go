package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/store_api/internal/hash"
	"github.com/Skotchmaster/store_api/internal/httperr"
	authmw "github.com/Skotchmaster/store_api/internal/middleware/auth"
	"github.com/Skotchmaster/store_api/internal/models"
	"github.com/Skotchmaster/store_api/internal/token"
)

type UserHandler struct {
	DB     *gorm.DB
	Tokens *token.Service
}

func (h *UserHandler) GetAllUsers(c echo.Context) error {
	var users []models.User
	if err := h.DB.Where("role = ?", models.RoleUser).Find(&users).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

func (h *UserHandler) GetSingleUser(c echo.Context) error {
	actor, ok := authmw.IdentityFrom(c)
	if !ok {
		return httperr.Unauthenticated("authentication invalid")
	}

	var user models.User
	if err := h.DB.Where("id = ?", c.Param("id")).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.NotFound(fmt.Sprintf("no user with id : %s", c.Param("id")))
		}
		return err
	}

	if err := authmw.CheckPermissions(actor, user.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

// ShowCurrentUser answers straight from the verified token payload, without a
// database read.
func (h *UserHandler) ShowCurrentUser(c echo.Context) error {
	actor, ok := authmw.IdentityFrom(c)
	if !ok {
		return httperr.Unauthenticated("authentication invalid")
	}
	return c.JSON(http.StatusOK, echo.Map{"user": actor})
}

type updateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *UserHandler) UpdateUser(c echo.Context) error {
	actor, ok := authmw.IdentityFrom(c)
	if !ok {
		return httperr.Unauthenticated("authentication invalid")
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("invalid request body")
	}
	if req.Name == "" || req.Email == "" {
		return httperr.BadRequest("please provide name and email")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return httperr.BadRequest("please provide a valid email")
	}

	var user models.User
	if err := h.DB.First(&user, actor.UserID).Error; err != nil {
		return err
	}

	user.Name = req.Name
	user.Email = req.Email
	if err := h.DB.Save(&user).Error; err != nil {
		if isDuplicateErr(err) {
			return httperr.BadRequest("email already exists")
		}
		return err
	}

	// Reissue the cookie so the embedded name stays current.
	tokenUser := token.Identity{Name: user.Name, UserID: user.ID, Role: user.Role}
	if err := h.Tokens.Attach(c, tokenUser); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"user": tokenUser})
}

type updatePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (h *UserHandler) UpdateUserPassword(c echo.Context) error {
	actor, ok := authmw.IdentityFrom(c)
	if !ok {
		return httperr.Unauthenticated("authentication invalid")
	}

	var req updatePasswordRequest
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("invalid request body")
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		return httperr.BadRequest("please provide both old and new password")
	}
	if len(req.NewPassword) < 6 {
		return httperr.BadRequest("password must be at least 6 characters")
	}

	var user models.User
	if err := h.DB.First(&user, actor.UserID).Error; err != nil {
		return err
	}
	if !hash.CheckPassword(user.PasswordHash, req.OldPassword) {
		return httperr.Unauthenticated("invalid credentials")
	}

	pwHash, err := hash.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = pwHash
	if err := h.DB.Save(&user).Error; err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"msg": "password updated"})
}
