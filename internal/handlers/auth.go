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
	"github.com/Skotchmaster/store_api/internal/models"
	"github.com/Skotchmaster/store_api/internal/mykafka"
	"github.com/Skotchmaster/store_api/internal/token"
)

type AuthHandler struct {
	DB       *gorm.DB
	Tokens   *token.Service
	Producer *mykafka.Producer
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("invalid request body")
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		return httperr.BadRequest("please provide name, email and password")
	}
	if len(req.Name) < 3 || len(req.Name) > 50 {
		return httperr.BadRequest("name must be between 3 and 50 characters")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return httperr.BadRequest("please provide a valid email")
	}
	if len(req.Password) < 6 {
		return httperr.BadRequest("password must be at least 6 characters")
	}

	var existing models.User
	err := h.DB.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return httperr.BadRequest("email already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	// The first registered account becomes the admin.
	var count int64
	if err := h.DB.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	role := models.RoleUser
	if count == 0 {
		role = models.RoleAdmin
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return err
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: pwHash,
		Role:         role,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		if isDuplicateErr(err) {
			return httperr.BadRequest("email already exists")
		}
		return err
	}

	tokenUser := token.Identity{Name: user.Name, UserID: user.ID, Role: user.Role}
	if err := h.Tokens.Attach(c, tokenUser); err != nil {
		return err
	}

	publish(c, h.Producer, "user_events", fmt.Sprint(user.ID), map[string]any{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
	})

	return c.JSON(http.StatusCreated, echo.Map{"user": tokenUser})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("invalid request body")
	}

	if req.Email == "" || req.Password == "" {
		return httperr.BadRequest("please provide email and password")
	}

	// Unknown email and wrong password share one message so the response
	// never reveals whether an account exists.
	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.Unauthenticated("invalid credentials")
		}
		return err
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return httperr.Unauthenticated("invalid credentials")
	}

	tokenUser := token.Identity{Name: user.Name, UserID: user.ID, Role: user.Role}
	if err := h.Tokens.Attach(c, tokenUser); err != nil {
		return err
	}

	publish(c, h.Producer, "user_events", fmt.Sprint(user.ID), map[string]any{
		"type":   "user_logged_in",
		"userID": user.ID,
		"email":  user.Email,
	})

	return c.JSON(http.StatusOK, echo.Map{"user": tokenUser})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	h.Tokens.Clear(c)
	return c.JSON(http.StatusOK, echo.Map{"msg": "user logged out"})
}
