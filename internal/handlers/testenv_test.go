package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/store_api/internal/config"
	"github.com/Skotchmaster/store_api/internal/hash"
	"github.com/Skotchmaster/store_api/internal/httperr"
	authmw "github.com/Skotchmaster/store_api/internal/middleware/auth"
	"github.com/Skotchmaster/store_api/internal/models"
	"github.com/Skotchmaster/store_api/internal/mykafka"
	"github.com/Skotchmaster/store_api/internal/token"
)

type testEnv struct {
	T      *testing.T
	E      *echo.Echo
	DB     *gorm.DB
	Tokens *token.Service

	Auth     *AuthHandler
	Users    *UserHandler
	Products *ProductHandler
	Reviews  *ReviewHandler
	Orders   *OrderHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	tokens, err := token.New([]byte("test-jwt-secret"), 24*time.Hour, false)
	require.NoError(t, err)

	producer := mykafka.NewProducer(nil)

	return &testEnv{
		T:        t,
		E:        echo.New(),
		DB:       db,
		Tokens:   tokens,
		Auth:     &AuthHandler{DB: db, Tokens: tokens, Producer: producer},
		Users:    &UserHandler{DB: db, Tokens: tokens},
		Products: &ProductHandler{DB: db, Producer: producer, UploadDir: t.TempDir()},
		Reviews:  &ReviewHandler{DB: db, Producer: producer},
		Orders:   &OrderHandler{DB: db, Producer: producer},
	}
}

func (env *testEnv) doJSONRequest(method, target string, body any) (*httptest.ResponseRecorder, echo.Context) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(env.T, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

// createUser inserts a user directly and returns it with its identity.
func (env *testEnv) createUser(name, email, password, role string) (models.User, token.Identity) {
	env.T.Helper()

	pwHash, err := hash.HashPassword(password)
	require.NoError(env.T, err)

	user := models.User{Name: name, Email: email, PasswordHash: pwHash, Role: role}
	require.NoError(env.T, env.DB.Create(&user).Error)

	return user, token.Identity{Name: user.Name, UserID: user.ID, Role: user.Role}
}

func (env *testEnv) createProduct(name string, price float64, ownerID uint) models.Product {
	env.T.Helper()

	prod := models.Product{
		Name:        name,
		Price:       price,
		Description: "test description",
		Category:    "office",
		Company:     "ikea",
		Colors:      []string{"#222"},
		Inventory:   15,
		UserID:      ownerID,
	}
	require.NoError(env.T, env.DB.Create(&prod).Error)
	return prod
}

func (env *testEnv) createReview(userID, productID uint, rating int) models.Review {
	env.T.Helper()

	review := models.Review{
		Rating:    rating,
		Title:     fmt.Sprintf("review by %d", userID),
		Comment:   "test comment",
		UserID:    userID,
		ProductID: productID,
	}
	require.NoError(env.T, env.DB.Create(&review).Error)
	return review
}

func asIdentity(c echo.Context, id token.Identity) {
	authmw.SetIdentity(c, id)
}

func requireAppError(t *testing.T, err error, wantStatus int) *httperr.Error {
	t.Helper()
	require.Error(t, err)

	var appErr *httperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, wantStatus, appErr.Code)
	return appErr
}
