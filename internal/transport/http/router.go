package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/store_api/internal/handlers"
	authmw "github.com/Skotchmaster/store_api/internal/middleware/auth"
	"github.com/Skotchmaster/store_api/internal/models"
)

type Deps struct {
	AuthHandler    *handlers.AuthHandler
	UserHandler    *handlers.UserHandler
	ProductHandler *handlers.ProductHandler
	ReviewHandler  *handlers.ReviewHandler
	OrderHandler   *handlers.OrderHandler
	Auth           *authmw.Middleware
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	adminOnly := authmw.RequireRoles(models.RoleAdmin)

	auth := v1.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.GET("/logout", d.AuthHandler.Logout)

	users := v1.Group("/users", d.Auth.Authenticate)
	users.GET("", d.UserHandler.GetAllUsers, adminOnly)
	users.GET("/showMe", d.UserHandler.ShowCurrentUser)
	users.PATCH("/updateUser", d.UserHandler.UpdateUser)
	users.PATCH("/updateUserPassword", d.UserHandler.UpdateUserPassword)
	users.GET("/:id", d.UserHandler.GetSingleUser)

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetAllProducts)
	products.GET("/search", d.ProductHandler.SearchProducts)
	products.POST("", d.ProductHandler.CreateProduct, d.Auth.Authenticate, adminOnly)
	products.POST("/uploadImage", d.ProductHandler.UploadImage, d.Auth.Authenticate, adminOnly)
	products.GET("/:id", d.ProductHandler.GetSingleProduct)
	products.PATCH("/:id", d.ProductHandler.UpdateProduct, d.Auth.Authenticate, adminOnly)
	products.DELETE("/:id", d.ProductHandler.DeleteProduct, d.Auth.Authenticate, adminOnly)
	products.GET("/:id/reviews", d.ProductHandler.GetProductReviews)

	reviews := v1.Group("/reviews")
	reviews.GET("", d.ReviewHandler.GetAllReviews)
	reviews.GET("/:id", d.ReviewHandler.GetSingleReview)
	reviews.POST("", d.ReviewHandler.CreateReview, d.Auth.Authenticate)
	reviews.PATCH("/:id", d.ReviewHandler.UpdateReview, d.Auth.Authenticate)
	reviews.DELETE("/:id", d.ReviewHandler.DeleteReview, d.Auth.Authenticate)

	orders := v1.Group("/orders", d.Auth.Authenticate)
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("", d.OrderHandler.GetAllOrders, adminOnly)
	orders.GET("/showAllMyOrders", d.OrderHandler.GetCurrentUserOrders)
	orders.GET("/:id", d.OrderHandler.GetSingleOrder)
	orders.PATCH("/:id", d.OrderHandler.UpdateOrder)
}
