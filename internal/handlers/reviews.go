package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/store_api/internal/httperr"
	authmw "github.com/Skotchmaster/store_api/internal/middleware/auth"
	"github.com/Skotchmaster/store_api/internal/models"
	"github.com/Skotchmaster/store_api/internal/mykafka"
	"github.com/Skotchmaster/store_api/internal/ratings"
)

type ReviewHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

type createReviewRequest struct {
	Rating    int    `json:"rating"`
	Title     string `json:"title"`
	Comment   string `json:"comment"`
	ProductID uint   `json:"product"`
}

func (h *ReviewHandler) CreateReview(c echo.Context) error {
	actor, ok := authmw.IdentityFrom(c)
	if !ok {
		return httperr.Unauthenticated("authentication invalid")
	}

	var req createReviewRequest
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("invalid request body")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return httperr.BadRequest("please provide a rating between 1 and 5")
	}
	if req.Title == "" || req.Comment == "" {
		return httperr.BadRequest("please provide review title and comment")
	}
	if len(req.Title) > 50 {
		return httperr.BadRequest("title cannot be more than 50 characters")
	}

	var prod models.Product
	if err := h.DB.First(&prod, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.NotFound(fmt.Sprintf("no product with id : %d", req.ProductID))
		}
		return err
	}

	var existing models.Review
	err := h.DB.Where("product_id = ? AND user_id = ?", req.ProductID, actor.UserID).First(&existing).Error
	if err == nil {
		return httperr.BadRequest("already submitted review for this product")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	review := models.Review{
		Rating:    req.Rating,
		Title:     req.Title,
		Comment:   req.Comment,
		UserID:    actor.UserID,
		ProductID: req.ProductID,
	}
	// The pre-check above races with concurrent submissions; the unique
	// (product, user) index is the final arbiter.
	if err := h.DB.Create(&review).Error; err != nil {
		if isDuplicateErr(err) {
			return httperr.BadRequest("already submitted review for this product")
		}
		return err
	}

	ratings.Recalculate(c.Request().Context(), h.DB, review.ProductID)
	publish(c, h.Producer, "review_events", fmt.Sprint(review.ID), map[string]any{
		"type":      "review_created",
		"reviewID":  review.ID,
		"productID": review.ProductID,
		"userID":    review.UserID,
	})

	return c.JSON(http.StatusCreated, echo.Map{"review": review})
}

func (h *ReviewHandler) GetAllReviews(c echo.Context) error {
	var reviews []models.Review
	err := h.DB.
		Preload("Product", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "company", "price")
		}).
		Find(&reviews).Error
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"reviews": reviews, "count": len(reviews)})
}

func (h *ReviewHandler) GetSingleReview(c echo.Context) error {
	var review models.Review
	if err := h.DB.Where("id = ?", c.Param("id")).First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.NotFound(fmt.Sprintf("no review with id : %s", c.Param("id")))
		}
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"review": review})
}

type updateReviewRequest struct {
	Rating  int    `json:"rating"`
	Title   string `json:"title"`
	Comment string `json:"comment"`
}

func (h *ReviewHandler) UpdateReview(c echo.Context) error {
	actor, ok := authmw.IdentityFrom(c)
	if !ok {
		return httperr.Unauthenticated("authentication invalid")
	}

	var req updateReviewRequest
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("invalid request body")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return httperr.BadRequest("please provide a rating between 1 and 5")
	}
	if req.Title == "" || req.Comment == "" {
		return httperr.BadRequest("please provide review title and comment")
	}

	var review models.Review
	if err := h.DB.Where("id = ?", c.Param("id")).First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.NotFound(fmt.Sprintf("no review with id : %s", c.Param("id")))
		}
		return err
	}
	if err := authmw.CheckPermissions(actor, review.UserID); err != nil {
		return err
	}

	review.Rating = req.Rating
	review.Title = req.Title
	review.Comment = req.Comment
	if err := h.DB.Save(&review).Error; err != nil {
		return err
	}

	ratings.Recalculate(c.Request().Context(), h.DB, review.ProductID)
	publish(c, h.Producer, "review_events", fmt.Sprint(review.ID), map[string]any{
		"type":      "review_updated",
		"reviewID":  review.ID,
		"productID": review.ProductID,
	})

	return c.JSON(http.StatusOK, echo.Map{"review": review})
}

func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	actor, ok := authmw.IdentityFrom(c)
	if !ok {
		return httperr.Unauthenticated("authentication invalid")
	}

	var review models.Review
	if err := h.DB.Where("id = ?", c.Param("id")).First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.NotFound(fmt.Sprintf("no review with id : %s", c.Param("id")))
		}
		return err
	}
	if err := authmw.CheckPermissions(actor, review.UserID); err != nil {
		return err
	}

	if err := h.DB.Delete(&review).Error; err != nil {
		return err
	}

	ratings.Recalculate(c.Request().Context(), h.DB, review.ProductID)
	publish(c, h.Producer, "review_events", fmt.Sprint(review.ID), map[string]any{
		"type":      "review_deleted",
		"reviewID":  review.ID,
		"productID": review.ProductID,
	})

	return c.JSON(http.StatusOK, echo.Map{"msg": "review removed"})
}
