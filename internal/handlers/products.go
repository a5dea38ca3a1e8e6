package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/store_api/internal/httperr"
	"github.com/Skotchmaster/store_api/internal/logging"
	authmw "github.com/Skotchmaster/store_api/internal/middleware/auth"
	"github.com/Skotchmaster/store_api/internal/models"
	"github.com/Skotchmaster/store_api/internal/mykafka"
	"github.com/Skotchmaster/store_api/internal/service/search"
	"github.com/Skotchmaster/store_api/internal/util"
)

const maxImageSize = 1 << 20

type ProductHandler struct {
	DB        *gorm.DB
	Producer  *mykafka.Producer
	ES        *elasticsearch.Client
	UploadDir string
}

type createProductRequest struct {
	Name         string   `json:"name"`
	Price        float64  `json:"price"`
	Description  string   `json:"description"`
	Image        string   `json:"image"`
	Category     string   `json:"category"`
	Company      string   `json:"company"`
	Colors       []string `json:"colors"`
	Featured     bool     `json:"featured"`
	FreeShipping bool     `json:"freeShipping"`
	Inventory    *uint    `json:"inventory"`
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	actor, ok := authmw.IdentityFrom(c)
	if !ok {
		return httperr.Unauthenticated("authentication invalid")
	}

	var req createProductRequest
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("invalid request body")
	}
	if req.Name == "" || req.Description == "" || req.Category == "" || req.Company == "" {
		return httperr.BadRequest("please provide name, description, category and company")
	}
	if len(req.Name) > 100 {
		return httperr.BadRequest("name cannot be more than 100 characters")
	}
	if len(req.Description) > 1000 {
		return httperr.BadRequest("description cannot be more than 1000 characters")
	}
	if !slices.Contains(models.Categories, req.Category) {
		return httperr.BadRequest(fmt.Sprintf("%s is not a supported category", req.Category))
	}
	if !slices.Contains(models.Companies, req.Company) {
		return httperr.BadRequest(fmt.Sprintf("%s is not a supported company", req.Company))
	}

	prod := models.Product{
		Name:         req.Name,
		Price:        req.Price,
		Description:  req.Description,
		Image:        req.Image,
		Category:     req.Category,
		Company:      req.Company,
		Colors:       req.Colors,
		Featured:     req.Featured,
		FreeShipping: req.FreeShipping,
		Inventory:    15,
		UserID:       actor.UserID,
	}
	if prod.Image == "" {
		prod.Image = "/uploads/example.jpeg"
	}
	if len(prod.Colors) == 0 {
		prod.Colors = []string{"#222"}
	}
	if req.Inventory != nil {
		prod.Inventory = *req.Inventory
	}

	if err := h.DB.Create(&prod).Error; err != nil {
		return err
	}

	h.indexProduct(c, &prod)
	publish(c, h.Producer, "product_events", fmt.Sprint(prod.ID), map[string]any{
		"type":      "product_created",
		"productID": prod.ID,
		"name":      prod.Name,
	})

	return c.JSON(http.StatusCreated, echo.Map{"product": prod})
}

func (h *ProductHandler) GetAllProducts(c echo.Context) error {
	var products []models.Product
	if err := h.DB.Order("id ASC").Find(&products).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"products": products, "count": len(products)})
}

func (h *ProductHandler) GetSingleProduct(c echo.Context) error {
	var prod models.Product
	err := h.DB.Preload("Reviews").Where("id = ?", c.Param("id")).First(&prod).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.NotFound(fmt.Sprintf("no product with id : %s", c.Param("id")))
		}
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"product": prod})
}

type patchProductRequest struct {
	Name         *string   `json:"name"`
	Price        *float64  `json:"price"`
	Description  *string   `json:"description"`
	Image        *string   `json:"image"`
	Category     *string   `json:"category"`
	Company      *string   `json:"company"`
	Colors       *[]string `json:"colors"`
	Featured     *bool     `json:"featured"`
	FreeShipping *bool     `json:"freeShipping"`
	Inventory    *uint     `json:"inventory"`
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	var req patchProductRequest
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("invalid request body")
	}
	if req.Category != nil && !slices.Contains(models.Categories, *req.Category) {
		return httperr.BadRequest(fmt.Sprintf("%s is not a supported category", *req.Category))
	}
	if req.Company != nil && !slices.Contains(models.Companies, *req.Company) {
		return httperr.BadRequest(fmt.Sprintf("%s is not a supported company", *req.Company))
	}

	var prod models.Product
	if err := h.DB.Where("id = ?", c.Param("id")).First(&prod).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.NotFound(fmt.Sprintf("no product with id : %s", c.Param("id")))
		}
		return err
	}

	if req.Name != nil {
		prod.Name = *req.Name
	}
	if req.Price != nil {
		prod.Price = *req.Price
	}
	if req.Description != nil {
		prod.Description = *req.Description
	}
	if req.Image != nil {
		prod.Image = *req.Image
	}
	if req.Category != nil {
		prod.Category = *req.Category
	}
	if req.Company != nil {
		prod.Company = *req.Company
	}
	if req.Colors != nil {
		prod.Colors = *req.Colors
	}
	if req.Featured != nil {
		prod.Featured = *req.Featured
	}
	if req.FreeShipping != nil {
		prod.FreeShipping = *req.FreeShipping
	}
	if req.Inventory != nil {
		prod.Inventory = *req.Inventory
	}

	if err := h.DB.Save(&prod).Error; err != nil {
		return err
	}

	h.indexProduct(c, &prod)
	publish(c, h.Producer, "product_events", fmt.Sprint(prod.ID), map[string]any{
		"type":      "product_updated",
		"productID": prod.ID,
		"name":      prod.Name,
	})

	return c.JSON(http.StatusOK, echo.Map{"product": prod})
}

// DeleteProduct removes the product and all of its reviews in one
// transaction; the cascade is explicit, not a schema-level hook.
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	var prod models.Product
	if err := h.DB.Where("id = ?", c.Param("id")).First(&prod).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return httperr.NotFound(fmt.Sprintf("no product with id : %s", c.Param("id")))
		}
		return err
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", prod.ID).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		return tx.Delete(&prod).Error
	})
	if txErr != nil {
		return txErr
	}

	h.deleteProductIndex(c, prod.ID)
	publish(c, h.Producer, "product_events", fmt.Sprint(prod.ID), map[string]any{
		"type":      "product_deleted",
		"productID": prod.ID,
	})

	return c.JSON(http.StatusOK, echo.Map{"msg": "product removed"})
}

// UploadImage stores one image attachment under the public upload directory,
// keyed by the original filename. A later upload with the same name silently
// overwrites the earlier file.
func (h *ProductHandler) UploadImage(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return httperr.BadRequest("no file uploaded")
	}
	if !strings.HasPrefix(file.Header.Get(echo.HeaderContentType), "image") {
		return httperr.BadRequest("please upload an image")
	}
	if file.Size > maxImageSize {
		return httperr.BadRequest("please upload an image smaller than 1MB")
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		return err
	}
	name := filepath.Base(file.Filename)
	dst, err := os.Create(filepath.Join(h.UploadDir, name))
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"image": "/uploads/" + name})
}

func (h *ProductHandler) GetProductReviews(c echo.Context) error {
	var reviews []models.Review
	if err := h.DB.Where("product_id = ?", c.Param("id")).Find(&reviews).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"reviews": reviews, "count": len(reviews)})
}

func (h *ProductHandler) SearchProducts(c echo.Context) error {
	if h.ES == nil {
		return httperr.BadRequest("search is not available")
	}

	q := c.QueryParam("q")
	if q == "" {
		return httperr.BadRequest("please provide a search query")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, size := util.Calculate(page, size)

	total, products, err := search.Search(c.Request().Context(), h.ES, search.ProductIndex, q, from, size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"products": products, "total": total})
}

// Index maintenance is best effort: search lags the catalog on failure
// rather than failing the write.
func (h *ProductHandler) indexProduct(c echo.Context, prod *models.Product) {
	if h.ES == nil {
		return
	}
	ctx := c.Request().Context()
	if err := search.IndexProduct(ctx, h.ES, search.ProductIndex, prod); err != nil {
		logging.FromContext(ctx).Error("product index error", "product_id", prod.ID, "error", err)
	}
}

func (h *ProductHandler) deleteProductIndex(c echo.Context, id uint) {
	if h.ES == nil {
		return
	}
	ctx := c.Request().Context()
	if err := search.DeleteProduct(ctx, h.ES, search.ProductIndex, id); err != nil {
		logging.FromContext(ctx).Error("product index delete error", "product_id", id, "error", err)
	}
}
