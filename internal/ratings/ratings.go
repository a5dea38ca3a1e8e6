package ratings

import (
	"context"
	"math"

	"gorm.io/gorm"

	"github.com/Skotchmaster/store_api/internal/logging"
	"github.com/Skotchmaster/store_api/internal/models"
)

// Recalculate recomputes the denormalized rating stats of a product from its
// current review set: averageRating = ceil(mean(rating)), numOfReviews =
// count, both 0 when no reviews remain. Repeating it over the same review set
// always yields the same stats.
//
// Failures are logged and swallowed: the review mutation that triggered the
// recompute is never rolled back, so the stored stats can diverge from the
// true review set until the next successful recompute.
func Recalculate(ctx context.Context, db *gorm.DB, productID uint) {
	log := logging.FromContext(ctx)

	var agg struct {
		Avg   float64
		Count int64
	}
	err := db.WithContext(ctx).
		Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&agg).Error
	if err != nil {
		log.Error("rating recompute: aggregate query failed", "product_id", productID, "error", err)
		return
	}

	// The average rounds up, not to nearest.
	avg := math.Ceil(agg.Avg)
	if agg.Count == 0 {
		avg = 0
	}

	err = db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"average_rating": avg,
			"num_of_reviews": agg.Count,
		}).Error
	if err != nil {
		log.Error("rating recompute: write-back failed", "product_id", productID, "error", err)
	}
}
