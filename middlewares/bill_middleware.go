package middlewares

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/gamezone-pos/models"
	"github.com/yeremiapane/gamezone-pos/services"
	"github.com/yeremiapane/gamezone-pos/utils"
)

// BillStatusInputKey is where ValidateBillStatus stores the parsed body.
const BillStatusInputKey = "bill_status_input"

// ValidateBillStatus validates the bill status payload before it reaches the controller.
func ValidateBillStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request services.UpdateBillStatusInput
		if err := c.ShouldBindJSON(&request); err != nil {
			utils.RespondAbort(c, http.StatusBadRequest, err.Error())
			return
		}

		request.Status = strings.ToUpper(strings.TrimSpace(request.Status))
		if request.Status != models.BillStatusPaid && request.Status != models.BillStatusDue {
			utils.RespondAbort(c, http.StatusBadRequest, fmt.Sprintf("status must be %s or %s", models.BillStatusPaid, models.BillStatusDue))
			return
		}

		// Validate amount format (max 2 decimal places)
		if request.CorrectedAmount != nil {
			if request.CorrectedAmount.IsNegative() {
				utils.RespondAbort(c, http.StatusBadRequest, "corrected_amount cannot be negative")
				return
			}
			if !request.CorrectedAmount.Equal(request.CorrectedAmount.Truncate(2)) {
				utils.RespondAbort(c, http.StatusBadRequest, "corrected_amount must have at most 2 decimal places")
				return
			}
		}

		c.Set(BillStatusInputKey, request)
		c.Next()
	}
}

// LogBillRequest logs bill settlement requests
func LogBillRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		utils.InfoLogger.Printf(
			"Bill Request - Method: %s, Path: %s, Bill: %s, Status: %d, Duration: %v",
			c.Request.Method, c.Request.URL.Path, c.Param("bill_id"), c.Writer.Status(), time.Since(start),
		)
	}
}
