package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/gamezone-pos/utils"
)

func ReceiptLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Sebelum request
		utils.InfoLogger.Printf("Generating receipt for bill ID: %s", c.Param("bill_id"))

		c.Next()

		// Setelah request
		if c.Writer.Status() == 200 {
			utils.InfoLogger.Printf("Receipt generated successfully for bill ID: %s", c.Param("bill_id"))
		} else {
			utils.ErrorLogger.Errorf("Failed to generate receipt for bill ID: %s", c.Param("bill_id"))
		}
	}
}
