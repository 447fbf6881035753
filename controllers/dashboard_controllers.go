package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/gamezone-pos/services"
	"github.com/yeremiapane/gamezone-pos/utils"
)

type DashboardController struct {
	Dashboard  *services.DashboardService
	Deliveries *services.DeliveryMonitor
}

func NewDashboardController(dashboard *services.DashboardService, deliveries *services.DeliveryMonitor) *DashboardController {
	return &DashboardController{Dashboard: dashboard, Deliveries: deliveries}
}

// GetDashboardStats mengambil statistik untuk dashboard
func (dc *DashboardController) GetDashboardStats(c *gin.Context) {
	stats, err := dc.Dashboard.Stats(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", stats)
}

// GetWebhookMetrics -> metrik pengiriman webhook sejak service start
func (dc *DashboardController) GetWebhookMetrics(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Webhook delivery metrics", dc.Deliveries.GetMetrics())
}
