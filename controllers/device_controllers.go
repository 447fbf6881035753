package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/gamezone-pos/services"
	"github.com/yeremiapane/gamezone-pos/utils"
)

type DeviceController struct {
	Devices *services.DeviceService
}

func NewDeviceController(devices *services.DeviceService) *DeviceController {
	return &DeviceController{Devices: devices}
}

// CreateDevice -> menambahkan device baru
func (dc *DeviceController) CreateDevice(c *gin.Context) {
	var req services.CreateDeviceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	device, err := dc.Devices.Create(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.InfoLogger.Printf("New device created: %s #%d", device.Type, device.CounterNumber)
	utils.RespondJSON(c, http.StatusCreated, "Device created successfully", device)
}

// GetAllDevices -> semua device beserta status ketersediaan
func (dc *DeviceController) GetAllDevices(c *gin.Context) {
	devices, err := dc.Devices.Availability(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of devices", devices)
}

// GetAvailableDevices -> hanya device yang bisa dipakai sekarang
func (dc *DeviceController) GetAvailableDevices(c *gin.Context) {
	devices, err := dc.Devices.Available(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Available devices", devices)
}
