package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/gamezone-pos/middlewares"
	"github.com/yeremiapane/gamezone-pos/services"
	"github.com/yeremiapane/gamezone-pos/utils"
)

type BillController struct {
	Bills *services.BillService
}

func NewBillController(bills *services.BillService) *BillController {
	return &BillController{Bills: bills}
}

// GenerateOrderBill -> buat / perbarui bill PENDING untuk order
func (bc *BillController) GenerateOrderBill(c *gin.Context) {
	id, ok := parseID(c, "order_id")
	if !ok {
		return
	}
	bill, err := bc.Bills.GenerateForOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Bill generated", bill)
}

// GenerateTokenBills -> satu bill per order, plus bill untuk sesi tanpa order
func (bc *BillController) GenerateTokenBills(c *gin.Context) {
	id, ok := parseID(c, "token_id")
	if !ok {
		return
	}
	bills, err := bc.Bills.GenerateForToken(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Bills generated", bills)
}

// UpdateBillStatus -> tandai PAID atau DUE.
// Input sudah divalidasi dan disimpan oleh middleware ValidateBillStatus.
func (bc *BillController) UpdateBillStatus(c *gin.Context) {
	id, ok := parseID(c, "bill_id")
	if !ok {
		return
	}

	var req services.UpdateBillStatusInput
	if v, exists := c.Get(middlewares.BillStatusInputKey); exists {
		req = v.(services.UpdateBillStatusInput)
	} else if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	bill, err := bc.Bills.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bill status updated", bill)
}

func (bc *BillController) GetBill(c *gin.Context) {
	id, ok := parseID(c, "bill_id")
	if !ok {
		return
	}
	bill, err := bc.Bills.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bill detail", bill)
}

func (bc *BillController) GetUnpaidBills(c *gin.Context) {
	bills, err := bc.Bills.ListUnpaid(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Unpaid bills", bills)
}

// GetReceipt -> struk siap cetak
func (bc *BillController) GetReceipt(c *gin.Context) {
	id, ok := parseID(c, "bill_id")
	if !ok {
		return
	}
	receipt, err := bc.Bills.Receipt(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Receipt", receipt)
}
