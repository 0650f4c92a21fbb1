package handler

import (
	"net/http"

	"github.com/PedroSmaxY/hardware-store/internal/dto"
	"github.com/PedroSmaxY/hardware-store/internal/service"

	"github.com/gin-gonic/gin"
)

type SalesHandler struct{ svc service.SaleService }

func NewSalesHandler(svc service.SaleService) *SalesHandler { return &SalesHandler{svc: svc} }

// Open godoc
// @Summary Open a sale for the authenticated employee
// @Tags sales
// @Accept json
// @Produce json
// @Param body body dto.OpenSaleRequest false "Optional customer"
// @Success 201 {object} dto.SaleResponse
// @Router /v1/sales [post]
func (h *SalesHandler) Open(c *gin.Context) {
	var req dto.OpenSaleRequest
	// Body is optional.
	if c.Request.ContentLength > 0 && !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Open(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *SalesHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SalesHandler) List(c *gin.Context) {
	var filter dto.SaleFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SalesHandler) AttachCustomer(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.AttachCustomerRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AttachCustomer(c.Request.Context(), id, req.CustomerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddItem godoc
// @Summary Add a product line to an open sale
// @Tags sales
// @Accept json
// @Produce json
// @Param id path int true "Sale ID"
// @Param body body dto.AddItemRequest true "Line"
// @Success 200 {object} dto.SaleResponse
// @Failure 409 {object} apierror.APIError "insufficient stock or sale not open"
// @Failure 422 {object} apierror.APIError "discount out of range"
// @Router /v1/sales/{id}/items [post]
func (h *SalesHandler) AddItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.AddItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddItem(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SalesHandler) RemoveItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "item_id")
	if !ok {
		return
	}
	resp, err := h.svc.RemoveItem(c.Request.Context(), id, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateItem godoc
// @Summary Change the quantity or discount percent of a line
// @Tags sales
// @Accept json
// @Produce json
// @Param id path int true "Sale ID"
// @Param item_id path int true "Line item ID"
// @Param body body dto.UpdateItemRequest true "Changes"
// @Success 200 {object} dto.SaleResponse
// @Failure 409 {object} apierror.APIError "insufficient stock or sale not open"
// @Failure 422 {object} apierror.APIError "discount out of range"
// @Router /v1/sales/{id}/items/{item_id} [patch]
func (h *SalesHandler) UpdateItem(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseID(c, "item_id")
	if !ok {
		return
	}
	var req dto.UpdateItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateItem(c.Request.Context(), id, itemID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SalesHandler) Recompute(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.RecomputeTotals(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SalesHandler) Finalize(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.FinalizeSaleRequest
	if c.Request.ContentLength > 0 && !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Finalize(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SalesHandler) Cancel(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Cancel(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SalesHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PreviewDiscount godoc
// @Summary Compute a line discount without touching any sale
// @Tags sales
// @Accept json
// @Produce json
// @Param body body dto.DiscountPreviewRequest true "Line"
// @Success 200 {object} dto.DiscountPreviewResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/discounts/preview [post]
func (h *SalesHandler) PreviewDiscount(c *gin.Context) {
	var req dto.DiscountPreviewRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.PreviewDiscount(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
