package httpapi

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"pdvcaixa/internal/domain"
	"pdvcaixa/internal/receipt"
	"pdvcaixa/internal/service"
)

type openRegisterRequest struct {
	OpeningBalance decimal.Decimal `json:"openingBalance"`
}

// cartItemRequest adds by product id or, for scanner input, by code.
type cartItemRequest struct {
	ProductID string           `json:"productId"`
	Cod       string           `json:"cod"`
	Quantity  *decimal.Decimal `json:"quantity"`
}

type cartQuantityRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// finalizeRequest takes either the final total or the discount and addition
// to apply to the cart subtotal.
type finalizeRequest struct {
	PaymentMethod    domain.PaymentMethod `json:"paymentMethod" binding:"required"`
	Total            *decimal.Decimal     `json:"total"`
	Discount         decimal.Decimal      `json:"discount"`
	Addition         decimal.Decimal      `json:"addition"`
	PaymentReference string               `json:"paymentReference"`
	AmountReceived   *decimal.Decimal     `json:"amountReceived"`
}

func (a *API) handleOpenRegister(c *gin.Context) {
	var req openRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeBindError(c, err)
		return
	}
	session, err := a.service.OpenRegister(c.Request.Context(), req.OpeningBalance)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

func (a *API) handleCloseRegister(c *gin.Context) {
	session, err := a.service.CloseRegister(c.Request.Context())
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session": session,
		"report":  service.BuildSessionReport(session),
	})
}

func (a *API) handleCurrentRegister(c *gin.Context) {
	session, ok := a.service.CurrentRegister()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"session": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (a *API) handleRegisterHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": a.service.RegisterHistory()})
}

func (a *API) writeCart(c *gin.Context, status int) {
	c.JSON(status, gin.H{
		"items":    a.service.Cart(),
		"subtotal": a.service.CartSubtotal(),
	})
}

func (a *API) handleGetCart(c *gin.Context) {
	a.writeCart(c, http.StatusOK)
}

func (a *API) handleAddCartItem(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeBindError(c, err)
		return
	}

	productID := strings.TrimSpace(req.ProductID)
	if productID == "" {
		if strings.TrimSpace(req.Cod) == "" {
			writeError(c, http.StatusBadRequest, errors.New("productId or cod is required"))
			return
		}
		product, err := a.service.ProductByCod(req.Cod)
		if err != nil {
			a.writeServiceError(c, err)
			return
		}
		productID = product.ID
	}

	qty := decimal.NewFromInt(1)
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	if _, err := a.service.AddToCart(productID, qty); err != nil {
		a.writeServiceError(c, err)
		return
	}
	a.writeCart(c, http.StatusOK)
}

func (a *API) handleUpdateCartItem(c *gin.Context) {
	var req cartQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeBindError(c, err)
		return
	}
	if _, err := a.service.UpdateCartItemQuantity(c.Param("productId"), req.Quantity); err != nil {
		a.writeServiceError(c, err)
		return
	}
	a.writeCart(c, http.StatusOK)
}

func (a *API) handleRemoveCartItem(c *gin.Context) {
	if err := a.service.RemoveFromCart(c.Param("productId")); err != nil {
		a.writeServiceError(c, err)
		return
	}
	a.writeCart(c, http.StatusOK)
}

func (a *API) handleClearCart(c *gin.Context) {
	a.service.ClearCart()
	a.writeCart(c, http.StatusOK)
}

func (a *API) handleSuggestions(c *gin.Context) {
	if a.suggestions == nil {
		c.JSON(http.StatusOK, gin.H{"suggestions": []string{}})
		return
	}
	cart := a.service.Cart()
	names := make([]string, len(cart))
	for i, item := range cart {
		names[i] = item.Name
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": a.suggestions.Suggest(c.Request.Context(), names)})
}

func (a *API) handleFinalizeSale(c *gin.Context) {
	var req finalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeBindError(c, err)
		return
	}

	finalize := service.FinalizeRequest{
		PaymentMethod:    req.PaymentMethod,
		PaymentReference: req.PaymentReference,
		AmountReceived:   req.AmountReceived,
	}
	if req.Total != nil {
		finalize.Total = *req.Total
	} else {
		finalize.Adjustment = &service.Adjustment{Discount: req.Discount, Addition: req.Addition}
	}
	tx, err := a.service.FinalizeSale(c.Request.Context(), finalize)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction": tx})
}

func (a *API) handleLastSale(c *gin.Context) {
	tx, ok := a.service.LastTransaction()
	if !ok {
		writeError(c, http.StatusNotFound, service.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

func (a *API) handleGetSale(c *gin.Context) {
	tx, err := a.service.Transaction(c.Param("id"))
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

func (a *API) handleReceipt(c *gin.Context) {
	tx, err := a.service.Transaction(c.Param("id"))
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	r := receipt.Render(tx, a.receiptHeader)
	c.JSON(http.StatusOK, gin.H{
		"transactionId": tx.ID,
		"previewText":   r.Text(),
		"escposBase64":  base64.StdEncoding.EncodeToString(r.ESCPOS),
		"fileName":      r.FileName(),
	})
}

func (a *API) handleCashDrawerOpen(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"commandBase64": base64.StdEncoding.EncodeToString(receipt.DrawerKick()),
	})
}

func (a *API) handleSalesHistory(c *gin.Context) {
	var filter service.HistoryFilter
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &filter.From}, {"to", &filter.To}} {
		raw := strings.TrimSpace(c.Query(p.name))
		if raw == "" {
			continue
		}
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(c, http.StatusBadRequest, errors.New(p.name+" must be YYYY-MM-DD"))
			return
		}
		*p.dst = &day
	}
	if method := strings.TrimSpace(c.Query("method")); method != "" {
		filter.Method = domain.PaymentMethod(method)
		if !filter.Method.Valid() {
			a.writeServiceError(c, service.ErrInvalidPayment)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"transactions": a.service.SalesHistory(filter)})
}

func (a *API) handleSessionReports(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": a.service.SessionReports()})
}

func (a *API) handleDailySales(c *gin.Context) {
	days := parsePositiveLimit(c.Query("days"), 7, 90)
	c.JSON(http.StatusOK, gin.H{"days": a.service.DailySales(days)})
}
