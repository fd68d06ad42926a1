package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/terra-dine/terra-ordering/config"
	"github.com/terra-dine/terra-ordering/models"
)

// CreatePaymentRequest starts a payment attempt for an order
type CreatePaymentRequest struct {
	OrderID uint   `json:"order_id" binding:"required"`
	Method  string `json:"method" binding:"required,oneof=cash online"`
}

// CreatePayment handles POST /api/payments/create
func CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	db := config.GetDB()
	var order models.Order
	if err := db.Preload("KOTLines").First(&order, req.OrderID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order does not exist",
			},
		})
		return
	}
	if order.Status.Terminal() {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_OPEN",
				"message": "Order is already closed",
			},
		})
		return
	}

	payment := models.Payment{
		OrderID: order.ID,
		Amount:  order.Total(),
		Method:  req.Method,
		Status:  models.PaymentCreated,
	}
	if err := db.Create(&payment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create payment",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": payment})
}

// GetLatestPayment handles GET /api/payments/order/:orderId/latest - returns
// the most recent payment attempt for an order
func GetLatestPayment(c *gin.Context) {
	db := config.GetDB()

	var payment models.Payment
	err := db.Where("order_id = ?", c.Param("orderId")).
		Order("created_at DESC").
		First(&payment).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PAYMENT_NOT_FOUND",
				"message": "No payment found for this order",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": payment})
}

// CancelPayment handles POST /api/payments/:id/cancel - abandons a payment
// attempt that has not completed
func CancelPayment(c *gin.Context) {
	db := config.GetDB()

	var payment models.Payment
	if err := db.First(&payment, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PAYMENT_NOT_FOUND",
				"message": "Payment does not exist",
			},
		})
		return
	}

	if payment.Status != models.PaymentCreated {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PAYMENT_NOT_CANCELLABLE",
				"message": "Payment is already " + string(payment.Status),
			},
		})
		return
	}

	payment.Status = models.PaymentCancelled
	if err := db.Save(&payment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to cancel payment",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": payment})
}
