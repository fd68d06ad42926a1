package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/terra-dine/terra-ordering/config"
	"github.com/terra-dine/terra-ordering/middleware"
	"github.com/terra-dine/terra-ordering/models"
	"github.com/terra-dine/terra-ordering/utils"
)

// OrderItemRequest is one requested cart line; prices are resolved
// server-side from the menu
type OrderItemRequest struct {
	Name     string `json:"name" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

// CreateOrderRequest represents the request body for creating an order
type CreateOrderRequest struct {
	ServiceType     models.ServiceType `json:"service_type" binding:"required"`
	SessionToken    string             `json:"session_token"`
	CartID          string             `json:"cart_id"`
	TableID         *uint              `json:"table_id"`
	CustomerName    *string            `json:"customer_name"`
	CustomerMobile  *string            `json:"customer_mobile"`
	DeliveryAddress *string            `json:"delivery_address"`
	Items           []OrderItemRequest `json:"items" binding:"required,min=1"`
}

// CreateOrder handles POST /api/orders - creates a new order with its first
// KOT batch
func CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
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
	if !req.ServiceType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Unknown service type",
			},
		})
		return
	}

	db := config.GetDB()

	order := models.Order{
		Status:          models.StatusPending,
		ServiceType:     req.ServiceType,
		SessionToken:    req.SessionToken,
		CartID:          req.CartID,
		CustomerName:    req.CustomerName,
		CustomerMobile:  req.CustomerMobile,
		DeliveryAddress: req.DeliveryAddress,
	}

	if req.ServiceType == models.ServiceDineIn {
		if req.TableID == nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Dine-in orders require a table",
				},
			})
			return
		}
		var table models.Table
		if err := db.First(&table, *req.TableID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "TABLE_NOT_FOUND",
					"message": "Table does not exist",
				},
			})
			return
		}
		order.TableID = &table.ID
		order.TableNumber = &table.Number
		order.CartID = table.CartID
		if order.SessionToken == "" && table.SessionToken != nil {
			order.SessionToken = *table.SessionToken
		}
	}

	if req.ServiceType == models.ServiceTakeaway {
		if order.SessionToken == "" {
			order.SessionToken = utils.NewSessionToken()
		}
		code := utils.NewTakeawayToken()
		order.TakeawayToken = &code
	}

	lines, errResp := priceItems(db, order.CartID, req.Items)
	if errResp != nil {
		c.JSON(errResp.status, errResp.body)
		return
	}
	order.KOTLines = lines

	if err := db.Create(&order).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create order",
			},
		})
		return
	}

	GetHub().Broadcast(models.StatusEvent{
		Event:  models.EventOrderAccepted,
		CartID: order.CartID,
		Order:  &order,
	})

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": order})
}

// GetOrder handles GET /api/orders/:id - returns the current order snapshot
func GetOrder(c *gin.Context) {
	db := config.GetDB()

	var order models.Order
	if err := db.Preload("KOTLines").First(&order, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order does not exist",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": order})
}

// AppendKOTRequest appends a new KOT batch to an existing order
type AppendKOTRequest struct {
	SessionToken string             `json:"session_token"`
	Items        []OrderItemRequest `json:"items" binding:"required,min=1"`
}

// AppendKOT handles POST /api/orders/:id/kot
func AppendKOT(c *gin.Context) {
	var req AppendKOTRequest
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
	if err := db.Preload("KOTLines").First(&order, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order does not exist",
			},
		})
		return
	}

	if !ownsOrder(&order, req.SessionToken, middleware.GetSessionToken(c)) {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SESSION_MISMATCH",
				"message": "Order belongs to a different session",
			},
		})
		return
	}

	if !order.Status.AllowsAppend() {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_OPEN",
				"message": "Order can no longer be changed",
			},
		})
		return
	}

	lines, errResp := priceItems(db, order.CartID, req.Items)
	if errResp != nil {
		c.JSON(errResp.status, errResp.body)
		return
	}
	for i := range lines {
		lines[i].OrderID = order.ID
	}
	if err := db.Create(&lines).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to add items",
			},
		})
		return
	}

	order.KOTLines = append(order.KOTLines, lines...)
	order.UpdatedAt = time.Now()
	db.Save(&order)

	GetHub().Broadcast(models.StatusEvent{
		Event:  models.EventOrderUpdated,
		CartID: order.CartID,
		Order:  &order,
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "data": order})
}

// CustomerStatusRequest is a customer-initiated cancel or return
type CustomerStatusRequest struct {
	Status       models.OrderStatus `json:"status" binding:"required"`
	Reason       string             `json:"reason" binding:"required"`
	SessionToken string             `json:"session_token"`
}

// UpdateCustomerStatus handles PATCH /api/orders/:id/customer-status
func UpdateCustomerStatus(c *gin.Context) {
	var req CustomerStatusRequest
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
	if err := db.Preload("KOTLines").First(&order, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order does not exist",
			},
		})
		return
	}

	if !ownsOrder(&order, req.SessionToken, middleware.GetSessionToken(c)) {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SESSION_MISMATCH",
				"message": "Order belongs to a different session",
			},
		})
		return
	}

	allowed := (req.Status == models.StatusCancelled && order.Status.AllowsCustomerCancel()) ||
		(req.Status == models.StatusReturned && order.Status.AllowsCustomerReturn())
	if !allowed {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STATUS_NOT_ALLOWED",
				"message": "Requested status change is not allowed from " + string(order.Status),
			},
		})
		return
	}

	order.Status = req.Status
	if req.Status == models.StatusReturned {
		for i := range order.KOTLines {
			order.KOTLines[i].Returned = true
		}
		db.Model(&models.KOTLine{}).Where("order_id = ?", order.ID).Update("returned", true)
	}
	if err := db.Save(&order).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update order",
			},
		})
		return
	}

	if order.TableID != nil {
		releaseTable(db, *order.TableID)
	}

	GetHub().Broadcast(models.StatusEvent{
		Event:  models.EventOrderUpdated,
		CartID: order.CartID,
		Order:  &order,
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "data": order})
}

// ConfirmPaymentRequest carries the caller's session token when it is not
// sent in the header
type ConfirmPaymentRequest struct {
	SessionToken string `json:"session_token"`
}

// ConfirmPayment handles PATCH /api/orders/:id/confirm-payment - marks a
// cash payment complete, records it and releases the table
func ConfirmPayment(c *gin.Context) {
	var req ConfirmPaymentRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	db := config.GetDB()
	var order models.Order
	if err := db.Preload("KOTLines").First(&order, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order does not exist",
			},
		})
		return
	}

	if !ownsOrder(&order, req.SessionToken, middleware.GetSessionToken(c)) {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SESSION_MISMATCH",
				"message": "Order belongs to a different session",
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

	order.Status = models.StatusPaid
	if err := db.Save(&order).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update order",
			},
		})
		return
	}

	payment := models.Payment{
		OrderID: order.ID,
		Amount:  order.Total(),
		Method:  "cash",
		Status:  models.PaymentCompleted,
	}
	db.Create(&payment)

	if order.TableID != nil {
		releaseTable(db, *order.TableID)
	}

	GetHub().Broadcast(models.StatusEvent{
		Event:  models.EventOrderUpdated,
		CartID: order.CartID,
		Order:  &order,
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "data": order})
}

// ownsOrder checks whether the caller's token matches the order's. Orders
// without a token (legacy takeaway) accept any caller.
func ownsOrder(order *models.Order, bodyToken, headerToken string) bool {
	if order.SessionToken == "" {
		return true
	}
	return bodyToken == order.SessionToken || headerToken == order.SessionToken
}

type errorResponse struct {
	status int
	body   gin.H
}

// priceItems resolves requested items against the menu catalog. Unknown or
// unavailable items reject the whole request.
func priceItems(db *gorm.DB, cartID string, items []OrderItemRequest) ([]models.KOTLine, *errorResponse) {
	lines := make([]models.KOTLine, 0, len(items))
	for _, item := range items {
		var menuItem models.MenuItem
		query := db.Where("LOWER(name) = ?", strings.ToLower(item.Name))
		if cartID != "" {
			query = query.Where("cart_id = ?", cartID)
		}
		if err := query.First(&menuItem).Error; err != nil || !menuItem.Available {
			return nil, &errorResponse{
				status: http.StatusBadRequest,
				body: gin.H{
					"success": false,
					"error": gin.H{
						"code":    "ITEM_UNAVAILABLE",
						"message": item.Name + " is not available",
					},
				},
			}
		}
		lines = append(lines, models.KOTLine{
			Name:     menuItem.Name,
			Quantity: item.Quantity,
			Price:    menuItem.Price,
		})
	}
	return lines, nil
}
