package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/terra-dine/terra-ordering/config"
	"github.com/terra-dine/terra-ordering/models"
)

// GetPublicMenu handles GET /api/menu/public - returns the orderable catalog,
// optionally scoped to a store via cartId
func GetPublicMenu(c *gin.Context) {
	db := config.GetDB()
	cartID := c.Query("cartId")

	var items []models.MenuItem
	query := db.Where("available = ?", true).Order("category, name")
	if cartID != "" {
		query = query.Where("cart_id = ?", cartID)
	}
	if err := query.Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch menu",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": models.Menu{
		CartID: cartID,
		Items:  items,
	}})
}
