package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/terra-dine/terra-ordering/config"
	"github.com/terra-dine/terra-ordering/middleware"
	"github.com/terra-dine/terra-ordering/models"
	"github.com/terra-dine/terra-ordering/utils"
)

// LookupTable handles GET /api/tables/lookup/:slug - resolves a scanned QR
// slug. Returns 200 with the table when available, 423 with the table and a
// waitlist offer when occupied.
func LookupTable(c *gin.Context) {
	slug := c.Param("slug")
	db := config.GetDB()

	var table models.Table
	if err := db.Where("qr_slug = ?", slug).First(&table).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "TABLE_NOT_FOUND",
					"message": "No table matches this code",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to look up table",
			},
		})
		return
	}

	if table.Status == models.TableOccupied {
		// Occupied: the caller decides whether it owns the session or
		// wants the waitlist. A wait token is offered, never auto-joined.
		waitToken := c.Query("waitToken")
		if waitToken == "" {
			waitToken = utils.NewWaitToken()
		}
		c.JSON(http.StatusLocked, gin.H{
			"success": false,
			"data": models.LookupResult{
				Table:    table,
				Waitlist: &models.WaitlistInfo{Position: 1, WaitToken: waitToken},
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    models.LookupResult{Table: table},
	})
}

// OccupyTable handles POST /api/tables/:id/occupy - claims an available
// table and issues the session token proving the claim
func OccupyTable(c *gin.Context) {
	db := config.GetDB()

	var table models.Table
	if err := db.First(&table, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "TABLE_NOT_FOUND",
				"message": "Table does not exist",
			},
		})
		return
	}

	requestToken := middleware.GetSessionToken(c)
	if requestToken == "" {
		var body struct {
			SessionToken string `json:"session_token"`
		}
		if err := c.ShouldBindJSON(&body); err == nil {
			requestToken = body.SessionToken
		}
	}
	if table.Status == models.TableOccupied {
		if table.SessionToken != nil && requestToken == *table.SessionToken {
			// Idempotent re-claim by the owning session
			c.JSON(http.StatusOK, gin.H{"success": true, "data": table})
			return
		}
		c.JSON(http.StatusLocked, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "TABLE_OCCUPIED",
				"message": "Table is already occupied by another session",
			},
		})
		return
	}

	token := utils.NewSessionToken()
	table.Status = models.TableOccupied
	table.SessionToken = &token
	if err := db.Save(&table).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to occupy table",
			},
		})
		return
	}

	GetHub().Broadcast(models.StatusEvent{
		Event:  models.EventTableStatusUpdated,
		CartID: table.CartID,
		Table:  &table,
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "data": table})
}

// releaseTable frees a table after payment completes and notifies the room
func releaseTable(db *gorm.DB, tableID uint) {
	var table models.Table
	if err := db.First(&table, tableID).Error; err != nil {
		return
	}
	table.Status = models.TableAvailable
	table.SessionToken = nil
	if err := db.Save(&table).Error; err != nil {
		return
	}
	GetHub().Broadcast(models.StatusEvent{
		Event:  models.EventTableStatusUpdated,
		CartID: table.CartID,
		Table:  &table,
	})
}
