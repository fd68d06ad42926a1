package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/terra-dine/terra-ordering/config"
	"github.com/terra-dine/terra-ordering/controllers"
	"github.com/terra-dine/terra-ordering/middleware"
	"github.com/terra-dine/terra-ordering/models"
	"github.com/terra-dine/terra-ordering/services"
	"github.com/terra-dine/terra-ordering/utils"
)

func main() {
	log.Println("Starting Terra ordering backend...")

	cfg := config.GetConfig()

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(
		&models.Table{},
		&models.Order{},
		&models.KOTLine{},
		&models.MenuItem{},
		&models.Payment{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// The in-memory database starts empty every run
	if cfg.DatabaseURL == "" {
		seedDemoData()
	}

	// Initialize the S3 invoice archive when credentials are present
	if cfg.ArchiveConfigured() {
		if _, err := services.InitS3Service(); err != nil {
			log.Fatalf("Failed to initialize S3 service: %v", err)
		}
	} else {
		log.Println("S3 archive not configured, invoice uploads disabled")
	}

	router := setupRouter()

	addr := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter wires the HTTP routes and middleware
func setupRouter() *gin.Engine {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "X-Session-Token")
	router.Use(cors.New(corsConfig))
	router.Use(middleware.ExtractSessionToken())

	router.GET("/health", healthCheck)

	api := router.Group("/api")
	{
		api.GET("/tables/lookup/:slug", controllers.LookupTable)
		api.POST("/tables/:id/occupy", controllers.OccupyTable)

		api.POST("/orders", controllers.CreateOrder)
		api.GET("/orders/:id", controllers.GetOrder)
		api.POST("/orders/:id/kot", controllers.AppendKOT)
		api.PATCH("/orders/:id/customer-status", controllers.UpdateCustomerStatus)
		api.PATCH("/orders/:id/confirm-payment", controllers.ConfirmPayment)

		api.GET("/menu/public", controllers.GetPublicMenu)

		api.POST("/payments/create", controllers.CreatePayment)
		api.GET("/payments/order/:orderId/latest", controllers.GetLatestPayment)
		api.POST("/payments/:id/cancel", controllers.CancelPayment)
	}

	router.GET("/ws/orders", controllers.HandleOrderEvents(controllers.GetHub()))

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Terra ordering backend is running",
	})
}

// seedDemoData loads a small set of tables and menu items so the client
// has something to scan and order against in development
func seedDemoData() {
	db := config.GetDB()

	var count int64
	db.Model(&models.Table{}).Count(&count)
	if count > 0 {
		return
	}

	tables := []models.Table{
		{Number: 1, QRSlug: utils.NewQRSlug(), CartID: "store-1", Status: models.TableAvailable},
		{Number: 2, QRSlug: utils.NewQRSlug(), CartID: "store-1", Status: models.TableAvailable},
		{Number: 3, QRSlug: utils.NewQRSlug(), CartID: "store-1", Status: models.TableAvailable},
	}
	if err := db.Create(&tables).Error; err != nil {
		log.Printf("Failed to seed tables: %v", err)
		return
	}
	for _, table := range tables {
		log.Printf("Seeded table %d with slug %s", table.Number, table.QRSlug)
	}

	menu := []models.MenuItem{
		{Name: "Masala Dosa", Category: "Mains", Price: 12000, Available: true, CartID: "store-1"},
		{Name: "Idli Sambar", Category: "Mains", Price: 8000, Available: true, CartID: "store-1"},
		{Name: "Paneer Tikka", Category: "Starters", Price: 18000, Available: true, CartID: "store-1"},
		{Name: "Filter Coffee", Category: "Drinks", Price: 4000, Available: true, CartID: "store-1"},
		{Name: "Fresh Lime Soda", Category: "Drinks", Price: 5000, Available: true, CartID: "store-1"},
	}
	if err := db.Create(&menu).Error; err != nil {
		log.Printf("Failed to seed menu: %v", err)
	}
}
