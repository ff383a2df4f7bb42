package router

import (
	"time"

	"kontor/api"
	"kontor/config"
	_ "kontor/docs"
	"kontor/middleware"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRouter wires all routes.
func SetupRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.Default()

	r.Use(CORSMiddleware())

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		authHandler := api.NewAuthHandler(cfg)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", middleware.LoginRateLimit(5, time.Minute), authHandler.Login)
		}

		// Categories are shared reference data, no login required.
		expenseHandler := api.NewExpenseHandler()
		v1.GET("/categories", expenseHandler.GetCategories)

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth())
		{
			authorized.GET("/auth/profile", authHandler.GetProfile)

			depreciationHandler := api.NewDepreciationHandler()
			expenses := authorized.Group("/expenses")
			{
				expenses.POST("", expenseHandler.Create)
				expenses.GET("", expenseHandler.List)
				expenses.GET("/:id", expenseHandler.Get)
				expenses.PUT("/:id", expenseHandler.Update)
				expenses.DELETE("/:id", expenseHandler.Delete)
				expenses.GET("/:id/schedule", depreciationHandler.GetSchedule)
				expenses.PUT("/:id/depreciation", depreciationHandler.UpdateSettings)
				expenses.GET("/:id/deductible", depreciationHandler.GetDeductible)
			}

			invoiceHandler := api.NewInvoiceHandler(cfg)
			invoices := authorized.Group("/invoices")
			{
				invoices.POST("", invoiceHandler.Create)
				invoices.GET("/:id", invoiceHandler.Get)
				invoices.POST("/:id/payments", invoiceHandler.AddPayment)
				invoices.GET("/:id/payments", invoiceHandler.GetPayments)
				invoices.GET("/:id/validate", invoiceHandler.Validate)
				invoices.GET("/:id/duplicates", invoiceHandler.CheckDuplicates)
				invoices.POST("/:id/validate-payment", invoiceHandler.ValidateProposedPayment)
				invoices.POST("/:id/remind", invoiceHandler.Remind)
			}

			exportHandler := api.NewExportHandler()
			export := authorized.Group("/export")
			{
				export.GET("/csv", exportHandler.ExportCSV)
				export.GET("/excel", exportHandler.ExportExcel)
			}
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	return r
}

// CORSMiddleware allows cross-origin requests.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
