package routes

import (
	"net/http"
	"time"

	"school-finance-backend/internal/config"
	handler "school-finance-backend/internal/handlers"
	"school-finance-backend/internal/lock"
	"school-finance-backend/internal/middleware"
	"school-finance-backend/internal/repository"
	"school-finance-backend/internal/services/catalog"
	"school-finance-backend/internal/services/finance"
	service "school-finance-backend/internal/services/reconciliation"
	"school-finance-backend/internal/services/reports"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter builds the gin engine with recovery, request logging and CORS, then registers the API.
func NewRouter(cfg *config.Config, store repository.Store, locker lock.Locker, log *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterRoutes(r, cfg, store, locker, log)
	return r
}

func RegisterRoutes(r *gin.Engine, cfg *config.Config, store repository.Store, locker lock.Locker, log *zap.Logger) {
	reconService := service.NewReconciliationService(store, locker, log, service.Options{
		Workers:  cfg.MatchWorkers,
		LockTTL:  cfg.MatchLockTTL,
		Location: cfg.Location(),
	})
	financeService := finance.NewService(store, log)

	reconHandler := handler.NewReconciliationHandler(reconService, log)
	financeHandler := handler.NewFinanceHandler(financeService, store, log)
	catalogHandler := handler.NewCatalogHandler(catalog.NewService(store), log)
	reportHandler := handler.NewReportHandler(reports.NewService(store), log)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := api.Group("/v1")
	v1.Use(middleware.TenantAuth(cfg.JWTSecret), middleware.RateLimit(cfg.MaxRequestsPerMin, log))

	writers := middleware.RequireRole(middleware.RoleAdmin, middleware.RoleBursar)

	// Bank statement import and matching
	tx := v1.Group("/bank-transactions")
	tx.GET("", reconHandler.ListTransactions)
	tx.POST("/upload", writers, reconHandler.Upload)
	tx.POST("/run-matching", writers, reconHandler.RunMatching)
	tx.POST("/:reference/approve", writers, reconHandler.ApproveMatch)

	v1.GET("/reconciliation-logs", reconHandler.ListLogs)
	v1.GET("/reconciliation/batches/:batchId", reconHandler.GetBatch)

	// Invoices, payments and the ledger
	invoices := v1.Group("/invoices")
	{
		invoices.GET("", financeHandler.ListInvoices)
		invoices.POST("/generate", writers, financeHandler.GenerateInvoice)
		invoices.POST("/:id/recompute", writers, financeHandler.RecomputeInvoice)
	}
	v1.GET("/payments", financeHandler.ListPayments)
	v1.POST("/payments", writers, financeHandler.RecordPayment)
	v1.GET("/ledger", financeHandler.ListLedger)

	rep := v1.Group("/reports")
	{
		rep.GET("/term-revenue", reportHandler.TermRevenue)
		rep.GET("/outstanding-balances", reportHandler.OutstandingBalances)
		rep.GET("/revenue-by-class", reportHandler.RevenueByClass)
	}

	// Reference data
	v1.GET("/parents", catalogHandler.ListParents)
	v1.POST("/parents", writers, catalogHandler.CreateParent)
	v1.GET("/class-rooms", catalogHandler.ListClassRooms)
	v1.POST("/class-rooms", writers, catalogHandler.CreateClassRoom)
	v1.GET("/terms", catalogHandler.ListTerms)
	v1.POST("/terms", writers, catalogHandler.CreateTerm)
	v1.GET("/students", catalogHandler.ListStudents)
	v1.POST("/students", writers, catalogHandler.CreateStudent)
	v1.GET("/fee-structures", catalogHandler.ListFeeStructures)
	v1.POST("/fee-structures", writers, catalogHandler.CreateFeeStructure)
}
