package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	cataloghandler "github.com/eczanem/pharmatrack-backend/internal/catalog/handler"
	catalogrepo "github.com/eczanem/pharmatrack-backend/internal/catalog/repository"
	catalogservice "github.com/eczanem/pharmatrack-backend/internal/catalog/service"
	inventoryevents "github.com/eczanem/pharmatrack-backend/internal/inventory/events"
	inventoryhandler "github.com/eczanem/pharmatrack-backend/internal/inventory/handler"
	"github.com/eczanem/pharmatrack-backend/internal/inventory/importer"
	inventoryrepo "github.com/eczanem/pharmatrack-backend/internal/inventory/repository"
	"github.com/eczanem/pharmatrack-backend/internal/reports/client"
	"github.com/eczanem/pharmatrack-backend/internal/reports/decision"
	reportshandler "github.com/eczanem/pharmatrack-backend/internal/reports/handler"
	reportsservice "github.com/eczanem/pharmatrack-backend/internal/reports/service"
	salesevents "github.com/eczanem/pharmatrack-backend/internal/sales/events"
	saleshandler "github.com/eczanem/pharmatrack-backend/internal/sales/handler"
	"github.com/eczanem/pharmatrack-backend/internal/sales/ledger"
	salesrepo "github.com/eczanem/pharmatrack-backend/internal/sales/repository"
	salesservice "github.com/eczanem/pharmatrack-backend/internal/sales/service"
	userevents "github.com/eczanem/pharmatrack-backend/internal/user/events"
	userhandler "github.com/eczanem/pharmatrack-backend/internal/user/handler"
	"github.com/eczanem/pharmatrack-backend/internal/user/jwt"
	userrepo "github.com/eczanem/pharmatrack-backend/internal/user/repository"
	userservice "github.com/eczanem/pharmatrack-backend/internal/user/service"
	"github.com/eczanem/pharmatrack-backend/pkg/config"
	"github.com/eczanem/pharmatrack-backend/pkg/database"
	"github.com/eczanem/pharmatrack-backend/pkg/httputil"
	"github.com/eczanem/pharmatrack-backend/pkg/logger"
	"github.com/eczanem/pharmatrack-backend/pkg/messaging"
)

func main() {
	cfg, err := config.LoadWithValidation("server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("pharmatrack", cfg.Server.Environment)
	log.Info().Msg("starting PharmaTrack server")

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	guide, err := decision.LoadGuide(cfg.Reports.GuidePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Reports.GuidePath).Msg("failed to load hepatitis guide")
	}

	// Event publishers
	stockPublisher, err := inventoryevents.NewStockEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create stock event publisher")
	}
	salePublisher, err := salesevents.NewSaleEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create sale event publisher")
	}
	userPublisher, err := userevents.NewUserEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create user event publisher")
	}

	// Catalog
	medicineRepo := catalogrepo.NewMedicineRepository(db)
	supplierRepo := catalogrepo.NewSupplierRepository(db)
	resolver := catalogservice.NewResolver(medicineRepo, log)
	medicineHandler := cataloghandler.NewMedicineHandler(medicineRepo, log)
	supplierHandler := cataloghandler.NewSupplierHandler(supplierRepo, log)

	// Inventory
	lotRepo := inventoryrepo.NewLotRepository(db)
	excelImporter := importer.NewExcelImporter(lotRepo, log)
	stockHandler := inventoryhandler.NewStockHandler(lotRepo, excelImporter, stockPublisher, log)

	// Sales
	saleRepo := salesrepo.NewSaleRepository(db)
	stockLedger := ledger.NewStockLedger(db, saleRepo, log)
	salesSvc := salesservice.NewService(resolver, stockLedger, saleRepo, salePublisher, stockPublisher, log)
	salesAnalytics := salesservice.NewAnalytics(saleRepo, log)
	saleHandler := saleshandler.NewSaleHandler(salesSvc, salesAnalytics, log)

	// Users
	jwtManager := jwt.NewManager(&cfg.JWT)
	usersRepo := userrepo.NewUserRepository(db)
	sessionRepo := userrepo.NewSessionRepository(db)
	authService := userservice.NewAuthService(usersRepo, sessionRepo, jwtManager, userPublisher, log)
	authHandler := userhandler.NewAuthHandler(authService, log)

	// Reports
	var ocr reportsservice.TextExtractor
	if cfg.Reports.OCRServiceURL != "" {
		ocr = client.NewOCRClient(cfg.Reports.OCRServiceURL)
	}
	var llm reportsservice.Completer
	if cfg.Reports.LLMAPIURL != "" {
		llm = client.NewLLMClient(&cfg.Reports)
	}
	reportsSvc := reportsservice.NewService(ocr, llm, guide, log)
	reportHandler := reportshandler.NewReportHandler(reportsSvc, log)

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "pharmatrack",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/logout", authHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(userhandler.Authenticator(jwtManager))
				r.Get("/me", authHandler.Me)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(userhandler.Authenticator(jwtManager))

			r.Route("/medicines", func(r chi.Router) {
				r.Post("/", medicineHandler.Create)
				r.Get("/", medicineHandler.List)
				r.Get("/{id}", medicineHandler.Get)
				r.Put("/{id}", medicineHandler.Update)
				r.Delete("/{id}", medicineHandler.Delete)
				r.Post("/{id}/ingredients", medicineHandler.AddIngredient)
			})

			r.Route("/suppliers", func(r chi.Router) {
				r.Post("/", supplierHandler.Create)
				r.Get("/", supplierHandler.List)
				r.Get("/{id}", supplierHandler.Get)
				r.Put("/{id}", supplierHandler.Update)
				r.Delete("/{id}", supplierHandler.Delete)
			})

			r.Route("/stock", func(r chi.Router) {
				r.Post("/", stockHandler.Add)
				r.Get("/medicine/{medicineID}", stockHandler.ListByMedicine)
				r.Get("/expiring", stockHandler.Expiring)
				r.Put("/{id}", stockHandler.Update)
				r.Delete("/{id}", stockHandler.Delete)
				r.Post("/import", stockHandler.Import)
			})

			r.Route("/sales", func(r chi.Router) {
				r.Post("/", saleHandler.Record)
				r.Get("/", saleHandler.List)
				r.Get("/{id}", saleHandler.Get)
				r.Route("/analysis", func(r chi.Router) {
					r.Get("/summary", saleHandler.Summary)
					r.Get("/trend", saleHandler.Trend)
					r.Get("/medicines/{medicineID}", saleHandler.MedicineTotal)
				})
			})

			r.Route("/reports", func(r chi.Router) {
				r.Post("/extract", reportHandler.Extract)
				r.Post("/entities", reportHandler.Entities)
				r.Post("/eligibility", reportHandler.Eligibility)
				r.Post("/validate", reportHandler.Validate)
			})
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
