package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/autora/contract-service/api"
	"github.com/autora/contract-service/audit"
	"github.com/autora/contract-service/config"
	"github.com/autora/contract-service/db"
	"github.com/autora/contract-service/events"
	appmw "github.com/autora/contract-service/middleware"
	"github.com/autora/contract-service/pdf"
	"github.com/autora/contract-service/services"
	"github.com/autora/contract-service/stores"
)

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorBlue  = "\033[34m"
	colorCyan  = "\033[36m"
	colorBold  = "\033[1m"
)

func printStep(step, message string) {
	fmt.Printf("%s[%s]%s %s%s%s\n", colorBlue, step, colorReset, colorBold, message, colorReset)
}

func printSuccess(message string) {
	fmt.Printf("%s✓%s %s\n", colorGreen, colorReset, message)
}

func printError(message string) {
	fmt.Printf("%s✗%s %s\n", colorRed, colorReset, message)
}

func main() {
	fmt.Printf("%s%sContract Service%s\n\n", colorCyan, colorBold, colorReset)

	printStep("1/7", "Loading configuration...")
	cfg, err := config.LoadConfig()
	if err != nil {
		printError(fmt.Sprintf("Failed to load configuration: %v", err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		printError(fmt.Sprintf("Configuration validation failed: %v", err))
		os.Exit(1)
	}
	printSuccess("Configuration loaded")

	printStep("2/7", "Connecting to database...")
	gormDB, err := db.Open(cfg)
	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		printError(fmt.Sprintf("Failed to get database instance: %v", err))
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.Migrate(gormDB); err != nil {
		printError(fmt.Sprintf("Failed to migrate schema: %v", err))
		os.Exit(1)
	}
	printSuccess(fmt.Sprintf("Connected to PostgreSQL at %s:%d", cfg.Database.Host, cfg.Database.Port))

	printStep("3/7", "Initializing document storage...")
	auditor := audit.NewLogger()

	var storage pdf.Storage
	var objects *pdf.ObjectStorage
	if cfg.Storage.Type == config.StorageTypeS3 {
		objects, err = pdf.NewObjectStorage(pdf.ObjectStorageConfig{
			Endpoint:  cfg.Storage.S3.Endpoint,
			AccessKey: cfg.Storage.S3.AccessKey,
			SecretKey: cfg.Storage.S3.SecretKey,
			Bucket:    cfg.Storage.S3.BucketName,
			UseSSL:    cfg.Storage.S3.UseSSL,
		})
		if err != nil {
			printError(err.Error())
			os.Exit(1)
		}
		if err := objects.EnsureBucket(context.Background()); err != nil {
			printError(err.Error())
			os.Exit(1)
		}
		storage = objects
		printSuccess(fmt.Sprintf("Object storage ready (bucket %s)", cfg.Storage.S3.BucketName))
	} else {
		storage = pdf.NewLocalStorage(cfg.Storage.Local.BasePath)
		printSuccess(fmt.Sprintf("Local storage ready (%s)", cfg.Storage.Local.BasePath))
	}

	renderer := pdf.NewRenderer(storage, auditor, cfg.PDF.RenderOrderDetails)

	printStep("4/7", "Initializing stores...")
	contractStore := stores.NewContractStore(gormDB)
	outboxStore := stores.NewOutboxStore(gormDB)
	printSuccess("Stores initialized")

	printStep("5/7", "Starting event dispatcher...")
	publisher := events.NewPublisher(cfg.Events.Brokers)
	dispatcher := events.NewDispatcher(outboxStore, publisher, auditor, events.DispatcherConfig{
		Interval:    cfg.Events.DispatchInterval,
		BatchSize:   cfg.Events.DispatchBatch,
		MaxAttempts: cfg.Events.MaxAttempts,
	})
	dispatcher.Start()
	printSuccess(fmt.Sprintf("Dispatcher draining to topic %q", cfg.Events.Topic))

	printStep("6/7", "Initializing services...")
	contractService := services.NewContractService(contractStore, renderer, outboxStore, auditor, cfg.Events.Topic)
	printSuccess("Services initialized")

	printStep("7/7", "Setting up HTTP server...")
	// a nil *ObjectStorage must not reach the handler as a non-nil interface
	contractHandler := api.NewContractHandler(contractService, nil)
	if objects != nil {
		contractHandler = api.NewContractHandler(contractService, objects)
	}
	healthHandler := api.NewHealthHandler(gormDB)

	router := mux.NewRouter()
	router.Use(appmw.TraceMiddleware)
	router.Use(appmw.LoggingMiddleware)
	router.Use(appmw.CORSMiddleware)
	router.Use(appmw.RecoveryMiddleware)
	router.Use(appmw.RateLimitMiddleware(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))

	contractHandler.Register(router)
	router.HandleFunc("/health/live", healthHandler.HandleLive).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", healthHandler.HandleReady).Methods(http.MethodGet)

	server := &http.Server{
		Addr:           ":" + cfg.Server.Port,
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}
	printSuccess("HTTP server configured")

	go func() {
		fmt.Printf("\nListening on port %s (environment: %s)\n", cfg.Server.Port, cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			printError(fmt.Sprintf("Server failed to start: %v", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		printError(fmt.Sprintf("Server forced to shutdown: %v", err))
		os.Exit(1)
	}

	dispatcher.Stop()
	dispatcher.Drain(ctx)
	if err := publisher.Close(); err != nil {
		printError(fmt.Sprintf("Failed to close publisher: %v", err))
	}

	printSuccess("Server stopped gracefully")
}
