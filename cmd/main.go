package main

import (
	"database/sql"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/JOHNINFA/crm-fabrica-sub005/internal/api"
	"github.com/JOHNINFA/crm-fabrica-sub005/internal/backend"
	"github.com/JOHNINFA/crm-fabrica-sub005/internal/config"
	consumer2 "github.com/JOHNINFA/crm-fabrica-sub005/internal/consumer"
	"github.com/JOHNINFA/crm-fabrica-sub005/internal/repository"
	"github.com/JOHNINFA/crm-fabrica-sub005/internal/service"
	"github.com/JOHNINFA/crm-fabrica-sub005/internal/store"
	"github.com/JOHNINFA/crm-fabrica-sub005/migrations"
)

func connectDB(dsn string) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("mysql", dsn)
		if err == nil {
			err = db.Ping()
			if err == nil {
				return db, nil
			}
		}
		log.Printf("Retry %d: failed to connect to DB: %v", i+1, err)
		time.Sleep(3 * time.Second)
	}
	return nil, err
}

func main() {

	db, err := connectDB(config.MySQLDSN())
	if err != nil {
		panic(err)
	}

	err = migrations.AutoMigrateCorrectionLog(3, db)
	if err != nil {
		log.Fatalf("Failed to migrate correction_log table: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: config.RedisAddr(),
	})

	kafkaWriter := config.NewKafkaWriter("draft-topic")

	// Initialize draft service
	draftStore := store.NewDraftStore(rdb)
	backendClient := backend.NewClient(config.BackendURL())
	correctionRepo := repository.NewCorrectionLogRepository(db)
	draftService := service.NewDraftService(draftStore, backendClient, correctionRepo, kafkaWriter)
	draftHandler := api.NewDraftHandler(draftService)

	// consumer
	consumer := consumer2.NewConsumer(draftService, config.KafkaBrokerURLs())
	go consumer.StartKafkaConsumer()

	// Initialize echo
	e := echo.New()

	limiterConfig := middleware.RateLimiterConfig{
		Skipper: middleware.DefaultSkipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(1),
				Burst:     3,
				ExpiresIn: 3 * time.Minute,
			}),
		IdentifierExtractor: func(context echo.Context) (string, error) {
			// for local
			return context.Request().RemoteAddr, nil
			// for production
			// return context.Request().Header.Get(echo.HeaderXRealIP), nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(429, map[string]string{"error": "rate limit exceeded"})
		},
	}

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(config.JWTSecret()),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(api.CashierClaims)
		},
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/drafts/health"
		},
	}))
	e.Use(middleware.RateLimiterWithConfig(limiterConfig))

	// Routes
	e.GET("/drafts/:vendorId", draftHandler.GetDraft)
	e.POST("/drafts/:vendorId/corrections", draftHandler.ApplyCorrections)
	e.GET("/drafts/:vendorId/corrections", draftHandler.ListCorrections)
	e.DELETE("/drafts/:vendorId", draftHandler.PurgeDrafts)

	e.GET("/drafts/health", func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{
			"status":  "ok",
			"service": "route-draft-service",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	// Start server
	e.Logger.Fatal(e.Start(":8084"))
}
