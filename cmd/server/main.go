package main // Entry point package

import (
	"log" // Logging library

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/loyalty-coupon-book/internal/config"     // environment config loader
	"github.com/iliyamo/loyalty-coupon-book/internal/curation"   // external recommender client
	"github.com/iliyamo/loyalty-coupon-book/internal/database"   // MySQL connection helper
	"github.com/iliyamo/loyalty-coupon-book/internal/handler"    // HTTP handlers
	"github.com/iliyamo/loyalty-coupon-book/internal/middleware" // rate limit + response cache
	"github.com/iliyamo/loyalty-coupon-book/internal/queue"      // background event consumer
	"github.com/iliyamo/loyalty-coupon-book/internal/repository" // data access layer
	"github.com/iliyamo/loyalty-coupon-book/internal/router"     // route registration
)

func main() {
	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Repositories share one pooled connection.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	books := repository.NewCouponBookRepo(db)
	coupons := repository.NewCouponRepo(db)
	stamps := repository.NewStampRepo(db)
	favorites := repository.NewFavoriteRepo(db)
	templates := repository.NewTemplateRepo(db)
	places := repository.NewPlaceRepo(db)
	receipts := repository.NewReceiptRepo(db)

	authHandler := handler.NewAuthHandler(cfg, users, tokens, books)
	customerHandler := handler.NewCustomerHandler(books, coupons, stamps, favorites, templates,
		curation.NewHTTPRecommender(cfg.CurationURL))
	ownerHandler := handler.NewOwnerHandler(places, templates, receipts)

	e := echo.New() // Create Echo instance

	// Redis-backed rate limiting and response caching.  Both degrade to
	// pass-through middleware when Redis is unreachable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and caching disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterCustomer(e, customerHandler, cfg.JWTSecret)
	router.RegisterOwner(e, ownerHandler, cfg.JWTSecret)

	// Consume coupon.completed events in the background; the consumer
	// reconnects on broker failure and never stops the server.
	go func() {
		if err := queue.StartCompletedConsumer(); err != nil {
			log.Printf("completed-consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
