package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-ticket-booking/internal/booking"
	"github.com/iliyamo/movie-ticket-booking/internal/config"
	"github.com/iliyamo/movie-ticket-booking/internal/database"
	"github.com/iliyamo/movie-ticket-booking/internal/handler"
	"github.com/iliyamo/movie-ticket-booking/internal/middleware"
	"github.com/iliyamo/movie-ticket-booking/internal/queue"
	"github.com/iliyamo/movie-ticket-booking/internal/router"
	"github.com/iliyamo/movie-ticket-booking/internal/store/mysql"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	st := mysql.New(db)
	svc := booking.NewService(st)

	authHandler := handler.NewAuthHandler(cfg, st)
	bookingHandler := handler.NewBookingHandler(svc)
	catalogHandler := handler.NewCatalogHandler(st)
	promoHandler := handler.NewPromoHandler(st, svc)

	e := echo.New()

	// Redis-backed rate limiting and response caching.  Both degrade to
	// no-ops when Redis is unreachable at startup.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterPublic(e, catalogHandler)
	router.RegisterCustomer(e, bookingHandler, promoHandler, cfg.JWTSecret)
	router.RegisterAdmin(e, catalogHandler, bookingHandler, promoHandler, cfg.JWTSecret)

	// Background consumer appends confirmed and cancelled bookings to
	// logs/booking.log.  It reconnects on its own; a failure here must
	// not take the API down.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
