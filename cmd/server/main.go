package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/dunskii/booking-waitlist/internal/availability"
	"github.com/dunskii/booking-waitlist/internal/config"
	"github.com/dunskii/booking-waitlist/internal/database"
	"github.com/dunskii/booking-waitlist/internal/handler"
	"github.com/dunskii/booking-waitlist/internal/offer"
	"github.com/dunskii/booking-waitlist/internal/queue"
	"github.com/dunskii/booking-waitlist/internal/repository"
	"github.com/dunskii/booking-waitlist/internal/router"
	queuepublisher "github.com/dunskii/booking-waitlist/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is unreachable; limiter passes through

	blocks := repository.NewBlockRepo(db)
	entries := repository.NewWaitlistRepo(db)
	bookings := repository.NewBookingRepo(db)
	users := repository.NewUserRepo(db)

	oracle := availability.New(blocks)
	notifier := queuepublisher.New()
	coord := offer.NewCoordinator(entries, oracle, bookings, notifier, cfg.OfferWindow, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Purge roughly once a day regardless of the sweep cadence.
	purgeEvery := int(24 * time.Hour / cfg.SweepInterval)
	if purgeEvery < 1 {
		purgeEvery = 1
	}
	sweeper := &offer.Sweeper{
		Entries:         entries,
		Coord:           coord,
		Interval:        cfg.SweepInterval,
		Retention:       retention{blocks: blocks, entries: entries},
		RetentionEvery:  purgeEvery,
		RetentionWindow: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
	}
	go sweeper.Run(ctx)

	// Drains offer events into the notification audit log; reconnects on
	// broker failure.
	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users), cfg.JWTSecret)
	router.RegisterPublic(e,
		handler.NewAvailabilityHandler(oracle),
		handler.NewWaitlistHandler(entries, coord),
		config.LoadRateLimitConfig(), rdb)
	router.RegisterAdmin(e, handler.NewBlockHandler(blocks), handler.NewWaitlistHandler(entries, coord), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// retention joins the two purge sources behind the sweeper's Retention
// interface.
type retention struct {
	blocks  *repository.BlockRepo
	entries *repository.WaitlistRepo
}

func (r retention) PurgeElapsed(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.blocks.PurgeElapsed(ctx, cutoff)
}

func (r retention) PurgeTerminal(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.entries.PurgeTerminal(ctx, cutoff)
}
