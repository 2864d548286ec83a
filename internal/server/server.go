package server

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"bps/internal/cache"
	"bps/internal/database"
	"bps/internal/game"
)

type FiberServer struct {
	*fiber.App

	db       database.Service
	cache    cache.Service
	store    game.Store
	engine   *game.Engine
	hub      *game.Hub
	settings game.Settings
}

func New() *FiberServer {
	// Initialize database
	db := database.New()
	store := database.NewGameStore(db.DB())

	// Initialize Redis cache; the engine works without it, events just
	// stay in-process.
	redisService := cache.New()
	if redisService == nil {
		log.Println("[SERVER] Running without Redis event publishing")
	}

	// Initialize game components
	settings := game.LoadSettings()
	hub := game.NewHub()

	notifiers := game.MultiNotifier{hub}
	if publisher := cache.NewPublisher(redisService); publisher != nil {
		notifiers = append(notifiers, publisher)
	}

	engine := game.NewEngine(store, settings, notifiers)

	server := &FiberServer{
		App: fiber.New(fiber.Config{
			ServerHeader:  "bps",
			AppName:       "bps",
			ReadTimeout:   10 * time.Second,
			WriteTimeout:  10 * time.Second,
			IdleTimeout:   120 * time.Second,
			StrictRouting: false,
		}),

		db:       db,
		cache:    redisService,
		store:    store,
		engine:   engine,
		hub:      hub,
		settings: settings,
	}

	// Apply global middleware
	server.App.Use(recover.New())
	server.App.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
	}))

	// Start game components
	go hub.Run()

	log.Println("[SERVER] Game engine started")

	return server
}

// Close releases the server's database and cache connections after the
// listener has stopped.
func (s *FiberServer) Close() error {
	log.Println("[SERVER] Shutting down...")

	// Close connections
	if s.cache != nil {
		s.cache.Close()
	}
	if s.db != nil {
		s.db.Close()
	}

	return nil
}
