package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/mkaydev/auto-shop/internal/auth"
	"github.com/mkaydev/auto-shop/internal/billing"
	"github.com/mkaydev/auto-shop/internal/chat"
	"github.com/mkaydev/auto-shop/internal/db"
	"github.com/mkaydev/auto-shop/internal/diagnostic"
	"github.com/mkaydev/auto-shop/internal/handlers"
	"github.com/mkaydev/auto-shop/internal/middleware"
	"github.com/mkaydev/auto-shop/internal/notify"
	"github.com/mkaydev/auto-shop/internal/scheduling"
)

// sessionSweepInterval drives the background cleanup of stale chat sessions.
const sessionSweepInterval = 10 * time.Minute

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using environment")
	}
	setupLogging()

	authService, err := auth.NewService()
	if err != nil {
		log.Fatalf("Auth configuration error: %v", err)
	}

	client, err := db.ConnectMongo()
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "autoshop"
	}
	database := client.Database(dbName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		cancel()
		log.Fatalf("Failed to ensure indexes: %v", err)
	}
	cancel()
	collections := db.NewCollections(database)
	log.Info("Connected to MongoDB")

	notifier := buildNotifier()
	sessionStore := buildSessionStore()
	completer := buildCompleter()

	engine := scheduling.NewEngine(collections.Appointments, collections.Vehicles, collections.Services, notifier)
	pipeline := chat.NewPipeline(sessionStore, completer, collections.Appointments, collections.Vehicles, notifier)
	billingService := billing.NewService(collections.Invoices, collections.Services, collections.Vehicles)
	simulator := diagnostic.NewSimulator()

	go pipeline.CleanupLoop(context.Background(), sessionSweepInterval)

	authHandler := handlers.NewAuthHandler(authService, collections.Users)
	appointmentHandler := handlers.NewAppointmentHandler(engine, collections.Appointments, collections.Users)
	chatHandler := handlers.NewChatHandler(pipeline, authService, collections.Users, collections.Vehicles)
	diagnosticsHandler := handlers.NewDiagnosticsHandler(simulator, pipeline, collections.Vehicles, collections.Users, notifier)
	vehicleHandler := handlers.NewVehicleHandler(collections.Vehicles, collections.Users)
	serviceHandler := handlers.NewServiceHandler(collections.Services, collections.Users)
	invoiceHandler := handlers.NewInvoiceHandler(billingService, collections.Invoices, collections.Appointments, collections.Users)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)

	mux.HandleFunc("POST /api/appointments", appointmentHandler.Create)
	mux.HandleFunc("GET /api/appointments", appointmentHandler.List)
	mux.HandleFunc("GET /api/appointments/{id}", appointmentHandler.Get)
	mux.HandleFunc("POST /api/appointments/{id}/status", appointmentHandler.UpdateStatus)
	mux.HandleFunc("POST /api/appointments/{id}/reschedule", appointmentHandler.Reschedule)
	mux.HandleFunc("POST /api/appointments/{id}/cancel", appointmentHandler.Cancel)

	mux.HandleFunc("POST /api/chat/message", chatHandler.SendMessage)
	mux.HandleFunc("GET /api/chat/history/{id}", chatHandler.History)

	mux.HandleFunc("POST /api/diagnostics/scan", diagnosticsHandler.Scan)
	mux.HandleFunc("GET /api/diagnostics/codes/{code}", diagnosticsHandler.Explain)
	mux.HandleFunc("POST /api/diagnostics/report", diagnosticsHandler.Report)

	mux.HandleFunc("POST /api/vehicles", vehicleHandler.Create)
	mux.HandleFunc("GET /api/vehicles", vehicleHandler.List)
	mux.HandleFunc("GET /api/vehicles/{id}", vehicleHandler.Get)
	mux.HandleFunc("PUT /api/vehicles/{id}", vehicleHandler.Update)

	mux.HandleFunc("GET /api/services", serviceHandler.List)
	mux.HandleFunc("POST /api/services", serviceHandler.Create)
	mux.HandleFunc("GET /api/services/{id}/quote", serviceHandler.Quote)

	mux.HandleFunc("POST /api/invoices", invoiceHandler.Create)
	mux.HandleFunc("GET /api/invoices/{id}", invoiceHandler.Get)
	mux.HandleFunc("POST /api/invoices/{id}/status", invoiceHandler.UpdateStatus)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	authMiddleware := middleware.NewAuthMiddleware(authService)
	rateLimiter := middleware.NewRateLimitMiddleware()
	handler := rateLimiter.RateLimit(120, 60)(authMiddleware.Authenticate(mux))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.WithFields(log.Fields{"port": port}).Info("HTTP server listening")
	log.Fatal(http.ListenAndServe(":"+port, handler))
}

func setupLogging() {
	log.SetFormatter(&log.JSONFormatter{})
	level, err := log.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// buildNotifier connects MQTT when a broker is configured, otherwise events
// are dropped.
func buildNotifier() notify.Notifier {
	brokerURL := os.Getenv("MQTT_BROKER")
	if brokerURL == "" {
		log.Warn("MQTT_BROKER not set, notifications disabled")
		return notify.NopNotifier{}
	}
	notifier, err := notify.ConnectMQTT(brokerURL, "auto-shop-api")
	if err != nil {
		log.WithError(err).Warn("MQTT unavailable, notifications disabled")
		return notify.NopNotifier{}
	}
	log.WithFields(log.Fields{"broker": brokerURL}).Info("Connected to MQTT broker")
	return notifier
}

// buildSessionStore uses Redis when configured so chat sessions survive
// restarts and are shared across instances; otherwise sessions live in
// process memory.
func buildSessionStore() chat.SessionStore {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		log.Warn("REDIS_ADDR not set, chat sessions held in memory")
		return chat.NewMemorySessionStore()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("Redis unavailable, chat sessions held in memory")
		return chat.NewMemorySessionStore()
	}
	log.WithFields(log.Fields{"addr": addr}).Info("Connected to Redis")
	return chat.NewRedisSessionStore(client)
}

// buildCompleter selects the language-model adapter by configuration
// presence: an API key means the live adapter, otherwise the deterministic
// keyword rules.
func buildCompleter() chat.ChatCompleter {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Info("OPENAI_API_KEY not set, chat runs in keyword-rule mode")
		return chat.NewRuleCompleter()
	}
	return chat.NewOpenAICompleter(apiKey, os.Getenv("OPENAI_BASE_URL"), os.Getenv("OPENAI_MODEL"))
}
