package main

import (
	"context"
	"html/template"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"grievance-portal-go/internal/handlers"
	"grievance-portal-go/internal/push"
	"grievance-portal-go/internal/store"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using defaults")
	}

	// Session secret
	handlers.InitSessionStore(os.Getenv("SESSION_SECRET"))

	// Redis Configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDBStr := os.Getenv("REDIS_DB")
	redisDB := 0
	if redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}

	// Initialize Redis store (activity feed + SSE)
	activityStore := store.NewRedisStore(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})

	// PostgreSQL Configuration
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	// Initialize PostgreSQL store (users, grievances, subscriptions)
	pgStore, err := store.NewPostgresStore(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}

	// Run database migrations
	ctx := context.Background()
	if err := pgStore.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	// Push dispatcher (VAPID keys from env, or generated at boot)
	dispatcher, err := push.NewDispatcher(
		pgStore,
		os.Getenv("VAPID_PRIVATE_KEY"),
		os.Getenv("VAPID_PUBLIC_KEY"),
		os.Getenv("PUSH_SUBSCRIBER"),
	)
	if err != nil {
		log.Fatalf("Failed to initialize push dispatcher: %v", err)
	}

	// Parse page templates
	tmpl := make(map[string]*template.Template)
	pages := map[string]string{
		"login":      filepath.Join("web", "templates", "login.html"),
		"signup":     filepath.Join("web", "templates", "signup.html"),
		"grievances": filepath.Join("web", "templates", "grievances.html"),
		"settings":   filepath.Join("web", "templates", "settings.html"),
	}
	for name, path := range pages {
		t, err := template.ParseFiles(path)
		if err != nil {
			log.Fatalf("Failed to parse template %s: %v", name, err)
		}
		tmpl[name] = t
	}

	h := handlers.NewHandler(pgStore, activityStore, dispatcher, tmpl)

	// Pages
	http.HandleFunc("/", h.IndexHandler)
	http.HandleFunc("/signup", h.SignupPage)
	http.HandleFunc("/grievances", h.GrievancesPage)
	http.HandleFunc("/settings", h.SettingsPage)

	// Auth
	http.HandleFunc("/api/login", h.LoginHandler)
	http.HandleFunc("/api/login/2fa", h.Verify2FALoginHandler)
	http.HandleFunc("/api/logout", h.LogoutHandler)

	// Users
	http.HandleFunc("/api/users", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.RegisterUserHandler(w, r)
		case http.MethodGet:
			handlers.AuthMiddleware(h.GetUsersHandler)(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Grievances
	http.HandleFunc("/api/grievances", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.ListGrievancesHandler(w, r)
		case http.MethodPost:
			h.CreateGrievanceHandler(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Push subscriptions
	http.HandleFunc("/api/push/key", h.GetVAPIDKeyHandler)
	http.HandleFunc("/api/push/subscribe", h.SubscribePushHandler)
	http.HandleFunc("/api/push/unsubscribe", h.UnsubscribePushHandler)

	// Activity feed
	http.HandleFunc("/api/activity", handlers.AuthMiddleware(h.GetActivityHandler))
	http.HandleFunc("/api/activity/clear", handlers.AuthMiddleware(h.ClearActivityHandler))
	http.HandleFunc("/events", h.SSEHandler)

	// 2FA
	http.HandleFunc("/api/2fa/generate", handlers.AuthMiddleware(h.Generate2FAHandler))
	http.HandleFunc("/api/2fa/enable", handlers.AuthMiddleware(h.Enable2FAHandler))
	http.HandleFunc("/api/2fa/disable", handlers.AuthMiddleware(h.Disable2FAHandler))

	// Metrics
	http.Handle("/metrics", promhttp.Handler())

	// Serve static files (PWA assets)
	fs := http.FileServer(http.Dir("web/static"))
	http.Handle("/static/", http.StripPrefix("/static/", fs))

	// Service worker must be served from the origin root so its scope
	// covers the whole app.
	http.HandleFunc("/sw.js", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join("web", "static", "sw.js"))
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("Listening on :" + port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatal(err)
	}
}
