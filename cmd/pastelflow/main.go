package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/pastelflow/pastelflow/database"
	"github.com/pastelflow/pastelflow/handlers"
	"github.com/pastelflow/pastelflow/services"
)

var rootCmd = &cobra.Command{
	Use:   "pastelflow",
	Short: "Personal kanban board with floating widgets and realtime sync",
}

var (
	servePort string
	serveDB   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the PastelFlow sync server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "port to listen on (defaults to $PORT or 3001)")
	serveCmd.Flags().StringVar(&serveDB, "db", "./pastelflow.db", "path to the sqlite database")
	rootCmd.AddCommand(serveCmd)
}

func serve() error {
	// Load environment variables from .env file when present
	if err := services.LoadEnv(".env"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error loading .env file: %w", err)
	}

	// Initialize database
	db, err := database.Open(serveDB)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// Initialize services
	authService := services.NewAuthService()
	store := database.NewStore(db)

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, store)
	dataHandler := handlers.NewDataHandler(store, authService, hub)
	authMiddleware := handlers.NewAuthMiddleware(authService)

	// Setup router
	r := mux.NewRouter()

	// Profile and session routes
	r.HandleFunc("/api/profiles", authHandler.ListProfiles).Methods("GET")
	r.HandleFunc("/api/profiles", authHandler.CreateProfile).Methods("POST")
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/auth/verify", authHandler.VerifyToken).Methods("GET")

	// Data routes (protected)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Auth)
	api.HandleFunc("/profiles/settings", authHandler.SaveSettings).Methods("PATCH")
	api.HandleFunc("/board", dataHandler.GetBoard).Methods("GET")
	api.HandleFunc("/columns", dataHandler.InsertColumn).Methods("POST")
	api.HandleFunc("/columns", dataHandler.UpsertColumns).Methods("PUT")
	api.HandleFunc("/columns/{id}", dataHandler.UpdateColumn).Methods("PATCH")
	api.HandleFunc("/columns/{id}", dataHandler.DeleteColumn).Methods("DELETE")
	api.HandleFunc("/tasks", dataHandler.InsertTask).Methods("POST")
	api.HandleFunc("/tasks", dataHandler.UpsertTasks).Methods("PUT")
	api.HandleFunc("/tasks/{id}", dataHandler.UpdateTask).Methods("PATCH")
	api.HandleFunc("/tasks/{id}", dataHandler.DeleteTask).Methods("DELETE")
	api.HandleFunc("/events", dataHandler.ListEvents).Methods("GET")
	api.HandleFunc("/events", dataHandler.InsertEvent).Methods("POST")
	api.HandleFunc("/events/{id}", dataHandler.UpdateEvent).Methods("PATCH")
	api.HandleFunc("/events/{id}", dataHandler.DeleteEvent).Methods("DELETE")
	api.HandleFunc("/notes", dataHandler.ListDayNotes).Methods("GET")
	api.HandleFunc("/notes", dataHandler.UpsertDayNote).Methods("PUT")

	// WebSocket route for real-time updates (token travels in the query)
	r.HandleFunc("/api/ws", dataHandler.HandleWebSocket)

	// Setup CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // In production, change to your domain
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Client-ID"},
		AllowCredentials: true,
	})

	// Get port from flag, environment, or use default
	port := servePort
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = "3001"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      c.Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Server starting on port %s", port)
	return server.ListenAndServe()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
