package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"

	"github.com/mohamkz/banking-app/internal/auth"
	"github.com/mohamkz/banking-app/internal/config"
	"github.com/mohamkz/banking-app/internal/fraud"
	"github.com/mohamkz/banking-app/internal/handler"
	"github.com/mohamkz/banking-app/internal/ledger"
	"github.com/mohamkz/banking-app/internal/repository"
	"github.com/mohamkz/banking-app/internal/service"
)

// Server represents the HTTP server
type Server struct {
	router      *mux.Router
	server      *http.Server
	db          *sql.DB
	logger      *slog.Logger
	port        string
	stopSweeper context.CancelFunc
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	// Initialize database connection
	db, err := sql.Open("postgres", cfg.GetDBConnectionString())
	if err != nil {
		return nil, err
	}

	// Configure connection pool for better performance
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Test database connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if logger != nil {
		logger.Info("Successfully connected to database")
	}

	// Initialize store (Unit of Work)
	store := repository.NewStore(db, logger)

	// Initialize auth components
	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiration)
	if err != nil {
		db.Close()
		return nil, err
	}
	revocations := auth.NewRevocationList()
	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	revocations.StartSweeper(sweeperCtx, time.Minute)

	authService := auth.NewService(store, auth.NewBcryptHasher(), tokens, revocations, logger)

	// Initialize ledger engine and services
	engine := ledger.NewEngine(store, logger)
	accountService := service.NewAccountService(store, cfg.DefaultCurrency, logger)
	transactionService := service.NewTransactionService(engine, store, logger)
	scorer := fraud.NewClient(cfg.FraudAPIURL, cfg.FraudTimeout, logger)
	adminService := service.NewAdminService(store, scorer, transactionService, logger)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(authService)
	accountHandler := handler.NewAccountHandler(accountService, transactionService)
	transactionHandler := handler.NewTransactionHandler(accountService, transactionService)
	adminHandler := handler.NewAdminHandler(adminService)

	// Setup router
	router := mux.NewRouter()

	// Add middleware for logging
	router.Use(handler.Logging(logger))

	// Auth routes (no credential required)
	authRouter := router.PathPrefix("/api/auth").Subrouter()
	authRouter.HandleFunc("/register", authHandler.Register).Methods("POST")
	authRouter.HandleFunc("/login", authHandler.Login).Methods("POST")
	authRouter.HandleFunc("/logout", authHandler.Logout).Methods("POST")

	authenticated := handler.Authenticated(authService)

	// User routes
	userRouter := router.PathPrefix("/api/users").Subrouter()
	userRouter.Use(authenticated)
	userRouter.HandleFunc("/me", userHandler.Me).Methods("GET")
	userRouter.HandleFunc("/me", userHandler.UpdateMe).Methods("PUT")
	userRouter.HandleFunc("/me/password", userHandler.ChangePassword).Methods("PATCH")

	// Account routes
	accountRouter := router.PathPrefix("/api/accounts").Subrouter()
	accountRouter.Use(authenticated)
	accountRouter.HandleFunc("/new", accountHandler.Open).Methods("POST")
	accountRouter.HandleFunc("/owned", accountHandler.ListOwned).Methods("GET")
	accountRouter.HandleFunc("/{account_number}", accountHandler.View).Methods("GET")
	accountRouter.HandleFunc("/{account_number}/deposit", accountHandler.Deposit).Methods("POST")

	// Transfer routes
	transferRouter := router.PathPrefix("/api/transfers").Subrouter()
	transferRouter.Use(authenticated)
	transferRouter.HandleFunc("", transactionHandler.Transfer).Methods("POST")
	transferRouter.HandleFunc("/account/{account_number}", transactionHandler.History(service.HistoryAll)).Methods("GET")
	transferRouter.HandleFunc("/deposits/account/{account_number}", transactionHandler.History(service.HistoryDeposits)).Methods("GET")
	transferRouter.HandleFunc("/sent/account/{account_number}", transactionHandler.History(service.HistorySent)).Methods("GET")
	transferRouter.HandleFunc("/received/account/{account_number}", transactionHandler.History(service.HistoryReceived)).Methods("GET")

	// Admin routes
	adminRouter := router.PathPrefix("/api/admin").Subrouter()
	adminRouter.Use(authenticated, handler.AdminOnly())
	adminRouter.HandleFunc("/system-stats", adminHandler.SystemStats).Methods("GET")
	adminRouter.HandleFunc("/daily-stats", adminHandler.DailyStats).Methods("GET")
	adminRouter.HandleFunc("/12-month-stats", adminHandler.MonthlyStats).Methods("GET")
	adminRouter.HandleFunc("/users", adminHandler.Users).Methods("GET")
	adminRouter.HandleFunc("/accounts", adminHandler.Accounts).Methods("GET")
	adminRouter.HandleFunc("/transactions", adminHandler.Transactions).Methods("GET")

	// Health check
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		// Check database connectivity in health check
		if err := db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": "database unavailable"})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}).Methods("GET")

	return &Server{
		router:      router,
		db:          db,
		logger:      logger,
		stopSweeper: stopSweeper,
	}, nil
}

// Start starts the HTTP server on the specified port
func (s *Server) Start(port string) (string, error) {
	// Create listener first to get actual port
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return "", err
	}

	// Get the actual port being used
	addr := listener.Addr().(*net.TCPAddr)
	s.port = strconv.Itoa(addr.Port)

	// Create HTTP server
	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if s.logger != nil {
		s.logger.Info("Starting server", "port", s.port)
	}

	// Start server in background
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Error("Server failed to start", "error", err)
			}
		}
	}()

	return s.port, nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	if s.logger != nil {
		s.logger.Info("Shutting down server")
	}

	if s.stopSweeper != nil {
		s.stopSweeper()
	}

	// Close database connection
	if s.db != nil {
		s.db.Close()
	}

	// Shutdown HTTP server
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// GetPort returns the port the server is listening on
func (s *Server) GetPort() string {
	return s.port
}

// GetBaseURL returns the base URL for the server
func (s *Server) GetBaseURL() string {
	return "http://localhost:" + s.port
}

// GetRouter returns the router for testing purposes
func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// StartServer starts the server with the given configuration
func StartServer(cfg *config.Config) (*Server, string, error) {
	// Initialize logger - use io.Discard for tests to avoid panic
	var logger *slog.Logger
	if cfg.ServerPort == "0" {
		// Test environment - use discard logger
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	} else {
		// Production environment - use stdout
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	server, err := NewServer(cfg, logger)
	if err != nil {
		return nil, "", err
	}

	// Start the server and get the actual port
	port, err := server.Start(cfg.ServerPort)
	if err != nil {
		return nil, "", err
	}

	return server, port, nil
}
