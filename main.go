package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// App carries everything the handlers and the sync loop share.
// Built once at boot and passed around explicitly; there is no
// package-level database handle.
type App struct {
	cfg    Config
	store  *Store
	client *http.Client
	now    func() time.Time
}

func newApp(cfg Config, store *Store) *App {
	return &App{
		cfg:    cfg,
		store:  store,
		client: &http.Client{Timeout: 5 * time.Second},
		now:    time.Now,
	}
}

func (a *App) router() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api/v2").Subrouter()
	api.HandleFunc("/", a.handleHome).Methods("GET")
	api.HandleFunc("/seed", a.handleSeed).Methods("GET")
	api.HandleFunc("/seed/{kind}", a.handleSeed).Methods("GET")
	api.HandleFunc("/time", a.handleTime).Methods("GET")
	api.HandleFunc("/apps", a.handleApps).Methods("GET")
	api.HandleFunc("/apps/{name}", a.handleApps).Methods("GET")
	api.HandleFunc("/tracker/{app}/{year}/{month}", a.handleTrackerGet).Methods("GET")
	api.HandleFunc("/tracker/{app}", a.handleTrackerPost).Methods("POST")
	api.HandleFunc("/scores/{app}", a.handleScoresGet).Methods("GET")
	api.HandleFunc("/scores/{app}/{window}", a.handleScoresGet).Methods("GET")
	api.HandleFunc("/scores/{app}", a.handleScoresPost).Methods("POST")

	r.HandleFunc("/auth", a.handleAuth).Methods("GET")
	r.HandleFunc("/backup", a.handleBackup).Methods("GET")

	return middlewareCORS(middlewareSecurity(r))
}

// instanceID survives restarts via system_meta; it only exists so log
// lines from different deployments are tellable apart.
func (a *App) instanceID() string {
	id, err := a.store.MetaGet("instance_id")
	if err == nil && id != "" {
		return id
	}
	id = uuid.NewString()
	a.store.MetaSet("instance_id", id)
	InfoLog.Printf("🚀 FIRST BOOT: instance %s", id)
	return id
}

func main() {
	setupLogging()

	cfg, err := loadConfig()
	if err != nil {
		ErrorLog.Fatal(err)
	}
	os.MkdirAll(cfg.CacheDir, 0755)

	store, err := openStore("sqlite3", cfg.DBPath())
	if err != nil {
		ErrorLog.Fatal(err)
	}
	defer store.Close()

	app := newApp(cfg, store)

	InfoLog.Println("PLAYBASE BOOT SEQUENCE")
	InfoLog.Printf("Instance %s | sync every %v | db %s", app.instanceID(), cfg.SyncInterval, cfg.DBPath())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Background Services
	go app.runSyncLoop(ctx)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      app.router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	InfoLog.Printf("Listening on %s", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		ErrorLog.Fatal(err)
	}
}
