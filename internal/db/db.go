package db

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"canteen-be/internal/config"

	"github.com/lib/pq"
)

func InitDB(cfg *config.Config) *sql.DB {
	db, err := sql.Open("postgres", DSN(cfg))
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	if err = db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	log.Println("Database connection established")
	return db
}

func DSN(cfg *config.Config) string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)
}

// NewListener opens a LISTEN/NOTIFY connection for the order change feed.
// Reconnect handling is left to pq; callers consume listener.Notify.
func NewListener(cfg *config.Config, onEvent func(ev pq.ListenerEventType, err error)) *pq.Listener {
	return pq.NewListener(DSN(cfg), 10*time.Second, time.Minute, onEvent)
}
