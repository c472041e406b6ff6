package database

import (
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Connect opens the PostgreSQL pool and stores it in DB. Cloud Run
// deployments reach Cloud SQL through its unix socket; everywhere else
// the DSN is built from the DB_* variables.
func Connect() {
	db, err := gorm.Open(postgres.Open(buildDSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("❌ No se pudo conectar a la base de datos: %v", err)
	}
	DB = db
	log.Println("✅ Database connected successfully!")
}

func buildDSN() string {
	user := envOr("DB_USER", "postgres")
	pass := os.Getenv("DB_PASS")
	name := envOr("DB_NAME", "citabot")

	if instance := os.Getenv("INSTANCE_CONNECTION_NAME"); instance != "" {
		log.Printf("Connecting to Cloud SQL via socket: %s", instance)
		return fmt.Sprintf("host=/cloudsql/%s user=%s password=%s dbname=%s sslmode=disable",
			instance, user, pass, name)
	}

	host := envOr("DB_HOST", "localhost")
	port := envOr("DB_PORT", "5432")
	log.Printf("Connecting to PostgreSQL at %s:%s", host, port)
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, pass, name)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
