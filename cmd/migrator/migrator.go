package main

import (
	"log"
	"os"

	"github.com/NordCoder/apiwatch/migrations"
)

func main() {
	dbURL := os.Getenv("DB_DSN")
	if dbURL == "" {
		log.Fatal("DB_DSN is empty")
	}
	if err := migrations.Up(dbURL); err != nil {
		log.Fatal(err)
	}
	log.Println("migrations: up OK")
}
