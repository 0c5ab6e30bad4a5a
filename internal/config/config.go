package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BackendURL string

	StatePath string

	HTTPTimeout time.Duration

	CommentPageSize int
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	backendURL := os.Getenv("BACKEND_BASE_URL")
	if backendURL == "" {
		backendURL = "http://localhost:8080"
	}

	statePath := os.Getenv("CLIENT_STATE_PATH")
	if statePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		statePath = filepath.Join(home, ".writely", "state.db")
	}

	timeoutSecs, err := strconv.Atoi(os.Getenv("HTTP_TIMEOUT_SECONDS"))
	if err != nil || timeoutSecs <= 0 {
		timeoutSecs = 10
	}

	pageSize, err := strconv.Atoi(os.Getenv("COMMENT_PAGE_SIZE"))
	if err != nil || pageSize <= 0 {
		pageSize = 10
	}

	return &Config{
		BackendURL:      backendURL,
		StatePath:       statePath,
		HTTPTimeout:     time.Duration(timeoutSecs) * time.Second,
		CommentPageSize: pageSize,
	}, nil
}
