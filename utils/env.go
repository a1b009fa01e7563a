package utils

import (
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func LoadEnv() {
	godotenv.Load()
}

func Regkey() string {
	return os.Getenv("regkey")
}

func GenerateUUID() string {
	return uuid.New().String()
}
