package main

import (
	"log"

	"github.com/clipbook/clipbook/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ clipbook failed to start: %v", err)
	}
}
