package main

import (
	"fmt"
	"os"

	"github.com/shaderlabs/shaderlab-backend/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Run(); err != nil {
		a.Log.Error("server failed", "error", err)
	}
}
