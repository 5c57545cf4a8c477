// FilePath: cmd/main.go
package main

import (
	"fmt"
	"log"
	"os"

	tm "github.com/buger/goterm"
	"github.com/joho/godotenv"
	nuts "github.com/vaudience/go-nuts"

	"github.com/verdelab/greenhub/internal/config"
	"github.com/verdelab/greenhub/internal/server"
)

func main() {
	// Clear console and draw logo
	ClearConsole()
	DrawLogo()
	// Initialize version info
	nuts.InitVersion()
	nuts.L.Infof("[Main] Starting GreenHub Server v%s", nuts.GetVersion())

	// Local development drops credentials into .env; absence is fine.
	if err := godotenv.Load(); err == nil {
		nuts.L.Infof("[Main] Loaded environment from .env")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create and start server
	srv := server.New(cfg)
	if err := srv.Start(); err != nil {
		nuts.L.Errorf("[Main] Server error: %v", err)
		os.Exit(1)
	}
}

// ClearConsole clears the console screen and draws the logo.
func ClearConsole() {
	tm.Clear()
	tm.MoveCursor(1, 1)
	tm.Flush()
}

func DrawLogo() {
	fmt.Println()
	lines := []string{
		"   ______                    __  __      __  ",
		"  / ____/_______  ___  ____ / / / /_  __/ /_ ",
		" / / __/ ___/ _ \\/ _ \\/ __ \\/ /_/ / / / / __ \\",
		"/ /_/ / /  /  __/  __/ / / / __  / /_/ / /_/ /",
		"\\____/_/   \\___/\\___/_/ /_/_/ /_/\\__,_/_.___/ ",
		"............................................  " + nuts.GetVersion(),
	}

	for _, line := range lines {
		fmt.Println(line)
	}
}
