// Why this file: ./cmd/main.go
// Entry point. `krishimitra serve` runs the REST API; with no arguments
// it drops into an interactive prompt for asking farm questions from the
// terminal.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/yourusername/krishimitra-assistant/internal/app"
	"github.com/yourusername/krishimitra-assistant/internal/server"
	"github.com/yourusername/krishimitra-assistant/models"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	fmt.Printf("🌾 KrishiMitra v%s\n", version)
	fmt.Printf("🔄 Initializing...\n")

	application, err := app.New()
	if err != nil {
		fmt.Printf("❌ Failed to initialize application: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	fmt.Printf("✅ Application ready\n")

	if len(os.Args) > 1 && os.Args[1] == "serve" {
		runServer(application)
		return
	}

	showWelcome()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-signalCh
		fmt.Println("\n👋 Shutting down KrishiMitra...")
		cancel()
		os.Exit(0)
	}()

	runInteractiveCLI(ctx, application)
}

func runServer(application *app.Application) {
	application.KeepAlive().Start()

	srv := server.New(application)

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalCh
		fmt.Println("\n👋 Shutting down KrishiMitra server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	if err := srv.ListenAndServe(); err != nil {
		fmt.Printf("❌ Server stopped: %v\n", err)
	}
}

func runInteractiveCLI(ctx context.Context, application *app.Application) {
	promptColor := color.New(color.FgGreen, color.Bold)
	reader := bufio.NewScanner(os.Stdin)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			promptColor.Print("krishi> ")

			if !reader.Scan() {
				return
			}
			input := strings.TrimSpace(reader.Text())
			if input == "" {
				continue
			}

			switch strings.ToLower(input) {
			case "quit", "exit", "q":
				fmt.Println("👋 Goodbye! धन्यवाद!")
				return
			case "help", "h":
				showHelp()
				continue
			case "warmup":
				runWarmup(application)
				continue
			case "status":
				showStatus(application)
				continue
			}

			processQuery(ctx, application, input)
		}
	}
}

func processQuery(ctx context.Context, application *app.Application, input string) {
	query := &models.Query{
		ID:        uuid.New().String(),
		Text:      input,
		Timestamp: time.Now(),
	}

	start := time.Now()
	response := application.Answer(ctx, query)
	displayResponse(response, time.Since(start))
}

func displayResponse(response models.FinalResponse, took time.Duration) {
	fmt.Println()
	color.New(color.FgGreen).Printf("🌾 KrishiMitra (%s, %s, confidence %.0f%%)\n",
		response.Intent, response.Mode, response.Confidence*100)
	fmt.Println(strings.Repeat("─", 50))

	fmt.Println(response.Message)

	if len(response.Advisory) > 0 {
		color.New(color.FgYellow).Println("\n💡 Advisory:")
		for _, line := range response.Advisory {
			fmt.Printf("  • %s\n", line)
		}
	}

	fmt.Printf("\n📊 Source: %s | Took: %v\n\n",
		response.Source, took.Truncate(time.Millisecond))
}

func runWarmup(application *app.Application) {
	fmt.Println("🔄 Building offline answer vectors...")
	if err := application.WarmupOffline(); err != nil {
		color.Red("❌ Warmup failed: %v", err)
		return
	}
	status := application.OfflineStatus()
	fmt.Printf("✅ Offline engine ready (%d Q&A pairs)\n", status.QAPairs)
}

func showStatus(application *app.Application) {
	cyan := color.New(color.FgCyan, color.Bold)

	cyan.Println("📊 KrishiMitra Status:")
	fmt.Println(strings.Repeat("─", 50))

	if application.IsOnline() {
		fmt.Println("  🌐 Connectivity: online")
	} else {
		fmt.Println("  📴 Connectivity: offline")
	}

	status := application.OfflineStatus()
	fmt.Printf("  📚 Offline corpus: %s (found: %v, pairs: %d, ready: %v)\n",
		status.CorpusPath, status.CorpusFound, status.QAPairs, status.Initialized)

	if stats := application.LLMStats(); stats != nil {
		for name, s := range stats {
			fmt.Printf("  🧠 LLM %s: %d requests, %d failed\n", name, s.TotalRequests, s.FailedRequests)
		}
	} else {
		fmt.Println("  🧠 LLM: not configured (keyword fallback active)")
	}
	fmt.Println()
}

func showWelcome() {
	cyan := color.New(color.FgCyan, color.Bold)
	yellow := color.New(color.FgYellow)

	fmt.Println()
	cyan.Println("🌾 KrishiMitra - Agricultural Assistant")
	fmt.Printf("Version: %s\n", version)
	fmt.Println(strings.Repeat("─", 50))

	yellow.Println("🎯 Ask anything about farming, in English or Hindi")
	fmt.Println("• Weather and crop advisories")
	fmt.Println("• Mandi prices and price forecasts")
	fmt.Println("• Crop diseases, soil health, government schemes")
	fmt.Println()

	fmt.Println("💡 Commands:")
	fmt.Println("  help    - Show help")
	fmt.Println("  warmup  - Build offline answer vectors")
	fmt.Println("  status  - Show connectivity and engine status")
	fmt.Println("  quit    - Exit")
	fmt.Println()
}

func showHelp() {
	fmt.Println("\n🌾 KrishiMitra - Commands")
	fmt.Println(strings.Repeat("─", 50))
	fmt.Println("  help     - Show this help")
	fmt.Println("  warmup   - Build offline answer vectors")
	fmt.Println("  status   - Show connectivity and engine status")
	fmt.Println("  quit     - Exit application")
	fmt.Println("\nRun 'krishimitra serve' to start the REST API.")
	fmt.Println()
}
