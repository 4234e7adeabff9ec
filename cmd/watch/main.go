package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"

	"social-relay/domain/event"
)

// Exit codes for the watch application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the watcher-side environment variables.
type Config struct {
	ServerURL string `envconfig:"RELAY_WS_URL" default:"ws://localhost:8080/ws"`
	UserID    string `envconfig:"WATCH_USER_ID" default:"watcher"`
	// WATCH_COLOURS enables colorized output for better readability
	Colours bool `envconfig:"WATCH_COLOURS" default:"true"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)
	}
	os.Exit(code)
}

// run connects to the relay as a plain client, joins with the configured id
// and tails every frame the relay pushes, printing a per-event summary table
// on exit.
func run() (int, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.ServerURL, nil)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to relay at %s: %w", config.ServerURL, err)
	}
	defer conn.Close()

	userID := config.UserID
	if userID == "watcher" {
		userID = "watcher-" + uuid.NewString()[:8]
	}

	joinData, _ := json.Marshal(event.JoinPayload{UserID: userID})
	if err := conn.WriteJSON(event.Envelope{Event: event.Join, Data: joinData}); err != nil {
		return exitRuntime, fmt.Errorf("join failed: %w", err)
	}

	fmt.Printf(">>> Watching %s as %s (Ctrl+C to quit)...\n", config.ServerURL, userID)

	counts := make(map[string]int)
	frames := make(chan event.Envelope)
	readErr := make(chan error, 1)

	go func() {
		for {
			var envelope event.Envelope
			if err := conn.ReadJSON(&envelope); err != nil {
				readErr <- err
				return
			}
			frames <- envelope
		}
	}()

	for {
		select {
		case <-ctx.Done():
			printSummary(counts)
			return exitOK, nil
		case err := <-readErr:
			printSummary(counts)
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return exitOK, nil
			}
			return exitRuntime, err
		case envelope := <-frames:
			counts[envelope.Event]++
			printFrame(config.Colours, envelope)
		}
	}
}

func printFrame(colours bool, envelope event.Envelope) {
	stamp := time.Now().Format("15:04:05")
	if colours {
		color.Cyan.Printf("%s  %-22s", stamp, envelope.Event)
		color.Gray.Printf("  %s\n", truncate(string(envelope.Data), 100))
		return
	}
	fmt.Printf("%s  %-22s  %s\n", stamp, envelope.Event, truncate(string(envelope.Data), 100))
}

func printSummary(counts map[string]int) {
	if len(counts) == 0 {
		fmt.Println("\nNo frames received.")
		return
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Event", "Count"})
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	fmt.Println()
	for _, name := range names {
		table.Append([]string{name, fmt.Sprintf("%d", counts[name])})
	}
	table.Render()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
