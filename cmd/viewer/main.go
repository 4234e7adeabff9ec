package main

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"social-relay/domain"
	"social-relay/internal"
)

func main() {
	// 1. Load config
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// 2. Open Badger in Read-Only mode
	// Note: BypassLockGuard allows opening if the relay process holds the lock
	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// 3. Start Debug Server Only
	emptyStats := func() map[string]any {
		return map[string]any{
			"Status": "Viewer Mode (Read-Only)",
			"Time":   time.Now().Format(time.RFC822),
		}
	}

	fmt.Printf("Viewer started at http://localhost:%d/inspect\n", config.DebugPort)

	internal.StartDebugServer(db, config.DebugPort, "/inspect", RelayMapper, emptyStats)
	select {}
}

// RelayMapper enriches the generic row with the decoded document's own
// summary where the namespace is known.
func RelayMapper(key string, val []byte) internal.InspectRow {
	row := internal.DefaultMapper(key, val)

	switch row.Namespace {
	case "user":
		var user domain.User
		if err := json.Unmarshal(val, &user); err == nil {
			row.Detail = fmt.Sprintf("%s online=%v", user.Username, user.IsOnline)
		}
	case "post":
		var post domain.Post
		if err := json.Unmarshal(val, &post); err == nil {
			row.Detail = fmt.Sprintf("by %s, %d likes, %d comments",
				post.AuthorID, post.LikesCount(), post.CommentsCount)
		}
	case "notification":
		var notification domain.Notification
		if err := json.Unmarshal(val, &notification); err == nil {
			row.Detail = fmt.Sprintf("[%s] %s", notification.Type, notification.Message)
		}
	}
	return row
}
