// Package main provides operator utilities for Unigram.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"unigram/internal/bootstrap"
	"unigram/internal/config"
	"unigram/internal/models"
	"unigram/internal/repository"
	"unigram/internal/service"
	"unigram/internal/storage"

	"gorm.io/gorm"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/admin/main.go inbox <user_id> [limit] [offset]  - Show a user's notifications")
		fmt.Println("  go run ./cmd/admin/main.go mark-seen <user_id>               - Mark a user's notifications read")
		fmt.Println("  go run ./cmd/admin/main.go purge-stories                     - Delete expired stories now")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, _, err := bootstrap.InitRuntime(cfg, bootstrap.Options{SkipRedis: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	users := repository.NewUserRepository(db)
	identities := service.NewIdentityResolver(users)
	notifs := service.NewNotificationService(repository.NewNotificationRepository(db), identities, nil)
	notifs.SetDefaultAvatar(cfg.DefaultAvatarURL)

	command := os.Args[1]
	switch command {
	case "inbox":
		userID := userArg(db, "inbox")
		limit, offset := intArg(3, "limit"), intArg(4, "offset")
		showInbox(ctx, notifs, userID, limit, offset)

	case "mark-seen":
		userID := userArg(db, "mark-seen")
		n, err := notifs.MarkAllSeen(ctx, userID, userID)
		if err != nil {
			log.Fatalf("Failed to mark notifications: %v", err)
		}
		fmt.Printf("Marked %d notifications read for user %d\n", n, userID)

	case "purge-stories":
		store := storage.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL, int64(cfg.MaxUploadBytes()))
		projector := service.NewFeedProjector(identities, cfg.DefaultAvatarURL)
		stories := service.NewStoryService(repository.NewStoryRepository(db), users, store, projector, cfg.StoryTTL())
		n, err := stories.PurgeExpired(ctx)
		if err != nil {
			log.Fatalf("Failed to purge stories: %v", err)
		}
		fmt.Printf("Purged %d expired stories\n", n)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

// userArg parses os.Args[2] and checks the user exists.
func userArg(db *gorm.DB, command string) uint {
	if len(os.Args) < 3 {
		fmt.Printf("Usage: go run ./cmd/admin/main.go %s <user_id>\n", command)
		os.Exit(1)
	}
	id, err := strconv.ParseUint(os.Args[2], 10, 64)
	if err != nil || id == 0 {
		fmt.Printf("Invalid user ID %q\n", os.Args[2])
		os.Exit(1)
	}

	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Printf("User with ID %d not found\n", id)
		} else {
			log.Fatalf("Database error: %v", err)
		}
		os.Exit(1)
	}
	return user.ID
}

// intArg reads an optional numeric argument, 0 when absent.
func intArg(pos int, name string) int {
	if len(os.Args) <= pos {
		return 0
	}
	n, err := strconv.Atoi(os.Args[pos])
	if err != nil || n < 0 {
		log.Fatalf("Invalid %s %q", name, os.Args[pos])
	}
	return n
}

func showInbox(ctx context.Context, notifs *service.NotificationService, userID uint, limit, offset int) {
	items, err := notifs.ListNotifications(ctx, userID, userID, limit, offset)
	if err != nil {
		log.Fatalf("Failed to list notifications: %v", err)
	}
	unread, err := notifs.UnreadCount(ctx, userID, userID)
	if err != nil {
		log.Fatalf("Failed to count unread notifications: %v", err)
	}

	fmt.Printf("\nUser %d: %d notifications shown, %d unread\n", userID, len(items), unread)
	fmt.Println("─────────────────────────────────────")
	for _, n := range items {
		mark := " "
		if !n.Read {
			mark = "*"
		}
		fmt.Printf("%s %s | %s | post %d\n", mark, n.CreatedAt.Format("2006-01-02 15:04"), n.Message, n.PostID)
	}
	fmt.Println("─────────────────────────────────────")
}
