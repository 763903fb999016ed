// Command main runs the database seeder for Unigram.
package main

import (
	"context"
	"flag"
	"log"

	"unigram/internal/bootstrap"
	"unigram/internal/config"
	"unigram/internal/seed"
)

func main() {
	def := seed.DefaultOptions()
	numUsers := flag.Int("users", def.NumUsers, "Number of users to create")
	numPosts := flag.Int("posts", def.NumPosts, "Number of posts to create")
	maxLikes := flag.Int("likes", def.MaxLikesPerPost, "Maximum likes per post")
	maxComments := flag.Int("comments", def.MaxCommentsPerPost, "Maximum comments per post")
	maxReplies := flag.Int("replies", def.MaxRepliesPerComment, "Maximum replies per comment")
	maxDays := flag.Int("days", def.MaxDays, "Spread posts over this many past days")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	skipBcrypt := flag.Bool("skip-bcrypt", false, "Store the demo password unhashed (tests only)")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d users, %d posts, clean=%v\n", *numUsers, *numPosts, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, _, err := bootstrap.InitRuntime(cfg, bootstrap.Options{SkipRedis: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	s := seed.NewSeeder(db, bootstrap.NewEngine(cfg, db), seed.Options{
		NumUsers:             *numUsers,
		NumPosts:             *numPosts,
		MaxLikesPerPost:      *maxLikes,
		MaxCommentsPerPost:   *maxComments,
		MaxRepliesPerComment: *maxReplies,
		MaxDays:              *maxDays,
		SkipBcrypt:           *skipBcrypt,
		ShouldClean:          *shouldClean,
	})

	res, err := s.Run(context.Background())
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	// clean wipes users, so restore the demo login
	if err := bootstrap.EnsureDevDemoUser(cfg, db); err != nil {
		log.Fatalf("Failed to restore demo user: %v", err)
	}

	log.Printf("Created %d users, %d posts, %d likes, %d comments, %d replies",
		res.Users, res.Posts, res.Likes, res.Comments, res.Replies)
	log.Printf("All seeded users have the password: %s", seed.DemoPassword)
}
