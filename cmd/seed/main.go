// Command seed loads the taxonomy fixtures and generates demo content.
package main

import (
	"context"
	"flag"
	"log"

	"zenith/internal/config"
	"zenith/internal/database"
	"zenith/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 10, "Number of demo users to create")
	postsPerUser := flag.Int("posts", 5, "Posts per demo user")
	commentsPerPost := flag.Int("comments", 3, "Comments per non-draft post")
	fixtures := flag.String("fixtures", "", "YAML fixtures file (defaults to the bundled taxonomy)")
	password := flag.String("password", "DemoPass123!", "Password shared by every demo user")
	clean := flag.Bool("clean", false, "Delete all content and users first")
	seedValue := flag.Int64("seed", 0, "Random seed (0 picks one)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *clean && cfg.IsProduction() {
		log.Fatal("Refusing to clean a production database")
	}
	if cfg.IsProduction() && *numUsers > 0 {
		log.Fatal("Refusing to generate demo users in production; use -users=0 to load fixtures only")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		log.Fatalf("Schema setup failed: %v", err)
	}

	opts := seed.Options{
		Users:           *numUsers,
		PostsPerUser:    *postsPerUser,
		CommentsPerPost: *commentsPerPost,
		Password:        *password,
		Seed:            *seedValue,
		Clean:           *clean,
	}
	if *fixtures != "" {
		if opts.Fixtures, err = seed.LoadFixturesFile(*fixtures); err != nil {
			log.Fatalf("Failed to load fixtures: %v", err)
		}
	}

	summary, err := seed.NewSeeder(db, opts).Run(ctx)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d categories, %d tags, %d users, %d posts, %d comments",
		summary.Categories, summary.Tags, summary.Users, summary.Posts, summary.Comments)
	if summary.Users > 0 {
		log.Printf("Every demo user has the password %q", *password)
	}
}
