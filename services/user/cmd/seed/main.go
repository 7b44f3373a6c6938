package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"vidtube/pkg/config"
	"vidtube/pkg/database"
	"vidtube/pkg/jwt"
	"vidtube/pkg/logger"
	"vidtube/pkg/password"
	"vidtube/pkg/s3"
	"vidtube/services/user/internal/entity"
	"vidtube/services/user/internal/repo/persistent"
	"vidtube/services/user/internal/usecase"
)

type seedUser struct {
	fullName string
	username string
	email    string
	password string
}

var testUsers = []seedUser{
	{"Alice Cooper", "alice", "alice@test.com", "password123"},
	{"Bob Stone", "bob", "bob@test.com", "password123"},
	{"Charlie Day", "charlie", "charlie@test.com", "password123"},
	{"Diana Prince", "diana", "diana@test.com", "password123"},
}

func main() {
	videosPerUser := flag.Int("videos", 3, "videos to create per seeded user")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.New()
	ctx := context.Background()

	var (
		users   persistent.UserRepository
		content persistent.ContentRepository
	)
	switch cfg.DBDriver {
	case config.DriverPostgres:
		db, err := database.NewPostgresDB(cfg)
		if err != nil {
			log.Error("Failed to connect to database: %v", err)
			panic(err)
		}
		users = persistent.NewPostgresUserRepository(db)
		content = persistent.NewPostgresContentRepository(db)
	default:
		mongoDB, err := database.NewMongoDB(ctx, cfg)
		if err != nil {
			log.Error("Failed to connect to MongoDB: %v", err)
			panic(err)
		}
		defer mongoDB.Close(ctx)
		if err := persistent.EnsureMongoIndexes(ctx, mongoDB.Database); err != nil {
			log.Error("Failed to create MongoDB indexes: %v", err)
			panic(err)
		}
		users = persistent.NewMongoUserRepository(mongoDB.Database)
		content = persistent.NewMongoContentRepository(mongoDB.Database)
	}

	s3Client, err := s3.NewClient(cfg, log)
	if err != nil {
		log.Error("Failed to create S3 client: %v", err)
		panic(err)
	}

	// Seeding never hands out tokens, so the configured secrets are optional.
	sessions := usecase.NewSessionUseCase(users, jwt.NewService(jwt.Options{
		AccessSecret:  cfg.AccessTokenSecret,
		RefreshSecret: cfg.RefreshTokenSecret,
		AccessTTL:     cfg.AccessTokenExpiry,
		RefreshTTL:    cfg.RefreshTokenExpiry,
	}), password.NewBcryptHasher(0), s3Client, log)

	s := &seeder{
		users:    users,
		content:  content,
		sessions: sessions,
		http:     &http.Client{Timeout: 30 * time.Second},
		tmpDir:   cfg.UploadTmpDir,
		log:      log,
	}
	if err := s.run(ctx, *videosPerUser); err != nil {
		log.Error("Failed to seed database: %v", err)
		panic(err)
	}

	log.Info("Database seeded successfully!")
}

type seeder struct {
	users    persistent.UserRepository
	content  persistent.ContentRepository
	sessions usecase.SessionUseCase
	http     *http.Client
	tmpDir   string
	log      *logger.Logger
}

func (s *seeder) run(ctx context.Context, videosPerUser int) error {
	userIDs := make([]string, 0, len(testUsers))
	for _, u := range testUsers {
		id, err := s.ensureUser(ctx, u)
		if err != nil {
			s.log.Error("Failed to create user %s: %v", u.username, err)
			continue
		}
		userIDs = append(userIDs, id)
	}

	videoIDs := make([]string, 0, len(userIDs)*videosPerUser)
	for i, ownerID := range userIDs {
		for n := 0; n < videosPerUser; n++ {
			video := &entity.Video{
				OwnerID:     ownerID,
				VideoFile:   fmt.Sprintf("https://cdn.example.com/videos/%s/%d.mp4", testUsers[i].username, n),
				Thumbnail:   fmt.Sprintf("https://cdn.example.com/thumbs/%s/%d.jpg", testUsers[i].username, n),
				Title:       fmt.Sprintf("%s clip #%d", testUsers[i].fullName, n+1),
				Description: "Seeded video",
				Duration:    float64(60 + 15*n),
				IsPublished: true,
			}
			if err := s.content.CreateVideo(ctx, video); err != nil {
				return fmt.Errorf("failed to create video: %w", err)
			}
			videoIDs = append(videoIDs, video.ID)
		}
	}
	s.log.Info("Created %d videos", len(videoIDs))

	// Every user follows every user registered after them.
	for i := 0; i < len(userIDs); i++ {
		for j := i + 1; j < len(userIDs); j++ {
			if err := s.content.Subscribe(ctx, userIDs[i], userIDs[j]); err != nil {
				s.log.Error("Failed to create subscription: %v", err)
			}
		}
	}
	s.log.Info("Created test subscriptions")

	for i, userID := range userIDs {
		for n := 0; n < len(videoIDs); n += i + 2 {
			if err := s.content.AppendWatchHistory(ctx, userID, videoIDs[n]); err != nil {
				return fmt.Errorf("failed to append watch history: %w", err)
			}
		}
	}
	s.log.Info("Created watch history")
	return nil
}

func (s *seeder) ensureUser(ctx context.Context, u seedUser) (string, error) {
	existing, err := s.users.FindByEmailOrUsername(ctx, u.email, u.username)
	if err == nil {
		s.log.Info("User %s already exists, skipping", u.username)
		return existing.ID, nil
	}

	avatarPath, err := s.fetchAvatar(u.username)
	if err != nil {
		return "", err
	}
	defer os.Remove(avatarPath)

	user, err := s.sessions.Register(ctx, usecase.RegisterInput{
		FullName:   u.fullName,
		Username:   u.username,
		Email:      u.email,
		Password:   u.password,
		AvatarPath: avatarPath,
	})
	if err != nil {
		return "", err
	}

	s.log.Info("Created user: %s (%s)", user.Username, user.Email)
	return user.ID, nil
}

// fetchAvatar downloads a placeholder image to a temp file.
func (s *seeder) fetchAvatar(username string) (string, error) {
	url := "https://cataas.com/cat/says/" + username
	s.log.Info("Fetching avatar from %s", url)

	resp, err := s.http.Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch avatar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cataas API returned status %d", resp.StatusCode)
	}

	path := filepath.Join(s.tmpDir, fmt.Sprintf("seed_%s_%d.jpg", username, time.Now().UnixNano()))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", fmt.Errorf("failed to write avatar: %w", err)
	}
	return path, nil
}
