//go:build integration

package persistent

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"vidtube/migrations"
	"vidtube/services/user/internal/entity"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	testGorm  *gorm.DB
	testMongo *mongo.Client
)

func TestMain(m *testing.M) {
	flag.Parse()

	if testing.Short() {
		os.Exit(m.Run())
	}

	os.Exit(runWithContainers(m))
}

func runWithContainers(m *testing.M) int {
	ctx := context.Background()

	pgContainer, err := tcPostgres.Run(ctx,
		"postgres:16-alpine",
		tcPostgres.WithDatabase("vidtube_test"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start postgres container: %v\n", err)
		return 1
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to terminate postgres container: %v\n", err)
		}
	}()

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get connection string: %v\n", err)
		return 1
	}
	if err := migrate(ctx, dsn); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to run migrations: %v\n", err)
		return 1
	}

	testGorm, err = gorm.Open(gormPostgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to postgres: %v\n", err)
		return 1
	}

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start mongo container: %v\n", err)
		return 1
	}
	defer func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to terminate mongo container: %v\n", err)
		}
	}()

	uri, err := mongoContainer.ConnectionString(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get mongo uri: %v\n", err)
		return 1
	}
	testMongo, err = mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to mongo: %v\n", err)
		return 1
	}
	defer testMongo.Disconnect(ctx)

	return m.Run()
}

func migrate(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

type store struct {
	users    UserRepository
	channels ChannelRepository
	content  ContentRepository
}

// forEachStore runs fn against a clean Postgres schema and a fresh Mongo
// database.
func forEachStore(t *testing.T, fn func(t *testing.T, s store)) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	t.Run("postgres", func(t *testing.T) {
		t.Cleanup(func() {
			err := testGorm.Exec("TRUNCATE watch_history, subscriptions, videos, users CASCADE").Error
			if err != nil {
				t.Logf("Failed to truncate tables: %v", err)
			}
		})
		fn(t, store{
			users:    NewPostgresUserRepository(testGorm),
			channels: NewPostgresChannelRepository(testGorm),
			content:  NewPostgresContentRepository(testGorm),
		})
	})

	t.Run("mongo", func(t *testing.T) {
		ctx := context.Background()
		db := testMongo.Database("vidtube_" + strings.ReplaceAll(uuid.NewString(), "-", ""))
		t.Cleanup(func() { _ = db.Drop(ctx) })
		require.NoError(t, EnsureMongoIndexes(ctx, db))
		fn(t, store{
			users:    NewMongoUserRepository(db),
			channels: NewMongoChannelRepository(db),
			content:  NewMongoContentRepository(db),
		})
	})
}

func createUser(t *testing.T, users UserRepository, username string) *entity.User {
	t.Helper()
	user := &entity.User{
		Username: username,
		Email:    username + "@test.com",
		FullName: strings.ToUpper(username[:1]) + username[1:],
		Avatar:   "https://cdn.test/" + username + ".png",
		Password: "hash",
	}
	require.NoError(t, users.Create(context.Background(), user))
	require.NotEmpty(t, user.ID)
	return user
}

func createVideo(t *testing.T, content ContentRepository, ownerID, title string) string {
	t.Helper()
	video := &entity.Video{
		OwnerID:     ownerID,
		VideoFile:   "https://cdn.test/" + title + ".mp4",
		Thumbnail:   "https://cdn.test/" + title + ".jpg",
		Title:       title,
		Duration:    42,
		IsPublished: true,
	}
	require.NoError(t, content.CreateVideo(context.Background(), video))
	require.NotEmpty(t, video.ID)
	return video.ID
}

func TestStore_CreateRejectsDuplicates(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store) {
		createUser(t, s.users, "alice")

		dup := &entity.User{Username: "alice", Email: "other@test.com", FullName: "A", Avatar: "x", Password: "h"}
		assert.ErrorIs(t, s.users.Create(context.Background(), dup), ErrDuplicate)
	})
}

func TestStore_RotateRefreshTokenIsCompareAndSwap(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		alice := createUser(t, s.users, "alice")
		require.NoError(t, s.users.SetRefreshToken(ctx, alice.ID, "token-0"))

		const callers = 8
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			winners []string
		)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(next string) {
				defer wg.Done()
				ok, err := s.users.RotateRefreshToken(ctx, alice.ID, "token-0", next)
				assert.NoError(t, err)
				if ok {
					mu.Lock()
					winners = append(winners, next)
					mu.Unlock()
				}
			}(fmt.Sprintf("token-1-%d", i))
		}
		wg.Wait()

		require.Len(t, winners, 1)
		stored, err := s.users.FindByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, winners[0], stored.RefreshToken)

		ok, err := s.users.RotateRefreshToken(ctx, alice.ID, "token-0", "token-2")
		require.NoError(t, err)
		assert.False(t, ok, "a superseded token must not rotate")

		require.NoError(t, s.users.SetRefreshToken(ctx, alice.ID, ""))
		ok, err = s.users.RotateRefreshToken(ctx, alice.ID, winners[0], "token-3")
		require.NoError(t, err)
		assert.False(t, ok, "a cleared token must not rotate")
	})
}

func TestStore_ChannelProfileCountsEdges(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		alice := createUser(t, s.users, "alice")
		bob := createUser(t, s.users, "bob")
		carol := createUser(t, s.users, "carol")
		dave := createUser(t, s.users, "dave")

		require.NoError(t, s.content.Subscribe(ctx, bob.ID, alice.ID))
		require.NoError(t, s.content.Subscribe(ctx, carol.ID, alice.ID))
		require.NoError(t, s.content.Subscribe(ctx, bob.ID, alice.ID))
		require.NoError(t, s.content.Subscribe(ctx, alice.ID, dave.ID))

		channel, err := s.channels.GetChannelProfile(ctx, "alice", bob.ID)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, channel.ID)
		assert.Equal(t, "alice@test.com", channel.Email)
		assert.Equal(t, int64(2), channel.SubscribersCount)
		assert.Equal(t, int64(1), channel.ChannelsSubscribedToCount)
		assert.True(t, channel.IsSubscribed)

		channel, err = s.channels.GetChannelProfile(ctx, "alice", dave.ID)
		require.NoError(t, err)
		assert.False(t, channel.IsSubscribed)

		channel, err = s.channels.GetChannelProfile(ctx, "alice", "")
		require.NoError(t, err)
		assert.False(t, channel.IsSubscribed)

		channel, err = s.channels.GetChannelProfile(ctx, "dave", alice.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), channel.SubscribersCount)
		assert.Equal(t, int64(0), channel.ChannelsSubscribedToCount)
		assert.True(t, channel.IsSubscribed)

		_, err = s.channels.GetChannelProfile(ctx, "nobody", "")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_WatchHistoryKeepsStoredOrder(t *testing.T) {
	forEachStore(t, func(t *testing.T, s store) {
		ctx := context.Background()
		alice := createUser(t, s.users, "alice")
		bob := createUser(t, s.users, "bob")
		carol := createUser(t, s.users, "carol")

		v1 := createVideo(t, s.content, bob.ID, "first")
		v2 := createVideo(t, s.content, bob.ID, "second")
		v3 := createVideo(t, s.content, carol.ID, "third")

		for _, id := range []string{v3, v1, v3, v2} {
			require.NoError(t, s.content.AppendWatchHistory(ctx, alice.ID, id))
		}

		history, err := s.channels.GetWatchHistory(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, history, 4)

		ids := make([]string, len(history))
		for i, v := range history {
			ids[i] = v.ID
		}
		assert.Equal(t, []string{v3, v1, v3, v2}, ids)

		require.NotNil(t, history[0].Owner)
		assert.Equal(t, "carol", history[0].Owner.Username)
		require.NotNil(t, history[1].Owner)
		assert.Equal(t, "bob", history[1].Owner.Username)
		assert.Equal(t, "first", history[1].Title)

		user, err := s.users.FindByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{v3, v1, v3, v2}, user.WatchHistory)

		empty, err := s.channels.GetWatchHistory(ctx, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}
