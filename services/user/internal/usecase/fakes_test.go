package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"vidtube/pkg/jwt"
	"vidtube/pkg/logger"
	"vidtube/pkg/password"
	"vidtube/pkg/s3"
	"vidtube/services/user/internal/entity"
	"vidtube/services/user/internal/repo/persistent"

	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"
)

type memoryUserRepo struct {
	mu     sync.Mutex
	users  map[string]*entity.User
	nextID int

	failNext  error
	createErr error
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[string]*entity.User)}
}

func (r *memoryUserRepo) takeFailure() error {
	err := r.failNext
	r.failNext = nil
	return err
}

func clone(u *entity.User) *entity.User {
	c := *u
	c.WatchHistory = append([]string{}, u.WatchHistory...)
	return &c
}

func (r *memoryUserRepo) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return persistent.ErrDuplicate
		}
	}
	r.nextID++
	user.ID = fmt.Sprintf("user-%d", r.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	user.WatchHistory = []string{}
	r.users[user.ID] = clone(user)
	return nil
}

func (r *memoryUserRepo) FindByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return nil, err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, persistent.ErrNotFound
	}
	return clone(u), nil
}

func (r *memoryUserRepo) FindByEmailOrUsername(_ context.Context, email, username string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return nil, err
	}
	for _, u := range r.users {
		if (email != "" && u.Email == email) || (username != "" && u.Username == username) {
			return clone(u), nil
		}
	}
	return nil, persistent.ErrNotFound
}

func (r *memoryUserRepo) UpdateAccount(_ context.Context, id, fullName, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, persistent.ErrNotFound
	}
	for otherID, other := range r.users {
		if otherID != id && other.Email == email {
			return nil, persistent.ErrDuplicate
		}
	}
	u.FullName = fullName
	u.Email = email
	return clone(u), nil
}

func (r *memoryUserRepo) UpdateImage(_ context.Context, id string, slot entity.ImageSlot, url, assetID string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return nil, err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, persistent.ErrNotFound
	}
	if slot == entity.ImageAvatar {
		u.Avatar, u.AvatarAssetID = url, assetID
	} else {
		u.CoverImage, u.CoverAssetID = url, assetID
	}
	return clone(u), nil
}

func (r *memoryUserRepo) SetPassword(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return persistent.ErrNotFound
	}
	u.Password = hash
	return nil
}

func (r *memoryUserRepo) SetRefreshToken(_ context.Context, id, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return err
	}
	u, ok := r.users[id]
	if !ok {
		return persistent.ErrNotFound
	}
	u.RefreshToken = token
	return nil
}

func (r *memoryUserRepo) RotateRefreshToken(_ context.Context, id, current, next string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || current == "" || u.RefreshToken != current {
		return false, nil
	}
	u.RefreshToken = next
	return true, nil
}

func (r *memoryUserRepo) stored(id string) *entity.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return clone(r.users[id])
}

func (r *memoryUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

type fakeMedia struct {
	mu       sync.Mutex
	uploads  []string
	deleted  []string
	failures map[string]bool
	seq      int
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{failures: make(map[string]bool)}
}

func (m *fakeMedia) Upload(_ context.Context, localPath string) s3.UploadResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	if localPath == "" {
		return s3.UploadResult{Failed: true, Err: s3.ErrEmptyPath}
	}
	m.uploads = append(m.uploads, localPath)
	if m.failures[localPath] {
		return s3.UploadResult{Failed: true, Err: errors.New("media host unavailable")}
	}
	m.seq++
	asset := fmt.Sprintf("media/%d", m.seq)
	return s3.UploadResult{URL: "https://cdn.test/" + asset, AssetID: asset}
}

func (m *fakeMedia) Delete(_ context.Context, assetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, assetID)
	return nil
}

type fakeChannelRepo struct {
	mu       sync.Mutex
	channels map[string]*entity.Channel
	history  map[string][]entity.WatchedVideo
	calls    int
	err      error
	gate     chan struct{}
	entered  chan struct{}
}

func (r *fakeChannelRepo) GetChannelProfile(ctx context.Context, username, viewerID string) (*entity.Channel, error) {
	if r.entered != nil {
		select {
		case r.entered <- struct{}{}:
		default:
		}
	}
	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	ch, ok := r.channels[username]
	if !ok {
		return nil, persistent.ErrNotFound
	}
	out := *ch
	out.IsSubscribed = viewerID == "subscriber"
	return &out, nil
}

func (r *fakeChannelRepo) GetWatchHistory(_ context.Context, userID string) ([]entity.WatchedVideo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	h, ok := r.history[userID]
	if !ok {
		return nil, persistent.ErrNotFound
	}
	return h, nil
}

type fakeCache struct {
	mu          sync.Mutex
	entries     map[string]*entity.Channel
	invalidated []string
	getErr      error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*entity.Channel)}
}

func (c *fakeCache) Get(_ context.Context, username, viewerID string) (*entity.Channel, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	ch, ok := c.entries[username+"|"+viewerID]
	return ch, ok, nil
}

func (c *fakeCache) Set(_ context.Context, username, viewerID string, channel *entity.Channel) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[username+"|"+viewerID] = channel
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, username string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, username)
	return nil
}

func quietLogger() *logger.Logger {
	return logger.NewWithOptions(logger.Options{Level: "panic", Output: io.Discard})
}

func testHasher() password.Hasher {
	return password.NewBcryptHasher(bcrypt.MinCost)
}

func testJWT(clock clockwork.Clock) *jwt.Service {
	return jwt.NewService(jwt.Options{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
		Clock:         clock,
	})
}
