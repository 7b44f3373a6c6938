package usecase

import (
	"context"
	"errors"
	"testing"

	"vidtube/pkg/apperror"
	"vidtube/services/user/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profileFixture struct {
	uc    ProfileUseCase
	repo  *memoryUserRepo
	media *fakeMedia
	cache *fakeCache
	user  *entity.User
}

func newProfileFixture(t *testing.T) *profileFixture {
	t.Helper()
	repo := newMemoryUserRepo()
	media := newFakeMedia()
	cache := newFakeCache()

	user := &entity.User{
		Username:      "alice",
		Email:         "alice@example.com",
		FullName:      "Alice",
		Avatar:        "https://cdn.test/old-avatar",
		AvatarAssetID: "media/old-avatar",
		Password:      "hash",
		RefreshToken:  "stored-token",
	}
	require.NoError(t, repo.Create(context.Background(), user))

	return &profileFixture{
		uc:    NewProfileUseCase(repo, media, cache, quietLogger()),
		repo:  repo,
		media: media,
		cache: cache,
		user:  user,
	}
}

func TestGetCurrentUser(t *testing.T) {
	f := newProfileFixture(t)

	user, err := f.uc.GetCurrentUser(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.Password)
	assert.Empty(t, user.RefreshToken)

	_, err = f.uc.GetCurrentUser(context.Background(), "user-404")
	assert.True(t, apperror.Is(err, apperror.TypeNotFound))
}

func TestUpdateAccountDetails(t *testing.T) {
	f := newProfileFixture(t)
	ctx := context.Background()

	_, err := f.uc.UpdateAccountDetails(ctx, f.user.ID, " ", "new@example.com")
	assert.True(t, apperror.Is(err, apperror.TypeBadRequest))

	user, err := f.uc.UpdateAccountDetails(ctx, f.user.ID, "Alice L.", "New@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice L.", user.FullName)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, []string{"alice"}, f.cache.invalidated)
	assert.Equal(t, "stored-token", f.repo.stored(f.user.ID).RefreshToken)
}

func TestUpdateAccountDetails_EmailTaken(t *testing.T) {
	f := newProfileFixture(t)
	other := &entity.User{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, f.repo.Create(context.Background(), other))

	_, err := f.uc.UpdateAccountDetails(context.Background(), f.user.ID, "Alice", "bob@example.com")

	assert.True(t, apperror.Is(err, apperror.TypeConflict))
	assert.Empty(t, f.cache.invalidated)
}

func TestUpdateAvatar_ReplacesAndDeletesOld(t *testing.T) {
	f := newProfileFixture(t)

	user, err := f.uc.UpdateAvatar(context.Background(), f.user.ID, "/tmp/new.png")
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.test/media/1", user.Avatar)
	assert.Equal(t, "media/1", f.repo.stored(f.user.ID).AvatarAssetID)
	assert.Equal(t, []string{"media/old-avatar"}, f.media.deleted)
	assert.Equal(t, []string{"alice"}, f.cache.invalidated)
}

func TestUpdateAvatar_MissingFile(t *testing.T) {
	f := newProfileFixture(t)

	_, err := f.uc.UpdateAvatar(context.Background(), f.user.ID, "")

	assert.True(t, apperror.Is(err, apperror.TypeBadRequest))
	assert.Empty(t, f.media.uploads)
}

func TestUpdateAvatar_UploadFailure(t *testing.T) {
	f := newProfileFixture(t)
	f.media.failures["/tmp/new.png"] = true

	_, err := f.uc.UpdateAvatar(context.Background(), f.user.ID, "/tmp/new.png")

	assert.True(t, apperror.Is(err, apperror.TypeInternal))
	assert.Equal(t, "https://cdn.test/old-avatar", f.repo.stored(f.user.ID).Avatar)
	assert.Empty(t, f.media.deleted)
}

func TestUpdateCoverImage(t *testing.T) {
	f := newProfileFixture(t)

	_, err := f.uc.UpdateCoverImage(context.Background(), f.user.ID, "")
	assert.True(t, apperror.Is(err, apperror.TypeBadRequest))

	user, err := f.uc.UpdateCoverImage(context.Background(), f.user.ID, "/tmp/cover.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/media/1", user.CoverImage)
	assert.Empty(t, f.media.deleted, "no previous cover to delete")

	failing := &failingImageRepo{memoryUserRepo: f.repo}
	uc := NewProfileUseCase(failing, f.media, f.cache, quietLogger())
	_, err = uc.UpdateCoverImage(context.Background(), f.user.ID, "/tmp/cover2.png")

	assert.True(t, apperror.Is(err, apperror.TypeInternal))
	assert.Equal(t, []string{"media/2"}, f.media.deleted)
}

type failingImageRepo struct {
	*memoryUserRepo
}

func (r *failingImageRepo) UpdateImage(context.Context, string, entity.ImageSlot, string, string) (*entity.User, error) {
	return nil, errors.New("write failed")
}
