package persistent

import (
	"context"
	"errors"
	"fmt"

	"vidtube/pkg/models"
	"vidtube/services/user/internal/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

type postgresUserRepository struct {
	db *gorm.DB
}

func NewPostgresUserRepository(db *gorm.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) Create(ctx context.Context, user *entity.User) error {
	record := UserEntityToRecord(user)
	record.ID = uuid.New().String()

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	*user = *UserRecordToEntity(record)
	user.WatchHistory = []string{}
	return nil
}

func (r *postgresUserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *postgresUserRepository) FindByEmailOrUsername(ctx context.Context, email, username string) (*entity.User, error) {
	query := r.db.WithContext(ctx)
	switch {
	case email != "" && username != "":
		query = query.Where("email = ?", email).Or("username = ?", username)
	case email != "":
		query = query.Where("email = ?", email)
	case username != "":
		query = query.Where("username = ?", username)
	default:
		return nil, ErrNotFound
	}
	return r.findOne(ctx, query)
}

func (r *postgresUserRepository) UpdateAccount(ctx context.Context, id, fullName, email string) (*entity.User, error) {
	return r.update(ctx, id, map[string]interface{}{
		"full_name": fullName,
		"email":     email,
	})
}

func (r *postgresUserRepository) UpdateImage(ctx context.Context, id string, slot entity.ImageSlot, url, assetID string) (*entity.User, error) {
	switch slot {
	case entity.ImageAvatar:
		return r.update(ctx, id, map[string]interface{}{"avatar": url, "avatar_asset_id": assetID})
	case entity.ImageCover:
		return r.update(ctx, id, map[string]interface{}{"cover_image": url, "cover_asset_id": assetID})
	default:
		return nil, fmt.Errorf("unknown image slot %q", slot)
	}
}

func (r *postgresUserRepository) SetPassword(ctx context.Context, id, hash string) error {
	_, err := r.update(ctx, id, map[string]interface{}{"password": hash})
	return err
}

func (r *postgresUserRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	_, err := r.update(ctx, id, map[string]interface{}{"refresh_token": token})
	return err
}

func (r *postgresUserRepository) RotateRefreshToken(ctx context.Context, id, current, next string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil || current == "" {
		return false, nil
	}

	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND refresh_token = ?", id, current).
		Update("refresh_token", next)
	if result.Error != nil {
		return false, fmt.Errorf("failed to rotate refresh token: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *postgresUserRepository) findOne(ctx context.Context, query *gorm.DB) (*entity.User, error) {
	var record models.User
	if err := query.First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	var history []string
	err := r.db.WithContext(ctx).
		Model(&models.WatchHistory{}).
		Where("user_id = ?", record.ID).
		Order("position ASC").
		Pluck("video_id", &history).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load watch history: %w", err)
	}

	user := UserRecordToEntity(&record)
	user.WatchHistory = history
	if user.WatchHistory == nil {
		user.WatchHistory = []string{}
	}
	return user, nil
}

func (r *postgresUserRepository) update(ctx context.Context, id string, columns map[string]interface{}) (*entity.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(columns)
	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
