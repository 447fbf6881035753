package services

import (
	"context"
	"fmt"
	"time"

	"github.com/yeremiapane/gamezone-pos/models"
	"gorm.io/gorm"
)

// TokenService lists the day's tokens.
type TokenService struct {
	db  *gorm.DB
	Now func() time.Time
}

func NewTokenService(db *gorm.DB) *TokenService {
	return &TokenService{db: db, Now: time.Now}
}

func (s *TokenService) Today(ctx context.Context) ([]models.Token, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	from, to := dayBounds(now)

	var tokens []models.Token
	err := s.db.WithContext(ctx).
		Preload("Orders", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Sessions.Device").
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("token_number ASC").
		Find(&tokens).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	return tokens, nil
}
