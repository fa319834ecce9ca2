// Package author は著者管理のドメインロジックを提供する。
package author

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/toshokan/internal/model"
	"github.com/hitoshi/toshokan/internal/repository"
)

// Input は著者の作成・更新リクエスト。
type Input struct {
	Name      string
	Country   string
	BirthDate *time.Time
}

// Service は著者管理のサービス層。
type Service struct {
	authorRepo repository.AuthorRepository

	// Now は現在時刻を返す関数。テストで差し替えられる。
	Now func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(authorRepo repository.AuthorRepository) *Service {
	return &Service{
		authorRepo: authorRepo,
		Now:        time.Now,
	}
}

// validateInput は著者の作成・更新リクエストを検証する。
func (s *Service) validateInput(input Input) error {
	if strings.TrimSpace(input.Name) == "" {
		return model.NewInvalidFieldError("著者名は必須です")
	}
	if input.BirthDate != nil && input.BirthDate.After(s.Now()) {
		return model.NewInvalidFieldError("生年月日に未来の日付は指定できません")
	}
	return nil
}

// Create は著者を新規作成する。
func (s *Service) Create(ctx context.Context, input Input) (*model.Author, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	now := s.Now()
	author := &model.Author{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(input.Name),
		Country:   strings.TrimSpace(input.Country),
		BirthDate: input.BirthDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.authorRepo.Create(ctx, author); err != nil {
		return nil, fmt.Errorf("著者の作成に失敗しました: %w", err)
	}
	return author, nil
}

// Get は指定IDの著者を返す。見つからない場合はAUTHOR_NOT_FOUNDエラーを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Author, error) {
	author, err := s.authorRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("著者の取得に失敗しました: %w", err)
	}
	if author == nil {
		return nil, model.NewAuthorNotFoundError(id)
	}
	return author, nil
}

// List は全著者を名前順で返す。
func (s *Service) List(ctx context.Context) ([]*model.Author, error) {
	return s.authorRepo.List(ctx)
}

// Update は著者情報を更新する。
func (s *Service) Update(ctx context.Context, id string, input Input) (*model.Author, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	author, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	author.Name = strings.TrimSpace(input.Name)
	author.Country = strings.TrimSpace(input.Country)
	author.BirthDate = input.BirthDate
	author.UpdatedAt = s.Now()
	if err := s.authorRepo.Update(ctx, author); err != nil {
		return nil, fmt.Errorf("著者の更新に失敗しました: %w", err)
	}
	return author, nil
}

// Delete は著者を削除する。関連する蔵書と貸出もCASCADE削除される。
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.authorRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("著者の削除に失敗しました: %w", err)
	}
	return nil
}
