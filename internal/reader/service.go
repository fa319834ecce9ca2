// Package reader は図書館利用者管理のドメインロジックを提供する。
package reader

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/toshokan/internal/model"
	"github.com/hitoshi/toshokan/internal/repository"
)

// Input は利用者の作成・更新リクエスト。
// 登録日はサーバー側で決定するため入力には含めない。
type Input struct {
	Name  string
	Email string
}

// Service は利用者管理のサービス層。
type Service struct {
	readerRepo repository.ReaderRepository

	// Now は現在時刻を返す関数。テストで差し替えられる。
	Now func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(readerRepo repository.ReaderRepository) *Service {
	return &Service{
		readerRepo: readerRepo,
		Now:        time.Now,
	}
}

// validateInput は利用者の作成・更新リクエストを検証する。
func validateInput(input Input) error {
	if strings.TrimSpace(input.Name) == "" {
		return model.NewInvalidFieldError("利用者名は必須です")
	}
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return model.NewInvalidFieldError("メールアドレスは必須です")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return model.NewInvalidFieldError("メールアドレスの形式が不正です")
	}
	return nil
}

// Create は利用者を新規登録する。登録日はこの時点の日付で確定し、
// 以後の更新では変更されない。
// メールアドレスが既存の利用者と重複する場合はDUPLICATE_EMAILエラーを返す。
func (s *Service) Create(ctx context.Context, input Input) (*model.Reader, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	now := s.Now()
	reader := &model.Reader{
		ID:               uuid.New().String(),
		Name:             strings.TrimSpace(input.Name),
		Email:            strings.TrimSpace(input.Email),
		RegistrationDate: model.DateOf(now),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.readerRepo.Create(ctx, reader); err != nil {
		if _, ok := err.(*model.APIError); ok {
			return nil, err
		}
		return nil, fmt.Errorf("利用者の登録に失敗しました: %w", err)
	}
	return reader, nil
}

// Get は指定IDの利用者を返す。見つからない場合はREADER_NOT_FOUNDエラーを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Reader, error) {
	reader, err := s.readerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("利用者の取得に失敗しました: %w", err)
	}
	if reader == nil {
		return nil, model.NewReaderNotFoundError(id)
	}
	return reader, nil
}

// List は全利用者を名前順で返す。
func (s *Service) List(ctx context.Context) ([]*model.Reader, error) {
	return s.readerRepo.List(ctx)
}

// Update は利用者の名前とメールアドレスを更新する。登録日は変更されない。
func (s *Service) Update(ctx context.Context, id string, input Input) (*model.Reader, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	reader, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	reader.Name = strings.TrimSpace(input.Name)
	reader.Email = strings.TrimSpace(input.Email)
	reader.UpdatedAt = s.Now()
	if err := s.readerRepo.Update(ctx, reader); err != nil {
		if _, ok := err.(*model.APIError); ok {
			return nil, err
		}
		return nil, fmt.Errorf("利用者の更新に失敗しました: %w", err)
	}
	return reader, nil
}

// Delete は利用者を削除する。関連する貸出もCASCADE削除される。
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.readerRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("利用者の削除に失敗しました: %w", err)
	}
	return nil
}
