// Package auth はユーザー登録・ログインとアクセストークン発行を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/timetracker/internal/model"
	"github.com/hitoshi/timetracker/internal/repository"
)

// RegisterInput はユーザー登録リクエストの入力。
type RegisterInput struct {
	Username string // メールアドレス
	Name     string // 表示名
	Password string // 平文パスワード（ハッシュ化して保存する）
}

// LoginInput はログインリクエストの入力。
type LoginInput struct {
	Username string
	Password string
}

// LoginResult はログイン成功時の結果。
type LoginResult struct {
	User        *model.User
	AccessToken string
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	BcryptCost int // bcryptのコストパラメータ
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	tokens   *TokenIssuer
	config   ServiceConfig
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, tokens *TokenIssuer, config ServiceConfig) *Service {
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		userRepo: userRepo,
		tokens:   tokens,
		config:   config,
	}
}

// Register は新規ユーザーを登録する。
// usernameは前後の空白を除去してから重複チェックし、パスワードはbcryptで
// ハッシュ化して保存する。平文パスワードは永続化しない。
func (s *Service) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)

	if username == "" {
		return nil, model.NewValidationError("メールアドレスは必須です")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, model.NewValidationError("表示名は必須です")
	}
	if input.Password == "" {
		return nil, model.NewValidationError("パスワードは必須です")
	}

	// 重複チェック。挿入時のユニーク制約が最終的な防波堤になるため、
	// ここでの判定はエラーメッセージを早く返すためのもの。
	exists, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの重複チェックに失敗しました: %w", err)
	}
	if exists {
		return nil, model.NewDuplicateEmailError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// Login は認証情報を検証し、アクセストークンを発行する。
// ユーザー不存在とパスワード不一致は同じエラーを返し、
// どちらが原因かを呼び出し側に漏らさない。
func (s *Service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	username := strings.TrimSpace(input.Username)

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, model.NewInvalidCredentialsError()
	}

	accessToken, err := s.tokens.Issue(user.Username)
	if err != nil {
		return nil, fmt.Errorf("アクセストークンの発行に失敗しました: %w", err)
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
	)

	return &LoginResult{
		User:        user,
		AccessToken: accessToken,
	}, nil
}

// ResolveUser はアクセストークンを検証し、該当ユーザーを取得する。
// 認証ミドルウェアから毎リクエスト呼ばれる。
func (s *Service) ResolveUser(ctx context.Context, tokenString string) (*model.User, error) {
	username, err := s.tokens.Verify(tokenString)
	if err != nil {
		return nil, fmt.Errorf("トークンの検証に失敗しました: %w", err)
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	return user, nil
}
