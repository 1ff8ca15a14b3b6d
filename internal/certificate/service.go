// Package certificate は修了証の手動作成と参照のドメインロジックを提供する。
package certificate

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/certgen/internal/model"
	"github.com/hitoshi/certgen/internal/repository"
)

// maxNameLength は受講者名・コース名・講師名・ロゴファイル名の最大文字数。
const maxNameLength = 255

// Sanitizer はフォーム入力をプレーンテキストに正規化するインターフェース。
type Sanitizer interface {
	PlainText(input string) string
}

// CreationRecorder は修了証作成の記録インターフェース。
type CreationRecorder interface {
	RecordCertificateCreated(source string)
}

// CreateInput は手動作成フォームの入力値。
type CreateInput struct {
	ParticipantName   string
	CourseName        string
	CourseDescription string
	AuthorName        string
	CompletionDate    string // YYYY-MM-DD
	CompanyLogoName   string // アップロードされたファイル名（任意）
}

// Service は修了証のサービス層。
type Service struct {
	repo      repository.CertificateRepository
	sanitizer Sanitizer
	recorder  CreationRecorder
}

// NewService はServiceの新しいインスタンスを生成する。
// recorderはnilでもよい。
func NewService(repo repository.CertificateRepository, sanitizer Sanitizer, recorder CreationRecorder) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		recorder:  recorder,
	}
}

// Create はフォーム入力から修了証を作成する。
// 受講者名、コース名、修了日は必須。外部IDは付与しない（同期の対象外）。
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Certificate, error) {
	cert := &model.Certificate{
		ID:                uuid.New().String(),
		ParticipantName:   s.sanitizer.PlainText(in.ParticipantName),
		CourseName:        s.sanitizer.PlainText(in.CourseName),
		CourseDescription: s.sanitizer.PlainText(in.CourseDescription),
		AuthorName:        s.sanitizer.PlainText(in.AuthorName),
		CompanyLogoRef:    logoBaseName(in.CompanyLogoName),
	}

	if err := validate(cert, in.CompletionDate); err != nil {
		return nil, err
	}

	date, err := time.Parse(model.DateLayout, strings.TrimSpace(in.CompletionDate))
	if err != nil {
		return nil, model.NewInvalidCertificateError("修了日はYYYY-MM-DD形式で指定してください")
	}
	cert.CompletionDate = date

	if err := s.repo.Create(ctx, cert); err != nil {
		return nil, fmt.Errorf("修了証の保存に失敗しました: %w", err)
	}

	if s.recorder != nil {
		s.recorder.RecordCertificateCreated("manual")
	}
	return cert, nil
}

// Get は指定IDの修了証を取得する。
// IDがUUIDとして不正な場合や存在しない場合はCERTIFICATE_NOT_FOUNDを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Certificate, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, model.NewCertificateNotFoundError(id)
	}

	cert, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("修了証の取得に失敗しました: %w", err)
	}
	if cert == nil {
		return nil, model.NewCertificateNotFoundError(id)
	}
	return cert, nil
}

func validate(cert *model.Certificate, rawDate string) error {
	switch {
	case cert.ParticipantName == "":
		return model.NewInvalidCertificateError("受講者名は必須です")
	case cert.CourseName == "":
		return model.NewInvalidCertificateError("コース名は必須です")
	case strings.TrimSpace(rawDate) == "":
		return model.NewInvalidCertificateError("修了日は必須です")
	}

	for label, v := range map[string]string{
		"受講者名":     cert.ParticipantName,
		"コース名":     cert.CourseName,
		"講師名":      cert.AuthorName,
		"ロゴファイル名": cert.CompanyLogoRef,
	} {
		if utf8.RuneCountInString(v) > maxNameLength {
			return model.NewInvalidCertificateError(fmt.Sprintf("%sは%d文字以内で入力してください", label, maxNameLength))
		}
	}
	return nil
}

// logoBaseName はクライアントから送られたファイル名のディレクトリ部分を落とす。
// Windowsのパス区切りも考慮する。
func logoBaseName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if name == "" {
		return ""
	}
	base := path.Base(name)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}
