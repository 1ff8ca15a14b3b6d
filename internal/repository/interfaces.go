// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/certgen/internal/model"
)

// CertificateRepository は修了証データの永続化インターフェース。
// 削除操作は提供しない（修了証は一度発行したら残り続ける）。
type CertificateRepository interface {
	// FindByID は指定IDの修了証を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Certificate, error)

	// FindByExternalID はNotionページIDで修了証を検索する。見つからない場合はnilを返す。
	FindByExternalID(ctx context.Context, externalID string) (*model.Certificate, error)

	// Create は修了証を作成する。IDは呼び出し側で採番する。
	// CreatedAt、UpdatedAtはDBの値で上書きされる。
	Create(ctx context.Context, cert *model.Certificate) error

	// UpdateByExternalID はNotionページIDに紐づく修了証の同期5項目を置き換え、更新後の修了証を返す。
	// 該当する修了証が存在しない場合はnilを返す。
	UpdateByExternalID(ctx context.Context, externalID string, fields model.CertificateFields) (*model.Certificate, error)
}
