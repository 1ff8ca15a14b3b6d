package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/certgen/internal/model"
)

const certificateColumns = `id, participant_name, course_name, course_description, author_name,
	        completion_date, company_logo_ref, external_source_id, created_at, updated_at`

// PostgresCertificateRepo はPostgreSQLを使用した修了証リポジトリ。
type PostgresCertificateRepo struct {
	db *sql.DB
}

// NewPostgresCertificateRepo はPostgresCertificateRepoを生成する。
func NewPostgresCertificateRepo(db *sql.DB) *PostgresCertificateRepo {
	return &PostgresCertificateRepo{db: db}
}

// FindByID は指定IDの修了証を取得する。見つからない場合はnilを返す。
func (r *PostgresCertificateRepo) FindByID(ctx context.Context, id string) (*model.Certificate, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+certificateColumns+` FROM certificates WHERE id = $1`,
		id,
	)

	cert, err := scanCertificate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("修了証の取得に失敗しました: %w", err)
	}
	return cert, nil
}

// FindByExternalID はNotionページIDで修了証を検索する。見つからない場合はnilを返す。
func (r *PostgresCertificateRepo) FindByExternalID(ctx context.Context, externalID string) (*model.Certificate, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+certificateColumns+` FROM certificates WHERE external_source_id = $1`,
		externalID,
	)

	cert, err := scanCertificate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("external_source_id による修了証の検索に失敗しました: %w", err)
	}
	return cert, nil
}

// Create は修了証を作成する。
func (r *PostgresCertificateRepo) Create(ctx context.Context, cert *model.Certificate) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO certificates (id, participant_name, course_name, course_description, author_name,
		                           completion_date, company_logo_ref, external_source_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at, updated_at`,
		cert.ID, cert.ParticipantName, cert.CourseName,
		nullString(cert.CourseDescription), nullString(cert.AuthorName),
		model.TruncateToDate(cert.CompletionDate),
		nullString(cert.CompanyLogoRef), nullString(cert.ExternalSourceID),
	).Scan(&cert.CreatedAt, &cert.UpdatedAt)
	if err != nil {
		return fmt.Errorf("修了証の作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateByExternalID は同期5項目を丸ごと置き換える。
// 空のオプション項目はNULLとして保存し、以前の値を残さない。
func (r *PostgresCertificateRepo) UpdateByExternalID(ctx context.Context, externalID string, fields model.CertificateFields) (*model.Certificate, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE certificates
		 SET participant_name = $2, course_name = $3, course_description = $4,
		     author_name = $5, completion_date = $6, updated_at = now()
		 WHERE external_source_id = $1
		 RETURNING `+certificateColumns,
		externalID, fields.ParticipantName, fields.CourseName,
		nullString(fields.CourseDescription), nullString(fields.AuthorName),
		model.TruncateToDate(fields.CompletionDate),
	)

	cert, err := scanCertificate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("修了証の更新に失敗しました: %w", err)
	}
	return cert, nil
}

// scanCertificate は1行分の修了証をスキャンする。
func scanCertificate(row *sql.Row) (*model.Certificate, error) {
	cert := &model.Certificate{}
	var description, author, logoRef, externalID sql.NullString

	err := row.Scan(
		&cert.ID, &cert.ParticipantName, &cert.CourseName, &description, &author,
		&cert.CompletionDate, &logoRef, &externalID, &cert.CreatedAt, &cert.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	cert.CourseDescription = nullStringValue(description)
	cert.AuthorName = nullStringValue(author)
	cert.CompanyLogoRef = nullStringValue(logoRef)
	cert.ExternalSourceID = nullStringValue(externalID)
	cert.CompletionDate = model.TruncateToDate(cert.CompletionDate)

	return cert, nil
}

// nullString は空文字列をNULLに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

var _ CertificateRepository = (*PostgresCertificateRepo)(nil)
