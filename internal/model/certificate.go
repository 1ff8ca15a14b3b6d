// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// DateLayout は修了日の文字列表現（YYYY-MM-DD）。
const DateLayout = "2006-01-02"

// Certificate は発行済みの修了証を表す。
// ExternalSourceIDはNotion同期で作成された修了証のみが持つ（手動作成分は空）。
type Certificate struct {
	ID                string
	ParticipantName   string
	CourseName        string
	CourseDescription string
	AuthorName        string
	CompletionDate    time.Time // 日付のみ（UTC 0時）
	CompanyLogoRef    string    // アップロードされたロゴのファイル名
	ExternalSourceID  string    // NotionページID
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsSynced はNotion同期で作成された修了証かどうかを返す。
func (c *Certificate) IsSynced() bool {
	return c.ExternalSourceID != ""
}

// CertificateFields は同期対象の5項目を表す。
// 更新時はこの5項目を丸ごと置き換える（部分マージはしない）。
type CertificateFields struct {
	ParticipantName   string
	CourseName        string
	CourseDescription string
	AuthorName        string
	CompletionDate    time.Time
}

// Apply はCertificateに5項目を上書きする。
func (f CertificateFields) Apply(c *Certificate) {
	c.ParticipantName = f.ParticipantName
	c.CourseName = f.CourseName
	c.CourseDescription = f.CourseDescription
	c.AuthorName = f.AuthorName
	c.CompletionDate = f.CompletionDate
}

// TruncateToDate は時刻情報を落としてUTCの暦日に正規化する。
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CertificateURL は修了証の公開URL（<baseURL>/certificates/<id>）を返す。
func CertificateURL(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + "/certificates/" + id
}
