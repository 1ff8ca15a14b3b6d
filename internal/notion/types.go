package notion

import (
	"fmt"
	"strings"
)

// Database はデータベース取得APIのレスポンスのうち、利用する項目のみを表す。
type Database struct {
	ID    string     `json:"id"`
	Title []RichText `json:"title"`
}

// Name はデータベースのタイトルをプレーンテキストで返す。
func (d *Database) Name() string {
	var b strings.Builder
	for _, t := range d.Title {
		b.WriteString(t.PlainText)
	}
	return b.String()
}

// Page はデータベースの1行（ページ）を表す。
type Page struct {
	ID         string              `json:"id"`
	Properties map[string]Property `json:"properties"`
}

// Property はページのプロパティ値を表す。
// 型ごとに値の入るフィールドが異なり、使わないフィールドは空のまま残る。
type Property struct {
	Type     string     `json:"type,omitempty"`
	Title    []RichText `json:"title,omitempty"`
	RichText []RichText `json:"rich_text,omitempty"`
	Date     *DateValue `json:"date,omitempty"`
	URL      *string    `json:"url,omitempty"`
}

// RichText はtitle/rich_textプロパティの1要素。
type RichText struct {
	PlainText string `json:"plain_text"`
}

// DateValue はdateプロパティの値。Startは YYYY-MM-DD またはISO 8601日時。
type DateValue struct {
	Start string `json:"start"`
	End   string `json:"end,omitempty"`
}

// queryResponse はデータベースクエリAPIのレスポンス。
type queryResponse struct {
	Results    []Page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

// errorResponse はNotion APIのエラーボディ。
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIError はNotion APIが2xx以外を返した場合のエラー。
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("notion API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("notion API returned status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}
