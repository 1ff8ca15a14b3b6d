package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はフォーム入力からマークアップを取り除きプレーンテキストにする。
// 修了証の各項目はテンプレート側でエスケープして出力するため、ここではエンティティを復元して保存する。
type TextSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はすべてのタグを除去するポリシーでTextSanitizerを生成する。
func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{policy: bluemonday.StrictPolicy()}
}

// PlainText はタグを除去し、前後の空白を取り除いた文字列を返す。
// 連続する空白（改行を含む）は1つのスペースにまとめる。
func (s *TextSanitizer) PlainText(input string) string {
	if input == "" {
		return ""
	}
	stripped := html.UnescapeString(s.policy.Sanitize(input))
	return strings.Join(strings.Fields(stripped), " ")
}
