package reconcile

import (
	"strings"
	"time"

	"github.com/hitoshi/certgen/internal/model"
	"github.com/hitoshi/certgen/internal/notion"
)

// Notionデータベースのプロパティ名。
const (
	PropParticipantName   = "Participant Name"
	PropCourseName        = "Course Name"
	PropCourseDescription = "Course Description"
	PropAuthorName        = "Author Name"
	PropCompletionDate    = "Completion Date"
	PropCertificateURL    = "Certificate URL"
)

// requiredProps はログ出力時の項目順。
var requiredProps = []string{
	PropParticipantName,
	PropCourseName,
	PropCourseDescription,
	PropAuthorName,
	PropCompletionDate,
}

// ExtractFields はページのプロパティから同期5項目を取り出す。
// いずれかの項目が欠落・空白のみ・日付として解釈不能な場合はfalseを返す。
func ExtractFields(page notion.Page) (model.CertificateFields, bool) {
	fields, present := extract(page)
	if !allPresent(present) {
		return model.CertificateFields{}, false
	}
	return fields, true
}

// extract は各項目を取り出し、項目ごとの有無を返す。
func extract(page notion.Page) (model.CertificateFields, map[string]bool) {
	var fields model.CertificateFields
	present := make(map[string]bool, len(requiredProps))

	fields.ParticipantName, present[PropParticipantName] = firstText(page.Properties[PropParticipantName].Title)
	fields.CourseName, present[PropCourseName] = firstText(page.Properties[PropCourseName].RichText)
	fields.CourseDescription, present[PropCourseDescription] = firstText(page.Properties[PropCourseDescription].RichText)
	fields.AuthorName, present[PropAuthorName] = firstText(page.Properties[PropAuthorName].RichText)
	fields.CompletionDate, present[PropCompletionDate] = parseDate(page.Properties[PropCompletionDate].Date)

	return fields, present
}

// firstText は先頭要素のplain_textを返す。空白のみの場合は欠落とみなす。
func firstText(texts []notion.RichText) (string, bool) {
	if len(texts) == 0 {
		return "", false
	}
	s := strings.TrimSpace(texts[0].PlainText)
	return s, s != ""
}

// parseDate はdate.startを暦日に変換する。
// 日時形式の場合はオフセットを変換せず、先頭の日付部分をそのまま使う。
func parseDate(d *notion.DateValue) (time.Time, bool) {
	if d == nil {
		return time.Time{}, false
	}
	s := strings.TrimSpace(d.Start)
	if len(s) < len(model.DateLayout) {
		return time.Time{}, false
	}
	if len(s) > len(model.DateLayout) {
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			return time.Time{}, false
		}
	}
	t, err := time.Parse(model.DateLayout, s[:len(model.DateLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
