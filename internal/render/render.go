// Package render は修了証ページと入力フォームのHTMLを生成する。
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/hitoshi/certgen/internal/model"
)

//go:embed templates/*.html
var templatesFS embed.FS

// pages はbase.htmlと組み合わせて使うページテンプレート。
var pages = []string{"form", "certificate", "not_found"}

// FormValues はフォームの入力値（検証エラー時の再表示用）。
type FormValues struct {
	ParticipantName   string
	CourseName        string
	CourseDescription string
	AuthorName        string
	CompletionDate    string
}

// FormData は入力フォームの表示データ。
type FormData struct {
	Error  string
	Values FormValues
}

// CertificateView は修了証ページの表示データ。
type CertificateView struct {
	ID                 string
	ParticipantName    string
	CourseName         string
	CourseDescription  string
	AuthorName         string
	CompletionDate     string // YYYY-MM-DD
	CompletionDateLong string // January 2, 2006
	CompanyLogoRef     string
	URL                string
}

// NewCertificateView は修了証から表示データを組み立てる。
func NewCertificateView(cert *model.Certificate, appURL string) CertificateView {
	return CertificateView{
		ID:                 cert.ID,
		ParticipantName:    cert.ParticipantName,
		CourseName:         cert.CourseName,
		CourseDescription:  cert.CourseDescription,
		AuthorName:         cert.AuthorName,
		CompletionDate:     cert.CompletionDate.Format(model.DateLayout),
		CompletionDateLong: cert.CompletionDate.Format("January 2, 2006"),
		CompanyLogoRef:     cert.CompanyLogoRef,
		URL:                model.CertificateURL(appURL, cert.ID),
	}
}

// Renderer はパース済みテンプレートを保持する。並行利用可能。
type Renderer struct {
	templates map[string]*template.Template
}

// New は埋め込みテンプレートをパースしてRendererを生成する。
func New() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		t, err := template.ParseFS(templatesFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		r.templates[name] = t
	}
	return r, nil
}

// Form は入力フォームを書き出す。
func (r *Renderer) Form(w io.Writer, data FormData) error {
	return r.execute(w, "form", data)
}

// Certificate は修了証ページを書き出す。
func (r *Renderer) Certificate(w io.Writer, view CertificateView) error {
	return r.execute(w, "certificate", view)
}

// NotFound は修了証が見つからない場合のページを書き出す。
func (r *Renderer) NotFound(w io.Writer) error {
	return r.execute(w, "not_found", nil)
}

func (r *Renderer) execute(w io.Writer, name string, data any) error {
	t, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("unknown template: %s", name)
	}
	if err := t.ExecuteTemplate(w, "base", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	return nil
}
