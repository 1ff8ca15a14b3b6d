package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/hitoshi/certgen/internal/model"
)

// findByClass はclass属性に指定クラスを含む最初の要素を返す。
func findByClass(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "class" {
				for _, c := range strings.Fields(a.Val) {
					if c == class {
						return n
					}
				}
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

// textContent は要素配下のテキストを連結して返す。
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New()
	if err != nil {
		t.Fatalf("New がエラーを返した: %v", err)
	}
	return r
}

func testCertificate() *model.Certificate {
	return &model.Certificate{
		ID:                "3f1d1b2c-0000-4000-8000-000000000001",
		ParticipantName:   "Ana <Souza>",
		CourseName:        "Go Fundamentals",
		CourseDescription: "Types & interfaces",
		AuthorName:        "Bruno",
		CompletionDate:    time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		CompanyLogoRef:    "acme.png",
	}
}

func TestRenderer_Certificate(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	view := NewCertificateView(testCertificate(), "https://certs.example.com")
	if err := r.Certificate(&buf, view); err != nil {
		t.Fatalf("Certificate がエラーを返した: %v", err)
	}

	doc, err := html.Parse(&buf)
	if err != nil {
		t.Fatalf("HTMLのパースに失敗: %v", err)
	}

	tests := []struct {
		class string
		want  string
	}{
		{"participant", "Ana <Souza>"},
		{"course", "Go Fundamentals"},
		{"description", "Types & interfaces"},
		{"author", "Course author: Bruno"},
		{"completion", "Completed: May 1, 2024"},
		{"logo", "acme.png"},
	}
	for _, tt := range tests {
		n := findByClass(doc, tt.class)
		if n == nil {
			t.Errorf("class=%q の要素が見つからない", tt.class)
			continue
		}
		if got := textContent(n); got != tt.want {
			t.Errorf("class=%q のテキスト = %q, want %q", tt.class, got, tt.want)
		}
	}
}

// テキストはエスケープされ、タグとして解釈されないこと
func TestRenderer_Certificate_EscapesText(t *testing.T) {
	r := newTestRenderer(t)
	cert := testCertificate()
	cert.ParticipantName = `<script>alert("x")</script>`

	var buf bytes.Buffer
	if err := r.Certificate(&buf, NewCertificateView(cert, "https://certs.example.com")); err != nil {
		t.Fatalf("Certificate がエラーを返した: %v", err)
	}
	if strings.Contains(buf.String(), "<script>") {
		t.Error("受講者名がエスケープされていない")
	}
}

func TestRenderer_Certificate_OptionalFieldsOmitted(t *testing.T) {
	r := newTestRenderer(t)
	cert := testCertificate()
	cert.CourseDescription = ""
	cert.CompanyLogoRef = ""

	var buf bytes.Buffer
	if err := r.Certificate(&buf, NewCertificateView(cert, "https://certs.example.com")); err != nil {
		t.Fatalf("Certificate がエラーを返した: %v", err)
	}
	doc, _ := html.Parse(&buf)
	if findByClass(doc, "description") != nil {
		t.Error("説明が空の場合は説明要素を出力しないべき")
	}
	if findByClass(doc, "logo") != nil {
		t.Error("ロゴが空の場合はロゴ要素を出力しないべき")
	}
}

func TestNewCertificateView(t *testing.T) {
	view := NewCertificateView(testCertificate(), "https://certs.example.com/")
	if view.URL != "https://certs.example.com/certificates/3f1d1b2c-0000-4000-8000-000000000001" {
		t.Errorf("URL = %q", view.URL)
	}
	if view.CompletionDate != "2024-05-01" {
		t.Errorf("CompletionDate = %q", view.CompletionDate)
	}
}

func TestRenderer_Form(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	data := FormData{Error: "受講者名は必須です", Values: FormValues{CourseName: "Go"}}
	if err := r.Form(&buf, data); err != nil {
		t.Fatalf("Form がエラーを返した: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		`action="/api/certificates"`,
		`enctype="multipart/form-data"`,
		`name="participantName"`,
		`name="companyLogo"`,
		`value="Go"`,
		"受講者名は必須です",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("フォームに %s が含まれていない", want)
		}
	}
}

func TestRenderer_NotFound(t *testing.T) {
	r := newTestRenderer(t)

	var buf bytes.Buffer
	if err := r.NotFound(&buf); err != nil {
		t.Fatalf("NotFound がエラーを返した: %v", err)
	}
	if !strings.Contains(buf.String(), "Certificate not found") {
		t.Error("404ページの本文が出力されていない")
	}
}
