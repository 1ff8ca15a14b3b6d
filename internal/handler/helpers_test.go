package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/html"

	"github.com/hitoshi/certgen/internal/certificate"
	"github.com/hitoshi/certgen/internal/model"
	"github.com/hitoshi/certgen/internal/render"
)

// --- モック定義 ---

// mockCertificateService はCertificateServiceInterfaceのモック実装。
type mockCertificateService struct {
	createFn func(ctx context.Context, in certificate.CreateInput) (*model.Certificate, error)
	getFn    func(ctx context.Context, id string) (*model.Certificate, error)
}

func (m *mockCertificateService) Create(ctx context.Context, in certificate.CreateInput) (*model.Certificate, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return nil, nil
}

func (m *mockCertificateService) Get(ctx context.Context, id string) (*model.Certificate, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, model.NewCertificateNotFoundError(id)
}

// mockSyncService はSyncServiceInterfaceのモック実装。
type mockSyncService struct {
	runSyncFn func(ctx context.Context) (model.SyncSummary, error)
	calls     int
}

func (m *mockSyncService) RunSync(ctx context.Context) (model.SyncSummary, error) {
	m.calls++
	if m.runSyncFn != nil {
		return m.runSyncFn(ctx)
	}
	return model.SyncSummary{}, nil
}

// mockHealthChecker はHealthCheckerのモック実装。
type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	return m.err
}

// failingRenderer は常に描画エラーを返すPageRenderer。
type failingRenderer struct{}

func (failingRenderer) Form(io.Writer, render.FormData) error               { return io.ErrClosedPipe }
func (failingRenderer) Certificate(io.Writer, render.CertificateView) error { return io.ErrClosedPipe }
func (failingRenderer) NotFound(io.Writer) error                            { return io.ErrClosedPipe }

// --- テストヘルパー ---

const testAppURL = "https://certs.example.com"

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestRenderer(t *testing.T) *render.Renderer {
	t.Helper()
	r, err := render.New()
	if err != nil {
		t.Fatalf("render.New がエラーを返した: %v", err)
	}
	return r
}

func testCertificate() *model.Certificate {
	return &model.Certificate{
		ID:                "0b6c6a2e-4f4e-4d7a-9c43-2f3c2d1e7a10",
		ParticipantName:   "Ada Lovelace",
		CourseName:        "Analytical Engines",
		CourseDescription: "Programming the engine",
		AuthorName:        "Charles Babbage",
		CompletionDate:    time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		CompanyLogoRef:    "logo.png",
	}
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

// parseHTML はレスポンスボディをHTMLとしてパースする。
func parseHTML(t *testing.T, body io.Reader) *html.Node {
	t.Helper()
	doc, err := html.Parse(body)
	if err != nil {
		t.Fatalf("failed to parse HTML: %v", err)
	}
	return doc
}

// findByClass はclass属性に指定クラスを含む最初の要素を返す。
func findByClass(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "class" && containsField(a.Val, class) {
				return n
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

func containsField(s, want string) bool {
	for _, f := range strings.Fields(s) {
		if f == want {
			return true
		}
	}
	return false
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
