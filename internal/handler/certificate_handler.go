package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/certgen/internal/certificate"
	"github.com/hitoshi/certgen/internal/model"
	"github.com/hitoshi/certgen/internal/render"
)

// maxFormMemory はmultipartフォームをメモリに保持する上限。
// ロゴはファイル名のみ保存するため、本体は読み捨てる。
const (
	maxFormMemory = 1 << 20
	maxBodySize   = 5 << 20
)

// CertificateServiceInterface は修了証ハンドラーが必要とするサービスインターフェース。
type CertificateServiceInterface interface {
	// Create はフォーム入力から修了証を作成する。
	Create(ctx context.Context, in certificate.CreateInput) (*model.Certificate, error)
	// Get は指定IDの修了証を取得する。
	Get(ctx context.Context, id string) (*model.Certificate, error)
}

// PageRenderer はHTMLページの描画インターフェース。render.Rendererが実装する。
type PageRenderer interface {
	Form(w io.Writer, data render.FormData) error
	Certificate(w io.Writer, view render.CertificateView) error
	NotFound(w io.Writer) error
}

// CertificateHandler は修了証の作成・参照のHTTPハンドラー。
type CertificateHandler struct {
	service  CertificateServiceInterface
	renderer PageRenderer
	appURL   string
	logger   *slog.Logger
}

// NewCertificateHandler はCertificateHandlerを生成する。
func NewCertificateHandler(service CertificateServiceInterface, renderer PageRenderer, appURL string, logger *slog.Logger) *CertificateHandler {
	return &CertificateHandler{
		service:  service,
		renderer: renderer,
		appURL:   appURL,
		logger:   logger,
	}
}

// createCertificateResponse は修了証作成のAPIレスポンス。
type createCertificateResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// certificateResponse は修了証のAPIレスポンス。
type certificateResponse struct {
	ID                string `json:"id"`
	ParticipantName   string `json:"participantName"`
	CourseName        string `json:"courseName"`
	CourseDescription string `json:"courseDescription"`
	AuthorName        string `json:"authorName"`
	CompletionDate    string `json:"completionDate"`
	CompanyLogoRef    string `json:"companyLogoRef,omitempty"`
	ExternalSourceID  string `json:"externalSourceId,omitempty"`
	URL               string `json:"url"`
}

// Create はフォーム送信から修了証を作成する。
// POST /api/certificates
//
// ブラウザのフォーム送信（Accept: text/html）には修了証ページへの303リダイレクトを、
// それ以外には201と作成したIDを返す。
func (h *CertificateHandler) Create(w http.ResponseWriter, r *http.Request) {
	wantsHTML := acceptsHTML(r)

	in, err := parseCreateInput(w, r)
	if err != nil {
		h.logger.Warn("failed to parse certificate form", slog.String("error", err.Error()))
		h.writeCreateError(w, r, wantsHTML, model.NewInvalidRequestError(), render.FormValues{})
		return
	}

	cert, err := h.service.Create(r.Context(), in)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			h.writeCreateError(w, r, wantsHTML, apiErr, formValues(in))
			return
		}
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("certificate created",
		slog.String("certificate_id", cert.ID),
		slog.String("source", "manual"),
	)

	if wantsHTML {
		http.Redirect(w, r, "/certificates/"+cert.ID, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusCreated, createCertificateResponse{
		ID:  cert.ID,
		URL: model.CertificateURL(h.appURL, cert.ID),
	})
}

// Get は修了証をJSONで返す。
// GET /api/certificates/{id}
func (h *CertificateHandler) Get(w http.ResponseWriter, r *http.Request) {
	cert, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toCertificateResponse(cert))
}

// writeCreateError は作成失敗時のレスポンスを書き込む。
// HTMLクライアントには入力値を残したフォームを再表示する。
func (h *CertificateHandler) writeCreateError(w http.ResponseWriter, r *http.Request, wantsHTML bool, apiErr *model.APIError, values render.FormValues) {
	status := mapAPIErrorToHTTPStatus(apiErr)
	if !wantsHTML || status >= http.StatusInternalServerError {
		writeAPIErrorResponse(w, status, apiErr)
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.Form(&buf, render.FormData{Error: apiErr.Message, Values: values}); err != nil {
		h.logger.Error("failed to render form", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, status, apiErr)
		return
	}
	writeHTML(w, status, buf.Bytes())
}

func (h *CertificateHandler) toCertificateResponse(cert *model.Certificate) certificateResponse {
	return certificateResponse{
		ID:                cert.ID,
		ParticipantName:   cert.ParticipantName,
		CourseName:        cert.CourseName,
		CourseDescription: cert.CourseDescription,
		AuthorName:        cert.AuthorName,
		CompletionDate:    cert.CompletionDate.Format(model.DateLayout),
		CompanyLogoRef:    cert.CompanyLogoRef,
		ExternalSourceID:  cert.ExternalSourceID,
		URL:               model.CertificateURL(h.appURL, cert.ID),
	}
}

// parseCreateInput はmultipartまたはurlencodedのフォームを解析する。
func parseCreateInput(w http.ResponseWriter, r *http.Request) (certificate.CreateInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return certificate.CreateInput{}, err
	}

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return certificate.CreateInput{}, err
		}
		defer r.MultipartForm.RemoveAll()
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return certificate.CreateInput{}, err
		}
	default:
		return certificate.CreateInput{}, errors.New("unsupported content type: " + mediaType)
	}

	in := certificate.CreateInput{
		ParticipantName:   r.PostFormValue("participantName"),
		CourseName:        r.PostFormValue("courseName"),
		CourseDescription: r.PostFormValue("courseDescription"),
		AuthorName:        r.PostFormValue("authorName"),
		CompletionDate:    r.PostFormValue("completionDate"),
	}
	if r.MultipartForm != nil {
		if files := r.MultipartForm.File["companyLogo"]; len(files) > 0 {
			in.CompanyLogoName = files[0].Filename
		}
	}
	return in, nil
}

func formValues(in certificate.CreateInput) render.FormValues {
	return render.FormValues{
		ParticipantName:   in.ParticipantName,
		CourseName:        in.CourseName,
		CourseDescription: in.CourseDescription,
		AuthorName:        in.AuthorName,
		CompletionDate:    in.CompletionDate,
	}
}

// acceptsHTML はクライアントがHTMLを優先して受け付けるかどうかを返す。
func acceptsHTML(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mediaType {
		case "text/html", "application/xhtml+xml":
			return true
		case "application/json":
			return false
		}
	}
	return false
}
