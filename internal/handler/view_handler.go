package handler

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/certgen/internal/model"
	"github.com/hitoshi/certgen/internal/render"
)

// ViewHandler はHTMLページのハンドラー。
type ViewHandler struct {
	service  CertificateServiceInterface
	renderer PageRenderer
	appURL   string
	logger   *slog.Logger
}

// NewViewHandler はViewHandlerを生成する。
func NewViewHandler(service CertificateServiceInterface, renderer PageRenderer, appURL string, logger *slog.Logger) *ViewHandler {
	return &ViewHandler{
		service:  service,
		renderer: renderer,
		appURL:   appURL,
		logger:   logger,
	}
}

// Form は修了証の入力フォームを表示する。
// GET /
func (h *ViewHandler) Form(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.renderer.Form(&buf, render.FormData{}); err != nil {
		h.renderError(w, err)
		return
	}
	writeHTML(w, http.StatusOK, buf.Bytes())
}

// Certificate は修了証ページを表示する。
// GET /certificates/{id}
func (h *ViewHandler) Certificate(w http.ResponseWriter, r *http.Request) {
	cert, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeCertificateNotFound {
			h.notFound(w)
			return
		}
		h.renderError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.Certificate(&buf, render.NewCertificateView(cert, h.appURL)); err != nil {
		h.renderError(w, err)
		return
	}
	writeHTML(w, http.StatusOK, buf.Bytes())
}

func (h *ViewHandler) notFound(w http.ResponseWriter) {
	var buf bytes.Buffer
	if err := h.renderer.NotFound(&buf); err != nil {
		h.renderError(w, err)
		return
	}
	writeHTML(w, http.StatusNotFound, buf.Bytes())
}

func (h *ViewHandler) renderError(w http.ResponseWriter, err error) {
	h.logger.Error("failed to render page", slog.String("error", err.Error()))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// writeHTML は描画済みのHTMLを書き込む。
// 描画をバッファに済ませてから書くため、途中で失敗しても不完全なページは返らない。
func writeHTML(w http.ResponseWriter, statusCode int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	w.Write(body)
}
