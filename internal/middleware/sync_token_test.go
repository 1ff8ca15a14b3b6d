package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/certgen/internal/model"
)

func TestSyncTokenMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		query      string
		wantStatus int
	}{
		{"一致", "s3cret", "?token=s3cret", http.StatusOK},
		{"不一致", "s3cret", "?token=wrong", http.StatusUnauthorized},
		{"前方一致のみ", "s3cret", "?token=s3c", http.StatusUnauthorized},
		{"トークンなし", "s3cret", "", http.StatusUnauthorized},
		{"空トークン", "s3cret", "?token=", http.StatusUnauthorized},
		{"未設定なら常に拒否", "", "?token=", http.StatusUnauthorized},
		{"未設定で任意の値", "", "?token=anything", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			called := false
			handler := NewSyncTokenMiddleware(tt.configured, newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/manual-sync"+tt.query, nil))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if called != (tt.wantStatus == http.StatusOK) {
				t.Errorf("handler called = %v", called)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				var body ErrorResponseBody
				if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
					t.Fatalf("failed to decode response body: %v", err)
				}
				if body.Code != model.ErrCodeUnauthorized {
					t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUnauthorized)
				}
			}
		})
	}
}
