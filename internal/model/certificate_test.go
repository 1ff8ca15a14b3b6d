package model

import (
	"testing"
	"time"
)

func TestCertificateFields_Apply_ReplacesAllMappedFields(t *testing.T) {
	cert := &Certificate{
		ID:                "cert-1",
		ParticipantName:   "旧受講者",
		CourseName:        "旧コース",
		CourseDescription: "旧説明",
		AuthorName:        "旧講師",
		CompletionDate:    time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		CompanyLogoRef:    "logo.png",
		ExternalSourceID:  "page-1",
	}

	fields := CertificateFields{
		ParticipantName:   "Ana",
		CourseName:        "Go入門",
		CourseDescription: "",
		AuthorName:        "Bruno",
		CompletionDate:    time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	fields.Apply(cert)

	if cert.ParticipantName != "Ana" || cert.CourseName != "Go入門" || cert.AuthorName != "Bruno" {
		t.Errorf("マップ済みフィールドが上書きされていない: %+v", cert)
	}
	if cert.CourseDescription != "" {
		t.Errorf("CourseDescription = %q, want empty (古い値は残らない)", cert.CourseDescription)
	}
	if !cert.CompletionDate.Equal(fields.CompletionDate) {
		t.Errorf("CompletionDate = %v, want %v", cert.CompletionDate, fields.CompletionDate)
	}
	// マップ対象外のフィールドは維持される
	if cert.ID != "cert-1" || cert.CompanyLogoRef != "logo.png" || cert.ExternalSourceID != "page-1" {
		t.Errorf("マップ対象外のフィールドが変更された: %+v", cert)
	}
}

func TestCertificate_IsSynced(t *testing.T) {
	if (&Certificate{}).IsSynced() {
		t.Error("ExternalSourceIDなしの修了証はIsSynced() = false であるべき")
	}
	if !(&Certificate{ExternalSourceID: "page-1"}).IsSynced() {
		t.Error("ExternalSourceIDありの修了証はIsSynced() = true であるべき")
	}
}

func TestTruncateToDate(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	got := TruncateToDate(time.Date(2024, 5, 1, 23, 30, 0, 0, jst))
	want := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("TruncateToDate = %v, want %v", got, want)
	}
}

func TestAPIError_Error(t *testing.T) {
	err := NewCertificateNotFoundError("abc")
	if err.Error() != "[CERTIFICATE_NOT_FOUND] 指定された修了証が見つかりません: abc" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Category != "certificate" {
		t.Errorf("Category = %q, want %q", err.Category, "certificate")
	}
}

func TestCertificateURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"https://certs.example.com", "https://certs.example.com/certificates/abc"},
		{"https://certs.example.com/", "https://certs.example.com/certificates/abc"},
		{"http://localhost:8080", "http://localhost:8080/certificates/abc"},
	}
	for _, tt := range tests {
		if got := CertificateURL(tt.base, "abc"); got != tt.want {
			t.Errorf("CertificateURL(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}
