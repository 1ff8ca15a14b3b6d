package reconcile

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/certgen/internal/model"
	"github.com/hitoshi/certgen/internal/notion"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// --- モック定義 ---

// mockSource はRowSourceのテスト用モック。
type mockSource struct {
	retrieveDatabaseFunc func(ctx context.Context, databaseID string) (*notion.Database, error)
	queryDatabaseFunc    func(ctx context.Context, databaseID string) ([]notion.Page, error)
	updatePageURLFunc    func(ctx context.Context, pageID, property, value string) error

	mu         sync.Mutex
	calls      int
	writeBacks map[string]string
}

func (m *mockSource) RetrieveDatabase(ctx context.Context, databaseID string) (*notion.Database, error) {
	m.record()
	if m.retrieveDatabaseFunc != nil {
		return m.retrieveDatabaseFunc(ctx, databaseID)
	}
	return &notion.Database{ID: databaseID}, nil
}

func (m *mockSource) QueryDatabase(ctx context.Context, databaseID string) ([]notion.Page, error) {
	m.record()
	if m.queryDatabaseFunc != nil {
		return m.queryDatabaseFunc(ctx, databaseID)
	}
	return nil, nil
}

func (m *mockSource) UpdatePageURL(ctx context.Context, pageID, property, value string) error {
	m.record()
	if m.updatePageURLFunc != nil {
		if err := m.updatePageURLFunc(ctx, pageID, property, value); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeBacks == nil {
		m.writeBacks = make(map[string]string)
	}
	m.writeBacks[pageID+"|"+property] = value
	return nil
}

func (m *mockSource) record() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
}

func (m *mockSource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// memRepo はCertificateRepositoryのインメモリ実装。
type memRepo struct {
	findByExternalIDErr   error
	createErr             error
	updateByExternalIDErr error

	mu    sync.Mutex
	certs map[string]*model.Certificate
	calls int
}

func newMemRepo(seed ...*model.Certificate) *memRepo {
	r := &memRepo{certs: make(map[string]*model.Certificate)}
	for _, c := range seed {
		cp := *c
		r.certs[c.ID] = &cp
	}
	return r
}

func (r *memRepo) FindByID(ctx context.Context, id string) (*model.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if c, ok := r.certs[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r *memRepo) FindByExternalID(ctx context.Context, externalID string) (*model.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.findByExternalIDErr != nil {
		return nil, r.findByExternalIDErr
	}
	return r.findByExternalIDLocked(externalID), nil
}

func (r *memRepo) Create(ctx context.Context, cert *model.Certificate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.createErr != nil {
		return r.createErr
	}
	if cert.ExternalSourceID != "" && r.findByExternalIDLocked(cert.ExternalSourceID) != nil {
		return fmt.Errorf("duplicate external_source_id %s", cert.ExternalSourceID)
	}
	now := time.Now()
	cert.CreatedAt, cert.UpdatedAt = now, now
	cp := *cert
	r.certs[cert.ID] = &cp
	return nil
}

func (r *memRepo) UpdateByExternalID(ctx context.Context, externalID string, fields model.CertificateFields) (*model.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.updateByExternalIDErr != nil {
		return nil, r.updateByExternalIDErr
	}
	c := r.findByExternalIDLocked(externalID)
	if c == nil {
		return nil, nil
	}
	stored := r.certs[c.ID]
	fields.Apply(stored)
	stored.UpdatedAt = time.Now()
	cp := *stored
	return &cp, nil
}

func (r *memRepo) findByExternalIDLocked(externalID string) *model.Certificate {
	for _, c := range r.certs {
		if c.ExternalSourceID == externalID {
			cp := *c
			return &cp
		}
	}
	return nil
}

func (r *memRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *memRepo) snapshot() map[string]model.Certificate {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]model.Certificate, len(r.certs))
	for id, c := range r.certs {
		out[id] = *c
	}
	return out
}

// mockRecorder はSyncRecorderのテスト用モック。
type mockRecorder struct {
	runs     []model.SyncSummary
	failures int
}

func (m *mockRecorder) RecordSyncRun(summary model.SyncSummary, duration time.Duration) {
	m.runs = append(m.runs, summary)
}

func (m *mockRecorder) RecordSyncFailure() {
	m.failures++
}

// --- ページ生成ヘルパー ---

type pageOpt func(p *notion.Page)

func withoutProp(name string) pageOpt {
	return func(p *notion.Page) { delete(p.Properties, name) }
}

func withDate(start string) pageOpt {
	return func(p *notion.Page) {
		p.Properties[PropCompletionDate] = notion.Property{Type: "date", Date: &notion.DateValue{Start: start}}
	}
}

func withText(name, value string) pageOpt {
	return func(p *notion.Page) {
		if name == PropParticipantName {
			p.Properties[name] = notion.Property{Type: "title", Title: []notion.RichText{{PlainText: value}}}
			return
		}
		p.Properties[name] = notion.Property{Type: "rich_text", RichText: []notion.RichText{{PlainText: value}}}
	}
}

// validPage は5項目がすべて揃ったページを生成する。
func validPage(id, participant string, opts ...pageOpt) notion.Page {
	p := notion.Page{
		ID: id,
		Properties: map[string]notion.Property{
			PropParticipantName:   {Type: "title", Title: []notion.RichText{{PlainText: participant}}},
			PropCourseName:        {Type: "rich_text", RichText: []notion.RichText{{PlainText: "Go Fundamentals"}}},
			PropCourseDescription: {Type: "rich_text", RichText: []notion.RichText{{PlainText: "Types, interfaces and concurrency"}}},
			PropAuthorName:        {Type: "rich_text", RichText: []notion.RichText{{PlainText: "Bruno"}}},
			PropCompletionDate:    {Type: "date", Date: &notion.DateValue{Start: "2024-05-01"}},
			PropCertificateURL:    {Type: "url"},
		},
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}
