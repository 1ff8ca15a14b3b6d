// Package notion はNotion REST APIのクライアントを提供する。
// データベースの存在確認、行の取得、ページのURLプロパティ更新のみを扱う。
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
)

const (
	// DefaultBaseURL はNotion API v1のベースURL。
	DefaultBaseURL = "https://api.notion.com/v1"
	// apiVersion はNotion-Versionヘッダーに指定するAPIバージョン。
	apiVersion = "2022-06-28"
	// maxErrorBodyBytes はエラーレスポンスから読み取る最大バイト数。
	maxErrorBodyBytes = 64 * 1024
)

// Client はNotion APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiKey     string
	baseURL    string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLが空の場合はDefaultBaseURLを使用する。
func NewClient(httpClient *http.Client, logger *slog.Logger, apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		apiKey:     apiKey,
		baseURL:    baseURL,
	}
}

// RetrieveDatabase はデータベースのメタデータを取得する。
// データベースが存在しない、または連携に共有されていない場合はAPIErrorを返す。
func (c *Client) RetrieveDatabase(ctx context.Context, databaseID string) (*Database, error) {
	var db Database
	if err := c.do(ctx, http.MethodGet, "/databases/"+url.PathEscape(databaseID), nil, &db); err != nil {
		return nil, fmt.Errorf("データベースの取得に失敗しました: %w", err)
	}
	return &db, nil
}

// QueryDatabase はデータベースの行を1回のリクエストで取得する。
// 続きのページ（has_more）は取得しない。
func (c *Client) QueryDatabase(ctx context.Context, databaseID string) ([]Page, error) {
	var resp queryResponse
	if err := c.do(ctx, http.MethodPost, "/databases/"+url.PathEscape(databaseID)+"/query", struct{}{}, &resp); err != nil {
		return nil, fmt.Errorf("データベースのクエリに失敗しました: %w", err)
	}
	if resp.HasMore {
		c.logger.Warn("Notionデータベースに未取得の行があります（先頭ページのみ処理します）",
			slog.String("database_id", databaseID),
			slog.Int("fetched_rows", len(resp.Results)),
		)
	}
	return resp.Results, nil
}

// UpdatePageURL はページのURL型プロパティを更新する。
func (c *Client) UpdatePageURL(ctx context.Context, pageID, property, value string) error {
	body := map[string]map[string]Property{
		"properties": {
			property: {URL: &value},
		},
	}
	if err := c.do(ctx, http.MethodPatch, "/pages/"+url.PathEscape(pageID), body, nil); err != nil {
		return fmt.Errorf("ページの更新に失敗しました: %w", err)
	}
	return nil
}

// do はAPIリクエストを実行し、レスポンスをoutにデコードする。
// outがnilの場合はボディを読み捨てる。
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", apiVersion)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Notion APIの呼び出しに失敗しました",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var er errorResponse
		if raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes)); readErr == nil {
			if json.Unmarshal(raw, &er) == nil {
				apiErr.Code = er.Code
				apiErr.Message = er.Message
			}
		}
		c.logger.Error("Notion APIがエラーステータスを返しました",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
			slog.String("code", apiErr.Code),
		)
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Error("Notion APIのレスポンスのパースに失敗しました",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}
	return nil
}

// IsNotFound はエラーがNotion APIの404（object_not_found）かどうかを返す。
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
