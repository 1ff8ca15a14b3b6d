package model

// SyncSummary は1回の同期実行の集計結果を表す。
type SyncSummary struct {
	ProcessedRows int `json:"processedRows"`
	Created       int `json:"created"`
	Updated       int `json:"updated"`
	Errors        int `json:"errors"`
}
