package dto

type SyncStatusResponse struct {
	DataSource   string `json:"dataSource"`
	LastSyncedAt string `json:"lastSyncedAt"`
	SyncCount    int64  `json:"syncCount"`
	LastResult   string `json:"lastResult,omitempty"`
}
