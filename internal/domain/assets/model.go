package assets

import "time"

// Asset types.
const (
	TypeLogo = "LOGO"
)

// Asset statuses. A PROCESSING asset whose generation never completed is
// the durable trace of a deduction that was not refunded; the admin stale
// listing surfaces those for manual reconciliation.
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

type Project struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    uint      `json:"user_id" gorm:"index"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BrandAsset is one generated artifact (currently logos only).
type BrandAsset struct {
	ID        string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    uint   `json:"user_id" gorm:"index"`
	ProjectID string `json:"project_id" gorm:"index;type:varchar(36)"`

	Type   string `json:"type" gorm:"type:varchar(20)"`
	Status string `json:"status" gorm:"type:varchar(20);index"`

	Prompt      string `json:"prompt"`
	URL         string `json:"url,omitempty"`
	StoragePath string `json:"storage_path,omitempty"`
	FileSize    int64  `json:"file_size,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`

	CreditsUsed      int    `json:"credits_used"`
	Model            string `json:"model"`
	GenerationTimeMs int64  `json:"generation_time_ms,omitempty"`
	ErrorMessage     string `json:"error_message,omitempty"`

	Data map[string]string `json:"data,omitempty" gorm:"serializer:json"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
