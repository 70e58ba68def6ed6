package models

// Asset reference states.
const (
	AssetPending  = "pending"
	AssetAttached = "attached"
)

// AssetReferenceModel tracks uploaded objects so unattached ones can be collected.
type AssetReferenceModel struct {
	Base
	Path        string `json:"path"         gorm:"type:varchar(191);uniqueIndex;not null"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Status      string `json:"status"       gorm:"type:varchar(16);index;default:'pending'"`
	RefID       string `json:"ref_id"       gorm:"type:varchar(96);index"`
}

func (AssetReferenceModel) TableName() string { return "asset_references" }
