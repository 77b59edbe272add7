package database

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Run records one invocation of the dithering pipeline
type Run struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ImagePath     string         `gorm:"not null;index" json:"image_path"`
	OutputPath    string         `json:"output_path"`
	Width         int            `json:"width"`
	Height        int            `json:"height"`
	PaletteSource string         `gorm:"size:16;index" json:"palette_source"`
	Colors        int            `json:"colors"`
	Palette       datatypes.JSON `json:"palette"`
	Iterations    int            `json:"iterations"`
	Diffusions    int64          `json:"diffusions"`
	DurationMS    int64          `json:"duration_ms"`
	Saved         bool           `gorm:"default:false" json:"saved"`
	Error         string         `json:"error,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// BeforeCreate sets UUID if not already set
func (r *Run) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// SetPalette stores palette entries as a JSON array of hex strings
func (r *Run) SetPalette(hex []string) error {
	data, err := json.Marshal(hex)
	if err != nil {
		return err
	}
	r.Palette = datatypes.JSON(data)
	r.Colors = len(hex)
	return nil
}

// PaletteHex decodes the stored palette
func (r *Run) PaletteHex() ([]string, error) {
	if len(r.Palette) == 0 {
		return nil, nil
	}
	var hex []string
	if err := json.Unmarshal(r.Palette, &hex); err != nil {
		return nil, err
	}
	return hex, nil
}

// GetAllModels returns all models for migration
func GetAllModels() []any {
	return []any{
		&Run{},
	}
}
