package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Category struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Slug      string    `gorm:"uniqueIndex;size:120;not null" json:"slug"`
	NameEn    string    `gorm:"size:120;not null" json:"name_en"`
	NameHi    string    `gorm:"size:120" json:"name_hi"`
	ImageURL  string    `gorm:"size:500" json:"image_url,omitempty"`
	SortOrder int       `gorm:"not null" json:"sort_order"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type Artisan struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Slug      string    `gorm:"uniqueIndex;size:120;not null" json:"slug"`
	UserID    *string   `gorm:"size:36;uniqueIndex" json:"user_id,omitempty"`
	NameEn    string    `gorm:"size:120;not null" json:"name_en"`
	NameHi    string    `gorm:"size:120" json:"name_hi"`
	BioEn     string    `gorm:"type:text" json:"bio_en,omitempty"`
	BioHi     string    `gorm:"type:text" json:"bio_hi,omitempty"`
	Region    string    `gorm:"size:120" json:"region,omitempty"`
	ImageURL  string    `gorm:"size:500" json:"image_url,omitempty"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Artisan) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

type Product struct {
	ID            string          `gorm:"primaryKey;size:36" json:"id"`
	Slug          string          `gorm:"uniqueIndex;size:160;not null" json:"slug"`
	NameEn        string          `gorm:"size:200;not null" json:"name_en"`
	NameHi        string          `gorm:"size:200" json:"name_hi"`
	DescriptionEn string          `gorm:"type:text" json:"description_en,omitempty"`
	DescriptionHi string          `gorm:"type:text" json:"description_hi,omitempty"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Stock         int             `gorm:"not null" json:"stock"`
	CategoryID    *string         `gorm:"size:36;index" json:"category_id,omitempty"`
	Category      *Category       `json:"category,omitempty"`
	ArtisanID     *string         `gorm:"size:36;index" json:"artisan_id,omitempty"`
	Artisan       *Artisan        `json:"artisan,omitempty"`
	ImageURL      string          `gorm:"size:500" json:"image_url,omitempty"`
	IsActive      bool            `gorm:"not null;index" json:"is_active"`
	IsFeatured    bool            `gorm:"not null" json:"is_featured"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

type Banner struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	TitleEn   string    `gorm:"size:200;not null" json:"title_en"`
	TitleHi   string    `gorm:"size:200" json:"title_hi"`
	ImageURL  string    `gorm:"size:500;not null" json:"image_url"`
	LinkURL   string    `gorm:"size:500" json:"link_url,omitempty"`
	Position  int       `gorm:"not null" json:"position"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Banner) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
