package model

import "time"

type Author struct {
	ID        uint   `gorm:"primaryKey"`
	FirstName string `gorm:"not null;index:idx_authors_name"`
	LastName  string `gorm:"not null;index:idx_authors_name"`
	Books     []Book `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
