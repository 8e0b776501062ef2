package model

import "time"

type Book struct {
	ID          uint   `gorm:"primaryKey"`
	Title       string `gorm:"not null;uniqueIndex"`
	PageCount   int    `gorm:"not null"`
	ReleaseDate *time.Time
	CheckedOut  bool  `gorm:"not null;default:false"`
	AuthorID    *uint `gorm:"index"`
	// Author is attached explicitly by the repository, never by gorm.
	Author    *Author `gorm:"-"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
