package models

import "time"

type BlogPost struct {
	ID         uint      `gorm:"primaryKey"`
	Title      string    `gorm:"size:200;not null"`
	Content    string    `gorm:"type:text;not null"`
	Image      string    `gorm:"size:255"`
	TopicID    *uint     `gorm:"index"`
	Topic      *Topic    `gorm:"constraint:OnDelete:SET NULL"`
	AuthorID   *uint     `gorm:"index"`
	Author     *User     `gorm:"constraint:OnDelete:SET NULL"`
	PreviousID *uint     `gorm:"index"`
	Previous   *BlogPost `gorm:"foreignKey:PreviousID;constraint:OnDelete:SET NULL"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Comment struct {
	ID         uint      `gorm:"primaryKey"`
	Content    string    `gorm:"type:text;not null"`
	BlogPostID uint      `gorm:"not null;index"`
	BlogPost   *BlogPost `gorm:"constraint:OnDelete:CASCADE"`
	AuthorID   uint      `gorm:"not null;index"`
	Author     *User     `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time
}
