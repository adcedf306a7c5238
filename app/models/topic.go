package models

import "time"

type Topic struct {
	ID            uint   `gorm:"primaryKey"`
	Name          string `gorm:"size:50;not null;uniqueIndex"`
	ParentTopicID *uint  `gorm:"index"`
	ParentTopic   *Topic `gorm:"foreignKey:ParentTopicID;constraint:OnDelete:SET NULL"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ParentName is empty when the topic has no (loaded) parent.
func (t *Topic) ParentName() string {
	if t.ParentTopic == nil {
		return ""
	}
	return t.ParentTopic.Name
}
