package models

import "time"

type TaskStatus string

const (
	TaskStatusNew        TaskStatus = "new"
	TaskStatusInProgress TaskStatus = "in progress"
	TaskStatusDone       TaskStatus = "done"
)

var TaskStatusChoices = []TaskStatus{TaskStatusNew, TaskStatusInProgress, TaskStatusDone}

func (s TaskStatus) Valid() bool {
	for _, c := range TaskStatusChoices {
		if c == s {
			return true
		}
	}
	return false
}

func (s TaskStatus) Label() string {
	switch s {
	case TaskStatusNew:
		return "New"
	case TaskStatusInProgress:
		return "In progress"
	case TaskStatusDone:
		return "Done"
	}
	return string(s)
}

type Task struct {
	ID          uint       `gorm:"primaryKey"`
	Title       string     `gorm:"size:100;not null"`
	Description string     `gorm:"type:text"`
	Status      TaskStatus `gorm:"size:20;not null;default:'new';index"`
	Category    string     `gorm:"size:50"`
	CreatedByID *uint      `gorm:"index"`
	CreatedBy   *User      `gorm:"constraint:OnDelete:SET NULL"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
