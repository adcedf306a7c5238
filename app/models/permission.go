package models

import "time"

// Capability is a named right checked before mutating shared data.
type Capability string

const (
	CapAddTopic    Capability = "blog.add_topic"
	CapChangeTopic Capability = "blog.change_topic"
	CapDeleteTopic Capability = "blog.delete_topic"

	CapAddBlogPost    Capability = "blog.add_blogpost"
	CapChangeBlogPost Capability = "blog.change_blogpost"
	CapDeleteBlogPost Capability = "blog.delete_blogpost"

	CapDeleteComment Capability = "blog.delete_comment"

	CapAddCar    Capability = "catalog.add_car"
	CapChangeCar Capability = "catalog.change_car"
	CapDeleteCar Capability = "catalog.delete_car"

	CapAddManufacturer    Capability = "catalog.add_manufacturer"
	CapChangeManufacturer Capability = "catalog.change_manufacturer"
	CapDeleteManufacturer Capability = "catalog.delete_manufacturer"
)

var AllCapabilities = []Capability{
	CapAddTopic, CapChangeTopic, CapDeleteTopic,
	CapAddBlogPost, CapChangeBlogPost, CapDeleteBlogPost,
	CapDeleteComment,
	CapAddCar, CapChangeCar, CapDeleteCar,
	CapAddManufacturer, CapChangeManufacturer, CapDeleteManufacturer,
}

func ParseCapability(s string) (Capability, bool) {
	for _, c := range AllCapabilities {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

type UserPermission struct {
	UserID     uint       `gorm:"primaryKey;autoIncrement:false"`
	User       *User      `gorm:"constraint:OnDelete:CASCADE"`
	Capability Capability `gorm:"primaryKey;size:64"`
	CreatedAt  time.Time
}
