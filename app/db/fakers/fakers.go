// Package fakers builds demo rows for local development databases.
package fakers

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/Rakhulsr/go-portal/app/models"
	"github.com/go-faker/faker/v4"
	"github.com/gosimple/slug"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// DemoPassword is the password of every generated user.
const DemoPassword = "demo-password"

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// UserFaker returns a user whose Password still has to be hashed.
func UserFaker(i int) *models.User {
	return &models.User{
		FirstName: truncate(faker.FirstName(), 30),
		LastName:  truncate(faker.LastName(), 50),
		Email:     fmt.Sprintf("demo%d@example.com", i),
		Password:  DemoPassword,
	}
}

// TopicFaker suffixes the name with i to keep names unique.
func TopicFaker(i int, parentID *uint) *models.Topic {
	return &models.Topic{
		Name:          truncate(fmt.Sprintf("%s %d", faker.Word(), i), 50),
		ParentTopicID: parentID,
	}
}

func BlogPostFaker(topicID, authorID, previousID *uint) *models.BlogPost {
	return &models.BlogPost{
		Title:      truncate(faker.Sentence(), 200),
		Content:    faker.Paragraph() + "\n\n" + faker.Paragraph(),
		TopicID:    topicID,
		AuthorID:   authorID,
		PreviousID: previousID,
	}
}

func TaskFaker(ownerID uint) *models.Task {
	return &models.Task{
		Title:       truncate(faker.Sentence(), 100),
		Description: faker.Paragraph(),
		Status:      lo.Sample(models.TaskStatusChoices),
		Category:    truncate(slug.Make(faker.Word()), 50),
		CreatedByID: &ownerID,
	}
}

func ManufacturerFaker(i int) *models.Manufacturer {
	return &models.Manufacturer{Name: truncate(fmt.Sprintf("%s Motors %d", faker.LastName(), i), 100)}
}

func CarFaker(i int, manufacturerID uint) *models.Car {
	return &models.Car{
		Name:           truncate(fmt.Sprintf("%s %d", faker.Word(), i), 100),
		ManufacturerID: manufacturerID,
		Price:          decimal.NewFromFloat(fakePrice()).Round(2),
	}
}

func fakePrice() float64 {
	return precision(rand.Float64()*math.Pow10(rand.Intn(5)+3), 2)
}

func precision(val float64, pre int) float64 {
	a := math.Pow10(pre)
	return float64(int(val*a)) / a
}
