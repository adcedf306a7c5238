package seeders

import (
	"context"
	"fmt"

	"github.com/Rakhulsr/go-portal/app/db/fakers"
	"github.com/Rakhulsr/go-portal/app/helpers"
	"github.com/Rakhulsr/go-portal/app/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seeder inserts one kind of demo row. Later seeders read what the
// earlier ones wrote through the shared state.
type Seeder struct {
	Name string
	Run  func(tx *gorm.DB, s *state) error
}

type state struct {
	count         int
	users         []models.User
	topics        []models.Topic
	manufacturers []models.Manufacturer
}

func SeedersRegister() []Seeder {
	return []Seeder{
		{Name: "users", Run: seedUsers},
		{Name: "topics", Run: seedTopics},
		{Name: "posts", Run: seedPosts},
		{Name: "tasks", Run: seedTasks},
		{Name: "manufacturers", Run: seedManufacturers},
		{Name: "cars", Run: seedCars},
	}
}

// DBSeed writes count rows of each kind in one transaction. Posts of a
// topic are chained through previous.
func DBSeed(ctx context.Context, db *gorm.DB, count int) error {
	if count < 1 {
		return fmt.Errorf("seed count must be positive, got %d", count)
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s := &state{count: count}
		for _, seeder := range SeedersRegister() {
			if err := seeder.Run(tx, s); err != nil {
				return fmt.Errorf("seed %s: %w", seeder.Name, err)
			}
			log.Info().Str("seeder", seeder.Name).Msg("seeded")
		}
		return nil
	})
}

func seedUsers(tx *gorm.DB, s *state) error {
	var existing int64
	if err := tx.Model(&models.User{}).Where("email LIKE ?", "demo%@example.com").Count(&existing).Error; err != nil {
		return err
	}
	hash, err := helpers.HashPassword(fakers.DemoPassword)
	if err != nil {
		return err
	}
	for i := 0; i < s.count; i++ {
		user := fakers.UserFaker(int(existing) + i + 1)
		user.Password = hash
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		s.users = append(s.users, *user)
	}
	return nil
}

func seedTopics(tx *gorm.DB, s *state) error {
	var existing int64
	if err := tx.Model(&models.Topic{}).Count(&existing).Error; err != nil {
		return err
	}
	for i := 0; i < s.count; i++ {
		var parentID *uint
		if i > 0 && i%3 == 0 {
			parentID = &s.topics[0].ID
		}
		topic := fakers.TopicFaker(int(existing)+i+1, parentID)
		if err := tx.Omit(clause.Associations).Create(topic).Error; err != nil {
			return err
		}
		s.topics = append(s.topics, *topic)
	}
	return nil
}

func seedPosts(tx *gorm.DB, s *state) error {
	for i, topic := range s.topics {
		topicID := topic.ID
		author := s.users[i%len(s.users)]
		var previousID *uint
		for j := 0; j < 2; j++ {
			post := fakers.BlogPostFaker(&topicID, &author.ID, previousID)
			if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
				return err
			}
			previousID = &post.ID
		}
	}
	return nil
}

func seedTasks(tx *gorm.DB, s *state) error {
	for _, user := range s.users {
		for i := 0; i < s.count; i++ {
			if err := tx.Omit(clause.Associations).Create(fakers.TaskFaker(user.ID)).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func seedManufacturers(tx *gorm.DB, s *state) error {
	var existing int64
	if err := tx.Model(&models.Manufacturer{}).Count(&existing).Error; err != nil {
		return err
	}
	for i := 0; i < s.count; i++ {
		m := fakers.ManufacturerFaker(int(existing) + i + 1)
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		s.manufacturers = append(s.manufacturers, *m)
	}
	return nil
}

func seedCars(tx *gorm.DB, s *state) error {
	for _, m := range s.manufacturers {
		for i := 0; i < s.count; i++ {
			if err := tx.Omit(clause.Associations).Create(fakers.CarFaker(i+1, m.ID)).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
