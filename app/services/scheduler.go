package services

import (
	"context"
	"time"

	"github.com/Rakhulsr/go-portal/app/repositories"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// MediaGracePeriod is how old an unreferenced upload must be before the
// janitor removes it.
const MediaGracePeriod = 15 * time.Minute

// MediaJanitor removes uploaded files that no post or profile points at.
type MediaJanitor struct {
	media *MediaStore
	posts repositories.BlogPostRepositoryImpl
	users repositories.UserRepositoryImpl
	grace time.Duration
}

func NewMediaJanitor(media *MediaStore, posts repositories.BlogPostRepositoryImpl, users repositories.UserRepositoryImpl) *MediaJanitor {
	return &MediaJanitor{media: media, posts: posts, users: users, grace: MediaGracePeriod}
}

func (j *MediaJanitor) Sweep(ctx context.Context) (int, error) {
	postImages, err := j.posts.Images(ctx)
	if err != nil {
		return 0, err
	}
	profileImages, err := j.users.ProfileImages(ctx)
	if err != nil {
		return 0, err
	}
	return j.media.SweepOrphans(append(postImages, profileImages...), time.Now().Add(-j.grace))
}

func (j *MediaJanitor) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	removed, err := j.Sweep(ctx)
	if err != nil {
		log.Error().Err(err).Msg("media cleanup failed")
		return
	}
	log.Info().Int("removed", removed).Msg("media cleanup done")
}

func NewScheduler(janitor *MediaJanitor) (*cron.Cron, error) {
	quartz := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(&log.Logger)))
	if _, err := quartz.AddFunc("@every 60m", janitor.run); err != nil {
		return nil, err
	}
	return quartz, nil
}
