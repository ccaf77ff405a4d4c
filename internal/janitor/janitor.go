// Package janitor periodically removes image files that no post references
// anymore, covering the cases where a best-effort deletion was lost.
package janitor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// PostImages lists every image reference currently attached to a post.
type PostImages interface {
	ListImageURLs(ctx context.Context) ([]string, error)
}

// Janitor sweeps the image directory on a cron schedule.
type Janitor struct {
	posts  PostImages
	dir    string
	log    *logrus.Logger
	minAge time.Duration
}

// New creates a janitor for the given image directory. Files younger than
// an hour are never touched, so an in-flight upload cannot be swept away
// between storage and the post insert.
func New(posts PostImages, dir string, log *logrus.Logger) *Janitor {
	return &Janitor{posts: posts, dir: dir, log: log, minAge: time.Hour}
}

// Start schedules the sweep and returns the running cron so the caller can
// stop it on shutdown.
func (j *Janitor) Start(schedule string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := j.Sweep(context.Background()); err != nil {
			j.log.Errorf("Image sweep failed: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule image sweep: %w", err)
	}
	c.Start()
	return c, nil
}

// Sweep deletes orphaned files in the image directory.
func (j *Janitor) Sweep(ctx context.Context) error {
	refs, err := j.posts.ListImageURLs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list referenced images: %w", err)
	}
	referenced := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		referenced[filepath.Base(ref)] = struct{}{}
	}

	entries, err := os.ReadDir(j.dir)
	if err != nil {
		return fmt.Errorf("failed to read image dir: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := referenced[entry.Name()]; ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) < j.minAge {
			continue
		}
		if err := os.Remove(filepath.Join(j.dir, entry.Name())); err != nil {
			j.log.Warnf("Failed to remove orphaned image %s: %v", entry.Name(), err)
			continue
		}
		removed++
	}
	if removed > 0 {
		j.log.Infof("Removed %d orphaned image(s)", removed)
	}
	return nil
}
