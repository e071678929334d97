// Package syllabus stores course syllabi in the key-value store.
package syllabus

import (
	"context"
	"errors"
	"fmt"

	"github.com/learnstack/coursechat/internal/db"
	"github.com/learnstack/coursechat/internal/domain"
)

// store is the consumer interface over the KV store (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Repo reads and writes syllabus blobs.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a syllabus repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

func (r *Repo) key(courseID string) string {
	return fmt.Sprintf("%scourses/%s/syllabus.md", r.keyPrefix, courseID)
}

// Get downloads the syllabus for a course into memory. A missing syllabus
// is domain.ErrNotFound; callers treat it as non-fatal.
func (r *Repo) Get(ctx context.Context, courseID string) ([]byte, error) {
	data, err := r.store.Get(ctx, r.key(courseID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("syllabus for course %q: %w", courseID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get syllabus for course %q: %w", courseID, err)
	}
	return data, nil
}

// Put stores the syllabus for a course.
func (r *Repo) Put(ctx context.Context, courseID string, content []byte) error {
	if err := r.store.Set(ctx, r.key(courseID), content); err != nil {
		return fmt.Errorf("store syllabus for course %q: %w", courseID, err)
	}
	return nil
}
