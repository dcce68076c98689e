package link

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/jaevor/go-nanoid"
)

const slugAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	// DefaultMinSlugLength is the length new slugs start at.
	DefaultMinSlugLength = 6
	// DefaultMaxSlugLength is the length the allocator escalates up to
	// before falling back to a random hex token.
	DefaultMaxSlugLength = 12

	attemptsPerLength = 10
)

// SlugChecker is the existence check the allocator runs candidates against.
type SlugChecker interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// Allocator generates short slugs that are free in the store at allocation
// time. The check is optimistic: a concurrent insert can still win the slug
// between the check and the caller's write, so the store's unique constraint
// remains the final authority and Create may return ErrSlugTaken.
type Allocator struct {
	check    SlugChecker
	minLen   int
	maxLen   int
	generate map[int]func() string
}

// NewAllocator creates an allocator over the alphanumeric slug alphabet with
// the default 6..12 length range.
func NewAllocator(check SlugChecker) (*Allocator, error) {
	return NewAllocatorWithLengths(check, DefaultMinSlugLength, DefaultMaxSlugLength)
}

// NewAllocatorWithLengths creates an allocator with a custom length range.
func NewAllocatorWithLengths(check SlugChecker, minLen, maxLen int) (*Allocator, error) {
	if minLen < 1 || maxLen < minLen {
		return nil, fmt.Errorf("invalid slug length range [%d, %d]", minLen, maxLen)
	}

	generate := make(map[int]func() string, maxLen-minLen+1)

	for length := minLen; length <= maxLen; length++ {
		gen, err := nanoid.CustomASCII(slugAlphabet, length)
		if err != nil {
			return nil, fmt.Errorf("build slug generator for length %d: %w", length, err)
		}

		generate[length] = gen
	}

	return &Allocator{
		check:    check,
		minLen:   minLen,
		maxLen:   maxLen,
		generate: generate,
	}, nil
}

// Allocate returns a slug that was free at the moment of the existence check.
//
// It tries up to ten candidates at the minimum length, growing the length by
// one after each exhausted round. If every length up to the maximum still
// collides, it falls back to a random 12-hex-character token so allocation
// terminates even in a saturated keyspace.
func (a *Allocator) Allocate(ctx context.Context) (string, error) {
	for length := a.minLen; length <= a.maxLen; length++ {
		for attempt := 0; attempt < attemptsPerLength; attempt++ {
			slug := a.generate[length]()

			exists, err := a.check.SlugExists(ctx, slug)
			if err != nil {
				return "", fmt.Errorf("check slug existence: %w", err)
			}

			if !exists {
				return slug, nil
			}
		}
	}

	return randomHexSlug()
}

// randomHexSlug produces the effectively collision-free fallback token.
func randomHexSlug() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
