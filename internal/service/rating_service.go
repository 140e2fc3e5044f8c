package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"soulbalance/internal/cache"
	"soulbalance/internal/data"
	"soulbalance/internal/logger"
)

// RatingSummary is the combined rating of a post across both pools.
type RatingSummary struct {
	Average float64 `json:"avg_rating"`
	Total   int64   `json:"total_ratings"`
}

// CombineRatings weights every rating equally regardless of pool and rounds
// the average to one decimal. No ratings yields a zero summary.
func CombineRatings(userSum, userCount, publicSum, publicCount int64) RatingSummary {
	total := userCount + publicCount
	if total == 0 {
		return RatingSummary{}
	}
	avg := float64(userSum+publicSum) / float64(total)
	return RatingSummary{Average: math.Round(avg*10) / 10, Total: total}
}

// RatingService records ratings and computes cached summaries.
type RatingService struct {
	ratings RatingRepository
	posts   PostRepository
	cache   cache.Store
	ttl     time.Duration
	log     logger.Logger

	// fill serializes loading totals with writing them to the cache, so a
	// slow reader cannot overwrite the summary stored after a rating.
	fill sync.Mutex
}

// NewRatingService creates a RatingService. A nil store disables caching.
func NewRatingService(ratings RatingRepository, posts PostRepository, store cache.Store, ttl time.Duration, log logger.Logger) *RatingService {
	return &RatingService{ratings: ratings, posts: posts, cache: store, ttl: ttl, log: log}
}

func cacheKey(postID int64) string {
	return "rating:" + strconv.FormatInt(postID, 10)
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return newError(ErrInvalid, "Rating must be between 1 and 5")
	}
	return nil
}

func (s *RatingService) requirePost(ctx context.Context, postID int64) error {
	if postID <= 0 {
		return newError(ErrInvalid, "Invalid post ID")
	}
	if _, err := s.posts.GetPostByID(ctx, postID); err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return errPostNotFound
		}
		return err
	}
	return nil
}

// Rate records or overwrites the rating of a logged-in user and returns the new summary.
func (s *RatingService) Rate(ctx context.Context, postID, userID int64, rating int) (RatingSummary, error) {
	if userID == 0 {
		return RatingSummary{}, errLoginRequired
	}
	if err := validateRating(rating); err != nil {
		return RatingSummary{}, err
	}
	if err := s.requirePost(ctx, postID); err != nil {
		return RatingSummary{}, err
	}
	if err := s.ratings.UpsertUserRating(ctx, postID, userID, rating); err != nil {
		return RatingSummary{}, fmt.Errorf("save rating: %w", err)
	}
	return s.refresh(ctx, postID)
}

// RatePublic records an anonymous rating keyed by IP address. A second rating
// from the same address is rejected with ErrAlreadyRated.
func (s *RatingService) RatePublic(ctx context.Context, postID int64, ip string, rating int) (RatingSummary, error) {
	if err := validateRating(rating); err != nil {
		return RatingSummary{}, err
	}
	if err := s.requirePost(ctx, postID); err != nil {
		return RatingSummary{}, err
	}

	rated, err := s.ratings.HasPublicRating(ctx, postID, ip)
	if err != nil {
		return RatingSummary{}, fmt.Errorf("check public rating: %w", err)
	}
	if rated {
		return RatingSummary{}, ErrAlreadyRated
	}
	if err := s.ratings.InsertPublicRating(ctx, postID, ip, rating); err != nil {
		if errors.Is(err, data.ErrDuplicate) {
			return RatingSummary{}, ErrAlreadyRated
		}
		return RatingSummary{}, fmt.Errorf("save public rating: %w", err)
	}
	return s.refresh(ctx, postID)
}

// UserRating returns the caller's own rating of a post, or 0.
func (s *RatingService) UserRating(ctx context.Context, postID, userID int64) (int, error) {
	if userID == 0 {
		return 0, nil
	}
	return s.ratings.GetUserRating(ctx, postID, userID)
}

// Summary returns the combined rating of a post, served from cache when possible.
func (s *RatingService) Summary(ctx context.Context, postID int64) (RatingSummary, error) {
	key := cacheKey(postID)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err != nil {
			s.log.Warn(fmt.Sprintf("rating cache read failed for %s: %v", key, err))
		} else if raw != nil {
			var cached RatingSummary
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}
	return s.refresh(ctx, postID)
}

// refresh recomputes the summary from the repository and stores it in the cache.
func (s *RatingService) refresh(ctx context.Context, postID int64) (RatingSummary, error) {
	s.fill.Lock()
	defer s.fill.Unlock()

	totals, err := s.ratings.GetTotals(ctx, postID)
	if err != nil {
		return RatingSummary{}, fmt.Errorf("load rating totals: %w", err)
	}
	summary := CombineRatings(totals.UserSum, totals.UserCount, totals.PublicSum, totals.PublicCount)

	if s.cache != nil {
		key := cacheKey(postID)
		raw, _ := json.Marshal(summary)
		if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
			s.log.Warn(fmt.Sprintf("rating cache write failed for %s: %v", key, err))
		}
	}
	return summary, nil
}
