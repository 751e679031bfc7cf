package profile

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
)

var ErrInvalidProfile = errors.New("weight_kg, height_cm and age_years must be positive")

// Loader resolves the profile used for calorie estimation.
type Loader interface {
	Load(ctx context.Context, userID string) (UserProfile, error)
}

// Static hands out the default profile for every user.
type Static struct{}

func (Static) Load(_ context.Context, userID string) (UserProfile, error) {
	return Default(userID), nil
}

// RedisStore keeps profiles as redis hashes under profile:{id}.
type RedisStore struct {
	redis *redis.Client
}

func NewRedisStore(redisClient *redis.Client) *RedisStore {
	return &RedisStore{redis: redisClient}
}

func (s *RedisStore) Load(ctx context.Context, userID string) (UserProfile, error) {
	fields, err := s.redis.HGetAll(ctx, profileKey(userID)).Result()
	if err != nil {
		return UserProfile{}, err
	}

	p := UserProfile{ID: userID}
	p.WeightKg, _ = strconv.ParseFloat(fields["weight_kg"], 64)
	p.HeightCm, _ = strconv.ParseFloat(fields["height_cm"], 64)
	p.AgeYears, _ = strconv.Atoi(fields["age_years"])
	return p.withDefaults(), nil
}

func (s *RedisStore) Save(ctx context.Context, p UserProfile) (UserProfile, error) {
	if p.WeightKg <= 0 || p.HeightCm <= 0 || p.AgeYears <= 0 {
		return UserProfile{}, ErrInvalidProfile
	}
	err := s.redis.HSet(ctx, profileKey(p.ID),
		"weight_kg", strconv.FormatFloat(p.WeightKg, 'f', -1, 64),
		"height_cm", strconv.FormatFloat(p.HeightCm, 'f', -1, 64),
		"age_years", strconv.Itoa(p.AgeYears),
	).Err()
	if err != nil {
		return UserProfile{}, err
	}
	return p, nil
}

func profileKey(userID string) string {
	return "profile:" + userID
}
