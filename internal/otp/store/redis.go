package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"collegenet/internal/otp/models"
	platformredis "collegenet/internal/platform/redis"
	"collegenet/pkg/platform/sentinel"
)

const otpPrefix = "otp:"

// consumeScript atomically matches the code against an unused, unexpired
// record and marks it used, returning the profile draft. Running it as a Lua
// script gives the same single-winner guarantee the in-memory store gets from
// its mutex.
var consumeScript = goredis.NewScript(`
local code = redis.call('HGET', KEYS[1], 'code')
if not code or code ~= ARGV[1] then
  return false
end
if redis.call('HGET', KEYS[1], 'used') ~= '0' then
  return false
end
local exp = tonumber(redis.call('HGET', KEYS[1], 'expires_at'))
if not exp or exp <= tonumber(ARGV[2]) then
  return false
end
redis.call('HSET', KEYS[1], 'used', '1')
return redis.call('HGET', KEYS[1], 'profile')
`)

// RedisStore keeps each (email, purpose) record in a hash under one key, with
// a TTL matching the code expiry. TTL is the garbage collector; the
// expires_at field is still checked on every consume so correctness never
// depends on redis eviction timing.
type RedisStore struct {
	client *platformredis.Client
}

func NewRedisStore(client *platformredis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(email string, purpose models.Purpose) string {
	return otpPrefix + string(purpose) + ":" + email
}

func (s *RedisStore) Replace(ctx context.Context, rec models.Record) error {
	profile := ""
	if rec.Profile != nil {
		raw, err := json.Marshal(rec.Profile)
		if err != nil {
			return fmt.Errorf("marshal profile draft: %w", err)
		}
		profile = string(raw)
	}

	k := redisKey(rec.Email, rec.Purpose)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, k)
	pipe.HSet(ctx, k,
		"code", rec.Code,
		"used", "0",
		"expires_at", rec.ExpiresAt.Unix(),
		"profile", profile,
		"created_at", rec.CreatedAt.Unix(),
	)
	pipe.ExpireAt(ctx, k, rec.ExpiresAt)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("replace otp record: %w", err)
	}
	return nil
}

func (s *RedisStore) FindActive(ctx context.Context, email string, purpose models.Purpose, now time.Time) (*models.Record, error) {
	fields, err := s.client.HGetAll(ctx, redisKey(email, purpose)).Result()
	if err != nil {
		return nil, fmt.Errorf("find otp record: %w", err)
	}
	if len(fields) == 0 {
		return nil, sentinel.ErrNotFound
	}

	rec, err := recordFromFields(email, purpose, fields)
	if err != nil {
		return nil, err
	}
	if !rec.Live(now) {
		return nil, sentinel.ErrNotFound
	}
	return rec, nil
}

func (s *RedisStore) Consume(ctx context.Context, email, code string, purpose models.Purpose, now time.Time) (*models.ProfileDraft, error) {
	res, err := consumeScript.Run(ctx, s.client, []string{redisKey(email, purpose)}, code, now.Unix()).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("consume otp record: %w", err)
	}

	raw, ok := res.(string)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if raw == "" {
		return nil, nil
	}
	var profile models.ProfileDraft
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, fmt.Errorf("unmarshal profile draft: %w", err)
	}
	return &profile, nil
}

func (s *RedisStore) Delete(ctx context.Context, email string, purpose models.Purpose) error {
	if err := s.client.Del(ctx, redisKey(email, purpose)).Err(); err != nil {
		return fmt.Errorf("delete otp record: %w", err)
	}
	return nil
}

func recordFromFields(email string, purpose models.Purpose, fields map[string]string) (*models.Record, error) {
	rec := &models.Record{
		Email:   email,
		Code:    fields["code"],
		Purpose: purpose,
		Used:    fields["used"] != "0",
	}
	var expiresAt, createdAt int64
	if _, err := fmt.Sscanf(fields["expires_at"], "%d", &expiresAt); err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}
	if _, err := fmt.Sscanf(fields["created_at"], "%d", &createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	rec.ExpiresAt = time.Unix(expiresAt, 0)
	rec.CreatedAt = time.Unix(createdAt, 0)

	if raw := fields["profile"]; raw != "" {
		var profile models.ProfileDraft
		if err := json.Unmarshal([]byte(raw), &profile); err != nil {
			return nil, fmt.Errorf("unmarshal profile draft: %w", err)
		}
		rec.Profile = &profile
	}
	return rec, nil
}
