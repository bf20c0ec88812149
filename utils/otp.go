package utils

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

var (
	// ErrOTPExpired is returned when no live OTP exists for the phone.
	ErrOTPExpired = errors.New("OTP not found or expired")
	// ErrOTPMismatch is returned when the submitted code is wrong.
	ErrOTPMismatch = errors.New("OTP does not match")
)

// OTPStore keeps issued OTPs until they are verified or expire.
type OTPStore interface {
	Save(ctx context.Context, phone, code string, ttl time.Duration) error
	// Verify consumes the OTP on a match. A mismatch leaves it in place.
	Verify(ctx context.Context, phone, code string) error
}

// GenerateOTP returns a random numeric code of the given length.
func GenerateOTP(length int) (string, error) {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

// RedisOTPStore keeps OTPs in Redis with a TTL.
type RedisOTPStore struct {
	client *redis.Client
}

func NewRedisOTPStore(client *redis.Client) *RedisOTPStore {
	return &RedisOTPStore{client: client}
}

func (s *RedisOTPStore) Save(ctx context.Context, phone, code string, ttl time.Duration) error {
	if err := s.client.Set(ctx, OTPKeyPrefix+phone, code, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache OTP: %w", err)
	}
	return nil
}

func (s *RedisOTPStore) Verify(ctx context.Context, phone, code string) error {
	key := OTPKeyPrefix + phone
	stored, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return ErrOTPExpired
	}
	if err != nil {
		return fmt.Errorf("failed to retrieve OTP: %w", err)
	}
	if stored != code {
		return ErrOTPMismatch
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete OTP: %w", err)
	}
	return nil
}

type otpEntry struct {
	code      string
	expiresAt time.Time
}

// MemoryOTPStore keeps OTPs in process memory.
type MemoryOTPStore struct {
	mu      sync.Mutex
	entries map[string]otpEntry
	now     func() time.Time
}

func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{entries: make(map[string]otpEntry), now: time.Now}
}

func (s *MemoryOTPStore) Save(_ context.Context, phone, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[phone] = otpEntry{code: code, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryOTPStore) Verify(_ context.Context, phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[phone]
	if !ok {
		return ErrOTPExpired
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, phone)
		return ErrOTPExpired
	}
	if entry.code != code {
		return ErrOTPMismatch
	}
	delete(s.entries, phone)
	return nil
}
