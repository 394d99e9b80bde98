package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// CacheKey identifies one input assignment of one system
type CacheKey string

// CacheConfig holds cache configuration
type CacheConfig struct {
	MaxSize int `json:"max_size"` // Maximum number of results
}

// DefaultCacheConfig returns a default cache configuration
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		MaxSize: 1024,
	}
}

// GenerateKey generates a cache key for an input assignment
func GenerateKey(system string, inputs map[string]float64) (CacheKey, error) {
	// encoding/json writes map keys sorted, so equal assignments hash equally.
	normalized := struct {
		System string             `json:"system"`
		Inputs map[string]float64 `json:"inputs"`
	}{
		System: system,
		Inputs: inputs,
	}

	data, err := json.Marshal(normalized)
	if err != nil {
		return "", fmt.Errorf("failed to marshal inputs: %w", err)
	}

	hash := sha256.Sum256(data)
	return CacheKey(fmt.Sprintf("%x", hash)), nil
}

// CacheStats represents cache statistics
type CacheStats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Shared    int64   `json:"shared"` // misses answered by a concurrent evaluation
	Uncached  int64   `json:"uncached"`
	Evictions int64   `json:"evictions"`
	Size      int     `json:"size"`
	MaxSize   int     `json:"max_size"`
	HitRate   float64 `json:"hit_rate"`
}

// CalculateHitRate calculates the hit rate
func (s *CacheStats) CalculateHitRate() {
	total := s.Hits + s.Misses
	if total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	} else {
		s.HitRate = 0.0
	}
}
