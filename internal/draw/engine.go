// Package draw selects round winners deterministically from a revealed
// seed. The engine is pure: no clock, no randomness source of its own, no
// stored state. Given the same round, entries and seed it always produces
// the same winners, so anyone holding the published commitment can replay
// and verify a draw.
package draw

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"sort"

	"github.com/google/uuid"

	"github.com/civiclabs-ng/supcore/internal/domain"
)

// SeedBytes is the length of a reveal seed in raw bytes (hex-encoded to 64)
const SeedBytes = 32

// derivationPrefix namespaces the HMAC input so a seed reused elsewhere can
// never produce a colliding draw value
const derivationPrefix = "sup-draw"

// NewSeed generates a random reveal seed, hex encoded
func NewSeed() (string, error) {
	buf := make([]byte, SeedBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate seed: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ComputeCommitment returns hex(sha256(seed || roundID)), the value
// published when a round opens
func ComputeCommitment(seed string, roundID uuid.UUID) string {
	h := sha256.New()
	h.Write([]byte(seed))
	h.Write([]byte(roundID.String()))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyReveal checks a reveal seed against a round's published commitment
func VerifyReveal(seed string, roundID uuid.UUID, commitHash string) bool {
	expected := ComputeCommitment(seed, roundID)
	return hmac.Equal([]byte(expected), []byte(commitHash))
}

// Draw selects one winner per tier from a round's frozen entries.
//
// The reveal seed must hash back to the round's commitment or the draw is
// rejected with ErrInvalidReveal. Entries are ordered by creation then id,
// weighted by tickets; each tier's winning value is derived with
// HMAC-SHA256 keyed by the seed and reduced modulo the remaining total
// weight. A user who wins a tier is excluded from later tiers. Zero-ticket
// entries are never selectable.
func Draw(round *domain.Round, entries []domain.Entry, revealSeed string, tiers int) ([]domain.Winner, error) {
	if !VerifyReveal(revealSeed, round.ID, round.CommitHash) {
		return nil, domain.ErrInvalidReveal
	}
	if tiers <= 0 {
		return nil, fmt.Errorf("%w: tier count %d", domain.ErrInvalidInput, tiers)
	}

	pool := make([]domain.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Tickets > 0 {
			pool = append(pool, e)
		}
	}
	sort.SliceStable(pool, func(i, j int) bool {
		if !pool[i].CreatedAt.Equal(pool[j].CreatedAt) {
			return pool[i].CreatedAt.Before(pool[j].CreatedAt)
		}
		return pool[i].ID < pool[j].ID
	})
	if len(pool) == 0 {
		return nil, domain.ErrNoEntries
	}

	winners := make([]domain.Winner, 0, tiers)
	excluded := make(map[uuid.UUID]bool)

	for drawIndex := 0; drawIndex < tiers; drawIndex++ {
		var totalWeight int64
		for _, e := range pool {
			if !excluded[e.UserID] {
				totalWeight += e.Tickets
			}
		}
		if totalWeight == 0 {
			// Fewer distinct users than tiers; lower tiers stay unfilled
			break
		}

		value := deriveValue(revealSeed, round.ID, drawIndex, totalWeight)

		var cumulative int64
		for _, e := range pool {
			if excluded[e.UserID] {
				continue
			}
			cumulative += e.Tickets
			if value < cumulative {
				winners = append(winners, domain.Winner{
					Tier:    drawIndex + 1,
					EntryID: e.ID,
					UserID:  e.UserID,
				})
				excluded[e.UserID] = true
				break
			}
		}
	}

	return winners, nil
}

// deriveValue maps (seed, round, drawIndex) to a uniform value in
// [0, totalWeight) using HMAC-SHA256 reduced modulo the weight
func deriveValue(revealSeed string, roundID uuid.UUID, drawIndex int, totalWeight int64) int64 {
	mac := hmac.New(sha256.New, []byte(revealSeed))
	fmt.Fprintf(mac, "%s|%s|%d", derivationPrefix, roundID, drawIndex)
	digest := mac.Sum(nil)

	v := new(big.Int).SetBytes(digest)
	v.Mod(v, big.NewInt(totalWeight))
	return v.Int64()
}
