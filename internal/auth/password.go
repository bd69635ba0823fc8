// Package auth — password hashing utilities.
//
// WHY BCRYPT?
// bcrypt is a password hashing function specifically designed to be slow.
// bcrypt automatically:
//   - Generates a random salt (so two users with the same password get different hashes)
//   - Embeds the salt in the output hash (no separate salt column needed)
//   - Controls the work factor via "cost" (higher = slower = harder to crack)
//
// Hash format (the full output of bcrypt.GenerateFromPassword):
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (12 rounds → 2^12 = 4096 iterations)
//	 version
//
// SLOTS:
// A cost-12 hash takes ~250ms of one CPU core. PasswordService hands out a
// fixed number of slots; Hash and Verify wait for one before touching bcrypt,
// so a burst of logins queues instead of starving every other request.
package auth

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used in production.
const DefaultCost = 12

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct (not free functions) so that the cost can be injected
// in tests — using a lower cost (e.g. 4) makes tests run much faster
// without compromising the logic being tested.
type PasswordService struct {
	cost  int
	slots chan struct{}

	dummyOnce sync.Once
	dummyHash []byte
	dummyErr  error
}

// NewPasswordService creates a PasswordService with the given cost and at most
// maxConcurrent hashes in flight. maxConcurrent <= 0 means runtime.NumCPU().
func NewPasswordService(cost, maxConcurrent int) (*PasswordService, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("auth: bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.NumCPU()
	}
	return &PasswordService{
		cost:  cost,
		slots: make(chan struct{}, maxConcurrent),
	}, nil
}

// NewPasswordServiceForTest creates a PasswordService with the given cost
// (use 4, the bcrypt minimum) and two slots. Use this in tests in other
// packages to avoid the ~250ms overhead of cost 12 per hashing operation.
//
// Do NOT use in production — cost 4 is far too weak.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost, slots: make(chan struct{}, 2)}
}

// Cost returns the configured bcrypt work factor.
func (p *PasswordService) Cost() int {
	return p.cost
}

// acquire blocks until a hashing slot is free or ctx is done.
func (p *PasswordService) acquire(ctx context.Context) error {
	select {
	case p.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("auth: waiting for hashing slot: %w", ctx.Err())
	}
}

func (p *PasswordService) release() {
	<-p.slots
}

// Hash hashes the given plaintext password with bcrypt.
//
// Returns an error if the plaintext is too long (>72 bytes — a bcrypt limit),
// if bcrypt fails, or if ctx ends while waiting for a slot. In all of those
// cases no hash is produced, so the caller must not persist anything.
func (p *PasswordService) Hash(ctx context.Context, plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordLength {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", MaxPasswordLength)
	}

	if err := p.acquire(ctx); err != nil {
		return "", err
	}
	defer p.release()

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
//
// A mismatch is a normal outcome: (false, nil). An error means the stored hash
// is unusable or no slot could be obtained.
//
// bcrypt.CompareHashAndPassword compares in constant time.
func (p *PasswordService) Verify(ctx context.Context, hash, plaintext string) (bool, error) {
	if err := p.acquire(ctx); err != nil {
		return false, err
	}
	defer p.release()

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("auth: comparing password hash: %w", err)
	}
}

// VerifyAbsent spends the same bcrypt work as Verify against a fixed hash and
// always reports false. Login calls it when the username does not exist so
// that response time does not reveal which accounts are registered.
func (p *PasswordService) VerifyAbsent(ctx context.Context, plaintext string) error {
	if err := p.acquire(ctx); err != nil {
		return err
	}
	defer p.release()

	// The first call also pays for generating the dummy hash, inside the slot.
	p.dummyOnce.Do(func() {
		p.dummyHash, p.dummyErr = bcrypt.GenerateFromPassword([]byte("classroom-absent-user"), p.cost)
	})
	if p.dummyErr != nil {
		return fmt.Errorf("auth: generating dummy hash: %w", p.dummyErr)
	}

	_ = bcrypt.CompareHashAndPassword(p.dummyHash, []byte(plaintext))
	return nil
}
