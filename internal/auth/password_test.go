package auth

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// newTestPasswordService returns a PasswordService with bcrypt cost 4.
// Cost 4 is the minimum allowed by the bcrypt library. This makes tests
// run in milliseconds instead of ~250ms each.
func newTestPasswordService() *PasswordService {
	return NewPasswordServiceForTest(4)
}

func TestNewPasswordService_RejectsBadCost(t *testing.T) {
	_, err := NewPasswordService(2, 1)
	assert.Error(t, err)

	_, err = NewPasswordService(40, 1)
	assert.Error(t, err)
}

func TestNewPasswordService_DefaultSlots(t *testing.T) {
	ps, err := NewPasswordService(DefaultCost, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultCost, ps.Cost())
	assert.Greater(t, cap(ps.slots), 0)
}

// =========================================================================
// Hash TESTS
// =========================================================================

func TestHash_OutputLooksBcrypt(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash(context.Background(), "Abc123!@")
	require.NoError(t, err)

	// bcrypt hashes always start with $2a$ or $2b$
	assert.True(t, strings.HasPrefix(hash, "$2"), "not a bcrypt hash: %q", hash)
	assert.NotContains(t, hash, "Abc123!@")
}

func TestHash_SamePasswordProducesDifferentHashes(t *testing.T) {
	ps := newTestPasswordService()

	hash1, err := ps.Hash(context.Background(), "same-password")
	require.NoError(t, err)
	hash2, err := ps.Hash(context.Background(), "same-password")
	require.NoError(t, err)

	assert.NotEqual(t, hash1, hash2, "salt must be random")
}

func TestHash_RejectsPasswordOver72Bytes(t *testing.T) {
	ps := newTestPasswordService()

	_, err := ps.Hash(context.Background(), strings.Repeat("a", 73))
	assert.Error(t, err)
}

func TestHash_AcceptsPasswordExactly72Bytes(t *testing.T) {
	ps := newTestPasswordService()

	_, err := ps.Hash(context.Background(), strings.Repeat("a", 72))
	assert.NoError(t, err)
}

// =========================================================================
// Verify TESTS
// =========================================================================

func TestHashVerify_RoundTrip(t *testing.T) {
	ps := newTestPasswordService()

	cases := []struct {
		name     string
		password string
	}{
		{"scenario password", "Abc123!@"},
		{"minimum complex", "11AAaa!!"},
		{"special characters", "p@$$w0rD!#%"},
		{"unicode", "Пароль-密码1a!"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hash, err := ps.Hash(context.Background(), tc.password)
			require.NoError(t, err)

			ok, err := ps.Verify(context.Background(), hash, tc.password)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestVerify_DifferentPasswordIsFalseNotError(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash(context.Background(), "the-Real-passw0rd!")
	require.NoError(t, err)

	for _, other := range []string{"the-wrong-passw0rd!", "", "the-Real-passw0rd! "} {
		ok, err := ps.Verify(context.Background(), hash, other)
		assert.NoError(t, err)
		assert.False(t, ok, "password %q must not verify", other)
	}
}

func TestVerify_GarbageHash(t *testing.T) {
	ps := newTestPasswordService()

	ok, err := ps.Verify(context.Background(), "not-a-valid-bcrypt-hash", "password")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestVerifyAbsent(t *testing.T) {
	ps := newTestPasswordService()

	assert.NoError(t, ps.VerifyAbsent(context.Background(), "anything"))
	assert.NotEmpty(t, ps.dummyHash)
}

// =========================================================================
// SLOT TESTS
// =========================================================================

func TestHash_WaitsForSlotAndHonoursContext(t *testing.T) {
	ps := &PasswordService{cost: 4, slots: make(chan struct{}, 1)}

	// Occupy the only slot.
	require.NoError(t, ps.acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := ps.Hash(ctx, "Abc123!@")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	ps.release()

	_, err = ps.Hash(context.Background(), "Abc123!@")
	assert.NoError(t, err)
}

func TestVerifyAbsent_DummyHashWaitsForSlot(t *testing.T) {
	ps := &PasswordService{cost: 4, slots: make(chan struct{}, 1)}
	require.NoError(t, ps.acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, ps.VerifyAbsent(ctx, "anything"), context.DeadlineExceeded)
	assert.Empty(t, ps.dummyHash, "no bcrypt work may run without a slot")

	ps.release()
	require.NoError(t, ps.VerifyAbsent(context.Background(), "anything"))
	assert.NotEmpty(t, ps.dummyHash)
	assert.Len(t, ps.slots, 0)
}

func TestVerifyAbsent_GenerationError(t *testing.T) {
	ps := &PasswordService{cost: bcrypt.MaxCost + 1, slots: make(chan struct{}, 1)}

	err := ps.VerifyAbsent(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dummy hash")
	assert.Len(t, ps.slots, 0)
}

func TestHash_ConcurrentCallersAllComplete(t *testing.T) {
	ps := &PasswordService{cost: 4, slots: make(chan struct{}, 2)}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ps.Hash(context.Background(), "Abc123!@")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Len(t, ps.slots, 0, "every slot must be released")
}
