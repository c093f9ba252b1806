package checkout

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestVerifyWebhookRoundTrip is responsible to test that a signature
// produced by SignWebhook verifies under the same secret and payload
func TestVerifyWebhookRoundTrip(t *testing.T) {
	secret := []byte("shh")
	now := time.Now().Unix()

	sig := SignWebhook(secret, "intent-1", "payment.paid", now)

	assert.NoError(t, VerifyWebhook(secret, "intent-1", "payment.paid", sig, now, now))
}

// TestVerifyWebhookRejectsWrongSecret is responsible to test that a
// signature produced with a different secret does not verify
func TestVerifyWebhookRejectsWrongSecret(t *testing.T) {
	now := time.Now().Unix()

	sig := SignWebhook([]byte("secret-a"), "intent-1", "payment.paid", now)

	err := VerifyWebhook([]byte("secret-b"), "intent-1", "payment.paid", sig, now, now)
	assert.True(t, errors.Is(err, ErrInvalidSignature))
}

// TestVerifyWebhookRejectsTamperedPayload is responsible to test that
// changing any field of the canonical payload invalidates the signature
func TestVerifyWebhookRejectsTamperedPayload(t *testing.T) {
	secret := []byte("shh")
	now := time.Now().Unix()

	sig := SignWebhook(secret, "intent-1", "payment.paid", now)

	assert.True(t, errors.Is(VerifyWebhook(secret, "intent-2", "payment.paid", sig, now, now), ErrInvalidSignature))
	assert.True(t, errors.Is(VerifyWebhook(secret, "intent-1", "payment.failed", sig, now, now), ErrInvalidSignature))
}

// TestVerifyWebhookRejectsExpiredTimestamp is responsible to test that a
// timestamp outside MaxClockSkew of now is rejected, as a distinct
// sentinel, even though the signature itself is valid
func TestVerifyWebhookRejectsExpiredTimestamp(t *testing.T) {
	secret := []byte("shh")
	old := time.Now().Add(-10 * time.Minute).Unix()
	now := time.Now().Unix()

	sig := SignWebhook(secret, "intent-1", "payment.paid", old)

	err := VerifyWebhook(secret, "intent-1", "payment.paid", sig, old, now)
	assert.True(t, errors.Is(err, ErrSkewTooLarge))
	assert.False(t, errors.Is(err, ErrInvalidSignature))
}

// TestVerifyWebhookAcceptsWithinSkewWindow is responsible to test that a
// timestamp just inside MaxClockSkew still verifies
func TestVerifyWebhookAcceptsWithinSkewWindow(t *testing.T) {
	secret := []byte("shh")
	now := time.Now().Unix()
	skewed := now - int64(MaxClockSkew.Seconds()) + 5

	sig := SignWebhook(secret, "intent-1", "payment.paid", skewed)

	assert.NoError(t, VerifyWebhook(secret, "intent-1", "payment.paid", sig, skewed, now))
}
