package checkout

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"time"
)

// MaxClockSkew is the accepted |now - timestamp| window for webhook
// delivery, per spec §6.
const MaxClockSkew = 5 * time.Minute

// CanonicalWebhookPayload formats the string the webhook signature
// covers: intent_id + "|" + event + "|" + timestamp.
func CanonicalWebhookPayload(intentID, event string, timestamp int64) string {
	return fmt.Sprintf("%s|%s|%d", intentID, event, timestamp)
}

// SignWebhook computes the HMAC-SHA256 signature a real provider (or the
// mock one) would attach to a webhook delivery.
func SignWebhook(secret []byte, intentID, event string, timestamp int64) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(CanonicalWebhookPayload(intentID, event, timestamp)))

	return base64.URLEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyWebhook checks signature against the canonical payload under
// secret and timestamp against MaxClockSkew of now. It returns nil when
// both checks pass, ErrSkewTooLarge when the timestamp is the only thing
// wrong, and ErrInvalidSignature otherwise — distinct sentinels so the
// caller can tell a replayed-but-correctly-signed delivery from a forged
// one.
func VerifyWebhook(secret []byte, intentID, event, signature string, timestamp, now int64) error {
	expected := SignWebhook(secret, intentID, event, timestamp)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		return ErrInvalidSignature
	}

	skew := now - timestamp
	if skew < 0 {
		skew = -skew
	}

	if time.Duration(skew)*time.Second > MaxClockSkew {
		return ErrSkewTooLarge
	}

	return nil
}
