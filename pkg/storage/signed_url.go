package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTokenMalformed = errors.New("malformed download token")
	ErrTokenSignature = errors.New("invalid download token signature")
	ErrTokenExpired   = errors.New("download token expired")
)

// DownloadGrant is the content of a signed download token.
type DownloadGrant struct {
	JobID     string
	ObjectKey string
	ExpiresAt time.Time
}

// SignedURLSigner issues HMAC-SHA256 download tokens of the form
// jobID.expiry.base64(key).signature.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer; a non-positive ttl means 24h.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token granting access to objectKey for the export job.
func (s *SignedURLSigner) Sign(jobID, objectKey string) (string, DownloadGrant, error) {
	if jobID == "" || objectKey == "" {
		return "", DownloadGrant{}, errors.New("job id and object key are required")
	}
	if strings.Contains(jobID, ".") {
		return "", DownloadGrant{}, fmt.Errorf("job id %q must not contain dots", jobID)
	}
	if len(s.secret) == 0 {
		return "", DownloadGrant{}, errors.New("signing secret missing")
	}
	grant := DownloadGrant{JobID: jobID, ObjectKey: objectKey, ExpiresAt: s.now().Add(s.ttl).Truncate(time.Second)}
	expiry := strconv.FormatInt(grant.ExpiresAt.Unix(), 10)
	encodedKey := base64.RawURLEncoding.EncodeToString([]byte(objectKey))
	token := strings.Join([]string{jobID, expiry, encodedKey, s.signature(jobID, expiry, encodedKey)}, ".")
	return token, grant, nil
}

// Verify checks the signature and expiry of token.
func (s *SignedURLSigner) Verify(token string) (DownloadGrant, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return DownloadGrant{}, ErrTokenMalformed
	}
	jobID, expiry, encodedKey, signature := parts[0], parts[1], parts[2], parts[3]

	if !hmac.Equal([]byte(s.signature(jobID, expiry, encodedKey)), []byte(signature)) {
		return DownloadGrant{}, ErrTokenSignature
	}
	unix, err := strconv.ParseInt(expiry, 10, 64)
	if err != nil {
		return DownloadGrant{}, ErrTokenMalformed
	}
	key, err := base64.RawURLEncoding.DecodeString(encodedKey)
	if err != nil {
		return DownloadGrant{}, ErrTokenMalformed
	}
	grant := DownloadGrant{JobID: jobID, ObjectKey: string(key), ExpiresAt: time.Unix(unix, 0)}
	if s.now().After(grant.ExpiresAt) {
		return DownloadGrant{}, ErrTokenExpired
	}
	return grant, nil
}

func (s *SignedURLSigner) signature(jobID, expiry, encodedKey string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(jobID + "|" + expiry + "|" + encodedKey))
	return hex.EncodeToString(mac.Sum(nil))
}
