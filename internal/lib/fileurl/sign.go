// Package fileurl provides HMAC-signed URL generation and verification for media downloads.
// Links handed to the language model expire after a TTL so stored conversation
// history never keeps a permanently valid download URL.
package fileurl

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// SignURL returns an absolute URL under baseURL with HMAC signature and expiry query parameters.
// The signature covers "{fileID}:{expiresUnix}" using HMAC-SHA256.
func SignURL(baseURL, fileID, secret string, ttl time.Duration) string {
	return signAt(baseURL, fileID, secret, time.Now().Add(ttl))
}

func signAt(baseURL, fileID, secret string, expiresAt time.Time) string {
	expires := expiresAt.Unix()
	sig := computeHMAC(fileID, expires, secret)
	return fmt.Sprintf("%s/media/%s?expires=%d&sig=%s", strings.TrimRight(baseURL, "/"), fileID, expires, sig)
}

// Verify checks that the HMAC signature is valid and the URL has not expired.
func Verify(fileID, expires, sig, secret string) bool {
	exp, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return false
	}
	if time.Now().Unix() > exp {
		return false
	}
	expected := computeHMAC(fileID, exp, secret)
	return hmac.Equal([]byte(sig), []byte(expected))
}

// Expired reports whether link is a signed media URL whose expiry is at or
// before at. Unsigned links such as data: URLs never expire.
func Expired(link string, at time.Time) bool {
	u, err := url.Parse(link)
	if err != nil || !strings.Contains(u.Path, "/media/") {
		return false
	}
	q := u.Query()
	if q.Get("sig") == "" {
		return false
	}
	exp, err := strconv.ParseInt(q.Get("expires"), 10, 64)
	if err != nil {
		return true
	}
	return at.Unix() >= exp
}

func computeHMAC(fileID string, expires int64, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%s:%d", fileID, expires)))
	return hex.EncodeToString(mac.Sum(nil))
}
