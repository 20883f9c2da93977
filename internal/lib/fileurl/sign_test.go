package fileurl

import (
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	link := SignURL("https://example.com/", "abc", "secret", time.Minute)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/media/abc", u.Path)

	q := u.Query()
	assert.True(t, Verify("abc", q.Get("expires"), q.Get("sig"), "secret"))
	assert.False(t, Verify("abd", q.Get("expires"), q.Get("sig"), "secret"))
	assert.False(t, Verify("abc", q.Get("expires"), q.Get("sig"), "other"))
	assert.False(t, Verify("abc", "not-a-number", q.Get("sig"), "secret"))
}

func TestVerify_Expired(t *testing.T) {
	link := signAt("https://example.com", "abc", "secret", time.Now().Add(-time.Second))
	u, err := url.Parse(link)
	require.NoError(t, err)

	q := u.Query()
	_, err = strconv.ParseInt(q.Get("expires"), 10, 64)
	require.NoError(t, err)
	assert.False(t, Verify("abc", q.Get("expires"), q.Get("sig"), "secret"))
}

func TestExpired(t *testing.T) {
	now := time.Now()
	link := signAt("https://example.com", "abc", "secret", now.Add(time.Minute))

	assert.False(t, Expired(link, now))
	assert.True(t, Expired(link, now.Add(time.Minute)))
	assert.True(t, Expired(link, now.Add(time.Hour)))
	assert.False(t, Expired("data:image/png;base64,AAAA", now.Add(time.Hour)))
	assert.False(t, Expired("https://img.example.com/cat.png", now.Add(time.Hour)))
	assert.True(t, Expired("https://example.com/media/abc?expires=x&sig=y", now))
}
