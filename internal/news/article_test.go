package news

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintStableAcrossLinkVariants(t *testing.T) {
	base := Article{Link: "https://example.com/story/1"}
	variants := []Article{
		{Link: "https://EXAMPLE.com/story/1"},
		{Link: "https://www.example.com/story/1"},
		{Link: "https://example.com/story/1/"},
	}

	for _, v := range variants {
		assert.Equal(t, base.Fingerprint(), v.Fingerprint(), "link %q", v.Link)
	}
}

func TestFingerprintDiffersForDifferentLinks(t *testing.T) {
	a := Article{Link: "https://example.com/story/1"}
	b := Article{Link: "https://example.com/story/2"}
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestFingerprintFallbackWithoutLink(t *testing.T) {
	at := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	a := Article{Title: "Same Title", PublishedAt: at}
	b := Article{Title: "same title ", PublishedAt: at}
	c := Article{Title: "Same Title", PublishedAt: at.Add(time.Minute)}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestFingerprintLength(t *testing.T) {
	a := Article{Link: "https://example.com/story/1"}
	assert.Len(t, a.Fingerprint(), 16)
}
