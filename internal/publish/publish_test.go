package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pressleaf/internal/compose"
	"pressleaf/internal/news"
	"pressleaf/internal/store"
	"pressleaf/internal/telegram"
)

type fakeTransport struct {
	messageCalls int
	photoCalls   int
	errs         []error // consumed per call before succeeding
	nextID       int
	lastText     string
	lastCaption  string
}

func (f *fakeTransport) send() (int, error) {
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return 0, err
	}
	f.nextID++
	return f.nextID, nil
}

func (f *fakeTransport) SendMessage(ctx context.Context, text string) (int, error) {
	f.messageCalls++
	f.lastText = text
	return f.send()
}

func (f *fakeTransport) SendPhoto(ctx context.Context, photoURL, caption string) (int, error) {
	f.photoCalls++
	f.lastCaption = caption
	return f.send()
}

type recordingStore struct {
	records  []store.PublicationRecord
	failWith error
}

func (r *recordingStore) Exists(fingerprint string) (bool, error) { return false, nil }

func (r *recordingStore) RecordSuccess(rec store.PublicationRecord) error {
	if r.failWith != nil {
		return r.failWith
	}
	r.records = append(r.records, rec)
	return nil
}

func (r *recordingStore) Close() error { return nil }

func newTestPublisher(tr Transport, st store.Store) *Publisher {
	return New(tr, st, 3, time.Millisecond, time.Millisecond)
}

func testArticle() news.EnrichedArticle {
	return news.EnrichedArticle{
		Article: news.Article{
			Title:       "AI chip unveiled",
			Link:        "https://tc.example/chip",
			SourceLabel: "TechCrunch",
			PublishedAt: time.Now(),
		},
	}
}

func transientErr() error {
	return fmt.Errorf("%w: status 503", telegram.ErrTransient)
}

func TestPublishSuccessRecordsFingerprint(t *testing.T) {
	tr := &fakeTransport{}
	st := &recordingStore{}

	rec, err := newTestPublisher(tr, st).Publish(context.Background(), testArticle(), compose.Message{Body: "hello"})
	require.NoError(t, err)

	assert.Equal(t, store.StatusSuccess, rec.Status)
	assert.Equal(t, 1, rec.DestinationMessageID)
	require.Len(t, st.records, 1)
	assert.Equal(t, testArticle().Fingerprint(), st.records[0].Fingerprint)
}

func TestPublishRetriesTransientThenSucceeds(t *testing.T) {
	tr := &fakeTransport{errs: []error{transientErr(), transientErr()}}
	st := &recordingStore{}

	rec, err := newTestPublisher(tr, st).Publish(context.Background(), testArticle(), compose.Message{Body: "hello"})
	require.NoError(t, err)

	assert.Equal(t, store.StatusSuccess, rec.Status)
	assert.Equal(t, 3, tr.messageCalls)
	assert.Len(t, st.records, 1)
}

func TestPublishPermanentFailureNoRetryNoStoreWrite(t *testing.T) {
	tr := &fakeTransport{errs: []error{errors.New("chat not found")}}
	st := &recordingStore{}

	rec, err := newTestPublisher(tr, st).Publish(context.Background(), testArticle(), compose.Message{Body: "hello"})
	require.Error(t, err)

	assert.Equal(t, store.StatusFailedPermanently, rec.Status)
	assert.Equal(t, 1, tr.messageCalls)
	assert.Empty(t, st.records)
}

func TestPublishExhaustedRetriesNoStoreWrite(t *testing.T) {
	tr := &fakeTransport{errs: []error{transientErr(), transientErr(), transientErr()}}
	st := &recordingStore{}

	rec, err := newTestPublisher(tr, st).Publish(context.Background(), testArticle(), compose.Message{Body: "hello"})
	require.Error(t, err)

	assert.Equal(t, store.StatusFailedPermanently, rec.Status)
	assert.Equal(t, 3, tr.messageCalls)
	assert.Empty(t, st.records)
}

func TestPublishUsesPhotoWhenImageFits(t *testing.T) {
	tr := &fakeTransport{}
	st := &recordingStore{}

	msg := compose.Message{Body: "short body", ImageURL: "https://tc.example/chip.jpg"}
	_, err := newTestPublisher(tr, st).Publish(context.Background(), testArticle(), msg)
	require.NoError(t, err)

	assert.Equal(t, 1, tr.photoCalls)
	assert.Zero(t, tr.messageCalls)
	assert.Equal(t, "short body", tr.lastCaption)
}

func TestPublishDropsImageWhenCaptionTooLong(t *testing.T) {
	tr := &fakeTransport{}
	st := &recordingStore{}

	msg := compose.Message{
		Body:     strings.Repeat("x", maxCaptionLen+1),
		ImageURL: "https://tc.example/chip.jpg",
	}
	_, err := newTestPublisher(tr, st).Publish(context.Background(), testArticle(), msg)
	require.NoError(t, err)

	assert.Zero(t, tr.photoCalls)
	assert.Equal(t, 1, tr.messageCalls)
}

func TestPublishTruncatesOversizedText(t *testing.T) {
	tr := &fakeTransport{}
	st := &recordingStore{}

	msg := compose.Message{Body: strings.Repeat("y", maxTextLen+500)}
	_, err := newTestPublisher(tr, st).Publish(context.Background(), testArticle(), msg)
	require.NoError(t, err)

	assert.Len(t, []rune(tr.lastText), maxTextLen)
	assert.True(t, strings.HasSuffix(tr.lastText, "..."))
}

// A publisher misconfigured with zero retry attempts must still call the
// transport; a fingerprint must never be recorded without a send.
func TestPublishZeroAttemptsStillSends(t *testing.T) {
	tr := &fakeTransport{}
	st := &recordingStore{}
	p := New(tr, st, 0, time.Millisecond, time.Millisecond)

	rec, err := p.Publish(context.Background(), testArticle(), compose.Message{Body: "hello"})
	require.NoError(t, err)

	assert.Equal(t, 1, tr.messageCalls)
	assert.Equal(t, store.StatusSuccess, rec.Status)
	require.Len(t, st.records, 1)
}

func TestPublishStoreWriteFailureSurfaces(t *testing.T) {
	tr := &fakeTransport{}
	st := &recordingStore{failWith: store.ErrUnavailable}

	rec, err := newTestPublisher(tr, st).Publish(context.Background(), testArticle(), compose.Message{Body: "hello"})
	require.Error(t, err)

	assert.True(t, errors.Is(err, store.ErrUnavailable))
	assert.Equal(t, store.StatusSuccess, rec.Status)
}
