package ingest_test

import (
	"context"
	"testing"
	"time"

	"github.com/pagesift/pagesift"
	"github.com/pagesift/pagesift/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noDelays keeps retry tests fast.
var noDelays = []time.Duration{0, 0, 0}

func TestFetchWithRetryDelays(t *testing.T) {
	t.Parallel()

	t.Run("returns first success", func(t *testing.T) {
		t.Parallel()

		calls := 0
		fetch := func(_ context.Context, _ string) (string, string, error) {
			calls++
			return "<html></html>", "text/html", nil
		}

		html, contentType, err := ingest.FetchWithRetryDelays(context.Background(), "https://example.com", fetch, nil, noDelays)
		require.NoError(t, err)
		assert.Equal(t, "<html></html>", html)
		assert.Equal(t, "text/html", contentType)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries transient failures", func(t *testing.T) {
		t.Parallel()

		calls := 0
		fetch := func(_ context.Context, _ string) (string, string, error) {
			calls++
			if calls < 3 {
				return "", "", pagesift.Errorf(pagesift.EUNAVAILABLE, "HTTP 503")
			}
			return "ok", "text/html", nil
		}

		html, _, err := ingest.FetchWithRetryDelays(context.Background(), "https://example.com", fetch, nil, noDelays)
		require.NoError(t, err)
		assert.Equal(t, "ok", html)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after all attempts", func(t *testing.T) {
		t.Parallel()

		calls := 0
		fetch := func(_ context.Context, _ string) (string, string, error) {
			calls++
			return "", "", pagesift.Errorf(pagesift.EUNAVAILABLE, "HTTP 503")
		}

		_, _, err := ingest.FetchWithRetryDelays(context.Background(), "https://example.com", fetch, nil, noDelays)
		require.Error(t, err)
		assert.Equal(t, 4, calls) // 1 initial + 3 retries
	})

	t.Run("does not retry invalid input", func(t *testing.T) {
		t.Parallel()

		calls := 0
		fetch := func(_ context.Context, _ string) (string, string, error) {
			calls++
			return "", "", pagesift.Errorf(pagesift.EINVALID, "response too large")
		}

		_, _, err := ingest.FetchWithRetryDelays(context.Background(), "https://example.com", fetch, nil, noDelays)
		require.Error(t, err)
		assert.Equal(t, pagesift.EINVALID, pagesift.ErrorCode(err))
		assert.Equal(t, 1, calls)
	})

	t.Run("honors context cancellation between attempts", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		fetch := func(_ context.Context, _ string) (string, string, error) {
			cancel()
			return "", "", pagesift.Errorf(pagesift.EUNAVAILABLE, "HTTP 503")
		}

		_, _, err := ingest.FetchWithRetryDelays(ctx, "https://example.com", fetch, nil, []time.Duration{time.Second})
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("logs retries", func(t *testing.T) {
		t.Parallel()

		var logged int
		logger := func(_ string, _ ...any) { logged++ }
		calls := 0
		fetch := func(_ context.Context, _ string) (string, string, error) {
			calls++
			if calls == 1 {
				return "", "", pagesift.Errorf(pagesift.EUNAVAILABLE, "HTTP 503")
			}
			return "ok", "", nil
		}

		_, _, err := ingest.FetchWithRetryDelays(context.Background(), "https://example.com", fetch, logger, noDelays)
		require.NoError(t, err)
		assert.Equal(t, 1, logged)
	})
}
