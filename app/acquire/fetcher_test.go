package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/djinoz/yt-subs-transcripts-summarizer/app/ytapi"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func cannedResponse(status int, contentType, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{"Content-Type": []string{contentType}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

const subscriptionsBody = `{
	"items": [
		{"snippet": {"title": "Chan One", "resourceId": {"channelId": "ch1"}}},
		{"snippet": {"title": "Chan Two", "resourceId": {"channelId": "ch2"}}}
	]
}`

const quotaExceededBody = `{
	"error": {
		"code": 403,
		"message": "quota exceeded",
		"errors": [{"domain": "usageLimits", "reason": "quotaExceeded", "message": "quota exceeded"}]
	}
}`

func uploadsFeed(channelID, videoID, title string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Uploads for %s</title>
  <entry>
    <id>yt:video:%s</id>
    <title>%s</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=%s"/>
    <published>2026-08-20T00:00:00+00:00</published>
  </entry>
</feed>`, channelID, videoID, title, videoID)
}

// The Data API fake serves the subscription sample, then reports quota
// exhaustion on the very first channel search.
func quotaTrippingService(t *testing.T) *youtube.Service {
	t.Helper()
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		switch {
		case strings.Contains(r.URL.Path, "subscriptions"):
			return cannedResponse(200, "application/json", subscriptionsBody), nil
		case strings.Contains(r.URL.Path, "search"):
			return cannedResponse(403, "application/json", quotaExceededBody), nil
		default:
			t.Errorf("Unexpected API call: %s", r.URL.Path)
			return cannedResponse(404, "application/json", "{}"), nil
		}
	})
	svc, err := youtube.NewService(context.Background(), option.WithHTTPClient(&http.Client{Transport: transport}))
	if err != nil {
		t.Fatalf("Expected service construction to succeed, got %v", err)
	}
	return svc
}

func uploadsFeedClient() *http.Client {
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		switch r.URL.Query().Get("channel_id") {
		case "ch1":
			return cannedResponse(200, "application/atom+xml", uploadsFeed("ch1", "aaaaaaaaaaa", "Video A")), nil
		case "ch2":
			return cannedResponse(200, "application/atom+xml", uploadsFeed("ch2", "bbbbbbbbbbb", "Video B")), nil
		default:
			return cannedResponse(404, "text/plain", "no such feed"), nil
		}
	})
	return &http.Client{Transport: transport}
}

func TestEfficient_DrainCoversChannelWhoseSearchTripped(t *testing.T) {
	ex := ytapi.NewExecutor(ytapi.NewQuotaLatch())
	f := NewFetcher(quotaTrippingService(t), ex, NewFeedDrainer(uploadsFeedClient()))

	videos, err := f.Efficient(30, 0)
	if err != nil {
		t.Fatalf("Expected partial results, got %v", err)
	}
	if !ex.Latch().Tripped() {
		t.Fatal("Expected quota latch tripped by the first search")
	}

	got := make(map[string]bool, len(videos))
	for _, v := range videos {
		got[v.ID] = true
	}
	// The channel whose own search was abandoned must be drained too.
	if !got["aaaaaaaaaaa"] {
		t.Errorf("Expected the tripped channel drained via its uploads feed, got %v", videos)
	}
	if !got["bbbbbbbbbbb"] {
		t.Errorf("Expected the unsearched channel drained, got %v", videos)
	}
	if len(videos) != 2 {
		t.Errorf("Expected 2 drained videos, got %d", len(videos))
	}
}
