// Package resolve turns search queries and radio seeds into playable
// tracks via the YouTube Data API.
package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/sosodev/duration"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/dkeye/Maestro/internal/domain"
)

const videoType = "video"

type YouTube struct {
	svc   *youtube.Service
	limit int64
}

func NewYouTube(apiKey string, limit int64) (*YouTube, error) {
	if limit <= 0 {
		limit = 5
	}
	svc, err := youtube.NewService(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}
	return &YouTube{svc: svc, limit: limit}, nil
}

func (y *YouTube) Search(ctx context.Context, query string) ([]domain.Track, error) {
	call := y.svc.Search.List([]string{"id", "snippet"}).
		Q(query).
		Type(videoType).
		MaxResults(y.limit).
		Context(ctx)
	resp, err := call.Do()
	if err != nil {
		return nil, err
	}
	return y.toTracks(ctx, resp.Items)
}

// Related seeds radio mode: search on the seed video's title so the queue
// extends with similar material.
func (y *YouTube) Related(ctx context.Context, videoID string) ([]domain.Track, error) {
	vresp, err := y.svc.Videos.List([]string{"snippet"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	if len(vresp.Items) == 0 {
		return nil, nil
	}
	tracks, err := y.Search(ctx, vresp.Items[0].Snippet.Title)
	if err != nil {
		return nil, err
	}
	// The seed itself usually comes back first; drop it.
	out := tracks[:0]
	for _, t := range tracks {
		if t.VideoID != videoID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (y *YouTube) toTracks(ctx context.Context, items []*youtube.SearchResult) ([]domain.Track, error) {
	if len(items) == 0 {
		return nil, nil
	}

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.Id.VideoId
	}

	// One batched contentDetails call for all durations.
	vcall := y.svc.Videos.List([]string{"contentDetails"}).Id(strings.Join(ids, ",")).Context(ctx)
	vresp, err := vcall.Do()
	if err != nil {
		return nil, err
	}
	durations := make(map[string]int64, len(vresp.Items))
	for _, item := range vresp.Items {
		d, err := duration.Parse(item.ContentDetails.Duration)
		if err != nil {
			continue
		}
		durations[item.Id] = seconds(d)
	}

	tracks := make([]domain.Track, 0, len(items))
	for _, item := range items {
		thumb := ""
		if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.Medium != nil {
			thumb = item.Snippet.Thumbnails.Medium.Url
		}
		tracks = append(tracks, domain.Track{
			VideoID:   item.Id.VideoId,
			Title:     item.Snippet.Title,
			URL:       fmt.Sprintf("https://www.youtube.com/watch?v=%s", item.Id.VideoId),
			Uploader:  item.Snippet.ChannelTitle,
			Duration:  durations[item.Id.VideoId],
			Thumbnail: thumb,
		})
	}
	return tracks, nil
}

func seconds(d *duration.Duration) int64 {
	return int64(d.Seconds) + int64(d.Minutes)*60 + int64(d.Hours)*3600
}
