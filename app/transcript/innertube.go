package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

const (
	playerEndpoint = "https://www.youtube.com/youtubei/v1/player"

	// The ANDROID client gets caption tracks without the web player's
	// signature dance.
	innertubeClientName    = "ANDROID"
	innertubeClientVersion = "20.10.38"
)

// InnertubeSource retrieves caption tracks through the public player
// endpoint and the timed-text URLs it hands out.
type InnertubeSource struct {
	client *http.Client

	mu       sync.Mutex
	lastID   string
	lastResp *playerResponse
}

func NewInnertubeSource(client *http.Client) *InnertubeSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &InnertubeSource{client: client}
}

type playerRequest struct {
	Context struct {
		Client struct {
			ClientName    string `json:"clientName"`
			ClientVersion string `json:"clientVersion"`
			HL            string `json:"hl"`
		} `json:"client"`
	} `json:"context"`
	VideoID string `json:"videoId"`
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions struct {
		Renderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
	Name         struct {
		SimpleText string `json:"simpleText"`
		Runs       []struct {
			Text string `json:"text"`
		} `json:"runs"`
	} `json:"name"`
}

func (t captionTrack) displayName() string {
	if t.Name.SimpleText != "" {
		return t.Name.SimpleText
	}
	var b strings.Builder
	for _, run := range t.Name.Runs {
		b.WriteString(run.Text)
	}
	return b.String()
}

// Fetch retrieves a transcript, picking the track by language
// preference. A nil languages slice selects the first manual track,
// falling back to the first generated one.
func (s *InnertubeSource) Fetch(ctx context.Context, videoID string, languages []string) (*Fetched, error) {
	tracks, err := s.captionTracks(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, &TerminalError{VideoID: videoID, Kind: KindDisabled}
	}

	var track *captionTrack
	if len(languages) == 0 {
		track = defaultTrack(tracks)
	} else {
		track = matchTrack(tracks, languages)
	}
	if track == nil {
		return nil, &TerminalError{VideoID: videoID, Kind: KindNotFound}
	}

	raw, err := s.get(ctx, track.BaseURL)
	if err != nil {
		if err == ErrAccessBlocked {
			return nil, err
		}
		return nil, &TerminalError{VideoID: videoID, Kind: KindUnretrievable}
	}
	return &Fetched{
		Language: track.LanguageCode,
		Snippets: ParseTimedTextXML(raw),
	}, nil
}

// Tracks lists the available caption tracks.
func (s *InnertubeSource) Tracks(ctx context.Context, videoID string) ([]Track, error) {
	tracks, err := s.captionTracks(ctx, videoID)
	if err != nil {
		return nil, err
	}
	out := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, Track{
			Language:  t.LanguageCode,
			Name:      t.displayName(),
			Generated: t.Kind == "asr",
			BaseURL:   t.BaseURL,
		})
	}
	return out, nil
}

// FetchTrack retrieves one track's payload in the given timed-text
// format.
func (s *InnertubeSource) FetchTrack(ctx context.Context, track Track, format string) (string, error) {
	sep := "&"
	if !strings.Contains(track.BaseURL, "?") {
		sep = "?"
	}
	return s.get(ctx, track.BaseURL+sep+"fmt="+format)
}

func (s *InnertubeSource) captionTracks(ctx context.Context, videoID string) ([]captionTrack, error) {
	resp, err := s.player(ctx, videoID)
	if err != nil {
		return nil, err
	}

	switch resp.PlayabilityStatus.Status {
	case "", "OK":
	case "LOGIN_REQUIRED":
		if strings.Contains(strings.ToLower(resp.PlayabilityStatus.Reason), "bot") {
			return nil, ErrAccessBlocked
		}
		return nil, &TerminalError{VideoID: videoID, Kind: KindUnretrievable}
	default:
		return nil, &TerminalError{VideoID: videoID, Kind: KindUnretrievable}
	}
	return resp.Captions.Renderer.CaptionTracks, nil
}

// player fetches and memoizes the player response. The resolution
// chain consults the same video several times in one pass, so the
// single-entry memo saves repeated endpoint hits.
func (s *InnertubeSource) player(ctx context.Context, videoID string) (*playerResponse, error) {
	s.mu.Lock()
	if s.lastID == videoID && s.lastResp != nil {
		resp := s.lastResp
		s.mu.Unlock()
		return resp, nil
	}
	s.mu.Unlock()

	var reqBody playerRequest
	reqBody.Context.Client.ClientName = innertubeClientName
	reqBody.Context.Client.ClientVersion = innertubeClientVersion
	reqBody.Context.Client.HL = "en"
	reqBody.VideoID = videoID

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, playerEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("player request for %s: %w", videoID, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("player response for %s: %w", videoID, err)
	}
	if blockedStatus(httpResp.StatusCode) || looksBlocked(body) {
		return nil, ErrAccessBlocked
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("player request for %s: status %d", videoID, httpResp.StatusCode)
	}

	var resp playerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("player response for %s: %w", videoID, err)
	}

	s.mu.Lock()
	s.lastID = videoID
	s.lastResp = &resp
	s.mu.Unlock()
	return &resp, nil
}

func (s *InnertubeSource) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if blockedStatus(resp.StatusCode) || looksBlocked(body) {
		return "", ErrAccessBlocked
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return string(body), nil
}

func blockedStatus(code int) bool {
	return code == http.StatusForbidden || code == http.StatusTooManyRequests
}

// looksBlocked detects the interstitial pages served to origins under
// an automated-traffic block.
func looksBlocked(body []byte) bool {
	lower := bytes.ToLower(body)
	return bytes.Contains(lower, []byte("class=\"g-recaptcha\"")) ||
		bytes.Contains(lower, []byte("our systems have detected unusual traffic"))
}

// defaultTrack prefers a manual track over a generated one.
func defaultTrack(tracks []captionTrack) *captionTrack {
	for i := range tracks {
		if tracks[i].Kind != "asr" {
			return &tracks[i]
		}
	}
	return &tracks[0]
}

// matchTrack picks the best track for the ordered language
// preferences, trying manual tracks before generated ones.
func matchTrack(tracks []captionTrack, prefs []string) *captionTrack {
	ordered := make([]*captionTrack, 0, len(tracks))
	for i := range tracks {
		if tracks[i].Kind != "asr" {
			ordered = append(ordered, &tracks[i])
		}
	}
	for i := range tracks {
		if tracks[i].Kind == "asr" {
			ordered = append(ordered, &tracks[i])
		}
	}

	tags := make([]language.Tag, 0, len(ordered))
	candidates := make([]*captionTrack, 0, len(ordered))
	for _, t := range ordered {
		tag, err := language.Parse(t.LanguageCode)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		candidates = append(candidates, t)
	}
	if len(tags) == 0 {
		return nil
	}

	matcher := language.NewMatcher(tags)
	for _, pref := range prefs {
		want, err := language.Parse(pref)
		if err != nil {
			continue
		}
		if _, i, conf := matcher.Match(want); conf >= language.High {
			return candidates[i]
		}
	}
	return nil
}
