package stash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"funbatch/internal/services"
)

type fakeDoer struct {
	requests  []*http.Request
	responses []string
	status    int
	err       error
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	body := "{}"
	if len(f.responses) > 0 {
		body = f.responses[0]
		f.responses = f.responses[1:]
	}
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}, nil
}

func scenesResponse(count int, scenes ...Scene) string {
	payload := map[string]any{
		"data": map[string]any{
			"findScenes": map[string]any{
				"count":  count,
				"scenes": scenes,
			},
		},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatal("expected error for empty base URL")
	}
}

func TestFindSceneHitsGraphQLEndpoint(t *testing.T) {
	doer := &fakeDoer{responses: []string{scenesResponse(1, Scene{ID: "42", Path: "/media/a.mp4"})}}
	client, err := New("http://stash.local:9999/", WithHTTPClient(doer), WithAPIKey("key-1"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	scene, err := client.FindScene(context.Background(), 42)
	if err != nil {
		t.Fatalf("FindScene: %v", err)
	}
	if scene.ID != "42" || scene.Path != "/media/a.mp4" {
		t.Fatalf("unexpected scene: %+v", scene)
	}

	req := doer.requests[0]
	if req.URL.String() != "http://stash.local:9999/graphql" {
		t.Fatalf("unexpected URL: %s", req.URL)
	}
	if req.Header.Get("ApiKey") != "key-1" {
		t.Fatal("expected ApiKey header")
	}
}

func TestFindSceneNotFound(t *testing.T) {
	doer := &fakeDoer{responses: []string{scenesResponse(0)}}
	client, _ := New("http://stash.local", WithHTTPClient(doer))

	_, err := client.FindScene(context.Background(), 7)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAllScenesPages(t *testing.T) {
	doer := &fakeDoer{responses: []string{
		scenesResponse(3, Scene{ID: "1", Path: "/m/1.mp4"}, Scene{ID: "2", Path: "/m/2.mp4"}),
		scenesResponse(3, Scene{ID: "3", Path: "/m/3.mp4"}),
	}}
	client, _ := New("http://stash.local", WithHTTPClient(doer), WithPageSize(2))

	scenes, err := client.AllScenes(context.Background())
	if err != nil {
		t.Fatalf("AllScenes: %v", err)
	}
	if len(scenes) != 3 {
		t.Fatalf("expected 3 scenes, got %d", len(scenes))
	}
	if len(doer.requests) != 2 {
		t.Fatalf("expected 2 page requests, got %d", len(doer.requests))
	}
	for i, want := range []string{"1", "2", "3"} {
		if scenes[i].ID != want {
			t.Fatalf("expected scene %s at index %d, got %s", want, i, scenes[i].ID)
		}
	}
}

func TestAllScenesStopsOnEmptyPage(t *testing.T) {
	doer := &fakeDoer{responses: []string{
		scenesResponse(5, Scene{ID: "1", Path: "/m/1.mp4"}),
		scenesResponse(5),
	}}
	client, _ := New("http://stash.local", WithHTTPClient(doer), WithPageSize(1))

	scenes, err := client.AllScenes(context.Background())
	if err != nil {
		t.Fatalf("AllScenes: %v", err)
	}
	if len(scenes) != 1 {
		t.Fatalf("expected enumeration to stop on empty page, got %d scenes", len(scenes))
	}
}

func TestExecuteSurfacesGraphQLErrors(t *testing.T) {
	doer := &fakeDoer{responses: []string{`{"errors":[{"message":"access denied"}]}`}}
	client, _ := New("http://stash.local", WithHTTPClient(doer))

	_, err := client.AllScenes(context.Background())
	if err == nil || !strings.Contains(err.Error(), "access denied") {
		t.Fatalf("expected graphql error to surface, got %v", err)
	}
}

func TestExecuteSurfacesHTTPStatus(t *testing.T) {
	doer := &fakeDoer{status: http.StatusBadGateway}
	client, _ := New("http://stash.local", WithHTTPClient(doer))

	_, err := client.AllScenes(context.Background())
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestSessionCookieAttached(t *testing.T) {
	doer := &fakeDoer{responses: []string{scenesResponse(0)}}
	client, _ := New("http://stash.local", WithHTTPClient(doer), WithSessionCookie("session", "tok"))

	_, _ = client.AllScenes(context.Background())
	cookies := doer.requests[0].Cookies()
	if len(cookies) != 1 || cookies[0].Name != "session" || cookies[0].Value != "tok" {
		t.Fatalf("expected session cookie, got %v", cookies)
	}
}

func TestSidecarPath(t *testing.T) {
	scene := Scene{ID: "1", Path: "/media/clip.mp4"}
	if got := scene.SidecarPath(); got != "/media/clip.funscript" {
		t.Fatalf("unexpected sidecar path: %q", got)
	}
	if got := SidecarPathFor("/media/archive.part1.mkv"); got != "/media/archive.part1.funscript" {
		t.Fatalf("unexpected sidecar path: %q", got)
	}
}

func TestHasSidecar(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "clip.mp4")
	scene := Scene{ID: "1", Path: video}
	if scene.HasSidecar() {
		t.Fatal("no sidecar written yet")
	}
	if err := os.WriteFile(SidecarPathFor(video), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}
	if !scene.HasSidecar() {
		t.Fatal("expected sidecar to be detected")
	}
}

func TestHasSidecarIgnoresDirectories(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "clip.mp4")
	if err := os.Mkdir(SidecarPathFor(video), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	scene := Scene{ID: "1", Path: video}
	if scene.HasSidecar() {
		t.Fatal("a directory at the sidecar path is not a sidecar")
	}
}

func TestRequestBodyContainsSceneIDs(t *testing.T) {
	doer := &fakeDoer{responses: []string{scenesResponse(1, Scene{ID: "9", Path: "/m/9.mp4"})}}
	client, _ := New("http://stash.local", WithHTTPClient(doer))

	if _, err := client.FindScene(context.Background(), 9); err != nil {
		t.Fatalf("FindScene: %v", err)
	}
	raw, err := io.ReadAll(doer.requests[0].Body)
	if err != nil {
		t.Fatalf("read request body: %v", err)
	}
	if !strings.Contains(string(raw), fmt.Sprintf(`"scene_ids":[%d]`, 9)) {
		t.Fatalf("expected scene_ids in request body, got %s", raw)
	}
}
