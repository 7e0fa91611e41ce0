package storage

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T, baseURL string) *CloudinaryStore {
	t.Helper()
	store, err := NewCloudinaryStore(CloudinaryOptions{
		CloudName: "demo",
		APIKey:    "key123",
		APISecret: "secret456",
		BaseURL:   baseURL,
	})
	if err != nil {
		t.Fatalf("NewCloudinaryStore: %v", err)
	}
	return store
}

func TestNewCloudinaryStoreRequiresCredentials(t *testing.T) {
	tests := []struct {
		name                      string
		cloudName, apiKey, secret string
	}{
		{"missing cloud name", "", "key", "secret"},
		{"missing api key", "demo", "", "secret"},
		{"missing secret", "demo", "key", ""},
		{"blank secret", "demo", "key", "   "},
		{"all missing", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCloudinaryStore(CloudinaryOptions{
				CloudName: tt.cloudName,
				APIKey:    tt.apiKey,
				APISecret: tt.secret,
			})
			if !errors.Is(err, ErrMissingCredentials) {
				t.Fatalf("err = %v, want ErrMissingCredentials", err)
			}
		})
	}
}

func TestCloudinaryUpload(t *testing.T) {
	localPath := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(localPath, []byte("fake video bytes"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	var gotForm map[string]string
	var gotFile []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/demo/video/upload" {
			t.Errorf("path = %q, want /demo/video/upload", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotForm = map[string]string{}
		for key, values := range r.MultipartForm.Value {
			gotForm[key] = values[0]
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		buf := make([]byte, 64)
		n, _ := file.Read(buf)
		gotFile = buf[:n]

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(UploadResult{
			PublicID:  "veo31-videos/clip",
			SecureURL: "https://res.cloudinary.com/demo/video/upload/veo31-videos/clip.mp4",
			Format:    "mp4",
			Bytes:     16,
		})
	}))
	defer srv.Close()

	store := newTestStore(t, srv.URL)
	result, err := store.Upload(context.Background(), localPath, "clip")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if result.PublicID != "veo31-videos/clip" {
		t.Errorf("PublicID = %q", result.PublicID)
	}
	if result.SecureURL == "" {
		t.Error("SecureURL is empty")
	}
	if string(gotFile) != "fake video bytes" {
		t.Errorf("uploaded file = %q, want fixture contents", gotFile)
	}

	for field, want := range map[string]string{
		"folder":     VideoFolder,
		"invalidate": "true",
		"overwrite":  "true",
		"public_id":  "clip",
		"api_key":    "key123",
	} {
		if gotForm[field] != want {
			t.Errorf("form[%q] = %q, want %q", field, gotForm[field], want)
		}
	}
	if gotForm["timestamp"] == "" {
		t.Error("form timestamp is empty")
	}

	// The signature must cover exactly the signed parameters, never api_key
	// or the file itself.
	want := signParams(map[string]string{
		"folder":     gotForm["folder"],
		"invalidate": gotForm["invalidate"],
		"overwrite":  gotForm["overwrite"],
		"public_id":  gotForm["public_id"],
		"timestamp":  gotForm["timestamp"],
	}, "secret456")
	if gotForm["signature"] != want {
		t.Errorf("signature = %q, want %q", gotForm["signature"], want)
	}
}

func TestCloudinaryUploadAPIError(t *testing.T) {
	localPath := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(localPath, []byte("x"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Invalid Signature"}}`))
	}))
	defer srv.Close()

	store := newTestStore(t, srv.URL)
	_, err := store.Upload(context.Background(), localPath, "clip")
	if err == nil {
		t.Fatal("Upload succeeded, want error")
	}
	if !strings.Contains(err.Error(), "Invalid Signature") {
		t.Errorf("err = %v, want the upstream message surfaced", err)
	}
}

func TestCloudinaryUploadRequiresPublicID(t *testing.T) {
	store := newTestStore(t, "http://unused.invalid")
	if _, err := store.Upload(context.Background(), "whatever.mp4", "  "); err == nil {
		t.Fatal("Upload accepted a blank public id")
	}
}

func TestCloudinarySearchPagination(t *testing.T) {
	var requests []searchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/demo/resources/search" {
			t.Errorf("path = %q, want /demo/resources/search", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "key123" || pass != "secret456" {
			t.Errorf("basic auth = %q/%q/%v", user, pass, ok)
		}
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode search request: %v", err)
		}
		requests = append(requests, req)

		w.Header().Set("Content-Type", "application/json")
		if req.NextCursor == "" {
			json.NewEncoder(w).Encode(searchResponse{
				TotalCount: 3,
				NextCursor: "cursor-1",
				Resources: []searchResource{
					{PublicID: "veo31-videos/veo31_video_a", SecureURL: "https://cdn/a.mp4", Format: "mp4"},
					{PublicID: "veo31-videos/veo31_video_b", SecureURL: "https://cdn/b.mp4", DisplayName: "My Clip"},
				},
			})
			return
		}
		json.NewEncoder(w).Encode(searchResponse{
			TotalCount: 3,
			Resources: []searchResource{
				{PublicID: "plain_c"},
			},
		})
	}))
	defer srv.Close()

	store := newTestStore(t, srv.URL)
	videos, err := store.Search(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(videos) != 3 {
		t.Fatalf("got %d videos, want 3", len(videos))
	}
	if len(requests) != 2 {
		t.Fatalf("made %d requests, want 2", len(requests))
	}
	if requests[0].Expression != "resource_type:video AND folder:veo31-videos" {
		t.Errorf("expression = %q", requests[0].Expression)
	}
	if requests[1].NextCursor != "cursor-1" {
		t.Errorf("second request cursor = %q, want cursor-1", requests[1].NextCursor)
	}

	if videos[0].Filename != "veo31_video_a" {
		t.Errorf("Filename = %q, want folder prefix stripped", videos[0].Filename)
	}
	if videos[0].DisplayName != "Veo31 Video A" {
		t.Errorf("DisplayName = %q, want humanized fallback", videos[0].DisplayName)
	}
	if videos[1].DisplayName != "My Clip" {
		t.Errorf("DisplayName = %q, want the store-provided name kept", videos[1].DisplayName)
	}
	if videos[2].Filename != "plain_c" {
		t.Errorf("Filename = %q, want unprefixed public id as-is", videos[2].Filename)
	}
	if videos[2].SecureURL != "https://res.cloudinary.com/demo/video/upload/plain_c" {
		t.Errorf("SecureURL = %q, want the derived delivery URL", videos[2].SecureURL)
	}
}

func TestCloudinarySearchStopsAtMaxResults(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req searchRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.MaxResults != 2 {
			t.Errorf("max_results = %d, want 2", req.MaxResults)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(searchResponse{
			NextCursor: "more",
			Resources: []searchResource{
				{PublicID: "a", SecureURL: "https://cdn/a.mp4"},
				{PublicID: "b", SecureURL: "https://cdn/b.mp4"},
			},
		})
	}))
	defer srv.Close()

	store := newTestStore(t, srv.URL)
	videos, err := store.Search(context.Background(), "other", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("got %d videos, want 2", len(videos))
	}
	if calls != 1 {
		t.Errorf("made %d requests, want 1 despite the pending cursor", calls)
	}
}

func TestCloudinarySearchAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Unsupported expression"}}`))
	}))
	defer srv.Close()

	store := newTestStore(t, srv.URL)
	if _, err := store.Search(context.Background(), "", 5); err == nil || !strings.Contains(err.Error(), "Unsupported expression") {
		t.Fatalf("err = %v, want the upstream message surfaced", err)
	}
}

func TestVideoURL(t *testing.T) {
	store := newTestStore(t, "")
	got := store.VideoURL("veo31-videos/clip")
	want := "https://res.cloudinary.com/demo/video/upload/veo31-videos/clip"
	if got != want {
		t.Errorf("VideoURL = %q, want %q", got, want)
	}
}

func TestSignParams(t *testing.T) {
	got := signParams(map[string]string{"b": "2", "a": "1"}, "topsecret")

	sum := sha1.Sum([]byte("a=1&b=2topsecret"))
	if want := hex.EncodeToString(sum[:]); got != want {
		t.Errorf("signParams = %q, want %q", got, want)
	}
}

func TestHumanizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"veo31_video_20240115_103000.mp4", "Veo31 Video 20240115 103000"},
		{"clip.mp4", "Clip"},
		{"already titled", "Already Titled"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := humanizeFilename(tt.in); got != tt.want {
			t.Errorf("humanizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
