package storage

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/VinilJoseph/VIDEO-GEN/internal/domain"
	"github.com/VinilJoseph/VIDEO-GEN/internal/infra"
)

// VideoFolder is the remote folder that keeps generated videos together.
const VideoFolder = "veo31-videos"

// ErrMissingCredentials indicates the store was configured without the full
// Cloudinary credential set.
var ErrMissingCredentials = errors.New("storage: cloudinary credentials are required")

// CloudinaryOptions configures the Cloudinary media store client.
type CloudinaryOptions struct {
	CloudName      string
	APIKey         string
	APISecret      string
	BaseURL        string
	DeliveryURL    string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// CloudinaryStore performs HTTP calls against the Cloudinary upload and
// search APIs. Requests are signed with the account secret; the official
// SDK is not used.
type CloudinaryStore struct {
	cloudName   string
	apiKey      string
	apiSecret   string
	baseURL     string
	deliveryURL string
	httpClient  *http.Client
	logger      *infra.Logger
}

// UploadResult is the normalized answer from a successful video upload.
type UploadResult struct {
	PublicID  string  `json:"public_id"`
	SecureURL string  `json:"secure_url"`
	URL       string  `json:"url"`
	Format    string  `json:"format"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Bytes     int64   `json:"bytes"`
	Duration  float64 `json:"duration"`
	CreatedAt string  `json:"created_at"`
}

type searchRequest struct {
	Expression string `json:"expression"`
	MaxResults int    `json:"max_results"`
	NextCursor string `json:"next_cursor,omitempty"`
}

type searchResponse struct {
	TotalCount int              `json:"total_count"`
	NextCursor string           `json:"next_cursor"`
	Resources  []searchResource `json:"resources"`
}

type searchResource struct {
	PublicID    string  `json:"public_id"`
	SecureURL   string  `json:"secure_url"`
	Format      string  `json:"format"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Bytes       int64   `json:"bytes"`
	CreatedAt   string  `json:"created_at"`
	Duration    float64 `json:"duration"`
	DisplayName string  `json:"display_name"`
}

type cloudinaryErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewCloudinaryStore constructs a store with sane defaults. All three
// credentials are required; callers that tolerate a missing store should
// check for ErrMissingCredentials and degrade.
func NewCloudinaryStore(opts CloudinaryOptions) (*CloudinaryStore, error) {
	cloudName := strings.TrimSpace(opts.CloudName)
	apiKey := strings.TrimSpace(opts.APIKey)
	apiSecret := strings.TrimSpace(opts.APISecret)
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, ErrMissingCredentials
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 2 * time.Minute
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.cloudinary.com/v1_1"
	}
	deliveryURL := strings.TrimRight(opts.DeliveryURL, "/")
	if deliveryURL == "" {
		deliveryURL = "https://res.cloudinary.com"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &CloudinaryStore{
		cloudName:   cloudName,
		apiKey:      apiKey,
		apiSecret:   apiSecret,
		baseURL:     baseURL,
		deliveryURL: deliveryURL,
		httpClient:  httpClient,
		logger:      logger,
	}, nil
}

// Upload pushes a local video file into VideoFolder under the given bare
// public id (no folder prefix, no extension) and invalidates any cached copy.
func (c *CloudinaryStore) Upload(ctx context.Context, localPath, publicID string) (*UploadResult, error) {
	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		return nil, errors.New("storage: public id is required")
	}
	file, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("storage: open video: %w", err)
	}
	defer file.Close()

	params := map[string]string{
		"folder":     VideoFolder,
		"invalidate": "true",
		"overwrite":  "true",
		"public_id":  publicID,
		"timestamp":  strconv.FormatInt(time.Now().Unix(), 10),
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range params {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("storage: encode form field: %w", err)
		}
	}
	if err := writer.WriteField("api_key", c.apiKey); err != nil {
		return nil, fmt.Errorf("storage: encode form field: %w", err)
	}
	if err := writer.WriteField("signature", signParams(params, c.apiSecret)); err != nil {
		return nil, fmt.Errorf("storage: encode form field: %w", err)
	}
	part, err := writer.CreateFormFile("file", filepath.Base(localPath))
	if err != nil {
		return nil, fmt.Errorf("storage: encode form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("storage: read video: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("storage: finalize form: %w", err)
	}

	endpoint := c.baseURL + "/" + c.cloudName + "/video/upload"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("storage: build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("storage: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, cloudinaryError(resp.StatusCode, raw)
	}

	var result UploadResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("storage: decode response: %w", err)
	}
	if result.SecureURL == "" {
		return nil, errors.New("storage: upload response missing secure url")
	}
	c.logger.Debug().
		Str("public_id", result.PublicID).
		Int64("bytes", result.Bytes).
		Msg("storage: uploaded video")
	return &result, nil
}

// Search lists video resources in the given folder, following result pages
// until maxResults entries are collected or the store runs out. An empty
// folder falls back to VideoFolder; a non-positive maxResults means 500.
func (c *CloudinaryStore) Search(ctx context.Context, folder string, maxResults int) ([]domain.StoredVideo, error) {
	folder = strings.TrimSpace(folder)
	if folder == "" {
		folder = VideoFolder
	}
	if maxResults <= 0 {
		maxResults = 500
	}

	endpoint := c.baseURL + "/" + c.cloudName + "/resources/search"
	videos := make([]domain.StoredVideo, 0, maxResults)
	cursor := ""
	for len(videos) < maxResults {
		pageSize := maxResults - len(videos)
		if pageSize > 500 {
			pageSize = 500
		}
		payload, err := json.Marshal(searchRequest{
			Expression: fmt.Sprintf("resource_type:video AND folder:%s", folder),
			MaxResults: pageSize,
			NextCursor: cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("storage: encode request: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("storage: build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.SetBasicAuth(c.apiKey, c.apiSecret)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("storage: http request: %w", err)
		}
		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("storage: read response: %w", err)
		}
		if resp.StatusCode >= 300 {
			return nil, cloudinaryError(resp.StatusCode, raw)
		}

		var page searchResponse
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, fmt.Errorf("storage: decode response: %w", err)
		}
		for _, resource := range page.Resources {
			video := mapResource(resource)
			if video.SecureURL == "" {
				video.SecureURL = c.VideoURL(video.PublicID)
			}
			videos = append(videos, video)
		}
		if page.NextCursor == "" || len(page.Resources) == 0 {
			break
		}
		cursor = page.NextCursor
	}

	c.logger.Debug().
		Str("folder", folder).
		Int("count", len(videos)).
		Msg("storage: listed videos")
	return videos, nil
}

// VideoURL builds the CDN delivery URL for an uploaded video.
func (c *CloudinaryStore) VideoURL(publicID string) string {
	return c.deliveryURL + "/" + c.cloudName + "/video/upload/" + strings.TrimLeft(publicID, "/")
}

func mapResource(resource searchResource) domain.StoredVideo {
	filename := resource.PublicID
	if idx := strings.LastIndex(filename, "/"); idx >= 0 {
		filename = filename[idx+1:]
	}
	displayName := strings.TrimSpace(resource.DisplayName)
	if displayName == "" {
		displayName = humanizeFilename(filename)
	}
	return domain.StoredVideo{
		PublicID:    resource.PublicID,
		SecureURL:   resource.SecureURL,
		Format:      resource.Format,
		Width:       resource.Width,
		Height:      resource.Height,
		Bytes:       resource.Bytes,
		CreatedAt:   resource.CreatedAt,
		Duration:    resource.Duration,
		Filename:    filename,
		DisplayName: displayName,
	}
}

// humanizeFilename turns a stored filename into a presentable title, e.g.
// "veo31_video_20240115.mp4" becomes "Veo31 Video 20240115".
func humanizeFilename(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	words := strings.ReplaceAll(base, "_", " ")
	return cases.Title(language.Und).String(strings.TrimSpace(words))
}

// signParams computes the Cloudinary API signature: the sorted key=value
// pairs joined by "&", followed by the secret, hashed with SHA-1.
func signParams(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params[key])
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}

func cloudinaryError(status int, raw []byte) error {
	var detail cloudinaryErrorResponse
	if err := json.Unmarshal(raw, &detail); err == nil && detail.Error.Message != "" {
		return fmt.Errorf("storage: cloudinary: %s", detail.Error.Message)
	}
	return fmt.Errorf("storage: cloudinary status %d: %s", status, strings.TrimSpace(string(raw)))
}
