// Package client is the typed HTTP client the pages use to reach the JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codeninja-coin/admin-service/internal/models"
)

// APIError is a non-2xx answer of the API
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the API
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Message returns the text to show for a failed call, or fallback when the
// API did not explain the failure
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" && apiErr.Status < http.StatusInternalServerError {
		return apiErr.Message
	}
	return fallback
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the API mounted at baseURL, e.g. http://localhost:8080/api
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// ===== STUDENTS =====

func (c *Client) ListStudents(ctx context.Context, token string) ([]*models.Student, error) {
	var students []*models.Student
	if err := c.do(ctx, token, http.MethodGet, "/students", nil, &students); err != nil {
		return nil, err
	}
	return students, nil
}

func (c *Client) CreateStudent(ctx context.Context, token string, req *models.StudentCreateRequest) (*models.Student, error) {
	var student models.Student
	if err := c.do(ctx, token, http.MethodPost, "/students", req, &student); err != nil {
		return nil, err
	}
	return &student, nil
}

func (c *Client) AddCoin(ctx context.Context, token, id string) (*models.Student, error) {
	var student models.Student
	if err := c.do(ctx, token, http.MethodPatch, "/students/"+url.PathEscape(id)+"/add-coin", nil, &student); err != nil {
		return nil, err
	}
	return &student, nil
}

// ===== REWARD ITEMS =====

func (c *Client) ListRewardItems(ctx context.Context, token string) ([]*models.RewardItem, error) {
	var items []*models.RewardItem
	if err := c.do(ctx, token, http.MethodGet, "/rewardItems", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) GetRewardItem(ctx context.Context, token, id string) (*models.RewardItem, error) {
	var item models.RewardItem
	if err := c.do(ctx, token, http.MethodGet, "/rewardItems/"+url.PathEscape(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) CreateRewardItem(ctx context.Context, token string, req *models.RewardItemCreateRequest) (*models.RewardItem, error) {
	var item models.RewardItem
	if err := c.do(ctx, token, http.MethodPost, "/rewardItems", req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) UpdateRewardItem(ctx context.Context, token, id string, req *models.RewardItemUpdateRequest) (*models.RewardItem, error) {
	var item models.RewardItem
	if err := c.do(ctx, token, http.MethodPatch, "/rewardItems/"+url.PathEscape(id), req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) DeleteRewardItem(ctx context.Context, token, id string) error {
	return c.do(ctx, token, http.MethodDelete, "/rewardItems/"+url.PathEscape(id), nil, nil)
}

// ===== DASHBOARD =====

func (c *Client) DashboardStats(ctx context.Context, token string) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	if err := c.do(ctx, token, http.MethodGet, "/dashboard/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// do issues one request. Non-2xx answers become *APIError carrying the
// API's {"error": ...} message.
func (c *Client) do(ctx context.Context, token, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var body struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.Message = body.Error
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
