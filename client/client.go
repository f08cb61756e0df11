// Package client talks to the notepin HTTP API and its live query socket.
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
	"strconv"
	"strings"
	"time"

	"notepin/notepin/models"
)

var ErrNotFound = errors.New("note not found")

// APIError is a non-404 error response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 400 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		return &APIError{Status: resp.StatusCode, Message: payload.Error}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func notePath(id string, suffix ...string) string {
	path := "/api/v1/notes/" + url.PathEscape(id)
	for _, s := range suffix {
		path += "/" + s
	}
	return path
}

// ListNotes returns active notes matching search, newest first.
func (c *Client) ListNotes(ctx context.Context, search string, pinnedOnly bool) ([]models.Note, error) {
	query := url.Values{}
	if search != "" {
		query.Set("search", search)
	}
	if pinnedOnly {
		query.Set("pinned", strconv.FormatBool(true))
	}

	path := "/api/v1/notes"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var notes []models.Note
	err := c.do(ctx, http.MethodGet, path, nil, &notes)
	return notes, err
}

func (c *Client) ListTrash(ctx context.Context) ([]models.Note, error) {
	var notes []models.Note
	err := c.do(ctx, http.MethodGet, "/api/v1/trash", nil, &notes)
	return notes, err
}

func (c *Client) GetNote(ctx context.Context, id string) (models.Note, error) {
	var note models.Note
	err := c.do(ctx, http.MethodGet, notePath(id), nil, &note)
	return note, err
}

func (c *Client) CreateNote(ctx context.Context, title, body, color string) (models.Note, error) {
	var note models.Note
	err := c.do(ctx, http.MethodPost, "/api/v1/notes", map[string]string{
		"title": title,
		"body":  body,
		"color": color,
	}, &note)
	return note, err
}

func (c *Client) UpdateNote(ctx context.Context, id, title, body string) (models.Note, error) {
	var note models.Note
	err := c.do(ctx, http.MethodPut, notePath(id), map[string]string{
		"title": title,
		"body":  body,
	}, &note)
	return note, err
}

func (c *Client) SetPinned(ctx context.Context, id string, pinned bool) (models.Note, error) {
	var note models.Note
	err := c.do(ctx, http.MethodPut, notePath(id, "pin"), map[string]bool{"pinned": pinned}, &note)
	return note, err
}

func (c *Client) SetColor(ctx context.Context, id, color string) (models.Note, error) {
	var note models.Note
	err := c.do(ctx, http.MethodPut, notePath(id, "color"), map[string]string{"color": color}, &note)
	return note, err
}

func (c *Client) Trash(ctx context.Context, id string, trashed bool) (models.Note, error) {
	var note models.Note
	err := c.do(ctx, http.MethodPut, notePath(id, "trash"), map[string]bool{"trashed": trashed}, &note)
	return note, err
}

func (c *Client) Restore(ctx context.Context, id string) (models.Note, error) {
	var note models.Note
	err := c.do(ctx, http.MethodPost, "/api/v1/trash/"+url.PathEscape(id)+"/restore", nil, &note)
	return note, err
}

func (c *Client) DeleteForever(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/trash/"+url.PathEscape(id), nil, nil)
}

func (c *Client) EmptyTrash(ctx context.Context) (int64, error) {
	var result struct {
		Deleted int64 `json:"deleted"`
	}
	err := c.do(ctx, http.MethodDelete, "/api/v1/trash", nil, &result)
	return result.Deleted, err
}
