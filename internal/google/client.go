// Package google is a minimal client for the Drive and Slides REST APIs,
// covering exactly the calls the presentation scan needs.
//
// Drive v3: https://developers.google.com/drive/api/reference/rest/v3
// Slides v1: https://developers.google.com/slides/api/reference/rest
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

const (
	driveBaseURL  = "https://www.googleapis.com/drive/v3"
	slidesBaseURL = "https://slides.googleapis.com/v1"

	// presentationMimeType identifies Google Slides files in Drive queries.
	// https://developers.google.com/workspace/drive/api/guides/mime-types
	presentationMimeType = "application/vnd.google-apps.presentation"
)

// Presentation is the metadata for one Google Slides presentation,
// as returned by the Drive files listing plus the resolved thumbnail.
type Presentation struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CreatedTime  string `json:"createdTime"`
	ModifiedTime string `json:"modifiedTime"`
	WebViewLink  string `json:"webViewLink"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

// Client performs authenticated requests against the Drive and Slides APIs.
type Client struct {
	httpClient *http.Client

	// DriveBaseURL and SlidesBaseURL override the API endpoints, for tests.
	DriveBaseURL  string
	SlidesBaseURL string
}

// NewClient creates a client whose requests carry (and refresh) the given token.
func NewClient(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) *Client {
	return &Client{
		httpClient:    conf.Client(ctx, token),
		DriveBaseURL:  driveBaseURL,
		SlidesBaseURL: slidesBaseURL,
	}
}

// NewClientWithHTTP creates a client on top of an existing http.Client.
func NewClientWithHTTP(httpClient *http.Client) *Client {
	return &Client{
		httpClient:    httpClient,
		DriveBaseURL:  driveBaseURL,
		SlidesBaseURL: slidesBaseURL,
	}
}

// doRequest performs a GET against the given API URL and decodes the JSON response.
func (c *Client) doRequest(ctx context.Context, apiURL string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("google API error: status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// fileList mirrors the Drive files.list response.
type fileList struct {
	NextPageToken string         `json:"nextPageToken"`
	Files         []Presentation `json:"files"`
}

// ListPresentations returns all Slides presentations visible to the user,
// following pagination until the listing is exhausted.
func (c *Client) ListPresentations(ctx context.Context) ([]Presentation, error) {
	var presentations []Presentation
	pageToken := ""

	for {
		params := url.Values{}
		params.Set("q", fmt.Sprintf("mimeType='%s'", presentationMimeType))
		params.Set("spaces", "drive")
		params.Set("fields", "nextPageToken, files(id, name, createdTime, modifiedTime, webViewLink)")
		params.Set("pageSize", "1000")
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var page fileList
		endpoint := c.DriveBaseURL + "/files?" + params.Encode()
		if err := c.doRequest(ctx, endpoint, &page); err != nil {
			return nil, fmt.Errorf("failed to list presentations: %w", err)
		}

		presentations = append(presentations, page.Files...)
		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return presentations, nil
}

// presentationSlides mirrors the slides(objectId) projection of presentations.get.
type presentationSlides struct {
	Slides []struct {
		ObjectID string `json:"objectId"`
	} `json:"slides"`
}

// thumbnailResponse mirrors the pages.getThumbnail response.
type thumbnailResponse struct {
	ContentURL string `json:"contentUrl"`
}

// FirstSlideThumbnail returns the thumbnail content URL for the first slide
// of the presentation. A presentation with no slides yields an empty URL.
func (c *Client) FirstSlideThumbnail(ctx context.Context, presentationID, size string) (string, error) {
	endpoint := fmt.Sprintf("%s/presentations/%s?fields=%s",
		c.SlidesBaseURL, url.PathEscape(presentationID), url.QueryEscape("slides(objectId)"))

	var pres presentationSlides
	if err := c.doRequest(ctx, endpoint, &pres); err != nil {
		return "", fmt.Errorf("failed to get presentation %s: %w", presentationID, err)
	}

	if len(pres.Slides) == 0 || pres.Slides[0].ObjectID == "" {
		return "", nil
	}

	params := url.Values{}
	params.Set("thumbnailProperties.thumbnailSize", size)
	endpoint = fmt.Sprintf("%s/presentations/%s/pages/%s/thumbnail?%s",
		c.SlidesBaseURL, url.PathEscape(presentationID), url.PathEscape(pres.Slides[0].ObjectID), params.Encode())

	var thumb thumbnailResponse
	if err := c.doRequest(ctx, endpoint, &thumb); err != nil {
		return "", fmt.Errorf("failed to get thumbnail for %s: %w", presentationID, err)
	}

	return thumb.ContentURL, nil
}
