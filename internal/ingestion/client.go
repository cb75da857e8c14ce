package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mr1hm/thirdeye/internal/models"
)

// Client reads the detector endpoint. The body is an object whose values
// are arrays of records (keys are group names and are ignored), or a bare
// array of records.
type Client struct {
	url  string
	http *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url: url,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Fetch(ctx context.Context) ([]models.RawAlert, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	raws, err := decodeAlerts(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error decoding resp.Body: %w", err)
	}
	return raws, nil
}

// decodeAlerts walks the document with a token decoder so group order is
// kept as sent.
func decodeAlerts(r io.Reader) ([]models.RawAlert, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch tok {
	case json.Delim('['):
		return decodeArray(dec)
	case json.Delim('{'):
	default:
		return nil, fmt.Errorf("expected object or array, got %v", tok)
	}

	var out []models.RawAlert
	for dec.More() {
		if _, err := dec.Token(); err != nil { // group name
			return nil, err
		}

		var group json.RawMessage
		if err := dec.Decode(&group); err != nil {
			return nil, err
		}
		records, err := decodeGroup(group)
		if err != nil {
			return nil, err
		}
		out = append(out, records...)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeArray(dec *json.Decoder) ([]models.RawAlert, error) {
	var out []models.RawAlert
	for dec.More() {
		var raw models.RawAlert
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

// decodeGroup accepts an array of records or a single record. null and
// scalar groups contribute nothing.
func decodeGroup(data json.RawMessage) ([]models.RawAlert, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	switch data[0] {
	case '[':
		var records []models.RawAlert
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, err
		}
		return records, nil
	case '{':
		var record models.RawAlert
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, err
		}
		return []models.RawAlert{record}, nil
	default:
		return nil, nil
	}
}
