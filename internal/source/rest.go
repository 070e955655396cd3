package source

import (
	"context"
	"encoding/json"
	"time"

	"studycal/internal/config"
	"studycal/internal/log"
	"studycal/internal/model"
)

// Client fetches and normalizes event/task records from the REST
// collaborators listed in the configuration.
type Client struct {
	fetcher *Fetcher
	loc     *time.Location
}

// NewClient creates a REST source client. loc is the display timezone
// all dates are normalized into.
func NewClient(cacheDir string, loc *time.Location) *Client {
	if loc == nil {
		loc = time.Local
	}
	return &Client{
		fetcher: NewFetcher(cacheDir),
		loc:     loc,
	}
}

// Events fetches and normalizes the event records of one REST source.
// A source without an events URL contributes nothing.
func (c *Client) Events(ctx context.Context, src config.RESTConfig) ([]model.Event, error) {
	if src.EventsURL == "" {
		return nil, nil
	}
	recs, err := c.fetchRecords(ctx, src.ID, src.EventsURL)
	if err != nil {
		return nil, err
	}

	events, excluded := NormalizeEvents(src.ID, recs, c.loc)
	if excluded > 0 {
		log.Warn("rest source excluded malformed events", "id", src.ID, "excluded", excluded, "kept", len(events))
	}
	return events, nil
}

// Tasks fetches and normalizes the task records of one REST source.
func (c *Client) Tasks(ctx context.Context, src config.RESTConfig) ([]model.Task, error) {
	if src.TasksURL == "" {
		return nil, nil
	}
	recs, err := c.fetchRecords(ctx, src.ID, src.TasksURL)
	if err != nil {
		return nil, err
	}
	return NormalizeTasks(src.ID, recs, c.loc), nil
}

// fetchRecords retrieves a JSON array of records from url.
func (c *Client) fetchRecords(ctx context.Context, id, url string) ([]Record, error) {
	res, err := c.fetcher.Fetch(ctx, Endpoint{ID: id, URL: url})
	if err != nil {
		return nil, err
	}

	var recs []Record
	if err := json.Unmarshal(res.Body, &recs); err != nil {
		return nil, err
	}

	log.Debug("rest records decoded", "id", id, "count", len(recs), "from_cache", res.FromCache)
	return recs, nil
}

// Location returns the client's display timezone.
func (c *Client) Location() *time.Location {
	return c.loc
}
