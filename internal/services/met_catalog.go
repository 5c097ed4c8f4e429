package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/artgallery/server/internal/observability"
)

// MetCatalogName is the source name of the Metropolitan Museum catalog
const MetCatalogName = "met"

// MetCatalog fetches paintings with images from the Met collection API.
// The search returns every matching id at once. Pages are windows over that list,
// and object details are fetched concurrently.
type MetCatalog struct {
	baseURL     string
	query       string
	concurrency int
	httpClient  *http.Client
}

// NewMetCatalog creates a Met source. A nil client gets a 30s timeout client.
func NewMetCatalog(baseURL, query string, concurrency int, client *http.Client) *MetCatalog {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	if query == "" {
		query = "painting"
	}
	return &MetCatalog{
		baseURL:     strings.TrimRight(baseURL, "/"),
		query:       query,
		concurrency: concurrency,
		httpClient:  client,
	}
}

func (c *MetCatalog) Name() string { return MetCatalogName }

type metSearchResponse struct {
	Total     int   `json:"total"`
	ObjectIDs []int `json:"objectIDs"`
}

type metObject struct {
	ObjectID          int    `json:"objectID"`
	Title             string `json:"title"`
	ArtistDisplayName string `json:"artistDisplayName"`
	Description       string `json:"description"`
	Culture           string `json:"culture"`
	PrimaryImage      string `json:"primaryImage"`
	ObjectDate        string `json:"objectDate"`
	Medium            string `json:"medium"`
	Dimensions        string `json:"dimensions"`
	Classification    string `json:"classification"`
}

// Fetch returns the records of window [(page-1)*pageSize, page*pageSize) of the search.
// A failed search is an error; a failed object is logged and skipped.
func (c *MetCatalog) Fetch(ctx context.Context, page, pageSize int) ([]RawRecord, error) {
	ctx, span := observability.StartCatalogSpan(ctx, MetCatalogName, page, pageSize)
	defer span.End()

	if page < 1 || pageSize <= 0 {
		return []RawRecord{}, nil
	}

	ids, err := c.search(ctx)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	start := (page - 1) * pageSize
	if start >= len(ids) {
		return []RawRecord{}, nil
	}
	end := min(start+pageSize, len(ids))
	window := ids[start:end]

	records := make([]*RawRecord, len(window))
	sem := semaphore.NewWeighted(int64(c.concurrency))
	g, gctx := errgroup.WithContext(ctx)

	for i, id := range window {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)

			obj, err := c.object(gctx, id)
			if err != nil {
				observability.WithContext(ctx).WithField("object_id", id).WithError(err).Warn("Skipping Met object")
				return nil
			}
			rec := obj.toRawRecord()
			records[i] = &rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	out := make([]RawRecord, 0, len(records))
	for _, rec := range records {
		if rec != nil {
			out = append(out, *rec)
		}
	}
	observability.SetSuccess(span)
	return out, nil
}

func (c *MetCatalog) search(ctx context.Context) ([]int, error) {
	q := url.Values{}
	q.Set("hasImages", "true")
	q.Set("q", c.query)

	var resp metSearchResponse
	if err := c.getJSON(ctx, c.baseURL+"/search?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("met search: %w", err)
	}
	return resp.ObjectIDs, nil
}

func (c *MetCatalog) object(ctx context.Context, id int) (*metObject, error) {
	var obj metObject
	if err := c.getJSON(ctx, c.baseURL+"/objects/"+strconv.Itoa(id), &obj); err != nil {
		return nil, err
	}
	return &obj, nil
}

func (c *MetCatalog) getJSON(ctx context.Context, endpoint string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (o metObject) toRawRecord() RawRecord {
	return RawRecord{
		Source:         MetCatalogName,
		ID:             strconv.Itoa(o.ObjectID),
		Title:          o.Title,
		Artist:         o.ArtistDisplayName,
		Description:    o.Description,
		Culture:        o.Culture,
		ImageURL:       o.PrimaryImage,
		Date:           o.ObjectDate,
		Medium:         o.Medium,
		Dimensions:     o.Dimensions,
		Classification: o.Classification,
	}
}
