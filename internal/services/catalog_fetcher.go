package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/artgallery/server/internal/observability"
)

// CatalogFetcher returns one page of raw records. A short page means the catalog is
// running out of data; it is not an error.
type CatalogFetcher interface {
	Fetch(ctx context.Context, page, pageSize int) ([]RawRecord, error)
}

// CatalogSource is a single upstream catalog
type CatalogSource interface {
	CatalogFetcher
	Name() string
}

// ErrNoCatalogSources is returned by a MultiCatalogFetcher with nothing to ask
var ErrNoCatalogSources = errors.New("no catalog sources configured")

// MultiCatalogFetcher splits each page across several sources and concatenates the
// results in source order. The fetch fails only when every queried source fails.
type MultiCatalogFetcher struct {
	sources []CatalogSource
}

// NewMultiCatalogFetcher creates a fetcher over sources, in priority order
func NewMultiCatalogFetcher(sources ...CatalogSource) *MultiCatalogFetcher {
	return &MultiCatalogFetcher{sources: sources}
}

// Sources returns the source names in order
func (f *MultiCatalogFetcher) Sources() []string {
	names := make([]string, len(f.sources))
	for i, s := range f.sources {
		names[i] = s.Name()
	}
	return names
}

// SplitPageSize divides pageSize between n sources; the first sources absorb the remainder
func SplitPageSize(pageSize, n int) []int {
	if n <= 0 {
		return nil
	}
	shares := make([]int, n)
	for i := range shares {
		shares[i] = pageSize / n
		if i < pageSize%n {
			shares[i]++
		}
	}
	return shares
}

func (f *MultiCatalogFetcher) Fetch(ctx context.Context, page, pageSize int) ([]RawRecord, error) {
	if len(f.sources) == 0 {
		return nil, ErrNoCatalogSources
	}

	shares := SplitPageSize(pageSize, len(f.sources))
	results := make([][]RawRecord, len(f.sources))
	errs := make([]error, len(f.sources))

	// Plain group: one failing source must not cancel the others
	var g errgroup.Group
	for i, src := range f.sources {
		if shares[i] == 0 {
			continue
		}
		g.Go(func() error {
			recs, err := src.Fetch(ctx, page, shares[i])
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", src.Name(), err)
				return nil
			}
			for j := range recs {
				if recs[j].Source == "" {
					recs[j].Source = src.Name()
				}
			}
			results[i] = recs
			return nil
		})
	}
	_ = g.Wait()

	var (
		out       []RawRecord
		failures  []error
		attempted int
	)
	for i := range f.sources {
		if shares[i] == 0 {
			continue
		}
		attempted++
		if errs[i] != nil {
			failures = append(failures, errs[i])
			observability.WithContext(ctx).WithError(errs[i]).Warnf("Catalog source failed for page %d", page)
			continue
		}
		out = append(out, results[i]...)
	}

	if attempted > 0 && len(failures) == attempted {
		return nil, errors.Join(failures...)
	}
	return out, nil
}
