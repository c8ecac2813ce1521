package ingest

import (
	"context"
	"fmt"
	"iter"
	"log"
	"net/http"

	"booksampler/internal/platform/googlebooks"
)

// GoogleBooksClient is the part of googlebooks.Client the fetcher needs.
type GoogleBooksClient interface {
	SearchVolumes(ctx context.Context, p googlebooks.SearchParams) (*googlebooks.VolumesResponse, error)
}

// Fetcher pages through one genre's search results.
type Fetcher struct {
	client          GoogleBooksClient
	resultsPerGenre int
	itemsPerPage    int
}

// NewFetcher returns a Fetcher that walks startIndex in steps of itemsPerPage
// while it stays below resultsPerGenre. A non-positive itemsPerPage yields no
// pages.
func NewFetcher(client GoogleBooksClient, resultsPerGenre, itemsPerPage int) *Fetcher {
	return &Fetcher{
		client:          client,
		resultsPerGenre: resultsPerGenre,
		itemsPerPage:    itemsPerPage,
	}
}

// Pages lists the (startIndex, maxResults) windows requested for one genre:
// every multiple of itemsPerPage below resultsPerGenre, each asking for a
// full page.
func (f *Fetcher) Pages() []googlebooks.SearchParams {
	if f.itemsPerPage <= 0 {
		return nil
	}
	var pages []googlebooks.SearchParams
	for start := 0; start < f.resultsPerGenre; start += f.itemsPerPage {
		pages = append(pages, googlebooks.SearchParams{StartIndex: start, MaxResults: f.itemsPerPage})
	}
	return pages
}

// PageResult reports one request made while walking a genre.
type PageResult struct {
	StartIndex int
	Items      int
	// Status is the HTTP status of the response, 0 when the client did not
	// report one.
	Status   int
	APIError *googlebooks.APIError
}

// Rejected reports whether the API answered with an error body instead of
// results.
func (p PageResult) Rejected() bool {
	return p.APIError != nil || (p.Status != 0 && p.Status != http.StatusOK)
}

// Volumes yields the raw items for genre, requesting each page only when the
// consumer reaches it. Empty pages and API error bodies contribute nothing
// and paging continues with the next window. onPage, when non-nil, sees every
// page after it is fetched. On a transport or decode error the sequence
// yields the error once and stops.
func (f *Fetcher) Volumes(ctx context.Context, genre string, onPage func(PageResult)) iter.Seq2[googlebooks.Volume, error] {
	return func(yield func(googlebooks.Volume, error) bool) {
		for _, p := range f.Pages() {
			p.Subject = genre
			res, err := f.client.SearchVolumes(ctx, p)
			if err != nil {
				yield(googlebooks.Volume{}, fmt.Errorf("search volumes for %q at %d: %w", genre, p.StartIndex, err))
				return
			}

			pr := PageResult{StartIndex: p.StartIndex, Items: len(res.Items), Status: res.StatusCode, APIError: res.Error}
			if pr.Rejected() {
				msg := ""
				if res.Error != nil {
					msg = res.Error.Message
				}
				log.Printf("ingest genre=%q start=%d status=%d api_error=%q", genre, p.StartIndex, res.StatusCode, msg)
			}
			if onPage != nil {
				onPage(pr)
			}

			for _, v := range res.Items {
				if !yield(v, nil) {
					return
				}
			}
		}
	}
}
