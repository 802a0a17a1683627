// Package opendata locates and downloads the newest daily rides file published
// on the city open-data portal.
package opendata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ErrStaleSource is returned when the newest published file is not dated today.
var ErrStaleSource = errors.New("outdated date error")

// Resource is a downloadable file listed on the resource history page.
type Resource struct {
	URL      string
	FileName string
}

// LatestResource scrapes the resource history page and returns its first listed file.
func LatestResource(ctx context.Context, client *http.Client, pageURL string) (Resource, error) {
	resp, err := get(ctx, client, pageURL)
	if err != nil {
		return Resource{}, fmt.Errorf("request resource page: %w", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Resource{}, fmt.Errorf("parse resource page: %w", err)
	}

	link := doc.Find("a.heading").First()
	href, ok := link.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return Resource{}, errors.New("resource page has no a.heading link")
	}
	title := strings.TrimSpace(link.AttrOr("title", ""))
	if title == "" {
		return Resource{}, errors.New("resource link has no title")
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return Resource{}, fmt.Errorf("parse page url: %w", err)
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return Resource{}, fmt.Errorf("parse resource href: %w", err)
	}

	return Resource{URL: base.ResolveReference(ref).String(), FileName: title}, nil
}

// Download opens the resource body. The caller closes it.
func Download(ctx context.Context, client *http.Client, res Resource) (io.ReadCloser, error) {
	resp, err := get(ctx, client, res.URL)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", res.FileName, err)
	}
	return resp.Body, nil
}

// FileDate extracts the date from a file name such as "Historia_przejazdow_2023-5-14.csv":
// the third underscore-separated token, extension removed, in Y-M-D form without padding.
func FileDate(fileName string) (time.Time, error) {
	base := strings.TrimSuffix(fileName, path.Ext(fileName))
	parts := strings.Split(base, "_")
	if len(parts) < 3 {
		return time.Time{}, fmt.Errorf("file name %q has no date token", fileName)
	}

	fields := strings.Split(parts[2], "-")
	if len(fields) != 3 {
		return time.Time{}, fmt.Errorf("file name %q: malformed date %q", fileName, parts[2])
	}
	var ymd [3]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return time.Time{}, fmt.Errorf("file name %q: malformed date %q", fileName, parts[2])
		}
		ymd[i] = n
	}

	d := time.Date(ymd[0], time.Month(ymd[1]), ymd[2], 0, 0, 0, 0, time.UTC)
	if d.Year() != ymd[0] || int(d.Month()) != ymd[1] || d.Day() != ymd[2] {
		return time.Time{}, fmt.Errorf("file name %q: invalid date %q", fileName, parts[2])
	}
	return d, nil
}

// CheckFresh returns the file's date, or ErrStaleSource when it differs from the
// calendar date of now.
func CheckFresh(fileName string, now time.Time) (time.Time, error) {
	d, err := FileDate(fileName)
	if err != nil {
		return time.Time{}, err
	}
	if d.Year() != now.Year() || d.Month() != now.Month() || d.Day() != now.Day() {
		return d, fmt.Errorf("%w: %s is dated %s, today is %s", ErrStaleSource, fileName, d.Format(time.DateOnly), now.Format(time.DateOnly))
	}
	return d, nil
}

func get(ctx context.Context, client *http.Client, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp, nil
}
