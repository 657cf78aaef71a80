package images

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/FACorreiaa/go-travel-concierge/app/httpclient"
	"github.com/FACorreiaa/go-travel-concierge/internal/types"
)

const (
	DefaultWikidataURL       = "https://query.wikidata.org/sparql"
	DefaultUnsplashAPIURL    = "https://api.unsplash.com"
	DefaultUnsplashPublicURL = "https://unsplash.com"
	DefaultFallbackURL       = "https://loremflickr.com"
	DefaultTimeout           = 5 * time.Second

	searchPageSize = 20
	userAgent      = "Mozilla/5.0 (compatible; TravelConcierge/1.0; +https://github.com/FACorreiaa/go-travel-concierge)"
)

// errNoImage means the provider answered but had nothing usable.
var errNoImage = errors.New("no image found")

var (
	_ EntityLookup    = (*WikidataLookup)(nil)
	_ PhotoSearch     = (*UnsplashSearch)(nil)
	_ GenericFallback = LoremFlickr{}
)

// EntityLookup finds the canonical picture of a named place.
type EntityLookup interface {
	ImageFor(ctx context.Context, name string) (string, error)
}

// PhotoSearch returns ranked photo URLs for a free-text query. Exact reports
// whether ranks are stable enough to be addressed directly; otherwise callers
// wrap the rank around the result count.
type PhotoSearch interface {
	Search(ctx context.Context, query string) ([]string, error)
	Exact() bool
}

// GenericFallback always produces a URL.
type GenericFallback interface {
	URL(req types.ImageRequest) string
}

// WikidataLookup matches an item label and returns its P18 image.
type WikidataLookup struct {
	client   *http.Client
	endpoint string
}

func NewWikidataLookup(endpoint string, timeout time.Duration) *WikidataLookup {
	if endpoint == "" {
		endpoint = DefaultWikidataURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &WikidataLookup{client: httpclient.New(timeout), endpoint: endpoint}
}

type sparqlResponse struct {
	Results struct {
		Bindings []struct {
			Image struct {
				Value string `json:"value"`
			} `json:"image"`
		} `json:"bindings"`
	} `json:"results"`
}

var sparqlEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", " ", "\r", " ")

// labelQuery matches the lower-cased label and its underscore variant.
func labelQuery(name string) string {
	lower := sparqlEscaper.Replace(strings.ToLower(strings.TrimSpace(name)))
	underscored := strings.ReplaceAll(lower, " ", "_")
	return fmt.Sprintf(`SELECT ?image WHERE {
  ?item rdfs:label ?label.
  FILTER(LCASE(STR(?label)) IN ("%s", "%s"))
  ?item wdt:P18 ?image.
  SERVICE wikibase:label { bd:serviceParam wikibase:language "en". }
} LIMIT 1`, lower, underscored)
}

func (w *WikidataLookup) ImageFor(ctx context.Context, name string) (string, error) {
	q := url.Values{}
	q.Set("query", labelQuery(name))
	q.Set("format", "json")

	var body sparqlResponse
	if err := getJSON(ctx, w.client, w.endpoint+"?"+q.Encode(), nil, &body); err != nil {
		return "", fmt.Errorf("wikidata: %w", err)
	}
	if len(body.Results.Bindings) == 0 || body.Results.Bindings[0].Image.Value == "" {
		return "", errNoImage
	}
	return body.Results.Bindings[0].Image.Value, nil
}

// UnsplashSearch uses the official API when an access key is configured and
// the public web endpoint otherwise.
type UnsplashSearch struct {
	client    *http.Client
	accessKey string
	apiURL    string
	publicURL string
}

func NewUnsplashSearch(accessKey, apiURL, publicURL string, timeout time.Duration) *UnsplashSearch {
	if apiURL == "" {
		apiURL = DefaultUnsplashAPIURL
	}
	if publicURL == "" {
		publicURL = DefaultUnsplashPublicURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &UnsplashSearch{
		client:    httpclient.New(timeout),
		accessKey: strings.TrimSpace(accessKey),
		apiURL:    strings.TrimRight(apiURL, "/"),
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// Exact is true for the official API; the public endpoint returns short or
// reshuffled pages.
func (u *UnsplashSearch) Exact() bool { return u.accessKey != "" }

type unsplashResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
	} `json:"results"`
}

func (u *UnsplashSearch) Search(ctx context.Context, query string) ([]string, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", strconv.Itoa(searchPageSize))

	endpoint := u.publicURL + "/napi/search/photos?" + q.Encode()
	header := http.Header{}
	if u.Exact() {
		endpoint = u.apiURL + "/search/photos?" + q.Encode()
		header.Set("Authorization", "Client-ID "+u.accessKey)
	}

	var body unsplashResponse
	if err := getJSON(ctx, u.client, endpoint, header, &body); err != nil {
		return nil, fmt.Errorf("unsplash: %w", err)
	}
	urls := make([]string, 0, len(body.Results))
	for _, r := range body.Results {
		urls = append(urls, r.URLs.Regular)
	}
	return urls, nil
}

// LoremFlickr builds a deterministic keyword image URL.
type LoremFlickr struct {
	BaseURL string
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)

func (f LoremFlickr) URL(req types.ImageRequest) string {
	base := strings.TrimRight(f.BaseURL, "/")
	if base == "" {
		base = DefaultFallbackURL
	}
	name := nonAlnum.ReplaceAllString(strings.ToLower(strings.TrimSpace(req.Name)), "")
	city := strings.ToLower(strings.TrimSpace(req.City))
	return fmt.Sprintf("%s/600/400/%s,%s/all?lock=%d", base, url.PathEscape(city), name, req.Index)
}

func getJSON(ctx context.Context, client *http.Client, endpoint string, header http.Header, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := httpclient.CheckStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, httpclient.MaxBodyBytes)).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
