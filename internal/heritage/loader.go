// Package heritage draws UNESCO World Heritage Sites fetched from Wikidata as
// read-only overlays.
package heritage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/monument-map/internal/models"
	"github.com/ukydev/monument-map/internal/overlay"
)

const (
	DefaultEndpoint = "https://query.wikidata.org/sparql"
	DefaultTimeout  = 30 * time.Second
	UserAgent       = "monument-map/1.0 (heritage overlay loader)"

	// Limit caps how many sites one load asks for.
	Limit = 100
)

// ErrNoGeometry marks a result row without usable coordinates.
var ErrNoGeometry = errors.New("site contains no geometry")

// Query selects World Heritage Sites (P1435 = Q9259) with coordinates and an
// English Wikipedia article.
var Query = fmt.Sprintf(`SELECT ?site ?siteLabel ?lat ?lon ?article WHERE {
  ?site wdt:P1435 wd:Q9259;
        p:P625 ?coordinate.
  ?coordinate psv:P625 ?coordinate_node.
  ?coordinate_node wikibase:geoLatitude ?lat.
  ?coordinate_node wikibase:geoLongitude ?lon.
  ?article schema:about ?site;
           schema:inLanguage "en";
           schema:isPartOf <https://en.wikipedia.org/>.
  SERVICE wikibase:label { bd:serviceParam wikibase:language "en". }
}
LIMIT %d`, Limit)

type binding struct {
	Value string `json:"value"`
}

type sparqlResponse struct {
	Results struct {
		Bindings []map[string]binding `json:"bindings"`
	} `json:"results"`
}

// Loader runs the query once per call and adds an overlay for every site.
type Loader struct {
	endpoint   string
	httpClient *http.Client
	surface    overlay.Surface
	log        log.FieldLogger
}

// NewLoader creates a loader. An empty endpoint means DefaultEndpoint.
func NewLoader(endpoint string, timeout time.Duration, surface overlay.Surface, logger log.FieldLogger) *Loader {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Loader{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: timeout},
		surface:    surface,
		log:        logger.WithField("component", "heritage"),
	}
}

// LoadAll fetches the sites and draws them. Rows without coordinates are
// logged and skipped. Nothing is drawn when the request itself fails.
func (l *Loader) LoadAll(ctx context.Context) ([]models.HeritageSite, error) {
	l.log.Debug("Fetching world heritage sites")

	rows, err := l.fetch(ctx)
	if err != nil {
		return nil, err
	}

	sites := make([]models.HeritageSite, 0, len(rows))
	for _, row := range rows {
		site, err := parseSite(row)
		if err != nil {
			l.log.WithError(err).WithField("site", row["site"].Value).Warn("Skipping heritage site")
			continue
		}
		l.surface.Add(overlay.ForHeritage(site))
		sites = append(sites, site)
	}

	l.log.WithFields(log.Fields{
		"count":   len(sites),
		"skipped": len(rows) - len(sites),
	}).Info("Loaded world heritage sites")
	return sites, nil
}

func (l *Loader) fetch(ctx context.Context) ([]map[string]binding, error) {
	q := url.Values{}
	q.Set("query", Query)
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/sparql-results+json")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("heritage query failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("heritage query returned status %d", resp.StatusCode)
	}

	var body sparqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode heritage results: %w", err)
	}
	return body.Results.Bindings, nil
}

func parseSite(row map[string]binding) (models.HeritageSite, error) {
	lat, latOK := row["lat"]
	lon, lonOK := row["lon"]
	if !latOK || !lonOK {
		return models.HeritageSite{}, ErrNoGeometry
	}
	la, err := strconv.ParseFloat(lat.Value, 64)
	if err != nil {
		return models.HeritageSite{}, fmt.Errorf("%w: lat %q", ErrNoGeometry, lat.Value)
	}
	lng, err := strconv.ParseFloat(lon.Value, 64)
	if err != nil {
		return models.HeritageSite{}, fmt.Errorf("%w: lon %q", ErrNoGeometry, lon.Value)
	}
	pos := models.LatLng{Lat: la, Lng: lng}
	if !pos.IsFinite() {
		return models.HeritageSite{}, fmt.Errorf("%w: %q, %q", ErrNoGeometry, lat.Value, lon.Value)
	}

	return models.HeritageSite{
		Site:     row["site"].Value,
		Label:    row["siteLabel"].Value,
		Position: pos,
		Article:  row["article"].Value,
	}, nil
}
