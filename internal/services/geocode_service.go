package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
	"googlemaps.github.io/maps"

	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/constants"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/models"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/utils"
)

/*────────────────────────────────────────────────────────────────────────────
  GeocodeService resolves listing addresses to coordinates.

  Provider chain: Nominatim (keyless, rate-limited per usage policy),
  then ArcGIS, then the Google Geocoding API when a key is configured.
  Results, including failures, are cached per address so a reload never
  re-geocodes the whole sheet.
────────────────────────────────────────────────────────────────────────────*/

type GeocodeService struct {
	httpClient *http.Client
	limiter    *rate.Limiter

	gmapsKey  string
	gmapsOnce sync.Once
	gmapsCli  *maps.Client
	gmapsErr  error

	mu    sync.RWMutex
	cache map[string]*models.GeoPoint // nil entry = known failure

	// Overridable in tests.
	nominatimURL string
	arcgisURL    string
}

func NewGeocodeService(gmapsKey string) *GeocodeService {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = constants.GeocodeTimeout
	rc.Logger = nil

	return &GeocodeService{
		httpClient:   rc.StandardClient(),
		limiter:      rate.NewLimiter(rate.Every(constants.NominatimMinDelay), 1),
		gmapsKey:     gmapsKey,
		cache:        make(map[string]*models.GeoPoint),
		nominatimURL: constants.NominatimBaseURL,
		arcgisURL:    constants.ArcGISBaseURL,
	}
}

// Geocode returns the coordinates for an address, or ok=false when no
// provider could place it. A miss only costs the pin, never the listing.
func (s *GeocodeService) Geocode(ctx context.Context, address string) (models.GeoPoint, bool) {
	key := strings.TrimSpace(address)
	if key == "" {
		return models.GeoPoint{}, false
	}

	s.mu.RLock()
	cached, seen := s.cache[key]
	s.mu.RUnlock()
	if seen {
		if cached == nil {
			return models.GeoPoint{}, false
		}
		return *cached, true
	}

	pt, ok := s.lookup(ctx, shapeQuery(key))

	s.mu.Lock()
	if ok {
		p := pt
		s.cache[key] = &p
	} else {
		s.cache[key] = nil
	}
	s.mu.Unlock()

	return pt, ok
}

func (s *GeocodeService) lookup(ctx context.Context, query string) (models.GeoPoint, bool) {
	if pt, err := s.nominatim(ctx, query); err == nil {
		return pt, true
	} else {
		utils.Logger.WithError(err).Debugf("[Geocode] Nominatim miss for %q", query)
	}

	if pt, err := s.arcgis(ctx, query); err == nil {
		return pt, true
	} else {
		utils.Logger.WithError(err).Debugf("[Geocode] ArcGIS miss for %q", query)
	}

	if s.gmapsKey != "" {
		if pt, err := s.google(ctx, query); err == nil {
			return pt, true
		} else {
			utils.Logger.WithError(err).Debugf("[Geocode] Google miss for %q", query)
		}
	}

	utils.Logger.Warnf("[Geocode] No provider placed %q; pin omitted", query)
	return models.GeoPoint{}, false
}

// shapeQuery anchors bare street addresses to the city and country every
// listing lives in, so providers stop wandering off to other continents.
func shapeQuery(address string) string {
	q := address
	if !strings.Contains(q, constants.GeocodeCity) && !strings.Contains(strings.ToLower(q), constants.GeocodeCityLatin) {
		q += ", " + constants.GeocodeCity
	}
	if !strings.Contains(q, constants.GeocodeCountry) && !strings.Contains(q, "ישראל") {
		q += ", " + constants.GeocodeCountry
	}
	return q
}

func (s *GeocodeService) nominatim(ctx context.Context, query string) (models.GeoPoint, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return models.GeoPoint{}, err
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.nominatimURL+"?"+params.Encode(), nil)
	if err != nil {
		return models.GeoPoint{}, err
	}
	// Nominatim policy requires an identifying agent.
	req.Header.Set("User-Agent", constants.GeocodeUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return models.GeoPoint{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return models.GeoPoint{}, fmt.Errorf("nominatim status %d", resp.StatusCode)
	}

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return models.GeoPoint{}, err
	}
	if len(results) == 0 {
		return models.GeoPoint{}, fmt.Errorf("no nominatim result")
	}

	lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
	lng, lngErr := strconv.ParseFloat(results[0].Lon, 64)
	if latErr != nil || lngErr != nil {
		return models.GeoPoint{}, fmt.Errorf("bad nominatim coordinates %q,%q", results[0].Lat, results[0].Lon)
	}
	return models.GeoPoint{Latitude: lat, Longitude: lng}, nil
}

func (s *GeocodeService) arcgis(ctx context.Context, query string) (models.GeoPoint, error) {
	params := url.Values{}
	params.Set("f", "json")
	params.Set("singleLine", query)
	params.Set("maxLocations", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.arcgisURL+"?"+params.Encode(), nil)
	if err != nil {
		return models.GeoPoint{}, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return models.GeoPoint{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return models.GeoPoint{}, fmt.Errorf("arcgis status %d", resp.StatusCode)
	}

	var out struct {
		Candidates []struct {
			Location struct {
				X float64 `json:"x"`
				Y float64 `json:"y"`
			} `json:"location"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.GeoPoint{}, err
	}
	if len(out.Candidates) == 0 {
		return models.GeoPoint{}, fmt.Errorf("no arcgis candidate")
	}
	loc := out.Candidates[0].Location
	return models.GeoPoint{Latitude: loc.Y, Longitude: loc.X}, nil
}

func (s *GeocodeService) google(ctx context.Context, query string) (models.GeoPoint, error) {
	s.gmapsOnce.Do(func() {
		s.gmapsCli, s.gmapsErr = maps.NewClient(maps.WithAPIKey(s.gmapsKey))
		if s.gmapsErr != nil {
			utils.Logger.WithError(s.gmapsErr).Error("[Geocode] Failed to initialize Google Maps client")
		}
	})
	if s.gmapsErr != nil {
		return models.GeoPoint{}, s.gmapsErr
	}

	results, err := s.gmapsCli.Geocode(ctx, &maps.GeocodingRequest{Address: query})
	if err != nil {
		return models.GeoPoint{}, err
	}
	if len(results) == 0 {
		return models.GeoPoint{}, fmt.Errorf("no google result")
	}
	loc := results[0].Geometry.Location
	return models.GeoPoint{Latitude: loc.Lat, Longitude: loc.Lng}, nil
}
