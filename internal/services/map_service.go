package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/umahmood/haversine"

	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/constants"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/dtos"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/models"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/state"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/utils"
)

/*────────────────────────────────────────────────────────────────────────────
  MapService assembles the interactive map payload: one pin per unique
  address, every unit at that address folded into the pin's popup, each
  unit carrying its resolved floor-plan documents.
────────────────────────────────────────────────────────────────────────────*/

type MapService struct {
	ingest   *IngestService
	geocoder *GeocodeService
	resolver *ResolverService
}

func NewMapService(ingest *IngestService, geocoder *GeocodeService, resolver *ResolverService) *MapService {
	return &MapService{ingest: ingest, geocoder: geocoder, resolver: resolver}
}

// BuildMapData loads the workbook if needed, geocodes each unique address
// and shapes the marker list. Addresses no provider can place cost their
// pin and bump the counter; they never fail the request.
func (s *MapService) BuildMapData(ctx context.Context, sess *state.Session) (*dtos.MapDataResponse, error) {
	records, skipped, err := s.ingest.EnsureLoaded(sess)
	if err != nil {
		return nil, err
	}

	// One pin per building: group units by address, first-seen order.
	var order []string
	grouped := make(map[string][]models.ApartmentRecord)
	for _, rec := range records {
		if _, ok := grouped[rec.Address]; !ok {
			order = append(order, rec.Address)
		}
		grouped[rec.Address] = append(grouped[rec.Address], rec)
	}

	resp := &dtos.MapDataResponse{
		Markers:     make([]dtos.MarkerDTO, 0, len(order)),
		Zoom:        constants.DefaultZoom,
		SkippedRows: skipped,
	}

	var center *models.GeoPoint
	var failed []string
	for _, address := range order {
		pt, ok := s.geocoder.Geocode(ctx, address)
		if !ok {
			resp.Ungeocodable++
			failed = append(failed, address)
			continue
		}
		if center == nil {
			c := pt
			center = &c
		}

		marker := dtos.MarkerDTO{
			Address:   address,
			Latitude:  pt.Latitude,
			Longitude: pt.Longitude,
		}
		for _, rec := range grouped[address] {
			docs := s.resolver.Resolve(ctx, rec, sess)
			marker.Units = append(marker.Units, dtos.MarkerUnitDTO{
				Unit:           rec.Unit,
				PriceDisplay:   utils.FormatPriceMillions(rec.PriceDisplay),
				Bedrooms:       rec.Bedrooms,
				Bathrooms:      rec.Bathrooms,
				Showers:        rec.Showers,
				LivingRoomSize: rec.LivingRoomSize,
				BalconyFaces:   rec.BalconyFaces,
				Notes:          rec.Notes,
				Documents:      DocumentDTOs(rec.Address, rec.DocumentReference, docs),
				HasFloorPlan:   len(docs) > 0,
			})
		}
		resp.Markers = append(resp.Markers, marker)
	}

	// Center on the first listing that geocoded, like the original map did.
	if center != nil {
		resp.Center = *center
	} else {
		resp.Center = models.GeoPoint{
			Latitude:  constants.FallbackCenterLat,
			Longitude: constants.FallbackCenterLng,
		}
	}
	resp.Warnings = sess.Warnings()
	if len(failed) > 0 {
		resp.Warnings = append(resp.Warnings, geocodeWarning(failed))
	}

	utils.Logger.Infof("[Map] Built %d marker(s) from %d listing(s), %d ungeocodable",
		len(resp.Markers), len(records), resp.Ungeocodable)
	return resp, nil
}

// geocodeWarning names the addresses no provider could place, capped at
// the first few so one bad workbook cannot flood the banner.
func geocodeWarning(failed []string) string {
	shown := failed
	if len(shown) > constants.MaxGeocodeWarnAddresses {
		shown = shown[:constants.MaxGeocodeWarnAddresses]
	}
	msg := "Could not geocode: " + strings.Join(shown, ", ")
	if rest := len(failed) - len(shown); rest > 0 {
		msg += fmt.Sprintf(" and %d more", rest)
	}
	return msg
}

// Nearest finds the listing closest to a point, as the crow flies.
func (s *MapService) Nearest(ctx context.Context, sess *state.Session, lat, lng float64) (*dtos.NearestListingResponse, error) {
	records, _, err := s.ingest.EnsureLoaded(sess)
	if err != nil {
		return nil, err
	}

	origin := haversine.Coord{Lat: lat, Lon: lng}
	var best *dtos.NearestListingResponse
	for _, rec := range records {
		pt, ok := s.geocoder.Geocode(ctx, rec.Address)
		if !ok {
			continue
		}
		_, km := haversine.Distance(origin, haversine.Coord{Lat: pt.Latitude, Lon: pt.Longitude})
		if best == nil || km < best.DistanceKm {
			best = &dtos.NearestListingResponse{
				Listing:    rec,
				Latitude:   pt.Latitude,
				Longitude:  pt.Longitude,
				DistanceKm: km,
			}
		}
	}
	if best == nil {
		return nil, utils.ErrNoListings
	}
	return best, nil
}
