package services

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/constants"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/models"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/state"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/utils"
)

// Hebrew address header used in the family workbook; the English one comes
// from the reference sheet layout.
const hebrewAddressHeader = "כתובת-מיקום"

// IngestService reads the listings workbook into ApartmentRecords.
type IngestService struct{}

func NewIngestService() *IngestService {
	return &IngestService{}
}

// EnsureLoaded returns the session's records, loading the active workbook
// on first use. Reload and upload drop the cached records, which makes the
// next call here re-read the file.
func (s *IngestService) EnsureLoaded(sess *state.Session) ([]models.ApartmentRecord, int, error) {
	if records, skipped := sess.Records(); records != nil {
		return records, skipped, nil
	}
	records, skipped, err := s.LoadWorkbook(sess.WorkbookPath())
	if err != nil {
		return nil, 0, err
	}
	sess.SetRecords(records, skipped)
	return records, skipped, nil
}

// LoadWorkbook maps the ranking sheet to records. Rows with content but no
// address are skipped and counted; the count is surfaced to the UI.
func (s *IngestService) LoadWorkbook(path string) ([]models.ApartmentRecord, int, error) {
	if path == "" {
		return nil, 0, utils.ErrWorkbookNotFound
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	defer f.Close()

	sheet := constants.PreferredSheetName
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		fallback := f.GetSheetName(0)
		if fallback == "" {
			return nil, 0, utils.ErrSheetNotFound
		}
		utils.Logger.Warnf("[Ingest] Sheet %q not found, using %q", sheet, fallback)
		sheet = fallback
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, 0, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, 0, fmt.Errorf("sheet %q has no data rows: %w", sheet, utils.ErrNoListings)
	}

	cols := mapColumns(rows[0])
	if cols.address < 0 {
		return nil, 0, fmt.Errorf("sheet %q has no address column: %w", sheet, utils.ErrNoListings)
	}

	var records []models.ApartmentRecord
	skipped := 0
	for r := 1; r < len(rows); r++ {
		row := rows[r]
		address := cellAt(row, cols.address)
		if address == "" {
			if rowHasContent(row) {
				skipped++
			}
			continue
		}

		priceRaw := cellAt(row, cols.price)
		rec := models.ApartmentRecord{
			Address:           address,
			Unit:              cellAt(row, cols.unit),
			Price:             utils.ParseFloatLoose(priceRaw),
			PriceDisplay:      priceRaw,
			Bedrooms:          utils.ParseIntLoose(cellAt(row, cols.bedrooms)),
			Bathrooms:         utils.ParseIntLoose(cellAt(row, cols.bathrooms)),
			Showers:           utils.ParseIntLoose(cellAt(row, cols.showers)),
			LivingRoomSize:    livingRoomSize(cellAt(row, cols.livingRoom)),
			BalconyFaces:      cellAt(row, cols.balcony),
			DocumentReference: cellAt(row, cols.floorPlan),
			Notes:             cellAt(row, cols.notes),
			Row:               r + 1,
		}
		records = append(records, rec)
	}

	utils.Logger.Infof("[Ingest] Loaded %d listing(s) from %q (%d skipped)", len(records), sheet, skipped)
	return records, skipped, nil
}

type columnMap struct {
	address, unit, price, bedrooms, bathrooms, showers int
	livingRoom, balcony, floorPlan, notes              int
}

// mapColumns resolves header names to column indices. Only columns D
// onward participate; A-C are a rating scratch area in the source
// workbook. When no recognized address header exists, column D itself is
// the address, matching how the sheet is actually laid out.
func mapColumns(header []string) columnMap {
	cols := columnMap{
		address: -1, unit: -1, price: -1, bedrooms: -1, bathrooms: -1,
		showers: -1, livingRoom: -1, balcony: -1, floorPlan: -1, notes: -1,
	}
	for i := constants.FirstDataColumn; i < len(header); i++ {
		switch strings.TrimSpace(header[i]) {
		case constants.ColAddress, hebrewAddressHeader:
			cols.address = i
		case constants.ColUnit:
			cols.unit = i
		case constants.ColPrice:
			cols.price = i
		case constants.ColBedrooms:
			cols.bedrooms = i
		case constants.ColBathrooms:
			cols.bathrooms = i
		case constants.ColShowers:
			cols.showers = i
		case constants.ColLivingRoomSize:
			cols.livingRoom = i
		case constants.ColBalconyFaces:
			cols.balcony = i
		case constants.ColFloorPlan:
			cols.floorPlan = i
		case constants.ColNotes:
			cols.notes = i
		}
	}
	if cols.address < 0 && len(header) > constants.FirstDataColumn {
		cols.address = constants.FirstDataColumn
	}
	return cols
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func rowHasContent(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return true
		}
	}
	return false
}

// livingRoomSize keeps only the sheet's 1-5 scale; anything else is unset.
func livingRoomSize(raw string) int {
	n := utils.ParseIntLoose(raw)
	if n < 1 || n > 5 {
		return 0
	}
	return n
}
