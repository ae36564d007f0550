package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/app"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/config"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/constants"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/dtos"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/models"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/routes"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/utils"
)

// newTestApp wires a full App against temp directories. No env vars, no
// LoadConfig: handler tests never touch the network or the real config.
func newTestApp(t *testing.T) *app.App {
	t.Helper()
	cfg := &config.Config{
		AppName:    "apartments-map",
		Env:        "test",
		AppPort:    "8080",
		AppUrl:     "http://localhost:8080",
		UploadsDir: t.TempDir(),
	}
	return app.NewApp(cfg)
}

// workbookBytes authors an in-memory .xlsx on the ranking sheet layout,
// columns A-C padded the way the family workbook pads them.
func workbookBytes(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "דירוג"); err != nil {
		t.Fatalf("renaming sheet: %v", err)
	}
	header := []interface{}{
		"מס", "ציון שכונה", "ציון כללי",
		"Address", "Unit", "Price", "Bedrooms", "Bathrooms", "Showers",
		"Living Room Size (1-5)", "Balcony Faces", "Floor Plan PDF", "Notes",
	}
	all := append([][]interface{}{header}, rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("building cell name: %v", err)
		}
		if err := f.SetSheetRow("דירוג", cell, &row); err != nil {
			t.Fatalf("writing row %d: %v", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("serializing workbook: %v", err)
	}
	return buf.Bytes()
}

// multipartBody builds a one-file multipart form for the upload endpoint.
func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

// sessionCookie pulls the session cookie a handler just set; replaying it
// on later requests keeps the tests on one session.
func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == constants.SessionCookieName {
			return c
		}
	}
	t.Fatal("Expected a session cookie on the response")
	return nil
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var errResp utils.ErrorResponse
	decodeJSON(t, rec, &errResp)
	return errResp
}

func TestHealthCheckHandler(t *testing.T) {
	c := NewHealthController(newTestApp(t))

	rec := httptest.NewRecorder()
	c.HealthCheckHandler(rec, httptest.NewRequest("GET", routes.Health, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp dtos.HealthCheckResponse
	decodeJSON(t, rec, &resp)
	if resp.Status != "OK" {
		t.Fatalf("Expected status OK, got %q", resp.Status)
	}
}

func TestListingsEmptyStatePromptsUpload(t *testing.T) {
	c := NewListingsController(newTestApp(t))

	rec := httptest.NewRecorder()
	c.ListHandler(rec, httptest.NewRequest("GET", routes.ListingsBase, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("A missing workbook is the empty state, not an error; got %d", rec.Code)
	}
	sessionCookie(t, rec)

	var resp dtos.ListingsResponse
	decodeJSON(t, rec, &resp)
	if len(resp.Listings) != 0 {
		t.Fatalf("Expected no listings, got %d", len(resp.Listings))
	}
	if len(resp.Warnings) != 1 || !strings.Contains(resp.Warnings[0], "upload an Excel file") {
		t.Fatalf("Expected the upload prompt warning, got %v", resp.Warnings)
	}
}

func TestUploadThenListFlow(t *testing.T) {
	a := newTestApp(t)
	c := NewListingsController(a)

	body, contentType := multipartBody(t, "דירות.xlsx", workbookBytes(t, [][]interface{}{
		{1, 8, 9, "דיזנגוף 99", "דירה 4", "6,000,000", 3, 2, 1, 4, "מערב", "", "קרוב לים"},
		{2, 7, 7, "", "דירה בלי כתובת", "4,000,000"},
		{3, 6, 8, "בן יהודה 5", "", "3,100,000"},
	}))
	req := httptest.NewRequest("POST", routes.ListingsUpload, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	c.UploadHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Upload failed with %d: %s", rec.Code, rec.Body.String())
	}
	ck := sessionCookie(t, rec)

	var status dtos.WorkbookStatusResponse
	decodeJSON(t, rec, &status)
	if status.Workbook != "דירות.xlsx" {
		t.Fatalf("Workbook name: got %q", status.Workbook)
	}
	if status.Loaded != 2 || status.SkippedRows != 1 {
		t.Fatalf("Expected 2 loaded / 1 skipped, got %d / %d", status.Loaded, status.SkippedRows)
	}

	// Same session sees the uploaded records.
	listReq := httptest.NewRequest("GET", routes.ListingsBase, nil)
	listReq.AddCookie(ck)
	listRec := httptest.NewRecorder()
	c.ListHandler(listRec, listReq)

	if listRec.Code != http.StatusOK {
		t.Fatalf("List after upload failed with %d", listRec.Code)
	}
	var resp dtos.ListingsResponse
	decodeJSON(t, listRec, &resp)
	if len(resp.Listings) != 2 {
		t.Fatalf("Expected 2 listings, got %d", len(resp.Listings))
	}
	if resp.Listings[0].Address != "דיזנגוף 99" || resp.Listings[1].Address != "בן יהודה 5" {
		t.Fatalf("Unexpected addresses: %q, %q", resp.Listings[0].Address, resp.Listings[1].Address)
	}
	if resp.SkippedRows != 1 {
		t.Fatalf("Skipped-row counter should survive into the listing, got %d", resp.SkippedRows)
	}

	// A fresh request without the cookie is a fresh session: back to the
	// empty state.
	freshRec := httptest.NewRecorder()
	c.ListHandler(freshRec, httptest.NewRequest("GET", routes.ListingsBase, nil))
	var fresh dtos.ListingsResponse
	decodeJSON(t, freshRec, &fresh)
	if len(fresh.Listings) != 0 {
		t.Fatalf("Uploads must stay session-scoped; fresh session saw %d listings", len(fresh.Listings))
	}
}

func TestUploadRejectsNonWorkbook(t *testing.T) {
	c := NewListingsController(newTestApp(t))

	body, contentType := multipartBody(t, "plan.pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest("POST", routes.ListingsUpload, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	c.UploadHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for a non-.xlsx upload, got %d", rec.Code)
	}
	if errResp := decodeError(t, rec); errResp.Code != utils.ErrCodeInvalidPayload {
		t.Fatalf("Expected %s, got %s", utils.ErrCodeInvalidPayload, errResp.Code)
	}
	t.Logf("Correctly rejected a .pdf pretending to be a workbook")
}

func TestUploadRejectsLegacyXls(t *testing.T) {
	c := NewListingsController(newTestApp(t))

	body, contentType := multipartBody(t, "דירות.xls", []byte{0xD0, 0xCF, 0x11, 0xE0})
	req := httptest.NewRequest("POST", routes.ListingsUpload, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	c.UploadHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for a legacy .xls upload, got %d", rec.Code)
	}
	errResp := decodeError(t, rec)
	if errResp.Code != utils.ErrCodeInvalidPayload {
		t.Fatalf("Expected %s, got %s", utils.ErrCodeInvalidPayload, errResp.Code)
	}
	// The message tells the user the way out, not just "no".
	if !strings.Contains(errResp.Message, ".xls") {
		t.Fatalf("Expected the message to point at .xls, got %q", errResp.Message)
	}
	t.Logf("Correctly rejected with guidance: %s", errResp.Message)
}

func TestUploadBrokenWorkbookKeepsCurrent(t *testing.T) {
	c := NewListingsController(newTestApp(t))

	// First a good upload.
	body, contentType := multipartBody(t, "good.xlsx", workbookBytes(t, [][]interface{}{
		{1, 8, 9, "דיזנגוף 99"},
	}))
	req := httptest.NewRequest("POST", routes.ListingsUpload, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	c.UploadHandler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Good upload failed with %d", rec.Code)
	}
	ck := sessionCookie(t, rec)

	// Then a file with the right extension and broken content.
	badBody, badType := multipartBody(t, "broken.xlsx", []byte("not a zip archive"))
	badReq := httptest.NewRequest("POST", routes.ListingsUpload, badBody)
	badReq.Header.Set("Content-Type", badType)
	badReq.AddCookie(ck)
	badRec := httptest.NewRecorder()
	c.UploadHandler(badRec, badReq)
	if badRec.Code == http.StatusOK {
		t.Fatal("A broken workbook must not be accepted")
	}

	// The previous workbook still serves.
	listReq := httptest.NewRequest("GET", routes.ListingsBase, nil)
	listReq.AddCookie(ck)
	listRec := httptest.NewRecorder()
	c.ListHandler(listRec, listReq)
	var resp dtos.ListingsResponse
	decodeJSON(t, listRec, &resp)
	if len(resp.Listings) != 1 || resp.Listings[0].Address != "דיזנגוף 99" {
		t.Fatalf("A broken upload must not shadow the working workbook; got %+v", resp.Listings)
	}
}

func TestReloadWithoutWorkbook(t *testing.T) {
	c := NewListingsController(newTestApp(t))

	rec := httptest.NewRecorder()
	c.ReloadHandler(rec, httptest.NewRequest("POST", routes.ListingsReload, nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 reloading with no workbook, got %d", rec.Code)
	}
	if errResp := decodeError(t, rec); !strings.Contains(errResp.Message, "upload an Excel file") {
		t.Fatalf("Expected the upload prompt, got %q", errResp.Message)
	}
}

func TestReloadPicksUpWorkbookChanges(t *testing.T) {
	// Seed a workbook on disk and make it the configured default, the way
	// LISTINGS_XLSX does in production.
	path := filepath.Join(t.TempDir(), "listings.xlsx")
	if err := os.WriteFile(path, workbookBytes(t, [][]interface{}{
		{1, 8, 9, "דיזנגוף 99"},
	}), 0o644); err != nil {
		t.Fatalf("writing workbook: %v", err)
	}
	a := app.NewApp(&config.Config{
		AppName:      "apartments-map",
		Env:          "test",
		UploadsDir:   t.TempDir(),
		WorkbookPath: path,
	})
	c := NewListingsController(a)

	listRec := httptest.NewRecorder()
	c.ListHandler(listRec, httptest.NewRequest("GET", routes.ListingsBase, nil))
	ck := sessionCookie(t, listRec)
	var first dtos.ListingsResponse
	decodeJSON(t, listRec, &first)
	if len(first.Listings) != 1 {
		t.Fatalf("Expected 1 listing before the edit, got %d", len(first.Listings))
	}

	// Edit the file on disk; a reload must re-read it.
	if err := os.WriteFile(path, workbookBytes(t, [][]interface{}{
		{1, 8, 9, "דיזנגוף 99"},
		{2, 7, 7, "בן יהודה 5"},
	}), 0o644); err != nil {
		t.Fatalf("rewriting workbook: %v", err)
	}

	reloadReq := httptest.NewRequest("POST", routes.ListingsReload, nil)
	reloadReq.AddCookie(ck)
	reloadRec := httptest.NewRecorder()
	c.ReloadHandler(reloadRec, reloadReq)
	if reloadRec.Code != http.StatusOK {
		t.Fatalf("Reload failed with %d: %s", reloadRec.Code, reloadRec.Body.String())
	}
	var status dtos.WorkbookStatusResponse
	decodeJSON(t, reloadRec, &status)
	if status.Loaded != 2 {
		t.Fatalf("Reload should see the added row, got %d loaded", status.Loaded)
	}
}

func TestNearestRequiresCoordinates(t *testing.T) {
	c := NewListingsController(newTestApp(t))

	rec := httptest.NewRecorder()
	c.NearestHandler(rec, httptest.NewRequest("GET", routes.ListingsNearest+"?lat=abc", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for bad coordinates, got %d", rec.Code)
	}
	if errResp := decodeError(t, rec); errResp.Code != utils.ErrCodeValidation {
		t.Fatalf("Expected %s, got %s", utils.ErrCodeValidation, errResp.Code)
	}
}

func TestNearestWithoutWorkbook(t *testing.T) {
	c := NewListingsController(newTestApp(t))

	rec := httptest.NewRecorder()
	c.NearestHandler(rec, httptest.NewRequest("GET", routes.ListingsNearest+"?lat=32.08&lng=34.78", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 with no workbook, got %d", rec.Code)
	}
}

func TestMapPageRendersShell(t *testing.T) {
	c := NewMapController(newTestApp(t))

	rec := httptest.NewRecorder()
	c.PageHandler(rec, httptest.NewRequest("GET", routes.MapPage, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("Expected an HTML page, got Content-Type %q", ct)
	}
	sessionCookie(t, rec)

	page := rec.Body.String()
	for _, want := range []string{"leaflet", routes.MapData, "OpenTopoMap", "Google Satellite"} {
		if !strings.Contains(page, want) {
			t.Fatalf("Page is missing %q", want)
		}
	}
	// The live page carries no inlined marker payload; it fetches instead.
	if strings.Contains(page, `"markers"`) {
		t.Fatal("Live page must not inline map data")
	}
}

func TestMapDataMissingWorkbookIsEmptyState(t *testing.T) {
	c := NewMapController(newTestApp(t))

	rec := httptest.NewRecorder()
	c.MapDataHandler(rec, httptest.NewRequest("GET", routes.MapData, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Missing workbook must be a 200 empty state, got %d", rec.Code)
	}
	var resp dtos.MapDataResponse
	decodeJSON(t, rec, &resp)
	if len(resp.Markers) != 0 {
		t.Fatalf("Expected no markers, got %d", len(resp.Markers))
	}
	if resp.Center.Latitude != constants.FallbackCenterLat || resp.Center.Longitude != constants.FallbackCenterLng {
		t.Fatalf("Expected the fallback center, got %+v", resp.Center)
	}
	if resp.Zoom != constants.DefaultZoom {
		t.Fatalf("Expected the default zoom, got %d", resp.Zoom)
	}
	if len(resp.Warnings) != 1 || !strings.Contains(resp.Warnings[0], "upload an Excel file") {
		t.Fatalf("Expected the upload prompt warning, got %v", resp.Warnings)
	}
}

func TestMapExportRequiresWorkbook(t *testing.T) {
	c := NewMapController(newTestApp(t))

	rec := httptest.NewRecorder()
	c.ExportHandler(rec, httptest.NewRequest("GET", routes.MapExport, nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Export with nothing loaded should 400, got %d", rec.Code)
	}
	t.Logf("Correctly refused to export an empty map: %s", rec.Body.String())
}

func TestSettingsDefaultsAndUpdate(t *testing.T) {
	a := newTestApp(t)
	c := NewSettingsController(a)

	getRec := httptest.NewRecorder()
	c.GetHandler(getRec, httptest.NewRequest("GET", routes.Settings, nil))
	if getRec.Code != http.StatusOK {
		t.Fatalf("GET settings failed with %d", getRec.Code)
	}
	ck := sessionCookie(t, getRec)

	var defaults dtos.SettingsResponse
	decodeJSON(t, getRec, &defaults)
	if defaults.Mode != "local" {
		t.Fatalf("Expected local mode by default, got %q", defaults.Mode)
	}
	if defaults.HasAPIKey {
		t.Fatal("No API key was configured; has_api_key must be false")
	}

	// Switch to remote with a shareable folder URL; the ID gets extracted.
	putBody := `{"mode":"remote","api_key":" secret-key ","folder":"https://drive.google.com/drive/folders/1AbCdEfGhIjKlMnOpQrStUv?usp=sharing"}`
	putReq := httptest.NewRequest("PUT", routes.Settings, strings.NewReader(putBody))
	putReq.AddCookie(ck)
	putRec := httptest.NewRecorder()
	c.UpdateHandler(putRec, putReq)
	if putRec.Code != http.StatusOK {
		t.Fatalf("PUT settings failed with %d: %s", putRec.Code, putRec.Body.String())
	}

	var updated dtos.SettingsResponse
	decodeJSON(t, putRec, &updated)
	if updated.Mode != "remote" {
		t.Fatalf("Mode: got %q", updated.Mode)
	}
	if updated.FolderID != "1AbCdEfGhIjKlMnOpQrStUv" {
		t.Fatalf("Folder ID must be extracted from the URL, got %q", updated.FolderID)
	}
	if !updated.HasAPIKey {
		t.Fatal("has_api_key must flip to true after setting a key")
	}

	// The key itself never comes back.
	if strings.Contains(putRec.Body.String(), "secret-key") {
		t.Fatal("API key must never appear in a response body")
	}

	// Partial update: only local_root changes, the rest stays.
	rootReq := httptest.NewRequest("PUT", routes.Settings, strings.NewReader(`{"local_root":" /tmp/plans "}`))
	rootReq.AddCookie(ck)
	rootRec := httptest.NewRecorder()
	c.UpdateHandler(rootRec, rootReq)
	var after dtos.SettingsResponse
	decodeJSON(t, rootRec, &after)
	if after.LocalRoot != "/tmp/plans" {
		t.Fatalf("local_root must be trimmed, got %q", after.LocalRoot)
	}
	if after.Mode != "remote" || after.FolderID != "1AbCdEfGhIjKlMnOpQrStUv" || !after.HasAPIKey {
		t.Fatalf("Untouched fields must survive a partial update: %+v", after)
	}
}

func TestSettingsRejectsBadFolder(t *testing.T) {
	c := NewSettingsController(newTestApp(t))

	req := httptest.NewRequest("PUT", routes.Settings, strings.NewReader(`{"folder":"https://example.com/not-drive"}`))
	rec := httptest.NewRecorder()
	c.UpdateHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for an unrecognized folder, got %d", rec.Code)
	}
	if errResp := decodeError(t, rec); !strings.Contains(errResp.Message, "Unrecognized Drive folder") {
		t.Fatalf("Unexpected message: %q", errResp.Message)
	}
	t.Logf("Correctly got error for a non-Drive folder URL")
}

func TestSettingsRejectsUnknownMode(t *testing.T) {
	c := NewSettingsController(newTestApp(t))

	req := httptest.NewRequest("PUT", routes.Settings, strings.NewReader(`{"mode":"ftp"}`))
	rec := httptest.NewRecorder()
	c.UpdateHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for an unknown mode, got %d", rec.Code)
	}
	if errResp := decodeError(t, rec); errResp.Code != utils.ErrCodeValidation {
		t.Fatalf("Expected %s, got %s", utils.ErrCodeValidation, errResp.Code)
	}
}

func TestSettingsBadFolderChangesNothing(t *testing.T) {
	c := NewSettingsController(newTestApp(t))

	// Establish a folder.
	req := httptest.NewRequest("PUT", routes.Settings, strings.NewReader(`{"folder":"1AbCdEfGhIjKlMnOpQrStUv"}`))
	rec := httptest.NewRecorder()
	c.UpdateHandler(rec, req)
	ck := sessionCookie(t, rec)

	// A rejected update mutates nothing, including fields sent alongside.
	badReq := httptest.NewRequest("PUT", routes.Settings, strings.NewReader(`{"mode":"remote","folder":"https://example.com/nope"}`))
	badReq.AddCookie(ck)
	badRec := httptest.NewRecorder()
	c.UpdateHandler(badRec, badReq)
	if badRec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", badRec.Code)
	}

	getReq := httptest.NewRequest("GET", routes.Settings, nil)
	getReq.AddCookie(ck)
	getRec := httptest.NewRecorder()
	c.GetHandler(getRec, getReq)
	var resp dtos.SettingsResponse
	decodeJSON(t, getRec, &resp)
	if resp.Mode != "local" || resp.FolderID != "1AbCdEfGhIjKlMnOpQrStUv" {
		t.Fatalf("Rejected update must leave settings untouched: %+v", resp)
	}
}

// plansFixture drops floor-plan files into a temp dir and points the
// session's local root at it via the settings endpoint.
func plansFixture(t *testing.T, a *app.App, names ...string) *http.Cookie {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("plan-bytes"), 0o644); err != nil {
			t.Fatalf("writing plan %s: %v", name, err)
		}
	}

	c := NewSettingsController(a)
	body, _ := json.Marshal(map[string]string{"local_root": dir})
	req := httptest.NewRequest("PUT", routes.Settings, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	c.UpdateHandler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Settings update failed with %d", rec.Code)
	}
	return sessionCookie(t, rec)
}

func TestDocumentsResolveByAddress(t *testing.T) {
	a := newTestApp(t)
	ck := plansFixture(t, a, "דיזנגוף 99.pdf", "דיזנגוף 99_1.jpg", "בן יהודה 5.jpeg")
	c := NewDocumentsController(a)

	q := url.Values{"address": {"דיזנגוף 99"}}
	req := httptest.NewRequest("GET", routes.DocumentsResolve+"?"+q.Encode(), nil)
	req.AddCookie(ck)
	rec := httptest.NewRecorder()
	c.ResolveHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Resolve failed with %d: %s", rec.Code, rec.Body.String())
	}
	var resp dtos.ResolveDocumentsResponse
	decodeJSON(t, rec, &resp)
	if !resp.HasFloorPlan {
		t.Fatal("Expected a floor plan for this address")
	}
	if len(resp.Documents) != 2 {
		t.Fatalf("Expected 2 documents, got %d", len(resp.Documents))
	}
	if resp.Documents[0].FileName != "דיזנגוף 99.pdf" || resp.Documents[1].FileName != "דיזנגוף 99_1.jpg" {
		t.Fatalf("Wrong order: %q then %q", resp.Documents[0].FileName, resp.Documents[1].FileName)
	}
	if !strings.HasPrefix(resp.Documents[0].ViewURL, routes.DocumentsView+"?") {
		t.Fatalf("ViewURL must route back through the service, got %q", resp.Documents[0].ViewURL)
	}
}

func TestDocumentsResolveNoMatchIsNotAnError(t *testing.T) {
	a := newTestApp(t)
	ck := plansFixture(t, a, "דיזנגוף 99.pdf")
	c := NewDocumentsController(a)

	q := url.Values{"address": {"רחוב אחר 7"}}
	req := httptest.NewRequest("GET", routes.DocumentsResolve+"?"+q.Encode(), nil)
	req.AddCookie(ck)
	rec := httptest.NewRecorder()
	c.ResolveHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("No match must still be a 200, got %d", rec.Code)
	}
	var resp dtos.ResolveDocumentsResponse
	decodeJSON(t, rec, &resp)
	if resp.HasFloorPlan || len(resp.Documents) != 0 {
		t.Fatalf("Expected the no-plan indicator, got %+v", resp)
	}
}

func TestDocumentsResolveRequiresQuery(t *testing.T) {
	c := NewDocumentsController(newTestApp(t))

	rec := httptest.NewRecorder()
	c.ResolveHandler(rec, httptest.NewRequest("GET", routes.DocumentsResolve, nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 without address or reference, got %d", rec.Code)
	}
}

// plansUploadBody builds a multipart form carrying floor-plan files under
// the 'files' field.
func plansUploadBody(t *testing.T, names ...string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range names {
		fw, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("creating form file: %v", err)
		}
		if _, err := fw.Write([]byte("plan-bytes")); err != nil {
			t.Fatalf("writing form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestDocumentsUploadFeedsResolution(t *testing.T) {
	a := newTestApp(t)
	c := NewDocumentsController(a)

	body, contentType := plansUploadBody(t, "ארלוזורוב 8.pdf", "ארלוזורוב 8_1.jpg")
	req := httptest.NewRequest("POST", routes.DocumentsUpload, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	c.UploadHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Upload failed with %d: %s", rec.Code, rec.Body.String())
	}
	var up dtos.UploadPlansResponse
	decodeJSON(t, rec, &up)
	if up.Stored != 2 || len(up.FileNames) != 2 {
		t.Fatalf("Expected 2 stored plans, got %+v", up)
	}
	ck := sessionCookie(t, rec)

	q := url.Values{"address": {"ארלוזורוב 8"}}
	resolveReq := httptest.NewRequest("GET", routes.DocumentsResolve+"?"+q.Encode(), nil)
	resolveReq.AddCookie(ck)
	resolveRec := httptest.NewRecorder()
	c.ResolveHandler(resolveRec, resolveReq)

	var resp dtos.ResolveDocumentsResponse
	decodeJSON(t, resolveRec, &resp)
	if len(resp.Documents) != 2 {
		t.Fatalf("Expected both uploaded plans to resolve, got %d", len(resp.Documents))
	}
	if resp.Documents[0].SourceKind != models.SourceUploaded {
		t.Fatalf("Expected uploaded source kind, got %s", resp.Documents[0].SourceKind)
	}
	if resp.Documents[0].FileName != "ארלוזורוב 8.pdf" {
		t.Fatalf("Expected the unsuffixed pdf first, got %q", resp.Documents[0].FileName)
	}

	viewReq := httptest.NewRequest("GET", resp.Documents[0].ViewURL, nil)
	viewReq.AddCookie(ck)
	viewRec := httptest.NewRecorder()
	c.ViewHandler(viewRec, viewReq)
	if viewRec.Code != http.StatusOK || viewRec.Body.String() != "plan-bytes" {
		t.Fatalf("Expected the uploaded bytes back, got %d %q", viewRec.Code, viewRec.Body.String())
	}
}

func TestDocumentsUploadRejectsUnsupportedType(t *testing.T) {
	c := NewDocumentsController(newTestApp(t))

	body, contentType := plansUploadBody(t, "הערות.txt")
	req := httptest.NewRequest("POST", routes.DocumentsUpload, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	c.UploadHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for a .txt upload, got %d", rec.Code)
	}
	if errResp := decodeError(t, rec); errResp.Code != utils.ErrCodeInvalidPayload {
		t.Fatalf("Expected %s, got %s", utils.ErrCodeInvalidPayload, errResp.Code)
	}
	t.Logf("Correctly rejected a non-plan file")
}

func TestDocumentsViewStreamsInline(t *testing.T) {
	a := newTestApp(t)
	ck := plansFixture(t, a, "דיזנגוף 99.pdf")
	c := NewDocumentsController(a)

	q := url.Values{"address": {"דיזנגוף 99"}, "index": {"0"}}
	req := httptest.NewRequest("GET", routes.DocumentsView+"?"+q.Encode(), nil)
	req.AddCookie(ck)
	rec := httptest.NewRecorder()
	c.ViewHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("View failed with %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("Content-Type: got %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "inline;") {
		t.Fatalf("Expected an inline disposition, got %q", cd)
	}
	body, _ := io.ReadAll(rec.Body)
	if string(body) != "plan-bytes" {
		t.Fatalf("Body: got %q", body)
	}
}

func TestDocumentsDownloadDisposition(t *testing.T) {
	a := newTestApp(t)
	ck := plansFixture(t, a, "דיזנגוף 99.pdf")
	c := NewDocumentsController(a)

	q := url.Values{"address": {"דיזנגוף 99"}}
	req := httptest.NewRequest("GET", routes.DocumentsDownload+"?"+q.Encode(), nil)
	req.AddCookie(ck)
	rec := httptest.NewRecorder()
	c.DownloadHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Download failed with %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") {
		t.Fatalf("Expected an attachment disposition, got %q", cd)
	}
}

func TestDocumentsViewIndexOutOfRange(t *testing.T) {
	a := newTestApp(t)
	ck := plansFixture(t, a, "דיזנגוף 99.pdf")
	c := NewDocumentsController(a)

	q := url.Values{"address": {"דיזנגוף 99"}, "index": {"5"}}
	req := httptest.NewRequest("GET", routes.DocumentsView+"?"+q.Encode(), nil)
	req.AddCookie(ck)
	rec := httptest.NewRecorder()
	c.ViewHandler(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 past the last document, got %d", rec.Code)
	}
	if errResp := decodeError(t, rec); errResp.Code != utils.ErrCodeNotFound {
		t.Fatalf("Expected %s, got %s", utils.ErrCodeNotFound, errResp.Code)
	}
	t.Logf("Correctly got error for an out-of-range index")
}

func TestDocumentsViewRejectsBadIndex(t *testing.T) {
	a := newTestApp(t)
	ck := plansFixture(t, a, "דיזנגוף 99.pdf")
	c := NewDocumentsController(a)

	for _, raw := range []string{"-1", "x"} {
		q := url.Values{"address": {"דיזנגוף 99"}, "index": {raw}}
		req := httptest.NewRequest("GET", routes.DocumentsView+"?"+q.Encode(), nil)
		req.AddCookie(ck)
		rec := httptest.NewRecorder()
		c.ViewHandler(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("index=%q: expected 400, got %d", raw, rec.Code)
		}
	}
}
