package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"

	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/dtos"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/models"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/routes"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/state"
	"github.com/kbenyehuda/MomsApartmentsMapApp/internal/utils"
)

// DocumentsService answers the floor-plan endpoints. Documents are always
// re-resolved server-side from (address, reference); clients never hand us
// file paths, so there is nothing to traverse.
type DocumentsService struct {
	resolver *ResolverService
	drive    *DriveService
}

func NewDocumentsService(resolver *ResolverService, drive *DriveService) *DocumentsService {
	return &DocumentsService{resolver: resolver, drive: drive}
}

// ResolveForRecord runs the matching policy for one record's keys and
// shapes the result for display. An empty set is a normal answer.
func (s *DocumentsService) ResolveForRecord(ctx context.Context, sess *state.Session, address, reference string) dtos.ResolveDocumentsResponse {
	rec := models.ApartmentRecord{Address: address, DocumentReference: reference}
	docs := s.resolver.Resolve(ctx, rec, sess)
	return dtos.ResolveDocumentsResponse{
		Address:      address,
		Documents:    DocumentDTOs(address, reference, docs),
		HasFloorPlan: len(docs) > 0,
	}
}

// OpenDocument re-resolves the record and streams the index-th match.
// The caller owns the reader.
func (s *DocumentsService) OpenDocument(ctx context.Context, sess *state.Session, address, reference string, index int) (io.ReadCloser, *models.ResolvedDocument, error) {
	rec := models.ApartmentRecord{Address: address, DocumentReference: reference}
	docs := s.resolver.Resolve(ctx, rec, sess)
	if index < 0 || index >= len(docs) {
		return nil, nil, utils.ErrDocumentNotFound
	}
	doc := docs[index]

	switch doc.SourceKind {
	case models.SourceRemoteFolder:
		settings := sess.Settings()
		body, err := s.drive.Download(ctx, settings.APIKey, doc.ResolvedLocator)
		if err != nil {
			return nil, nil, fmt.Errorf("downloading %s: %w", doc.FileName, err)
		}
		return body, &doc, nil
	default:
		f, err := os.Open(doc.ResolvedLocator)
		if err != nil {
			return nil, nil, fmt.Errorf("opening %s: %w", doc.FileName, err)
		}
		return f, &doc, nil
	}
}

// DocumentDTOs attaches service URLs to resolved documents. The index is
// positional within this record's deterministic resolution order, which is
// what the view/download endpoints replay.
func DocumentDTOs(address, reference string, docs []models.ResolvedDocument) []dtos.DocumentDTO {
	out := make([]dtos.DocumentDTO, 0, len(docs))
	for i, doc := range docs {
		q := url.Values{}
		q.Set("address", address)
		if reference != "" {
			q.Set("reference", reference)
		}
		q.Set("index", strconv.Itoa(i))

		out = append(out, dtos.DocumentDTO{
			Index:           i,
			FileName:        doc.FileName,
			SourceKind:      doc.SourceKind,
			MimeHint:        doc.MimeHint,
			ViewURL:         routes.DocumentsView + "?" + q.Encode(),
			DownloadURL:     routes.DocumentsDownload + "?" + q.Encode(),
			DrivePreviewURL: doc.PreviewURL,
			DriveViewURL:    doc.ViewURL,
		})
	}
	return out
}
