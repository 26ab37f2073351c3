package google

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const mimePDF = "application/pdf"

// InvoiceService fills a Google Docs invoice template and stores the
// resulting document and its PDF in Drive.
type InvoiceService struct {
	drive  *drive.Service
	docs   *docs.Service
	logger *slog.Logger
}

// GeneratedInvoice identifies the files created for one invoice.
type GeneratedInvoice struct {
	DocID   string
	PDFID   string
	PDFLink string
}

// NewInvoiceService creates the Drive and Docs services.
func NewInvoiceService(ctx context.Context, logger *slog.Logger, httpClient *http.Client) (*InvoiceService, error) {
	driveService, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	docsService, err := docs.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create docs service: %w", err)
	}
	return &InvoiceService{drive: driveService, docs: docsService, logger: logger}, nil
}

// Generate copies the template into folderID as "Facture - <client>",
// replaces every placeholder, exports the document to PDF and uploads the
// PDF into the same folder.
func (s *InvoiceService) Generate(ctx context.Context, templateID, folderID, client string, replacements map[string]string) (GeneratedInvoice, error) {
	name := "Facture - " + client

	doc, err := s.drive.Files.Copy(templateID, &drive.File{Name: name, Parents: []string{folderID}}).
		Context(ctx).
		Do()
	if err != nil {
		return GeneratedInvoice{}, fmt.Errorf("failed to copy invoice template: %w", err)
	}
	if doc.Id == "" {
		return GeneratedInvoice{}, errors.New("template copy returned no document id")
	}
	s.logger.Info("Copied invoice template.", "client", client, "docID", doc.Id)

	_, err = s.docs.Documents.BatchUpdate(doc.Id, &docs.BatchUpdateDocumentRequest{
		Requests: replaceRequests(replacements),
	}).Context(ctx).Do()
	if err != nil {
		return GeneratedInvoice{}, fmt.Errorf("failed to fill invoice template: %w", err)
	}

	resp, err := s.drive.Files.Export(doc.Id, mimePDF).Context(ctx).Download()
	if err != nil {
		return GeneratedInvoice{}, fmt.Errorf("failed to export invoice to pdf: %w", err)
	}
	defer resp.Body.Close()
	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return GeneratedInvoice{}, fmt.Errorf("failed to read exported pdf: %w", err)
	}

	file, err := s.drive.Files.Create(&drive.File{Name: name + ".pdf", Parents: []string{folderID}}).
		Media(bytes.NewReader(pdf), googleapi.ContentType(mimePDF)).
		Fields("id", "webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return GeneratedInvoice{}, fmt.Errorf("failed to upload invoice pdf: %w", err)
	}

	s.logger.Info("Invoice generated.", "client", client, "pdfID", file.Id)
	return GeneratedInvoice{DocID: doc.Id, PDFID: file.Id, PDFLink: file.WebViewLink}, nil
}

// replaceRequests builds one case-sensitive replaceAllText request per
// placeholder, in a stable order.
func replaceRequests(replacements map[string]string) []*docs.Request {
	keys := make([]string, 0, len(replacements))
	for k := range replacements {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	requests := make([]*docs.Request, 0, len(keys))
	for _, k := range keys {
		requests = append(requests, &docs.Request{
			ReplaceAllText: &docs.ReplaceAllTextRequest{
				ContainsText: &docs.SubstringMatchCriteria{Text: k, MatchCase: true},
				ReplaceText:  replacements[k],
			},
		})
	}
	return requests
}
