package driven

import "context"

// SheetAPI is the raw contract of the remote tabular source. There is no
// "rows since cursor" query; GetRows returns every data row on each call
// and the engine computes the delta itself.
//
// Implementations translate transport failures into the domain taxonomy:
// domain.ErrSourceNotFound / ErrWorksheetNotFound / ErrAccessRevoked for
// permanent failures, domain.ErrRateLimited / ErrUnavailable for
// transient ones. Retry and rate limiting live in services.SourceClient,
// not here.
type SheetAPI interface {
	// ListWorksheets returns the names of all worksheets inside a source,
	// in the source's own order.
	ListWorksheets(ctx context.Context, sourceID string) ([]string, error)

	// GetHeader returns the header row of a worksheet.
	GetHeader(ctx context.Context, sourceID, worksheet string) ([]string, error)

	// GetRows returns all data rows of a worksheet (header excluded) in
	// append order.
	GetRows(ctx context.Context, sourceID, worksheet string) ([][]string, error)
}
