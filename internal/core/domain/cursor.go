package domain

// CursorKey identifies the high-water mark for one worksheet of one
// subscription. Cursors count delivered data rows (header excluded), so a
// cursor of N means rows 1..N have already been delivered.
type CursorKey struct {
	TenantID  string
	SourceID  string
	Worksheet string
}

// SheetData is the transient result of fetching one worksheet: the header
// row plus every data row in the source's append order. It is never
// persisted; the diff between len(Rows) and the stored cursor determines
// the rows still to deliver.
type SheetData struct {
	Headers []string
	Rows    [][]string
}

// NewRows returns the rows past the given cursor position. A cursor at or
// beyond the end yields nil, including the case where the remote shrank.
func (d *SheetData) NewRows(cursor int) [][]string {
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= len(d.Rows) {
		return nil
	}
	return d.Rows[cursor:]
}
