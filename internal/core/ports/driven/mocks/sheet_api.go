package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/rowfeed/internal/core/domain"
)

// MockSheetAPI is a mock implementation of SheetAPI for testing. Sources
// are set up with Put; per-call errors are scripted with the *Errs queues
// so tests can fail the first N attempts and then succeed.
type MockSheetAPI struct {
	mu     sync.Mutex
	sheets map[string]map[string]*domain.SheetData
	order  map[string][]string

	// Error injection: a non-nil *Err fails every call, the *Errs queue
	// is consumed one error per call (nil entries mean success).
	ListErr  error
	FetchErr error
	ListErrs []error
	RowsErrs []error

	ListCalls int
	RowsCalls int
}

// NewMockSheetAPI creates a new MockSheetAPI
func NewMockSheetAPI() *MockSheetAPI {
	return &MockSheetAPI{
		sheets: make(map[string]map[string]*domain.SheetData),
		order:  make(map[string][]string),
	}
}

// Put registers worksheet data for a source.
func (m *MockSheetAPI) Put(sourceID, worksheet string, headers []string, rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sheets[sourceID] == nil {
		m.sheets[sourceID] = make(map[string]*domain.SheetData)
	}
	if _, ok := m.sheets[sourceID][worksheet]; !ok {
		m.order[sourceID] = append(m.order[sourceID], worksheet)
	}
	m.sheets[sourceID][worksheet] = &domain.SheetData{Headers: headers, Rows: rows}
}

// AppendRow appends one data row to a worksheet.
func (m *MockSheetAPI) AppendRow(sourceID, worksheet string, row []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data := m.sheets[sourceID][worksheet]
	data.Rows = append(data.Rows, row)
}

func (m *MockSheetAPI) ListWorksheets(ctx context.Context, sourceID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalls++
	if len(m.ListErrs) > 0 {
		err := m.ListErrs[0]
		m.ListErrs = m.ListErrs[1:]
		if err != nil {
			return nil, err
		}
	} else if m.ListErr != nil {
		return nil, m.ListErr
	}
	if _, ok := m.sheets[sourceID]; !ok {
		return nil, domain.ErrSourceNotFound
	}
	return append([]string(nil), m.order[sourceID]...), nil
}

func (m *MockSheetAPI) GetHeader(ctx context.Context, sourceID, worksheet string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, err := m.lookup(sourceID, worksheet)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), data.Headers...), nil
}

func (m *MockSheetAPI) GetRows(ctx context.Context, sourceID, worksheet string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RowsCalls++
	if len(m.RowsErrs) > 0 {
		err := m.RowsErrs[0]
		m.RowsErrs = m.RowsErrs[1:]
		if err != nil {
			return nil, err
		}
	} else if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	data, err := m.lookup(sourceID, worksheet)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, len(data.Rows))
	copy(rows, data.Rows)
	return rows, nil
}

func (m *MockSheetAPI) lookup(sourceID, worksheet string) (*domain.SheetData, error) {
	source, ok := m.sheets[sourceID]
	if !ok {
		return nil, domain.ErrSourceNotFound
	}
	data, ok := source[worksheet]
	if !ok {
		return nil, domain.ErrWorksheetNotFound
	}
	return data, nil
}
