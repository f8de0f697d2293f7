package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yusufsyaifudin/layang/config"
	"github.com/yusufsyaifudin/layang/pkg/validator"
)

// Ingestor parses raw CSV input into a Table and enforces the presence of the
// three mandatory logical columns: to, entity name and invoice number.
type Ingestor struct {
	Columns config.Columns `validate:"required"`
}

func NewIngestor(columns config.Columns) (*Ingestor, error) {
	ing := &Ingestor{Columns: columns}

	err := validator.Validate(ing)
	if err != nil {
		err = fmt.Errorf("ingestor config error: %w", err)
		return nil, err
	}

	return ing, nil
}

// IngestFile reads and parses the CSV at path.
// Returns *NotFoundError when the path does not exist.
func (i *Ingestor) IngestFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &NotFoundError{Path: path}
	}

	if err != nil {
		return nil, fmt.Errorf("cannot open csv file %s: %w", path, err)
	}

	defer func() {
		_ = f.Close()
	}()

	return i.Ingest(f)
}

// Ingest parses CSV content from r. The first record is the header, every
// later record becomes one Row. Short records are padded with empty strings
// so the uniform-column-set invariant holds; long records fail as a
// *FormatError through encoding/csv itself.
func (i *Ingestor) Ingest(r io.Reader) (*Table, error) {
	cr := csv.NewReader(newBOMSkippingReader(r))
	cr.FieldsPerRecord = -1 // ragged rows are normalized below, not rejected

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &FormatError{Err: fmt.Errorf("empty csv input")}
	}

	if err != nil {
		return nil, &FormatError{Err: err}
	}

	columns := make([]string, 0, len(header))
	for _, col := range header {
		columns = append(columns, strings.TrimSpace(col))
	}

	rows := make([]Row, 0)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, &FormatError{Err: err}
		}

		row := make(Row, len(columns))
		for idx, col := range columns {
			val := ""
			if idx < len(record) {
				val = strings.TrimSpace(record[idx])
			}

			row[col] = val
		}

		rows = append(rows, row)
	}

	table := &Table{
		Columns: columns,
		Rows:    rows,
	}

	err = i.checkSchema(table)
	if err != nil {
		return nil, err
	}

	return table, nil
}

// CheckSchema re-validates an already built table, used when rows come back
// edited from the spreadsheet editor instead of a CSV file.
func (i *Ingestor) CheckSchema(t *Table) error {
	return i.checkSchema(t)
}

func (i *Ingestor) checkSchema(t *Table) error {
	required := []string{
		i.Columns.To,
		i.Columns.EntityName,
		i.Columns.InvoiceNumber,
	}

	missing := make([]string, 0)
	for _, col := range required {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		return &SchemaError{
			Missing: missing,
			Present: t.Columns,
		}
	}

	return nil
}
