package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"stock_insight/internal/feature/portfolio/domain"
	"stock_insight/internal/feature/portfolio/domain/entity"
)

// CSVHeader is the column layout of an exported transaction log.
var CSVHeader = []string{"id", "executed_at", "symbol", "action", "shares", "price", "total"}

// WriteCSV writes txs with a header row. Decimals are written exactly so
// that ReadCSV followed by Replay reproduces the same holdings.
func WriteCSV(w io.Writer, txs []entity.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, tx := range txs {
		rec := []string{
			tx.ID,
			tx.ExecutedAt.UTC().Format(time.RFC3339Nano),
			tx.Symbol,
			string(tx.Action),
			tx.Shares.String(),
			tx.Price.String(),
			tx.Total.String(),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a log written by WriteCSV. The total column is ignored
// and recomputed on Apply.
func ReadCSV(r io.Reader) ([]entity.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(CSVHeader)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []entity.Transaction{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, col := range CSVHeader {
		if header[i] != col {
			return nil, fmt.Errorf("column %d is %q, want %q: %w", i, header[i], col, domain.ErrInvalidInput)
		}
	}

	txs := []entity.Transaction{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		tx, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func parseRecord(rec []string) (entity.Transaction, error) {
	at, err := time.Parse(time.RFC3339Nano, rec[1])
	if err != nil {
		return entity.Transaction{}, fmt.Errorf("executed_at %q: %w", rec[1], domain.ErrInvalidInput)
	}
	action, err := entity.ParseAction(rec[3])
	if err != nil {
		return entity.Transaction{}, err
	}
	shares, err := decimal.NewFromString(rec[4])
	if err != nil {
		return entity.Transaction{}, fmt.Errorf("shares %q: %w", rec[4], domain.ErrInvalidInput)
	}
	price, err := decimal.NewFromString(rec[5])
	if err != nil {
		return entity.Transaction{}, fmt.Errorf("price %q: %w", rec[5], domain.ErrInvalidInput)
	}
	return entity.Transaction{
		ID:         rec[0],
		ExecutedAt: at,
		Symbol:     rec[2],
		Action:     action,
		Shares:     shares,
		Price:      price,
	}, nil
}
