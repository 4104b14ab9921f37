// Package dataloader reads historical market observations from CSV files.
//
// Files carry one bar per row with columns symbol, time, open, high, low,
// close, volume and an optional implied_volatility column. Rows that cannot
// be parsed are skipped with a warning instead of failing the whole load.
package dataloader

import (
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"

	"github.com/quantfold/volarb/internal/logger"
	"github.com/quantfold/volarb/internal/types"
	"github.com/quantfold/volarb/pkg/errors"
)

// timeLayouts are tried in order when parsing the time column.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// csvTime parses leniently: an unparseable value stays zero and the loader
// drops the row.
type csvTime struct {
	time.Time
}

func (t *csvTime) UnmarshalCSV(value string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			t.Time = parsed

			return nil
		}
	}

	return nil
}

// csvFloat distinguishes a parsed value from a missing or malformed one.
type csvFloat struct {
	value float64
	valid bool
}

func (f *csvFloat) UnmarshalCSV(value string) error {
	if value == "" {
		return nil
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}

	f.value = parsed
	f.valid = true

	return nil
}

type csvRow struct {
	Symbol            string   `csv:"symbol"`
	Time              csvTime  `csv:"time"`
	Open              csvFloat `csv:"open"`
	High              csvFloat `csv:"high"`
	Low               csvFloat `csv:"low"`
	Close             csvFloat `csv:"close"`
	Volume            csvFloat `csv:"volume"`
	ImpliedVolatility csvFloat `csv:"implied_volatility"`
}

// Loader reads observation history from CSV sources.
type Loader struct {
	logger *logger.Logger
}

// New creates a loader. A nil logger disables warnings.
func New(log *logger.Logger) *Loader {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Loader{logger: log}
}

// LoadFile reads observations for the given symbol from a CSV file. The
// symbol argument fills rows whose symbol column is empty or missing.
func (l *Loader) LoadFile(path, symbol string) ([]types.Observation, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMissingData, err, "failed to open CSV file %s", path)
	}
	defer file.Close()

	observations, err := l.Load(file, symbol)
	if err != nil {
		return nil, errors.Wrapf(errors.GetCode(err), err, "failed to load CSV file %s", path)
	}

	return observations, nil
}

// Load reads observations from the reader, dropping rows without a valid
// timestamp or close price. The result is sorted chronologically.
func (l *Loader) Load(r io.Reader, symbol string) ([]types.Observation, error) {
	var rows []csvRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataParse, "failed to parse CSV", err)
	}

	observations := make([]types.Observation, 0, len(rows))

	for i, row := range rows {
		if row.Time.IsZero() || !row.Close.valid {
			l.logger.Warn("skipping unparsable CSV row",
				zap.Int("row", i+1),
				zap.String("symbol", symbol),
			)

			continue
		}

		rowSymbol := row.Symbol
		if rowSymbol == "" {
			rowSymbol = symbol
		}

		obs := types.Observation{
			Symbol: rowSymbol,
			Time:   row.Time.Time,
			Open:   row.Open.value,
			High:   row.High.value,
			Low:    row.Low.value,
			Close:  row.Close.value,
			Volume: row.Volume.value,
		}

		if row.ImpliedVolatility.valid && row.ImpliedVolatility.value > 0 {
			obs = obs.WithAux(types.AuxImpliedVolatility, row.ImpliedVolatility.value)
		}

		observations = append(observations, obs)
	}

	sort.SliceStable(observations, func(i, j int) bool {
		return observations[i].Time.Before(observations[j].Time)
	})

	return observations, nil
}
