package services

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/petroflow/petroflow/modules/marketdata/domain/classification"
	"github.com/petroflow/petroflow/modules/marketdata/domain/entities/marketprice"
	"github.com/petroflow/petroflow/modules/marketdata/infrastructure/feeds"
	"github.com/petroflow/petroflow/pkg/configuration"
	"github.com/petroflow/petroflow/pkg/eventbus"
	"github.com/petroflow/petroflow/pkg/metrics"
)

const defaultCurrency = "USD"

// ImportConfig is the resolved tuning for the ingestion pipeline.
type ImportConfig struct {
	BatchSize    int
	ErrorCeiling int
	Tolerance    decimal.Decimal
	FlushRetries int
	FlushBackoff time.Duration
	MaxFileSize  int64
}

// ImportConfigFromOptions resolves environment options into a typed config.
func ImportConfigFromOptions(opts configuration.ImportOptions, maxFileSize int64) (ImportConfig, error) {
	tolerance, err := decimal.NewFromString(opts.PriceTolerance)
	if err != nil {
		return ImportConfig{}, errors.Wrapf(err, "invalid price tolerance %q", opts.PriceTolerance)
	}
	return ImportConfig{
		BatchSize:    opts.BatchSize,
		ErrorCeiling: opts.ErrorCeiling,
		Tolerance:    tolerance,
		FlushRetries: opts.FlushRetries,
		FlushBackoff: time.Duration(opts.FlushBackoffMS) * time.Millisecond,
		MaxFileSize:  maxFileSize,
	}, nil
}

// PriceImportService runs the ingestion pipeline: open the feed, classify
// its columns, walk the rows and commit price records in batches.
type PriceImportService struct {
	repo       marketprice.Repository
	uow        UnitOfWork
	classifier *classification.Classifier
	publisher  eventbus.EventBus
	logger     *logrus.Logger
	cfg        ImportConfig
}

func NewPriceImportService(
	repo marketprice.Repository,
	uow UnitOfWork,
	classifier *classification.Classifier,
	publisher eventbus.EventBus,
	logger *logrus.Logger,
	cfg ImportConfig,
) *PriceImportService {
	return &PriceImportService{
		repo:       repo,
		uow:        uow,
		classifier: classifier,
		publisher:  publisher,
		logger:     logger,
		cfg:        cfg,
	}
}

// Import executes one ingestion run. Row-level problems accumulate in the
// returned result; the error return is reserved for cancellation and fatal
// commit failures. A structurally unusable file yields a zero-progress
// result, not an error.
func (s *PriceImportService) Import(ctx context.Context, dto *marketprice.ImportUploadDTO) (*marketprice.ImportResult, error) {
	result := marketprice.NewImportResult()
	started := time.Now()

	kind, terminal := s.checkStructure(dto, result)
	if terminal {
		s.finish(dto, kind, result, started)
		return result, nil
	}

	if dto.Overwrite {
		var removed int64
		err := s.uow.Do(ctx, func(txCtx context.Context) error {
			var delErr error
			removed, delErr = s.repo.DeleteAll(txCtx)
			return delErr
		})
		if err != nil {
			return result, errors.Wrap(err, "overwrite purge failed")
		}
		result.AddMessage("Overwrite: removed %d existing records", removed)
	}

	src, err := feeds.Open(dto.FileName, kind, dto.Content)
	if err != nil {
		result.AddError("%v", err)
		s.finish(dto, kind, result, started)
		return result, nil
	}
	for _, skipped := range src.Skipped {
		result.AddMessage("%s", skipped)
	}

	run := &importRun{
		repo:         s.repo,
		uow:          s.uow,
		logger:       s.logger,
		result:       result,
		importedBy:   dto.ImportedBy,
		now:          started,
		tolerance:    s.cfg.Tolerance,
		batchSize:    s.cfg.BatchSize,
		errorCeiling: s.cfg.ErrorCeiling,
		retries:      s.cfg.FlushRetries,
		backoff:      s.cfg.FlushBackoff,
		seen:         map[string]struct{}{},
	}

	for _, sheet := range src.Sheets {
		if run.halted {
			break
		}
		if kind == feeds.FeedKindHistoricalCSV {
			err = s.ingestLong(ctx, run, sheet)
		} else {
			err = s.ingestWide(ctx, run, sheet, kind)
		}
		if err != nil {
			return result, err
		}
	}

	if err := run.flush(ctx); err != nil {
		return result, err
	}

	result.Success = len(result.Errors) == 0
	s.finish(dto, kind, result, started)
	return result, nil
}

// checkStructure validates the upload envelope before any parsing. It
// reports terminal=true when the run cannot proceed at all.
func (s *PriceImportService) checkStructure(dto *marketprice.ImportUploadDTO, result *marketprice.ImportResult) (feeds.FeedKind, bool) {
	kind, err := feeds.ParseFeedKind(dto.FeedKind)
	if err != nil {
		result.AddError("%v", err)
		return "", true
	}
	if len(dto.Content) == 0 {
		result.AddError("uploaded file %s is empty", dto.FileName)
		return kind, true
	}
	if s.cfg.MaxFileSize > 0 && int64(len(dto.Content)) > s.cfg.MaxFileSize {
		result.AddError("uploaded file %s exceeds the %d byte limit", dto.FileName, s.cfg.MaxFileSize)
		return kind, true
	}
	return kind, false
}

type wideColumn struct {
	idx int
	cls classification.Classification
}

// ingestWide walks a date-column-plus-product-columns sheet. Each classified
// column contributes one observation per dated row.
func (s *PriceImportService) ingestWide(ctx context.Context, run *importRun, sheet feeds.Sheet, kind feeds.FeedKind) error {
	dateIdx := resolveDateColumn(sheet.Header)

	columns := make([]wideColumn, 0, len(sheet.Header))
	for i, header := range sheet.Header {
		if i == dateIdx || header == "" {
			continue
		}
		cls, ok := s.classifier.Classify(header)
		if !ok {
			run.result.AddMessage("Unrecognized column skipped: %q (worksheet %s)", header, sheet.Name)
			continue
		}
		columns = append(columns, wideColumn{idx: i, cls: cls})
	}
	if len(columns) == 0 {
		run.result.AddError("worksheet %s (%s) has no classifiable product columns", sheet.Name, sheet.Label)
		return nil
	}

	for rowNum, row := range sheet.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if run.halted {
			return nil
		}
		if dateIdx >= len(row) || strings.TrimSpace(row[dateIdx]) == "" {
			continue
		}
		day, ok := parseRowDate(row[dateIdx])
		if !ok {
			if run.rowError("worksheet %s row %d: unparseable date %q", sheet.Name, rowNum+2, row[dateIdx]) {
				return nil
			}
			continue
		}

		for _, col := range columns {
			if col.idx >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[col.idx])
			if cell == "" {
				continue
			}
			// Placeholder and non-positive cells carry no observation.
			price, ok := parsePriceCell(cell)
			if !ok || !price.IsPositive() {
				run.result.RecordsSkipped++
				continue
			}
			record := s.newRecord(run, col.cls, day, price)
			if err := run.upsert(ctx, record); err != nil {
				return err
			}
		}
	}
	return nil
}

// Long-format column names, matched after normalization. OHLC and volume
// columns are recognized so their presence does not trip the unknown-column
// message, but only the settlement price is ingested.
var (
	longRequired = map[string][]string{
		"code":  {"PRODUCTCODE", "PRODUCT CODE", "PRODUCT_CODE", "CODE", "PRODUCT"},
		"date":  {"PRICEDATE", "PRICE DATE", "PRICE_DATE", "DATE", "TRADE DATE"},
		"price": {"PRICE", "SETTLEMENT", "SETTLEMENT PRICE", "CLOSE", "SETTLE"},
	}
	longOptional = map[string][]string{
		"name":     {"PRODUCTNAME", "PRODUCT NAME", "PRODUCT_NAME", "NAME"},
		"month":    {"CONTRACTMONTH", "CONTRACT MONTH", "CONTRACT_MONTH", "DELIVERY MONTH"},
		"type":     {"PRICETYPE", "PRICE TYPE", "PRICE_TYPE", "TYPE"},
		"currency": {"CURRENCY", "CCY"},
		"unit":     {"UNIT", "UOM"},
		"source":   {"SOURCE", "FEED"},
		"region":   {"REGION", "MARKET"},
	}
	longIgnored = []string{"OPEN", "HIGH", "LOW", "VOLUME", "OPEN INTEREST", "CHANGE"}
)

// ingestLong walks the archive export: one fully-specified observation per
// row. The classifier is bypassed because the product code is explicit.
func (s *PriceImportService) ingestLong(ctx context.Context, run *importRun, sheet feeds.Sheet) error {
	cols := map[string]int{}
	for i, header := range sheet.Header {
		normalized := classification.Normalize(header)
		if normalized == "" {
			continue
		}
		name, known := resolveLongColumn(normalized)
		if !known {
			run.result.AddMessage("Unrecognized column skipped: %q", header)
			continue
		}
		if name == "" {
			continue
		}
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}

	for key := range longRequired {
		if _, ok := cols[key]; !ok {
			run.result.AddError("file %s is missing a required %s column", sheet.Name, key)
			return nil
		}
	}

	cell := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	for rowNum, row := range sheet.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if run.halted {
			return nil
		}
		if rowIsBlank(row) {
			continue
		}

		code := strings.ToUpper(cell(row, "code"))
		if code == "" {
			if run.rowError("row %d: empty product code", rowNum+2) {
				return nil
			}
			continue
		}
		day, ok := parseRowDate(cell(row, "date"))
		if !ok {
			if run.rowError("row %d: unparseable date %q", rowNum+2, cell(row, "date")) {
				return nil
			}
			continue
		}
		price, ok := parsePriceCell(cell(row, "price"))
		if !ok || !price.IsPositive() {
			run.result.RecordsSkipped++
			continue
		}

		month := normalizeContractMonth(cell(row, "month"))
		priceType := marketprice.PriceTypeSpot
		if month != "" {
			priceType = marketprice.PriceTypeFuturesSettlement
		}
		if declared := strings.ToUpper(cell(row, "type")); declared != "" {
			switch {
			case strings.HasPrefix(declared, "FUT"):
				priceType = marketprice.PriceTypeFuturesSettlement
			case strings.HasPrefix(declared, "SPOT"):
				priceType = marketprice.PriceTypeSpot
			}
		}

		currency := strings.ToUpper(cell(row, "currency"))
		if currency == "" {
			currency = defaultCurrency
		}

		record := &marketprice.PriceRecord{
			ID:            uuid.New(),
			ProductCode:   code,
			ProductName:   cell(row, "name"),
			PriceDate:     day,
			ContractMonth: month,
			PriceType:     priceType,
			Price:         price,
			Currency:      currency,
			Unit:          strings.ToUpper(cell(row, "unit")),
			Source:        cell(row, "source"),
			Region:        cell(row, "region"),
			ImportedAt:    run.now,
			ImportedBy:    run.importedBy,
			CreatedAt:     run.now,
			CreatedBy:     run.importedBy,
			UpdatedAt:     run.now,
			UpdatedBy:     run.importedBy,
		}
		if err := run.upsert(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func (s *PriceImportService) newRecord(run *importRun, cls classification.Classification, day time.Time, price decimal.Decimal) *marketprice.PriceRecord {
	return &marketprice.PriceRecord{
		ID:            uuid.New(),
		ProductCode:   cls.ProductCode,
		ProductName:   cls.ProductName,
		PriceDate:     day,
		ContractMonth: cls.ContractMonth,
		PriceType:     cls.PriceType,
		Price:         price,
		Currency:      defaultCurrency,
		Unit:          cls.Unit,
		Source:        cls.Source,
		Region:        cls.Region,
		ImportedAt:    run.now,
		ImportedBy:    run.importedBy,
		CreatedAt:     run.now,
		CreatedBy:     run.importedBy,
		UpdatedAt:     run.now,
		UpdatedBy:     run.importedBy,
	}
}

func rowIsBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// finish records metrics, publishes the completion event and writes the run
// summary to the log. It never fails the run.
func (s *PriceImportService) finish(dto *marketprice.ImportUploadDTO, kind feeds.FeedKind, result *marketprice.ImportResult, started time.Time) {
	outcome := "failed"
	if result.Success {
		outcome = "succeeded"
	}
	metrics.ImportRuns.WithLabelValues(string(kind), outcome).Inc()
	metrics.RecordsCreated.Add(float64(result.RecordsCreated))
	metrics.RecordsUpdated.Add(float64(result.RecordsUpdated))
	metrics.RecordsSkipped.Add(float64(result.RecordsSkipped))

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{
			"file":      dto.FileName,
			"feedKind":  string(kind),
			"created":   result.RecordsCreated,
			"updated":   result.RecordsUpdated,
			"skipped":   result.RecordsSkipped,
			"processed": result.RecordsProcessed,
			"errors":    len(result.Errors),
			"duration":  time.Since(started).String(),
		}).Info("price import finished")
	}

	if s.publisher != nil {
		s.publisher.Publish(&marketprice.ImportCompletedEvent{
			FileName:   dto.FileName,
			FeedKind:   string(kind),
			ImportedBy: dto.ImportedBy,
			Result:     result,
			FinishedAt: time.Now(),
		})
	}
}

var dateHeaderNames = map[string]struct{}{
	"DATE":         {},
	"DAY":          {},
	"PRICE DATE":   {},
	"PRICING DATE": {},
	"TRADE DATE":   {},
}

// resolveDateColumn finds the date column in a wide header, defaulting to
// the first column as the legacy sheets always lead with the date. Matching
// is by exact name first and then by a DATE word, so a product header such
// as "Dated Brent" is never mistaken for the date column.
func resolveDateColumn(header []string) int {
	for i, cell := range header {
		if _, ok := dateHeaderNames[classification.Normalize(cell)]; ok {
			return i
		}
	}
	for i, cell := range header {
		for _, word := range strings.Fields(classification.Normalize(cell)) {
			if word == "DATE" {
				return i
			}
		}
	}
	return 0
}

// resolveLongColumn maps a normalized header to its logical column. An empty
// name with known=true marks an intentionally ignored column.
func resolveLongColumn(normalized string) (string, bool) {
	for name, aliases := range longRequired {
		for _, alias := range aliases {
			if normalized == alias {
				return name, true
			}
		}
	}
	for name, aliases := range longOptional {
		for _, alias := range aliases {
			if normalized == alias {
				return name, true
			}
		}
	}
	for _, alias := range longIgnored {
		if normalized == alias {
			return "", true
		}
	}
	return "", false
}

// normalizeContractMonth accepts either the canonical YYYYMM form or any of
// the header encodings and returns the canonical form, or empty.
func normalizeContractMonth(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	if len(text) == 6 {
		if _, err := time.Parse("200601", text); err == nil {
			return text
		}
	}
	if month, _, ok := classification.ExtractContractMonth("X " + text); ok {
		return month
	}
	return ""
}
