package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/petroflow/petroflow/modules/marketdata/domain/entities/marketprice"
	"github.com/petroflow/petroflow/modules/marketdata/services"
	"github.com/petroflow/petroflow/pkg/application"
	"github.com/petroflow/petroflow/pkg/configuration"
)

const dateLayout = "2006-01-02"

// MarketPriceController exposes the price store and the import pipeline over
// HTTP. All payloads are JSON; uploads are multipart form data.
type MarketPriceController struct {
	app      application.Application
	prices   *services.MarketPriceService
	importer *services.PriceImportService
	basePath string
}

func NewMarketPriceController(app application.Application) application.Controller {
	return &MarketPriceController{
		app:      app,
		prices:   app.Service(services.MarketPriceService{}).(*services.MarketPriceService),
		importer: app.Service(services.PriceImportService{}).(*services.PriceImportService),
		basePath: "/market-data/api",
	}
}

func (c *MarketPriceController) Key() string {
	return c.basePath
}

func (c *MarketPriceController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/prices", c.List).Methods(http.MethodGet)
	router.HandleFunc("/prices/count", c.Count).Methods(http.MethodGet)
	router.HandleFunc("/prices/import", c.Import).Methods(http.MethodPost)
	router.HandleFunc("/prices", c.DeleteAll).Methods(http.MethodDelete)
	router.HandleFunc("/prices/product/{code}", c.DeleteByProduct).Methods(http.MethodDelete)
	router.HandleFunc("/prices/range", c.DeleteByDateRange).Methods(http.MethodDelete)
}

type priceViewModel struct {
	ID            string          `json:"id"`
	ProductCode   string          `json:"productCode"`
	ProductName   string          `json:"productName,omitempty"`
	PriceDate     string          `json:"priceDate"`
	ContractMonth string          `json:"contractMonth,omitempty"`
	PriceType     string          `json:"priceType"`
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency"`
	Unit          string          `json:"unit,omitempty"`
	Source        string          `json:"source,omitempty"`
	Region        string          `json:"region,omitempty"`
	ImportedAt    time.Time       `json:"importedAt"`
	ImportedBy    string          `json:"importedBy,omitempty"`
}

func toViewModel(record *marketprice.PriceRecord) priceViewModel {
	return priceViewModel{
		ID:            record.ID.String(),
		ProductCode:   record.ProductCode,
		ProductName:   record.ProductName,
		PriceDate:     record.PriceDate.Format(dateLayout),
		ContractMonth: record.ContractMonth,
		PriceType:     string(record.PriceType),
		Price:         record.Price,
		Currency:      record.Currency,
		Unit:          record.Unit,
		Source:        record.Source,
		Region:        record.Region,
		ImportedAt:    record.ImportedAt,
		ImportedBy:    record.ImportedBy,
	}
}

func (c *MarketPriceController) List(w http.ResponseWriter, r *http.Request) {
	params, err := findParamsFromQuery(r)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "MARKETDATA_BAD_QUERY", err.Error())
		return
	}

	records, err := c.prices.GetPaginated(r.Context(), params)
	if err != nil {
		c.app.Logger().WithError(err).Error("price list failed")
		writeAPIError(w, http.StatusInternalServerError, "MARKETDATA_INTERNAL", "internal error")
		return
	}

	items := make([]priceViewModel, 0, len(records))
	for _, record := range records {
		items = append(items, toViewModel(record))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (c *MarketPriceController) Count(w http.ResponseWriter, r *http.Request) {
	count, err := c.prices.Count(r.Context())
	if err != nil {
		c.app.Logger().WithError(err).Error("price count failed")
		writeAPIError(w, http.StatusInternalServerError, "MARKETDATA_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": count})
}

// Import accepts a multipart upload with fields "file" and "feedKind" plus
// the optional "overwrite" flag. The run summary is returned regardless of
// row-level failures; only cancellation and commit exhaustion surface as 500.
func (c *MarketPriceController) Import(w http.ResponseWriter, r *http.Request) {
	maxUpload := configuration.Use().MaxUploadSize
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeAPIError(w, http.StatusRequestEntityTooLarge, "MARKETDATA_UPLOAD_TOO_LARGE", "upload exceeds the size limit")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "MARKETDATA_MISSING_FILE", "multipart field \"file\" is required")
		return
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "MARKETDATA_UNREADABLE_FILE", "failed to read uploaded file")
		return
	}

	importedBy := strings.TrimSpace(r.FormValue("importedBy"))
	if importedBy == "" {
		importedBy = "api"
	}

	dto := &marketprice.ImportUploadDTO{
		FileName:   header.Filename,
		FeedKind:   r.FormValue("feedKind"),
		ImportedBy: importedBy,
		Overwrite:  r.FormValue("overwrite") == "true",
		Content:    content,
	}
	if errs, ok := dto.Ok(r.Context()); !ok {
		writeAPIError(w, http.StatusUnprocessableEntity, "MARKETDATA_VALIDATION_FAILED", errs.Error())
		return
	}

	result, err := c.importer.Import(r.Context(), dto)
	if err != nil {
		c.app.Logger().WithError(err).Error("price import failed")
		writeAPIError(w, http.StatusInternalServerError, "MARKETDATA_IMPORT_FAILED", "import failed")
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

func (c *MarketPriceController) DeleteAll(w http.ResponseWriter, r *http.Request) {
	removed, err := c.prices.DeleteAll(r.Context(), purgedBy(r))
	if err != nil {
		c.app.Logger().WithError(err).Error("price purge failed")
		writeAPIError(w, http.StatusInternalServerError, "MARKETDATA_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

func (c *MarketPriceController) DeleteByProduct(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(mux.Vars(r)["code"]))
	if code == "" {
		writeAPIError(w, http.StatusBadRequest, "MARKETDATA_BAD_PRODUCT", "product code is required")
		return
	}
	removed, err := c.prices.DeleteByProduct(r.Context(), code, purgedBy(r))
	if err != nil {
		c.app.Logger().WithError(err).Error("price purge failed")
		writeAPIError(w, http.StatusInternalServerError, "MARKETDATA_INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

func (c *MarketPriceController) DeleteByDateRange(w http.ResponseWriter, r *http.Request) {
	var body struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeAPIError(w, http.StatusBadRequest, "MARKETDATA_INVALID_JSON", "invalid json")
		return
	}
	from, err := time.Parse(dateLayout, body.From)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "MARKETDATA_BAD_DATE", "from must be YYYY-MM-DD")
		return
	}
	to, err := time.Parse(dateLayout, body.To)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "MARKETDATA_BAD_DATE", "to must be YYYY-MM-DD")
		return
	}

	dto := &marketprice.DeleteRangeDTO{From: from, To: to}
	removed, err := c.prices.DeleteByDateRange(r.Context(), dto, purgedBy(r))
	if err != nil {
		writeAPIError(w, http.StatusUnprocessableEntity, "MARKETDATA_VALIDATION_FAILED", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

func purgedBy(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("X-Requested-By")); v != "" {
		return v
	}
	return "api"
}

func findParamsFromQuery(r *http.Request) (*marketprice.FindParams, error) {
	q := r.URL.Query()
	params := &marketprice.FindParams{
		ProductCode:   strings.ToUpper(strings.TrimSpace(q.Get("product"))),
		ContractMonth: strings.TrimSpace(q.Get("contractMonth")),
		Limit:         100,
	}

	if v := strings.TrimSpace(q.Get("type")); v != "" {
		switch strings.ToUpper(v) {
		case string(marketprice.PriceTypeSpot):
			params.PriceType = marketprice.PriceTypeSpot
		case string(marketprice.PriceTypeFuturesSettlement):
			params.PriceType = marketprice.PriceTypeFuturesSettlement
		default:
			return nil, fmt.Errorf("unknown price type %q", v)
		}
	}
	if v := strings.TrimSpace(q.Get("from")); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return nil, err
		}
		params.From = &t
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return nil, err
		}
		params.To = &t
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 || limit > 1000 {
			return nil, fmt.Errorf("limit must be between 1 and 1000")
		}
		params.Limit = limit
	}
	if v := strings.TrimSpace(q.Get("offset")); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return nil, fmt.Errorf("offset must not be negative")
		}
		params.Offset = offset
	}
	return params, nil
}
