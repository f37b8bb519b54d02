package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/petroflow/petroflow/modules/marketdata/domain/classification"
	"github.com/petroflow/petroflow/modules/marketdata/domain/entities/marketprice"
	"github.com/petroflow/petroflow/modules/marketdata/services"
	"github.com/petroflow/petroflow/pkg/application"
)

type fakeRepo struct {
	records map[string]*marketprice.PriceRecord
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: map[string]*marketprice.PriceRecord{}}
}

func (f *fakeRepo) seed(code string, day time.Time, price string) {
	record := &marketprice.PriceRecord{
		ID:          uuid.New(),
		ProductCode: code,
		PriceDate:   day,
		PriceType:   marketprice.PriceTypeSpot,
		Price:       decimal.RequireFromString(price),
		Currency:    "USD",
	}
	f.records[record.Key()] = record
}

func (f *fakeRepo) GetByKey(_ context.Context, productCode, contractMonth string, date time.Time, priceType marketprice.PriceType) (*marketprice.PriceRecord, error) {
	probe := &marketprice.PriceRecord{ProductCode: productCode, ContractMonth: contractMonth, PriceDate: date, PriceType: priceType}
	if record, ok := f.records[probe.Key()]; ok {
		return record, nil
	}
	return nil, marketprice.ErrNotFound
}

func (f *fakeRepo) GetSpotByProductAndDate(ctx context.Context, productCode string, date time.Time) (*marketprice.PriceRecord, error) {
	return f.GetByKey(ctx, productCode, "", date, marketprice.PriceTypeSpot)
}

func (f *fakeRepo) GetPaginated(_ context.Context, params *marketprice.FindParams) ([]*marketprice.PriceRecord, error) {
	out := []*marketprice.PriceRecord{}
	for _, record := range f.records {
		if params.ProductCode != "" && record.ProductCode != params.ProductCode {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

func (f *fakeRepo) GetAll(_ context.Context) ([]*marketprice.PriceRecord, error) {
	out := []*marketprice.PriceRecord{}
	for _, record := range f.records {
		out = append(out, record)
	}
	return out, nil
}

func (f *fakeRepo) Create(_ context.Context, record *marketprice.PriceRecord) error {
	clone := *record
	f.records[record.Key()] = &clone
	return nil
}

func (f *fakeRepo) UpdatePrice(_ context.Context, id uuid.UUID, price decimal.Decimal, updatedBy string) error {
	for _, record := range f.records {
		if record.ID == id {
			record.Price = price
			record.UpdatedBy = updatedBy
			return nil
		}
	}
	return marketprice.ErrNotFound
}

func (f *fakeRepo) DeleteAll(_ context.Context) (int64, error) {
	n := int64(len(f.records))
	f.records = map[string]*marketprice.PriceRecord{}
	return n, nil
}

func (f *fakeRepo) DeleteByDateRange(_ context.Context, from, to time.Time) (int64, error) {
	var n int64
	for key, record := range f.records {
		if !record.PriceDate.Before(from) && !record.PriceDate.After(to) {
			delete(f.records, key)
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) DeleteByProduct(_ context.Context, productCode string) (int64, error) {
	var n int64
	for key, record := range f.records {
		if record.ProductCode == productCode {
			delete(f.records, key)
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) Count(_ context.Context) (int64, error) {
	return int64(len(f.records)), nil
}

type directUnitOfWork struct{}

func (directUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestRouter(t *testing.T, repo *fakeRepo) *mux.Router {
	t.Helper()

	logger := logrus.New()
	app := application.New(nil, logger, nil)

	cfg := services.ImportConfig{
		BatchSize:    100,
		ErrorCeiling: 50,
		Tolerance:    decimal.RequireFromString("0.0001"),
		FlushRetries: 3,
		FlushBackoff: time.Millisecond,
		MaxFileSize:  1 << 20,
	}
	classifier := classification.NewClassifier(classification.DefaultRuleSet())
	app.RegisterServices(
		services.NewMarketPriceService(repo, directUnitOfWork{}, nil),
		services.NewPriceImportService(repo, directUnitOfWork{}, classifier, nil, logger, cfg),
	)

	r := mux.NewRouter()
	NewMarketPriceController(app).Register(r)
	return r
}

func multipartUpload(t *testing.T, fileName, feedKind string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("feedKind", feedKind))
	require.NoError(t, mw.WriteField("importedBy", "tester"))
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestImportEndpoint(t *testing.T) {
	repo := newFakeRepo()
	router := newTestRouter(t, repo)

	body, contentType := multipartUpload(t, "prices.csv", "unified-csv", []byte("Date,Brent\n2025-11-03,85.40\n"))
	req := httptest.NewRequest(http.MethodPost, "/market-data/api/prices/import", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result marketprice.ImportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.True(t, result.Success)
	require.Equal(t, 1, result.RecordsCreated)
	require.Len(t, repo.records, 1)
}

func TestImportEndpointRejectsMissingFile(t *testing.T) {
	router := newTestRouter(t, newFakeRepo())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("feedKind", "unified-csv"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/market-data/api/prices/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "MARKETDATA_MISSING_FILE")
}

func TestImportEndpointReportsRunFailures(t *testing.T) {
	router := newTestRouter(t, newFakeRepo())

	body, contentType := multipartUpload(t, "prices.csv", "streaming", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/market-data/api/prices/import", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var result marketprice.ImportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.False(t, result.Success)
	require.NotEmpty(t, result.Errors)
}

func TestListEndpointFiltersByProduct(t *testing.T) {
	day := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	repo.seed("BRENT", day, "85.4")
	repo.seed("WTI", day, "81.1")
	router := newTestRouter(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/market-data/api/prices?product=brent", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Items []priceViewModel `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Items, 1)
	require.Equal(t, "BRENT", payload.Items[0].ProductCode)
	require.Equal(t, "2025-11-03", payload.Items[0].PriceDate)
}

func TestListEndpointRejectsBadQuery(t *testing.T) {
	router := newTestRouter(t, newFakeRepo())

	req := httptest.NewRequest(http.MethodGet, "/market-data/api/prices?limit=9999", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteEndpoints(t *testing.T) {
	day := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	repo.seed("BRENT", day, "85.4")
	repo.seed("WTI", day, "81.1")
	router := newTestRouter(t, repo)

	req := httptest.NewRequest(http.MethodDelete, "/market-data/api/prices/product/brent", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"removed":1`)

	rangeBody := strings.NewReader(`{"from":"2025-11-01","to":"2025-11-30"}`)
	req = httptest.NewRequest(http.MethodDelete, "/market-data/api/prices/range", rangeBody)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"removed":1`)

	req = httptest.NewRequest(http.MethodGet, "/market-data/api/prices/count", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Contains(t, rec.Body.String(), `"count":0`)
}
