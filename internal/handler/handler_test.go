package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-armory-ledger/internal/authz"
	"go-armory-ledger/internal/model"
	"go-armory-ledger/internal/repository"
	"go-armory-ledger/internal/service"
	"go-armory-ledger/internal/testutil"
	"go-armory-ledger/pkg/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	app   *fiber.App
	db    *gorm.DB
	north *model.Base
	south *model.Base
	rifle *model.EquipmentType
}

func newTestServer(t *testing.T, as model.Actor) *testServer {
	t.Helper()
	db := testutil.NewTestDB(t)
	ledger := service.NewLedger(service.LedgerDeps{
		Tx:             repository.NewTxManager(db, 1),
		Balances:       repository.NewBalanceRepo(db),
		Bases:          repository.NewBaseRepo(db),
		EquipmentTypes: repository.NewEquipmentTypeRepo(db),
		Authorizer:     authz.NewPolicy(),
	})
	journals := service.JournalRepos{
		Purchases:    repository.NewPurchaseRepo(db),
		Transfers:    repository.NewTransferRepo(db),
		Assignments:  repository.NewAssignmentRepo(db),
		Expenditures: repository.NewExpenditureRepo(db),
	}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("actor", as)
		return c.Next()
	})
	purchases := NewPurchaseHandler(service.NewPurchaseService(ledger, journals.Purchases))
	transfers := NewTransferHandler(service.NewTransferService(ledger, journals.Transfers))
	dashboard := NewDashboardHandler(service.NewMetricsService(ledger, repository.NewMetricsRepo(db), journals))

	app.Post("/purchases", purchases.CreatePurchase)
	app.Post("/transfers", transfers.CreateTransfer)
	app.Post("/transfers/:id/complete", transfers.CompleteTransfer)
	app.Get("/dashboard/metrics", dashboard.GetMetrics)

	return &testServer{
		app:   app,
		db:    db,
		north: testutil.CreateBase(t, db, "North"),
		south: testutil.CreateBase(t, db, "South"),
		rifle: testutil.CreateEquipmentType(t, db, "Rifle"),
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestCreatePurchase(t *testing.T) {
	s := newTestServer(t, testutil.Admin())

	status, body := s.do(t, http.MethodPost, "/purchases", fiber.Map{
		"base_id":           s.north.ID,
		"equipment_type_id": s.rifle.ID,
		"quantity":          12,
		"unit_price":        "450.00",
		"supplier":          "Acme",
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, 12, testutil.GetBalance(t, s.db, s.north.ID, s.rifle.ID))

	status, body = s.do(t, http.MethodPost, "/purchases", fiber.Map{
		"base_id":           s.north.ID,
		"equipment_type_id": s.rifle.ID,
		"quantity":          0,
		"unit_price":        "450.00",
		"supplier":          "Acme",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", body["code"])
}

func TestLedgerErrorsMapToStatus(t *testing.T) {
	s := newTestServer(t, testutil.Admin())
	testutil.SetBalance(t, s.db, s.north.ID, s.rifle.ID, 5)

	status, body := s.do(t, http.MethodPost, "/transfers", fiber.Map{
		"from_base_id":      s.north.ID,
		"to_base_id":        s.south.ID,
		"equipment_type_id": s.rifle.ID,
		"quantity":          8,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "insufficient_balance", body["code"])
	assert.NotNil(t, body["details"])

	status, body = s.do(t, http.MethodPost, "/transfers", fiber.Map{
		"from_base_id":      s.north.ID,
		"to_base_id":        s.south.ID,
		"equipment_type_id": s.rifle.ID,
		"quantity":          5,
	})
	require.Equal(t, http.StatusCreated, status, body)
	id := body["data"].(map[string]interface{})["id"]

	status, body = s.do(t, http.MethodPost, fmt.Sprintf("/transfers/%v/complete", id), nil)
	assert.Equal(t, http.StatusConflict, status, "pending transfers cannot complete")
	assert.Equal(t, "invalid_state", body["code"])

	status, body = s.do(t, http.MethodPost, "/transfers/not-a-uuid/complete", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", body["code"])
}

func TestUnauthorizedBaseIsForbidden(t *testing.T) {
	west := &model.Base{BaseModel: model.BaseModel{ID: uuid.New()}, Name: "West"}
	s := newTestServer(t, testutil.Officer(west))

	status, body := s.do(t, http.MethodPost, "/purchases", fiber.Map{
		"base_id":           s.north.ID,
		"equipment_type_id": s.rifle.ID,
		"quantity":          1,
		"unit_price":        "1",
		"supplier":          "Acme",
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "unauthorized", body["code"])
}

func TestMetricsQueryParsing(t *testing.T) {
	s := newTestServer(t, testutil.Admin())

	status, body := s.do(t, http.MethodGet, "/dashboard/metrics?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", body["code"])

	status, _ = s.do(t, http.MethodGet, "/dashboard/metrics?base_id=nope", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	path := fmt.Sprintf("/dashboard/metrics?base_id=%s&from=2024-01-01&to=2024-01-31", s.north.ID)
	status, body = s.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.EqualValues(t, 0, body["closing_balance"])
}

func TestQueryTimeCoversWholeDay(t *testing.T) {
	app := fiber.New()
	var got *time.Time
	app.Get("/", func(c *fiber.Ctx) error {
		var err error
		got, err = queryTime(c, "to", true)
		return err
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/?to=2024-03-05", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, 3, 5, 23, 59, 59, 999999999, time.UTC), *got)
}

func TestRespondErrorPassesThroughUnknownErrors(t *testing.T) {
	app := fiber.New()
	app.Get("/known", func(c *fiber.Ctx) error {
		return respondError(c, apperrors.ErrConcurrencyConflict)
	})
	app.Get("/unknown", func(c *fiber.Ctx) error {
		return respondError(c, errors.New("boom"))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/known", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/unknown", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
