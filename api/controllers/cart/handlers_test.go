package cart

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/sgalleguillos/brokerpulse-backend/api/middleware"
	cartsvc "github.com/sgalleguillos/brokerpulse-backend/internal/cart"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/logger"
)

func newTestStore(t *testing.T) cartsvc.Store {
	t.Helper()
	store, err := cartsvc.NewStore(cartsvc.NewMemoryPersistence())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

const testTaxRate = 0.19

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cart-controllers-test"})
}

func authedRequest(method, target, body string, userID uuid.UUID) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
}

func addItemBody() string {
	return `{
		"productId": "rp_001",
		"code": "RPT-RP_001",
		"name": "Informe corredor 762686856",
		"precio_neto": 29990,
		"precio_bruto": 35688,
		"cantidad": 1,
		"metadata": {"rutCorredor": "762686856", "periodo": "202412"}
	}`
}

func decodeState(t *testing.T, body []byte) cartsvc.State {
	t.Helper()
	var envelope struct {
		Success bool          `json:"success"`
		Data    cartsvc.State `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if !envelope.Success {
		t.Fatalf("expected success envelope, got %s", body)
	}
	return envelope.Data
}

func TestAddItemPersistsAndReturnsTotals(t *testing.T) {
	store := newTestStore(t)
	userID := uuid.New()

	rec := httptest.NewRecorder()
	AddItem(store, testTaxRate, testLogger())(rec, authedRequest(http.MethodPost, "/cart/items", addItemBody(), userID))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	state := decodeState(t, rec.Body.Bytes())
	if len(state.Items) != 1 || state.TotalGross != 35688 || state.TaxTotal != 5698 {
		t.Fatalf("unexpected state %+v", state)
	}

	// A fresh fetch reads the persisted record.
	rec = httptest.NewRecorder()
	Fetch(store, testLogger())(rec, authedRequest(http.MethodGet, "/cart", "", userID))
	state = decodeState(t, rec.Body.Bytes())
	if state.ItemCount != 1 {
		t.Fatalf("expected persisted item, got %+v", state)
	}
}

func TestAddItemDerivesNetFromGrossOnly(t *testing.T) {
	store := newTestStore(t)
	userID := uuid.New()
	body := `{
		"productId": "rp_002",
		"name": "Informe corredor 765877805",
		"precio_bruto": 35688,
		"cantidad": 1,
		"metadata": {"rutCorredor": "765877805", "periodo": "202412"}
	}`

	rec := httptest.NewRecorder()
	AddItem(store, testTaxRate, testLogger())(rec, authedRequest(http.MethodPost, "/cart/items", body, userID))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	state := decodeState(t, rec.Body.Bytes())
	if state.Items[0].UnitPriceNet != 29990 {
		t.Fatalf("net should be derived from gross at 19%%, got %d", state.Items[0].UnitPriceNet)
	}
	if state.SubtotalNet != 29990 || state.TaxTotal != 5698 || state.TotalGross != 35688 {
		t.Fatalf("unexpected totals %+v", state)
	}
}

func TestAddItemDerivesGrossFromNetOnly(t *testing.T) {
	store := newTestStore(t)
	userID := uuid.New()
	body := `{
		"productId": "rp_003",
		"name": "Informe corredor 770123456",
		"precio_neto": 29990,
		"cantidad": 1,
		"metadata": {"rutCorredor": "770123456", "periodo": "202412"}
	}`

	rec := httptest.NewRecorder()
	AddItem(store, testTaxRate, testLogger())(rec, authedRequest(http.MethodPost, "/cart/items", body, userID))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	state := decodeState(t, rec.Body.Bytes())
	if state.Items[0].UnitPriceGross != 35688 {
		t.Fatalf("gross should be derived from net at 19%%, got %d", state.Items[0].UnitPriceGross)
	}
}

func TestAddItemValidation(t *testing.T) {
	store := newTestStore(t)

	rec := httptest.NewRecorder()
	body := `{"productId": "", "name": "x", "cantidad": 0}`
	AddItem(store, testTaxRate, testLogger())(rec, authedRequest(http.MethodPost, "/cart/items", body, uuid.New()))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAddItemRequiresAuth(t *testing.T) {
	store := newTestStore(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(addItemBody()))
	AddItem(store, testTaxRate, testLogger())(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	store := newTestStore(t)
	userID := uuid.New()

	rec := httptest.NewRecorder()
	AddItem(store, testTaxRate, testLogger())(rec, authedRequest(http.MethodPost, "/cart/items", addItemBody(), userID))

	body := `{"productId": "rp_001", "cantidad": 0, "metadata": {"rutCorredor": "762686856", "periodo": "202412"}}`
	rec = httptest.NewRecorder()
	UpdateQuantity(store, testLogger())(rec, authedRequest(http.MethodPut, "/cart/items", body, userID))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if state := decodeState(t, rec.Body.Bytes()); !state.IsEmpty() {
		t.Fatalf("expected empty cart, got %+v", state)
	}
}

func TestUpdateQuantityUnknownLineIs404(t *testing.T) {
	store := newTestStore(t)

	body := `{"productId": "rp_404", "cantidad": 2}`
	rec := httptest.NewRecorder()
	UpdateQuantity(store, testLogger())(rec, authedRequest(http.MethodPut, "/cart/items", body, uuid.New()))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRemoveItemByMetadata(t *testing.T) {
	store := newTestStore(t)
	userID := uuid.New()

	rec := httptest.NewRecorder()
	AddItem(store, testTaxRate, testLogger())(rec, authedRequest(http.MethodPost, "/cart/items", addItemBody(), userID))

	body := `{"productId": "rp_001", "metadata": {"rutCorredor": "762686856", "periodo": "202412"}}`
	rec = httptest.NewRecorder()
	RemoveItem(store, testLogger())(rec, authedRequest(http.MethodDelete, "/cart/items", body, userID))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if state := decodeState(t, rec.Body.Bytes()); !state.IsEmpty() {
		t.Fatalf("expected empty cart, got %+v", state)
	}
}

func TestClearEmptiesCart(t *testing.T) {
	store := newTestStore(t)
	userID := uuid.New()

	rec := httptest.NewRecorder()
	AddItem(store, testTaxRate, testLogger())(rec, authedRequest(http.MethodPost, "/cart/items", addItemBody(), userID))

	rec = httptest.NewRecorder()
	Clear(store, testLogger())(rec, authedRequest(http.MethodDelete, "/cart", "", userID))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	Fetch(store, testLogger())(rec, authedRequest(http.MethodGet, "/cart", "", userID))
	if state := decodeState(t, rec.Body.Bytes()); !state.IsEmpty() {
		t.Fatalf("expected empty cart, got %+v", state)
	}
}
