package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger/internal/application/analytics"
	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/application/auth"
	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/internal/application/inventory"
	"github.com/jhoicas/stockledger/internal/application/purchasing"
	"github.com/jhoicas/stockledger/internal/application/usecase"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	ledger "github.com/jhoicas/stockledger/internal/domain/inventory"
	"github.com/jhoicas/stockledger/internal/infrastructure/export"
	"github.com/jhoicas/stockledger/internal/infrastructure/idgen"
	"github.com/jhoicas/stockledger/internal/infrastructure/memory"
	"github.com/jhoicas/stockledger/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/stockledger/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/stockledger/pkg/jwt"
)

// newAPI arma la API completa sobre el almacenamiento en memoria.
func newAPI(t *testing.T) *fiber.App {
	t.Helper()
	store := memory.New(2 * time.Second)
	store.AddProduct(entity.Product{ID: "prod-a", SKU: "A", Name: "Producto A", Active: true})
	store.AddLocation(entity.Location{ID: "loc-1", Code: "L1", Name: "Bodega principal", Active: true})
	store.AddLocation(entity.Location{ID: "loc-2", Code: "L2", Name: "Bodega norte", Active: true})
	store.AddSupplier(entity.Supplier{ID: "sup-1", Name: "Proveedor Uno", Active: true})

	ids, err := idgen.New(1)
	require.NoError(t, err)
	log := zerolog.Nop()
	auditor := audit.NewService(store.AuditLog(), log)
	recorder := inventory.NewRecordTransactionUseCase(store, ids, auditor, ledger.RejectNegative, log)
	orders := purchasing.NewPurchaseOrderUseCase(store, store.Repositories(), recorder, ids, auditor,
		purchasing.Options{NumberRetries: 3}, log)
	authUC := auth.NewAuthUseCase(store.Users(), auditor, auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer})
	for _, role := range []entity.Role{entity.RoleAdmin, entity.RoleManager, entity.RoleWarehouseStaff, entity.RoleViewer} {
		store.AddUser(entity.User{ID: userIDFor(string(role)), Username: "user-" + strings.ToLower(string(role)), Role: role, Active: true})
	}
	store.AddUser(entity.User{ID: userIDFor("INACTIVE"), Username: "baja", Role: entity.RoleAdmin, Active: false})
	created, err := authUC.Bootstrap(context.Background(), "admin", "admin-pass")
	require.NoError(t, err)
	require.True(t, created)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:    authUC,
		Catalog:   usecase.NewCatalogUseCase(store.Catalog(), store.Repositories(), auditor),
		Recorder:  recorder,
		Adjust:    inventory.NewAdjustStockUseCase(store, recorder, auditor),
		Transfer:  inventory.NewTransferUseCase(store, store.Repositories(), recorder, ids, auditor, 3),
		Queries:   inventory.NewStockQueryUseCase(store.Repositories(), store, export.NewXLSXExporter(), auditor),
		Orders:    orders,
		Documents: purchasing.NewReceiptDocumentUseCase(orders, store.Repositories(), pdf.NewMarotoReceiptGenerator(), auditor),
		Dashboard: analytics.NewDashboardUseCase(store.Repositories(), store.Catalog()),
		Audit:     auditor,
		JWTSecret: testJWTSecret,
		Log:       log,
	})
	return app
}

func userIDFor(role string) string {
	return "u-" + strings.ToLower(role)
}

// userToken firma un token para el usuario sembrado con ese rol.
func userToken(t *testing.T, role string) string {
	t.Helper()
	return userTokenAs(t, userIDFor(role), role)
}

func userTokenAs(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, userID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func call(t *testing.T, app *fiber.App, method, path, token string, body any, out any) *http.Response {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestHealth(t *testing.T) {
	app := newAPI(t)
	resp := call(t, app, http.MethodGet, "/health", "", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	app := newAPI(t)

	var out dto.LoginResponse
	resp := call(t, app, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: "admin", Password: "admin-pass"}, &out)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, "ADMIN", out.User.Role)

	var caps dto.CapabilitiesResponse
	resp = call(t, app, http.MethodGet, "/api/me/capabilities", "Bearer "+out.Token, nil, &caps)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, caps.Capabilities, "manage_users")

	resp = call(t, app, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Username: "admin", Password: "mala"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = call(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "admin"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPurchaseOrderFlow(t *testing.T) {
	app := newAPI(t)
	admin := userToken(t, "ADMIN")
	staffTok := userToken(t, "WAREHOUSE_STAFF")

	var po dto.PurchaseOrderResponse
	resp := call(t, app, http.MethodPost, "/api/purchase-orders", admin, map[string]any{
		"supplier_id": "sup-1",
		"location_id": "loc-1",
		"items":       []map[string]any{{"product_id": "prod-a", "quantity": 10, "unit_price": "2.50"}},
	}, &po)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "DRAFT", po.Status)
	assert.Regexp(t, `^PO-[0-9A-F]{8}$`, po.Number)
	require.Len(t, po.Items, 1)

	resp = call(t, app, http.MethodPost, "/api/purchase-orders/"+po.ID+"/send", admin, nil, &po)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "SENT", po.Status)

	// El personal de bodega obtiene las líneas de la orden antes de recibirla.
	var pending []dto.PurchaseOrderResponse
	resp = call(t, app, http.MethodGet, "/api/purchase-orders?status=SENT", staffTok, nil, &pending)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, pending, 1)
	var toReceive dto.PurchaseOrderResponse
	resp = call(t, app, http.MethodGet, "/api/purchase-orders/"+pending[0].ID, staffTok, nil, &toReceive)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, toReceive.Items, 1)

	var received dto.ReceiveGoodsResponse
	resp = call(t, app, http.MethodPost, "/api/purchase-orders/"+toReceive.ID+"/receipts", staffTok, map[string]any{
		"items": []map[string]any{{"item_id": toReceive.Items[0].ID, "quantity": 4}},
	}, &received)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "PARTIAL", received.Order.Status)
	require.Len(t, received.Transactions, 1)
	assert.Equal(t, "PURCHASE", received.Transactions[0].Type)

	var levels []dto.StockLevelResponse
	resp = call(t, app, http.MethodGet, "/api/stock/levels?product_id=prod-a", staffTok, nil, &levels)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, levels, 1)
	assert.EqualValues(t, 4, levels[0].Quantity)

	var detail dto.PurchaseOrderResponse
	resp = call(t, app, http.MethodGet, "/api/purchase-orders/"+po.ID, admin, nil, &detail)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, detail.Receipts, 1)
	assert.EqualValues(t, 6, detail.Items[0].PendingQuantity)

	var summary dto.StockSummaryResponse
	resp = call(t, app, http.MethodGet, "/api/reports/summary", admin, nil, &summary)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, summary.PendingOrders)
	assert.EqualValues(t, 6, summary.PendingUnits)
	assert.EqualValues(t, 4, summary.TotalUnits)

	resp = call(t, app, http.MethodGet, "/api/purchase-orders/"+po.ID+"/receipts/"+received.Receipt.ID+"/pdf", staffTok, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), received.Receipt.Number)
}

func TestPermissions(t *testing.T) {
	app := newAPI(t)
	viewerTok := userToken(t, "VIEWER")

	resp := call(t, app, http.MethodPost, "/api/purchase-orders", viewerTok, map[string]any{
		"supplier_id": "sup-1", "location_id": "loc-1",
		"items": []map[string]any{{"product_id": "prod-a", "quantity": 1, "unit_price": "1"}},
	}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = call(t, app, http.MethodGet, "/api/stock/levels", viewerTok, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = call(t, app, http.MethodGet, "/api/audit-log", userToken(t, "WAREHOUSE_STAFF"), nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var entries []dto.AuditLogResponse
	resp = call(t, app, http.MethodGet, "/api/audit-log?model_name=PermissionDenied", userToken(t, "MANAGER"), nil, &entries)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, entries, 2)

	resp = call(t, app, http.MethodGet, "/api/purchase-orders", viewerTok, nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestStockTransactionsAndTransfers(t *testing.T) {
	app := newAPI(t)
	staffTok := userToken(t, "WAREHOUSE_STAFF")

	var errBody dto.ErrorResponse
	resp := call(t, app, http.MethodPost, "/api/transactions", staffTok, map[string]any{
		"type": "SALE", "product_id": "prod-a", "location_id": "loc-1", "quantity": 3,
	}, &errBody)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", errBody.Code)

	var adjusted dto.RecordTransactionResponse
	resp = call(t, app, http.MethodPost, "/api/stock/adjustments", staffTok, map[string]any{
		"product_id": "prod-a", "location_id": "loc-1", "mode": "set", "quantity": 20,
	}, &adjusted)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.EqualValues(t, 20, adjusted.Level.Quantity)

	resp = call(t, app, http.MethodPost, "/api/transfers", staffTok, map[string]any{
		"product_id": "prod-a", "from_location_id": "loc-1", "to_location_id": "loc-1", "quantity": 5,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "origen y destino deben diferir")

	var tr dto.TransferResponse
	resp = call(t, app, http.MethodPost, "/api/transfers", staffTok, map[string]any{
		"product_id": "prod-a", "from_location_id": "loc-1", "to_location_id": "loc-2", "quantity": 5,
	}, &tr)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "PENDING", tr.Status)

	resp = call(t, app, http.MethodPost, "/api/transfers/"+tr.ID+"/complete", staffTok, nil, &tr)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "COMPLETED", tr.Status)

	var avail dto.ProductAvailabilityResponse
	resp = call(t, app, http.MethodGet, "/api/stock/products/prod-a/available", staffTok, nil, &avail)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 20, avail.Quantity)

	var history []dto.TransactionResponse
	resp = call(t, app, http.MethodGet, "/api/transactions?type=TRANSFER", staffTok, nil, &history)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, history, 2)

	resp = call(t, app, http.MethodGet, "/api/transactions?from=ayer", staffTok, nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Una fecha sin hora en "to" incluye el día completo.
	today := time.Now().UTC().Format(time.DateOnly)
	var sameDay []dto.TransactionResponse
	resp = call(t, app, http.MethodGet, "/api/transactions?type=TRANSFER&from="+today+"&to="+today, staffTok, nil, &sameDay)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, sameDay, 2)

	resp = call(t, app, http.MethodGet, "/api/transactions/export", userToken(t, "MANAGER"), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
}

func TestCatalogRoutes(t *testing.T) {
	app := newAPI(t)
	manager := userToken(t, "MANAGER")

	var p dto.ProductResponse
	resp := call(t, app, http.MethodPost, "/api/products", manager, map[string]any{
		"sku": "SW-024", "name": "Switch 24 puertos", "reorder_point": 2,
	}, &p)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = call(t, app, http.MethodPost, "/api/products", manager, map[string]any{"sku": "SW-024", "name": "Otro"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = call(t, app, http.MethodPost, "/api/products", userToken(t, "WAREHOUSE_STAFF"), map[string]any{"sku": "Z", "name": "Z"}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var list dto.ProductListResponse
	resp = call(t, app, http.MethodGet, "/api/products?search=switch", userToken(t, "VIEWER"), nil, &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, list.Items, 1)
	assert.Equal(t, p.ID, list.Items[0].ID)

	resp = call(t, app, http.MethodGet, "/api/products/no-existe", manager, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var locs []dto.LocationResponse
	resp = call(t, app, http.MethodGet, "/api/locations", manager, nil, &locs)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, locs, 2)
}

func TestRoleChangeAppliesToIssuedTokens(t *testing.T) {
	app := newAPI(t)
	viewerTok := userToken(t, "VIEWER")

	resp := call(t, app, http.MethodGet, "/api/audit-log", viewerTok, nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = call(t, app, http.MethodPut, "/api/users/"+userIDFor("VIEWER")+"/role", userToken(t, "ADMIN"),
		dto.UpdateRoleRequest{Role: "MANAGER"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// El mismo token ya opera con el rol nuevo.
	resp = call(t, app, http.MethodGet, "/api/audit-log", viewerTok, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var caps dto.CapabilitiesResponse
	resp = call(t, app, http.MethodGet, "/api/me/capabilities", viewerTok, nil, &caps)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "MANAGER", caps.Role)
}

func TestInactiveOrUnknownUserIsRejected(t *testing.T) {
	app := newAPI(t)

	resp := call(t, app, http.MethodGet, "/api/stock/levels", userTokenAs(t, userIDFor("INACTIVE"), "ADMIN"), nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = call(t, app, http.MethodGet, "/api/stock/levels", userTokenAs(t, "u-desconocido", "ADMIN"), nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
