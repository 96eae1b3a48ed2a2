package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invapp "github.com/jhoicas/agro-inventario/internal/application/inventory"
	"github.com/jhoicas/agro-inventario/internal/domain/entity"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/memory"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/notify"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/agro-inventario/internal/interfaces/http"
	"github.com/jhoicas/agro-inventario/pkg/logger"
)

const (
	prodUrea  = "prod-urea"
	prodCal   = "prod-cal"
	branchSur = "branch-sur"
	branchNte = "branch-norte"
)

// newTestServer monta el router completo sobre el almacén en memoria.
func newTestServer(t *testing.T) (*fiber.App, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.PutProduct(entity.Product{ID: prodUrea, SKU: "URE-46", Name: "Urea 46%", UnitMeasure: "kg"})
	store.PutProduct(entity.Product{ID: prodCal, SKU: "CAL-AG", Name: "Cal agrícola", UnitMeasure: "kg"})
	store.PutBranch(entity.Branch{ID: branchSur, Name: "Sur"})
	store.PutBranch(entity.Branch{ID: branchNte, Name: "Norte"})

	log := logger.Nop()
	tx := memory.NewTxRunner(store)
	valuation := invapp.NewValuationUseCase(store.Movements(), store.Products(), store.Branches(), nil, 2, log)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Valuation: valuation,
		Movements: invapp.NewMovementUseCase(tx, store.Movements(), store.Products(), store.Branches(), valuation, nil, notify.NewRemissionLog(log), log),
		Imports:   invapp.NewImportUseCase(tx, store.Products(), store.Branches(), nil, log),
		Counts:    invapp.NewCountUseCase(tx, store.Counts(), store.Products(), store.Branches(), pdf.NewCountReportGenerator(), nil, log),
		JWTSecret: testJWTSecret,
		Log:       log,
	})
	return app, store
}

// call envía una petición con el rol indicado; body puede ser nil, []byte o un valor JSON.
func call(t *testing.T, app *fiber.App, method, path, role string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	contentType := fiber.MIMEApplicationJSON
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
		contentType = "text/csv"
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set(fiber.HeaderContentType, contentType)
	}
	if role != "" {
		req.Header.Set("Authorization", bearer(t, role))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "esperado %s, obtenido %s", want, got.String())
}

func TestHealth_SinToken(t *testing.T) {
	app, _ := newTestServer(t)
	resp := call(t, app, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_PermisosPorRol(t *testing.T) {
	app, _ := newTestServer(t)
	inflow := map[string]any{"product_id": prodUrea, "branch_id": branchSur, "type": "inflow", "quantity": 1, "price_at_transaction": 1}

	cases := []struct {
		name   string
		method string
		path   string
		role   string
		body   any
		status int
	}{
		{"lectura sin token", http.MethodGet, "/api/inventory/positions", "", nil, http.StatusUnauthorized},
		{"vendedor lee posiciones", http.MethodGet, "/api/inventory/positions", "vendedor", nil, http.StatusOK},
		{"vendedor no registra", http.MethodPost, "/api/inventory/movements", "vendedor", inflow, http.StatusForbidden},
		{"bodeguero registra", http.MethodPost, "/api/inventory/movements", "bodeguero", inflow, http.StatusCreated},
		{"bodeguero no borra remisiones", http.MethodDelete, "/api/inventory/remissions/REM-x", "bodeguero", nil, http.StatusForbidden},
		{"bodeguero no aplica ajustes", http.MethodPost, "/api/counts/c-1/apply", "bodeguero", nil, http.StatusForbidden},
		{"vendedor lista conteos", http.MethodGet, "/api/counts", "vendedor", nil, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := call(t, app, tc.method, tc.path, tc.role, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
