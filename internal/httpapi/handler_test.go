package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"canteen-be/internal/checkout"
	"canteen-be/internal/logger"
	"canteen-be/internal/menu"
	"canteen-be/internal/mirror"
	"canteen-be/internal/notify"
	"canteen-be/internal/order"
	"canteen-be/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Accept(ctx context.Context, orderID string) (*order.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) MarkDelivered(ctx context.Context, orderID string) (*order.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) Cancel(ctx context.Context, orderID string) (*order.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) UpdateNotes(ctx context.Context, orderID, notes string) (*order.Order, error) {
	args := m.Called(ctx, orderID, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) List(ctx context.Context, filter *order.Filter) ([]*order.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderService) GetByID(ctx context.Context, orderID string) (*order.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) CreateSession(ctx context.Context, input checkout.CheckoutInput) (*checkout.SessionResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.SessionResult), args.Error(1)
}

func (m *MockCheckoutService) Complete(ctx context.Context, sessionID string) (*order.Order, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

type MockMenuService struct {
	mock.Mock
}

func (m *MockMenuService) List(ctx context.Context, filter *menu.Filter) ([]*menu.MenuItem, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*menu.MenuItem), args.Error(1)
}

func (m *MockMenuService) GetForOrder(ctx context.Context, ids []string) (map[string]*menu.MenuItem, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*menu.MenuItem), args.Error(1)
}

func (m *MockMenuService) SetAvailability(ctx context.Context, id string, available bool) (*menu.MenuItem, error) {
	args := m.Called(ctx, id, available)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*menu.MenuItem), args.Error(1)
}

type stubResolver struct{}

func (stubResolver) Statuses(ctx context.Context, ids []string) (map[string]order.Status, error) {
	return map[string]order.Status{}, nil
}

type apiFixture struct {
	orders   *MockOrderService
	checkout *MockCheckoutService
	menu     *MockMenuService
	mirror   *mirror.Cache
	server   http.Handler
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	logger.Init("test")

	f := &apiFixture{
		orders:   new(MockOrderService),
		checkout: new(MockCheckoutService),
		menu:     new(MockMenuService),
		mirror:   mirror.NewCache(mirror.NewMemoryStorage(), stubResolver{}),
	}

	handler := NewHandler(f.orders, f.checkout, f.menu, f.mirror, notify.NewHub())
	f.server = NewRouter(handler, testSecret, []string{"*"})
	return f
}

func bearerToken(t *testing.T, userID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"email":   userID + "@campus.edu",
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return "Bearer " + signed
}

func doJSON(t *testing.T, f *apiFixture, method, path, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, req)
	return w
}

func TestCheckoutEndpoints(t *testing.T) {
	t.Run("CreateSession", func(t *testing.T) {
		f := newAPIFixture(t)

		f.checkout.On("CreateSession", mock.Anything, mock.MatchedBy(func(in checkout.CheckoutInput) bool {
			return len(in.Items) == 1 && in.PickupTime == "12:30"
		})).Return(&checkout.SessionResult{SessionID: "cs_1", URL: "https://pay.example/cs_1"}, nil)

		w := doJSON(t, f, "POST", "/api/checkout/session", bearerToken(t, "co-user-1", utils.RoleCustomer),
			checkout.CheckoutInput{
				Items:      []checkout.CartLine{{ItemID: "dosa", Quantity: 1}},
				PickupTime: "12:30",
			})

		assert.Equal(t, http.StatusCreated, w.Code)
		var result checkout.SessionResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, "cs_1", result.SessionID)
	})

	t.Run("CreateSessionAnonymous", func(t *testing.T) {
		f := newAPIFixture(t)

		w := doJSON(t, f, "POST", "/api/checkout/session", "", checkout.CheckoutInput{})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("CreateSessionValidationError", func(t *testing.T) {
		f := newAPIFixture(t)

		f.checkout.On("CreateSession", mock.Anything, mock.Anything).
			Return(nil, checkout.ErrBelowMinimum)

		w := doJSON(t, f, "POST", "/api/checkout/session", bearerToken(t, "co-user-2", utils.RoleCustomer),
			checkout.CheckoutInput{Items: []checkout.CartLine{{ItemID: "chai", Quantity: 1}}, PickupTime: "12:30"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Complete", func(t *testing.T) {
		f := newAPIFixture(t)

		f.checkout.On("Complete", mock.Anything, "cs_1").Return(&order.Order{
			ID:     "o-1",
			Status: order.StatusPending,
		}, nil)

		w := doJSON(t, f, "GET", "/api/checkout/complete?session_id=cs_1",
			bearerToken(t, "co-user-3", utils.RoleCustomer), nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("CompleteMissingSessionID", func(t *testing.T) {
		f := newAPIFixture(t)

		w := doJSON(t, f, "GET", "/api/checkout/complete",
			bearerToken(t, "co-user-4", utils.RoleCustomer), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("CompleteReconciliationGap", func(t *testing.T) {
		f := newAPIFixture(t)

		f.checkout.On("Complete", mock.Anything, "cs_1").
			Return(nil, checkout.ErrReconciliationGap)

		w := doJSON(t, f, "GET", "/api/checkout/complete?session_id=cs_1",
			bearerToken(t, "co-user-5", utils.RoleCustomer), nil)
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "contact")
	})
}

func TestOrderEndpoints(t *testing.T) {
	t.Run("ListOwnOrders", func(t *testing.T) {
		f := newAPIFixture(t)

		f.orders.On("List", mock.Anything, mock.Anything).Return([]*order.Order{
			{ID: "o-1", UserID: "list-user-1", Status: order.StatusPending},
		}, nil)

		w := doJSON(t, f, "GET", "/api/orders", bearerToken(t, "list-user-1", utils.RoleCustomer), nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp ordersResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Orders, 1)
		assert.Empty(t, resp.LegacyEntries)
	})

	t.Run("AdminListMergesMirror", func(t *testing.T) {
		f := newAPIFixture(t)

		f.orders.On("List", mock.Anything, mock.Anything).Return([]*order.Order{
			{ID: "db-1", Status: order.StatusPending},
		}, nil)

		// one mirrored copy of db-1, one legacy-only record
		require.NoError(t, f.mirror.Upsert(mirror.Entry{
			LocalOrderID: "local-1", DBOrderID: "db-1", Status: order.StatusPending,
		}))
		require.NoError(t, f.mirror.Upsert(mirror.Entry{
			LocalOrderID: "local-2", Status: order.StatusPending, Amount: 7000,
		}))

		w := doJSON(t, f, "GET", "/api/orders?status=pending", bearerToken(t, "admin-1", utils.RoleAdmin), nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp ordersResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Orders, 1)
		require.Len(t, resp.LegacyEntries, 1)
		assert.Equal(t, "local-2", resp.LegacyEntries[0].LocalOrderID)
	})

	t.Run("ListInvalidStatus", func(t *testing.T) {
		f := newAPIFixture(t)

		w := doJSON(t, f, "GET", "/api/orders?status=flying", bearerToken(t, "list-user-2", utils.RoleCustomer), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("LegacyStatusAliasAccepted", func(t *testing.T) {
		f := newAPIFixture(t)

		f.orders.On("List", mock.Anything, mock.MatchedBy(func(filter *order.Filter) bool {
			return filter.Status != nil && *filter.Status == order.StatusDelivered
		})).Return([]*order.Order{}, nil)

		w := doJSON(t, f, "GET", "/api/orders?status=Completed", bearerToken(t, "list-user-3", utils.RoleCustomer), nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("AcceptOrder", func(t *testing.T) {
		f := newAPIFixture(t)

		f.orders.On("Accept", mock.Anything, "o-1").Return(&order.Order{
			ID: "o-1", Status: order.StatusAccepted,
		}, nil)

		w := doJSON(t, f, "POST", "/api/admin/orders/o-1/accept", bearerToken(t, "admin-2", utils.RoleAdmin), nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("AcceptConflict", func(t *testing.T) {
		f := newAPIFixture(t)

		f.orders.On("Accept", mock.Anything, "o-1").Return(nil, order.ErrConflict)

		w := doJSON(t, f, "POST", "/api/admin/orders/o-1/accept", bearerToken(t, "admin-3", utils.RoleAdmin), nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("AcceptAsCustomerForbidden", func(t *testing.T) {
		f := newAPIFixture(t)

		w := doJSON(t, f, "POST", "/api/admin/orders/o-1/accept", bearerToken(t, "cust-1", utils.RoleCustomer), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
		f.orders.AssertNotCalled(t, "Accept", mock.Anything, mock.Anything)
	})

	t.Run("NotFoundMapsTo404", func(t *testing.T) {
		f := newAPIFixture(t)

		f.orders.On("MarkDelivered", mock.Anything, "ghost").Return(nil, order.ErrOrderNotFound)

		w := doJSON(t, f, "POST", "/api/admin/orders/ghost/deliver", bearerToken(t, "admin-4", utils.RoleAdmin), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("UpdateNotes", func(t *testing.T) {
		f := newAPIFixture(t)

		f.orders.On("UpdateNotes", mock.Anything, "o-1", "window seat").Return(&order.Order{
			ID: "o-1", Notes: "window seat",
		}, nil)

		w := doJSON(t, f, "PUT", "/api/admin/orders/o-1/notes", bearerToken(t, "admin-5", utils.RoleAdmin),
			notesRequest{Notes: "window seat"})
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestMenuEndpoints(t *testing.T) {
	t.Run("ListIsPublic", func(t *testing.T) {
		f := newAPIFixture(t)

		f.menu.On("List", mock.Anything, mock.Anything).Return([]*menu.MenuItem{
			{ID: "dosa", Name: "Masala Dosa", Price: 4500, Available: true},
		}, nil)

		w := doJSON(t, f, "GET", "/api/menu", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var items []*menu.MenuItem
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
		require.Len(t, items, 1)
	})

	t.Run("SetAvailability", func(t *testing.T) {
		f := newAPIFixture(t)

		f.menu.On("SetAvailability", mock.Anything, "dosa", false).Return(&menu.MenuItem{
			ID: "dosa", Available: false,
		}, nil)

		w := doJSON(t, f, "PUT", "/api/admin/menu/dosa/availability", bearerToken(t, "admin-6", utils.RoleAdmin),
			availabilityRequest{Available: false})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("SetAvailabilityRequiresAdmin", func(t *testing.T) {
		f := newAPIFixture(t)

		w := doJSON(t, f, "PUT", "/api/admin/menu/dosa/availability", bearerToken(t, "cust-2", utils.RoleCustomer),
			availabilityRequest{Available: false})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
