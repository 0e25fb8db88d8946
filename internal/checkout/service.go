package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"canteen-be/internal/logger"
	"canteen-be/internal/menu"
	"canteen-be/internal/mirror"
	"canteen-be/internal/notify"
	"canteen-be/internal/order"
	"canteen-be/internal/payment"
	"canteen-be/internal/utils"

	"go.uber.org/zap"
)

type CartLine struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type CheckoutInput struct {
	Items      []CartLine `json:"items"`
	PickupTime string     `json:"pickup_time"`
	Notes      string     `json:"notes"`
}

// SessionResult is returned to the client, which redirects to URL.
type SessionResult struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

type Service interface {
	CreateSession(ctx context.Context, input CheckoutInput) (*SessionResult, error)
	Complete(ctx context.Context, sessionID string) (*order.Order, error)
}

type service struct {
	menu    menu.Service
	orders  order.Repository
	drafts  DraftRepository
	gateway payment.Gateway
	mirror  *mirror.Cache
	bus     notify.Publisher

	minAmount      int64
	gatewayTimeout time.Duration
	now            func() time.Time
}

func NewService(
	menuSvc menu.Service,
	orders order.Repository,
	drafts DraftRepository,
	gateway payment.Gateway,
	mirrorCache *mirror.Cache,
	bus notify.Publisher,
	minAmount int64,
) Service {
	return &service{
		menu:           menuSvc,
		orders:         orders,
		drafts:         drafts,
		gateway:        gateway,
		mirror:         mirrorCache,
		bus:            bus,
		minAmount:      minAmount,
		gatewayTimeout: 20 * time.Second,
		now:            time.Now,
	}
}

func (s *service) CreateSession(ctx context.Context, input CheckoutInput) (*SessionResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateCheckoutSession"),
	)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	if len(input.Items) == 0 {
		return nil, ErrCartEmpty
	}

	ids := make([]string, 0, len(input.Items))
	for _, line := range input.Items {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidQuantity, line.ItemID)
		}
		ids = append(ids, line.ItemID)
	}

	if input.PickupTime == "" {
		return nil, ErrPickupTimeRequired
	}
	minutes, err := parsePickupTime(input.PickupTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPickupTimeRequired, err)
	}
	if !withinPickupWindow(s.now().Weekday(), minutes) {
		return nil, ErrPickupOutsideHours
	}

	// Prices come from the catalog, never from the client.
	catalog, err := s.menu.GetForOrder(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make(order.Items, 0, len(input.Items))
	lines := make([]payment.Line, 0, len(input.Items))
	for _, line := range input.Items {
		item := catalog[line.ItemID]
		items = append(items, order.Item{
			ItemID:    item.ID,
			Name:      item.Name,
			UnitPrice: item.Price,
			Quantity:  line.Quantity,
		})
		lines = append(lines, payment.Line{
			Name:       item.Name,
			UnitAmount: item.Price,
			Quantity:   line.Quantity,
		})
	}

	subtotal := items.Amount()
	if subtotal < s.minAmount {
		return nil, fmt.Errorf("%w: got %d, need %d", ErrBelowMinimum, subtotal, s.minAmount)
	}

	gctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	customerEmail := utils.GetUserEmailFromContext(ctx)
	session, err := s.gateway.CreateSession(gctx, payment.CreateSessionRequest{
		ReferenceID:   userID,
		CustomerEmail: customerEmail,
		Lines:         lines,
		Metadata: map[string]string{
			"user_id":     userID,
			"pickup_time": input.PickupTime,
			"notes":       input.Notes,
		},
	})
	if err != nil {
		log.Error("failed to create checkout session", zap.Error(err))
		return nil, err
	}

	// The priced cart stays on our side; Complete reads it back by
	// session id. No payment has happened yet, so a failed save just
	// fails the request and the client retries.
	if err := s.drafts.Save(ctx, &Draft{
		SessionID:     session.ID,
		UserID:        userID,
		CustomerEmail: customerEmail,
		Items:         items,
		Amount:        subtotal,
		PickupTime:    input.PickupTime,
		Notes:         input.Notes,
	}); err != nil {
		log.Error("failed to save checkout draft", zap.Error(err))
		return nil, err
	}

	log.Info("checkout session created",
		zap.String("session_id", session.ID),
		zap.Int64("amount", subtotal),
	)

	return &SessionResult{SessionID: session.ID, URL: session.URL}, nil
}

// Complete commits the paid session as a pending order. The unique
// session_id constraint makes replays return the already-committed
// order instead of a duplicate.
func (s *service) Complete(ctx context.Context, sessionID string) (*order.Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CompleteCheckout"),
		zap.String("session_id", sessionID),
	)

	gctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	session, err := s.gateway.GetSession(gctx, sessionID)
	if err != nil {
		log.Error("failed to fetch checkout session", zap.Error(err))
		return nil, err
	}
	if !session.Paid() {
		log.Warn("checkout completion attempted on unpaid session",
			zap.String("payment_status", session.PaymentStatus))
		return nil, ErrPaymentNotCompleted
	}

	draft, err := s.drafts.GetBySessionID(ctx, sessionID)
	if errors.Is(err, ErrDraftNotFound) {
		// The draft is deleted once promoted, so a replay after a
		// successful Complete lands here.
		existing, lookupErr := s.orders.GetBySessionID(ctx, session.ID)
		if lookupErr == nil && existing != nil {
			log.Info("checkout replay returned existing order", zap.String("order_id", existing.ID))
			return existing, nil
		}
		log.Error("paid session has neither draft nor order", zap.Error(lookupErr))
		return nil, ErrReconciliationGap
	}
	if err != nil {
		log.Error("failed to load checkout draft", zap.Error(err))
		return nil, err
	}

	created, err := s.orders.Insert(ctx, &order.Order{
		UserID:     draft.UserID,
		SessionID:  session.ID,
		Items:      draft.Items,
		Amount:     draft.Amount,
		Status:     order.StatusPending,
		PickupTime: draft.PickupTime,
		Notes:      draft.Notes,
	})
	if errors.Is(err, order.ErrDuplicateSession) {
		existing, lookupErr := s.orders.GetBySessionID(ctx, session.ID)
		if lookupErr != nil || existing == nil {
			log.Error("duplicate session but existing order unreadable", zap.Error(lookupErr))
			return nil, ErrReconciliationGap
		}
		log.Info("checkout replay returned existing order", zap.String("order_id", existing.ID))
		return existing, nil
	}
	if err != nil {
		// Money has moved but no order row exists. Surface loudly.
		log.Error("order insert failed after payment confirmed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrReconciliationGap, err)
	}

	if err := s.drafts.Delete(ctx, session.ID); err != nil {
		log.Warn("failed to delete promoted draft", zap.Error(err))
	}

	email := draft.CustomerEmail
	if email == "" {
		email = session.CustomerEmail
	}
	if err := s.mirror.Upsert(mirror.FromOrder(created, email)); err != nil {
		log.Warn("failed to mirror new order", zap.Error(err))
	}

	s.bus.Publish(ctx, notify.Event{
		Type:      notify.EventNewOrder,
		OrderID:   created.ID,
		Timestamp: created.CreatedAt,
	})

	log.Info("order committed",
		zap.String("order_id", created.ID),
		zap.Int64("amount", created.Amount),
	)
	return created, nil
}
