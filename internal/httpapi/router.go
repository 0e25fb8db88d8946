package httpapi

import (
	"net/http"

	"canteen-be/internal/logger"
	"canteen-be/internal/middleware"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

// NewRouter wires all routes plus the global middleware chain.
func NewRouter(h *Handler, jwtSecret []byte, allowedOrigins []string) http.Handler {
	router := httprouter.New()

	router.GET("/health", h.Health)
	router.GET("/api/menu", h.ListMenu)

	router.POST("/api/checkout/session", guard(middleware.RequireAuth, h.CreateCheckoutSession))
	router.GET("/api/checkout/complete", guard(middleware.RequireAuth, h.CompleteCheckout))

	router.GET("/api/orders", guard(middleware.RequireAuth, h.ListOrders))
	router.GET("/api/orders/:id", guard(middleware.RequireAuth, h.GetOrder))

	router.POST("/api/admin/orders/:id/accept", guard(middleware.RequireAdmin, h.AcceptOrder))
	router.POST("/api/admin/orders/:id/deliver", guard(middleware.RequireAdmin, h.DeliverOrder))
	router.POST("/api/admin/orders/:id/cancel", guard(middleware.RequireAdmin, h.CancelOrder))
	router.PUT("/api/admin/orders/:id/notes", guard(middleware.RequireAdmin, h.UpdateOrderNotes))
	router.PUT("/api/admin/menu/:id/availability", guard(middleware.RequireAdmin, h.SetMenuAvailability))

	router.GET("/ws/orders", h.OrdersFeed)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	})

	var chain http.Handler = router
	chain = middleware.RateLimit(chain)
	chain = middleware.Auth(jwtSecret)(chain)
	chain = logger.LoggingMiddleware(chain)
	chain = logger.RequestIDMiddleware(chain)
	chain = corsHandler.Handler(chain)
	return chain
}

// guard adapts an http.Handler middleware to a single httprouter route.
func guard(mw func(http.Handler) http.Handler, handle httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handle(w, r, ps)
		})).ServeHTTP(w, r)
	}
}
