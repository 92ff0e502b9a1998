package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"pronto/internal/auth"
	"pronto/internal/catalog"
	"pronto/internal/coupon"
	"pronto/internal/events"
	ordercontroller "pronto/internal/order/controller"
	paymentcontroller "pronto/internal/payment/controller"
)

func NewRouter(
	catalogCtrl *catalog.Controller,
	orderCtrl *ordercontroller.OrdersController,
	couponCtrl *coupon.Controller,
	paymentCtrl *paymentcontroller.PaymentsController,
	wsHandler *events.Handler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(auth.Middleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			logger.Error("failed to write health response", zap.Error(err))
		}
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", catalogCtrl.HandleList)

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", orderCtrl.HandleCreate)
			r.Get("/", orderCtrl.HandleList)
			r.Get("/stats/summary", orderCtrl.HandleStats)
			r.Get("/track/{orderNumber}", orderCtrl.HandleTrack)
			r.Get("/{id}", orderCtrl.HandleGet)
			r.Put("/{id}/status", orderCtrl.HandleUpdateStatus)
		})

		r.Route("/coupons", func(r chi.Router) {
			r.Post("/", couponCtrl.HandleCreate)
			r.Get("/", couponCtrl.HandleList)
			r.Post("/validate", couponCtrl.HandleValidate)
			r.Patch("/{code}/active", couponCtrl.HandleToggle)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/create-order", paymentCtrl.HandleCreateOrder)
			r.Post("/verify", paymentCtrl.HandleVerify)
			r.Post("/webhook", paymentCtrl.HandleWebhook)
			r.Post("/refund", paymentCtrl.HandleRefund)
		})
	})

	r.Get("/ws", wsHandler.ServeHTTP)

	return r
}
