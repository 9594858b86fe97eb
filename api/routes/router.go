package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sgalleguillos/brokerpulse-backend/api/controllers"
	cartcontrollers "github.com/sgalleguillos/brokerpulse-backend/api/controllers/cart"
	"github.com/sgalleguillos/brokerpulse-backend/api/middleware"
	cartsvc "github.com/sgalleguillos/brokerpulse-backend/internal/cart"
	checkoutsvc "github.com/sgalleguillos/brokerpulse-backend/internal/checkout"
	"github.com/sgalleguillos/brokerpulse-backend/internal/entitlements"
	"github.com/sgalleguillos/brokerpulse-backend/internal/payments"
	"github.com/sgalleguillos/brokerpulse-backend/internal/reports"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/config"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/logger"
)

// Params bundle the services the router exposes.
type Params struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           controllers.Pinger
	Redis        controllers.Pinger
	CartStore    cartsvc.Store
	Checkout     checkoutsvc.Service
	Payments     payments.Service
	Entitlements entitlements.Service
	Reports      reports.Finder
	Registry     *prometheus.Registry
}

func NewRouter(p Params) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(p.Logger),
		middleware.RequestID(p.Logger),
		middleware.Logging(p.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, p.Logger, p.DB, p.Redis))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(p.Config.JWT, p.Logger))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.Fetch(p.CartStore, p.Logger))
			r.Delete("/", cartcontrollers.Clear(p.CartStore, p.Logger))
			r.Post("/items", cartcontrollers.AddItem(p.CartStore, p.Config.Tax.Rate(), p.Logger))
			r.Put("/items", cartcontrollers.UpdateQuantity(p.CartStore, p.Logger))
			r.Delete("/items", cartcontrollers.RemoveItem(p.CartStore, p.Logger))
		})

		r.Post("/checkout", controllers.Checkout(p.Checkout, p.Logger))
		r.Get("/purchases", controllers.PurchaseHistory(p.Payments, p.Logger))
		r.Get("/grants", controllers.AccessGrants(p.Entitlements, p.Logger))
		r.Get("/reports/{rut}/{periodo}", controllers.BrokerReport(p.Entitlements, p.Reports, p.Logger))
	})

	return r
}
