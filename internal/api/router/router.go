package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/wellcare-clinic/clinicops/internal/appointments"
	"github.com/wellcare-clinic/clinicops/internal/documents"
	httpmiddleware "github.com/wellcare-clinic/clinicops/internal/http/middleware"
	"github.com/wellcare-clinic/clinicops/internal/invoicing"
	"github.com/wellcare-clinic/clinicops/internal/patients"
	"github.com/wellcare-clinic/clinicops/internal/referrals"
	"github.com/wellcare-clinic/clinicops/internal/shifts"
	"github.com/wellcare-clinic/clinicops/internal/staff"
	"github.com/wellcare-clinic/clinicops/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger *logging.Logger

	PatientsHandler     *patients.Handler
	AppointmentsHandler *appointments.Handler
	InvoicingHandler    *invoicing.Handler
	DocumentsHandler    *documents.Handler
	ShiftsHandler       *shifts.Handler
	ReferralsHandler    *referrals.Handler
	StaffHandler        *staff.Handler

	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	JWTSecret string
	JWTIssuer string

	// Rate limiting (optional, enabled when Redis is reachable)
	Redis              *redis.Client
	RateLimitPerMinute int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.Redis != nil && cfg.RateLimitPerMinute > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.Redis, cfg.RateLimitPerMinute, cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Authenticated clinic API. Every route below runs with org and actor
	// loaded from the session token.
	r.Route("/api", func(api chi.Router) {
		api.Use(httpmiddleware.StaffJWT(cfg.JWTSecret, cfg.JWTIssuer))

		if cfg.PatientsHandler != nil {
			api.Route("/patients", func(r chi.Router) {
				r.Post("/", cfg.PatientsHandler.CreatePatient)
				r.Get("/", cfg.PatientsHandler.ListPatients)
				r.Route("/{patientID}", func(r chi.Router) {
					r.Get("/", cfg.PatientsHandler.GetPatient)
					r.Put("/", cfg.PatientsHandler.UpdatePatient)
					r.Delete("/", cfg.PatientsHandler.ArchivePatient)
					if cfg.DocumentsHandler != nil {
						r.Post("/documents", cfg.DocumentsHandler.UploadDocument)
						r.Get("/documents", cfg.DocumentsHandler.ListDocuments)
					}
				})
			})
		}

		if cfg.DocumentsHandler != nil {
			api.Route("/documents/{documentID}", func(r chi.Router) {
				r.Get("/", cfg.DocumentsHandler.DownloadDocument)
				r.Delete("/", cfg.DocumentsHandler.DeleteDocument)
			})
		}

		if cfg.AppointmentsHandler != nil {
			api.Route("/appointments", func(r chi.Router) {
				r.Post("/", cfg.AppointmentsHandler.BookAppointment)
				r.Get("/", cfg.AppointmentsHandler.ListAppointments)
				r.Route("/{appointmentID}", func(r chi.Router) {
					r.Get("/", cfg.AppointmentsHandler.GetAppointment)
					r.Post("/reschedule", cfg.AppointmentsHandler.RescheduleAppointment)
					r.Post("/cancel", cfg.AppointmentsHandler.CancelAppointment)
					r.Post("/complete", cfg.AppointmentsHandler.CompleteAppointment)
					r.Post("/no-show", cfg.AppointmentsHandler.MarkNoShow)
				})
			})
		}

		if cfg.InvoicingHandler != nil {
			api.Route("/invoices", func(r chi.Router) {
				r.Post("/", cfg.InvoicingHandler.CreateInvoice)
				r.Get("/", cfg.InvoicingHandler.ListInvoices)
				r.Route("/{invoiceID}", func(r chi.Router) {
					r.Get("/", cfg.InvoicingHandler.GetInvoice)
					r.Post("/pay", cfg.InvoicingHandler.PayInvoice)
					r.Post("/void", cfg.InvoicingHandler.VoidInvoice)
				})
			})
		}

		if cfg.ReferralsHandler != nil {
			api.Route("/referrals", func(r chi.Router) {
				r.Post("/", cfg.ReferralsHandler.CreateReferral)
				r.Get("/", cfg.ReferralsHandler.ListReferrals)
				r.Route("/{referralID}", func(r chi.Router) {
					r.Get("/", cfg.ReferralsHandler.GetReferral)
					r.Post("/status", cfg.ReferralsHandler.SetStatus)
				})
			})
		}

		if cfg.ShiftsHandler != nil {
			api.Route("/shifts", func(r chi.Router) {
				r.Post("/", cfg.ShiftsHandler.CreateShift)
				r.Get("/", cfg.ShiftsHandler.ListShifts)
				r.Delete("/{shiftID}", cfg.ShiftsHandler.DeleteShift)
			})
		}

		// Staff management is admin-only.
		if cfg.StaffHandler != nil {
			api.Route("/staff", func(r chi.Router) {
				r.Use(httpmiddleware.RequireRole(staff.RoleAdmin))
				r.Post("/", cfg.StaffHandler.CreateMember)
				r.Get("/", cfg.StaffHandler.ListMembers)
				r.Route("/{staffID}", func(r chi.Router) {
					r.Get("/", cfg.StaffHandler.GetMember)
					r.Put("/", cfg.StaffHandler.UpdateMember)
					r.Delete("/", cfg.StaffHandler.DeactivateMember)
				})
			})
		}
	})

	return r
}
