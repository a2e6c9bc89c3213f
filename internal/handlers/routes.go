package handlers

import (
	"github.com/flyx/flyx-backend/internal/middleware"
	"github.com/flyx/flyx-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handlers bundles every HTTP handler the API exposes
type Handlers struct {
	Bookings      *BookingHandler
	Payments      *PaymentHandler
	AdminBookings *AdminBookingHandler
	AdminPayments *AdminPaymentHandler
	Passengers    *PassengerHandler
}

// RegisterRoutes mounts the API under /api/v1
func RegisterRoutes(router *gin.Engine, h Handlers, jwtService *jwt.Service, logger *logrus.Logger) {
	v1 := router.Group("/api/v1")

	bookings := v1.Group("/bookings")
	{
		bookings.POST("", middleware.OptionalAuth(jwtService, logger), h.Bookings.CreateBooking)
		bookings.GET("/current", middleware.AuthMiddleware(jwtService, logger), h.Bookings.GetCurrentBooking)
		bookings.GET("/history", middleware.AuthMiddleware(jwtService, logger), h.Bookings.GetBookingHistory)
	}

	// Charges may come from guest checkouts
	payments := v1.Group("/payments")
	payments.Use(middleware.OptionalAuth(jwtService, logger))
	{
		payments.POST("/charge", h.Payments.ChargePayment)
	}

	admin := v1.Group("/admin")
	admin.Use(middleware.AuthMiddleware(jwtService, logger), middleware.RequireRole(middleware.RoleAdmin))
	{
		admin.GET("/bookings", h.AdminBookings.ListBookings)
		admin.GET("/bookings/:id", h.AdminBookings.GetBooking)
		admin.PATCH("/bookings/:id/status", h.AdminBookings.UpdateStatus)
		admin.GET("/bookings/:id/payment-audits", h.AdminBookings.GetPaymentAudits)
		admin.GET("/bookings/:id/audit-logs", h.AdminBookings.GetAuditHistory)

		admin.GET("/passengers", h.Passengers.ListPassengers)
		admin.GET("/passengers/:id", h.Passengers.GetPassenger)
		admin.PUT("/passengers/:id", h.Passengers.UpdatePassenger)

		admin.GET("/payments", h.AdminPayments.ListPayments)
		admin.GET("/payments/:id", h.AdminPayments.GetPayment)
		admin.PATCH("/payments/:id/status", h.AdminPayments.UpdateStatus)
	}
}
