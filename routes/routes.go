package routes

import (
	"github.com/gorilla/mux"

	"costmgt/handlers"
	"costmgt/middleware"
)

// HTTP method constants for better maintainability
var (
	MethodsGetOnly  = []string{"GET", "OPTIONS"}
	MethodsPostOnly = []string{"POST", "OPTIONS"}
	MethodsPutOnly  = []string{"PUT", "OPTIONS"}
)

const (
	PathAPI    = "/api"
	PathHealth = "/health"
)

func RegisterRoutes(r *mux.Router) {
	// ====================
	// HEALTH CHECK (Public)
	// ====================
	r.HandleFunc(PathHealth, handlers.HealthCheck).Methods(MethodsGetOnly...)

	// ====================
	// AUTHENTICATION ROUTES (Public - No auth required)
	// ====================
	r.HandleFunc("/api/auth/login", handlers.Login).Methods(MethodsPostOnly...)
	r.HandleFunc("/api/auth/logout", handlers.Logout).Methods(MethodsPostOnly...)
	r.HandleFunc("/api/auth/validate", handlers.ValidateToken).Methods(MethodsGetOnly...)

	// ====================
	// PROTECTED API ROUTES (Require authentication)
	// ====================
	apiRouter := r.PathPrefix(PathAPI).Subrouter()
	apiRouter.Use(middleware.AuthMiddleware)

	// ====================
	// USER MANAGEMENT
	// ====================
	apiRouter.HandleFunc("/user/me", handlers.GetCurrentUser).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/users", handlers.ListUsers).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/users/invite", handlers.InviteUsers).Methods(MethodsPostOnly...)

	// ====================
	// PROJECTS & CONTRACTS
	// ====================
	apiRouter.HandleFunc("/projects", handlers.ListProjects).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/projects", handlers.CreateProject).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/projects/{projectId}", handlers.GetProject).Methods(MethodsGetOnly...)

	apiRouter.HandleFunc("/projects/{projectId}/contracts", handlers.ListContracts).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/projects/{projectId}/contracts", handlers.CreateContract).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/projects/{projectId}/contracts/{contractId}", handlers.GetContract).Methods(MethodsGetOnly...)

	// ====================
	// CHANGE ORDERS
	// ====================
	apiRouter.HandleFunc("/projects/{projectId}/contracts/{contractId}/change-orders", handlers.ListChangeOrders).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/projects/{projectId}/contracts/{contractId}/change-orders", handlers.CreateChangeOrder).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/projects/{projectId}/contracts/{contractId}/change-orders/{id}", handlers.GetChangeOrder).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/projects/{projectId}/contracts/{contractId}/change-orders/{id}/propose", handlers.ProposeChangeOrder).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/projects/{projectId}/contracts/{contractId}/change-orders/{id}/approve", handlers.ApproveChangeOrder).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/projects/{projectId}/contracts/{contractId}/change-orders/{id}/reject", handlers.RejectChangeOrder).Methods(MethodsPostOnly...)

	// ====================
	// PAYMENT CERTIFICATES
	// ====================
	apiRouter.HandleFunc("/projects/{projectId}/contracts/{contractId}/payment-certificates", handlers.ListPaymentCertificates).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/projects/{projectId}/contracts/{contractId}/payment-certificates", handlers.CreatePaymentCertificate).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/projects/{projectId}/contracts/{contractId}/payment-certificates/{id}", handlers.GetPaymentCertificate).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/projects/{projectId}/contracts/{contractId}/payment-certificates/{id}/submit", handlers.SubmitPaymentCertificate).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/projects/{projectId}/contracts/{contractId}/payment-certificates/{id}/approve", handlers.ApprovePaymentCertificate).Methods(MethodsPostOnly...)

	// ====================
	// PAYMENTS
	// ====================
	apiRouter.HandleFunc("/projects/{projectId}/contracts/{contractId}/payments", handlers.ListPayments).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/projects/{projectId}/contracts/{contractId}/payments", handlers.CreatePayment).Methods(MethodsPostOnly...)
	apiRouter.HandleFunc("/projects/{projectId}/contracts/{contractId}/payments/{id}", handlers.GetPayment).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/projects/{projectId}/contracts/{contractId}/payments/{id}/mark-paid", handlers.MarkPaymentPaid).Methods(MethodsPostOnly...)

	// ====================
	// GOVERNANCE (Admin tier)
	// ====================
	apiRouter.HandleFunc("/admin/cost-approval-policy", handlers.GetCostPolicy).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/admin/cost-approval-policy", handlers.UpdateCostPolicy).Methods(MethodsPutOnly...)
	apiRouter.HandleFunc("/admin/cost-governance-overview", handlers.GetCostGovernanceOverview).Methods(MethodsGetOnly...)

	// ====================
	// AUDIT & NOTIFICATIONS
	// ====================
	apiRouter.HandleFunc("/audit", handlers.ListAuditLogs).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/notifications", handlers.ListNotifications).Methods(MethodsGetOnly...)
	apiRouter.HandleFunc("/notifications/{id}/read", handlers.MarkNotificationRead).Methods(MethodsPostOnly...)

	// ====================
	// WEBSOCKET (token validated in the handler)
	// ====================
	r.HandleFunc("/ws", handlers.HandleWebSocket)
}
