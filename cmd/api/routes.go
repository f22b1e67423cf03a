package main

import (
	"go-armory-ledger/internal/authz"
	"go-armory-ledger/internal/handler"
	"go-armory-ledger/internal/middleware"
	"go-armory-ledger/internal/repository"
	"go-armory-ledger/internal/service"
	"go-armory-ledger/internal/ws"
	"go-armory-ledger/pkg/jwt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

const subscriberKey = "ws_subscriber"

type services struct {
	auth         service.AuthService
	users        service.UserService
	references   service.ReferenceService
	purchases    service.PurchaseService
	transfers    service.TransferService
	assignments  service.AssignmentService
	expenditures service.ExpenditureService
	metrics      service.MetricsService
}

type routeDeps struct {
	services      services
	userRepo      repository.UserRepository
	roleRepo      repository.RoleRepository
	privilegeRepo repository.PrivilegeRepository
	auditRepo     repository.AuditRepository
	tokens        *jwt.Manager
	hub           *ws.Hub
}

func setupRoutes(app *fiber.App, d routeDeps) {
	authHandler := handler.NewAuthHandler(d.services.auth)
	userHandler := handler.NewUserHandler(d.services.users)
	roleHandler := handler.NewRoleHandler(d.roleRepo, d.privilegeRepo)
	refHandler := handler.NewReferenceHandler(d.services.references)
	purchaseHandler := handler.NewPurchaseHandler(d.services.purchases)
	transferHandler := handler.NewTransferHandler(d.services.transfers)
	assignmentHandler := handler.NewAssignmentHandler(d.services.assignments)
	expenditureHandler := handler.NewExpenditureHandler(d.services.expenditures)
	dashHandler := handler.NewDashboardHandler(d.services.metrics)
	reportHandler := handler.NewReportHandler(d.services.metrics, d.services.references)
	auditHandler := handler.NewAuditHandler(d.auditRepo)

	requireAuth := middleware.RequireAuth(d.userRepo, d.tokens)
	can := middleware.RequirePrivilege

	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/change-password", requireAuth, authHandler.ChangePassword)
	auth.Get("/me", requireAuth, authHandler.Me)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", requireAuth)

	// Reference data
	protected.Get("/bases", can("reference:view"), refHandler.GetBases)
	protected.Post("/bases", can("reference:manage"), refHandler.CreateBase)
	protected.Get("/equipment-types", can("reference:view"), refHandler.GetEquipmentTypes)
	protected.Post("/equipment-types", can("reference:manage"), refHandler.CreateEquipmentType)
	protected.Get("/balances", can("balance:view"), refHandler.GetBalances)

	// Purchases
	protected.Get("/purchases", can("purchase:view"), purchaseHandler.GetPurchases)
	protected.Get("/purchases/:id", can("purchase:view"), purchaseHandler.GetPurchase)
	protected.Post("/purchases", can("purchase:create"), purchaseHandler.CreatePurchase)

	// Transfers
	protected.Get("/transfers", can("transfer:view"), transferHandler.GetTransfers)
	protected.Get("/transfers/:id", can("transfer:view"), transferHandler.GetTransfer)
	protected.Post("/transfers", can("transfer:create"), transferHandler.CreateTransfer)
	protected.Post("/transfers/:id/approve", can("transfer:approve"), transferHandler.ApproveTransfer)
	protected.Post("/transfers/:id/reject", can("transfer:approve"), transferHandler.RejectTransfer)
	protected.Post("/transfers/:id/complete", can("transfer:complete"), transferHandler.CompleteTransfer)
	protected.Post("/transfers/:id/cancel", can("transfer:cancel"), transferHandler.CancelTransfer)

	// Assignments
	protected.Get("/assignments", can("assignment:view"), assignmentHandler.GetAssignments)
	protected.Get("/assignments/:id", can("assignment:view"), assignmentHandler.GetAssignment)
	protected.Post("/assignments", can("assignment:create"), assignmentHandler.CreateAssignment)
	protected.Post("/assignments/:id/return", can("assignment:return"), assignmentHandler.ReturnAssignment)

	// Expenditures
	protected.Get("/expenditures", can("expenditure:view"), expenditureHandler.GetExpenditures)
	protected.Post("/expenditures", can("expenditure:create"), expenditureHandler.CreateExpenditure)

	// Dashboard and reports
	protected.Get("/dashboard/metrics", can("dashboard:view"), dashHandler.GetMetrics)
	protected.Get("/dashboard/movements", can("dashboard:view"), dashHandler.GetMovements)
	protected.Get("/dashboard/reconciliation", can("dashboard:view"), dashHandler.GetReconciliation)
	protected.Get("/reports/movements.xlsx", can("report:export"), reportHandler.ExportMovements)
	protected.Get("/audit-logs", can("audit:view"), auditHandler.GetAuditLogs)

	// Users and roles
	protected.Get("/users", can("user:view"), userHandler.GetUsers)
	protected.Get("/users/:id", can("user:view"), userHandler.GetUser)
	protected.Post("/users", can("user:manage"), userHandler.CreateUser)
	protected.Put("/users/:id", can("user:manage"), userHandler.UpdateUser)
	protected.Get("/roles", can("user:view"), roleHandler.GetRoles)
	protected.Get("/privileges", can("user:view"), roleHandler.GetPrivileges)

	// WebSocket Route
	policy := authz.NewPolicy()
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	}, middleware.RequireWSAuth(d.userRepo, d.tokens), can("dashboard:view"), func(c *fiber.Ctx) error {
		actor, ok := middleware.ActorFrom(c)
		if !ok {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		c.Locals(subscriberKey, ws.Subscriber{AllBases: policy.SeesAllBases(actor), BaseID: actor.BaseID})
		return c.Next()
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		sub, _ := c.Locals(subscriberKey).(ws.Subscriber)
		if !d.hub.Add(c, sub) {
			return
		}
		defer d.hub.Remove(c)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))
}
