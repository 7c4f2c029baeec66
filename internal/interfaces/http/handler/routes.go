package handler

import (
	"github.com/gradeflow/backend/internal/interfaces/http/router"
)

// SystemRoutes creates the route group for health and system endpoints
func SystemRoutes(h *SystemHandler) *router.DomainGroup {
	group := router.NewDomainGroup("system", "")

	group.GET("/health", h.Health)
	group.GET("/system/info", h.GetSystemInfo)

	return group
}

// SectionRoutes creates the route group for sections and their assignments
func SectionRoutes(sections *SectionHandler, assignments *AssignmentHandler) *router.DomainGroup {
	group := router.NewDomainGroup("sections", "/sections")

	group.GET("", sections.List)
	group.POST("", sections.Create)
	group.GET("/:id", sections.Get)
	group.DELETE("/:id", sections.Delete)

	// Assignment creation and listing live under their section
	group.GET("/:id/assignments", assignments.ListBySection)
	group.POST("/:id/assignments", assignments.Create)

	return group
}

// AssignmentRoutes creates the route group for assignment endpoints
func AssignmentRoutes(h *AssignmentHandler) *router.DomainGroup {
	group := router.NewDomainGroup("assignments", "/assignments")

	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)

	// Grading views over one assignment
	group.GET("/:id/documents", h.Documents)
	group.GET("/:id/history", h.History)
	group.GET("/:id/summary", h.Summary)
	group.GET("/:id/export", h.Export)

	return group
}

// GradingRoutes creates the route group for grading run endpoints
func GradingRoutes(h *GradingHandler) *router.DomainGroup {
	group := router.NewDomainGroup("grading", "/grading")

	group.POST("/grade", h.Grade)
	group.POST("/grade/batch", h.GradeBatch)

	return group
}

// SessionRoutes creates the route group for grading session review endpoints
func SessionRoutes(h *SessionHandler) *router.DomainGroup {
	group := router.NewDomainGroup("sessions", "/sessions")

	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	group.POST("/:id/approve", h.Approve)
	group.POST("/:id/reject", h.Reject)
	group.POST("/:id/approve-document", h.ApproveDocument)
	group.POST("/:id/reject-document", h.RejectDocument)
	group.GET("/:id/report", h.Report)

	return group
}

// RubricRoutes creates the route group for rubric template endpoints
func RubricRoutes(h *RubricHandler) *router.DomainGroup {
	group := router.NewDomainGroup("rubrics", "/rubrics")

	group.GET("", h.List)
	group.POST("/upload", h.Upload)
	group.GET("/:filename", h.Get)
	group.DELETE("/:filename", h.Delete)
	group.GET("/:filename/original", h.GetOriginal)

	return group
}

// GoogleRoutes creates the route group for Google authorization and Drive
// listing endpoints
func GoogleRoutes(h *GoogleHandler) *router.DomainGroup {
	group := router.NewDomainGroup("google", "/google")

	group.GET("/auth", h.Auth)
	group.GET("/auth/callback", h.Callback)
	group.GET("/auth/status", h.Status)
	group.GET("/files", h.Files)

	return group
}
