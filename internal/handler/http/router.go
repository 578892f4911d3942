package http

import (
	"log/slog"
	"net/netip"
	"os"

	"github.com/cmlabs-hris/ems-backend-go/internal/config"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/ems-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	appCfg config.AppConfig,
	JWTService jwt.Service,
	authHandler AuthHandler,
	employeeHandler EmployeeHandler,
	leaveHandler LeaveHandler,
	payrollHandler PayrollHandler,
	attendanceHandler AttendanceHandler,
	masterHandler MasterHandler,
	auditHandler AuditHandler,
	allowList []netip.Prefix,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(appCfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "ems-backend"),
		slog.String("version", "v1.0.0"),
		slog.String("env", appCfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appCfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  ParseLogLevel(appCfg.LogLevel),
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.IPAllowList(allowList))

		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)
		r.Post("/auth/logout", authHandler.Logout)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService.JWTAuth()))
			r.Use(middleware.WithCaller)

			r.Get("/auth/me", authHandler.Me)
			r.Post("/auth/mfa/setup", authHandler.SetupMFA)
			r.Post("/auth/mfa/verify", authHandler.VerifyMFA)

			r.With(middleware.RequirePermission(user.PermissionUserManage)).
				Post("/users", authHandler.CreateUser)

			r.Route("/employees", func(r chi.Router) {
				r.Get("/{id}", employeeHandler.GetEmployee)
				r.Get("/{id}/leave-balances", leaveHandler.GetEmployeeBalances)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionEmployeeManage))
					r.Post("/", employeeHandler.CreateEmployee)
				})
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionEmployeeViewAll))
					r.Get("/", employeeHandler.ListEmployees)
				})
			})

			r.Route("/leave", func(r chi.Router) {
				r.Route("/types", func(r chi.Router) {
					r.Get("/", leaveHandler.ListTypes)
					r.Get("/{id}/windows", leaveHandler.ListWindows)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionLeaveManageTypes))
						r.Post("/", leaveHandler.CreateType)
						r.Post("/{id}/windows", leaveHandler.CreateWindow)
					})
				})

				r.Route("/balances", func(r chi.Router) {
					r.With(middleware.RequireEmployeeRecord).Get("/my", leaveHandler.GetMyBalances)
					r.With(middleware.RequirePermission(user.PermissionLeaveManageLedger)).
						Post("/", leaveHandler.CreateBalance)
				})

				r.Route("/requests", func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionLeaveViewOwn))
					r.Get("/", leaveHandler.ListRequests)
					r.Get("/{id}", leaveHandler.GetRequest)
					r.With(middleware.RequirePermission(user.PermissionLeaveCreate)).
						Post("/", leaveHandler.CreateRequest)

					r.Group(func(r chi.Router) {
						r.Use(middleware.RequirePermission(user.PermissionLeaveApprove))
						r.Post("/{id}/approve", leaveHandler.ApproveRequest)
						r.Post("/{id}/reject", leaveHandler.RejectRequest)
					})
				})
			})

			r.Route("/payroll", func(r chi.Router) {
				r.With(middleware.RequirePermission(user.PermissionPayslipViewOwn)).
					Get("/tax-slabs", payrollHandler.ListTaxSlabs)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionPayrollManage))
					r.Post("/components", payrollHandler.CreateComponent)
					r.Get("/components", payrollHandler.ListComponents)
					r.Put("/tax-slabs", payrollHandler.ReplaceTaxSlabs)
					r.Put("/structures/{employeeID}", payrollHandler.ReplaceStructure)
				})

				// Employees may read their own structure.
				r.Get("/structures/{employeeID}", payrollHandler.GetStructure)

				r.Route("/runs", func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionPayrollRun))
					r.Post("/", payrollHandler.CreateRun)
					r.Get("/", payrollHandler.ListRuns)
					r.Get("/{id}", payrollHandler.GetRun)
					r.Post("/{id}/process", payrollHandler.ProcessRun)
					r.Get("/{id}/payslips", payrollHandler.ListRunPayslips)
				})
			})

			r.Route("/payslips", func(r chi.Router) {
				r.Use(middleware.RequirePermission(user.PermissionPayslipViewOwn))
				r.With(middleware.RequireEmployeeRecord).Get("/my", payrollHandler.ListMyPayslips)
				r.Get("/{id}", payrollHandler.GetPayslip)
				r.Get("/{id}/pdf", payrollHandler.DownloadPayslip)
			})

			r.Route("/attendance", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceClock))
					r.Use(middleware.RequireEmployeeRecord)
					r.Post("/clock-in", attendanceHandler.ClockIn)
					r.Post("/clock-out", attendanceHandler.ClockOut)
					r.Post("/corrections", attendanceHandler.CreateCorrection)
				})

				r.Get("/logs", attendanceHandler.ListLogs)
				r.Get("/corrections", attendanceHandler.ListCorrections)
				r.Get("/summaries/{employeeID}", attendanceHandler.GetSummary)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionAttendanceReview))
					r.Post("/corrections/{id}/approve", attendanceHandler.ApproveCorrection)
					r.Post("/corrections/{id}/reject", attendanceHandler.RejectCorrection)
				})
			})

			r.Route("/departments", func(r chi.Router) {
				r.Get("/", masterHandler.ListDepartments)
				r.Get("/{id}", masterHandler.GetDepartment)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionMasterManage))
					r.Post("/", masterHandler.CreateDepartment)
					r.Put("/{id}", masterHandler.UpdateDepartment)
					r.Delete("/{id}", masterHandler.DeleteDepartment)
				})
			})

			r.Route("/designations", func(r chi.Router) {
				r.Get("/", masterHandler.ListDesignations)
				r.Get("/{id}", masterHandler.GetDesignation)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(user.PermissionMasterManage))
					r.Post("/", masterHandler.CreateDesignation)
					r.Put("/{id}", masterHandler.UpdateDesignation)
					r.Delete("/{id}", masterHandler.DeleteDesignation)
				})
			})

			r.With(middleware.RequirePermission(user.PermissionAuditView)).
				Get("/audit-logs", auditHandler.ListAuditLogs)
		})
	})
	return r
}

// ParseLogLevel maps LOG_LEVEL values onto slog levels, defaulting to info.
func ParseLogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
