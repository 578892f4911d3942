package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/ems-backend-go/internal/config"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/payroll"
	appHTTP "github.com/cmlabs-hris/ems-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/ems-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/ems-backend-go/internal/pkg/queue"
	"github.com/cmlabs-hris/ems-backend-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/ems-backend-go/internal/service/attendance"
	auditService "github.com/cmlabs-hris/ems-backend-go/internal/service/audit"
	serviceAuth "github.com/cmlabs-hris/ems-backend-go/internal/service/auth"
	employeeService "github.com/cmlabs-hris/ems-backend-go/internal/service/employee"
	"github.com/cmlabs-hris/ems-backend-go/internal/service/leave"
	"github.com/cmlabs-hris/ems-backend-go/internal/service/master"
	payrollService "github.com/cmlabs-hris/ems-backend-go/internal/service/payroll"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: appHTTP.ParseLogLevel(cfg.App.LogLevel),
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		slog.Error("Error connecting to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.App.RunMigrations {
		if err := db.Migrate(ctx); err != nil {
			slog.Error("Error applying migrations", "error", err)
			os.Exit(1)
		}
	}

	txManager := postgresql.NewTransactor(db)
	userRepo := postgresql.NewUserRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	leaveTypeRepo := postgresql.NewLeaveTypeRepository(db)
	policyWindowRepo := postgresql.NewLeavePolicyWindowRepository(db)
	leaveBalanceRepo := postgresql.NewLeaveBalanceRepository(db)
	leaveRequestRepo := postgresql.NewLeaveRequestRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db)
	auditRepo := postgresql.NewAuditRepository(db)
	refreshTokenRepo := postgresql.NewRefreshTokenRepository(db)
	loginAttemptRepo := postgresql.NewLoginAttemptRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	departmentRepo := postgresql.NewDepartmentRepository(db)
	designationRepo := postgresql.NewDesignationRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration, cfg.JWT.RefreshExpiration, cfg.App.Env != "development")

	attendancePolicy, err := attendance.NewPolicy(cfg.Attendance.WorkStart, cfg.Attendance.LateGrace, cfg.Attendance.FullDay, cfg.Attendance.Location)
	if err != nil {
		slog.Error("Error building attendance policy", "error", err)
		os.Exit(1)
	}

	allowList, err := middleware.ParseAllowList(cfg.App.IPAllowList)
	if err != nil {
		slog.Error("Error parsing IP allow list", "error", err)
		os.Exit(1)
	}

	// Without Kafka the API processes payroll runs inline.
	var dispatcher payroll.RunDispatcher
	if cfg.Kafka.Enabled() {
		writer := queue.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.PayrollTopic)
		defer writer.Close()
		dispatcher = queue.NewKafkaPublisher(writer)
		slog.Info("Payroll runs dispatched to Kafka", "topic", cfg.Kafka.PayrollTopic)
	}

	authService := serviceAuth.NewAuthService(txManager, userRepo, employeeRepo, refreshTokenRepo, loginAttemptRepo, auditRepo, JWTService, auth.Policy{
		MaxLoginAttempts: cfg.Auth.MaxLoginAttempts,
		LockoutDuration:  cfg.Auth.LockoutDuration,
		MFAIssuer:        cfg.Auth.MFAIssuer,
	})
	employeeSvc := employeeService.NewEmployeeService(employeeRepo)
	ledger := leave.NewBalanceLedger(leaveBalanceRepo)
	requestService := leave.NewRequestService(txManager, leaveTypeRepo, policyWindowRepo, leaveRequestRepo, ledger, auditRepo)
	leaveService := leave.NewLeaveService(leaveTypeRepo, policyWindowRepo, leaveBalanceRepo, leaveRequestRepo, employeeRepo, requestService)
	runner := payrollService.NewRunner(payrollRepo, employeeRepo, cfg.Payroll.Concurrency, cfg.Payroll.StallAfter)
	payrollSvc := payrollService.NewPayrollService(txManager, payrollRepo, employeeRepo, dispatcher, runner, auditRepo)
	attendanceSvc := attendanceService.NewAttendanceService(txManager, attendanceRepo, employeeRepo, auditRepo, attendancePolicy)
	masterSvc := master.NewMasterService(txManager, departmentRepo, designationRepo, auditRepo)
	auditSvc := auditService.NewAuditService(auditRepo)

	if cfg.App.AdminEmail != "" {
		if err := authService.EnsureAdmin(ctx, cfg.App.AdminEmail, cfg.App.AdminPassword); err != nil {
			slog.Error("Error seeding admin user", "error", err)
			os.Exit(1)
		}
	}

	router := appHTTP.NewRouter(
		cfg.App,
		JWTService,
		appHTTP.NewAuthHandler(authService, JWTService),
		appHTTP.NewEmployeeHandler(employeeSvc),
		appHTTP.NewLeaveHandler(leaveService),
		appHTTP.NewPayrollHandler(payrollSvc),
		appHTTP.NewAttendanceHandler(attendanceSvc),
		appHTTP.NewMasterHandler(masterSvc),
		appHTTP.NewAuditHandler(auditSvc),
		allowList,
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}
}
