package leave

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/ems-backend-go/internal/domain/audit"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/ems-backend-go/internal/domain/leave"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newTestID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// memStore backs every fake repository. Rows read with GetForUpdate or
// GetByIDForUpdate stay locked until the enclosing transaction ends, and the
// fake writes refuse to touch a row the current transaction has not locked.
type memStore struct {
	mu        sync.Mutex
	rowLocks  sync.Map
	employees map[string]employee.Employee
	types     map[string]leave.LeaveType
	windows   []leave.LeavePolicyWindow
	balances  map[string]leave.LeaveBalance
	requests  map[string]leave.LeaveRequest
	audit     []audit.Entry
}

func newMemStore() *memStore {
	return &memStore{
		employees: make(map[string]employee.Employee),
		types:     make(map[string]leave.LeaveType),
		balances:  make(map[string]leave.LeaveBalance),
		requests:  make(map[string]leave.LeaveRequest),
	}
}

var errRowNotLocked = errors.New("write to a row the transaction has not locked")

// memTx tracks the row locks and undo steps of one fake transaction.
type memTx struct {
	held map[string]*sync.Mutex
	undo []func()
}

type memTxKey struct{}

func txFrom(ctx context.Context) *memTx {
	tx, _ := ctx.Value(memTxKey{}).(*memTx)
	return tx
}

func (s *memStore) lockRow(ctx context.Context, key string) {
	tx := txFrom(ctx)
	if tx == nil {
		return
	}
	if _, ok := tx.held[key]; ok {
		return
	}
	m, _ := s.rowLocks.LoadOrStore(key, &sync.Mutex{})
	lock := m.(*sync.Mutex)
	lock.Lock()
	tx.held[key] = lock
}

func holdsRow(ctx context.Context, key string) bool {
	tx := txFrom(ctx)
	if tx == nil {
		return false
	}
	_, ok := tx.held[key]
	return ok
}

// onRollback registers an undo step. Callers hold store.mu.
func onRollback(ctx context.Context, fn func()) {
	if tx := txFrom(ctx); tx != nil {
		tx.undo = append(tx.undo, fn)
	}
}

// ---- transactor ----

type memTransactor struct{ store *memStore }

func (t memTransactor) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	tx := &memTx{held: make(map[string]*sync.Mutex)}
	defer func() {
		for _, lock := range tx.held {
			lock.Unlock()
		}
	}()

	if err := fn(context.WithValue(ctx, memTxKey{}, tx)); err != nil {
		t.store.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		t.store.mu.Unlock()
		return err
	}
	return nil
}

// ---- employees ----

type memEmployeeRepo struct{ store *memStore }

func (r memEmployeeRepo) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	emp, ok := r.store.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

func (r memEmployeeRepo) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	e.ID = newTestID()
	e.IsActive = true
	r.store.employees[e.ID] = e
	return e, nil
}

func (r memEmployeeRepo) List(ctx context.Context, filter employee.EmployeeFilter) ([]employee.Employee, int64, error) {
	active, err := r.GetActive(ctx)
	return active, int64(len(active)), err
}

func (r memEmployeeRepo) GetActive(ctx context.Context) ([]employee.Employee, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var result []employee.Employee
	for _, e := range r.store.employees {
		if e.IsActive {
			result = append(result, e)
		}
	}
	return result, nil
}

// ---- leave types ----

type memLeaveTypeRepo struct{ store *memStore }

func (r memLeaveTypeRepo) Create(ctx context.Context, lt leave.LeaveType) (leave.LeaveType, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.types {
		if existing.Name == lt.Name {
			return leave.LeaveType{}, leave.ErrLeaveTypeNameExists
		}
	}
	lt.ID = newTestID()
	r.store.types[lt.ID] = lt
	return lt, nil
}

func (r memLeaveTypeRepo) GetByID(ctx context.Context, id string) (leave.LeaveType, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	lt, ok := r.store.types[id]
	if !ok {
		return leave.LeaveType{}, leave.ErrLeaveTypeNotFound
	}
	return lt, nil
}

func (r memLeaveTypeRepo) List(ctx context.Context) ([]leave.LeaveType, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	result := make([]leave.LeaveType, 0, len(r.store.types))
	for _, lt := range r.store.types {
		result = append(result, lt)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// ---- policy windows ----

type memWindowRepo struct{ store *memStore }

func (r memWindowRepo) Create(ctx context.Context, w leave.LeavePolicyWindow) (leave.LeavePolicyWindow, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	w.ID = newTestID()
	r.store.windows = append(r.store.windows, w)
	return w, nil
}

func (r memWindowRepo) ListByLeaveType(ctx context.Context, leaveTypeID string) ([]leave.LeavePolicyWindow, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var result []leave.LeavePolicyWindow
	for _, w := range r.store.windows {
		if w.LeaveTypeID == leaveTypeID {
			result = append(result, w)
		}
	}
	return result, nil
}

// ---- balances ----

type memBalanceRepo struct{ store *memStore }

func (r memBalanceRepo) Create(ctx context.Context, b leave.LeaveBalance) (leave.LeaveBalance, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.balances {
		if existing.EmployeeID == b.EmployeeID && existing.LeaveTypeID == b.LeaveTypeID && existing.Year == b.Year {
			return leave.LeaveBalance{}, leave.ErrBalanceExists
		}
	}
	b.ID = newTestID()
	r.store.balances[b.ID] = b
	return b, nil
}

func (r memBalanceRepo) Get(ctx context.Context, employeeID, leaveTypeID string, year int) (leave.LeaveBalance, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, b := range r.store.balances {
		if b.EmployeeID == employeeID && b.LeaveTypeID == leaveTypeID && b.Year == year {
			return b, nil
		}
	}
	return leave.LeaveBalance{}, leave.ErrBalanceNotFound
}

func (r memBalanceRepo) GetForUpdate(ctx context.Context, employeeID, leaveTypeID string, year int) (leave.LeaveBalance, error) {
	b, err := r.Get(ctx, employeeID, leaveTypeID, year)
	if err != nil {
		return leave.LeaveBalance{}, err
	}
	r.store.lockRow(ctx, "balance:"+b.ID)
	return r.Get(ctx, employeeID, leaveTypeID, year)
}

func (r memBalanceRepo) ListByEmployee(ctx context.Context, employeeID string, year *int) ([]leave.LeaveBalance, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var result []leave.LeaveBalance
	for _, b := range r.store.balances {
		if b.EmployeeID == employeeID && (year == nil || b.Year == *year) {
			result = append(result, b)
		}
	}
	return result, nil
}

func (r memBalanceRepo) Debit(ctx context.Context, balanceID string, days decimal.Decimal) error {
	if !holdsRow(ctx, "balance:"+balanceID) {
		return errRowNotLocked
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.balances[balanceID]
	if !ok || b.AvailableDays.LessThan(days) {
		return leave.ErrInsufficientBalance
	}
	previous := b
	onRollback(ctx, func() { r.store.balances[balanceID] = previous })
	b.AvailableDays = b.AvailableDays.Sub(days)
	b.UsedDays = b.UsedDays.Add(days)
	r.store.balances[balanceID] = b
	return nil
}

// ---- requests ----

type memRequestRepo struct{ store *memStore }

func (r memRequestRepo) Create(ctx context.Context, req leave.LeaveRequest) (leave.LeaveRequest, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	req.ID = newTestID()
	req.CreatedAt = time.Now()
	r.store.requests[req.ID] = req
	return req, nil
}

func (r memRequestRepo) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	req, ok := r.store.requests[id]
	if !ok {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
	}
	return req, nil
}

func (r memRequestRepo) GetByIDForUpdate(ctx context.Context, id string) (leave.LeaveRequest, error) {
	if _, err := r.GetByID(ctx, id); err != nil {
		return leave.LeaveRequest{}, err
	}
	r.store.lockRow(ctx, "request:"+id)
	return r.GetByID(ctx, id)
}

func (r memRequestRepo) List(ctx context.Context, filter leave.LeaveRequestFilter) ([]leave.LeaveRequest, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var result []leave.LeaveRequest
	for _, req := range r.store.requests {
		if filter.EmployeeID != nil && req.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && string(req.Status) != *filter.Status {
			continue
		}
		result = append(result, req)
	}
	return result, int64(len(result)), nil
}

func (r memRequestRepo) UpdateStatus(ctx context.Context, params leave.UpdateStatusParams) error {
	if !holdsRow(ctx, "request:"+params.ID) {
		return errRowNotLocked
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	req, ok := r.store.requests[params.ID]
	if !ok || !req.IsPending() {
		return leave.ErrLeaveRequestAlreadyProcessed
	}
	previous := req
	onRollback(ctx, func() { r.store.requests[params.ID] = previous })
	now := time.Now()
	req.Status = params.Status
	req.DecidedBy = &params.DecidedBy
	req.DecidedAt = &now
	req.RejectionReason = params.RejectionReason
	r.store.requests[params.ID] = req
	return nil
}

// ---- audit ----

type memAuditRepo struct{ store *memStore }

func (r memAuditRepo) Record(ctx context.Context, entry audit.Entry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	entry.ID = newTestID()
	entry.CreatedAt = time.Now()
	r.store.audit = append(r.store.audit, entry)
	onRollback(ctx, func() {
		for i, e := range r.store.audit {
			if e.ID == entry.ID {
				r.store.audit = append(r.store.audit[:i], r.store.audit[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (r memAuditRepo) List(ctx context.Context, filter audit.AuditFilter) ([]audit.Entry, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	result := append([]audit.Entry(nil), r.store.audit...)
	return result, int64(len(result)), nil
}
