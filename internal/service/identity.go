package service

import (
	"context"
	"crypto/subtle"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"pdvcaixa/internal/domain"
	"pdvcaixa/internal/xid"
)

// bcryptCost is lowered by tests.
var bcryptCost = bcrypt.DefaultCost

// EmployeeInput carries the editable employee fields. A nil Password keeps
// the current one on update, an empty one makes the login passwordless.
type EmployeeInput struct {
	Name          string
	RoleID        string
	Password      *string
	CPF           string
	RG            string
	Phone         string
	Address       string
	AdmissionDate string
	Salary        *decimal.Decimal
}

// Login authenticates the employee with cod. Employees without a password
// accept any input. A successful login replaces the current operator and
// always empties the cart.
func (s *Service) Login(ctx context.Context, cod string, password string) (domain.CurrentUser, error) {
	cod = strings.ToUpper(strings.TrimSpace(cod))

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.state.Employees, func(e domain.Employee) bool { return e.Cod == cod })
	if idx < 0 {
		s.log.Infow("login rejected", "cod", cod, "reason", "unknown_employee")
		return domain.CurrentUser{}, ErrInvalidCredentials
	}
	employee := s.state.Employees[idx]
	if !employee.Passwordless() && !verifyPassword(employee.Password, password) {
		s.log.Infow("login rejected", "cod", cod, "reason", "password_mismatch")
		return domain.CurrentUser{}, ErrInvalidCredentials
	}

	user := domain.CurrentUser{
		EmployeeID: employee.ID,
		Cod:        employee.Cod,
		Name:       employee.Name,
		RoleID:     employee.RoleID,
		SessionID:  xid.New("login"),
	}
	if r := s.roleIndexLocked(employee.RoleID); r >= 0 {
		user.RoleName = s.state.Roles[r].Name
	}

	s.state.currentUser = &user
	s.state.cart = nil
	s.log.Infow("operator logged in", "cod", user.Cod, "role", user.RoleName)

	return user, nil
}

func (s *Service) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.currentUser != nil {
		s.log.Infow("operator logged out", "cod", s.state.currentUser.Cod)
	}
	s.state.currentUser = nil
	s.state.cart = nil
}

func (s *Service) CurrentUser() (domain.CurrentUser, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.currentUser == nil {
		return domain.CurrentUser{}, false
	}
	return *s.state.currentUser, true
}

// Employees lists staff records. Password hashes are included, transports
// must strip them before exposing the list.
func (s *Service) Employees() []domain.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.state.Employees)
}

func (s *Service) AddEmployee(ctx context.Context, in EmployeeInput) (domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cod := s.nextEmployeeCodeLocked(in.RoleID)
	if cod == "" {
		return domain.Employee{}, ErrNotFound
	}

	employee, err := applyEmployeeInput(domain.Employee{ID: xid.New("emp"), Cod: cod}, in)
	if err != nil {
		return domain.Employee{}, err
	}
	s.state.Employees = append(s.state.Employees, employee)
	s.persistLocked(ctx, "employee_add")

	return employee, nil
}

// UpdateEmployee edits an employee. The code keeps the prefix it was created
// with even when the role changes.
func (s *Service) UpdateEmployee(ctx context.Context, id string, in EmployeeInput) (domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.state.Employees, func(e domain.Employee) bool { return e.ID == id })
	if idx < 0 {
		return domain.Employee{}, ErrNotFound
	}
	if s.roleIndexLocked(in.RoleID) < 0 {
		return domain.Employee{}, ErrNotFound
	}

	updated, err := applyEmployeeInput(s.state.Employees[idx], in)
	if err != nil {
		return domain.Employee{}, err
	}
	s.state.Employees[idx] = updated
	s.persistLocked(ctx, "employee_update")

	return updated, nil
}

// DeleteEmployee removes a staff record. The operator currently at the till
// cannot be removed.
func (s *Service) DeleteEmployee(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.state.Employees, func(e domain.Employee) bool { return e.ID == id })
	if idx < 0 {
		return ErrNotFound
	}
	if s.state.currentUser != nil && s.state.currentUser.EmployeeID == id {
		return ErrEmployeeActive
	}
	s.state.Employees = slices.Delete(s.state.Employees, idx, idx+1)
	s.persistLocked(ctx, "employee_delete")
	return nil
}

// upgradeLegacyPasswordsLocked hashes plain passwords found in an older
// snapshot and returns how many were rewritten.
func (s *Service) upgradeLegacyPasswordsLocked() int {
	upgraded := 0
	for i, e := range s.state.Employees {
		if e.Passwordless() || isPasswordHash(e.Password) {
			continue
		}
		hashed, err := hashPassword(e.Password)
		if err != nil {
			s.log.Warnw("failed to hash legacy password", "cod", e.Cod, "error", err)
			continue
		}
		s.state.Employees[i].Password = hashed
		upgraded++
	}
	return upgraded
}

func applyEmployeeInput(e domain.Employee, in EmployeeInput) (domain.Employee, error) {
	e.Name = strings.TrimSpace(in.Name)
	e.RoleID = in.RoleID
	e.CPF = strings.TrimSpace(in.CPF)
	e.RG = strings.TrimSpace(in.RG)
	e.Phone = strings.TrimSpace(in.Phone)
	e.Address = strings.TrimSpace(in.Address)
	e.AdmissionDate = strings.TrimSpace(in.AdmissionDate)
	e.Salary = in.Salary

	if in.Password != nil {
		if *in.Password == "" {
			e.Password = ""
		} else {
			hashed, err := hashPassword(*in.Password)
			if err != nil {
				return domain.Employee{}, err
			}
			e.Password = hashed
		}
	}
	return e, nil
}

func verifyPassword(stored string, input string) bool {
	if isPasswordHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(input)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(input)) == 1
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func isPasswordHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}
