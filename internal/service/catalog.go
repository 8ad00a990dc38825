package service

import (
	"context"
	"slices"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"pdvcaixa/internal/domain"
	"pdvcaixa/internal/xid"
)

type ProductInput struct {
	Cod        string
	Name       string
	Price      decimal.Decimal
	Stock      decimal.Decimal
	Unit       domain.Unit
	SupplierID string
}

type SupplierInput struct {
	Name          string
	ContactPerson string
	Phone         string
	Email         string
	Address       string
}

type RoleInput struct {
	Name   string
	Prefix string
}

func (s *Service) Products() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.state.Products)
}

func (s *Service) Product(id string) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.productIndexLocked(id)
	if idx < 0 {
		return domain.Product{}, ErrNotFound
	}
	return s.state.Products[idx], nil
}

// ProductByCod resolves a scanned or typed code to a catalog product.
func (s *Service) ProductByCod(cod string) (domain.Product, error) {
	cod = strings.TrimSpace(cod)
	if cod == "" {
		return domain.Product{}, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.state.Products {
		if strings.EqualFold(p.Cod, cod) {
			return p, nil
		}
	}
	return domain.Product{}, ErrNotFound
}

// AddProduct stores a new product. A caller supplied code (usually a barcode)
// is kept, otherwise the next PROD code is assigned. Prices and stock are not
// range checked here.
func (s *Service) AddProduct(ctx context.Context, in ProductInput) (domain.Product, error) {
	unit, err := resolveUnit(in.Unit)
	if err != nil {
		return domain.Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cod := strings.TrimSpace(in.Cod)
	if cod == "" {
		cod = s.nextProductCodeLocked()
	} else if s.productCodeTakenLocked(cod, "") {
		return domain.Product{}, ErrDuplicateCode
	}

	product := domain.Product{
		ID:         xid.New("prod"),
		Cod:        cod,
		Name:       strings.TrimSpace(in.Name),
		Price:      in.Price,
		Stock:      unit.Measure().Normalize(in.Stock),
		Unit:       unit,
		SupplierID: strings.TrimSpace(in.SupplierID),
	}
	s.state.Products = append(s.state.Products, product)
	s.persistLocked(ctx, "product_add")

	return product, nil
}

// UpdateProduct replaces the editable fields of a product. The code assigned
// at creation never changes.
func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) (domain.Product, error) {
	unit, err := resolveUnit(in.Unit)
	if err != nil {
		return domain.Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.productIndexLocked(id)
	if idx < 0 {
		return domain.Product{}, ErrNotFound
	}

	updated := s.state.Products[idx]
	updated.Name = strings.TrimSpace(in.Name)
	updated.Price = in.Price
	updated.Stock = unit.Measure().Normalize(in.Stock)
	updated.Unit = unit
	updated.SupplierID = strings.TrimSpace(in.SupplierID)

	s.state.Products[idx] = updated
	s.persistLocked(ctx, "product_update")

	return updated, nil
}

// DeleteProduct removes a product from the catalog. Past transactions hold
// their own copies so nothing else needs to change.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.productIndexLocked(id)
	if idx < 0 {
		return ErrNotFound
	}
	s.state.Products = slices.Delete(s.state.Products, idx, idx+1)
	s.persistLocked(ctx, "product_delete")
	return nil
}

func (s *Service) Suppliers() []domain.Supplier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.state.Suppliers)
}

func (s *Service) AddSupplier(ctx context.Context, in SupplierInput) (domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	supplier := applySupplierInput(domain.Supplier{
		ID:  xid.New("sup"),
		Cod: s.nextSupplierCodeLocked(),
	}, in)
	s.state.Suppliers = append(s.state.Suppliers, supplier)
	s.persistLocked(ctx, "supplier_add")

	return supplier, nil
}

func (s *Service) UpdateSupplier(ctx context.Context, id string, in SupplierInput) (domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.state.Suppliers, func(sp domain.Supplier) bool { return sp.ID == id })
	if idx < 0 {
		return domain.Supplier{}, ErrNotFound
	}
	updated := applySupplierInput(s.state.Suppliers[idx], in)
	s.state.Suppliers[idx] = updated
	s.persistLocked(ctx, "supplier_update")

	return updated, nil
}

// DeleteSupplier removes the supplier. Products keep their supplierId as a
// weak reference.
func (s *Service) DeleteSupplier(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.state.Suppliers, func(sp domain.Supplier) bool { return sp.ID == id })
	if idx < 0 {
		return ErrNotFound
	}
	s.state.Suppliers = slices.Delete(s.state.Suppliers, idx, idx+1)
	s.persistLocked(ctx, "supplier_delete")
	return nil
}

func (s *Service) Roles() []domain.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.state.Roles)
}

func (s *Service) AddRole(ctx context.Context, in RoleInput) (domain.Role, error) {
	name, prefix, err := normalizeRoleInput(in)
	if err != nil {
		return domain.Role{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	role := domain.Role{ID: xid.New("role"), Name: name, Prefix: prefix}
	s.state.Roles = append(s.state.Roles, role)
	s.persistLocked(ctx, "role_add")

	return role, nil
}

// UpdateRole renames a role or changes its prefix. Existing employee codes
// keep the prefix they were created with.
func (s *Service) UpdateRole(ctx context.Context, id string, in RoleInput) (domain.Role, error) {
	name, prefix, err := normalizeRoleInput(in)
	if err != nil {
		return domain.Role{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.roleIndexLocked(id)
	if idx < 0 {
		return domain.Role{}, ErrNotFound
	}
	s.state.Roles[idx].Name = name
	s.state.Roles[idx].Prefix = prefix
	s.persistLocked(ctx, "role_update")

	return s.state.Roles[idx], nil
}

// CanDeleteRole reports whether no employee references the role.
func (s *Service) CanDeleteRole(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canDeleteRoleLocked(id)
}

func (s *Service) canDeleteRoleLocked(id string) bool {
	return !slices.ContainsFunc(s.state.Employees, func(e domain.Employee) bool { return e.RoleID == id })
}

func (s *Service) DeleteRole(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.roleIndexLocked(id)
	if idx < 0 {
		return ErrNotFound
	}
	if !s.canDeleteRoleLocked(id) {
		return ErrRoleInUse
	}
	s.state.Roles = slices.Delete(s.state.Roles, idx, idx+1)
	s.persistLocked(ctx, "role_delete")
	return nil
}

func (s *Service) productIndexLocked(id string) int {
	return slices.IndexFunc(s.state.Products, func(p domain.Product) bool { return p.ID == id })
}

func (s *Service) roleIndexLocked(id string) int {
	return slices.IndexFunc(s.state.Roles, func(r domain.Role) bool { return r.ID == id })
}

func (s *Service) productCodeTakenLocked(cod string, exceptID string) bool {
	return slices.ContainsFunc(s.state.Products, func(p domain.Product) bool {
		return p.ID != exceptID && strings.EqualFold(p.Cod, cod)
	})
}

func resolveUnit(unit domain.Unit) (domain.Unit, error) {
	if unit == "" {
		return domain.UnitPiece, nil
	}
	parsed, ok := domain.ParseUnit(string(unit))
	if !ok {
		return "", ErrInvalidInput
	}
	return parsed, nil
}

func applySupplierInput(sp domain.Supplier, in SupplierInput) domain.Supplier {
	sp.Name = strings.TrimSpace(in.Name)
	sp.ContactPerson = strings.TrimSpace(in.ContactPerson)
	sp.Phone = strings.TrimSpace(in.Phone)
	sp.Email = strings.TrimSpace(in.Email)
	sp.Address = strings.TrimSpace(in.Address)
	return sp
}

// normalizeRoleInput upper-cases the prefix and requires it to be one to
// three letters.
func normalizeRoleInput(in RoleInput) (string, string, error) {
	name := strings.TrimSpace(in.Name)
	prefix := strings.ToUpper(strings.TrimSpace(in.Prefix))
	if name == "" || len(prefix) < 1 || len(prefix) > 3 {
		return "", "", ErrInvalidInput
	}
	for _, r := range prefix {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			return "", "", ErrInvalidInput
		}
	}
	return name, prefix, nil
}
