package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"pdvcaixa/internal/access"
	"pdvcaixa/internal/domain"
	"pdvcaixa/internal/service"
)

type loginRequest struct {
	Cod      string `json:"cod" binding:"required"`
	Password string `json:"password"`
}

type productRequest struct {
	Cod        string          `json:"cod"`
	Name       string          `json:"name" binding:"required"`
	Price      decimal.Decimal `json:"price"`
	Stock      decimal.Decimal `json:"stock"`
	Unit       domain.Unit     `json:"unit"`
	SupplierID string          `json:"supplierId"`
}

func (r productRequest) input() service.ProductInput {
	return service.ProductInput{
		Cod:        r.Cod,
		Name:       r.Name,
		Price:      r.Price,
		Stock:      r.Stock,
		Unit:       r.Unit,
		SupplierID: r.SupplierID,
	}
}

type supplierRequest struct {
	Name          string `json:"name" binding:"required"`
	ContactPerson string `json:"contactPerson"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
}

func (r supplierRequest) input() service.SupplierInput {
	return service.SupplierInput(r)
}

type roleRequest struct {
	Name   string `json:"name" binding:"required"`
	Prefix string `json:"prefix" binding:"required"`
}

type employeeRequest struct {
	Name          string           `json:"name" binding:"required"`
	RoleID        string           `json:"roleId" binding:"required"`
	Password      *string          `json:"password"`
	CPF           string           `json:"cpf"`
	RG            string           `json:"rg"`
	Phone         string           `json:"phone"`
	Address       string           `json:"address"`
	AdmissionDate string           `json:"admissionDate"`
	Salary        *decimal.Decimal `json:"salary"`
}

func (r employeeRequest) input() service.EmployeeInput {
	return service.EmployeeInput(r)
}

// employeeView is an employee as exposed over HTTP, without the password.
type employeeView struct {
	ID            string           `json:"id"`
	Cod           string           `json:"cod"`
	Name          string           `json:"name"`
	RoleID        string           `json:"roleId"`
	HasPassword   bool             `json:"hasPassword"`
	CPF           string           `json:"cpf,omitempty"`
	RG            string           `json:"rg,omitempty"`
	Phone         string           `json:"phone,omitempty"`
	Address       string           `json:"address,omitempty"`
	AdmissionDate string           `json:"admissionDate,omitempty"`
	Salary        *decimal.Decimal `json:"salary,omitempty"`
}

func viewEmployee(e domain.Employee) employeeView {
	return employeeView{
		ID:            e.ID,
		Cod:           e.Cod,
		Name:          e.Name,
		RoleID:        e.RoleID,
		HasPassword:   !e.Passwordless(),
		CPF:           e.CPF,
		RG:            e.RG,
		Phone:         e.Phone,
		Address:       e.Address,
		AdmissionDate: e.AdmissionDate,
		Salary:        e.Salary,
	}
}

type roleView struct {
	domain.Role
	CanDelete bool `json:"canDelete"`
}

func (a *API) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(c *gin.Context) {
	if !a.loginLimiter.Allow(c.ClientIP()) {
		writeError(c, http.StatusTooManyRequests, errTooManyAttempts)
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeBindError(c, err)
		return
	}

	user, err := a.service.Login(c.Request.Context(), req.Cod, req.Password)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	token, expiresAt, err := a.auth.Issue(user)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accessToken": token,
		"expiresAt":   expiresAt.Format(time.RFC3339),
		"user":        user,
		"areas":       access.Areas(user.RoleName),
	})
}

func (a *API) handleLogout(c *gin.Context) {
	a.service.Logout()
	c.Status(http.StatusNoContent)
}

func (a *API) handleMe(c *gin.Context) {
	user := currentOperator(c)
	c.JSON(http.StatusOK, gin.H{"user": user, "areas": access.Areas(user.RoleName)})
}

func (a *API) handleListProducts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"products": a.service.Products()})
}

func (a *API) handleProductByCod(c *gin.Context) {
	product, err := a.service.ProductByCod(c.Param("cod"))
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (a *API) handleNextProductCode(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cod": a.service.NextProductCode()})
}

func (a *API) handleCreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeBindError(c, err)
		return
	}
	product, err := a.service.AddProduct(c.Request.Context(), req.input())
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": product})
}

func (a *API) handleUpdateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeBindError(c, err)
		return
	}
	product, err := a.service.UpdateProduct(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (a *API) handleDeleteProduct(c *gin.Context) {
	if err := a.service.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		a.writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) handleListSuppliers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"suppliers": a.service.Suppliers()})
}

func (a *API) handleNextSupplierCode(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cod": a.service.NextSupplierCode()})
}

func (a *API) handleCreateSupplier(c *gin.Context) {
	var req supplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeBindError(c, err)
		return
	}
	supplier, err := a.service.AddSupplier(c.Request.Context(), req.input())
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"supplier": supplier})
}

func (a *API) handleUpdateSupplier(c *gin.Context) {
	var req supplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeBindError(c, err)
		return
	}
	supplier, err := a.service.UpdateSupplier(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"supplier": supplier})
}

func (a *API) handleDeleteSupplier(c *gin.Context) {
	if err := a.service.DeleteSupplier(c.Request.Context(), c.Param("id")); err != nil {
		a.writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) handleListRoles(c *gin.Context) {
	roles := a.service.Roles()
	out := make([]roleView, len(roles))
	for i, r := range roles {
		out[i] = roleView{Role: r, CanDelete: a.service.CanDeleteRole(r.ID)}
	}
	c.JSON(http.StatusOK, gin.H{"roles": out})
}

func (a *API) handleCreateRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeBindError(c, err)
		return
	}
	role, err := a.service.AddRole(c.Request.Context(), service.RoleInput(req))
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"role": role})
}

func (a *API) handleUpdateRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeBindError(c, err)
		return
	}
	role, err := a.service.UpdateRole(c.Request.Context(), c.Param("id"), service.RoleInput(req))
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"role": role})
}

func (a *API) handleDeleteRole(c *gin.Context) {
	if err := a.service.DeleteRole(c.Request.Context(), c.Param("id")); err != nil {
		a.writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) handleListEmployees(c *gin.Context) {
	employees := a.service.Employees()
	out := make([]employeeView, len(employees))
	for i, e := range employees {
		out[i] = viewEmployee(e)
	}
	c.JSON(http.StatusOK, gin.H{"employees": out})
}

func (a *API) handleNextEmployeeCode(c *gin.Context) {
	cod := a.service.NextEmployeeCode(c.Query("roleId"))
	if cod == "" {
		writeError(c, http.StatusNotFound, service.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cod": cod})
}

func (a *API) handleCreateEmployee(c *gin.Context) {
	var req employeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeBindError(c, err)
		return
	}
	employee, err := a.service.AddEmployee(c.Request.Context(), req.input())
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"employee": viewEmployee(employee)})
}

func (a *API) handleUpdateEmployee(c *gin.Context) {
	var req employeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeBindError(c, err)
		return
	}
	employee, err := a.service.UpdateEmployee(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employee": viewEmployee(employee)})
}

func (a *API) handleDeleteEmployee(c *gin.Context) {
	if err := a.service.DeleteEmployee(c.Request.Context(), c.Param("id")); err != nil {
		a.writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) handleGetTheme(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"theme": a.service.Theme()})
}

func (a *API) handleSetTheme(c *gin.Context) {
	var req domain.ThemeSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		a.writeBindError(c, err)
		return
	}
	theme, err := a.service.SetTheme(c.Request.Context(), req)
	if err != nil {
		a.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": theme})
}
