package service

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"pdvcaixa/internal/domain"
	"pdvcaixa/internal/logger"
	"pdvcaixa/internal/store"
	"pdvcaixa/internal/store/memory"
)

func TestMain(m *testing.M) {
	bcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	repo := memory.New()
	svc, err := New(context.Background(), repo, logger.Nop(), Options{})
	require.NoError(t, err)
	return svc, repo
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, got.Equal(dec(want)), "expected %s, got %s", want, got)
}

func productByCod(t *testing.T, svc *Service, cod string) domain.Product {
	t.Helper()
	p, err := svc.ProductByCod(cod)
	require.NoError(t, err)
	return p
}

func roleByName(t *testing.T, svc *Service, name string) domain.Role {
	t.Helper()
	for _, r := range svc.Roles() {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("role %s not seeded", name)
	return domain.Role{}
}

func loginAdmin(t *testing.T, svc *Service) domain.CurrentUser {
	t.Helper()
	user, err := svc.Login(context.Background(), "ADM-001", "2026")
	require.NoError(t, err)
	return user
}

func openRegister(t *testing.T, svc *Service, balance string) domain.CashRegisterSession {
	t.Helper()
	session, err := svc.OpenRegister(context.Background(), dec(balance))
	require.NoError(t, err)
	return session
}

func TestNewSeedsAndPersistsDefaults(t *testing.T) {
	svc, repo := newTestService(t)

	assert.Equal(t, 1, repo.Saves())
	assert.Len(t, svc.Products(), 4)
	assert.Len(t, svc.Roles(), 5)
	assert.Equal(t, domain.DefaultTheme(), svc.Theme())

	cafe := productByCod(t, svc, "7891000315507")
	requireDecimal(t, "5.00", cafe.Price)
	requireDecimal(t, "100", cafe.Stock)

	stored, err := repo.Load(context.Background())
	require.NoError(t, err)
	for _, e := range stored.Employees {
		if e.Cod == "ADM-001" {
			assert.True(t, isPasswordHash(e.Password), "seeded password must be hashed")
		}
		if e.Cod == "G-001" {
			assert.Empty(t, e.Password)
		}
	}
}

func TestNewSeedsConfiguredAdminPassword(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.WarnLevel)
	svc, err := New(ctx, memory.New(), &logger.Logger{SugaredLogger: zap.New(core).Sugar()}, Options{SeedAdminPassword: "s3nha-forte"})
	require.NoError(t, err)
	assert.Equal(t, 0, logs.Len())

	_, err = svc.Login(ctx, "ADM-001", "2026")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	user, err := svc.Login(ctx, "ADM-001", "s3nha-forte")
	require.NoError(t, err)
	assert.Equal(t, "Administrador", user.RoleName)
}

func TestNewWarnsAboutDefaultAdminPassword(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	_, err := New(context.Background(), memory.New(), &logger.Logger{SugaredLogger: zap.New(core).Sugar()}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, logs.Len())
}

func TestNewRestoresSnapshotWithoutSessionState(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	loginAdmin(t, svc)
	openRegister(t, svc, "100")
	cafe := productByCod(t, svc, "7891000315507")
	_, err := svc.AddToCart(cafe.ID, dec("2"))
	require.NoError(t, err)
	_, err = svc.FinalizeSale(ctx, FinalizeRequest{PaymentMethod: domain.PaymentPIX, Total: dec("10")})
	require.NoError(t, err)

	restored, err := New(ctx, repo, logger.Nop(), Options{})
	require.NoError(t, err)

	_, loggedIn := restored.CurrentUser()
	assert.False(t, loggedIn)
	_, open := restored.CurrentRegister()
	assert.False(t, open)
	_, hasLast := restored.LastTransaction()
	assert.False(t, hasLast)
	assert.Empty(t, restored.Cart())

	assert.Len(t, restored.Transactions(), 1)
	requireDecimal(t, "98", productByCod(t, restored, "7891000315507").Stock)
}

func TestNewUpgradesLegacyPlainPasswords(t *testing.T) {
	ctx := context.Background()
	role := domain.Role{ID: "role-v", Name: "Vendedor", Prefix: "V"}
	repo, err := memory.NewWith(domain.Snapshot{
		Roles:     []domain.Role{role},
		Employees: []domain.Employee{{ID: "emp-1", Cod: "V-001", Name: "Ana", RoleID: role.ID, Password: "1234"}},
	})
	require.NoError(t, err)

	svc, err := New(ctx, repo, logger.Nop(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.Saves())

	stored, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.True(t, isPasswordHash(stored.Employees[0].Password))

	user, err := svc.Login(ctx, "v-001", "1234")
	require.NoError(t, err)
	assert.Equal(t, "Vendedor", user.RoleName)
	assert.Equal(t, domain.DefaultTheme(), svc.Theme(), "missing theme falls back to default")
}

func TestNewFailsOnCorruptSnapshot(t *testing.T) {
	_, err := New(context.Background(), corruptStore{}, nil, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrCorrupt))
}

type corruptStore struct{}

func (corruptStore) Load(context.Context) (domain.Snapshot, error) {
	return domain.Snapshot{}, store.ErrCorrupt
}

func (corruptStore) Save(context.Context, domain.Snapshot) error { return nil }

func TestPersistenceFailureKeepsInMemoryMutation(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.WarnLevel)
	repo := memory.New()
	svc, err := New(ctx, repo, &logger.Logger{SugaredLogger: zap.New(core).Sugar()}, Options{})
	require.NoError(t, err)
	loginAdmin(t, svc)
	openRegister(t, svc, "50")

	repo.FailSaves(errors.New("quota exceeded"))

	cafe := productByCod(t, svc, "7891000315507")
	_, err = svc.AddToCart(cafe.ID, dec("1"))
	require.NoError(t, err)
	tx, err := svc.FinalizeSale(ctx, FinalizeRequest{PaymentMethod: domain.PaymentCash, Total: dec("5")})
	require.NoError(t, err)

	assert.Equal(t, tx.ID, svc.Transactions()[0].ID)
	requireDecimal(t, "99", productByCod(t, svc, "7891000315507").Stock)
	assert.Equal(t, 1, logs.FilterMessage("snapshot save failed").Len())
}

func TestSetThemeValidatesAndPersists(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	_, err := svc.SetTheme(ctx, domain.ThemeSettings{PrimaryColor: domain.HSLColor{H: 400}, FontFamily: domain.FontInter})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.SetTheme(ctx, domain.ThemeSettings{FontFamily: "comic-sans"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	theme := domain.ThemeSettings{PrimaryColor: domain.HSLColor{H: 142, S: 71, L: 45}, FontFamily: domain.FontSpaceMono}
	_, err = svc.SetTheme(ctx, theme)
	require.NoError(t, err)

	stored, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, theme, stored.Theme)
}

func TestSnapshotIsACopy(t *testing.T) {
	svc, _ := newTestService(t)

	snap := svc.Snapshot()
	snap.Products[0].Name = "mutated"

	assert.NotEqual(t, "mutated", svc.Products()[0].Name)
}
