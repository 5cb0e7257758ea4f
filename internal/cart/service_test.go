package cart

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YAREUGO/shopmall/internal/catalog"
	"github.com/YAREUGO/shopmall/internal/shoperr"
)

type stubCatalog struct {
	products map[string]*catalog.Product
}

func (s *stubCatalog) ListActive(ctx context.Context) ([]catalog.Product, error) { return nil, nil }
func (s *stubCatalog) ListActiveByCategory(ctx context.Context, category string) ([]catalog.Product, error) {
	return nil, nil
}
func (s *stubCatalog) ListFeatured(ctx context.Context, limit int) ([]catalog.Product, error) {
	return nil, nil
}
func (s *stubCatalog) ListCategories(ctx context.Context) ([]string, error) { return nil, nil }

func (s *stubCatalog) GetActiveByID(ctx context.Context, id string) (*catalog.Product, error) {
	p, ok := s.products[id]
	if !ok || !p.IsActive {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

type stubRepo struct {
	lines map[string]*Line // by line id
}

func newStubRepo() *stubRepo { return &stubRepo{lines: make(map[string]*Line)} }

func (s *stubRepo) GetByOwner(ctx context.Context, ownerID string) ([]Line, error) {
	var out []Line
	for _, l := range s.lines {
		if l.OwnerID == ownerID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (s *stubRepo) GetByOwnerAndProduct(ctx context.Context, ownerID, productID string) (*Line, error) {
	for _, l := range s.lines {
		if l.OwnerID == ownerID && l.ProductID == productID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) GetByID(ctx context.Context, ownerID, id string) (*Line, error) {
	l, ok := s.lines[id]
	if !ok || l.OwnerID != ownerID {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (s *stubRepo) Insert(ctx context.Context, l *Line) error {
	cp := *l
	s.lines[l.ID] = &cp
	return nil
}

func (s *stubRepo) UpdateQuantity(ctx context.Context, ownerID, id string, quantity int) error {
	if l, ok := s.lines[id]; ok && l.OwnerID == ownerID {
		l.Quantity = quantity
	}
	return nil
}

func (s *stubRepo) Delete(ctx context.Context, ownerID, id string) error {
	if l, ok := s.lines[id]; ok && l.OwnerID == ownerID {
		delete(s.lines, id)
	}
	return nil
}

func (s *stubRepo) DeleteByOwner(ctx context.Context, ownerID string) error {
	for id, l := range s.lines {
		if l.OwnerID == ownerID {
			delete(s.lines, id)
		}
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(products ...*catalog.Product) (*Service, *stubRepo, *stubCatalog) {
	cat := &stubCatalog{products: make(map[string]*catalog.Product)}
	for _, p := range products {
		cat.products[p.ID] = p
	}
	repo := newStubRepo()
	return NewService(repo, cat, testLogger()), repo, cat
}

func activeProduct(price int64, stock int) *catalog.Product {
	return &catalog.Product{
		ID:       uuid.NewString(),
		Name:     "Mechanical Keyboard",
		Price:    price,
		StockQty: stock,
		IsActive: true,
	}
}

func TestAddItem_InsertsNewLine(t *testing.T) {
	p := activeProduct(1000, 5)
	svc, repo, _ := newTestService(p)
	owner := "user-1"

	require.NoError(t, svc.AddItem(context.Background(), owner, p.ID, 2))

	lines, err := repo.GetByOwner(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, p.ID, lines[0].ProductID)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestAddItem_MergesQuantityInsteadOfDuplicating(t *testing.T) {
	p := activeProduct(1000, 5)
	svc, repo, _ := newTestService(p)
	owner := "user-1"

	require.NoError(t, svc.AddItem(context.Background(), owner, p.ID, 2))
	require.NoError(t, svc.AddItem(context.Background(), owner, p.ID, 2))

	lines, err := repo.GetByOwner(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 4, lines[0].Quantity)
}

func TestAddItem_QuantityOverStock(t *testing.T) {
	p := activeProduct(1000, 3)
	svc, repo, _ := newTestService(p)
	owner := "user-1"

	err := svc.AddItem(context.Background(), owner, p.ID, 4)

	var stockErr *shoperr.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 3, stockErr.Stock)
	assert.Equal(t, p.Name, stockErr.ProductName)

	lines, _ := repo.GetByOwner(context.Background(), owner)
	assert.Empty(t, lines, "a failed add must leave the cart unchanged")
}

func TestAddItem_MergeOverStockLeavesExistingLineUntouched(t *testing.T) {
	p := activeProduct(1000, 3)
	svc, repo, _ := newTestService(p)
	owner := "user-1"

	require.NoError(t, svc.AddItem(context.Background(), owner, p.ID, 2))

	err := svc.AddItem(context.Background(), owner, p.ID, 2)
	var stockErr *shoperr.StockError
	require.ErrorAs(t, err, &stockErr)

	lines, _ := repo.GetByOwner(context.Background(), owner)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestAddItem_NonPositiveQuantity(t *testing.T) {
	p := activeProduct(1000, 5)
	svc, _, _ := newTestService(p)

	var validationErr *shoperr.ValidationError
	require.ErrorAs(t, svc.AddItem(context.Background(), "user-1", p.ID, 0), &validationErr)
	require.ErrorAs(t, svc.AddItem(context.Background(), "user-1", p.ID, -1), &validationErr)
}

func TestAddItem_InactiveProduct(t *testing.T) {
	p := activeProduct(1000, 5)
	p.IsActive = false
	svc, _, _ := newTestService(p)

	err := svc.AddItem(context.Background(), "user-1", p.ID, 1)
	require.ErrorIs(t, err, shoperr.ErrNotFound)
}

func TestSetQuantity_ForeignLineIsNotFound(t *testing.T) {
	p := activeProduct(1000, 5)
	svc, repo, _ := newTestService(p)
	require.NoError(t, svc.AddItem(context.Background(), "user-1", p.ID, 1))

	var lineID string
	for id := range repo.lines {
		lineID = id
	}

	err := svc.SetQuantity(context.Background(), "user-2", lineID, 3)
	require.ErrorIs(t, err, shoperr.ErrNotFound)
	assert.Equal(t, 1, repo.lines[lineID].Quantity)
}

func TestSetQuantity_OverStock(t *testing.T) {
	p := activeProduct(1000, 2)
	svc, repo, _ := newTestService(p)
	require.NoError(t, svc.AddItem(context.Background(), "user-1", p.ID, 1))

	var lineID string
	for id := range repo.lines {
		lineID = id
	}

	// The joined product is what SetQuantity validates against.
	repo.lines[lineID].Product = p

	var stockErr *shoperr.StockError
	require.ErrorAs(t, svc.SetQuantity(context.Background(), "user-1", lineID, 3), &stockErr)
	assert.Equal(t, 2, stockErr.Stock)
}

func TestRemoveItem_AbsentIDIsSilentNoop(t *testing.T) {
	p := activeProduct(1000, 5)
	svc, _, _ := newTestService(p)

	require.NoError(t, svc.RemoveItem(context.Background(), "user-1", uuid.NewString()))
}

func TestItems_AbsentOwnerGetsEmptyList(t *testing.T) {
	svc, _, _ := newTestService()

	lines, err := svc.Items(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestSummary_Totals(t *testing.T) {
	p := activeProduct(1500, 10)
	svc, repo, _ := newTestService(p)
	owner := "user-1"
	require.NoError(t, svc.AddItem(context.Background(), owner, p.ID, 3))

	// The joined product comes from the repo on reads.
	for _, l := range repo.lines {
		l.Product = p
	}

	sum, err := svc.Summary(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.TotalItems)
	assert.Equal(t, int64(4500), sum.TotalAmount)
	assert.Len(t, sum.Items, 1)
}

func TestClear_EmptyCartSucceeds(t *testing.T) {
	svc, _, _ := newTestService()
	require.NoError(t, svc.Clear(context.Background(), "user-1"))
}
