package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/example/ec-storefront/internal/apperr"
	"github.com/example/ec-storefront/internal/infrastructure/store/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func() (string, error) {
	n := 0
	return func() (string, error) {
		n++
		return fmt.Sprintf("line-%d", n), nil
	}
}

func newTestCart(t *testing.T) (*Cart, *mocks.MockBlobStore) {
	t.Helper()
	store := mocks.NewMockBlobStore()
	c, err := Open(context.Background(), "sess-1", store, WithLineIDs(sequentialIDs()))
	require.NoError(t, err)
	return c, store
}

func usd(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var smallRed = Variant{Size: "S", Color: "Red"}

// ============================================
// Add Item Tests
// ============================================

func TestCart_AddItem_CreatesLine(t *testing.T) {
	c, store := newTestCart(t)

	line, err := c.AddItem(context.Background(), 7, usd("19.99"), smallRed, 1)

	require.NoError(t, err)
	assert.Equal(t, "line-1", line.LineID)
	assert.Equal(t, int64(7), line.ProductID)
	assert.Equal(t, 1, line.Quantity)
	assert.Len(t, c.Lines(), 1)
	assert.Len(t, store.SaveCalls, 1)
}

func TestCart_AddItem_MergesSameTriple(t *testing.T) {
	c, _ := newTestCart(t)
	ctx := context.Background()

	first, err := c.AddItem(ctx, 7, usd("19.99"), smallRed, 1)
	require.NoError(t, err)
	second, err := c.AddItem(ctx, 7, usd("19.99"), smallRed, 1)
	require.NoError(t, err)

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, first.LineID, second.LineID)
	assert.Equal(t, 2, second.Quantity)
}

func TestCart_AddItem_KeepsFirstUnitPriceOnMerge(t *testing.T) {
	c, _ := newTestCart(t)
	ctx := context.Background()

	_, err := c.AddItem(ctx, 7, usd("20"), smallRed, 1)
	require.NoError(t, err)
	line, err := c.AddItem(ctx, 7, usd("15"), smallRed, 2)
	require.NoError(t, err)

	assert.True(t, usd("20").Equal(line.UnitPrice))
	assert.True(t, usd("60").Equal(c.Subtotal()))
}

func TestCart_AddItem_DifferentVariantsAreSeparateLines(t *testing.T) {
	c, _ := newTestCart(t)
	ctx := context.Background()

	_, err := c.AddItem(ctx, 7, usd("10"), smallRed, 1)
	require.NoError(t, err)
	_, err = c.AddItem(ctx, 7, usd("10"), Variant{Size: "M", Color: "Red"}, 1)
	require.NoError(t, err)
	_, err = c.AddItem(ctx, 7, usd("10"), Variant{Size: "S", Color: "Blue"}, 1)
	require.NoError(t, err)
	_, err = c.AddItem(ctx, 8, usd("10"), smallRed, 1)
	require.NoError(t, err)

	assert.Len(t, c.Lines(), 4)
	assert.Equal(t, 4, c.ItemCount())
}

func TestCart_AddItem_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		productID int64
		price     decimal.Decimal
		variant   Variant
		qty       int
	}{
		{"zero quantity", 1, usd("1"), smallRed, 0},
		{"negative quantity", 1, usd("1"), smallRed, -3},
		{"quantity above cap", 1, usd("1"), smallRed, MaxLineQuantity + 1},
		{"max int quantity", 1, usd("1"), smallRed, math.MaxInt},
		{"no product", 0, usd("1"), smallRed, 1},
		{"negative price", 1, usd("-1"), smallRed, 1},
		{"missing size", 1, usd("1"), Variant{Color: "Red"}, 1},
		{"missing color", 1, usd("1"), Variant{Size: "S"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, store := newTestCart(t)

			_, err := c.AddItem(context.Background(), tt.productID, tt.price, tt.variant, tt.qty)

			require.Error(t, err)
			assert.True(t, apperr.IsCode(err, apperr.CodeInvalidArgument))
			assert.Empty(t, c.Lines())
			assert.Empty(t, store.SaveCalls)
		})
	}
}

func TestCart_AddItem_MergePastCapIsRejected(t *testing.T) {
	c, store := newTestCart(t)
	ctx := context.Background()

	_, err := c.AddItem(ctx, 7, usd("5"), smallRed, MaxLineQuantity)
	require.NoError(t, err)

	_, err = c.AddItem(ctx, 7, usd("5"), smallRed, 1)

	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Equal(t, MaxLineQuantity, c.ItemCount())
	assert.Len(t, store.SaveCalls, 1)

	reopened, err := Open(ctx, "sess-1", store)
	require.NoError(t, err)
	require.Len(t, reopened.Lines(), 1)
	assert.Equal(t, MaxLineQuantity, reopened.Lines()[0].Quantity)
}

// ============================================
// Update / Remove Tests
// ============================================

func TestCart_UpdateQuantity(t *testing.T) {
	c, _ := newTestCart(t)
	ctx := context.Background()
	line, err := c.AddItem(ctx, 7, usd("5"), smallRed, 1)
	require.NoError(t, err)

	lines, err := c.UpdateQuantity(ctx, line.LineID, 4)

	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 4, lines[0].Quantity)
	assert.Equal(t, 4, c.ItemCount())
}

func TestCart_UpdateQuantityZeroRemoves(t *testing.T) {
	c, _ := newTestCart(t)
	ctx := context.Background()
	line, err := c.AddItem(ctx, 7, usd("5"), smallRed, 1)
	require.NoError(t, err)

	lines, err := c.UpdateQuantity(ctx, line.LineID, 0)
	require.NoError(t, err)
	assert.Empty(t, lines)

	_, err = c.RemoveItem(ctx, line.LineID)
	assert.ErrorIs(t, err, ErrLineNotFound)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestCart_UpdateQuantity_AboveCap(t *testing.T) {
	c, store := newTestCart(t)
	ctx := context.Background()
	line, err := c.AddItem(ctx, 7, usd("5"), smallRed, 2)
	require.NoError(t, err)

	_, err = c.UpdateQuantity(ctx, line.LineID, math.MaxInt)

	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Equal(t, 2, c.ItemCount())
	assert.Len(t, store.SaveCalls, 1)
}

func TestCart_UpdateQuantity_UnknownLine(t *testing.T) {
	c, _ := newTestCart(t)

	_, err := c.UpdateQuantity(context.Background(), "nope", 3)

	assert.ErrorIs(t, err, ErrLineNotFound)
}

func TestCart_RemoveItem_KeepsOrder(t *testing.T) {
	c, _ := newTestCart(t)
	ctx := context.Background()
	for id := int64(1); id <= 3; id++ {
		_, err := c.AddItem(ctx, id, usd("1"), smallRed, 1)
		require.NoError(t, err)
	}

	lines, err := c.RemoveItem(ctx, "line-2")

	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "line-1", lines[0].LineID)
	assert.Equal(t, "line-3", lines[1].LineID)
}

func TestCart_LineIDsAreNeverReused(t *testing.T) {
	store := mocks.NewMockBlobStore()
	c, err := Open(context.Background(), "sess-uuid", store)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := c.AddItem(ctx, 1, usd("1"), smallRed, 1)
	require.NoError(t, err)
	_, err = c.RemoveItem(ctx, first.LineID)
	require.NoError(t, err)
	second, err := c.AddItem(ctx, 1, usd("1"), smallRed, 1)
	require.NoError(t, err)

	assert.NotEqual(t, first.LineID, second.LineID)
	assert.Less(t, first.LineID, second.LineID, "v7 ids sort by creation time")
}

// ============================================
// Aggregate Tests
// ============================================

func TestCart_EmptyAggregates(t *testing.T) {
	c, store := newTestCart(t)

	assert.True(t, c.Subtotal().IsZero())
	assert.Equal(t, 0, c.ItemCount())

	require.NoError(t, c.Clear(context.Background()))
	assert.Empty(t, c.Lines())
	assert.Empty(t, store.SaveCalls)
}

func TestCart_Subtotal(t *testing.T) {
	c, _ := newTestCart(t)
	ctx := context.Background()
	_, err := c.AddItem(ctx, 1, usd("19.99"), smallRed, 2)
	require.NoError(t, err)
	_, err = c.AddItem(ctx, 2, usd("5.50"), smallRed, 3)
	require.NoError(t, err)

	assert.True(t, usd("56.48").Equal(c.Subtotal()), c.Subtotal().String())
	assert.Equal(t, 5, c.ItemCount())

	snap := c.Snapshot()
	assert.Equal(t, "sess-1", snap.SessionID)
	assert.Equal(t, 5, snap.ItemCount)
	assert.True(t, snap.Subtotal.Equal(c.Subtotal()))
}

func TestCart_Clear(t *testing.T) {
	c, store := newTestCart(t)
	ctx := context.Background()
	_, err := c.AddItem(ctx, 1, usd("10"), smallRed, 1)
	require.NoError(t, err)

	require.NoError(t, c.Clear(ctx))

	assert.Empty(t, c.Lines())
	assert.JSONEq(t, `[]`, string(store.Blob("sess-1")))
}

// ============================================
// Persistence Tests
// ============================================

func TestCart_PersistsAndRestores(t *testing.T) {
	c, store := newTestCart(t)
	ctx := context.Background()
	_, err := c.AddItem(ctx, 3, usd("12.50"), Variant{Size: "L", Color: "Navy"}, 2)
	require.NoError(t, err)

	assert.JSONEq(t,
		`[{"lineId":"line-1","productId":3,"size":"L","color":"Navy","unitPrice":"12.5","quantity":2}]`,
		string(store.Blob("sess-1")))

	restored, err := Open(ctx, "sess-1", store)
	require.NoError(t, err)
	assert.Equal(t, c.Lines()[0].LineID, restored.Lines()[0].LineID)
	assert.Equal(t, 2, restored.ItemCount())
	assert.True(t, usd("25").Equal(restored.Subtotal()))
}

func TestOpen_CorruptBlobYieldsEmptyLedger(t *testing.T) {
	blobs := []string{
		`{not json`,
		`{"lineId":"x"}`,
		`[{"lineId":"","productId":1,"size":"S","color":"Red","unitPrice":"1","quantity":1}]`,
		`[{"lineId":"a","productId":1,"size":"S","color":"Red","unitPrice":"1","quantity":0}]`,
		`[{"lineId":"a","productId":1,"size":"S","color":"Red","unitPrice":"1","quantity":1},
		  {"lineId":"a","productId":2,"size":"S","color":"Red","unitPrice":"1","quantity":1}]`,
	}

	for i, blob := range blobs {
		t.Run(fmt.Sprintf("blob-%d", i), func(t *testing.T) {
			store := mocks.NewMockBlobStore()
			store.Put("s", []byte(blob))

			c, err := Open(context.Background(), "s", store)

			require.NoError(t, err)
			assert.Empty(t, c.Lines())
			assert.Equal(t, 0, c.ItemCount())
		})
	}
}

func TestOpen_MergesDuplicateTriples(t *testing.T) {
	store := mocks.NewMockBlobStore()
	store.Put("s", []byte(`[
		{"lineId":"a","productId":1,"size":"S","color":"Red","unitPrice":"2","quantity":1},
		{"lineId":"b","productId":1,"size":"S","color":"Red","unitPrice":"2","quantity":2}
	]`))

	c, err := Open(context.Background(), "s", store)

	require.NoError(t, err)
	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "a", lines[0].LineID)
	assert.Equal(t, 3, lines[0].Quantity)
}

func TestOpen_StoreFailure(t *testing.T) {
	store := mocks.NewMockBlobStore()
	store.LoadErr = errors.New("redis down")

	_, err := Open(context.Background(), "s", store)

	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeSourceUnavailable))
}

// stallingStore blocks Load until the caller's deadline passes.
type stallingStore struct {
	*mocks.MockBlobStore
}

func (s stallingStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestOpen_LoadIsBounded(t *testing.T) {
	store := stallingStore{mocks.NewMockBlobStore()}

	start := time.Now()
	_, err := Open(context.Background(), "s", store, WithSaveTimeout(20*time.Millisecond))

	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeSourceUnavailable))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestCart_SaveFailureKeepsMutation(t *testing.T) {
	c, store := newTestCart(t)
	store.SaveErr = errors.New("disk full")

	line, err := c.AddItem(context.Background(), 7, usd("9"), smallRed, 2)

	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeSourceUnavailable))
	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, 2, c.ItemCount())
	assert.Nil(t, store.Blob("sess-1"))

	// the next successful save carries the earlier mutation
	store.SaveErr = nil
	_, err = c.UpdateQuantity(context.Background(), line.LineID, 3)
	require.NoError(t, err)

	var persisted []Line
	require.NoError(t, json.Unmarshal(store.Blob("sess-1"), &persisted))
	require.Len(t, persisted, 1)
	assert.Equal(t, 3, persisted[0].Quantity)
}

// ============================================
// Sessions Tests
// ============================================

func TestSessions_OpenIsLazyAndShared(t *testing.T) {
	store := mocks.NewMockBlobStore()
	sessions := NewSessions(store)
	ctx := context.Background()

	a, err := sessions.Open(ctx, "s1")
	require.NoError(t, err)
	b, err := sessions.Open(ctx, "s1")
	require.NoError(t, err)
	other, err := sessions.Open(ctx, "s2")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, other)
	assert.Equal(t, []string{"s1", "s2"}, store.LoadCalls)
	assert.Equal(t, 2, sessions.Len())
}

func TestSessions_SweepReloadsFromStore(t *testing.T) {
	store := mocks.NewMockBlobStore()
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sessions := NewSessions(store, withClock(func() time.Time { return clock }))
	ctx := context.Background()

	c, err := sessions.Open(ctx, "s1")
	require.NoError(t, err)
	_, err = c.AddItem(ctx, 1, usd("3"), smallRed, 1)
	require.NoError(t, err)

	assert.Zero(t, sessions.Sweep(clock.Add(-time.Minute)))
	assert.Equal(t, 1, sessions.Sweep(clock.Add(time.Minute)))
	assert.Zero(t, sessions.Len())

	reopened, err := sessions.Open(ctx, "s1")
	require.NoError(t, err)
	assert.NotSame(t, c, reopened)
	assert.Equal(t, 1, reopened.ItemCount())
}
