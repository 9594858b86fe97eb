package payments

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sgalleguillos/brokerpulse-backend/pkg/db/models"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/enums"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/types"
)

func setupPaymentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	payments := `
CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  billing_info TEXT,
  line_items TEXT NOT NULL,
  amount_gross INTEGER NOT NULL,
  amount_net INTEGER NOT NULL,
  tax INTEGER NOT NULL,
  strategy TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'completed',
  created_at DATETIME
);`
	require.NoError(t, db.Exec(payments).Error)
	return db
}

func samplePayment(userID uuid.UUID) *models.Payment {
	items, _ := json.Marshal([]map[string]any{{
		"productId":    "rp_001",
		"precio_neto":  29990,
		"precio_bruto": 35688,
		"cantidad":     1,
	}})
	return &models.Payment{
		ID:     uuid.New(),
		UserID: userID,
		BillingInfo: types.BillingInfo{
			RUT:         "76.543.210-5",
			RazonSocial: "Corredora Andina SpA",
			Direccion:   "Av. Apoquindo 3000",
		},
		LineItems:   items,
		AmountGross: 35688,
		AmountNet:   29990,
		Tax:         5698,
		Strategy:    enums.CheckoutStrategySingleItem,
		Status:      enums.PaymentStatusCompleted,
	}
}

func TestRepositoryCreateAndFind(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	payment := samplePayment(uuid.New())
	require.NoError(t, repo.Create(ctx, payment))

	found, err := repo.FindByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.UserID, found.UserID)
	assert.Equal(t, int64(35688), found.AmountGross)
	assert.Equal(t, int64(5698), found.Tax)
	assert.Equal(t, enums.CheckoutStrategySingleItem, found.Strategy)
	assert.Equal(t, "Corredora Andina SpA", found.BillingInfo.RazonSocial)

	var items []map[string]any
	require.NoError(t, json.Unmarshal(found.LineItems, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "rp_001", items[0]["productId"])
}

func TestRepositoryFindMissing(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListByUser(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	require.NoError(t, repo.Create(ctx, samplePayment(userID)))
	require.NoError(t, repo.Create(ctx, samplePayment(userID)))
	require.NoError(t, repo.Create(ctx, samplePayment(uuid.New())))

	rows, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, userID, row.UserID)
	}
}
