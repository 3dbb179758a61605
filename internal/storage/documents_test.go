package storage

import (
	"testing"
	"time"

	"github.com/darkkaiser/price-scanner/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestProductDoc_ToContract(t *testing.T) {
	t.Parallel()

	doc := productDoc{
		ID:     "p1",
		Name:   "Surging Sparks Booster Box",
		SetID:  "set1",
		TypeID: "booster-box",
		Search: &searchOverrideDoc{
			Phrases:  []string{"surging sparks booster box"},
			Exclude:  []string{"japanese"},
			Override: true,
		},
	}

	p := doc.toContract()

	assert.Equal(t, contract.ProductID("p1"), p.ID)
	assert.Equal(t, contract.SetID("set1"), p.SetID)
	assert.Equal(t, contract.TypeID("booster-box"), p.TypeID)
	require.NotNil(t, p.Search)
	assert.True(t, p.Search.Override)
	assert.Equal(t, []string{"japanese"}, p.Search.Exclude)

	// 검색 재정의가 없는 문서는 nil로 남는다.
	assert.Nil(t, productDoc{ID: "p2", Name: "ETB"}.toContract().Search)
}

func TestUserDoc_ChannelPresence(t *testing.T) {
	t.Parallel()

	withChannel := userDoc{ID: "u1", ChannelID: "chat-1", DisplayName: "Kim"}.toContract()
	assert.True(t, withChannel.HasChannel)

	// 채널 ID가 비어있으면 수신 채널이 없는 사용자로 판정된다.
	withoutChannel := userDoc{ID: "u2", DisplayName: "Lee"}.toContract()
	assert.False(t, withoutChannel.HasChannel)
}

func TestStateDoc_RoundTrip(t *testing.T) {
	t.Parallel()

	notifiedAt := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	price := 79.99
	state := contract.NotificationState{
		UserID:         "u1",
		ProductID:      "p1",
		ShopID:         "shopA",
		LastNotifiedAt: &notifiedAt,
		LastPrice:      &price,
		WasAvailable:   true,
	}

	assert.Equal(t, state, newStateDoc(state).toContract())

	// 가격을 알 수 없었던 상태는 nil 포인터가 그대로 보존된다.
	unknown := contract.NotificationState{UserID: "u1", ProductID: "p1", ShopID: "shopA"}
	restored := newStateDoc(unknown).toContract()
	assert.Nil(t, restored.LastNotifiedAt)
	assert.Nil(t, restored.LastPrice)
}

func TestStateFilter(t *testing.T) {
	t.Parallel()

	filter := stateFilter(contract.StateKey{UserID: "u1", ProductID: "p1", ShopID: "shopA"})

	assert.Equal(t, bson.D{
		{Key: "user_id", Value: "u1"},
		{Key: "product_id", Value: "p1"},
		{Key: "shop_id", Value: "shopA"},
	}, filter)
}

func TestResultFilter_UsesHourBucket(t *testing.T) {
	t.Parallel()

	result := contract.ExtractionResult{
		ProductID: "p1",
		ShopID:    "shopA",
		Timestamp: time.Date(2026, 8, 25, 10, 45, 30, 0, time.UTC),
	}

	filter := resultFilter(result)
	require.Len(t, filter, 3)
	assert.Equal(t, "hour_bucket", filter[2].Key)
	assert.Equal(t, "2026-08-25T10", filter[2].Value)
}

func TestResultUpdate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 25, 10, 46, 0, 0, time.UTC)
	price := 399.99
	result := contract.ExtractionResult{
		ProductID:  "p1",
		ShopID:     "shopA",
		ProductURL: "https://shop.example/bb",
		Price:      &price,
		Available:  true,
		Timestamp:  now,
	}

	update := resultUpdate(result, now)

	set, ok := update["$set"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, "https://shop.example/bb", set["product_url"])
	assert.Equal(t, 399.99, set["price"])
	assert.Equal(t, true, set["is_available"])

	assert.Equal(t, bson.M{"scan_count": 1}, update["$inc"])
	assert.Equal(t, bson.M{"created_at": now}, update["$setOnInsert"])

	// 가격을 추출하지 못한 결과는 price가 명시적으로 null로 덮어써진다.
	noPrice := resultUpdate(contract.ExtractionResult{ProductID: "p1", ShopID: "shopA"}, now)
	set, ok = noPrice["$set"].(bson.M)
	require.True(t, ok)
	assert.Nil(t, set["price"])
}

func TestNewNotificationDoc(t *testing.T) {
	t.Parallel()

	createdAt := time.Date(2026, 8, 25, 10, 47, 0, 0, time.UTC)
	n := contract.Notification{
		UserID: "u1",
		Status: contract.NotificationStatusPending,
		Payload: contract.NotificationPayload{
			ProductName: "Surging Sparks Booster Box",
			ShopName:    "Shop A",
			ShopID:      "shopA",
			ProductID:   "p1",
			Price:       399.99,
			MaxPrice:    500,
			ProductURL:  "https://shop.example/bb",
		},
		Deliveries: []contract.Delivery{},
		CreatedAt:  createdAt,
	}

	doc := newNotificationDoc(n)

	assert.Equal(t, "u1", doc.UserID)
	assert.Equal(t, "pending", doc.Status)
	assert.Equal(t, "p1", doc.Payload.ProductID)
	assert.Equal(t, 500.0, doc.Payload.MaxPrice)
	assert.NotNil(t, doc.Deliveries, "빈 전달 이력도 배열로 직렬화되어야 한다")
	assert.Empty(t, doc.Deliveries)
	assert.Equal(t, createdAt, doc.CreatedAt)
}
