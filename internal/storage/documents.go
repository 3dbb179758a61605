package storage

import (
	"time"

	"github.com/darkkaiser/price-scanner/internal/contract"
	"go.mongodb.org/mongo-driver/bson"
)

// 컬렉션 이름. 상품/감시 데이터는 외부 CRUD가 소유하고 스캔 코어는 읽기만 합니다.
const (
	collProducts      = "products"
	collProductSets   = "product_sets"
	collProductTypes  = "product_types"
	collWatches       = "watches"
	collUsers         = "users"
	collResults       = "scan_results"
	collStates        = "notification_states"
	collNotifications = "notifications"
)

// resultTTL 스크래핑 결과 레코드의 보존 기간입니다.
const resultTTL = 24 * time.Hour

type searchOverrideDoc struct {
	Phrases  []string `bson:"phrases,omitempty"`
	Exclude  []string `bson:"exclude,omitempty"`
	Override bool     `bson:"override,omitempty"`
}

type productDoc struct {
	ID       string             `bson:"_id"`
	Name     string             `bson:"name"`
	SetID    string             `bson:"set_id,omitempty"`
	TypeID   string             `bson:"type_id,omitempty"`
	Search   *searchOverrideDoc `bson:"search,omitempty"`
	Disabled bool               `bson:"disabled,omitempty"`
}

func (d productDoc) toContract() contract.Product {
	p := contract.Product{
		ID:       contract.ProductID(d.ID),
		Name:     d.Name,
		SetID:    contract.SetID(d.SetID),
		TypeID:   contract.TypeID(d.TypeID),
		Disabled: d.Disabled,
	}
	if d.Search != nil {
		p.Search = &contract.SearchOverride{
			Phrases:  d.Search.Phrases,
			Exclude:  d.Search.Exclude,
			Override: d.Search.Override,
		}
	}
	return p
}

type productSetDoc struct {
	ID          string     `bson:"_id"`
	Name        string     `bson:"name"`
	Series      string     `bson:"series"`
	ReleaseDate *time.Time `bson:"release_date,omitempty"`
}

func (d productSetDoc) toContract() contract.ProductSet {
	return contract.ProductSet{
		ID:          contract.SetID(d.ID),
		Name:        d.Name,
		Series:      d.Series,
		ReleaseDate: d.ReleaseDate,
	}
}

type productTypeDoc struct {
	ID      string   `bson:"_id"`
	Phrases []string `bson:"phrases,omitempty"`
	Exclude []string `bson:"exclude,omitempty"`
}

func (d productTypeDoc) toContract() contract.ProductType {
	return contract.ProductType{
		ID:      contract.TypeID(d.ID),
		Phrases: d.Phrases,
		Exclude: d.Exclude,
	}
}

type watchDoc struct {
	UserID    string  `bson:"user_id"`
	ProductID string  `bson:"product_id"`
	MaxPrice  float64 `bson:"max_price"`
	Active    bool    `bson:"active"`
}

func (d watchDoc) toContract() contract.WatchEntry {
	return contract.WatchEntry{
		UserID:    contract.UserID(d.UserID),
		ProductID: contract.ProductID(d.ProductID),
		MaxPrice:  d.MaxPrice,
		Active:    d.Active,
	}
}

type userDoc struct {
	ID          string `bson:"_id"`
	ChannelID   string `bson:"channel_id,omitempty"`
	DisplayName string `bson:"display_name,omitempty"`
}

// toContract 수신 채널 보유 여부는 채널 ID의 존재로 판정합니다.
func (d userDoc) toContract() contract.NotificationTarget {
	return contract.NotificationTarget{
		UserID:      contract.UserID(d.ID),
		ChannelID:   d.ChannelID,
		DisplayName: d.DisplayName,
		HasChannel:  d.ChannelID != "",
	}
}

type stateDoc struct {
	UserID    string `bson:"user_id"`
	ProductID string `bson:"product_id"`
	ShopID    string `bson:"shop_id"`

	LastNotifiedAt *time.Time `bson:"last_notified_at,omitempty"`
	LastPrice      *float64   `bson:"last_price,omitempty"`
	WasAvailable   bool       `bson:"was_available"`
}

func newStateDoc(s contract.NotificationState) stateDoc {
	return stateDoc{
		UserID:         string(s.UserID),
		ProductID:      string(s.ProductID),
		ShopID:         string(s.ShopID),
		LastNotifiedAt: s.LastNotifiedAt,
		LastPrice:      s.LastPrice,
		WasAvailable:   s.WasAvailable,
	}
}

func (d stateDoc) toContract() contract.NotificationState {
	return contract.NotificationState{
		UserID:         contract.UserID(d.UserID),
		ProductID:      contract.ProductID(d.ProductID),
		ShopID:         contract.ShopID(d.ShopID),
		LastNotifiedAt: d.LastNotifiedAt,
		LastPrice:      d.LastPrice,
		WasAvailable:   d.WasAvailable,
	}
}

// stateFilter (사용자, 상품, 쇼핑몰) 키로 상태 레코드를 지정하는 필터입니다.
func stateFilter(key contract.StateKey) bson.D {
	return bson.D{
		{Key: "user_id", Value: string(key.UserID)},
		{Key: "product_id", Value: string(key.ProductID)},
		{Key: "shop_id", Value: string(key.ShopID)},
	}
}

type deliveryDoc struct {
	ChannelID string    `bson:"channel_id"`
	SentAt    time.Time `bson:"sent_at"`
	Succeeded bool      `bson:"succeeded"`
	Detail    string    `bson:"detail,omitempty"`
}

type notificationPayloadDoc struct {
	ProductName string  `bson:"product_name"`
	ShopName    string  `bson:"shop_name"`
	ShopID      string  `bson:"shop_id"`
	ProductID   string  `bson:"product_id"`
	Price       float64 `bson:"price"`
	MaxPrice    float64 `bson:"max_price"`
	ProductURL  string  `bson:"product_url"`
}

type notificationDoc struct {
	UserID     string                 `bson:"user_id"`
	Status     string                 `bson:"status"`
	Payload    notificationPayloadDoc `bson:"payload"`
	Deliveries []deliveryDoc          `bson:"deliveries"`
	CreatedAt  time.Time              `bson:"created_at"`
}

func newNotificationDoc(n contract.Notification) notificationDoc {
	deliveries := make([]deliveryDoc, 0, len(n.Deliveries))
	for _, d := range n.Deliveries {
		deliveries = append(deliveries, deliveryDoc{
			ChannelID: d.ChannelID,
			SentAt:    d.SentAt,
			Succeeded: d.Succeeded,
			Detail:    d.Detail,
		})
	}

	return notificationDoc{
		UserID: string(n.UserID),
		Status: string(n.Status),
		Payload: notificationPayloadDoc{
			ProductName: n.Payload.ProductName,
			ShopName:    n.Payload.ShopName,
			ShopID:      string(n.Payload.ShopID),
			ProductID:   string(n.Payload.ProductID),
			Price:       n.Payload.Price,
			MaxPrice:    n.Payload.MaxPrice,
			ProductURL:  n.Payload.ProductURL,
		},
		Deliveries: deliveries,
		CreatedAt:  n.CreatedAt,
	}
}

// resultFilter (상품, 쇼핑몰, 시간 버킷) 키로 결과 레코드를 지정하는 필터입니다.
func resultFilter(r contract.ExtractionResult) bson.D {
	return bson.D{
		{Key: "product_id", Value: string(r.ProductID)},
		{Key: "shop_id", Value: string(r.ShopID)},
		{Key: "hour_bucket", Value: r.HourBucket()},
	}
}

// resultUpdate 결과 레코드의 업서트 문서입니다.
//
// 같은 버킷에 레코드가 있으면 최신 관측 값으로 덮어쓰고 스캔 횟수를 올리며,
// 없으면 생성 시각과 함께 새로 만듭니다. created_at은 TTL 인덱스의 기준입니다.
func resultUpdate(r contract.ExtractionResult, now time.Time) bson.M {
	set := bson.M{
		"product_url":  r.ProductURL,
		"is_available": r.Available,
		"timestamp":    r.Timestamp,
	}
	if r.Price != nil {
		set["price"] = *r.Price
	} else {
		set["price"] = nil
	}

	return bson.M{
		"$set":         set,
		"$inc":         bson.M{"scan_count": 1},
		"$setOnInsert": bson.M{"created_at": now},
	}
}
