// Package storage 상품 카탈로그, 감시 목록, 알림 상태를 보관하는 MongoDB 저장소 구현을 제공합니다.
//
// 상품과 감시 데이터의 생성/수정은 외부 관리 도구가 담당하며, 스캔 사이클은
// 이 패키지를 통해 읽기와 결과/알림/상태의 배치 쓰기만 수행합니다.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/darkkaiser/price-scanner/internal/config"
	"github.com/darkkaiser/price-scanner/internal/contract"
	apperrors "github.com/darkkaiser/price-scanner/internal/pkg/errors"
	applog "github.com/darkkaiser/price-scanner/pkg/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const component = "storage"

// MongoStore contract.Store의 MongoDB 구현체입니다.
type MongoStore struct {
	db *mongo.Database
}

// 컴파일 타임에 인터페이스 구현여부 확인
var _ contract.Store = (*MongoStore)(nil)

// Connect 데이터베이스에 접속하고 연결 상태를 확인한 뒤 저장소를 반환합니다.
// 반환된 닫기 함수는 종료 시 호출하여 연결을 정리해야 합니다.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*MongoStore, func(context.Context) error, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeoutDuration())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.Unavailable, "데이터베이스 연결에 실패했습니다")
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeoutDuration())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, apperrors.Wrap(err, apperrors.Unavailable, "데이터베이스 연결 상태 확인에 실패했습니다")
	}

	applog.WithComponent(component).Infof("데이터베이스에 연결되었습니다. (database:%s)", cfg.Name)

	store := &MongoStore{db: client.Database(cfg.Name)}
	return store, client.Disconnect, nil
}

// EnsureIndexes 저장소가 의존하는 인덱스를 생성합니다. 이미 존재하면 아무 일도 하지 않습니다.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	// 결과 레코드: (상품, 쇼핑몰, 시간 버킷) 단위로 유일하며 24시간 후 자동 삭제
	_, err := s.db.Collection(collResults).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "product_id", Value: 1},
				{Key: "shop_id", Value: 1},
				{Key: "hour_bucket", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(resultTTL / time.Second)),
		},
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.Unavailable, fmt.Sprintf("인덱스 생성에 실패했습니다. (collection:%s)", collResults))
	}

	// 알림 상태: (사용자, 상품, 쇼핑몰) 단위로 유일
	_, err = s.db.Collection(collStates).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "product_id", Value: 1},
			{Key: "shop_id", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.Unavailable, fmt.Sprintf("인덱스 생성에 실패했습니다. (collection:%s)", collStates))
	}

	// 감시 목록: 상품 기준 조회 경로
	_, err = s.db.Collection(collWatches).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "product_id", Value: 1},
			{Key: "active", Value: 1},
		},
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.Unavailable, fmt.Sprintf("인덱스 생성에 실패했습니다. (collection:%s)", collWatches))
	}

	return nil
}

// findAll 필터에 일치하는 문서 전체를 읽어 docs 슬라이스에 디코딩합니다.
func (s *MongoStore) findAll(ctx context.Context, collection string, filter interface{}, docs interface{}) error {
	cursor, err := s.db.Collection(collection).Find(ctx, filter)
	if err != nil {
		return apperrors.Wrap(err, apperrors.Unavailable, fmt.Sprintf("문서 조회에 실패했습니다. (collection:%s)", collection))
	}
	if err := cursor.All(ctx, docs); err != nil {
		return apperrors.Wrap(err, apperrors.Internal, fmt.Sprintf("문서 디코딩에 실패했습니다. (collection:%s)", collection))
	}
	return nil
}

// ListActiveProducts 비활성화되지 않은 상품 전체를 조회합니다.
func (s *MongoStore) ListActiveProducts(ctx context.Context) ([]contract.Product, error) {
	var docs []productDoc
	if err := s.findAll(ctx, collProducts, bson.M{"disabled": bson.M{"$ne": true}}, &docs); err != nil {
		return nil, err
	}

	products := make([]contract.Product, 0, len(docs))
	for _, doc := range docs {
		products = append(products, doc.toContract())
	}
	return products, nil
}

// ListProductSets 등록된 상품 세트 전체를 조회합니다.
func (s *MongoStore) ListProductSets(ctx context.Context) ([]contract.ProductSet, error) {
	var docs []productSetDoc
	if err := s.findAll(ctx, collProductSets, bson.M{}, &docs); err != nil {
		return nil, err
	}

	sets := make([]contract.ProductSet, 0, len(docs))
	for _, doc := range docs {
		sets = append(sets, doc.toContract())
	}
	return sets, nil
}

// ListProductTypes 등록된 상품 유형 전체를 조회합니다.
func (s *MongoStore) ListProductTypes(ctx context.Context) ([]contract.ProductType, error) {
	var docs []productTypeDoc
	if err := s.findAll(ctx, collProductTypes, bson.M{}, &docs); err != nil {
		return nil, err
	}

	types := make([]contract.ProductType, 0, len(docs))
	for _, doc := range docs {
		types = append(types, doc.toContract())
	}
	return types, nil
}

// ListActiveWatches 주어진 상품들의 활성 감시 항목을 상품별로 묶어 조회합니다.
func (s *MongoStore) ListActiveWatches(ctx context.Context, productIDs []contract.ProductID) (map[contract.ProductID][]contract.WatchEntry, error) {
	filter := bson.M{
		"product_id": bson.M{"$in": productIDStrings(productIDs)},
		"active":     true,
	}

	var docs []watchDoc
	if err := s.findAll(ctx, collWatches, filter, &docs); err != nil {
		return nil, err
	}

	watches := make(map[contract.ProductID][]contract.WatchEntry, len(docs))
	for _, doc := range docs {
		entry := doc.toContract()
		watches[entry.ProductID] = append(watches[entry.ProductID], entry)
	}
	return watches, nil
}

// ListNotificationTargets 주어진 사용자들의 알림 수신 정보를 조회합니다.
func (s *MongoStore) ListNotificationTargets(ctx context.Context, userIDs []contract.UserID) (map[contract.UserID]contract.NotificationTarget, error) {
	ids := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		ids = append(ids, string(id))
	}

	var docs []userDoc
	if err := s.findAll(ctx, collUsers, bson.M{"_id": bson.M{"$in": ids}}, &docs); err != nil {
		return nil, err
	}

	targets := make(map[contract.UserID]contract.NotificationTarget, len(docs))
	for _, doc := range docs {
		target := doc.toContract()
		targets[target.UserID] = target
	}
	return targets, nil
}

// ListNotificationStates 주어진 상품들의 알림 상태 전체를 조회합니다.
func (s *MongoStore) ListNotificationStates(ctx context.Context, productIDs []contract.ProductID) ([]contract.NotificationState, error) {
	filter := bson.M{"product_id": bson.M{"$in": productIDStrings(productIDs)}}

	var docs []stateDoc
	if err := s.findAll(ctx, collStates, filter, &docs); err != nil {
		return nil, err
	}

	states := make([]contract.NotificationState, 0, len(docs))
	for _, doc := range docs {
		states = append(states, doc.toContract())
	}
	return states, nil
}

// ApplyStateChanges 사이클 동안 누적된 상태 변경을 한 번의 배치로 반영합니다.
// 갱신이 먼저, 삭제가 나중에 순서대로 수행됩니다.
func (s *MongoStore) ApplyStateChanges(ctx context.Context, upserts []contract.NotificationState, deletes []contract.StateKey) error {
	if len(upserts) == 0 && len(deletes) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(upserts)+len(deletes))
	for _, state := range upserts {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(stateFilter(state.Key())).
			SetUpdate(bson.M{"$set": newStateDoc(state)}).
			SetUpsert(true))
	}
	for _, key := range deletes {
		models = append(models, mongo.NewDeleteOneModel().SetFilter(stateFilter(key)))
	}

	if _, err := s.db.Collection(collStates).BulkWrite(ctx, models); err != nil {
		return apperrors.Wrap(err, apperrors.Unavailable, "알림 상태 배치 반영에 실패했습니다")
	}

	applog.WithComponent(component).Debugf("알림 상태가 반영되었습니다. (갱신:%d건, 삭제:%d건)", len(upserts), len(deletes))
	return nil
}

// UpsertHourlyResults 결과들을 (상품, 쇼핑몰, 시간 버킷) 키 기준으로 한 번의 배치로 저장합니다.
func (s *MongoStore) UpsertHourlyResults(ctx context.Context, results []contract.ExtractionResult) error {
	if len(results) == 0 {
		return nil
	}

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(results))
	for _, result := range results {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(resultFilter(result)).
			SetUpdate(resultUpdate(result, now)).
			SetUpsert(true))
	}

	opts := options.BulkWrite().SetOrdered(false)
	if _, err := s.db.Collection(collResults).BulkWrite(ctx, models, opts); err != nil {
		return apperrors.Wrap(err, apperrors.Unavailable, "스크래핑 결과 배치 저장에 실패했습니다")
	}

	applog.WithComponent(component).Debugf("스크래핑 결과가 저장되었습니다. (%d건)", len(results))
	return nil
}

// InsertNotifications 알림 문서들을 한 번의 배치로 삽입합니다.
func (s *MongoStore) InsertNotifications(ctx context.Context, notifications []contract.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(notifications))
	for _, n := range notifications {
		docs = append(docs, newNotificationDoc(n))
	}

	if _, err := s.db.Collection(collNotifications).InsertMany(ctx, docs); err != nil {
		return apperrors.Wrap(err, apperrors.Unavailable, "알림 배치 삽입에 실패했습니다")
	}

	applog.WithComponent(component).Debugf("알림이 삽입되었습니다. (%d건)", len(notifications))
	return nil
}

func productIDStrings(productIDs []contract.ProductID) []string {
	ids := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		ids = append(ids, string(id))
	}
	return ids
}
