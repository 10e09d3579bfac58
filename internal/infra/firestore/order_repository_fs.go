package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

const ordersCollection = "orders"

var _ repo.OrderRepository = (*OrderRepositoryFS)(nil)

// Firestore の orders コレクションを注文ストアとして使う。
// ドキュメントIDが内部ID、orderId フィールドが注文番号。
type OrderRepositoryFS struct {
	Client *firestore.Client
}

func NewOrderRepositoryFS(client *firestore.Client) *OrderRepositoryFS {
	return &OrderRepositoryFS{Client: client}
}

func (r *OrderRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection(ordersCollection)
}

func (r *OrderRepositoryFS) Create(ctx context.Context, order model.Order) (string, error) {
	if r.Client == nil {
		return "", errors.New("firestore client is nil")
	}

	var ref *firestore.DocumentRef
	if id := strings.TrimSpace(order.ID); id != "" {
		ref = r.col().Doc(id)
	} else {
		ref = r.col().NewDoc()
	}

	if _, err := ref.Create(ctx, order); err != nil {
		return "", err
	}
	return ref.ID, nil
}

func (r *OrderRepositoryFS) FindByID(ctx context.Context, internalID string) (model.Order, error) {
	internalID = strings.TrimSpace(internalID)
	if internalID == "" {
		return model.Order{}, repo.ErrNotFound
	}

	snap, err := r.col().Doc(internalID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return docToOrder(snap)
}

func (r *OrderRepositoryFS) FindByOrderID(ctx context.Context, orderID string) (model.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return model.Order{}, repo.ErrNotFound
	}

	it := r.col().Where("orderId", "==", orderID).Limit(1).Documents(ctx)
	defer it.Stop()

	snap, err := it.Next()
	if errors.Is(err, iterator.Done) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return docToOrder(snap)
}

// 存在しないドキュメントへの Update は NotFound になる
func (r *OrderRepositoryFS) Patch(ctx context.Context, internalID string, p model.OrderPatch) error {
	updates := []firestore.Update{{Path: "updatedAt", Value: p.UpdatedAt}}
	if p.Status != nil {
		updates = append(updates, firestore.Update{Path: "status", Value: string(*p.Status)})
	}
	if p.PaymentStatus != nil {
		updates = append(updates, firestore.Update{Path: "paymentStatus", Value: string(*p.PaymentStatus)})
	}
	if p.Priority != nil {
		updates = append(updates, firestore.Update{Path: "priority", Value: string(*p.Priority)})
	}
	if p.PaymentSessionID != nil {
		updates = append(updates, firestore.Update{Path: "paymentSessionId", Value: *p.PaymentSessionID})
	}
	if p.PaymentCustomerID != nil {
		updates = append(updates, firestore.Update{Path: "paymentCustomerId", Value: *p.PaymentCustomerID})
	}
	if p.PaymentIntentID != nil {
		updates = append(updates, firestore.Update{Path: "paymentIntentId", Value: *p.PaymentIntentID})
	}

	ref := r.col().Doc(internalID)
	if p.ExpectStatus == nil {
		if _, err := ref.Update(ctx, updates); err != nil {
			if status.Code(err) == codes.NotFound {
				return repo.ErrNotFound
			}
			return err
		}
		return nil
	}

	// status を読んでから書くのでトランザクションにする
	return r.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return repo.ErrNotFound
		}
		if err != nil {
			return err
		}
		cur, err := snap.DataAt("status")
		if err != nil {
			return err
		}
		if s, _ := cur.(string); s != string(*p.ExpectStatus) {
			return repo.ErrStatusConflict
		}
		return tx.Update(ref, updates)
	})
}

func (r *OrderRepositoryFS) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	q := r.col().Query
	if f.Status != "" {
		q = q.Where("status", "==", f.Status)
	}
	if f.From != nil {
		q = q.Where("createdAt", ">=", *f.From)
	}
	if f.To != nil {
		q = q.Where("createdAt", "<=", *f.To)
	}

	total, err := countQuery(ctx, q)
	if err != nil {
		return []model.Order{}, 0, err
	}

	page := q.OrderBy("createdAt", firestore.Desc).
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit)
	orders, err := collect(page.Documents(ctx))
	if err != nil {
		return []model.Order{}, 0, err
	}
	return orders, total, nil
}

func (r *OrderRepositoryFS) ListCompletedBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	q := r.col().
		Where("status", "==", string(model.OrderStatusCompleted)).
		Where("createdAt", "<", cutoff).
		OrderBy("createdAt", firestore.Asc).
		Limit(limit)
	return collect(q.Documents(ctx))
}

func (r *OrderRepositoryFS) Delete(ctx context.Context, internalID string) error {
	_, err := r.col().Doc(internalID).Delete(ctx, firestore.Exists)
	if status.Code(err) == codes.NotFound {
		return repo.ErrNotFound
	}
	return err
}

func countQuery(ctx context.Context, q firestore.Query) (int64, error) {
	res, err := q.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, err
	}
	v, ok := res["all"].(*firestorepb.Value)
	if !ok {
		return 0, errors.New("firestore: unexpected count result")
	}
	return v.GetIntegerValue(), nil
}

func collect(it *firestore.DocumentIterator) ([]model.Order, error) {
	defer it.Stop()

	out := []model.Order{}
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return []model.Order{}, err
		}
		o, err := docToOrder(snap)
		if err != nil {
			return []model.Order{}, err
		}
		out = append(out, o)
	}
	return out, nil
}

func docToOrder(snap *firestore.DocumentSnapshot) (model.Order, error) {
	var o model.Order
	if err := snap.DataTo(&o); err != nil {
		return model.Order{}, err
	}
	o.ID = snap.Ref.ID
	return o, nil
}
