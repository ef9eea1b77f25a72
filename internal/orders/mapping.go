package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"tradewind/internal/kv"
)

// RequestOrderMapping links a request id to the order it produced. The same
// document is stored byte-identically under both key spaces.
type RequestOrderMapping struct {
	RequestID string `json:"request_id"`
	OrderID   string `json:"order_id"`
	CreatedAt string `json:"created_at"`
}

// ErrPartialMapping signals that one side of the bidirectional mapping was
// written and the other was not. The written side is not rolled back;
// retrying StoreMapping converges both sides.
var ErrPartialMapping = errors.New("bidirectional mapping partially stored")

func requestKey(requestID string) string { return "request-" + requestID }
func orderKey(orderID string) string     { return "order-" + orderID }

// MappingIndex implements MappingStore over a key-value store, keeping two
// independent key spaces: one keyed by request id, one by order id.
type MappingIndex struct {
	store kv.Store
	now   func() time.Time
	logf  func(format string, args ...any)
}

// NewMappingIndex constructs a MappingIndex on the given store.
func NewMappingIndex(store kv.Store, logf func(format string, args ...any)) *MappingIndex {
	if logf == nil {
		logf = log.Printf
	}
	return &MappingIndex{store: store, now: time.Now, logf: logf}
}

// StoreMapping writes the mapping under both keys. Each side is idempotent
// on its own: an existing document with the same id pair is left untouched,
// a divergent one is overwritten (last writer wins; not safe under genuine
// concurrent writers disagreeing on the pair). The two writes are not
// transactional: if the second fails the first stays, and the error wraps
// ErrPartialMapping.
func (m *MappingIndex) StoreMapping(ctx context.Context, requestID, orderID string) error {
	if requestID == "" || orderID == "" {
		return errors.New("request id and order id required")
	}

	mapping := RequestOrderMapping{
		RequestID: requestID,
		OrderID:   orderID,
		CreatedAt: m.now().UTC().Format(time.RFC3339Nano),
	}
	encoded, err := json.Marshal(mapping)
	if err != nil {
		return err
	}

	if err := m.storeSide(ctx, requestKey(requestID), mapping, encoded); err != nil {
		return err
	}
	if err := m.storeSide(ctx, orderKey(orderID), mapping, encoded); err != nil {
		return fmt.Errorf("%w: order side: %v", ErrPartialMapping, err)
	}
	return nil
}

// storeSide writes one key space. Equality is judged on the id pair, not the
// raw bytes, so a replayed write with a fresh created_at is still a no-op.
func (m *MappingIndex) storeSide(ctx context.Context, key string, mapping RequestOrderMapping, encoded []byte) error {
	existing, err := m.store.Get(ctx, key)
	switch {
	case err == nil:
		var current RequestOrderMapping
		if unmarshalErr := json.Unmarshal(existing, &current); unmarshalErr == nil {
			if current.RequestID == mapping.RequestID && current.OrderID == mapping.OrderID {
				return nil
			}
			m.logf("overwriting divergent mapping: key=%s old=(%s,%s) new=(%s,%s)",
				key, current.RequestID, current.OrderID, mapping.RequestID, mapping.OrderID)
		}
	case errors.Is(err, kv.ErrNotFound):
	default:
		return err
	}
	return m.store.Put(ctx, key, encoded)
}

// OrderForRequest resolves the order id recorded for a request id.
func (m *MappingIndex) OrderForRequest(ctx context.Context, requestID string) (string, bool, error) {
	mapping, ok, err := m.lookup(ctx, requestKey(requestID))
	if !ok || err != nil {
		return "", false, err
	}
	return mapping.OrderID, true, nil
}

// RequestForOrder resolves the request id recorded for an order id.
func (m *MappingIndex) RequestForOrder(ctx context.Context, orderID string) (string, bool, error) {
	mapping, ok, err := m.lookup(ctx, orderKey(orderID))
	if !ok || err != nil {
		return "", false, err
	}
	return mapping.RequestID, true, nil
}

func (m *MappingIndex) lookup(ctx context.Context, key string) (RequestOrderMapping, bool, error) {
	raw, err := m.store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return RequestOrderMapping{}, false, nil
	}
	if err != nil {
		return RequestOrderMapping{}, false, err
	}
	var mapping RequestOrderMapping
	if err := json.Unmarshal(raw, &mapping); err != nil {
		return RequestOrderMapping{}, false, err
	}
	return mapping, true, nil
}
