// package dal is the data access layer. It exposes the generic get/set/delete store the
// services persist through, and typed helpers per entity. Files correspond to entities.
package dal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind names an entity collection.
type Kind string

const (
	KindUser              Kind = "user"
	KindServer            Kind = "server"
	KindChannel           Kind = "channel"
	KindMember            Kind = "member"
	KindMemberApplication Kind = "memberApplication"
	KindFriend            Kind = "friend"
	KindFriendApplication Kind = "friendApplication"
	KindFriendGroup       Kind = "friendGroup"
	KindMessage           Kind = "message"
	KindDirectMessage     Kind = "directMessage"
)

const keySeparator = "/"

// Key is the ordered list of key parts identifying a record within a kind.
type Key []string

func (k Key) String() string {
	return strings.Join(k, keySeparator)
}

// prefix returns the string every key under k starts with. An empty key matches all.
func (k Key) prefix() string {
	if len(k) == 0 {
		return ""
	}
	return k.String() + keySeparator
}

// Store is the persistence collaborator. Records are JSON objects.
//
// Set merges the top-level fields of patch into the stored record, creating it when
// absent. Update merges the same way but only into an existing record and reports
// whether one was there. Delete of an absent record is not an error. List calls fn for
// every record of kind whose key begins with prefix, in key order.
type Store interface {
	Get(ctx context.Context, kind Kind, key Key, dst any) (bool, error)
	Set(ctx context.Context, kind Kind, key Key, patch any) error
	Update(ctx context.Context, kind Kind, key Key, patch any) (bool, error)
	Delete(ctx context.Context, kind Kind, key Key) error
	List(ctx context.Context, kind Kind, prefix Key, fn func(raw json.RawMessage) error) error
	Close() error
}

// ErrNotObject is returned when a patch or stored value is not a JSON object.
var ErrNotObject = errors.New("record is not a JSON object")

// mergeJSON overlays the top-level fields of patch on existing. existing may be nil.
func mergeJSON(existing []byte, patch any) ([]byte, error) {
	patchBytes, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("error marshaling patch: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patchBytes, &fields); err != nil || fields == nil {
		return nil, ErrNotObject
	}
	if len(existing) == 0 {
		return patchBytes, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(existing, &merged); err != nil || merged == nil {
		return nil, ErrNotObject
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

func get[T any](ctx context.Context, s Store, kind Kind, key Key) (*T, error) {
	var v T
	ok, err := s.Get(ctx, kind, key, &v)
	if err != nil {
		return nil, fmt.Errorf("error getting %s %s: %w", kind, key, err)
	}
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func list[T any](ctx context.Context, s Store, kind Kind, prefix Key) ([]T, error) {
	out := []T{}
	err := s.List(ctx, kind, prefix, func(raw json.RawMessage) error {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error listing %s %s: %w", kind, prefix, err)
	}
	return out, nil
}
