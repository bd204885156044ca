package repository

import (
	"bytes"
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memoryTable 프로세스 내 테이블. 행은 bson 문서로 보관해 Mongo 와 같은 인코딩 규칙을 따른다
type memoryTable[T any] struct {
	name string
	mu   sync.RWMutex
	rows []bson.M
}

// NewMemoryTable 메모리 테이블
func NewMemoryTable[T any](name string) Table[T] {
	return &memoryTable[T]{name: name}
}

func (t *memoryTable[T]) Name() string {
	return t.name
}

func (t *memoryTable[T]) Select(ctx context.Context, q Query) ([]T, error) {
	where, anyOf, err := normalizeConds(q.Where, q.AnyOf)
	if err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	matched := make([]bson.M, 0)
	for _, row := range t.rows {
		if rowMatches(row, where, anyOf) {
			matched = append(matched, row)
		}
	}
	sortDocuments(matched, q.Order)

	out := make([]T, 0, len(matched))
	for _, doc := range matched {
		var row T
		if err := fromDocument(doc, &row); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func (t *memoryTable[T]) Single(ctx context.Context, q Query) (T, error) {
	var zero T
	rows, err := t.Select(ctx, q)
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, ErrNoRows
	}
	return rows[0], nil
}

func (t *memoryTable[T]) Insert(ctx context.Context, row T) (primitive.ObjectID, error) {
	doc, err := toDocument(row)
	if err != nil {
		return primitive.NilObjectID, err
	}

	id, ok := doc["_id"].(primitive.ObjectID)
	if !ok || id.IsZero() {
		id = primitive.NewObjectID()
		doc["_id"] = id
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, existing := range t.rows {
		if existing["_id"] == id {
			return primitive.NilObjectID, fmt.Errorf("%s: duplicate _id %s", t.name, id.Hex())
		}
	}
	t.rows = append(t.rows, doc)
	return id, nil
}

func (t *memoryTable[T]) Update(ctx context.Context, where []Cond, set bson.M) (int64, error) {
	conds, _, err := normalizeConds(where, nil)
	if err != nil {
		return 0, err
	}
	patch, err := toDocument(set)
	if err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	var matched int64
	for _, row := range t.rows {
		if !rowMatches(row, conds, nil) {
			continue
		}
		matched++
		for k, v := range patch {
			row[k] = v
		}
	}
	return matched, nil
}

func (t *memoryTable[T]) Delete(ctx context.Context, where []Cond) (int64, error) {
	conds, _, err := normalizeConds(where, nil)
	if err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.rows[:0]
	var deleted int64
	for _, row := range t.rows {
		if rowMatches(row, conds, nil) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	t.rows = kept
	return deleted, nil
}

func (t *memoryTable[T]) Count(ctx context.Context, where []Cond) (int64, error) {
	conds, _, err := normalizeConds(where, nil)
	if err != nil {
		return 0, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	var n int64
	for _, row := range t.rows {
		if rowMatches(row, conds, nil) {
			n++
		}
	}
	return n, nil
}

func toDocument(v interface{}) (bson.M, error) {
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	doc := bson.M{}
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func fromDocument(doc bson.M, out interface{}) error {
	data, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(data, out)
}

// normalizeConds 조건 값을 저장된 문서와 같은 bson 표현으로 변환
func normalizeConds(where, anyOf []Cond) ([]Cond, []Cond, error) {
	norm := func(conds []Cond) ([]Cond, error) {
		out := make([]Cond, 0, len(conds))
		for _, c := range conds {
			if c.Op == OpILike {
				out = append(out, c)
				continue
			}
			doc, err := toDocument(bson.M{"v": c.Value})
			if err != nil {
				return nil, fmt.Errorf("조건 값 변환 실패(%s): %w", c.Field, err)
			}
			c.Value = doc["v"]
			out = append(out, c)
		}
		return out, nil
	}

	w, err := norm(where)
	if err != nil {
		return nil, nil, err
	}
	a, err := norm(anyOf)
	if err != nil {
		return nil, nil, err
	}
	return w, a, nil
}

func rowMatches(row bson.M, where, anyOf []Cond) bool {
	for _, c := range where {
		if !condMatches(row[c.Field], c) {
			return false
		}
	}
	if len(anyOf) == 0 {
		return true
	}
	for _, c := range anyOf {
		if condMatches(row[c.Field], c) {
			return true
		}
	}
	return false
}

func condMatches(value interface{}, c Cond) bool {
	switch c.Op {
	case OpEq:
		return valuesEqual(value, c.Value)
	case OpGte:
		cmp, ok := compareValues(value, c.Value)
		return ok && cmp >= 0
	case OpLt:
		cmp, ok := compareValues(value, c.Value)
		return ok && cmp < 0
	case OpILike:
		s, ok := value.(string)
		pattern, _ := c.Value.(string)
		return ok && strings.Contains(strings.ToLower(s), strings.ToLower(pattern))
	case OpIn:
		candidates, ok := c.Value.(primitive.A)
		if !ok {
			return false
		}
		for _, candidate := range candidates {
			if valuesEqual(value, candidate) {
				return true
			}
		}
	}
	return false
}

func valuesEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if cmp, ok := compareValues(a, b); ok {
		return cmp == 0
	}
	return reflect.DeepEqual(a, b)
}

// compareValues 같은 종류의 값만 비교 가능. 숫자는 정수/실수 구분 없이 비교
func compareValues(a, b interface{}) (int, bool) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case primitive.DateTime:
		bv, ok := b.(primitive.DateTime)
		if !ok {
			return 0, false
		}
		return compareInt64(int64(av), int64(bv)), true
	case primitive.ObjectID:
		bv, ok := b.(primitive.ObjectID)
		if !ok {
			return 0, false
		}
		return bytes.Compare(av[:], bv[:]), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		default:
			return 1, true
		}
	}

	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return 0, false
	}
	switch {
	case af < bf:
		return -1, true
	case af > bf:
		return 1, true
	}
	return 0, true
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// sortDocuments 안정 정렬. 값이 없는 행은 오름차순에서 앞에 온다
func sortDocuments(docs []bson.M, orders []Order) {
	if len(orders) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, o := range orders {
			a, b := docs[i][o.Field], docs[j][o.Field]
			var cmp int
			switch {
			case a == nil && b == nil:
				cmp = 0
			case a == nil:
				cmp = -1
			case b == nil:
				cmp = 1
			default:
				cmp, _ = compareValues(a, b)
			}
			if cmp == 0 {
				continue
			}
			if o.Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return false
	})
}
