package repository

import (
	"context"
	"errors"

	"github.com/BerniceZTT/outreach_crm/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNoRows Single 조회 결과 없음
var ErrNoRows = errors.New("repository: no rows")

// Op 조건 연산자
type Op string

const (
	OpEq    Op = "$eq"
	OpGte   Op = "$gte"
	OpLt    Op = "$lt"
	OpIn    Op = "$in"
	OpILike Op = "ilike" // 대소문자 무시 부분 문자열 일치
)

// Cond 필드 조건
type Cond struct {
	Field string
	Op    Op
	Value interface{}
}

// Eq 같음
func Eq(field string, value interface{}) Cond { return Cond{Field: field, Op: OpEq, Value: value} }

// Gte 이상
func Gte(field string, value interface{}) Cond { return Cond{Field: field, Op: OpGte, Value: value} }

// Lt 미만
func Lt(field string, value interface{}) Cond { return Cond{Field: field, Op: OpLt, Value: value} }

// ILike 대소문자 무시 부분 문자열 포함
func ILike(field, substring string) Cond {
	return Cond{Field: field, Op: OpILike, Value: substring}
}

// In 목록 중 하나
func In(field string, values interface{}) Cond { return Cond{Field: field, Op: OpIn, Value: values} }

// Order 정렬
type Order struct {
	Field     string
	Ascending bool
}

// Query Where 는 모두 만족(AND), AnyOf 는 하나 이상 만족(OR)
type Query struct {
	Where []Cond
	AnyOf []Cond
	Order []Order
}

// Where 조건으로 쿼리 생성
func Where(conds ...Cond) Query {
	return Query{Where: conds}
}

// And 조건 추가
func (q Query) And(conds ...Cond) Query {
	q.Where = append(append([]Cond{}, q.Where...), conds...)
	return q
}

// Or OR 조건 추가
func (q Query) Or(conds ...Cond) Query {
	q.AnyOf = append(append([]Cond{}, q.AnyOf...), conds...)
	return q
}

// OrderBy 정렬 추가
func (q Query) OrderBy(field string, ascending bool) Query {
	q.Order = append(append([]Order{}, q.Order...), Order{Field: field, Ascending: ascending})
	return q
}

// Table 테이블 단위 영속성 경계
type Table[T any] interface {
	Name() string
	Select(ctx context.Context, q Query) ([]T, error)
	// Single 정확히 한 행. 없으면 ErrNoRows
	Single(ctx context.Context, q Query) (T, error)
	Insert(ctx context.Context, row T) (primitive.ObjectID, error)
	// Update 조건에 맞는 행에 $set 적용, 일치한 행 수 반환
	Update(ctx context.Context, where []Cond, set bson.M) (int64, error)
	Delete(ctx context.Context, where []Cond) (int64, error)
	Count(ctx context.Context, where []Cond) (int64, error)
}

// Store 테이블 묶음
type Store struct {
	Driver         string
	Users          Table[models.User]
	Customers      Table[models.Customer]
	CallLogs       Table[models.CallLog]
	CallLogHistory Table[models.CallLogHistoryEntry]
	OperationLogs  Table[models.OperationLog]

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
	init  func(ctx context.Context) error
}

// Ping 저장소 연결 확인
func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close 저장소 연결 종료
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// NewMemoryStore 메모리 저장소 (STORE_DRIVER=memory, 테스트)
func NewMemoryStore() *Store {
	return &Store{
		Driver:         "memory",
		Users:          NewMemoryTable[models.User](UsersCollection),
		Customers:      NewMemoryTable[models.Customer](CustomersCollection),
		CallLogs:       NewMemoryTable[models.CallLog](CallLogsCollection),
		CallLogHistory: NewMemoryTable[models.CallLogHistoryEntry](CallLogHistoryCollection),
		OperationLogs:  NewMemoryTable[models.OperationLog](ApiOperationLogsCollection),
	}
}
