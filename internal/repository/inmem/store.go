// Package inmem: хранилище в памяти процесса. Используется при DB_DRIVER=memory
// и как подмена PostgreSQL в тестах usecase и HTTP.
package inmem

import (
	"context"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DRSN-tech/ordering-backend/internal/domain"
)

type txKey struct{}

// Store хранит все сущности и реализует usecase.TxManager.
// Транзакция держит мьютекс хранилища целиком и при ошибке откатывает снимок.
type Store struct {
	mu sync.Mutex

	categories map[int64]domain.Category
	products   map[int64]domain.Product
	orders     map[int64]domain.Order
	lines      []domain.OrderLine

	categorySeq int64
	productSeq  int64
	orderSeq    int64

	reads atomic.Int64
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{
		categories: make(map[int64]domain.Category),
		products:   make(map[int64]domain.Product),
		orders:     make(map[int64]domain.Order),
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
}

type snapshot struct {
	categories map[int64]domain.Category
	products   map[int64]domain.Product
	orders     map[int64]domain.Order
	lines      []domain.OrderLine
	seqs       [3]int64
}

// Do выполняет fn атомарно. Вложенный вызов выполняется в рамках внешней транзакции.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := snapshot{
		categories: maps.Clone(s.categories),
		products:   maps.Clone(s.products),
		orders:     maps.Clone(s.orders),
		lines:      slices.Clone(s.lines),
		seqs:       [3]int64{s.categorySeq, s.productSeq, s.orderSeq},
	}

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.categories = snap.categories
		s.products = snap.products
		s.orders = snap.orders
		s.lines = snap.lines
		s.categorySeq, s.productSeq, s.orderSeq = snap.seqs[0], snap.seqs[1], snap.seqs[2]
		return err
	}

	return nil
}

// Reads возвращает количество выполненных чтений (GetByID и List).
func (s *Store) Reads() int64 {
	return s.reads.Load()
}

func (s *Store) Categories() *CategoryRepo {
	return &CategoryRepo{s: s}
}

func (s *Store) Products() *ProductRepo {
	return &ProductRepo{s: s}
}

func (s *Store) Orders() *OrderRepo {
	return &OrderRepo{s: s}
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock берёт мьютекс, если вызов не внутри транзакции этого же хранилища.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}

	s.mu.Lock()
	return s.mu.Unlock
}

// paginate сортирует items и возвращает запрошенную страницу.
func paginate[T any](items []T, page domain.PageRequest, less func(a, b T) int) []T {
	slices.SortStableFunc(items, func(a, b T) int {
		c := less(a, b)
		if page.Descending() {
			return -c
		}
		return c
	})

	from := min(page.Offset(), len(items))
	to := min(from+page.ItemsPerPage, len(items))

	return items[from:to]
}
