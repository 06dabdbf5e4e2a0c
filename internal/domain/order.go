package domain

import (
	"time"

	"github.com/DRSN-tech/ordering-backend/pkg/e"
	"github.com/shopspring/decimal"
)

// OrderStatus: состояние заказа.
//
//	open ──► approved ──► completed
//	  │          │            │
//	  └──────────┴────────────┴──► cancelled
//
// Вернуться в open нельзя, cancelled терминален.
type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "open"
	OrderStatusApproved  OrderStatus = "approved"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderStatuses перечисляет все допустимые статусы в порядке жизненного цикла.
var OrderStatuses = []OrderStatus{
	OrderStatusOpen,
	OrderStatusApproved,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range OrderStatuses {
		if string(st) == s {
			return st, true
		}
	}

	return "", false
}

// Transition проверяет переход current → requested.
// Совпадение статусов проверяется первым, затем терминальность cancelled.
func Transition(current, requested OrderStatus) error {
	switch {
	case current == requested:
		return e.ErrStatusUpToDate
	case current == OrderStatusCancelled:
		return e.ErrCancelledOrder
	case requested == OrderStatusOpen:
		return e.ErrBackToOpen
	case current == OrderStatusCompleted && requested == OrderStatusApproved:
		return e.ErrCompletedToApproved
	}

	// completed → cancelled разрешён
	return nil
}

// Order: заказ с позициями. TotalPrice вычисляется из позиций при создании и дальше не меняется.
type Order struct {
	ID         int64           `json:"id"`
	Status     OrderStatus     `json:"status"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
	Lines      []OrderLine     `json:"lines"`
}

// OrderLine: позиция заказа. UnitPrice фиксируется на момент создания заказа
// и не зависит от текущей цены продукта.
type OrderLine struct {
	OrderID     int64           `json:"orderId"`
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// NewOrder создаёт заказ в статусе open с итоговой суммой по позициям.
func NewOrder(lines []OrderLine) *Order {
	return &Order{
		Status:     OrderStatusOpen,
		TotalPrice: TotalOf(lines),
		Lines:      lines,
	}
}

func TotalOf(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}

	return total
}

// ChangeStatus применяет переход статуса. При отказе заказ не меняется.
func (o *Order) ChangeStatus(to OrderStatus) error {
	if err := Transition(o.Status, to); err != nil {
		return err
	}
	o.Status = to

	return nil
}

var OrderSortFields = SortFields{"id", "status", "totalPrice", "createdAt", "updatedAt"}
