package analytics

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidBucket = errors.New("bucket must be day, week or month")
	ErrInvalidRange  = errors.New("from must be before to")
)

type Bucket string

const (
	BucketDay   Bucket = "day"
	BucketWeek  Bucket = "week"
	BucketMonth Bucket = "month"
)

func (b Bucket) Valid() bool {
	return b == BucketDay || b == BucketWeek || b == BucketMonth
}

type Summary struct {
	Revenue           decimal.Decimal `json:"revenue"`
	Orders            int             `json:"orders"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
	TodayRevenue      decimal.Decimal `json:"todayRevenue"`
	TodayOrders       int             `json:"todayOrders"`
	Customers         int             `json:"customers"`
	Products          int             `json:"products"`
	LowStock          int             `json:"lowStock"`
}

type SalesPoint struct {
	Bucket  time.Time       `json:"bucket"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

type TopProduct struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type Range struct {
	From, To time.Time
}
