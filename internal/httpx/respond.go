package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/ariefcatur/retail-backoffice/internal/analytics"
	"github.com/ariefcatur/retail-backoffice/internal/customers"
	"github.com/ariefcatur/retail-backoffice/internal/inventory"
	"github.com/ariefcatur/retail-backoffice/internal/orders"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	writeTimeout = 5 * time.Second
	readTimeout  = 3 * time.Second
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json field names instead of Go ones
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type errorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

var (
	errInvalidJSON = errors.New("invalid json")
	errInvalidID   = errors.New("invalid id")
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var (
		stockErr *orders.StockError
		verrs    validator.ValidationErrors
	)
	switch {
	case errors.As(err, &stockErr):
		code := http.StatusBadRequest
		if errors.Is(stockErr, orders.ErrStockConflict) {
			code = http.StatusConflict
		}
		writeJSON(w, code, errorBody{Error: stockErr.Err.Error(), Details: stockErr.Items})
	case errors.As(err, &verrs):
		details := make([]fieldError, 0, len(verrs))
		for _, fe := range verrs {
			// drop the leading struct name: "createOrderReq.items[0].quantity" -> "items[0].quantity"
			field := fe.Namespace()
			if _, rest, ok := strings.Cut(field, "."); ok {
				field = rest
			}
			details = append(details, fieldError{Field: field, Rule: fe.Tag()})
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Details: details})
	default:
		code := statusFor(err)
		msg := err.Error()
		if code == http.StatusInternalServerError {
			msg = "internal error"
		}
		writeJSON(w, code, errorBody{Error: msg})
	}
}

func statusFor(err error) int {
	var bq badQuery
	switch {
	case errors.As(err, &bq),
		errors.Is(err, errInvalidJSON),
		errors.Is(err, errInvalidID),
		errors.Is(err, orders.ErrNoItems),
		errors.Is(err, orders.ErrInvalidQuantity),
		errors.Is(err, orders.ErrInvalidPaymentMethod),
		errors.Is(err, orders.ErrInvalidDiscount),
		errors.Is(err, orders.ErrInvalidStatus),
		errors.Is(err, orders.ErrInsufficientStock),
		errors.Is(err, inventory.ErrInvalidAdjustment),
		errors.Is(err, inventory.ErrInvalidPrice),
		errors.Is(err, inventory.ErrInvalidName),
		errors.Is(err, customers.ErrInvalidName),
		errors.Is(err, analytics.ErrInvalidBucket),
		errors.Is(err, analytics.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, orders.ErrProductNotFound),
		errors.Is(err, orders.ErrCustomerNotFound),
		errors.Is(err, orders.ErrOrderNotFound),
		errors.Is(err, inventory.ErrProductNotFound),
		errors.Is(err, inventory.ErrCategoryNotFound),
		errors.Is(err, customers.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, orders.ErrStockConflict),
		errors.Is(err, orders.ErrInvalidTransition),
		errors.Is(err, inventory.ErrInsufficientStock),
		errors.Is(err, inventory.ErrDuplicateSKU),
		errors.Is(err, inventory.ErrDuplicateCategory),
		errors.Is(err, inventory.ErrProductInUse),
		errors.Is(err, customers.ErrDuplicateEmail):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into dst and runs its validate tags.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errInvalidJSON
	}
	return validate.Struct(dst)
}

func pathID(s string) (string, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", errInvalidID
	}
	return s, nil
}

type badQuery string

func (q badQuery) Error() string { return "invalid query parameter " + strconv.Quote(string(q)) }

func queryInt(r *http.Request, key string) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, badQuery(key)
	}
	return n, nil
}

// queryTime accepts RFC 3339 timestamps or plain dates (midnight UTC).
func queryTime(r *http.Request, key string) (time.Time, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, badQuery(key)
	}
	return t, nil
}
