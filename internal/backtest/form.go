package backtest

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Field names a form input. Values match the request's JSON keys.
type Field string

const (
	FieldTicker      Field = "ticker"
	FieldStartDate   Field = "start_date"
	FieldEndDate     Field = "end_date"
	FieldSMAPeriod   Field = "sma_period"
	FieldIfCondition Field = "if_condition"
	FieldThenAction  Field = "then_action"
	FieldElseAction  Field = "else_action"
	FieldInitialCash Field = "initial_cash"
	FieldCommission  Field = "commission"
)

// Fields lists every form field in display order.
var Fields = []Field{
	FieldTicker, FieldSMAPeriod,
	FieldStartDate, FieldEndDate,
	FieldInitialCash, FieldCommission,
	FieldIfCondition, FieldThenAction, FieldElseAction,
}

// FieldErrors maps a field to its message. Fields without a problem are
// absent.
type FieldErrors map[Field]string

// Validation messages
const (
	MsgTickerRequired      = "Ticker is required"
	MsgStartDateRequired   = "Start date is required"
	MsgEndDateRequired     = "End date is required"
	MsgStartDateInvalid    = "Start date must be a valid date (YYYY-MM-DD)"
	MsgEndDateInvalid      = "End date must be a valid date (YYYY-MM-DD)"
	MsgEndBeforeStart      = "End date must be after start date"
	MsgSMAPeriodPositive   = "SMA period must be positive"
	MsgInitialCashPositive = "Initial cash must be positive"
	MsgCommissionNegative  = "Commission cannot be negative"
)

// Validate checks the request invariants. It has no side effects.
func Validate(r Request) FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(r.Ticker) == "" {
		errs[FieldTicker] = MsgTickerRequired
	}

	start, startOK := checkDate(errs, FieldStartDate, r.StartDate, MsgStartDateRequired, MsgStartDateInvalid)
	end, endOK := checkDate(errs, FieldEndDate, r.EndDate, MsgEndDateRequired, MsgEndDateInvalid)
	if startOK && endOK && !start.Before(end) {
		errs[FieldEndDate] = MsgEndBeforeStart
	}

	if r.SMAPeriod <= 0 {
		errs[FieldSMAPeriod] = MsgSMAPeriodPositive
	}
	if r.InitialCash <= 0 {
		errs[FieldInitialCash] = MsgInitialCashPositive
	}
	if r.Commission < 0 {
		errs[FieldCommission] = MsgCommissionNegative
	}

	return errs
}

func checkDate(errs FieldErrors, field Field, value, required, invalid string) (time.Time, bool) {
	if value == "" {
		errs[field] = required
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		errs[field] = invalid
		return time.Time{}, false
	}
	return t, true
}

// Form holds a request draft and the errors from the last submit.
type Form struct {
	Draft  Request
	Errors FieldErrors
}

// NewForm returns a form seeded with the defaults.
func NewForm() *Form {
	return &Form{Draft: DefaultRequest(), Errors: FieldErrors{}}
}

// Set edits one field from its raw input text. An edit clears that field's
// error and nothing else.
func (f *Form) Set(field Field, raw string) error {
	d := &f.Draft
	switch field {
	case FieldTicker:
		d.Ticker = strings.ToUpper(raw)
	case FieldStartDate:
		d.StartDate = raw
	case FieldEndDate:
		d.EndDate = raw
	case FieldSMAPeriod:
		d.SMAPeriod = leadingInt(raw)
	case FieldIfCondition:
		d.IfCondition = raw
	case FieldThenAction:
		switch a := ThenAction(raw); a {
		case ActionBuy, ActionSell:
			d.ThenAction = a
		}
	case FieldElseAction:
		switch a := ElseAction(raw); a {
		case ActionHold, ActionExit:
			d.ElseAction = a
		}
	case FieldInitialCash:
		d.InitialCash = leadingFloat(raw)
	case FieldCommission:
		d.Commission = leadingFloat(raw)
	default:
		return fmt.Errorf("unknown field %q", field)
	}

	if f.Errors == nil {
		f.Errors = FieldErrors{}
	}
	delete(f.Errors, field)
	return nil
}

// Submit validates the draft and records the errors. The draft is returned
// as is; ok is false when any field is invalid.
func (f *Form) Submit() (Request, bool) {
	f.Errors = Validate(f.Draft)
	return f.Draft, len(f.Errors) == 0
}

// Value returns the draft value of field as the input should display it.
func (f *Form) Value(field Field) string {
	d := f.Draft
	switch field {
	case FieldTicker:
		return d.Ticker
	case FieldStartDate:
		return d.StartDate
	case FieldEndDate:
		return d.EndDate
	case FieldSMAPeriod:
		return strconv.Itoa(d.SMAPeriod)
	case FieldIfCondition:
		return d.IfCondition
	case FieldThenAction:
		return string(d.ThenAction)
	case FieldElseAction:
		return string(d.ElseAction)
	case FieldInitialCash:
		return strconv.FormatFloat(d.InitialCash, 'f', -1, 64)
	case FieldCommission:
		return strconv.FormatFloat(d.Commission, 'f', -1, 64)
	}
	return ""
}

// Clone returns a deep copy.
func (f *Form) Clone() *Form {
	c := &Form{Draft: f.Draft, Errors: make(FieldErrors, len(f.Errors))}
	for k, v := range f.Errors {
		c.Errors[k] = v
	}
	return c
}

var (
	intPrefix   = regexp.MustCompile(`^\s*[+-]?\d+`)
	floatPrefix = regexp.MustCompile(`^\s*[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// leadingInt parses the integer prefix of s, or 0 when there is none.
// Out-of-range values saturate at the int limits.
func leadingInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(intPrefix.FindString(s)))
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	return n
}

// leadingFloat parses the decimal prefix of s, or 0 when there is none.
// Overflow saturates at the largest finite float so the draft stays
// JSON-encodable.
func leadingFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(floatPrefix.FindString(s)), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	switch {
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	return v
}
