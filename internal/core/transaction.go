package core

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Custom field keys the backend uses to smuggle timestamps into records
// whose schema has no first-class time column. Values are stringified
// epoch milliseconds.
const (
	FieldTransactionDate = "transaction-date"
	FieldLastActivity    = "lastactivity"
	FieldEventTime       = "eventTime"

	FieldTypeString = "STRING"
)

// Categories is the closed set the backend recognises. Controllers
// treat it as a fallback until the server-derived set is cached.
var Categories = []string{"Bill", "Shopping", "Betting", "Loan", "EMIs"}

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrMissingDate         = errors.New("missing transaction date")
	ErrMissingCategory     = errors.New("missing category")
	ErrMissingCounterparty = errors.New("missing counterparty name")
	ErrMissingEventName    = errors.New("missing event name")
	ErrMissingEventTime    = errors.New("missing event date or time")
)

// CustomField is the generic {key, value, type} triple attached to
// transactions and events.
type CustomField struct {
	FieldKey       string `json:"fieldKey"`
	FieldValue     string `json:"fieldValue"`
	FieldValueType string `json:"fieldValueType"`
}

// Transaction is one recorded cash movement as the backend returns it,
// plus the display fields the transport layer derives on read.
type Transaction struct {
	TransactionID string        `json:"transactionId"`
	Category      string        `json:"category"`
	ReceiverName  string        `json:"receiverName"`
	SenderName    string        `json:"senderName"`
	Reason        string        `json:"reason"`
	Amount        Money         `json:"amount"`
	AmountIn      bool          `json:"amountIn"`
	OrgID         string        `json:"orgId,omitempty"`
	CustomFields  []CustomField `json:"customFields"`

	// Derived on read, never sent back.
	FormattedDate string `json:"formattedDate,omitempty"`
	FormattedTime string `json:"formattedTime,omitempty"`
}

// Timestamp returns the epoch-millisecond instant of the transaction,
// taken from the first custom field keyed transaction-date or
// lastactivity, in field order.
func (t Transaction) Timestamp() (int64, bool) {
	for _, f := range t.CustomFields {
		if f.FieldKey != FieldTransactionDate && f.FieldKey != FieldLastActivity {
			continue
		}
		ms, err := strconv.ParseInt(strings.TrimSpace(f.FieldValue), 10, 64)
		if err != nil {
			return 0, false
		}
		return ms, true
	}
	return 0, false
}

// Counterparty returns whichever of sender/receiver is populated.
func (t Transaction) Counterparty() string {
	if t.AmountIn {
		return t.SenderName
	}
	return t.ReceiverName
}

// Income returns the amount when the transaction is cash-in, else zero.
func (t Transaction) Income() Money {
	if t.AmountIn {
		return t.Amount
	}
	return Money{}
}

// Expense returns the amount when the transaction is cash-out, else zero.
func (t Transaction) Expense() Money {
	if !t.AmountIn {
		return t.Amount
	}
	return Money{}
}

// TransactionDraft carries the user-facing form values for a new
// transaction. The transport layer turns a valid draft into the wire
// request; an invalid draft never reaches the network.
type TransactionDraft struct {
	Category     string
	Amount       Money
	AmountIn     bool
	Counterparty string
	Reason       string
	Date         time.Time
}

func (d TransactionDraft) Validate() error {
	if err := d.Amount.Validate(); err != nil {
		return err
	}
	if d.Date.IsZero() {
		return ErrMissingDate
	}
	if strings.TrimSpace(d.Category) == "" {
		return ErrMissingCategory
	}
	if strings.TrimSpace(d.Counterparty) == "" {
		return ErrMissingCounterparty
	}
	return nil
}
