package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.French)

// FormatAmount renders a whole-FCFA display amount with French digit grouping.
func FormatAmount(d decimal.Decimal) string {
	return amountPrinter.Sprintf("%d FCFA", RoundDisplay(d).IntPart())
}

type ReceiptLine struct {
	Label    string `json:"label"`
	Quantity int    `json:"quantity"`
	Amount   string `json:"amount"`
}

// Receipt is the data handed to an external renderer; it holds no layout.
type Receipt struct {
	OrderNumber   string        `json:"order_number"`
	CustomerName  string        `json:"customer_name"`
	OrderType     OrderType     `json:"order_type"`
	TableRef      string        `json:"table_ref,omitempty"`
	Lines         []ReceiptLine `json:"lines"`
	Subtotal      string        `json:"subtotal"`
	Discount      string        `json:"discount"`
	ServiceCharge string        `json:"service_charge"`
	Tax           string        `json:"tax"`
	Total         string        `json:"total"`
	PaymentMethod PaymentMethod `json:"payment_method,omitempty"`
	Tendered      string        `json:"tendered,omitempty"`
	Change        string        `json:"change,omitempty"`
	IssuedAt      time.Time     `json:"issued_at"`
}

func NewReceipt(o Order, p *PaymentRecord) Receipt {
	r := Receipt{
		OrderNumber:   o.Number,
		CustomerName:  o.Customer.Name,
		OrderType:     o.Type,
		TableRef:      o.TableRef,
		Lines:         make([]ReceiptLine, 0, len(o.Items)),
		Subtotal:      FormatAmount(o.Pricing.Subtotal),
		Discount:      FormatAmount(o.Pricing.DiscountAmount),
		ServiceCharge: FormatAmount(o.Pricing.ServiceCharge),
		Tax:           FormatAmount(o.Pricing.TaxAmount),
		Total:         FormatAmount(o.Pricing.Total),
		IssuedAt:      o.CreatedAt,
	}
	for _, it := range o.Items {
		label := it.Name
		if it.Variation != "" {
			label += " (" + it.Variation + ")"
		}
		r.Lines = append(r.Lines, ReceiptLine{Label: label, Quantity: it.Quantity, Amount: FormatAmount(it.LineTotal())})
	}
	if p != nil {
		r.PaymentMethod = p.Method
		if p.Method == PaymentCash {
			r.Tendered = FormatAmount(p.Tendered)
			r.Change = FormatAmount(p.Change)
		}
	}
	return r
}
