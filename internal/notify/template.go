package notify

import (
	"bytes"
	"html/template"

	"github.com/shopspring/decimal"
)

type OrderLine struct {
	Title     string
	Quantity  int64
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

type OrderConfirmation struct {
	OrderID    int64
	Username   string
	Lines      []OrderLine
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	Total      decimal.Decimal
	Currency   string
	CouponCode string
	PaymentURL string
}

var orderConfirmationTmpl = template.Must(template.New("order_confirmation").Parse(`<!DOCTYPE html>
<html>
<body>
<h2>Thank you for your order, {{.Username}}!</h2>
<p>Order #{{.OrderID}}</p>
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Item</th><th>Qty</th><th>Price</th><th>Total</th></tr>
{{range .Lines}}<tr><td>{{.Title}}</td><td>{{.Quantity}}</td><td>{{.UnitPrice.StringFixed 2}}</td><td>{{.LineTotal.StringFixed 2}}</td></tr>
{{end}}</table>
<p>Subtotal: {{.Subtotal.StringFixed 2}} {{.Currency}}</p>
{{if .CouponCode}}<p>Discount ({{.CouponCode}}): -{{.Discount.StringFixed 2}} {{.Currency}}</p>
{{end}}<p><strong>Amount payable: {{.Total.StringFixed 2}} {{.Currency}}</strong></p>
{{if .PaymentURL}}<p><a href="{{.PaymentURL}}">Complete your payment</a></p>
{{end}}</body>
</html>
`))

// RenderOrderConfirmation builds the HTML body of the confirmation email.
func RenderOrderConfirmation(c OrderConfirmation) (string, error) {
	var buf bytes.Buffer
	if err := orderConfirmationTmpl.Execute(&buf, c); err != nil {
		return "", err
	}
	return buf.String(), nil
}
