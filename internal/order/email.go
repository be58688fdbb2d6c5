package order

import (
	"fmt"
	"net/url"
	"strings"
)

// Context is the free-text purchase order metadata entered by the user.
// Fields default to empty and are emitted as-is; no required-field
// validation happens here.
type Context struct {
	CustomerName string `json:"customerName"`
	PONumber     string `json:"poNumber"`
	ShipTo       string `json:"shipTo"`
}

// Email is the generated purchase order draft. Subject and Body are the
// plain, unencoded text; transport encoding happens in MailtoURL at the
// hand-off boundary.
type Email struct {
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Recipient string `json:"recipient"`
}

// BuildEmail renders the order context and cart into the fixed-format
// plain-text purchase order summary. It is side-effect free.
func BuildEmail(octx Context, lines []Line, recipient string) Email {
	var b strings.Builder

	fmt.Fprintf(&b, "PO Number: %s\n", octx.PONumber)
	fmt.Fprintf(&b, "Customer: %s\n", octx.CustomerName)
	fmt.Fprintf(&b, "Ship To: %s\n\nItems:\n", octx.ShipTo)

	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s (%s) - Order Qty: %d pallets | Units OH: %s",
			l.Description, l.Vendor, l.OrderQty, l.UnitsOnHand)
	}

	return Email{
		Subject:   "Purchase Order " + octx.PONumber,
		Body:      b.String(),
		Recipient: recipient,
	}
}

// MailtoURL encodes the email into a mailto URI for the host mail
// client. Spaces are percent-encoded rather than '+', which mail
// clients interpret literally.
func (e Email) MailtoURL() string {
	q := url.Values{}
	q.Set("subject", e.Subject)
	q.Set("body", e.Body)
	return "mailto:" + e.Recipient + "?" + strings.ReplaceAll(q.Encode(), "+", "%20")
}
