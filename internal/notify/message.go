// Package notify delivers booking confirmations.
package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/Harshitk-cp/concierge/internal/domain"
)

var confirmationHTML = template.Must(template.New("confirmation").Parse(`<html>
<body>
	<h2>Booking Confirmation</h2>
	<p><strong>Community:</strong> {{.Community}}</p>
	<p><strong>Amenity:</strong> {{.Amenity}}</p>
	<p><strong>Time slot:</strong> {{.Slot}}</p>
	<p><strong>Reference:</strong> {{.Reference}}</p>
	<p>Thank you for using the Amenity Booking Service!</p>
</body>
</html>
`))

// Subject returns the confirmation email subject.
func Subject(b *domain.Booking) string {
	return fmt.Sprintf("Booking Confirmation: %s at %s", b.Amenity, b.Community)
}

// RenderHTML renders the confirmation email body. Values are HTML-escaped.
func RenderHTML(b *domain.Booking) (string, error) {
	var buf bytes.Buffer
	if err := confirmationHTML.Execute(&buf, b); err != nil {
		return "", fmt.Errorf("notify: render confirmation: %w", err)
	}
	return buf.String(), nil
}

// RenderText is the plain-text alternative part.
func RenderText(b *domain.Booking) string {
	return fmt.Sprintf("Booking Confirmation\n\nCommunity: %s\nAmenity: %s\nTime slot: %s\nReference: %s\n\nThank you for using the Amenity Booking Service!\n",
		b.Community, b.Amenity, b.Slot, b.Reference)
}
