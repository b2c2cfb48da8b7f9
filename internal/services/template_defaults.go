package services

import "github.com/Top-g99/luxe-staycations-sub000/internal/models"

// DefaultTemplates returns the built-in templates for the default trigger rules.
func DefaultTemplates() []models.NotificationTemplate {
	return []models.NotificationTemplate{
		{
			Type:        "booking_confirmation",
			Name:        "Booking confirmation",
			Description: "Sent to the guest once a booking is created.",
			Subject:     "Your stay at {{propertyName}} is confirmed",
			Body: `Hi {{guestName}},

Thank you for booking **{{propertyName}}** with {{organizationName}}.

- Booking reference: {{bookingId}}
- Check-in: {{checkIn}}
- Check-out: {{checkOut}}
- Guests: {{guests}}
- Total: {{totalAmount}}

Questions? Reply to this email or call us on {{organizationPhone}}.`,
			Variables: []string{"guestName", "propertyName", "bookingId", "checkIn", "checkOut", "guests", "totalAmount", "organizationName", "organizationPhone"},
			Active:    true,
		},
		{
			Type:        "booking_cancellation",
			Name:        "Booking cancellation",
			Description: "Sent to the guest when a booking is cancelled.",
			Subject:     "Booking {{bookingId}} has been cancelled",
			Body: `Hi {{guestName}},

Your booking **{{bookingId}}** at {{propertyName}} was cancelled on {{currentDate}}.

Refund amount: {{refundAmount}}

We hope to host you another time.
{{organizationName}}`,
			Variables: []string{"guestName", "bookingId", "propertyName", "refundAmount", "currentDate", "organizationName"},
			Active:    true,
		},
		{
			Type:        "payment_receipt",
			Name:        "Payment receipt",
			Description: "Sent to the guest once a payment is captured.",
			Subject:     "Payment received for booking {{bookingId}}",
			Body: `Hi {{guestName}},

We received your payment of **{{amount}}** (payment id {{paymentId}}) for booking {{bookingId}}.

{{organizationName}} | {{organizationWebsite}}`,
			Variables: []string{"guestName", "bookingId", "amount", "paymentId", "organizationName", "organizationWebsite"},
			Active:    true,
		},
		{
			Type:        "checkin_reminder",
			Name:        "Check-in reminder",
			Description: "Reminds the guest about an upcoming check-in.",
			Subject:     "See you soon at {{propertyName}}",
			Body: `Hi {{guestName}},

Your check-in at **{{propertyName}}** is on {{checkIn}}.

Address: {{propertyAddress}}

Safe travels,
{{organizationName}}`,
			Variables: []string{"guestName", "propertyName", "checkIn", "propertyAddress", "organizationName"},
			Active:    true,
		},
		{
			Type:        "admin_new_booking",
			Name:        "New booking alert",
			Description: "Alerts the operations team about a new booking.",
			Subject:     "New booking {{bookingId}} for {{propertyName}}",
			Body: `New booking received at {{currentTime}} on {{currentDate}}.

- Guest: {{guestName}} ({{guestEmail}})
- Property: {{propertyName}}
- Dates: {{checkIn}} to {{checkOut}}
- Total: {{totalAmount}}`,
			Variables: []string{"bookingId", "propertyName", "guestName", "guestEmail", "checkIn", "checkOut", "totalAmount", "currentDate", "currentTime"},
			Active:    true,
		},
	}
}
