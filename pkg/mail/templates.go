package mail

import (
	"fmt"
	"time"
)

// ConfirmationMessage builds the booking confirmation email.
func ConfirmationMessage(customerName, tourName string, departure *time.Time, partySize int, total float64) (subject, body string) {
	subject = fmt.Sprintf("Booking received: %s", tourName)

	departureLine := "To be scheduled"
	if departure != nil {
		departureLine = departure.Format("Monday, 02 Jan 2006")
	}

	body = fmt.Sprintf(
		"Dear %s,\n\n"+
			"Thank you for your booking. Here are the details:\n\n"+
			"Tour: %s\n"+
			"Departure: %s\n"+
			"Party size: %d\n"+
			"Total: %.0f VND\n\n"+
			"We will contact you shortly to confirm your reservation.\n\n"+
			"Best regards,\n"+
			"The VN Travel team",
		customerName, tourName, departureLine, partySize, total,
	)

	return subject, body
}

// CancellationMessage builds the booking cancellation email.
func CancellationMessage(customerName, tourName string) (subject, body string) {
	subject = fmt.Sprintf("Booking cancelled: %s", tourName)

	body = fmt.Sprintf(
		"Dear %s,\n\n"+
			"Your booking for %s has been cancelled.\n\n"+
			"If you did not request this cancellation, please contact us.\n\n"+
			"Best regards,\n"+
			"The VN Travel team",
		customerName, tourName,
	)

	return subject, body
}
