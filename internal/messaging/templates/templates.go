// Package templates builds the customer-facing message texts of the booking
// dialogue. All texts are Spanish, matching the WhatsApp protocol the service
// speaks; option lists are always 1-based with keycap-emoji numerals.
package templates

import (
	"fmt"
	"strings"
)

var keycaps = [10]string{
	"0️⃣", "1️⃣", "2️⃣", "3️⃣", "4️⃣",
	"5️⃣", "6️⃣", "7️⃣", "8️⃣", "9️⃣",
}

// NumberEmoji renders n as keycap emojis, composing digits for n >= 10.
func NumberEmoji(n int) string {
	if n >= 0 && n <= 9 {
		return keycaps[n]
	}
	var b strings.Builder
	for _, digit := range fmt.Sprintf("%d", n) {
		if digit >= '0' && digit <= '9' {
			b.WriteString(keycaps[digit-'0'])
		}
	}
	return b.String()
}

// FormatPriceCOP renders minor units as Colombian pesos without decimals,
// e.g. 2500000 -> "$ 25.000".
func FormatPriceCOP(cents int64) string {
	pesos := cents / 100
	negative := pesos < 0
	if negative {
		pesos = -pesos
	}

	digits := fmt.Sprintf("%d", pesos)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteRune('.')
		}
		b.WriteRune(d)
	}
	if negative {
		return "-$ " + b.String()
	}
	return "$ " + b.String()
}

// Option is one numbered entry in a selection list.
type Option struct {
	Label string
}

func renderOptions(header string, options []Option, footer string) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	for i, opt := range options {
		b.WriteString(NumberEmoji(i + 1))
		b.WriteString(" ")
		b.WriteString(opt.Label)
		b.WriteString("\n")
	}
	if footer != "" {
		b.WriteString("\n")
		b.WriteString(footer)
	}
	return b.String()
}

// LocationList greets the customer and lists locations to pick from.
func LocationList(options []Option) string {
	return renderOptions("Hola 👋 Bienvenido al lavado de autos.\n\n¿A qué sede quieres ir?", options, "")
}

// LocationReprompt re-lists locations after an invalid selection.
func LocationReprompt(options []Option) string {
	return renderOptions("Opción inválida. Por favor, envía el número de la sede que deseas:", options, "")
}

// ServiceList lists a location's services with prices.
func ServiceList(options []Option) string {
	return renderOptions("Perfecto 👍\n\n¿Qué servicio quieres?", options, "")
}

// ServiceOption renders one service entry ("name – price").
func ServiceOption(name string, priceCents int64) Option {
	return Option{Label: fmt.Sprintf("%s – %s", name, FormatPriceCOP(priceCents))}
}

// SlotList lists the available time slots for the chosen date.
func SlotList(options []Option) string {
	return renderOptions(
		"Perfecto 🚗\n\nEstos son los horarios disponibles para ese día:",
		options,
		"Responde con el número del horario que prefieras.",
	)
}

const (
	// NoLocations is sent when no active location exists.
	NoLocations = "Lo siento, no hay sedes disponibles en este momento."
	// DatePrompt asks for the service date.
	DatePrompt = "Genial ✨\n\n¿Para qué día quieres el servicio?\nEscribe la fecha así: 2025-12-01"
	// DateFormatError re-prompts after a malformed date.
	DateFormatError = "Por favor, escribe la fecha así: 2025-12-01"
	// DateInPast rejects dates before today.
	DateInPast = "La fecha debe ser hoy o en el futuro"
	// NoSlots is sent when the chosen date has no availability.
	NoSlots = "Lo siento, no hay horarios disponibles para esa fecha"
	// ServiceReprompt asks again for a numeric service selection.
	ServiceReprompt = "Por favor, envía el número del servicio que deseas (ej: 1, 2, 3)"
	// SlotReprompt asks again for a numeric slot selection.
	SlotReprompt = "Por favor, envía el número del horario que deseas (ej: 1, 2, 3)"
	// InvalidOption is the generic out-of-range reply.
	InvalidOption = "Opción inválida. Por favor, envía un número válido."
	// MissingData restarts a dialogue whose accumulated state is incomplete.
	MissingData = "Lo siento, falta información. Por favor, inicia de nuevo."
	// GenericError is the catch-all apology; the customer can retry the same step.
	GenericError = "Lo siento, hubo un error. Por favor intenta de nuevo."
	// PaymentLinkFailed is sent when the gateway rejects the link request.
	PaymentLinkFailed = "Lo siento, hubo un error al generar el link de pago. Por favor, contacta con soporte."
	// PaymentDeclined notifies a rejected payment; the slot stays reserved for retry.
	PaymentDeclined = "Lo siento, tu pago fue rechazado. Por favor, intenta nuevamente o contacta con soporte."
	// BookingInService tells the customer their car is being washed.
	BookingInService = "Tu carro está en servicio 🧼"
	// BookingReady tells the customer their car can be picked up.
	BookingReady = "🚘 Tu carro ya está listo para entregar.\n\nGracias por confiar en nosotros 🙌"
)

// NoServices is sent when the selected location offers nothing bookable.
func NoServices(locationName string) string {
	return fmt.Sprintf("Lo siento, no hay servicios disponibles en %s.", locationName)
}

// BookingSummary renders the reservation recap sent before the payment link.
func BookingSummary(locationName, serviceName, date, timeSlot string, priceCents int64) string {
	var b strings.Builder
	b.WriteString("Listo, este es el resumen de tu reserva:\n\n")
	fmt.Fprintf(&b, "📍 %s\n", locationName)
	fmt.Fprintf(&b, "✨ Servicio: %s\n", serviceName)
	fmt.Fprintf(&b, "📅 Fecha: %s\n", date)
	fmt.Fprintf(&b, "🕒 Hora: %s\n", timeSlot)
	fmt.Fprintf(&b, "💰 Valor: %s\n\n", FormatPriceCOP(priceCents))
	b.WriteString("Te voy a enviar el link de pago para confirmar tu cita ✅")
	return b.String()
}

// PaymentLink renders the checkout-URL message.
func PaymentLink(url string) string {
	return fmt.Sprintf(
		"Aquí está tu link de pago seguro 💳:\n\n👉 %s\n\nUna vez el pago sea aprobado, tu cita quedará confirmada automáticamente ✅",
		url,
	)
}

// PaymentConfirmed renders the post-payment confirmation.
func PaymentConfirmed(serviceName, date, timeSlot, locationName string) string {
	return fmt.Sprintf(
		"✅ Pago recibido.\n\nTu lavado %s quedó confirmado para el %s a las %s en %s.\n\nTe avisaremos cuando tu carro esté listo 🚘",
		serviceName, date, timeSlot, locationName,
	)
}
