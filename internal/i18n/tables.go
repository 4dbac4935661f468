package i18n

// Funnel-facing strings. Only the keys the booking flow needs live
// here; the marketing page keeps its own copy deck.
var tables = map[string]map[string]string{
	"en": {
		"formTitle":         "Book Your Appointment",
		"formStep1":         "Tell us about you and your vehicle",
		"formStep2":         "Pick a date and time",
		"fieldRequired":     "This field is required",
		"invalidEmail":      "Enter a valid email address",
		"invalidPhone":      "Enter a valid phone number",
		"noSlotsToday":      "No times are left for today. Please pick another day.",
		"dayClosed":         "We are closed that day. Please pick another day.",
		"pickDateFirst":     "Pick a date to see available times",
		"submitting":        "Booking your appointment...",
		"backButton":        "Back",
		"nextButton":        "Next",
		"confirmButton":     "Confirm Booking",
		"confirmationTitle": "Thank you, {{name}}!",
		"confirmationBody":  "Your {{vehicle}} is booked for {{date}} at {{time}}.",
		"couponNote":        "Your coupon code: {{code}}",
	},
	"es": {
		"formTitle":         "Reserve su cita",
		"formStep1":         "Cuéntenos sobre usted y su vehículo",
		"formStep2":         "Elija fecha y hora",
		"fieldRequired":     "Este campo es obligatorio",
		"invalidEmail":      "Ingrese un correo electrónico válido",
		"invalidPhone":      "Ingrese un número de teléfono válido",
		"noSlotsToday":      "No quedan horarios para hoy. Elija otro día.",
		"dayClosed":         "Estamos cerrados ese día. Elija otro día.",
		"pickDateFirst":     "Elija una fecha para ver los horarios disponibles",
		"submitting":        "Reservando su cita...",
		"backButton":        "Atrás",
		"nextButton":        "Siguiente",
		"confirmButton":     "Confirmar reserva",
		"confirmationTitle": "¡Gracias, {{name}}!",
		"confirmationBody":  "Su {{vehicle}} está reservado para el {{date}} a las {{time}}.",
		"couponNote":        "Su código de cupón: {{code}}",
	},
}
