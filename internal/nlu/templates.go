package nlu

import "strings"

// responseTemplates map each intent to its base response. {city_part} and
// {filter_part} are substituted from the extracted entities; substitution is
// pure formatting and carries no decision logic.
var responseTemplates = map[string]string{
	IntentGreet:              "Hello! I can help you find parking stations and book slots.",
	IntentHelp:               "I can help you with: booking slots, viewing available slots, showing stations, checking your bookings, cancelling bookings, favorites and payment history. What would you like to do?",
	IntentBookSlot:           "Let's book a parking slot{city_part}.",
	IntentViewSlots:          "Here are all the slots{filter_part}{city_part}:",
	IntentViewSlotsFiltered:  "Here are the available slots{filter_part}{city_part}:",
	IntentDisplayStations:    "Here are the parking stations{city_part}:",
	IntentSearchStations:     "Searching for stations{city_part}.",
	IntentViewBookings:       "Here are your bookings:",
	IntentCancelBooking:      "Cancelling your booking.",
	IntentAddFavorite:        "Adding the station to your favorites.",
	IntentViewFavorites:      "Here are your favorite stations:",
	IntentViewPaymentHistory: "Here is your payment history:",
	IntentNavigateProfile:    "Opening your profile.",
	IntentNavigateHome:       "Going to the home screen.",
	IntentUnknown:            "I'm sorry, I didn't understand that. Could you rephrase? Try saying 'help' for available commands.",
}

// Respond renders the template for an intent, filling the optional
// placeholders from the entity map. Unknown intents fall back to the
// unknown template.
func Respond(intent string, ents Entities) string {
	tpl, ok := responseTemplates[intent]
	if !ok {
		tpl = responseTemplates[IntentUnknown]
	}

	cityPart := ""
	if city := ents[EntityCity]; city != "" {
		cityPart = " in " + titleCase(city)
	}
	filterPart := ""
	if vehicle := ents[EntityVehicleType]; vehicle != "" && vehicle != "vehicle" {
		filterPart = " for " + vehicle
	}

	tpl = strings.ReplaceAll(tpl, "{city_part}", cityPart)
	tpl = strings.ReplaceAll(tpl, "{filter_part}", filterPart)
	return tpl
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
