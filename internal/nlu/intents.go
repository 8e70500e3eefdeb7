package nlu

// Intent names referenced across the engine. The booking state machine and
// the orchestrator dispatch on these, so they must match the table below.
const (
	IntentGreet              = "greet"
	IntentHelp               = "help"
	IntentBookSlot           = "book_slot"
	IntentViewSlots          = "view_slots"
	IntentViewSlotsFiltered  = "view_slots_filtered"
	IntentDisplayStations    = "display_stations"
	IntentSearchStations     = "search_stations"
	IntentViewBookings       = "view_bookings"
	IntentCancelBooking      = "cancel_booking"
	IntentAddFavorite        = "add_favorite"
	IntentViewFavorites      = "view_favorites"
	IntentViewPaymentHistory = "view_payment_history"
	IntentNavigateProfile    = "navigate_profile"
	IntentNavigateHome       = "navigate_home"
	IntentUnknown            = "unknown"
)

// Intent is one entry of the static intent table. A keyword phrase matches
// when every word of the phrase is present in the preprocessed token set;
// matching adds the phrase's word count to the intent's score, so multi-word
// phrases favor more specific intents.
type Intent struct {
	Name    string
	Phrases [][]string
	Action  string
	Screen  string
	Params  map[string]any
}

// Table is the static intent table. Declaration order is the deterministic
// tie-break: when two intents end with equal scores, the one declared first
// wins.
var Table = []Intent{
	{
		Name: IntentGreet,
		Phrases: [][]string{
			{"hello"}, {"hi"}, {"hey"}, {"greetings"},
			{"good", "morning"}, {"good", "afternoon"}, {"good", "evening"},
		},
		Action: "respond",
	},
	{
		Name: IntentHelp,
		Phrases: [][]string{
			{"help"}, {"assist"}, {"commands"}, {"guide"},
		},
		Action: "respond",
	},
	{
		Name: IntentBookSlot,
		Phrases: [][]string{
			{"book"}, {"reserve"}, {"rent"}, {"hire"},
			{"book", "slot"}, {"reserve", "slot"}, {"book", "parking"},
		},
		Action: "navigate",
		Screen: "book_slot",
	},
	{
		Name: IntentViewSlots,
		Phrases: [][]string{
			{"show", "slots"}, {"view", "slots"}, {"see", "slots"}, {"list", "slots"},
		},
		Action: "display",
		Screen: "slots",
		Params: map[string]any{"filter_available": false},
	},
	{
		Name: IntentViewSlotsFiltered,
		Phrases: [][]string{
			{"slots"}, {"available", "slots"}, {"free", "slots"},
			{"empty", "slots"}, {"available", "parking"},
		},
		Action: "display",
		Screen: "slots",
		Params: map[string]any{"filter_available": true},
	},
	{
		Name: IntentSearchStations,
		Phrases: [][]string{
			{"search", "stations"}, {"find", "stations"}, {"nearby"}, {"closest"},
		},
		Action: "navigate",
		Screen: "search",
	},
	{
		Name: IntentDisplayStations,
		Phrases: [][]string{
			{"stations"}, {"show", "stations"}, {"view", "stations"},
			{"list", "stations"}, {"parking", "stations"}, {"station"},
		},
		Action: "display",
		Screen: "stations",
	},
	{
		Name: IntentViewBookings,
		Phrases: [][]string{
			{"bookings"}, {"show", "bookings"}, {"view", "bookings"},
			{"reservations"}, {"booking", "history"},
		},
		Action: "display",
		Screen: "bookings",
	},
	{
		Name: IntentCancelBooking,
		Phrases: [][]string{
			{"cancel", "booking"}, {"delete", "booking"}, {"remove", "booking"},
			{"cancel", "reservation"},
		},
		Action: "cancel",
		Screen: "bookings",
	},
	{
		Name: IntentAddFavorite,
		Phrases: [][]string{
			{"add", "favorite"}, {"add", "favourite"}, {"save", "station"},
			{"favorite", "station"},
		},
		Action: "update",
		Screen: "favorites",
	},
	{
		Name: IntentViewFavorites,
		Phrases: [][]string{
			{"favorites"}, {"favourites"}, {"show", "favorites"}, {"saved", "stations"},
		},
		Action: "display",
		Screen: "favorites",
	},
	{
		Name: IntentViewPaymentHistory,
		Phrases: [][]string{
			{"payment", "history"}, {"payments"}, {"transactions"}, {"receipts"},
		},
		Action: "display",
		Screen: "payments",
	},
	{
		Name: IntentNavigateProfile,
		Phrases: [][]string{
			{"profile"}, {"account"},
		},
		Action: "navigate",
		Screen: "profile",
	},
	{
		Name: IntentNavigateHome,
		Phrases: [][]string{
			{"home"}, {"dashboard"},
		},
		Action: "navigate",
		Screen: "home",
	},
}

// Lookup returns the table entry for name; ok is false for unknown names.
func Lookup(name string) (Intent, bool) {
	for _, in := range Table {
		if in.Name == name {
			return in, true
		}
	}
	return Intent{}, false
}
