package board

// WidgetPlacement is a floating widget's saved position and size.
type WidgetPlacement struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// AgendaSettings holds the calendar/agenda widget layout.
type AgendaSettings struct {
	Placement WidgetPlacement `json:"placement"`
	Visible   bool            `json:"visible"`
}

// QuoteSettings holds the motivational quote widget layout.
type QuoteSettings struct {
	Placement WidgetPlacement `json:"placement"`
	Visible   bool            `json:"visible"`
}

// Shortcut is one saved link in the shortcuts widget.
type Shortcut struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

// FitnessEntry is one day of tracked activity.
type FitnessEntry struct {
	Date          string `json:"date"` // YYYY-MM-DD
	Steps         int    `json:"steps"`
	ActiveMinutes int    `json:"activeMinutes,omitempty"`
}

// FitnessData is the fitness widget's stored state.
type FitnessData struct {
	DailyStepGoal int            `json:"dailyStepGoal,omitempty"`
	Entries       []FitnessEntry `json:"entries,omitempty"`
}

// ProfileSettings is the fixed set of per-profile widget configuration
// sections. Each section is optional; a nil section means "never saved".
type ProfileSettings struct {
	Agenda    *AgendaSettings `json:"agenda,omitempty"`
	Quote     *QuoteSettings  `json:"quote,omitempty"`
	Shortcuts []Shortcut      `json:"shortcuts,omitempty"`
	Fitness   *FitnessData    `json:"fitness,omitempty"`
}

// MergeSettings applies patch onto base one section at a time: a section set
// in patch replaces the whole section in base, untouched sections survive.
func MergeSettings(base, patch ProfileSettings) ProfileSettings {
	out := base
	if patch.Agenda != nil {
		out.Agenda = patch.Agenda
	}
	if patch.Quote != nil {
		out.Quote = patch.Quote
	}
	if patch.Shortcuts != nil {
		out.Shortcuts = patch.Shortcuts
	}
	if patch.Fitness != nil {
		out.Fitness = patch.Fitness
	}
	return out
}
