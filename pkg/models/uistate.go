package models

import "time"

// Theme values accepted for the dashboard.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// UIState is the per-session dashboard chrome state: sidebar, theme and expanded nav groups.
type UIState struct {
	SidebarOpen    bool      `json:"sidebar_open"`
	Theme          string    `json:"theme"           validate:"required,oneof=light dark system"`
	ExpandedGroups []string  `json:"expanded_groups" validate:"max=50,dive,required,max=64"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DefaultUIState returns the state used for sessions that never saved one.
func DefaultUIState() *UIState {
	return &UIState{
		SidebarOpen:    true,
		Theme:          ThemeSystem,
		ExpandedGroups: []string{},
	}
}
