// README: Conversation state, stage enum and transition table.
package chat

import (
	"errors"

	"goshop/internal/search"

	"goshop/internal/modules/pharmacy"
)

// Stage is a named point in the conversation state machine. The stored value
// is the wire/database representation.
type Stage string

const (
	StageWelcome        Stage = "welcome"
	StageMainMenu       Stage = "main_menu"
	StageRecommendation Stage = "recommendation_category"
	StagePersonalAdvice Stage = "personal_advice"
	StageAskMedical     Stage = "ask_medical"
	StageAskPreference  Stage = "ask_preference"
	StageCustomQuery    Stage = "custom_query"
	StagePreLocation    Stage = "pre_location"
	StageLocation       Stage = "location"
	StageOrderHelp      Stage = "order_help"
	StageDone           Stage = "done"
)

// InitSentinel forces a session (re)start regardless of the stored stage.
const InitSentinel = "__init__"

var (
	ErrBadRequest = errors.New("bad request")
)

// Context keys. The context is an open mapping; these are the fields the
// handlers read and write.
const (
	ctxHealthGoal      = "health_goal"
	ctxMedical         = "medical_condition"
	ctxPreference      = "preference"
	ctxPueblo          = "pueblo"
	ctxSessionStart    = "session_start"
	ctxPreviousStage   = "previous_stage"
	ctxOutCounter      = "out_counter"
	ctxCategoryTries   = "category_attempts"
	ctxLastCategoryReq = "last_category_request"
)

// Context is the open key-value bag of accumulated conversation facts.
// Handlers never mutate a context in place: they derive a new value via
// clone/with and hand it back, so the carry-forward invariant stays easy to
// reason about.
type Context map[string]any

func (c Context) clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

func (c Context) with(key string, value any) Context {
	out := c.clone()
	out[key] = value
	return out
}

func (c Context) str(key string) string {
	s, _ := c[key].(string)
	return s
}

// count reads a numeric context field. JSON round-trips store numbers as
// float64, so both representations are accepted.
func (c Context) count(key string) int {
	switch v := c[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// carryForward reduces the context to the subset that survives a terminal
// stage transition: previous_stage and session_start, and only when present.
func (c Context) carryForward() Context {
	out := Context{}
	if v, ok := c[ctxPreviousStage]; ok && v != nil {
		out[ctxPreviousStage] = v
	}
	if v, ok := c[ctxSessionStart]; ok && v != nil {
		out[ctxSessionStart] = v
	}
	return out
}

// State is the persisted (stage, context) pair for one user.
type State struct {
	UserID  string
	Stage   Stage
	Context Context
}

// Response is the structured reply for one turn. Absent fields are omitted
// from the JSON payload; the widget treats missing and empty alike.
type Response struct {
	Text         string              `json:"text,omitempty"`
	Options      []string            `json:"options,omitempty"`
	Products     []search.Product    `json:"products,omitempty"`
	Pharmacies   []pharmacy.Pharmacy `json:"pharmacies,omitempty"`
	FollowupText string              `json:"followup_text,omitempty"`
}

// AllowedTransitions represents the conversation flow (diagram) as code.
// The graph is not acyclic: done loops back to main_menu and main_menu's
// fallback path re-enters itself.
var AllowedTransitions = map[Stage][]Stage{
	StageWelcome:        {StageMainMenu},
	StageMainMenu:       {StageMainMenu, StageRecommendation, StagePersonalAdvice, StageOrderHelp},
	StageRecommendation: {StageRecommendation, StageCustomQuery, StagePreLocation},
	StagePersonalAdvice: {StageAskMedical},
	StageAskMedical:     {StageAskPreference},
	StageAskPreference:  {StagePreLocation, StageDone},
	StageCustomQuery:    {StagePreLocation, StageDone},
	StagePreLocation:    {StageLocation, StageDone},
	StageLocation:       {StageDone},
	StageOrderHelp:      {StageOrderHelp, StageDone},
	StageDone:           {StageMainMenu},
}

func CanTransition(from, to Stage) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// KnownStage reports whether a persisted stage value is part of the closed
// stage set. Unknown values are answered with a generic fallback and never
// routed.
func KnownStage(s Stage) bool {
	switch s {
	case StageWelcome, StageMainMenu, StageRecommendation, StagePersonalAdvice,
		StageAskMedical, StageAskPreference, StageCustomQuery, StagePreLocation,
		StageLocation, StageOrderHelp, StageDone:
		return true
	}
	return false
}
