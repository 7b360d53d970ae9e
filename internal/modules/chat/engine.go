// README: Dialogue engine; stage-keyed routing with a single persistence point per turn.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"goshop/internal/ai"
	"goshop/internal/config"
	"goshop/internal/modules/pharmacy"
	"goshop/internal/modules/transcript"
	"goshop/internal/search"
)

// adapterTimeout bounds every outbound classifier/search call so a slow
// collaborator cannot hang a turn.
const adapterTimeout = 10 * time.Second

// StateStore is the persistence contract for conversation snapshots.
type StateStore interface {
	Get(ctx context.Context, userID string) (*State, error)
	Put(ctx context.Context, userID string, st State) error
}

// Directory provides the town vocabulary and town→pharmacy lookup.
type Directory interface {
	Towns(ctx context.Context) ([]string, error)
	ByTown(ctx context.Context, pueblo string) ([]pharmacy.Pharmacy, error)
}

// Recorder appends turns to the per-user transcript.
type Recorder interface {
	Append(ctx context.Context, userID string, turns ...transcript.Turn) error
}

// Goals bundles the captured preference facts passed to analytics.
type Goals struct {
	HealthGoal       string
	MedicalCondition string
	Preference       string
	Pueblo           string
}

// Analytics receives conversation events. Implementations are expected to be
// fire-and-forget: they must never block or fail the turn.
type Analytics interface {
	SessionStarted(userID string, at time.Time)
	SessionEnded(userID string, at time.Time)
	GoalsCaptured(userID string, g Goals)
	ProductsShown(userID string, stage string, products []search.Product, g Goals)
	LocationSearched(pueblo string, found bool)
}

type handlerFunc func(ctx context.Context, st State, message string) (Response, State)

// Engine routes (stage, message, context) to (next stage, mutated context,
// response). Handlers compute the successor state; the engine owns the
// single write to the state store, which is what gives per-user ordering.
type Engine struct {
	store      StateStore
	classifier ai.Classifier
	searcher   search.Searcher
	pharmacies Directory
	transcript Recorder
	analytics  Analytics
	log        *logrus.Logger
	cfg        config.ChatConfig
	now        func() time.Time

	handlers map[Stage]handlerFunc
}

// Deps wires the engine's collaborators. Transcript, Analytics and Log may
// be nil; the engine substitutes no-ops.
type Deps struct {
	Store      StateStore
	Classifier ai.Classifier
	Searcher   search.Searcher
	Pharmacies Directory
	Transcript Recorder
	Analytics  Analytics
	Log        *logrus.Logger
	Config     config.ChatConfig
	Now        func() time.Time
}

func NewEngine(deps Deps) *Engine {
	e := &Engine{
		store:      deps.Store,
		classifier: deps.Classifier,
		searcher:   deps.Searcher,
		pharmacies: deps.Pharmacies,
		transcript: deps.Transcript,
		analytics:  deps.Analytics,
		log:        deps.Log,
		cfg:        deps.Config,
		now:        deps.Now,
	}
	if e.log == nil {
		e.log = logrus.New()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.transcript == nil {
		e.transcript = noopRecorder{}
	}
	if e.analytics == nil {
		e.analytics = noopAnalytics{}
	}
	if e.cfg.SearchLimit <= 0 {
		e.cfg.SearchLimit = 5
	}
	e.handlers = map[Stage]handlerFunc{
		StageWelcome:        e.handleWelcome,
		StageMainMenu:       e.handleMainMenu,
		StageRecommendation: e.handleRecommendation,
		StagePersonalAdvice: e.handlePersonalAdvice,
		StageAskMedical:     e.handleMedical,
		StageAskPreference:  e.handlePreference,
		StageCustomQuery:    e.handleCustomQuery,
		StagePreLocation:    e.handlePreLocation,
		StageLocation:       e.handleLocation,
		StageOrderHelp:      e.handleOrderHelp,
		StageDone:           e.handleDone,
	}
	return e
}

// Advance processes one conversational turn end to end. Adapter failures
// degrade inside the handlers; only a state-store failure fails the turn.
func (e *Engine) Advance(ctx context.Context, userID, message string) (Response, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(message) == "" {
		return Response{}, ErrBadRequest
	}

	st, err := e.store.Get(ctx, userID)
	if err != nil {
		return Response{}, fmt.Errorf("load state: %w", err)
	}
	if st == nil {
		st = &State{UserID: userID, Stage: StageWelcome, Context: Context{}}
	}
	st.UserID = userID
	if st.Context == nil {
		st.Context = Context{}
	}

	var resp Response
	var next State
	switch {
	case message == InitSentinel:
		resp, next = e.handleInit(*st)
	case !KnownStage(st.Stage):
		// Unknown persisted stage: non-fatal routing failure, answer with a
		// generic fallback and leave the stored state untouched.
		e.log.WithFields(logrus.Fields{"user_id": userID, "stage": st.Stage}).Warn("unknown stage, returning fallback")
		return fallbackResponse(), nil
	default:
		resp, next = e.handlers[st.Stage](ctx, *st, message)
	}

	// The single write per turn. This must succeed: the engine cannot
	// guarantee correctness without durable state.
	if err := e.store.Put(ctx, userID, next); err != nil {
		return Response{}, fmt.Errorf("persist state: %w", err)
	}

	e.record(ctx, userID,
		transcript.Turn{Timestamp: e.now(), Sender: "user", Message: message, Stage: string(st.Stage)},
		transcript.Turn{Timestamp: e.now(), Sender: "bot", Message: resp.Text, Stage: string(next.Stage)},
	)
	return resp, nil
}

func (e *Engine) record(ctx context.Context, userID string, turns ...transcript.Turn) {
	if err := e.transcript.Append(ctx, userID, turns...); err != nil {
		e.log.WithError(err).WithField("user_id", userID).Warn("transcript append failed")
	}
}

// classify calls the classifier with a bounded timeout; on any failure it
// degrades to the uniform ranking so stage logic stays deterministic.
func (e *Engine) classify(ctx context.Context, input string, labels []string) ai.Result {
	cctx, cancel := context.WithTimeout(ctx, adapterTimeout)
	defer cancel()

	res, err := e.classifier.Classify(cctx, input, labels)
	if err != nil {
		e.log.WithError(err).Warn("classifier unavailable, using uniform ranking")
		return ai.Uniform(labels)
	}
	if len(res.Labels) != len(labels) || len(res.Labels) != len(res.Scores) {
		e.log.Warn("classifier returned malformed ranking, using uniform ranking")
		return ai.Uniform(labels)
	}
	return res
}

// searchProducts runs a bounded product search; failures come back as an
// empty result set, never as an error.
func (e *Engine) searchProducts(ctx context.Context, concepts []string) []search.Product {
	cctx, cancel := context.WithTimeout(ctx, adapterTimeout)
	defer cancel()

	products, err := e.searcher.Search(cctx, concepts, e.cfg.SearchLimit)
	if err != nil {
		e.log.WithError(err).Warn("product search unavailable, returning no results")
		return nil
	}
	return products
}

func fallbackResponse() Response {
	return Response{Text: "Lo siento, no entendí eso. ¿Puedes intentarlo de otra forma?"}
}

type noopRecorder struct{}

func (noopRecorder) Append(context.Context, string, ...transcript.Turn) error { return nil }

type noopAnalytics struct{}

func (noopAnalytics) SessionStarted(string, time.Time)                         {}
func (noopAnalytics) SessionEnded(string, time.Time)                           {}
func (noopAnalytics) GoalsCaptured(string, Goals)                              {}
func (noopAnalytics) ProductsShown(string, string, []search.Product, Goals)    {}
func (noopAnalytics) LocationSearched(string, bool)                            {}
