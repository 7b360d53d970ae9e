package chat

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"goshop/internal/ai"
	"goshop/internal/config"
	"goshop/internal/modules/pharmacy"
	"goshop/internal/modules/transcript"
	"goshop/internal/search"
)

// fakeStore is an in-memory append-only state store.
type fakeStore struct {
	rows   map[string][]State
	getErr error
	putErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string][]State{}}
}

func (f *fakeStore) Get(_ context.Context, userID string) (*State, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	rows := f.rows[userID]
	if len(rows) == 0 {
		return nil, nil
	}
	latest := rows[len(rows)-1]
	return &latest, nil
}

func (f *fakeStore) Put(_ context.Context, userID string, st State) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.rows[userID] = append(f.rows[userID], st)
	return nil
}

func (f *fakeStore) latest(userID string) State {
	rows := f.rows[userID]
	return rows[len(rows)-1]
}

func (f *fakeStore) puts(userID string) int { return len(f.rows[userID]) }

// fakeClassifier ranks the configured top label first and everything else
// after it with zero scores. top must be one of the requested labels.
type fakeClassifier struct {
	top      string
	topScore float64
	err      error
	calls    int
}

func (f *fakeClassifier) Classify(_ context.Context, _ string, labels []string) (ai.Result, error) {
	f.calls++
	if f.err != nil {
		return ai.Result{}, f.err
	}
	if f.top == "" {
		return ai.Uniform(labels), nil
	}
	out := ai.Result{Labels: []string{f.top}, Scores: []float64{f.topScore}}
	for _, l := range labels {
		if l != f.top {
			out.Labels = append(out.Labels, l)
			out.Scores = append(out.Scores, 0)
		}
	}
	return out, nil
}

type fakeSearcher struct {
	products []search.Product
	err      error
	calls    int
	lastArgs []string
}

func (f *fakeSearcher) Search(_ context.Context, concepts []string, _ int) ([]search.Product, error) {
	f.calls++
	f.lastArgs = concepts
	return f.products, f.err
}

type fakeDirectory struct {
	towns      []string
	pharmacies map[string][]pharmacy.Pharmacy
	townsErr   error
}

func (f *fakeDirectory) Towns(_ context.Context) ([]string, error) {
	return f.towns, f.townsErr
}

func (f *fakeDirectory) ByTown(_ context.Context, pueblo string) ([]pharmacy.Pharmacy, error) {
	return f.pharmacies[pueblo], nil
}

type fakeRecorder struct {
	turns []transcript.Turn
}

func (f *fakeRecorder) Append(_ context.Context, _ string, turns ...transcript.Turn) error {
	f.turns = append(f.turns, turns...)
	return nil
}

type fakeAnalytics struct {
	started   int
	ended     int
	goals     []Goals
	shown     []string // stages
	locations []string
}

func (f *fakeAnalytics) SessionStarted(string, time.Time) { f.started++ }
func (f *fakeAnalytics) SessionEnded(string, time.Time)   { f.ended++ }
func (f *fakeAnalytics) GoalsCaptured(_ string, g Goals)  { f.goals = append(f.goals, g) }
func (f *fakeAnalytics) ProductsShown(_ string, stage string, _ []search.Product, _ Goals) {
	f.shown = append(f.shown, stage)
}
func (f *fakeAnalytics) LocationSearched(pueblo string, _ bool) {
	f.locations = append(f.locations, pueblo)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestEngine(deps Deps) *Engine {
	if deps.Store == nil {
		deps.Store = newFakeStore()
	}
	if deps.Classifier == nil {
		deps.Classifier = &fakeClassifier{}
	}
	if deps.Searcher == nil {
		deps.Searcher = &fakeSearcher{}
	}
	if deps.Pharmacies == nil {
		deps.Pharmacies = &fakeDirectory{}
	}
	if deps.Log == nil {
		deps.Log = quietLogger()
	}
	return NewEngine(deps)
}

func seed(store *fakeStore, userID string, stage Stage, ctx Context) {
	if ctx == nil {
		ctx = Context{}
	}
	store.rows[userID] = append(store.rows[userID], State{UserID: userID, Stage: stage, Context: ctx})
}

func TestAdvanceRejectsEmptyInput(t *testing.T) {
	e := newTestEngine(Deps{})
	if _, err := e.Advance(context.Background(), "", "hola"); !errors.Is(err, ErrBadRequest) {
		t.Errorf("empty user id: got %v, want ErrBadRequest", err)
	}
	if _, err := e.Advance(context.Background(), "u1", "   "); !errors.Is(err, ErrBadRequest) {
		t.Errorf("blank message: got %v, want ErrBadRequest", err)
	}
}

func TestAdvanceInitSentinelResetsSession(t *testing.T) {
	store := newFakeStore()
	analytics := &fakeAnalytics{}
	e := newTestEngine(Deps{Store: store, Analytics: analytics})

	// Mid-conversation state that the sentinel must discard.
	seed(store, "u1", StageAskMedical, Context{ctxHealthGoal: "dormir"})

	resp, err := e.Advance(context.Background(), "u1", InitSentinel)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if resp.Text != welcomeText {
		t.Errorf("Text = %q", resp.Text)
	}
	if len(resp.Options) != len(MainOptions) {
		t.Errorf("expected main options, got %v", resp.Options)
	}

	st := store.latest("u1")
	if st.Stage != StageMainMenu {
		t.Errorf("stage = %s, want main_menu", st.Stage)
	}
	if len(st.Context) != 0 {
		t.Errorf("context must be empty after init, got %v", st.Context)
	}
	if analytics.started != 1 {
		t.Errorf("SessionStarted calls = %d", analytics.started)
	}
}

func TestAdvanceNewUserGetsWelcome(t *testing.T) {
	store := newFakeStore()
	e := newTestEngine(Deps{Store: store})

	resp, err := e.Advance(context.Background(), "u1", "hola")
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if resp.Text != welcomeText {
		t.Errorf("Text = %q", resp.Text)
	}

	st := store.latest("u1")
	if st.Stage != StageMainMenu {
		t.Errorf("stage = %s", st.Stage)
	}
	if st.Context.str(ctxSessionStart) == "" {
		t.Error("session_start not stamped")
	}
}

func TestMainMenuRouting(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		wantStage Stage
	}{
		{"catalog option", "Catálogo de Productos 💊", StageRecommendation},
		{"catalog lowercase no accent", "catalogo", StageRecommendation},
		{"personal advice", "Ayuda Personalizada de Suplementos 💡", StagePersonalAdvice},
		{"orders", "Dudas sobre mis pedidos 📦", StageOrderHelp},
		{"promotions stay put", "Promociones especiales 💸", StageMainMenu},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			e := newTestEngine(Deps{Store: store})
			seed(store, "u1", StageMainMenu, nil)

			if _, err := e.Advance(context.Background(), "u1", tt.message); err != nil {
				t.Fatalf("Advance: %v", err)
			}
			if st := store.latest("u1"); st.Stage != tt.wantStage {
				t.Errorf("stage = %s, want %s", st.Stage, tt.wantStage)
			}
		})
	}
}

func TestMainMenuCatalogOffersCategories(t *testing.T) {
	store := newFakeStore()
	e := newTestEngine(Deps{Store: store})
	seed(store, "u1", StageMainMenu, nil)

	resp, err := e.Advance(context.Background(), "u1", "Catálogo de Productos 💊")
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if len(resp.Options) != len(CategoryOptions) {
		t.Errorf("options = %v", resp.Options)
	}
	if got := store.latest("u1").Context.count(ctxCategoryTries); got != 0 {
		t.Errorf("category attempts = %d, want 0", got)
	}
}

func TestMainMenuOutsideCounterThenSearch(t *testing.T) {
	store := newFakeStore()
	searcher := &fakeSearcher{products: []search.Product{{Name: "Omega 3"}}}
	analytics := &fakeAnalytics{}
	e := newTestEngine(Deps{Store: store, Searcher: searcher, Analytics: analytics})
	seed(store, "u1", StageMainMenu, nil)

	// First two unrecognized messages only re-prompt.
	for want := 1; want <= 2; want++ {
		resp, err := e.Advance(context.Background(), "u1", "bla bla bla")
		if err != nil {
			t.Fatalf("Advance #%d: %v", want, err)
		}
		if resp.Text != "Por favor, escoge una de las siguientes opciones 👇" {
			t.Errorf("turn %d Text = %q", want, resp.Text)
		}
		if searcher.calls != 0 {
			t.Fatalf("turn %d triggered a search", want)
		}
		st := store.latest("u1")
		if st.Stage != StageMainMenu || st.Context.count(ctxOutCounter) != want {
			t.Errorf("turn %d: stage=%s counter=%d", want, st.Stage, st.Context.count(ctxOutCounter))
		}
	}

	// Third miss falls through to the best-effort search and resets.
	resp, err := e.Advance(context.Background(), "u1", "quiero algo para la barriga hinchada")
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if searcher.calls != 1 {
		t.Fatalf("search calls = %d", searcher.calls)
	}
	if len(resp.Products) != 1 || resp.Products[0].Name != "Omega 3" {
		t.Errorf("products = %v", resp.Products)
	}
	st := store.latest("u1")
	if st.Stage != StageMainMenu || st.Context.count(ctxOutCounter) != 0 {
		t.Errorf("after search: stage=%s counter=%d", st.Stage, st.Context.count(ctxOutCounter))
	}
	if len(analytics.shown) != 1 || analytics.shown[0] != string(StageMainMenu) {
		t.Errorf("ProductsShown stages = %v", analytics.shown)
	}
	// Stopwords are stripped from the search concepts.
	for _, c := range searcher.lastArgs {
		if stopwords[c] {
			t.Errorf("stopword %q leaked into concepts %v", c, searcher.lastArgs)
		}
	}
}

func TestMainMenuSuccessResetsOutsideCounter(t *testing.T) {
	store := newFakeStore()
	searcher := &fakeSearcher{products: []search.Product{{Name: "X"}}}
	e := newTestEngine(Deps{Store: store, Searcher: searcher})
	seed(store, "u1", StageMainMenu, nil)

	ctx := context.Background()
	for turn := 1; turn <= 2; turn++ {
		if _, err := e.Advance(ctx, "u1", "bla bla bla"); err != nil {
			t.Fatalf("miss %d: %v", turn, err)
		}
	}
	if got := store.latest("u1").Context.count(ctxOutCounter); got != 2 {
		t.Fatalf("counter after two misses = %d", got)
	}

	// A recognized option is a success: the retry counter starts over.
	if _, err := e.Advance(ctx, "u1", "Promociones especiales 💸"); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if got := store.latest("u1").Context.count(ctxOutCounter); got != 0 {
		t.Errorf("counter after success = %d, want 0", got)
	}

	// The next miss must re-prompt, not jump to the exhausted search.
	resp, err := e.Advance(ctx, "u1", "bla bla bla")
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if searcher.calls != 0 {
		t.Errorf("miss after success triggered the fallback search")
	}
	if resp.Text != "Por favor, escoge una de las siguientes opciones 👇" {
		t.Errorf("Text = %q", resp.Text)
	}
	if got := store.latest("u1").Context.count(ctxOutCounter); got != 1 {
		t.Errorf("counter = %d, want 1", got)
	}
}

func TestMainMenuFuzzyCorrection(t *testing.T) {
	store := newFakeStore()
	e := newTestEngine(Deps{Store: store})
	seed(store, "u1", StageMainMenu, Context{ctxOutCounter: 1})

	// One typo away from the catalog option: treated as that option, counter
	// reset rather than incremented.
	if _, err := e.Advance(context.Background(), "u1", "catalgo de productos"); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	st := store.latest("u1")
	if st.Stage != StageRecommendation {
		t.Errorf("stage = %s, want recommendation after fuzzy match", st.Stage)
	}
	if st.Context.count(ctxOutCounter) != 0 {
		t.Errorf("counter = %d, want 0", st.Context.count(ctxOutCounter))
	}
}

func TestRecommendationOtherGoesToCustomQuery(t *testing.T) {
	store := newFakeStore()
	searcher := &fakeSearcher{products: []search.Product{{Name: "X"}}}
	e := newTestEngine(Deps{Store: store, Searcher: searcher})
	seed(store, "u1", StageRecommendation, nil)

	resp, err := e.Advance(context.Background(), "u1", "Otro (especificar)")
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if searcher.calls != 0 {
		t.Error("no search should run on the 'other' branch")
	}
	if store.latest("u1").Stage != StageCustomQuery {
		t.Errorf("stage = %s", store.latest("u1").Stage)
	}
	if len(resp.Products) != 0 {
		t.Errorf("unexpected products: %v", resp.Products)
	}
}

func TestRecommendationCategoryMatchShowsProducts(t *testing.T) {
	store := newFakeStore()
	searcher := &fakeSearcher{products: []search.Product{{Name: "Melatonina Plus"}}}
	analytics := &fakeAnalytics{}
	e := newTestEngine(Deps{Store: store, Searcher: searcher, Analytics: analytics})
	seed(store, "u1", StageRecommendation, nil)

	resp, err := e.Advance(context.Background(), "u1", "algo para dormir mejor")
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if len(resp.Products) != 1 {
		t.Fatalf("products = %v", resp.Products)
	}
	if resp.FollowupText == "" || len(resp.Options) != 2 {
		t.Errorf("expected pharmacy follow-up, got %+v", resp)
	}

	st := store.latest("u1")
	if st.Stage != StagePreLocation {
		t.Errorf("stage = %s", st.Stage)
	}
	if st.Context.str(ctxPreviousStage) != string(StageRecommendation) {
		t.Errorf("previous_stage = %q", st.Context.str(ctxPreviousStage))
	}
	// "dormir" is a sueño synonym, so the search runs on that keyword set.
	found := false
	for _, c := range searcher.lastArgs {
		if c == "melatonina" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected sueño keywords, got %v", searcher.lastArgs)
	}
}

func TestRecommendationRetriesThenEscalates(t *testing.T) {
	store := newFakeStore()
	// Classifier puts "otro" on top: no category match.
	classifier := &fakeClassifier{top: "otro", topScore: 0.9}
	e := newTestEngine(Deps{Store: store, Classifier: classifier})
	seed(store, "u1", StageRecommendation, nil)

	for turn := 1; turn <= 2; turn++ {
		resp, err := e.Advance(context.Background(), "u1", "zzz qqq")
		if err != nil {
			t.Fatalf("Advance #%d: %v", turn, err)
		}
		if resp.Text != "No entendí esa categoría. ¿Puedes escoger una de las siguientes?" {
			t.Errorf("turn %d Text = %q", turn, resp.Text)
		}
	}

	resp, err := e.Advance(context.Background(), "u1", "zzz qqq")
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if len(resp.Options) != 3 || resp.Options[2] != "Hablar con un asesor" {
		t.Errorf("expected escalation options, got %v", resp.Options)
	}
	if store.latest("u1").Stage != StageRecommendation {
		t.Errorf("stage = %s", store.latest("u1").Stage)
	}
}

func TestPersonalAdviceFlowCapturesGoals(t *testing.T) {
	store := newFakeStore()
	searcher := &fakeSearcher{products: []search.Product{{Name: "Multivitamina"}}}
	analytics := &fakeAnalytics{}
	e := newTestEngine(Deps{Store: store, Searcher: searcher, Analytics: analytics})
	seed(store, "u1", StagePersonalAdvice, nil)

	ctx := context.Background()
	if _, err := e.Advance(ctx, "u1", "más energía"); err != nil {
		t.Fatalf("goal turn: %v", err)
	}
	if st := store.latest("u1"); st.Stage != StageAskMedical || st.Context.str(ctxHealthGoal) != "más energía" {
		t.Fatalf("after goal: %+v", st)
	}

	if _, err := e.Advance(ctx, "u1", "ninguna"); err != nil {
		t.Fatalf("medical turn: %v", err)
	}
	if st := store.latest("u1"); st.Stage != StageAskPreference {
		t.Fatalf("after medical: %s", st.Stage)
	}

	resp, err := e.Advance(ctx, "u1", "vitaminas")
	if err != nil {
		t.Fatalf("preference turn: %v", err)
	}
	if len(resp.Products) != 1 {
		t.Errorf("products = %v", resp.Products)
	}
	if st := store.latest("u1"); st.Stage != StagePreLocation {
		t.Errorf("stage = %s", st.Stage)
	}

	if len(analytics.goals) != 1 {
		t.Fatalf("GoalsCaptured calls = %d", len(analytics.goals))
	}
	g := analytics.goals[0]
	if g.HealthGoal != "más energía" || g.MedicalCondition != "ninguna" || g.Preference != "vitaminas" {
		t.Errorf("captured goals = %+v", g)
	}
	// Search runs on goal + preference.
	if len(searcher.lastArgs) != 2 || searcher.lastArgs[0] != "más energía" {
		t.Errorf("search concepts = %v", searcher.lastArgs)
	}
}

func TestPreferenceWithNoResultsEndsSession(t *testing.T) {
	store := newFakeStore()
	e := newTestEngine(Deps{Store: store, Searcher: &fakeSearcher{}})
	seed(store, "u1", StageAskPreference, Context{ctxHealthGoal: "x"})

	resp, err := e.Advance(context.Background(), "u1", "hierbas")
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if len(resp.Products) != 0 {
		t.Errorf("products = %v", resp.Products)
	}
	if store.latest("u1").Stage != StageDone {
		t.Errorf("stage = %s", store.latest("u1").Stage)
	}
}

func TestPreLocationBranches(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		wantStage Stage
	}{
		{"yes", "Sí", StageLocation},
		{"yes informal", "dale pues", StageLocation},
		{"no", "No, gracias", StageDone},
		{"anything else", "mmm", StageDone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			e := newTestEngine(Deps{Store: store})
			seed(store, "u1", StagePreLocation, nil)

			if _, err := e.Advance(context.Background(), "u1", tt.message); err != nil {
				t.Fatalf("Advance: %v", err)
			}
			if st := store.latest("u1"); st.Stage != tt.wantStage {
				t.Errorf("stage = %s, want %s", st.Stage, tt.wantStage)
			}
		})
	}
}

func TestLocationReturnsPharmacies(t *testing.T) {
	store := newFakeStore()
	dir := &fakeDirectory{
		towns: []string{"San Juan", "Ponce", "Caguas"},
		pharmacies: map[string][]pharmacy.Pharmacy{
			"Ponce": {{Name: "Farmacia Central", MapsLink: "https://maps.example/1"}},
		},
	}
	analytics := &fakeAnalytics{}
	e := newTestEngine(Deps{Store: store, Pharmacies: dir, Analytics: analytics})
	seed(store, "u1", StageLocation, nil)

	resp, err := e.Advance(context.Background(), "u1", "estoy en ponce")
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if len(resp.Pharmacies) != 1 || resp.Pharmacies[0].Name != "Farmacia Central" {
		t.Errorf("pharmacies = %v", resp.Pharmacies)
	}

	st := store.latest("u1")
	if st.Stage != StageDone || st.Context.str(ctxPueblo) != "Ponce" {
		t.Errorf("state = %+v", st)
	}
	if len(analytics.locations) != 1 || analytics.locations[0] != "Ponce" {
		t.Errorf("LocationSearched = %v", analytics.locations)
	}
}

func TestLocationWithoutDirectoryFallsBackToBuiltinTowns(t *testing.T) {
	store := newFakeStore()
	dir := &fakeDirectory{townsErr: errors.New("db down")}
	e := newTestEngine(Deps{Store: store, Pharmacies: dir})
	seed(store, "u1", StageLocation, nil)

	resp, err := e.Advance(context.Background(), "u1", "bayamon")
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	// Town matched against the built-in list; no pharmacies known for it.
	if store.latest("u1").Context.str(ctxPueblo) != "Bayamón" {
		t.Errorf("pueblo = %q", store.latest("u1").Context.str(ctxPueblo))
	}
	if len(resp.Pharmacies) != 0 {
		t.Errorf("pharmacies = %v", resp.Pharmacies)
	}
}

func TestOrderHelpBranches(t *testing.T) {
	tests := []struct {
		name      string
		message   string
		wantStage Stage
	}{
		{"shipping ends with info", "Información de envío", StageDone},
		{"payment", "Métodos de pago", StageDone},
		{"status keeps asking", "Estado de mi pedido", StageOrderHelp},
		{"order number handed to advisor", "ORD-4411", StageDone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			e := newTestEngine(Deps{Store: store})
			seed(store, "u1", StageOrderHelp, nil)

			resp, err := e.Advance(context.Background(), "u1", tt.message)
			if err != nil {
				t.Fatalf("Advance: %v", err)
			}
			if resp.Text == "" {
				t.Error("expected a reply")
			}
			if st := store.latest("u1"); st.Stage != tt.wantStage {
				t.Errorf("stage = %s, want %s", st.Stage, tt.wantStage)
			}
		})
	}
}

func TestDoneCarriesForwardAndLoops(t *testing.T) {
	store := newFakeStore()
	analytics := &fakeAnalytics{}
	e := newTestEngine(Deps{Store: store, Analytics: analytics})
	seed(store, "u1", StageDone, Context{
		ctxHealthGoal:    "dormir",
		ctxPueblo:        "Ponce",
		ctxPreviousStage: string(StageRecommendation),
		ctxSessionStart:  "2026-03-01T10:00:00Z",
	})

	resp, err := e.Advance(context.Background(), "u1", "gracias")
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if resp.Text != "¿Te gustaría ver más productos o buscar en otra categoría?" {
		t.Errorf("Text = %q", resp.Text)
	}

	st := store.latest("u1")
	if st.Stage != StageMainMenu {
		t.Errorf("stage = %s", st.Stage)
	}
	if len(st.Context) != 2 {
		t.Errorf("context not reduced: %v", st.Context)
	}
	if st.Context.str(ctxHealthGoal) != "" || st.Context.str(ctxPueblo) != "" {
		t.Error("goal fields leaked past done")
	}
	if analytics.ended != 1 {
		t.Errorf("SessionEnded calls = %d", analytics.ended)
	}
}

func TestUnknownStageFallsBackWithoutPersisting(t *testing.T) {
	store := newFakeStore()
	e := newTestEngine(Deps{Store: store})
	seed(store, "u1", Stage("corrupted"), nil)

	resp, err := e.Advance(context.Background(), "u1", "hola")
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if resp.Text != fallbackResponse().Text {
		t.Errorf("Text = %q", resp.Text)
	}
	if store.puts("u1") != 1 { // only the seed row
		t.Errorf("fallback turn must not persist, rows = %d", store.puts("u1"))
	}
}

func TestAdapterFailuresDegradeWithoutError(t *testing.T) {
	store := newFakeStore()
	classifier := &fakeClassifier{err: errors.New("gemini down")}
	searcher := &fakeSearcher{err: errors.New("weaviate down")}
	e := newTestEngine(Deps{Store: store, Classifier: classifier, Searcher: searcher})
	seed(store, "u1", StageCustomQuery, nil)

	resp, err := e.Advance(context.Background(), "u1", "algo para el cansancio")
	if err != nil {
		t.Fatalf("adapter failures must not fail the turn: %v", err)
	}
	if len(resp.Products) != 0 {
		t.Errorf("products = %v", resp.Products)
	}
	if store.latest("u1").Stage != StageDone {
		t.Errorf("stage = %s", store.latest("u1").Stage)
	}
}

func TestStoreFailuresFailTheTurn(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("db down")
	e := newTestEngine(Deps{Store: store})
	if _, err := e.Advance(context.Background(), "u1", "hola"); err == nil {
		t.Error("expected error when Get fails")
	}

	store = newFakeStore()
	store.putErr = errors.New("db down")
	e = newTestEngine(Deps{Store: store})
	if _, err := e.Advance(context.Background(), "u1", "hola"); err == nil {
		t.Error("expected error when Put fails")
	}
}

func TestAdvancePersistsExactlyOncePerTurn(t *testing.T) {
	store := newFakeStore()
	e := newTestEngine(Deps{Store: store})

	ctx := context.Background()
	for i, msg := range []string{InitSentinel, "Catálogo de Productos 💊", "Otro (especificar)"} {
		if _, err := e.Advance(ctx, "u1", msg); err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
		if store.puts("u1") != i+1 {
			t.Fatalf("turn %d: %d rows persisted", i, store.puts("u1"))
		}
	}
}

func TestAdvanceRecordsTranscript(t *testing.T) {
	store := newFakeStore()
	rec := &fakeRecorder{}
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	e := newTestEngine(Deps{Store: store, Transcript: rec, Now: func() time.Time { return fixed }})

	if _, err := e.Advance(context.Background(), "u1", "hola"); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if len(rec.turns) != 2 {
		t.Fatalf("turns = %d", len(rec.turns))
	}
	if rec.turns[0].Sender != "user" || rec.turns[0].Message != "hola" {
		t.Errorf("user turn = %+v", rec.turns[0])
	}
	if rec.turns[1].Sender != "bot" || rec.turns[1].Stage != string(StageMainMenu) {
		t.Errorf("bot turn = %+v", rec.turns[1])
	}
	if !rec.turns[0].Timestamp.Equal(fixed) {
		t.Errorf("timestamp = %v", rec.turns[0].Timestamp)
	}
}

func TestMainMenuClassifierThreshold(t *testing.T) {
	store := newFakeStore()
	classifier := &fakeClassifier{top: "Catálogo de Productos 💊", topScore: 0.92}
	e := newTestEngine(Deps{
		Store:      store,
		Classifier: classifier,
		Config:     config.ChatConfig{ClassifierThreshold: 0.6},
	})
	seed(store, "u1", StageMainMenu, nil)

	// Free text that no substring branch catches routes via the classifier.
	if _, err := e.Advance(context.Background(), "u1", "muéstrame qué venden"); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if classifier.calls != 1 {
		t.Errorf("classifier calls = %d", classifier.calls)
	}
	if store.latest("u1").Stage != StageRecommendation {
		t.Errorf("stage = %s", store.latest("u1").Stage)
	}
}
