// README: Stage handlers; texts and options mirror the production widget.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"goshop/internal/modules/pharmacy"
	"goshop/internal/text"
)

// MainOptions is the fixed top-level option set.
var MainOptions = []string{
	"Catálogo de Productos 💊",
	"Ayuda Personalizada de Suplementos 💡",
	"Dudas sobre mis pedidos 📦",
	"Promociones especiales 💸",
}

// CategoryOptions is the list offered when entering the catalog flow.
var CategoryOptions = []string{
	"Energía y Vitalidad",
	"Sueño y Relajación",
	"Salud del Corazón",
	"Apoyo Immune",
	"Salud Digestiva",
	"Otro (especificar)",
}

// closeMatchCutoff is the similarity a mistyped menu option must reach to be
// treated as that option.
const closeMatchCutoff = 0.8

// outsideRetryLimit: the outside-menu flow re-prompts while the counter is
// below this value; the next miss forces the best-effort search.
const outsideRetryLimit = 2

// categoryRetryLimit: category misses escalate only after this many prior
// attempts.
const categoryRetryLimit = 2

const welcomeText = "👋 ¡Hola! Soy tu asistente de salud de Xtravit. ¿Qué deseas hacer hoy?"

// category maps a catalog category to the synonym keywords fed into the
// product search. Order matters: the substring pass walks it top to bottom,
// and the slice doubles as the classifier's candidate label set.
type category struct {
	Name     string
	Keywords []string
}

var categories = []category{
	{"articular", []string{"articulaciones", "movilidad", "huesos", "músculos"}},
	{"hombres", []string{"testosterona", "masculinidad", "prostata", "impulso sexual", "esperma", "urinario"}},
	{"higado", []string{"hígado", "hepáticos", "renal"}},
	{"sueño", []string{"sueño", "melatonina", "relajación", "dormir", "descanso"}},
	{"energía", []string{"energía", "fatiga", "vitalidad", "multivitaminas"}},
	{"digestión", []string{"digestión", "probióticos", "salud intestinal", "hinchazón", "estómago", "gastrointestinal", "malestar", "barriga", "pipa"}},
	{"corazón", []string{"corazón", "presión arterial", "colesterol"}},
	{"inmunidad", []string{"inmunidad", "defensas", "sistema inmune"}},
	{"omega", []string{"cardiovascular", "cerebral", "ácidos grasos", "EPA", "DHA"}},
	{"otro", nil},
}

func categoryNames() []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}
	return names
}

func keywordsFor(name string) []string {
	for _, c := range categories {
		if c.Name == name {
			return c.Keywords
		}
	}
	return nil
}

// handleInit forces a session restart: stage main_menu, empty context.
func (e *Engine) handleInit(st State) (Response, State) {
	e.analytics.SessionStarted(st.UserID, e.now())
	next := State{UserID: st.UserID, Stage: StageMainMenu, Context: Context{}}
	return Response{Text: welcomeText, Options: MainOptions}, next
}

// handleWelcome moves any first-contact message straight to the main menu.
func (e *Engine) handleWelcome(_ context.Context, st State, _ string) (Response, State) {
	next := State{
		UserID:  st.UserID,
		Stage:   StageMainMenu,
		Context: st.Context.with(ctxSessionStart, e.now().UTC().Format(time.RFC3339)),
	}
	return Response{Text: welcomeText, Options: MainOptions}, next
}

func (e *Engine) handleMainMenu(ctx context.Context, st State, message string) (Response, State) {
	// Any recognized option counts as a success, so the outside-menu retry
	// counter goes back to zero on every branch below.
	switch {
	case text.ContainsWord(message, "catalogo") || text.ContainsWord(message, "recomendados"):
		next := State{
			UserID: st.UserID,
			Stage:  StageRecommendation,
			Context: st.Context.
				with(ctxOutCounter, 0).
				with(ctxCategoryTries, 0),
		}
		return Response{
			Text:    "Perfecto. ¿Qué estás buscando mejorar?",
			Options: CategoryOptions,
		}, next

	case text.ContainsWord(message, "personalizada"):
		next := State{UserID: st.UserID, Stage: StagePersonalAdvice, Context: st.Context.with(ctxOutCounter, 0)}
		return Response{
			Text: "Para darte las mejores recomendaciones, ¿cuál es tu objetivo principal de salud?",
		}, next

	case text.ContainsWord(message, "pedidos"):
		next := State{UserID: st.UserID, Stage: StageOrderHelp, Context: st.Context.with(ctxOutCounter, 0)}
		return Response{
			Text:    "¿En qué puedo ayudarte con tu pedido?",
			Options: []string{"Estado de mi pedido", "Información de envío", "Devoluciones", "Métodos de pago"},
		}, next

	case text.ContainsWord(message, "promociones"):
		next := State{UserID: st.UserID, Stage: StageMainMenu, Context: st.Context.with(ctxOutCounter, 0)}
		return Response{
			Text:    "¡Excelente! ¿Te interesa recibir un cupón o ver productos en oferta?",
			Options: []string{"Sí, quiero un cupón", "Ver productos en oferta"},
		}, next
	}

	// Optional classifier pass over the menu options. Disabled at the
	// default threshold of 0 to preserve the counter-based outside flow.
	if e.cfg.ClassifierThreshold > 0 {
		ranked := e.classify(ctx, message, MainOptions)
		if ranked.TopScore() >= e.cfg.ClassifierThreshold {
			return e.handleMainMenu(ctx, st, ranked.Top())
		}
	}

	return e.handleOutside(ctx, st, message)
}

// handleOutside is the main menu's fallback sub-flow: fuzzy-correct the
// input, re-prompt up to outsideRetryLimit times, then run a best-effort
// product search on the raw message.
func (e *Engine) handleOutside(ctx context.Context, st State, message string) (Response, State) {
	if match, ok := text.ClosestMatch(message, MainOptions, closeMatchCutoff); ok {
		// Close enough to a real option: behave as if the user picked it.
		reset := State{UserID: st.UserID, Stage: st.Stage, Context: st.Context.with(ctxOutCounter, 0)}
		return e.handleMainMenu(ctx, reset, match)
	}

	out := st.Context.count(ctxOutCounter)
	if out < outsideRetryLimit {
		next := State{UserID: st.UserID, Stage: StageMainMenu, Context: st.Context.with(ctxOutCounter, out+1)}
		return Response{
			Text:    "Por favor, escoge una de las siguientes opciones 👇",
			Options: MainOptions,
		}, next
	}

	// Exhausted: search with whatever the user keeps saying.
	products := e.searchProducts(ctx, queryConcepts(message))
	e.analytics.ProductsShown(st.UserID, string(StageMainMenu), products, goalsFrom(st.Context))
	next := State{UserID: st.UserID, Stage: StageMainMenu, Context: st.Context.with(ctxOutCounter, 0)}
	return Response{
		Text:     "Gracias por compartir. Aquí tienes algunas recomendaciones:",
		Products: products,
	}, next
}

func (e *Engine) handleRecommendation(ctx context.Context, st State, message string) (Response, State) {
	ctxMap := st.Context.with(ctxLastCategoryReq, message)

	if text.ContainsWord(message, "otro") || text.ContainsWord(message, "especificar") {
		next := State{UserID: st.UserID, Stage: StageCustomQuery, Context: ctxMap}
		return Response{
			Text: "Por favor, describe específicamente lo que estás buscando mejorar:",
		}, next
	}

	name, ok := e.matchCategory(ctx, message)
	if !ok {
		attempts := st.Context.count(ctxCategoryTries)
		next := State{UserID: st.UserID, Stage: StageRecommendation, Context: ctxMap.with(ctxCategoryTries, attempts+1)}
		if attempts >= categoryRetryLimit {
			return Response{
				Text: "Parece que estás teniendo dificultades para encontrar lo que buscas. ¿Te gustaría:",
				Options: []string{
					"Ver todas las categorías disponibles",
					"Describir tu necesidad específica",
					"Hablar con un asesor",
				},
			}, next
		}
		return Response{
			Text:    "No entendí esa categoría. ¿Puedes escoger una de las siguientes?",
			Options: categoryNames(),
		}, next
	}

	products := e.searchProducts(ctx, keywordsFor(name))
	if len(products) == 0 {
		next := State{UserID: st.UserID, Stage: StageRecommendation, Context: ctxMap}
		return Response{
			Text: fmt.Sprintf("No encontré productos específicos para '%s'. ¿Te gustaría:", name),
			Options: []string{
				"Ver todas las categorías",
				"Describir tu necesidad de otra forma",
				"Hablar con un asesor",
			},
		}, next
	}

	e.analytics.ProductsShown(st.UserID, string(StageRecommendation), products, goalsFrom(st.Context))
	next := State{
		UserID: st.UserID,
		Stage:  StagePreLocation,
		Context: ctxMap.
			with(ctxCategoryTries, 0).
			with(ctxPreviousStage, string(StageRecommendation)),
	}
	return Response{
		Text:         fmt.Sprintf("Aquí tienes algunas recomendaciones para %s:", name),
		Products:     products,
		FollowupText: "¿Quieres saber en qué farmacia cercana a ti puedes encontrarlos?",
		Options:      []string{"Sí", "No"},
	}, next
}

// matchCategory resolves the message to a catalog category: a substring pass
// over names and synonyms first, then the zero-shot classifier with the
// category names as candidate labels. The classifier's top label is
// authoritative; "otro" on top means nothing matched.
func (e *Engine) matchCategory(ctx context.Context, message string) (string, bool) {
	norm := text.Normalize(message)
	for _, c := range categories {
		if c.Name == "otro" {
			continue
		}
		if strings.Contains(norm, text.Normalize(c.Name)) {
			return c.Name, true
		}
		for _, kw := range c.Keywords {
			if strings.Contains(norm, text.Normalize(kw)) {
				return c.Name, true
			}
		}
	}

	ranked := e.classify(ctx, message, categoryNames())
	if top := ranked.Top(); top != "" && top != "otro" {
		return top, true
	}
	return "", false
}

func (e *Engine) handlePersonalAdvice(_ context.Context, st State, message string) (Response, State) {
	next := State{
		UserID:  st.UserID,
		Stage:   StageAskMedical,
		Context: st.Context.with(ctxHealthGoal, strings.TrimSpace(message)),
	}
	return Response{
		Text: "Gracias. ¿Tienes alguna condición médica o tomas algún medicamento que deba considerar?",
	}, next
}

func (e *Engine) handleMedical(_ context.Context, st State, message string) (Response, State) {
	next := State{
		UserID:  st.UserID,
		Stage:   StageAskPreference,
		Context: st.Context.with(ctxMedical, strings.TrimSpace(message)),
	}
	return Response{
		Text: "¿Tienes alguna preferencia en el tipo de suplemento (vitaminas, minerales, hierbas)?",
	}, next
}

func (e *Engine) handlePreference(ctx context.Context, st State, message string) (Response, State) {
	ctxMap := st.Context.with(ctxPreference, strings.TrimSpace(message))
	e.analytics.GoalsCaptured(st.UserID, goalsFrom(ctxMap))

	products := e.searchProducts(ctx, []string{ctxMap.str(ctxHealthGoal), ctxMap.str(ctxPreference)})
	if len(products) == 0 {
		next := State{
			UserID:  st.UserID,
			Stage:   StageDone,
			Context: ctxMap.with(ctxPreviousStage, string(StageAskPreference)),
		}
		return Response{
			Text: "No encontré productos para tu búsqueda en este momento. Puedes explorar el catálogo completo en nuestra tienda en línea. 🛒",
		}, next
	}

	e.analytics.ProductsShown(st.UserID, string(StageAskPreference), products, goalsFrom(ctxMap))
	next := State{
		UserID:  st.UserID,
		Stage:   StagePreLocation,
		Context: ctxMap.with(ctxPreviousStage, string(StageAskPreference)),
	}
	return Response{
		Text:         "Gracias por la información. Aquí tienes productos que podrían ayudarte:",
		Products:     products,
		FollowupText: "¿Quieres saber en qué farmacia cercana a ti puedes encontrarlos?",
		Options:      []string{"Sí", "No"},
	}, next
}

func (e *Engine) handleCustomQuery(ctx context.Context, st State, message string) (Response, State) {
	// Resolve the free text to a category's keyword list when possible;
	// otherwise search on the message's own concept terms.
	concepts := queryConcepts(message)
	ranked := e.classify(ctx, message, categoryNames())
	if top := ranked.Top(); top != "" && top != "otro" {
		if kws := keywordsFor(top); len(kws) > 0 {
			concepts = kws
		}
	}

	products := e.searchProducts(ctx, concepts)
	if len(products) == 0 {
		next := State{
			UserID:  st.UserID,
			Stage:   StageDone,
			Context: st.Context.with(ctxPreviousStage, string(StageCustomQuery)),
		}
		return Response{
			Text: "No encontré productos para tu búsqueda en este momento. Puedes explorar el catálogo completo en nuestra tienda en línea. 🛒",
		}, next
	}

	e.analytics.ProductsShown(st.UserID, string(StageCustomQuery), products, goalsFrom(st.Context))
	next := State{
		UserID:  st.UserID,
		Stage:   StagePreLocation,
		Context: st.Context.with(ctxPreviousStage, string(StageCustomQuery)),
	}
	return Response{
		Text:         "Aquí tienes recomendaciones personalizadas:",
		Products:     products,
		FollowupText: "¿Quieres saber en qué farmacia cercana a ti puedes encontrarlos?",
		Options:      []string{"Sí", "No"},
	}, next
}

var affirmatives = map[string]bool{
	"si": true, "claro": true, "ok": true, "vale": true,
	"yes": true, "dale": true, "seguro": true, "quiero": true,
}

func isAffirmative(message string) bool {
	for _, w := range strings.Fields(text.Normalize(message)) {
		if affirmatives[w] {
			return true
		}
	}
	return false
}

func (e *Engine) handlePreLocation(_ context.Context, st State, message string) (Response, State) {
	if isAffirmative(message) {
		next := State{UserID: st.UserID, Stage: StageLocation, Context: st.Context.clone()}
		return Response{
			Text: "¡Perfecto! ¿En qué pueblo te encuentras?",
		}, next
	}

	next := State{
		UserID:  st.UserID,
		Stage:   StageDone,
		Context: st.Context.with(ctxPreviousStage, string(StagePreLocation)),
	}
	return Response{
		Text: "¡Entendido! También puedes comprar directamente en nuestra tienda en línea. 🛒",
	}, next
}

func (e *Engine) handleLocation(ctx context.Context, st State, message string) (Response, State) {
	towns, err := e.pharmacies.Towns(ctx)
	if err != nil || len(towns) == 0 {
		if err != nil {
			e.log.WithError(err).Warn("town directory unavailable, using built-in list")
		}
		towns = append([]string(nil), pharmacy.KnownTowns...)
	}

	pueblo := e.matchTown(ctx, message, towns)
	found, err := e.pharmacies.ByTown(ctx, pueblo)
	if err != nil {
		e.log.WithError(err).WithField("pueblo", pueblo).Warn("pharmacy lookup failed")
		found = nil
	}
	e.analytics.LocationSearched(pueblo, len(found) > 0)

	next := State{
		UserID: st.UserID,
		Stage:  StageDone,
		Context: st.Context.
			with(ctxPueblo, pueblo).
			with(ctxPreviousStage, string(StageLocation)),
	}
	if len(found) == 0 {
		return Response{
			Text: fmt.Sprintf("Lo siento, no encontré farmacias en %s. Puedes comprar directamente en nuestra tienda en línea. 🛒", pueblo),
		}, next
	}
	return Response{
		Text:       fmt.Sprintf("Estas son las farmacias en %s donde puedes encontrar nuestros productos:", pueblo),
		Pharmacies: found,
	}, next
}

// matchTown resolves free text to a known town: exact/substring on the
// normalised forms first, then the classifier over the full vocabulary.
func (e *Engine) matchTown(ctx context.Context, message string, towns []string) string {
	norm := text.Normalize(message)
	for _, t := range towns {
		if tn := text.Normalize(t); tn == norm || strings.Contains(norm, tn) {
			return t
		}
	}
	return e.classify(ctx, message, towns).Top()
}

func (e *Engine) handleOrderHelp(_ context.Context, st State, message string) (Response, State) {
	switch {
	case text.ContainsWord(message, "envio") || text.ContainsWord(message, "devolucion"):
		next := State{
			UserID:  st.UserID,
			Stage:   StageDone,
			Context: st.Context.with(ctxPreviousStage, string(StageOrderHelp)),
		}
		return Response{
			Text:         "📦 Los envíos dentro de Puerto Rico tardan de 3 a 5 días laborables y son gratis en pedidos mayores de $50.",
			FollowupText: "🔄 Aceptamos devoluciones dentro de los 30 días siguientes a la compra, con el producto sin abrir. Escríbenos a soporte@xtravit.com para iniciar una devolución.",
		}, next

	case text.ContainsWord(message, "pago"):
		next := State{
			UserID:  st.UserID,
			Stage:   StageDone,
			Context: st.Context.with(ctxPreviousStage, string(StageOrderHelp)),
		}
		return Response{
			Text: "💳 Aceptamos tarjetas de crédito y débito, ATH Móvil y PayPal.",
		}, next

	case text.ContainsWord(message, "estado") || text.ContainsWord(message, "pedido"):
		next := State{UserID: st.UserID, Stage: StageOrderHelp, Context: st.Context.clone()}
		return Response{
			Text: "Claro, indícame tu número de pedido y lo reviso.",
		}, next
	}

	// Anything else here is assumed to be an order number or detail.
	next := State{
		UserID:  st.UserID,
		Stage:   StageDone,
		Context: st.Context.with(ctxPreviousStage, string(StageOrderHelp)),
	}
	return Response{
		Text: "Gracias. Un asesor revisará tu pedido y te contactará en breve. 📦",
	}, next
}

// handleDone closes the session and loops back to the main menu. Only the
// carry-forward subset of the context survives.
func (e *Engine) handleDone(_ context.Context, st State, _ string) (Response, State) {
	e.analytics.SessionEnded(st.UserID, e.now())

	prev := st.Context.str(ctxPreviousStage)
	next := State{UserID: st.UserID, Stage: StageMainMenu, Context: st.Context.carryForward()}

	if prev == string(StageRecommendation) {
		return Response{
			Text: "¿Te gustaría ver más productos o buscar en otra categoría?",
			Options: []string{
				"Ver más productos",
				"Buscar otra categoría",
				"Volver al menú principal",
			},
		}, next
	}
	return Response{
		Text:    "¿Te puedo ayudar con algo más?",
		Options: MainOptions,
	}, next
}

func goalsFrom(c Context) Goals {
	return Goals{
		HealthGoal:       c.str(ctxHealthGoal),
		MedicalCondition: c.str(ctxMedical),
		Preference:       c.str(ctxPreference),
		Pueblo:           c.str(ctxPueblo),
	}
}

// stopwords are dropped when turning a free-text message into search
// concepts.
var stopwords = map[string]bool{
	"de": true, "la": true, "el": true, "los": true, "las": true,
	"un": true, "una": true, "que": true, "y": true, "o": true,
	"para": true, "con": true, "por": true, "en": true, "mi": true,
	"me": true, "mis": true, "algo": true, "quiero": true, "necesito": true,
	"busco": true, "tengo": true, "sobre": true, "del": true,
}

// queryConcepts extracts the content words of a message for a best-effort
// product search. When everything is a stopword the raw message is used.
func queryConcepts(message string) []string {
	var concepts []string
	for _, w := range strings.Fields(text.Normalize(message)) {
		if !stopwords[w] {
			concepts = append(concepts, w)
		}
	}
	if len(concepts) == 0 {
		return []string{strings.TrimSpace(message)}
	}
	return concepts
}
