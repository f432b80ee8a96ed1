// Package response renders everything the user sees: Spanish prompts and
// button menus. Button values are namespaced ("cat:", "sub:", "org:", ...)
// so the orchestrator can route a press without guessing.
package response

import (
	"fmt"

	"docvault-be/internal/entity"
	"docvault-be/pkg/dialogue/catalog"
)

// Button value namespaces.
const (
	PrefixCategory     = "cat:"
	PrefixSubtype      = "sub:"
	PrefixOrganization = "org:"
	PrefixPeriod       = "period:"
	PrefixDocument     = "doc:"
	PrefixAction       = "action:"
)

// Action button values.
const (
	ActionConfirmPeriod = "action:confirm_period"
	ActionRejectPeriod  = "action:reject_period"
	ActionOtherPeriod   = "period:otro"
	ActionRetryPeriod   = "action:retry_period"
	ActionCancel        = "action:cancel"
)

// Button is one option the client renders. Buttons sharing a Row sit side
// by side; menus lay out two per row.
type Button struct {
	Label string
	Value string
	Row   int
}

func twoColumns(buttons []Button) []Button {
	for i := range buttons {
		buttons[i].Row = i / 2
	}
	return buttons
}

func withCancel(buttons []Button) []Button {
	row := 0
	if len(buttons) > 0 {
		row = buttons[len(buttons)-1].Row + 1
	}
	return append(buttons, Button{Label: "Cancelar", Value: ActionCancel, Row: row})
}

// CategoryMenu lists the catalog categories.
func CategoryMenu() []Button {
	var buttons []Button
	for _, c := range catalog.Categories() {
		buttons = append(buttons, Button{Label: c.Label, Value: PrefixCategory + c.Key})
	}
	return withCancel(twoColumns(buttons))
}

// SubtypeMenu lists the subtypes of a category.
func SubtypeMenu(categoryKey string) []Button {
	var buttons []Button
	for _, s := range catalog.Subtypes(categoryKey) {
		buttons = append(buttons, Button{Label: s.Label, Value: PrefixSubtype + s.Key})
	}
	return withCancel(twoColumns(buttons))
}

// PeriodMenu offers the two relative shortcuts plus free-text entry.
func PeriodMenu() []Button {
	buttons := []Button{
		{Label: "Este mes", Value: PrefixPeriod + "este_mes"},
		{Label: "Mes anterior", Value: PrefixPeriod + "mes_anterior"},
		{Label: "Otro periodo", Value: ActionOtherPeriod},
	}
	return withCancel(twoColumns(buttons))
}

// OrganizationMenu lists the organizations a party may pick.
func OrganizationMenu(orgs []*entity.Organization) []Button {
	var buttons []Button
	for _, o := range orgs {
		buttons = append(buttons, Button{Label: o.Name, Value: PrefixOrganization + o.Id.String()})
	}
	return withCancel(twoColumns(buttons))
}

// ConfirmPeriodMenu is the yes/no pair under a period confirmation.
func ConfirmPeriodMenu() []Button {
	return twoColumns([]Button{
		{Label: "Sí, correcto", Value: ActionConfirmPeriod},
		{Label: "No, otro periodo", Value: ActionRejectPeriod},
	})
}

// SelectionMenu lists matched documents one per row; ten is the most a
// client keyboard fits comfortably.
func SelectionMenu(docs []*entity.Document) []Button {
	var buttons []Button
	for i, d := range docs {
		label := fmt.Sprintf("%s (%s)", d.DisplayName, d.Period)
		buttons = append(buttons, Button{Label: label, Value: PrefixDocument + d.Id.String(), Row: i})
	}
	if len(buttons) > 0 {
		buttons = append(buttons, Button{Label: "Cancelar", Value: ActionCancel, Row: len(docs)})
	}
	return buttons
}

// RetryPeriodMenu follows an empty search result.
func RetryPeriodMenu() []Button {
	return twoColumns([]Button{
		{Label: "Probar otro periodo", Value: ActionRetryPeriod},
		{Label: "Cancelar", Value: ActionCancel},
	})
}

// Prompts

func AskCategory() string {
	return "¿Qué tipo de documento necesitas?"
}

func AskCategoryUpload() string {
	return "Recibí tu archivo. ¿A qué tipo de documento corresponde?"
}

func AskSubtype(categoryKey string) string {
	return fmt.Sprintf("¿Qué documento de la categoría %s?", catalog.CategoryLabel(categoryKey))
}

func AskPeriod() string {
	return "¿De qué periodo lo necesitas?"
}

func AskPeriodText() string {
	return "Escríbeme el periodo, por ejemplo \"julio 2026\" o \"2026-07\"."
}

func AskPeriodRetry() string {
	return "No entendí el periodo. Escríbelo de nuevo, por ejemplo \"julio 2026\" o \"2026-07\"."
}

func ConfirmPeriod(interpretation string) string {
	return fmt.Sprintf("Entendí el periodo como %s. ¿Es correcto?", interpretation)
}

func AskOrganization() string {
	return "¿Para qué empresa?"
}

func AskDescription() string {
	return "Para guardarlo en \"Otros\" necesito una breve descripción del documento."
}

func NoAccess() string {
	return "No tienes acceso a ninguna empresa. Contacta a tu administrador."
}

func AccessDenied() string {
	return "No puedes acceder a documentos de esa empresa en esta conversación."
}

func NoResults(period string) string {
	return fmt.Sprintf("No encontré documentos para el periodo %s. ¿Quieres probar con otro periodo?", period)
}

func Delivered(doc *entity.Document, url string) string {
	return fmt.Sprintf("Aquí está tu documento: %s (%s)\n%s", doc.DisplayName, doc.Period, url)
}

func SelectOne(total, shown int) string {
	if total > shown {
		return fmt.Sprintf("Encontré %d documentos; te muestro los %d más recientes. ¿Cuál necesitas?", total, shown)
	}
	return fmt.Sprintf("Encontré %d documentos. ¿Cuál necesitas?", total)
}

func UploadStored(doc *entity.Document) string {
	return fmt.Sprintf("Listo, guardé %s en %s / %s para el periodo %s.",
		doc.DisplayName,
		catalog.CategoryLabel(doc.Category),
		catalog.SubtypeLabel(doc.Category, doc.Subtype),
		doc.Period)
}

func SessionExpired() string {
	return "La conversación expiró. Escríbeme de nuevo qué documento necesitas."
}

func Cancelled() string {
	return "Conversación cancelada. Escríbeme cuando necesites otro documento."
}

func Busy() string {
	return "Estoy procesando tu mensaje anterior, dame un segundo."
}

func TransientFailure() string {
	return "Tuve un problema al buscar tus documentos. Intenta de nuevo en un momento."
}

func DontUnderstand() string {
	return "No entendí tu mensaje. Dime qué documento necesitas o usa los botones."
}
