package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/boddenberg/cobranza-assistant-bfa-go/internal/domain"
	wdomain "github.com/boddenberg/cobranza-assistant-bfa-go/internal/wizard/domain"
)

// Textos exibidos ao operador.
const (
	msgGreeting   = "Hola, soy tu Agente de Cobranza. ¿Qué quieres hacer con clientes?"
	msgActions    = "Acciones disponibles:"
	msgCancelled  = "Operación cancelada."
	msgUseButtons = "Estoy esperando que selecciones una opción de las disponibles aquí abajo."
	msgBlankEcho  = "(en blanco)"

	msgUnknownCustomer = "Cliente no encontrado en la lista actual. Selecciona uno de los disponibles."

	msgCreateStart       = "Vamos a crear un cliente. ¿Cuál es el nombre?"
	msgCreateAskEmail    = "Gracias. Ahora, correo electrónico:"
	msgCreateAskPhone    = "Perfecto. Teléfono (puede ser con +57, +52, etc.):"
	msgNameRequired      = "El nombre es obligatorio. Ingresa un nombre."
	msgEmailInvalid      = "Email inválido. Ingresa un correo válido."
	msgPhoneRequired     = "El teléfono es obligatorio en este flujo. Ingresa un teléfono."
	msgPhoneRequiredEdit = "El teléfono es obligatorio en edición. Ingresa un teléfono."
	msgCreateCancelled   = "Creación cancelada. ¿Qué más quieres hacer?"
	msgCreated           = "✅ Cliente creado correctamente."

	msgNoCustomersToEdit = "No hay clientes para editar."
	msgSelectToEdit      = "Selecciona el cliente a editar:"
	msgEditCancelled     = "Edición cancelada. ¿Qué más quieres hacer?"
	msgUpdated           = "✅ Cliente actualizado correctamente."

	msgNoCustomersToDelete = "No hay clientes para eliminar."
	msgSelectToDelete      = "Selecciona el cliente a eliminar:"
	msgDeleteCancelled     = "Eliminación cancelada. ¿Qué más quieres hacer?"
	msgDeleted             = "🗑️ Cliente eliminado."

	msgNoCustomers = "No hay clientes registrados."

	msgNoCustomersToDecide = "No hay clientes para evaluar."
	msgSelectToDecide      = "Selecciona el cliente para la decisión de cobranza:"
	msgAskSegmento         = "Segmento del cliente (ej. vip, consumo, pyme):"
	msgAskAmount           = "Monto adeudado:"
	msgAskDPD              = "Días de atraso (DPD):"
	msgAskProp             = "Propensión de pago (0 a 1):"
	msgAskCurrency         = "Moneda (deja en blanco para MXN):"
	msgAskChannel          = "Canal de contacto (opcional, deja en blanco para omitir):"
	msgSegmentoRequired    = "El segmento es obligatorio. Ingresa un segmento."
	msgAmountInvalid       = "Monto inválido. Ingresa un número."
	msgDPDInvalid          = "DPD inválido. Ingresa un número entero mayor o igual a 0."
	msgPropInvalid         = "Propensión inválida. Ingresa un número entre 0 y 1."
	msgDecisionCancelled   = "Solicitud de decisión cancelada. ¿Qué más quieres hacer?"
	msgNoSpeech            = "Decisión generada (sin guion disponible)."
	msgDecisionFinalized   = "Decisión finalizada. ¿Qué más quieres hacer?"

	// placeholder exibido para campos opcionais vazios
	dash = "—"

	// maxListed limita a listagem; a contagem total é sempre informada.
	maxListed = 10
)

func echoText(text string) string {
	if strings.TrimSpace(text) == "" {
		return msgBlankEcho
	}
	return strings.TrimSpace(text)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return dash
	}
	return s
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func createPreview(d wdomain.DraftCustomer) []string {
	return []string{
		"Confirma creación:",
		"- Nombre: " + d.Name,
		"- Email: " + d.Email,
		"- Teléfono: " + d.Phone,
		"¿Confirmar creación?",
	}
}

func editPreview(name string, d wdomain.DraftCustomer) []string {
	return []string{
		fmt.Sprintf("Confirma edición para %s:", orDash(name)),
		"- Nombre: " + d.Name,
		"- Email: " + d.Email,
		"- Teléfono: " + d.Phone,
		"¿Guardar cambios?",
	}
}

func decisionPreview(name string, c wdomain.DecisionContext) []string {
	return []string{
		fmt.Sprintf("Confirma solicitud de decisión para %s:", orDash(name)),
		"- Segmento: " + c.Segmento,
		"- Monto adeudado: " + formatNumber(c.AmountDue),
		"- DPD: " + strconv.Itoa(c.DPD),
		"- Propensión de pago: " + formatNumber(c.PropensionPago),
		"- Moneda: " + c.Currency,
		"- Canal: " + orDash(c.Channel),
		"¿Solicitar decisión?",
	}
}

func listLines(customers []domain.Customer) []string {
	lines := []string{fmt.Sprintf("Hay %d clientes.", len(customers))}
	for i, c := range customers {
		if i == maxListed {
			lines = append(lines, "…")
			break
		}
		line := fmt.Sprintf("• %s – %s", c.Name, c.Email)
		if c.Phone != "" {
			line += " – " + c.Phone
		}
		lines = append(lines, line)
	}
	return lines
}

func routeLines(route *domain.PaymentRoute, req *domain.RouteRequest) []string {
	method := route.Method
	if method == "" {
		method = req.PaymentMethod
	}
	amount, currency := route.Amount, route.Currency
	if amount == 0 {
		amount = req.Amount
	}
	if currency == "" {
		currency = req.Currency
	}

	lines := []string{
		"✅ Ruta de pago confirmada:",
		"- Método: " + method,
		"- Destino: " + orDash(route.RoutedTo),
		fmt.Sprintf("- Monto: %s %s", formatNumber(amount), currency),
	}
	if len(route.Steps) > 0 {
		lines = append(lines, "Pasos:")
		for i, step := range route.Steps {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, step))
		}
	}
	return lines
}

// ============================================================
// Barra de ações e linha de status
// ============================================================

func confirmAction(label string, ok bool) wdomain.Action {
	return wdomain.Action{Event: wdomain.EventConfirm, Label: label, Confirm: &ok}
}

var (
	cancelAction = wdomain.Action{Event: wdomain.EventCancel, Label: "Cancelar"}
	backAction   = wdomain.Action{Event: wdomain.EventCancel, Label: "⬅️ Volver"}
)

// actionsFor devolve os botões de cada modo.
func actionsFor(mode wdomain.Mode) []wdomain.Action {
	switch {
	case mode == wdomain.ModeIdle || mode == wdomain.ModeListDone:
		return []wdomain.Action{
			{Event: wdomain.EventStartCreate, Label: "➕ Crear"},
			{Event: wdomain.EventStartEdit, Label: "✏️ Editar"},
			{Event: wdomain.EventStartDelete, Label: "🗑️ Eliminar"},
			{Event: wdomain.EventStartList, Label: "📋 Listar"},
			{Event: wdomain.EventStartDecision, Label: "🤝 Decisión de cobranza"},
		}
	case mode == wdomain.ModeCreateConfirm:
		return []wdomain.Action{confirmAction("✅ Confirmar", true), confirmAction("Cancelar", false)}
	case mode == wdomain.ModeEditConfirm:
		return []wdomain.Action{confirmAction("💾 Guardar", true), confirmAction("Cancelar", false)}
	case mode == wdomain.ModeDeleteConfirm:
		return []wdomain.Action{confirmAction("Eliminar", true), confirmAction("Cancelar", false)}
	case mode == wdomain.ModeDecisionConfirm:
		return []wdomain.Action{confirmAction("✅ Solicitar decisión", true), confirmAction("Cancelar", false)}
	case mode == wdomain.ModeDecisionResult:
		return []wdomain.Action{
			{Event: wdomain.EventProceedRoute, Label: "💳 Confirmar ruta de pago"},
			{Event: wdomain.EventFinalize, Label: "Finalizar"},
		}
	case mode.IsSelect():
		return []wdomain.Action{{Event: wdomain.EventSelectCustomer, Label: "Seleccionar"}, backAction}
	case mode.IsTextCapture():
		return []wdomain.Action{cancelAction}
	}
	return nil
}

// statusLine resume o rascunho do fluxo ativo. Chamado com o lock do wizard já tomado.
func statusLine(st state, customers []domain.Customer) string {
	nameOf := func(id string) string {
		for _, c := range customers {
			if c.ID == id {
				return c.Name
			}
		}
		return ""
	}

	switch s := st.(type) {
	case createState:
		parts := draftParts(s.draft, "Nombre", "Email", "Tel")
		return strings.TrimSpace("Creando cliente… " + strings.Join(parts, " · "))
	case editState:
		if s.step == wdomain.ModeEditSelect {
			return "Editando: " + dash
		}
		// o rascunho de edição nasce com os valores atuais; só os reescritos aparecem
		var parts []string
		switch s.step {
		case wdomain.ModeEditConfirm:
			parts = draftParts(s.draft, "nombre", "email", "tel")
		case wdomain.ModeEditPhone:
			parts = draftParts(wdomain.DraftCustomer{Name: s.draft.Name, Email: s.draft.Email}, "nombre", "email", "tel")
		case wdomain.ModeEditEmail:
			parts = draftParts(wdomain.DraftCustomer{Name: s.draft.Name}, "nombre", "email", "tel")
		}
		line := "Editando: " + orDash(nameOf(s.selectedID))
		if len(parts) > 0 {
			line += " → " + strings.Join(parts, " · ")
		}
		return line
	case decisionState:
		if s.selectedID == "" {
			return ""
		}
		parts := []string{"Decisión para: " + orDash(nameOf(s.selectedID))}
		if s.ctx.Segmento != "" {
			parts = append(parts, "segmento: "+s.ctx.Segmento)
		}
		return strings.Join(parts, " · ")
	}
	return ""
}

func draftParts(d wdomain.DraftCustomer, nameLabel, emailLabel, phoneLabel string) []string {
	var parts []string
	if d.Name != "" {
		parts = append(parts, nameLabel+": "+d.Name)
	}
	if d.Email != "" {
		parts = append(parts, emailLabel+": "+d.Email)
	}
	if d.Phone != "" {
		parts = append(parts, phoneLabel+": "+d.Phone)
	}
	return parts
}
