package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Question is one step of the questionnaire as shown to respondents.
type Question struct {
	Index       int    `json:"index"`
	Label       string `json:"label"` // short dashboard label, "P1".."P10"
	Title       string `json:"title"`
	Question    string `json:"question"`
	Description string `json:"description"`
}

// CommentPrompt describes the trailing free-text step.
type CommentPrompt struct {
	Title       string `json:"title"`
	Question    string `json:"question"`
	Placeholder string `json:"placeholder"`
}

// Scale describes the Likert scale used by every question.
type Scale struct {
	Min      int    `json:"min"`
	Max      int    `json:"max"`
	MinLabel string `json:"min_label"`
	MaxLabel string `json:"max_label"`
}

// Catalog is the localized questionnaire.
type Catalog struct {
	Language  string        `json:"language"`
	Title     string        `json:"title"`
	Subtitle  string        `json:"subtitle"`
	Questions []Question    `json:"questions"`
	Comment   CommentPrompt `json:"comment"`
	Scale     Scale         `json:"scale"`
}

type localized struct {
	title, subtitle string
	questions       [NumQuestions][3]string // title, question, description
	comment         CommentPrompt
	minLabel        string
	maxLabel        string
}

var catalogs = map[language.Tag]localized{
	language.Spanish: {
		title:    "Encuesta de Satisfacción Laboral",
		subtitle: "Tu opinión nos ayuda a mejorar",
		questions: [NumQuestions][3]string{
			{"Liderazgo y Dirección",
				"¿Qué tan clara y efectiva consideras la dirección y liderazgo de la empresa?",
				"Evalúa la claridad de la visión y la efectividad de la toma de decisiones a nivel directivo."},
			{"Comunicación Interna",
				"¿Qué tan efectiva es la comunicación dentro de los equipos y entre los diferentes departamentos?",
				"Valora la fluidez y claridad de la información compartida en la organización."},
			{"Ambiente Laboral",
				"¿Qué tan satisfecho estás con el ambiente de trabajo y la colaboración entre compañeros?",
				"Evalúa el clima laboral, las relaciones interpersonales y el trabajo en equipo."},
			{"Recursos y Herramientas",
				"¿Qué tan adecuados y accesibles son los recursos y herramientas para realizar tu trabajo?",
				"Valora si cuentas con lo necesario para desempeñar tus funciones eficientemente."},
			{"Capacitación y Desarrollo",
				"¿Qué tan satisfecho estás con las oportunidades de aprendizaje y crecimiento profesional que ofrece la empresa?",
				"Evalúa los programas de formación y las posibilidades de desarrollo de carrera."},
			{"Reconocimiento",
				"¿Qué tan valorado te sientes por tu trabajo y logros dentro de la empresa?",
				"Valora si tus contribuciones son reconocidas y apreciadas adecuadamente."},
			{"Satisfacción del Cliente",
				"Según tu percepción, ¿qué tan bien se prioriza y gestiona la satisfacción del cliente en la empresa?",
				"Evalúa el enfoque de la empresa en la experiencia y satisfacción del cliente."},
			{"Procesos Internos",
				"¿Qué tan claros, eficientes y funcionales consideras los procesos internos de la empresa?",
				"Valora la organización y efectividad de los procedimientos y flujos de trabajo."},
			{"Innovación y Adaptabilidad",
				"¿Qué tan bien fomenta la empresa la innovación y la adaptación a los cambios del mercado?",
				"Evalúa la cultura de innovación y la flexibilidad organizacional frente a nuevos desafíos."},
			{"Satisfacción General",
				"¿Qué tan satisfecho estás, en general, con la empresa como lugar de trabajo?",
				"Valora tu nivel general de satisfacción considerando todos los aspectos de tu experiencia laboral."},
		},
		comment: CommentPrompt{
			Title:       "Sugerencias y Comentarios",
			Question:    "¿Tienes alguna sugerencia o comentario adicional para mejorar tu experiencia en la empresa?",
			Placeholder: "Escribe tus sugerencias aquí...",
		},
		minLabel: "Muy bajo",
		maxLabel: "Excelente",
	},
	language.English: {
		title:    "Workplace Satisfaction Survey",
		subtitle: "Your opinion helps us improve",
		questions: [NumQuestions][3]string{
			{"Leadership and Direction",
				"How clear and effective do you find the company's direction and leadership?",
				"Rate the clarity of the vision and the effectiveness of decision making at management level."},
			{"Internal Communication",
				"How effective is communication within teams and between departments?",
				"Rate how smoothly and clearly information is shared across the organization."},
			{"Work Environment",
				"How satisfied are you with the work environment and collaboration among colleagues?",
				"Rate the workplace climate, interpersonal relationships and teamwork."},
			{"Resources and Tools",
				"How adequate and accessible are the resources and tools you need to do your job?",
				"Rate whether you have what you need to perform your duties efficiently."},
			{"Training and Development",
				"How satisfied are you with the learning and professional growth opportunities the company offers?",
				"Rate the training programs and career development possibilities."},
			{"Recognition",
				"How valued do you feel for your work and achievements within the company?",
				"Rate whether your contributions are properly recognized and appreciated."},
			{"Customer Satisfaction",
				"In your perception, how well does the company prioritize and manage customer satisfaction?",
				"Rate the company's focus on customer experience and satisfaction."},
			{"Internal Processes",
				"How clear, efficient and functional do you find the company's internal processes?",
				"Rate the organization and effectiveness of procedures and workflows."},
			{"Innovation and Adaptability",
				"How well does the company encourage innovation and adaptation to market changes?",
				"Rate the culture of innovation and organizational flexibility when facing new challenges."},
			{"Overall Satisfaction",
				"Overall, how satisfied are you with the company as a place to work?",
				"Rate your overall satisfaction considering every aspect of your work experience."},
		},
		comment: CommentPrompt{
			Title:       "Suggestions and Comments",
			Question:    "Do you have any additional suggestion or comment to improve your experience at the company?",
			Placeholder: "Write your suggestions here...",
		},
		minLabel: "Very low",
		maxLabel: "Excellent",
	},
}

// DefaultLanguage is used when negotiation finds no better match.
var DefaultLanguage = language.Spanish

var matcher = language.NewMatcher([]language.Tag{language.Spanish, language.English})

// NegotiateLanguage picks the catalog language. An explicit tag (e.g. from a
// ?lang= query parameter) wins over the Accept-Language header.
func NegotiateLanguage(acceptLanguage, explicit string) language.Tag {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		if t, err := language.Parse(explicit); err == nil {
			tag, _, _ := matcher.Match(t)
			return base(tag)
		}
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLanguage
	}
	tag, _, _ := matcher.Match(tags...)
	return base(tag)
}

// base strips regional/extension info the matcher may add ("es-u-rg-mxzzzz").
func base(t language.Tag) language.Tag {
	b, _ := t.Base()
	switch b.String() {
	case "en":
		return language.English
	default:
		return language.Spanish
	}
}

// LoadCatalog returns the questionnaire in the given language, falling back
// to DefaultLanguage.
func LoadCatalog(tag language.Tag) Catalog {
	loc, ok := catalogs[base(tag)]
	if !ok {
		loc = catalogs[DefaultLanguage]
		tag = DefaultLanguage
	}
	qs := make([]Question, NumQuestions)
	for i, q := range loc.questions {
		qs[i] = Question{
			Index:       i,
			Label:       QuestionLabel(i),
			Title:       q[0],
			Question:    q[1],
			Description: q[2],
		}
	}
	return Catalog{
		Language:  base(tag).String(),
		Title:     loc.title,
		Subtitle:  loc.subtitle,
		Questions: qs,
		Comment:   loc.comment,
		Scale:     Scale{Min: MinScore, Max: MaxScore, MinLabel: loc.minLabel, MaxLabel: loc.maxLabel},
	}
}

// QuestionLabel returns the short dashboard label for a 0-based index.
func QuestionLabel(i int) string { return fmt.Sprintf("P%d", i+1) }
