package form

import (
	"fmt"

	"github.com/use-agent/regbot/models"
)

// Action is what the processor does with an element once a strategy finds it.
type Action int

const (
	// ActionFill clears the element and types the value.
	ActionFill Action = iota
	// ActionSelect picks the dropdown option whose visible text is the value.
	ActionSelect
	// ActionClick clicks the element (radio, checkbox, button).
	ActionClick
)

func (a Action) String() string {
	switch a {
	case ActionFill:
		return "fill"
	case ActionSelect:
		return "select"
	case ActionClick:
		return "click"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Strategy is one way of locating a field on the page.
type Strategy struct {
	// Name identifies the strategy in logs and tests.
	Name string

	// Action is applied to the element the strategy finds.
	Action Action

	// Query builds the lookup for the record value being entered.
	Query func(value string) Query
}

// FieldSpec is the static lookup configuration for one logical field.
// Strategies are tried strictly in slice order.
type FieldSpec struct {
	// Name is the logical field name, also the record key holding the value.
	Name string

	// Required fields fail the record when no strategy matches.
	Required bool

	Strategies []Strategy
}

// Names returns the strategy names in try order.
func (f FieldSpec) Names() []string {
	out := make([]string, len(f.Strategies))
	for i, s := range f.Strategies {
		out[i] = s.Name
	}
	return out
}

// PhoneCandidates are the name attributes tried for the phone field, in order.
var PhoneCandidates = []string{"phone", "phone_number", "telephone", "mobile"}

// byNames returns one fill strategy per candidate name attribute.
func byNames(names ...string) []Strategy {
	out := make([]Strategy, 0, len(names))
	for _, n := range names {
		q := ByName(n)
		out = append(out, Strategy{
			Name:   "name=" + n,
			Action: ActionFill,
			Query:  func(string) Query { return q },
		})
	}
	return out
}

// fixed returns a strategy whose query does not depend on the value.
func fixed(name string, action Action, q Query) Strategy {
	return Strategy{Name: name, Action: action, Query: func(string) Query { return q }}
}

// DefaultFields returns the field specs in fill order: name, email, phone, event.
func DefaultFields() []FieldSpec {
	return []FieldSpec{
		{
			Name:       models.KeyName,
			Required:   true,
			Strategies: byNames("name", "full_name", "fullname"),
		},
		{
			Name:     models.KeyEmail,
			Required: true,
			Strategies: append(byNames("email", "email_address"),
				fixed("type=email", ActionFill, Query{Selector: `input[type="email"]`}),
			),
		},
		{
			Name: models.KeyPhone,
			Strategies: append(byNames(PhoneCandidates...),
				fixed("type=tel", ActionFill, Query{Selector: `input[type="tel"]`}),
			),
		},
		EventField(),
	}
}

// EventField resolves the event either as a dropdown, selected by visible
// text, or as a radio/checkbox whose value or id equals the event.
func EventField() FieldSpec {
	return FieldSpec{
		Name: models.KeyEvent,
		Strategies: []Strategy{
			fixed("dropdown", ActionSelect, Query{Selector: `select[name="event"]`}),
			{
				Name:   "option",
				Action: ActionClick,
				Query: func(v string) Query {
					quoted := cssString(v)
					return Query{Selector: fmt.Sprintf(`input[value=%s], input[id=%s]`, quoted, quoted)}
				},
			},
		},
	}
}

// SubmitSpec lists the submit-control lookups in try order.
func SubmitSpec() FieldSpec {
	return FieldSpec{
		Name:     "submit",
		Required: true,
		Strategies: []Strategy{
			fixed("type=submit", ActionClick, Query{Selector: `[type="submit"]`}),
			fixed("button-text", ActionClick, Query{Selector: "button", Text: "Submit"}),
			fixed("input-value", ActionClick, Query{Selector: `input[value="Submit"]`}),
			fixed("class", ActionClick, Query{Selector: `[class*="submit"]`}),
		},
	}
}
