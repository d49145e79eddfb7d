package assemble

import (
	"github.com/hanpama/domainql/internal/descriptor"
	"github.com/hanpama/domainql/internal/typemap"
)

// Names carries every generated operation and field name for one domain.
// Naming is a pure, deterministic function of the descriptor and config:
// publishers, resolvers and clients all recompute the same strings.
type Names struct {
	Domain     string // sanitized lower-camel domain id, e.g. "order"
	DomainType string // generated domain type name, e.g. "Order"

	DomainQuery   string // order
	FieldQuery    string // orderField
	PoliciesQuery string // orderPolicies
	ActionsQuery  string // orderActions

	SetFieldMutation string            // setOrderField
	ActionMutations  map[string]string // action id → mutation field name

	ChangedSubscription      string // orderChanged
	FieldChangedSubscription string // orderFieldChanged

	// FieldPaths maps camelCase domain-type field names back to raw paths.
	FieldPaths map[string]string
	// DerivedFields maps derived paths to their domain-type field names.
	DerivedFields map[string]string
	// AsyncFields maps async paths to their domain-type field names.
	AsyncFields map[string]string
}

// NamesFor computes the naming for one descriptor.
func NamesFor(d *descriptor.Descriptor) Names {
	id := typemap.FieldName(d.ID)
	n := Names{
		Domain:                   id,
		DomainType:               typemap.TypeName(d.ID),
		DomainQuery:              id,
		FieldQuery:               id + "Field",
		PoliciesQuery:            id + "Policies",
		ActionsQuery:             id + "Actions",
		SetFieldMutation:         "set" + typemap.TypeName(d.ID) + "Field",
		ActionMutations:          make(map[string]string),
		ChangedSubscription:      id + "Changed",
		FieldChangedSubscription: id + "FieldChanged",
		FieldPaths:               make(map[string]string),
		DerivedFields:            make(map[string]string),
		AsyncFields:              make(map[string]string),
	}
	for _, a := range d.OrderedActions() {
		n.ActionMutations[a.ID] = id + typemap.Capitalize(typemap.FieldName(a.ID))
	}
	for _, f := range d.OrderedDerived() {
		n.DerivedFields[f.Path] = typemap.FieldName(f.Path)
	}
	for _, f := range d.OrderedAsync() {
		n.AsyncFields[f.Path] = typemap.FieldName(f.Path)
	}
	return n
}
