package assemble

import "github.com/hanpama/domainql/internal/schema"

// Shared response types: a fixed library reused by every generated domain
// schema. Built fresh per assembly so that one schema's instances are never
// aliased into another's.

func buildSharedTypes() []*schema.Type {
	mutationError := schema.NewType("MutationError", schema.TypeKindObject,
		"One typed failure returned inside a mutation result envelope.").
		AddField(schema.NewField("code", "", schema.NonNullType(schema.NamedType(schema.ScalarString)))).
		AddField(schema.NewField("message", "", schema.NonNullType(schema.NamedType(schema.ScalarString)))).
		AddField(schema.NewField("path", "", schema.NamedType(schema.ScalarString)))

	fieldMeta := schema.NewType("FieldMeta", schema.TypeKindObject,
		"Semantic metadata attached to a field.").
		AddField(schema.NewField("kind", "", schema.NamedType(schema.ScalarString))).
		AddField(schema.NewField("description", "", schema.NamedType(schema.ScalarString))).
		AddField(schema.NewField("importance", "", schema.NamedType(schema.ScalarString)))

	validationResult := schema.NewType("ValidationResult", schema.TypeKindObject,
		"Outcome of validating one field value.").
		AddField(schema.NewField("valid", "", schema.NonNullType(schema.NamedType(schema.ScalarBoolean)))).
		AddField(schema.NewField("errors", "", schema.NonNullType(schema.ListType(schema.NonNullType(schema.NamedType("MutationError"))))))

	fieldPolicy := schema.NewType("FieldPolicy", schema.TypeKindObject,
		"Resolved access policy for one field path.").
		AddField(schema.NewField("path", "", schema.NonNullType(schema.NamedType(schema.ScalarString)))).
		AddField(schema.NewField("editable", "", schema.NonNullType(schema.NamedType(schema.ScalarBoolean)))).
		AddField(schema.NewField("required", "", schema.NonNullType(schema.NamedType(schema.ScalarBoolean)))).
		AddField(schema.NewField("visible", "", schema.NonNullType(schema.NamedType(schema.ScalarBoolean))))

	fieldValue := schema.NewType("FieldValue", schema.TypeKindObject,
		"Envelope carrying one field's value, metadata, validity and policy.").
		AddField(schema.NewField("path", "", schema.NonNullType(schema.NamedType(schema.ScalarString)))).
		AddField(schema.NewField("value", "", schema.NamedType(schema.ScalarJSON))).
		AddField(schema.NewField("meta", "", schema.NamedType("FieldMeta"))).
		AddField(schema.NewField("validation", "", schema.NonNullType(schema.NamedType("ValidationResult")))).
		AddField(schema.NewField("policy", "", schema.NonNullType(schema.NamedType("FieldPolicy"))))

	actionInfo := schema.NewType("ActionInfo", schema.TypeKindObject,
		"One invocable action and whether its preconditions currently hold.").
		AddField(schema.NewField("id", "", schema.NonNullType(schema.NamedType(schema.ScalarString)))).
		AddField(schema.NewField("verb", "", schema.NamedType(schema.ScalarString))).
		AddField(schema.NewField("description", "", schema.NamedType(schema.ScalarString))).
		AddField(schema.NewField("allowed", "", schema.NonNullType(schema.NamedType(schema.ScalarBoolean)))).
		AddField(schema.NewField("reasons", "", schema.NonNullType(schema.ListType(schema.NonNullType(schema.NamedType(schema.ScalarString))))))

	appliedEffect := schema.NewType("AppliedEffect", schema.TypeKindObject,
		"One effect that was carried out while executing an action.").
		AddField(schema.NewField("kind", "", schema.NonNullType(schema.NamedType(schema.ScalarString)))).
		AddField(schema.NewField("path", "", schema.NamedType(schema.ScalarString))).
		AddField(schema.NewField("value", "", schema.NamedType(schema.ScalarJSON))).
		AddField(schema.NewField("description", "", schema.NamedType(schema.ScalarString)))

	actionResult := schema.NewType("ActionResult", schema.TypeKindObject,
		"Uniform envelope returned by every action mutation.").
		AddField(schema.NewField("success", "", schema.NonNullType(schema.NamedType(schema.ScalarBoolean)))).
		AddField(schema.NewField("errors", "", schema.ListType(schema.NonNullType(schema.NamedType("MutationError"))))).
		AddField(schema.NewField("effects", "", schema.ListType(schema.NonNullType(schema.NamedType("AppliedEffect")))))

	setFieldResult := schema.NewType("SetFieldResult", schema.TypeKindObject,
		"Envelope returned by the set-field mutation.").
		AddField(schema.NewField("success", "", schema.NonNullType(schema.NamedType(schema.ScalarBoolean)))).
		AddField(schema.NewField("path", "", schema.NonNullType(schema.NamedType(schema.ScalarString)))).
		AddField(schema.NewField("previousValue", "", schema.NamedType(schema.ScalarJSON))).
		AddField(schema.NewField("newValue", "", schema.NamedType(schema.ScalarJSON))).
		AddField(schema.NewField("errors", "", schema.ListType(schema.NonNullType(schema.NamedType("MutationError")))))

	changeEvent := schema.NewType("ChangeEvent", schema.TypeKindObject,
		"Published when anything about a domain instance changes.").
		AddField(schema.NewField("domainId", "", schema.NonNullType(schema.NamedType(schema.ScalarString)))).
		AddField(schema.NewField("kind", "", schema.NonNullType(schema.NamedType(schema.ScalarString)))).
		AddField(schema.NewField("path", "", schema.NamedType(schema.ScalarString))).
		AddField(schema.NewField("action", "", schema.NamedType(schema.ScalarString))).
		AddField(schema.NewField("at", "", schema.NonNullType(schema.NamedType(schema.ScalarDateTime))))

	fieldChangeEvent := schema.NewType("FieldChangeEvent", schema.TypeKindObject,
		"Published when one field of a domain instance changes.").
		AddField(schema.NewField("domainId", "", schema.NonNullType(schema.NamedType(schema.ScalarString)))).
		AddField(schema.NewField("path", "", schema.NonNullType(schema.NamedType(schema.ScalarString)))).
		AddField(schema.NewField("previousValue", "", schema.NamedType(schema.ScalarJSON))).
		AddField(schema.NewField("newValue", "", schema.NamedType(schema.ScalarJSON))).
		AddField(schema.NewField("at", "", schema.NonNullType(schema.NamedType(schema.ScalarDateTime))))

	return []*schema.Type{
		mutationError, fieldMeta, validationResult, fieldPolicy, fieldValue,
		actionInfo, appliedEffect, actionResult, setFieldResult,
		changeEvent, fieldChangeEvent,
	}
}

// Global directives: declarative metadata carriers, never enforced here.
func buildDirectives() []*schema.Directive {
	meta := schema.NewDirective("meta",
		"Attaches semantic metadata to a field.").
		AddLocations("FIELD_DEFINITION")
	meta.AddArgument(schema.NewInputValue("kind", "", schema.NamedType(schema.ScalarString)))
	meta.AddArgument(schema.NewInputValue("description", "", schema.NamedType(schema.ScalarString)))
	meta.AddArgument(schema.NewInputValue("importance", "", schema.NamedType(schema.ScalarString)))

	policy := schema.NewDirective("policy",
		"Attaches access-policy metadata to a field.").
		AddLocations("FIELD_DEFINITION")
	policy.AddArgument(schema.NewInputValue("editable", "", schema.NamedType(schema.ScalarBoolean)))
	policy.AddArgument(schema.NewInputValue("required", "", schema.NamedType(schema.ScalarBoolean)))
	policy.AddArgument(schema.NewInputValue("visible", "", schema.NamedType(schema.ScalarBoolean)))

	return []*schema.Directive{meta, policy}
}
