package descriptor

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads and decodes a descriptor from a YAML file, then validates it.
func LoadFile(path string) (*Descriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("descriptor: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a descriptor from YAML bytes, then validates it. Decoding is
// explicit per kind: an unknown node or effect kind is rejected at the
// boundary rather than carried forward as an opaque blob.
func Parse(raw []byte) (*Descriptor, error) {
	var doc descriptorDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("descriptor: decode: %w", err)
	}
	d, err := doc.convert()
	if err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

type descriptorDoc struct {
	ID                 string                 `yaml:"id"`
	Name               string                 `yaml:"name"`
	Description        string                 `yaml:"description"`
	Data               *nodeDoc               `yaml:"data"`
	State              *nodeDoc               `yaml:"state"`
	Derived            map[string]*derivedDoc `yaml:"derived"`
	Async              map[string]*asyncDoc   `yaml:"async"`
	Actions            map[string]*actionDoc  `yaml:"actions"`
	AllowFieldOverride bool                   `yaml:"allowFieldOverride"`
}

type nodeDoc struct {
	Kind        string     `yaml:"kind"`
	Integer     bool       `yaml:"integer"`
	Values      []string   `yaml:"values"`
	Pairs       []pairDoc  `yaml:"pairs"`
	Elem        *nodeDoc   `yaml:"elem"`
	Fields      []fieldDoc `yaml:"fields"`
	Options     []*nodeDoc `yaml:"options"`
	Value       any        `yaml:"value"`
	Default     any        `yaml:"default"`
	Description string     `yaml:"description"`
}

type fieldDoc struct {
	Name        string   `yaml:"name"`
	Node        *nodeDoc `yaml:"node"`
	Description string   `yaml:"description"`
}

type pairDoc struct {
	Name  string `yaml:"name"`
	Value any    `yaml:"value"`
}

type derivedDoc struct {
	Node        *nodeDoc `yaml:"node"`
	Description string   `yaml:"description"`
}

type asyncDoc struct {
	Loader      string `yaml:"loader"`
	Description string `yaml:"description"`
}

type actionDoc struct {
	Verb          string         `yaml:"verb"`
	Description   string         `yaml:"description"`
	Preconditions []conditionDoc `yaml:"preconditions"`
	Effect        *effectDoc     `yaml:"effect"`
	Input         *nodeDoc       `yaml:"input"`
}

type conditionDoc struct {
	Path        string `yaml:"path"`
	Expect      any    `yaml:"expect"`
	Description string `yaml:"description"`
}

type effectDoc struct {
	Kind        string        `yaml:"kind"`
	Path        string        `yaml:"path"`
	Value       any           `yaml:"value"`
	FromInput   string        `yaml:"fromInput"`
	Children    []*effectDoc  `yaml:"children"`
	Condition   *conditionDoc `yaml:"condition"`
	Then        *effectDoc    `yaml:"then"`
	Else        *effectDoc    `yaml:"else"`
	Handler     string        `yaml:"handler"`
	Description string        `yaml:"description"`
}

func (doc *descriptorDoc) convert() (*Descriptor, error) {
	d := &Descriptor{
		ID:                 doc.ID,
		Name:               doc.Name,
		Description:        doc.Description,
		AllowFieldOverride: doc.AllowFieldOverride,
	}
	var err error
	if doc.Data != nil {
		if d.Data, err = doc.Data.convert("data"); err != nil {
			return nil, err
		}
	}
	if doc.State != nil {
		if d.State, err = doc.State.convert("state"); err != nil {
			return nil, err
		}
	}
	if len(doc.Derived) > 0 {
		d.Derived = make(map[string]*DerivedField, len(doc.Derived))
		for path, dd := range doc.Derived {
			f := &DerivedField{Path: path, Description: dd.Description}
			if dd.Node != nil {
				if f.Node, err = dd.Node.convert("derived." + path); err != nil {
					return nil, err
				}
			}
			d.Derived[path] = f
		}
	}
	if len(doc.Async) > 0 {
		d.Async = make(map[string]*AsyncField, len(doc.Async))
		for path, ad := range doc.Async {
			d.Async[path] = &AsyncField{Path: path, Loader: ad.Loader, Description: ad.Description}
		}
	}
	if len(doc.Actions) > 0 {
		d.Actions = make(map[string]*Action, len(doc.Actions))
		for id, ad := range doc.Actions {
			a := &Action{ID: id, Verb: ad.Verb, Description: ad.Description}
			for _, c := range ad.Preconditions {
				a.Preconditions = append(a.Preconditions, ConditionRef{Path: c.Path, Expect: c.Expect, Description: c.Description})
			}
			if ad.Effect != nil {
				if a.Effect, err = ad.Effect.convert("actions." + id + ".effect"); err != nil {
					return nil, err
				}
			}
			if ad.Input != nil {
				if a.Input, err = ad.Input.convert("actions." + id + ".input"); err != nil {
					return nil, err
				}
			}
			d.Actions[id] = a
		}
	}
	return d, nil
}

func (doc *nodeDoc) convert(at string) (*Node, error) {
	n := &Node{Description: doc.Description}
	switch strings.ToLower(doc.Kind) {
	case "string":
		n.Kind = KindString
	case "number", "float":
		n.Kind = KindNumber
	case "int", "integer":
		n.Kind = KindNumber
		n.Integer = true
	case "boolean", "bool":
		n.Kind = KindBoolean
	case "date":
		n.Kind = KindDate
	case "enum":
		n.Kind = KindEnum
		n.Values = doc.Values
	case "nativeenum", "native_enum":
		n.Kind = KindNativeEnum
		for _, p := range doc.Pairs {
			n.Pairs = append(n.Pairs, EnumPair{Name: p.Name, Value: p.Value})
		}
	case "array":
		n.Kind = KindArray
	case "object":
		n.Kind = KindObject
		for i, f := range doc.Fields {
			if f.Node == nil {
				return nil, fmt.Errorf("descriptor: %s.%s: missing node", at, f.Name)
			}
			inner, err := f.Node.convert(at + "." + f.Name)
			if err != nil {
				return nil, err
			}
			n.Fields = append(n.Fields, &FieldNode{Name: f.Name, Node: inner, Description: f.Description, Index: i})
		}
	case "union":
		n.Kind = KindUnion
		for i, opt := range doc.Options {
			inner, err := opt.convert(fmt.Sprintf("%s.options[%d]", at, i))
			if err != nil {
				return nil, err
			}
			n.Options = append(n.Options, inner)
		}
	case "literal":
		n.Kind = KindLiteral
		n.Value = doc.Value
	case "optional":
		n.Kind = KindOptional
	case "nullable":
		n.Kind = KindNullable
	case "default":
		n.Kind = KindDefault
		n.Default = doc.Default
	case "record":
		n.Kind = KindRecord
	case "any", "unknown":
		n.Kind = KindAny
	default:
		return nil, fmt.Errorf("descriptor: %s: unknown node kind %q", at, doc.Kind)
	}

	switch n.Kind {
	case KindArray, KindRecord, KindOptional, KindNullable, KindDefault:
		if doc.Elem == nil {
			return nil, fmt.Errorf("descriptor: %s: %s requires elem", at, n.Kind)
		}
		inner, err := doc.Elem.convert(at + ".elem")
		if err != nil {
			return nil, err
		}
		n.Elem = inner
	}
	return n, nil
}

func (doc *effectDoc) convert(at string) (*Effect, error) {
	e := &Effect{Description: doc.Description}
	switch strings.ToLower(doc.Kind) {
	case "set":
		e.Kind = EffectSet
		e.Path = doc.Path
		e.Value = doc.Value
		e.FromInput = doc.FromInput
	case "sequence", "seq":
		e.Kind = EffectSequence
	case "parallel", "par":
		e.Kind = EffectParallel
	case "conditional", "if":
		e.Kind = EffectConditional
		if doc.Condition != nil {
			e.Condition = &ConditionRef{Path: doc.Condition.Path, Expect: doc.Condition.Expect, Description: doc.Condition.Description}
		}
	case "custom":
		e.Kind = EffectCustom
		e.Handler = doc.Handler
	default:
		return nil, fmt.Errorf("descriptor: %s: unknown effect kind %q", at, doc.Kind)
	}

	for i, c := range doc.Children {
		child, err := c.convert(fmt.Sprintf("%s.children[%d]", at, i))
		if err != nil {
			return nil, err
		}
		e.Children = append(e.Children, child)
	}
	if doc.Then != nil {
		then, err := doc.Then.convert(at + ".then")
		if err != nil {
			return nil, err
		}
		e.Then = then
	}
	if doc.Else != nil {
		els, err := doc.Else.convert(at + ".else")
		if err != nil {
			return nil, err
		}
		e.Else = els
	}
	return e, nil
}
