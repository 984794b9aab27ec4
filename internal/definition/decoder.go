package definition

import (
	"fmt"
	"log/slog"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/prototype/internal/document"
	"github.com/specialistvlad/prototype/internal/registry"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

const (
	varNamespace        = "var"
	prototypesNamespace = "prototypes"
	inlineFilename      = "<definition>"
)

// fileRoot is used to decode the top-level blocks of a definition file.
type fileRoot struct {
	Prototypes []*prototypeBlock `hcl:"prototype,block"`
}

type prototypeBlock struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
	// set by gohcl for blocks
	DefRange hcl.Range `hcl:",def_range"`
}

type prototypeBody struct {
	Class string         `hcl:"class"`
	Data  hcl.Expression `hcl:"data"`
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithVariables exposes values as `var.<name>` strings.
func WithVariables(vars map[string]string) Option {
	return func(d *Decoder) {
		for name, value := range vars {
			d.vars[name] = cty.StringVal(value)
		}
	}
}

// WithPrototypes makes the entries of reg referenceable from data
// expressions. Entries whose data has no HCL representation are skipped.
func WithPrototypes(reg *registry.Registry) Option {
	return func(d *Decoder) {
		for _, e := range reg.Entries() {
			if err := d.remember(e.Name, e.Class, e.Data); err != nil {
				slog.Debug("Prototype not referenceable from definitions.", "name", e.Name, "error", err)
			}
		}
	}
}

// Decoder evaluates definition files. Prototypes decoded earlier are visible
// to the data expressions of later blocks and files.
type Decoder struct {
	vars      map[string]cty.Value
	known     map[string]cty.Value
	functions map[string]function.Function
}

// NewDecoder creates a Decoder.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		vars:      make(map[string]cty.Value),
		known:     make(map[string]cty.Value),
		functions: functions(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DecodeFile parses src and evaluates every prototype block in source order.
func (d *Decoder) DecodeFile(filename string, src []byte) ([]*Definition, error) {
	file, diags := hclsyntax.ParseConfig(src, filename, hcl.InitialPos)
	if err := firstError(filename, diags); err != nil {
		return nil, err
	}

	var root fileRoot
	if err := firstError(filename, gohcl.DecodeBody(file.Body, nil, &root)); err != nil {
		return nil, err
	}

	defs := make([]*Definition, 0, len(root.Prototypes))
	for _, block := range root.Prototypes {
		def, err := d.decodeBlock(filename, block)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (d *Decoder) decodeBlock(filename string, block *prototypeBlock) (*Definition, error) {
	evalCtx := d.evalContext()

	var body prototypeBody
	if err := firstError(filename, gohcl.DecodeBody(block.Body, evalCtx, &body)); err != nil {
		return nil, err
	}

	val, diags := body.Data.Value(evalCtx)
	if err := firstError(filename, diags); err != nil {
		return nil, err
	}
	rng := body.Data.Range()
	if !isTableLike(val.Type()) {
		return nil, newParseError(filename, "Invalid prototype data",
			fmt.Sprintf("The data of prototype %q must be an object or a list, not %s.", block.Name, val.Type().FriendlyName()),
			&rng)
	}

	data, err := document.FromCty(val)
	if err != nil {
		return nil, newParseError(filename, "Invalid prototype data", err.Error(), &rng)
	}

	if err := d.remember(block.Name, body.Class, data); err != nil {
		return nil, newParseError(filename, "Invalid prototype data", err.Error(), &rng)
	}

	return &Definition{
		Name:  block.Name,
		Class: body.Class,
		Data:  data,
		Range: block.DefRange,
	}, nil
}

func (d *Decoder) remember(name, class string, data document.Document) error {
	val, err := document.ToCty(data)
	if err != nil {
		return err
	}
	d.known[name] = cty.ObjectVal(map[string]cty.Value{
		"class": cty.StringVal(class),
		"data":  val,
	})
	return nil
}

func (d *Decoder) evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			varNamespace:        objectOrEmpty(d.vars),
			prototypesNamespace: objectOrEmpty(d.known),
		},
		Functions: d.functions,
	}
}

func objectOrEmpty(attrs map[string]cty.Value) cty.Value {
	if len(attrs) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(attrs)
}

func isTableLike(t cty.Type) bool {
	return t.IsObjectType() || t.IsMapType() || t.IsTupleType() || t.IsListType() || t.IsSetType()
}

// DeserializeFile decodes every prototype block of src with a fresh Decoder.
func DeserializeFile(filename string, src []byte, opts ...Option) ([]*Definition, error) {
	return NewDecoder(opts...).DecodeFile(filename, src)
}

// Deserialize decodes text holding exactly one prototype block.
func Deserialize(text string, opts ...Option) (*Definition, error) {
	defs, err := DeserializeFile(inlineFilename, []byte(text), opts...)
	if err != nil {
		return nil, err
	}
	if len(defs) != 1 {
		return nil, newParseError(inlineFilename, "Wrong number of prototype blocks",
			fmt.Sprintf("Expected exactly one prototype block, found %d.", len(defs)), nil)
	}
	return defs[0], nil
}
