// =============================================================================
// WI Excise Shipper XML Form Generator - Schema Compiler
// =============================================================================
//
// This module compiles an XSD file into the in-memory rules the validator
// checks documents against. Only the part of XML Schema the Department of
// Revenue files use is understood:
//   - Global and local xs:element declarations with minOccurs/maxOccurs
//   - Named and anonymous xs:complexType holding an xs:sequence
//   - Named and anonymous xs:simpleType restrictions with the facets
//     pattern, enumeration, length, minLength, maxLength, minInclusive,
//     maxInclusive, totalDigits and fractionDigits
//   - The builtin types xs:string, xs:normalizedString, xs:token, xs:date,
//     xs:decimal and xs:integer
//
// Anything else (attributes, choice groups, imports) makes LoadSchema fail
// loudly instead of silently accepting documents it cannot check.
//
// =============================================================================

package validation

import (
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RAW XSD STRUCTURE
// =============================================================================
// These mirror the XSD vocabulary and are only used while compiling.

type xsdSchema struct {
	XMLName         xml.Name         `xml:"schema"`
	TargetNamespace string           `xml:"targetNamespace,attr"`
	Elements        []xsdElement     `xml:"element"`
	ComplexTypes    []xsdComplexType `xml:"complexType"`
	SimpleTypes     []xsdSimpleType  `xml:"simpleType"`
	Unsupported     []xsdAny         `xml:",any"`
}

type xsdElement struct {
	Name        string          `xml:"name,attr"`
	Ref         string          `xml:"ref,attr"`
	Type        string          `xml:"type,attr"`
	MinOccurs   string          `xml:"minOccurs,attr"`
	MaxOccurs   string          `xml:"maxOccurs,attr"`
	ComplexType *xsdComplexType `xml:"complexType"`
	SimpleType  *xsdSimpleType  `xml:"simpleType"`
}

type xsdComplexType struct {
	Name        string       `xml:"name,attr"`
	Sequence    *xsdSequence `xml:"sequence"`
	Unsupported []xsdAny     `xml:",any"`
}

type xsdSequence struct {
	Elements    []xsdElement `xml:"element"`
	Unsupported []xsdAny     `xml:",any"`
}

type xsdSimpleType struct {
	Name        string          `xml:"name,attr"`
	Restriction *xsdRestriction `xml:"restriction"`
}

type xsdRestriction struct {
	Base           string     `xml:"base,attr"`
	Enumerations   []xsdFacet `xml:"enumeration"`
	Patterns       []xsdFacet `xml:"pattern"`
	Length         *xsdFacet  `xml:"length"`
	MinLength      *xsdFacet  `xml:"minLength"`
	MaxLength      *xsdFacet  `xml:"maxLength"`
	MinInclusive   *xsdFacet  `xml:"minInclusive"`
	MaxInclusive   *xsdFacet  `xml:"maxInclusive"`
	TotalDigits    *xsdFacet  `xml:"totalDigits"`
	FractionDigits *xsdFacet  `xml:"fractionDigits"`
}

type xsdFacet struct {
	Value string `xml:"value,attr"`
}

type xsdAny struct {
	XMLName xml.Name
}

// =============================================================================
// COMPILED SCHEMA
// =============================================================================

// Schema is a compiled report schema. It is immutable once loaded and safe
// for concurrent use.
type Schema struct {
	// Name identifies the schema in messages, usually the file name.
	Name string

	targetNamespace string
	roots           map[string]*elementDecl
}

// Roots lists the global element names in the schema.
func (s *Schema) Roots() []string {
	names := make([]string, 0, len(s.roots))
	for name := range s.roots {
		names = append(names, name)
	}
	return names
}

const unbounded = -1

type elementDecl struct {
	name      string
	minOccurs int
	maxOccurs int

	// Exactly one of complex and simple is set.
	complex *complexType
	simple  *simpleType
}

type complexType struct {
	name     string
	sequence []*elementDecl
}

type builtin int

const (
	builtinString builtin = iota
	builtinNormalizedString
	builtinToken
	builtinDate
	builtinDecimal
	builtinInteger
)

var builtinTypes = map[string]builtin{
	"string":           builtinString,
	"normalizedString": builtinNormalizedString,
	"token":            builtinToken,
	"date":             builtinDate,
	"decimal":          builtinDecimal,
	"integer":          builtinInteger,
}

func (b builtin) String() string {
	for name, v := range builtinTypes {
		if v == b {
			return "xs:" + name
		}
	}
	return "xs:anySimpleType"
}

func (b builtin) numeric() bool {
	return b == builtinDecimal || b == builtinInteger
}

type pattern struct {
	source string
	re     *regexp.Regexp
}

// simpleType is a fully resolved restriction. Facets from a named base type
// are folded in, so checking never walks a derivation chain.
type simpleType struct {
	name string
	base builtin

	enumeration []string

	// Patterns declared in one restriction step are alternatives; every
	// step in the derivation chain must match.
	patternSteps [][]pattern

	length         int
	minLength      int
	maxLength      int
	totalDigits    int
	fractionDigits int
	minInclusive   *decimal.Decimal
	maxInclusive   *decimal.Decimal
}

func newSimpleType(name string, base builtin) *simpleType {
	return &simpleType{
		name:           name,
		base:           base,
		length:         -1,
		minLength:      -1,
		maxLength:      -1,
		totalDigits:    -1,
		fractionDigits: -1,
	}
}

// label is the type name libxml2 prints in atomic type errors.
func (st *simpleType) label() string {
	if st.name != "" {
		return st.name
	}
	return st.base.String()
}

// =============================================================================
// LOADING
// =============================================================================

// LoadSchema compiles an XSD document.
//
// PARAMETERS:
//   - r: The XSD source.
//   - name: A label for error messages (the file name).
//
// RETURNS:
//   - The compiled schema.
//   - An error if the XSD is malformed or uses constructs outside the
//     supported subset.
func LoadSchema(r io.Reader, name string) (*Schema, error) {
	var raw xsdSchema
	if err := xml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse schema %s: %w", name, err)
	}
	if raw.XMLName.Space != xsdNamespace {
		return nil, fmt.Errorf("schema %s: root element is not xs:schema", name)
	}
	for _, u := range raw.Unsupported {
		if u.XMLName.Local != "annotation" {
			return nil, fmt.Errorf("schema %s: unsupported top-level construct xs:%s", name, u.XMLName.Local)
		}
	}

	c := &compiler{
		name:          name,
		rawComplex:    make(map[string]*xsdComplexType),
		rawSimple:     make(map[string]*xsdSimpleType),
		complexByName: make(map[string]*complexType),
		simpleByName:  make(map[string]*simpleType),
		resolving:     make(map[string]bool),
	}
	for i := range raw.ComplexTypes {
		ct := &raw.ComplexTypes[i]
		c.rawComplex[ct.Name] = ct
	}
	for i := range raw.SimpleTypes {
		st := &raw.SimpleTypes[i]
		c.rawSimple[st.Name] = st
	}

	schema := &Schema{
		Name:            name,
		targetNamespace: raw.TargetNamespace,
		roots:           make(map[string]*elementDecl),
	}
	for i := range raw.Elements {
		decl, err := c.element(&raw.Elements[i])
		if err != nil {
			return nil, err
		}
		decl.minOccurs, decl.maxOccurs = 1, 1
		schema.roots[decl.name] = decl
	}
	if len(schema.roots) == 0 {
		return nil, fmt.Errorf("schema %s declares no global elements", name)
	}
	return schema, nil
}

const xsdNamespace = "http://www.w3.org/2001/XMLSchema"

type compiler struct {
	name string

	rawComplex map[string]*xsdComplexType
	rawSimple  map[string]*xsdSimpleType

	complexByName map[string]*complexType
	simpleByName  map[string]*simpleType
	resolving     map[string]bool
}

func (c *compiler) errorf(format string, args ...any) error {
	return fmt.Errorf("schema %s: %s", c.name, fmt.Sprintf(format, args...))
}

func (c *compiler) element(raw *xsdElement) (*elementDecl, error) {
	if raw.Ref != "" {
		return nil, c.errorf("element references (ref=%q) are not supported", raw.Ref)
	}
	if raw.Name == "" {
		return nil, c.errorf("element without a name")
	}

	decl := &elementDecl{name: raw.Name}
	var err error
	if decl.minOccurs, err = occurs(raw.MinOccurs, 1); err != nil {
		return nil, c.errorf("element %s: minOccurs: %v", raw.Name, err)
	}
	if decl.maxOccurs, err = occurs(raw.MaxOccurs, 1); err != nil {
		return nil, c.errorf("element %s: maxOccurs: %v", raw.Name, err)
	}
	if decl.maxOccurs != unbounded && decl.maxOccurs < decl.minOccurs {
		return nil, c.errorf("element %s: maxOccurs is less than minOccurs", raw.Name)
	}

	switch {
	case raw.ComplexType != nil:
		decl.complex, err = c.complexBody(raw.ComplexType, "")
	case raw.SimpleType != nil:
		decl.simple, err = c.simpleBody(raw.SimpleType, "")
	case raw.Type != "":
		err = c.resolveType(decl, raw.Type)
	default:
		err = c.errorf("element %s has no type", raw.Name)
	}
	if err != nil {
		return nil, err
	}
	return decl, nil
}

func occurs(v string, def int) (int, error) {
	switch v = strings.TrimSpace(v); v {
	case "":
		return def, nil
	case "unbounded":
		return unbounded, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid value %q", v)
	}
	return n, nil
}

func (c *compiler) resolveType(decl *elementDecl, qname string) error {
	local, isXS := splitQName(qname)
	if isXS {
		b, ok := builtinTypes[local]
		if !ok {
			return c.errorf("element %s: unsupported builtin type %s", decl.name, qname)
		}
		decl.simple = newSimpleType("", b)
		return nil
	}
	if _, ok := c.rawComplex[local]; ok {
		ct, err := c.namedComplex(local)
		decl.complex = ct
		return err
	}
	if _, ok := c.rawSimple[local]; ok {
		st, err := c.namedSimple(local)
		decl.simple = st
		return err
	}
	return c.errorf("element %s: unknown type %s", decl.name, qname)
}

// splitQName strips the namespace prefix and reports whether it is the XSD
// namespace prefix.
func splitQName(qname string) (string, bool) {
	prefix, local, found := strings.Cut(qname, ":")
	if !found {
		return qname, false
	}
	return local, prefix == "xs" || prefix == "xsd"
}

func (c *compiler) namedComplex(name string) (*complexType, error) {
	if ct, ok := c.complexByName[name]; ok {
		return ct, nil
	}
	// Registered before the body is compiled so a recursive reference
	// resolves to the same type.
	ct := &complexType{name: name}
	c.complexByName[name] = ct
	body, err := c.complexBody(c.rawComplex[name], name)
	if err != nil {
		return nil, err
	}
	ct.sequence = body.sequence
	return ct, nil
}

func (c *compiler) complexBody(raw *xsdComplexType, name string) (*complexType, error) {
	label := name
	if label == "" {
		label = "(anonymous)"
	}
	for _, u := range raw.Unsupported {
		if u.XMLName.Local != "annotation" {
			return nil, c.errorf("complexType %s: unsupported content xs:%s", label, u.XMLName.Local)
		}
	}

	ct := &complexType{name: name}
	if raw.Sequence == nil {
		return ct, nil
	}
	for _, u := range raw.Sequence.Unsupported {
		if u.XMLName.Local != "annotation" {
			return nil, c.errorf("complexType %s: unsupported sequence particle xs:%s", label, u.XMLName.Local)
		}
	}
	for i := range raw.Sequence.Elements {
		child, err := c.element(&raw.Sequence.Elements[i])
		if err != nil {
			return nil, err
		}
		ct.sequence = append(ct.sequence, child)
	}
	return ct, nil
}

func (c *compiler) namedSimple(name string) (*simpleType, error) {
	if st, ok := c.simpleByName[name]; ok {
		return st, nil
	}
	if c.resolving[name] {
		return nil, c.errorf("simpleType %s derives from itself", name)
	}
	c.resolving[name] = true
	defer delete(c.resolving, name)

	st, err := c.simpleBody(c.rawSimple[name], name)
	if err != nil {
		return nil, err
	}
	c.simpleByName[name] = st
	return st, nil
}

func (c *compiler) simpleBody(raw *xsdSimpleType, name string) (*simpleType, error) {
	label := name
	if label == "" {
		label = "(anonymous)"
	}
	r := raw.Restriction
	if r == nil {
		return nil, c.errorf("simpleType %s: only xs:restriction is supported", label)
	}

	var st *simpleType
	local, isXS := splitQName(r.Base)
	switch {
	case r.Base == "":
		return nil, c.errorf("simpleType %s: restriction without a base", label)
	case isXS:
		b, ok := builtinTypes[local]
		if !ok {
			return nil, c.errorf("simpleType %s: unsupported base type %s", label, r.Base)
		}
		st = newSimpleType(name, b)
	default:
		if _, ok := c.rawSimple[local]; !ok {
			return nil, c.errorf("simpleType %s: unknown base type %s", label, r.Base)
		}
		parent, err := c.namedSimple(local)
		if err != nil {
			return nil, err
		}
		derived := *parent
		derived.name = name
		derived.patternSteps = append([][]pattern(nil), parent.patternSteps...)
		st = &derived
	}

	if err := c.applyFacets(st, r, label); err != nil {
		return nil, err
	}
	return st, nil
}

func (c *compiler) applyFacets(st *simpleType, r *xsdRestriction, label string) error {
	if len(r.Enumerations) > 0 {
		st.enumeration = make([]string, 0, len(r.Enumerations))
		for _, e := range r.Enumerations {
			st.enumeration = append(st.enumeration, e.Value)
		}
	}

	if len(r.Patterns) > 0 {
		step := make([]pattern, 0, len(r.Patterns))
		for _, p := range r.Patterns {
			re, err := compilePattern(p.Value)
			if err != nil {
				return c.errorf("simpleType %s: pattern %q: %v", label, p.Value, err)
			}
			step = append(step, pattern{source: p.Value, re: re})
		}
		st.patternSteps = append(st.patternSteps, step)
	}

	ints := []struct {
		facet *xsdFacet
		dst   *int
		what  string
	}{
		{r.Length, &st.length, "length"},
		{r.MinLength, &st.minLength, "minLength"},
		{r.MaxLength, &st.maxLength, "maxLength"},
		{r.TotalDigits, &st.totalDigits, "totalDigits"},
		{r.FractionDigits, &st.fractionDigits, "fractionDigits"},
	}
	for _, f := range ints {
		if f.facet == nil {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(f.facet.Value))
		if err != nil || n < 0 {
			return c.errorf("simpleType %s: invalid %s %q", label, f.what, f.facet.Value)
		}
		*f.dst = n
	}

	bounds := []struct {
		facet *xsdFacet
		dst   **decimal.Decimal
		what  string
	}{
		{r.MinInclusive, &st.minInclusive, "minInclusive"},
		{r.MaxInclusive, &st.maxInclusive, "maxInclusive"},
	}
	for _, b := range bounds {
		if b.facet == nil {
			continue
		}
		if !st.base.numeric() {
			return c.errorf("simpleType %s: %s requires a numeric base", label, b.what)
		}
		d, err := decimal.NewFromString(strings.TrimSpace(b.facet.Value))
		if err != nil {
			return c.errorf("simpleType %s: invalid %s %q", label, b.what, b.facet.Value)
		}
		*b.dst = &d
	}
	return nil
}

// compilePattern turns an XSD regular expression into a Go one. XSD
// patterns match the whole value, so the expression is anchored.
func compilePattern(src string) (*regexp.Regexp, error) {
	if strings.Contains(src, `\i`) || strings.Contains(src, `\c`) ||
		strings.Contains(src, `\I`) || strings.Contains(src, `\C`) {
		return nil, fmt.Errorf("XML name escapes are not supported")
	}
	return regexp.Compile(`^(?:` + src + `)$`)
}
