// =============================================================================
// WI Excise Shipper XML Form Generator - Schema Validator
// =============================================================================
//
// This module checks a generated report document against its compiled
// schema. Validation is fail-fast: the first violation found in document
// order is returned and nothing after it is examined. The caller fixes that
// one problem and validates again.
//
// VALIDATION STRATEGY:
//   1. Parse the document into an element tree, recording line numbers
//   2. Match the root element against the schema's global declarations
//   3. Walk each element's children against its declared sequence
//   4. Check every simple-typed element's text against its facets
//
// The error carries the libxml2 wording of the violation together with the
// element path, the section of the report it sits in and a suggestion
// (see suggest.go).
//
// =============================================================================

package validation

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// =============================================================================
// DOCUMENT TREE
// =============================================================================

type node struct {
	name   string
	space  string
	line   int
	attrs  []xml.Attr
	text   strings.Builder
	kids   []*node
	parent *node
}

const xsiNamespace = "http://www.w3.org/2001/XMLSchema-instance"

// parseDocument reads the whole document into a tree.
func parseDocument(doc []byte) (*node, error) {
	dec := xml.NewDecoder(bytes.NewReader(doc))
	dec.CharsetReader = charsetReader

	var root, cur *node
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			line, _ := dec.InputPos()
			n := &node{name: t.Name.Local, space: t.Name.Space, line: line, attrs: t.Attr, parent: cur}
			if cur == nil {
				if root != nil {
					return nil, &xml.SyntaxError{Msg: "Extra content at the end of the document", Line: line}
				}
				root = n
			} else {
				cur.kids = append(cur.kids, n)
			}
			cur = n
		case xml.EndElement:
			cur = cur.parent
		case xml.CharData:
			if cur != nil {
				cur.text.Write(t)
			} else if len(bytes.TrimSpace(t)) > 0 {
				line, _ := dec.InputPos()
				return nil, &xml.SyntaxError{Msg: "Start tag expected, '<' not found", Line: line}
			}
		}
	}
	if root == nil {
		return nil, &xml.SyntaxError{Msg: "Document is empty", Line: 1}
	}
	return root, nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported document encoding %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

func (n *node) hasText() bool {
	return strings.TrimSpace(n.text.String()) != ""
}

// path is the slash path from the root. Repeated siblings carry a 1-based
// index: /CommonCarrier/Shipment[2]/ConsigneeAddress/ZIP.
func (n *node) path() string {
	var parts []string
	for cur := n; cur != nil; cur = cur.parent {
		part := cur.name
		if cur.parent != nil {
			idx, same := cur.siblingIndex()
			if same > 1 {
				part = fmt.Sprintf("%s[%d]", cur.name, idx)
			}
		}
		parts = append(parts, part)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return "/" + strings.Join(parts, "/")
}

// siblingIndex returns the 1-based position among same-named siblings and
// how many such siblings there are.
func (n *node) siblingIndex() (idx, count int) {
	for _, s := range n.parent.kids {
		if s.name == n.name {
			count++
			if s == n {
				idx = count
			}
		}
	}
	return idx, count
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks doc against the schema.
//
// RETURNS:
//   - nil if the document is valid.
//   - The first violation otherwise. A document that is not well-formed
//     XML is reported the same way with Facet set to FacetSyntax.
func (s *Schema) Validate(doc []byte) *SchemaValidationError {
	root, err := parseDocument(doc)
	if err != nil {
		return syntaxError(err)
	}

	decl, ok := s.roots[root.name]
	if !ok || root.space != s.targetNamespace {
		return s.fail(root, &violation{
			facet:  FacetRoot,
			reason: "No matching global declaration available for the validation root.",
		})
	}
	return s.element(decl, root)
}

func (s *Schema) element(decl *elementDecl, n *node) *SchemaValidationError {
	for _, a := range n.attrs {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") || a.Name.Space == xsiNamespace {
			continue
		}
		e := s.fail(n, &violation{
			facet:  FacetAttribute,
			value:  a.Value,
			reason: fmt.Sprintf("The attribute '%s' is not allowed.", a.Name.Local),
		})
		e.Raw = fmt.Sprintf("Element '%s', attribute '%s': The attribute '%s' is not allowed.", n.name, a.Name.Local, a.Name.Local)
		return e
	}

	if decl.complex != nil {
		if n.hasText() {
			return s.fail(n, &violation{
				facet:  FacetContent,
				value:  strings.TrimSpace(n.text.String()),
				reason: "Character content other than whitespace is not allowed because the content type is 'element-only'.",
			})
		}
		return s.sequence(decl.complex, n)
	}

	if len(n.kids) > 0 {
		return s.fail(n, &violation{
			facet:  FacetContent,
			reason: "Element content is not allowed, because the content type is a simple type.",
		})
	}
	if v := decl.simple.check(n.text.String()); v != nil {
		return s.fail(n, v)
	}
	return nil
}

// sequence matches the children of n against the declared particles in
// order. Matching is greedy, which is exact for the deterministic content
// models XSD requires.
func (s *Schema) sequence(ct *complexType, n *node) *SchemaValidationError {
	counts := make([]int, len(ct.sequence))
	i := 0
	for j, p := range ct.sequence {
		for i < len(n.kids) && n.kids[i].name == p.name && (p.maxOccurs == unbounded || counts[j] < p.maxOccurs) {
			if err := s.element(p, n.kids[i]); err != nil {
				return err
			}
			counts[j]++
			i++
		}
		if counts[j] >= p.minOccurs {
			continue
		}

		expected := expectedAt(ct.sequence, counts, j)
		if i < len(n.kids) {
			return s.fail(n.kids[i], &violation{
				facet:  FacetUnexpected,
				allow:  expected,
				reason: "This element is not expected. " + expectedPhrase(expected),
			})
		}
		return s.fail(n, &violation{
			facet:  FacetMissing,
			allow:  expected,
			reason: "Missing child element(s). " + expectedPhrase(expected),
		})
	}

	if i < len(n.kids) {
		return s.fail(n.kids[i], &violation{
			facet:  FacetUnexpected,
			reason: "This element is not expected.",
		})
	}
	return nil
}

// expectedAt lists the element names that could legally appear where the
// required particle j was missing: open optional particles before it and
// the particle itself.
func expectedAt(seq []*elementDecl, counts []int, j int) []string {
	var before []string
	for k := j - 1; k >= 0; k-- {
		p := seq[k]
		canTakeMore := p.maxOccurs == unbounded || counts[k] < p.maxOccurs
		if counts[k] > 0 {
			if canTakeMore {
				before = append(before, p.name)
			}
			break
		}
		if p.minOccurs > 0 {
			break
		}
		before = append(before, p.name)
	}

	names := make([]string, 0, len(before)+1)
	for k := len(before) - 1; k >= 0; k-- {
		names = append(names, before[k])
	}
	return append(names, seq[j].name)
}

func expectedPhrase(names []string) string {
	if len(names) == 1 {
		return fmt.Sprintf("Expected is ( %s ).", names[0])
	}
	return fmt.Sprintf("Expected is one of ( %s ).", strings.Join(names, ", "))
}

// fail ties a violation to the element it was found on.
func (s *Schema) fail(n *node, v *violation) *SchemaValidationError {
	e := &SchemaValidationError{
		Element:  n.name,
		Path:     n.path(),
		Line:     n.line,
		Value:    v.value,
		Facet:    v.facet,
		Reason:   v.reason,
		Raw:      fmt.Sprintf("Element '%s': %s", n.name, v.reason),
		Expected: v.allow,
		limit:    v.limit,
	}
	e.Section, e.Shipment = locate(n)
	e.Suggestion = suggest(e)
	return e
}

func syntaxError(err error) *SchemaValidationError {
	e := &SchemaValidationError{
		Facet:  FacetSyntax,
		Reason: "document is not well-formed XML: " + err.Error(),
		Raw:    err.Error(),
	}
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		e.Line = se.Line
		e.Reason = "document is not well-formed XML: " + se.Msg
		e.Raw = se.Msg
	}
	e.Suggestion = suggest(e)
	return e
}

// sections are the report blocks a violation is attributed to, nearest
// enclosing block first.
var sections = map[string]bool{
	"Filer":               true,
	"ConsignorAddress":    true,
	"ManufacturerAddress": true,
	"ConsigneeAddress":    true,
	"DifferentConsignor":  true,
	"Shipment":            true,
}

// locate finds the nearest enclosing report section of n and, when n is
// inside a shipment, that shipment's 1-based position.
func locate(n *node) (section string, shipment int) {
	for cur := n; cur != nil; cur = cur.parent {
		if section == "" && sections[cur.name] {
			section = cur.name
		}
		if cur.name == "Shipment" && cur.parent != nil {
			shipment, _ = cur.siblingIndex()
		}
	}
	return section, shipment
}
