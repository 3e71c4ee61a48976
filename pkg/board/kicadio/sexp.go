// Package kicadio reads and writes KiCad board files (.kicad_pcb). It
// parses the s-expression document into a mutable tree, builds the board
// model the placement engine works on, and patches moved label positions
// back into the tree so everything else in the file survives untouched.
package kicadio

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Node is one s-expression: either an atom (possibly quoted) or a list.
type Node struct {
	Atom   string  // leaf content, empty for lists
	Quoted bool    // leaf was a quoted string in the source
	List   []*Node // children, nil for atoms
}

// IsList reports whether the node is a list.
func (n *Node) IsList() bool { return n.List != nil }

// Name returns the head atom of a list, or "" if the node is not a list or
// starts with a sublist.
func (n *Node) Name() string {
	if len(n.List) > 0 && !n.List[0].IsList() {
		return n.List[0].Atom
	}
	return ""
}

// Child returns the first child list named name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.List {
		if c.IsList() && c.Name() == name {
			return c
		}
	}
	return nil
}

// Children returns all child lists named name.
func (n *Node) Children(name string) []*Node {
	var out []*Node
	for _, c := range n.List {
		if c.IsList() && c.Name() == name {
			out = append(out, c)
		}
	}
	return out
}

// Arg returns the i-th argument atom (children after the head), or "".
func (n *Node) Arg(i int) string {
	idx := i + 1
	if idx < len(n.List) && !n.List[idx].IsList() {
		return n.List[idx].Atom
	}
	return ""
}

// FloatArg parses the i-th argument as a float.
func (n *Node) FloatArg(i int) (float64, error) {
	s := n.Arg(i)
	if s == "" {
		return 0, fmt.Errorf("%s: missing argument %d", n.Name(), i)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: argument %d: %w", n.Name(), i, err)
	}
	return v, nil
}

// HasFlag reports whether the list carries a bare atom flag (e.g. "hide")
// or a (flag yes) child.
func (n *Node) HasFlag(flag string) bool {
	if len(n.List) == 0 {
		return false
	}
	for _, c := range n.List[1:] {
		if !c.IsList() && c.Atom == flag {
			return true
		}
		if c.IsList() && c.Name() == flag && c.Arg(0) == "yes" {
			return true
		}
	}
	return false
}

// atom builds an unquoted leaf.
func atom(s string) *Node { return &Node{Atom: s} }

// Parse reads a single s-expression document from src.
func Parse(src string) (*Node, error) {
	p := &parser{src: src, line: 1}
	p.skipSpace()
	n, err := p.parseNode()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, fmt.Errorf("line %d: trailing content after document", p.line)
	}
	return n, nil
}

type parser struct {
	src  string
	pos  int
	line int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '\n' {
			p.line++
		}
		if !unicode.IsSpace(rune(c)) {
			return
		}
		p.pos++
	}
}

func (p *parser) parseNode() (*Node, error) {
	if p.pos >= len(p.src) {
		return nil, fmt.Errorf("line %d: unexpected end of input", p.line)
	}
	switch p.src[p.pos] {
	case '(':
		return p.parseList()
	case ')':
		return nil, fmt.Errorf("line %d: unexpected ')'", p.line)
	case '"':
		return p.parseString()
	default:
		return p.parseAtom(), nil
	}
}

func (p *parser) parseList() (*Node, error) {
	p.pos++ // consume '('
	n := &Node{List: []*Node{}}
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, fmt.Errorf("line %d: unterminated list", p.line)
		}
		if p.src[p.pos] == ')' {
			p.pos++
			return n, nil
		}
		child, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		n.List = append(n.List, child)
	}
}

func (p *parser) parseString() (*Node, error) {
	p.pos++ // consume opening quote
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case '"':
			p.pos++
			return &Node{Atom: b.String(), Quoted: true}, nil
		case '\\':
			if p.pos+1 >= len(p.src) {
				return nil, fmt.Errorf("line %d: unterminated escape", p.line)
			}
			p.pos++
			switch p.src[p.pos] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(p.src[p.pos])
			}
		case '\n':
			p.line++
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
		p.pos++
	}
	return nil, fmt.Errorf("line %d: unterminated string", p.line)
}

func (p *parser) parseAtom() *Node {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '(' || c == ')' || c == '"' || unicode.IsSpace(rune(c)) {
			break
		}
		p.pos++
	}
	return &Node{Atom: p.src[start:p.pos]}
}

// Serialize renders the tree back to s-expression text. Lists of atoms stay
// on one line; lists containing sublists indent each sublist on its own
// line, which is close enough to KiCad's own layout that diffs stay small.
func Serialize(n *Node) string {
	var b strings.Builder
	writeNode(&b, n, 0)
	b.WriteByte('\n')
	return b.String()
}

func writeNode(b *strings.Builder, n *Node, depth int) {
	if !n.IsList() {
		b.WriteString(renderAtom(n))
		return
	}
	b.WriteByte('(')
	flat := true
	for _, c := range n.List {
		if c.IsList() {
			flat = false
			break
		}
	}
	if flat {
		for i, c := range n.List {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(renderAtom(c))
		}
		b.WriteByte(')')
		return
	}
	for i, c := range n.List {
		if c.IsList() {
			b.WriteByte('\n')
			b.WriteString(strings.Repeat("\t", depth+1))
			writeNode(b, c, depth+1)
		} else {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(renderAtom(c))
		}
	}
	b.WriteByte('\n')
	b.WriteString(strings.Repeat("\t", depth))
	b.WriteByte(')')
}

func renderAtom(n *Node) string {
	if !n.Quoted {
		return n.Atom
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range n.Atom {
		switch r {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// formatMM renders a millimeter value the way KiCad does: fixed precision
// with trailing zeros trimmed.
func formatMM(v float64) string {
	s := strconv.FormatFloat(v, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" || s == "-0" {
		return "0"
	}
	return s
}
