package memendpoint

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/sparqlc/internal/ir"
)

const (
	xsdNS      = "http://www.w3.org/2001/XMLSchema#"
	xsdInteger = xsdNS + "integer"
	xsdDecimal = xsdNS + "decimal"
	xsdDouble  = xsdNS + "double"
	xsdBoolean = xsdNS + "boolean"
	rdfType    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
)

// operation is a parsed request.
type operation interface {
	operation()
}

// selectQuery is SELECT [DISTINCT] vars [FROM g] WHERE {..} [LIMIT n].
type selectQuery struct {
	Vars     []string // nil means *
	Distinct bool
	From     string // graph IRI, "" for the union of all graphs
	Where    group
	Limit    int // negative means unlimited
}

// askQuery is ASK [FROM g] {..}.
type askQuery struct {
	From  string
	Where group
}

// modifyOp covers MODIFY and DELETE FROM: delete then insert the
// instantiated templates for every solution of Where over Graph.
type modifyOp struct {
	Keyword string
	Graph   string
	Delete  []pattern
	Insert  []pattern
	Where   group
}

// insertOp is INSERT INTO g {..} with ground triples.
type insertOp struct {
	Graph   string
	Triples []pattern
}

func (selectQuery) operation() {}
func (askQuery) operation()    {}
func (modifyOp) operation()    {}
func (insertOp) operation()    {}

// node is a pattern position: a variable or a concrete term.
type node struct {
	Var  string
	Term ir.Term
}

func (n node) isVar() bool { return n.Var != "" }

type pattern struct {
	S, P, O node
}

// group is a sequence of basic graph patterns and OPTIONAL groups,
// evaluated left to right.
type group struct {
	Elems []groupElem
}

type groupElem struct {
	Triples  []pattern // set for a basic graph pattern
	Optional *group    // set for OPTIONAL { .. }
}

// vars returns variable names in first-appearance order.
func (g group) vars() []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(group)
	walk = func(g group) {
		for _, el := range g.Elems {
			if el.Optional != nil {
				walk(*el.Optional)
				continue
			}
			for _, p := range el.Triples {
				for _, n := range []node{p.S, p.P, p.O} {
					if n.isVar() && !seen[n.Var] {
						seen[n.Var] = true
						out = append(out, n.Var)
					}
				}
			}
		}
	}
	walk(g)
	return out
}

// ParseError reports a request the endpoint could not parse.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Msg
}

type parser struct {
	toks     []token
	pos      int
	prefixes map[string]string
}

// parse parses one query or update request.
func parse(src string) (operation, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, &ParseError{Msg: err.Error()}
	}
	p := &parser{toks: toks, prefixes: make(map[string]string)}
	op, err := p.parseOperation()
	if err != nil {
		return nil, &ParseError{Msg: err.Error()}
	}
	return op, nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.Kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) acceptKeyword(kw string) bool {
	if p.peek().isKeyword(kw) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) acceptPunct(s string) bool {
	if p.peek().isPunct(s) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expectKeyword(kw string) error {
	if !p.acceptKeyword(kw) {
		return fmt.Errorf("expected %s, got %s", strings.ToUpper(kw), p.peek())
	}
	return nil
}

func (p *parser) expectPunct(s string) error {
	if !p.acceptPunct(s) {
		return fmt.Errorf("expected %q, got %s", s, p.peek())
	}
	return nil
}

func (p *parser) parseOperation() (operation, error) {
	if err := p.parsePrologue(); err != nil {
		return nil, err
	}

	var (
		op  operation
		err error
	)
	t := p.next()
	switch {
	case t.isKeyword("select"):
		op, err = p.parseSelect()
	case t.isKeyword("ask"):
		op, err = p.parseAsk()
	case t.isKeyword("modify"):
		op, err = p.parseModify()
	case t.isKeyword("delete"):
		op, err = p.parseDeleteFrom()
	case t.isKeyword("insert"):
		op, err = p.parseInsertInto()
	default:
		return nil, fmt.Errorf("expected SELECT, ASK, MODIFY, DELETE or INSERT, got %s", t)
	}
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.Kind != tokEOF {
		return nil, fmt.Errorf("unexpected %s after request", t)
	}
	return op, nil
}

func (p *parser) parsePrologue() error {
	for {
		switch {
		case p.acceptKeyword("prefix"):
			name := p.next()
			if name.Kind != tokPName || !strings.HasSuffix(name.Text, ":") {
				return fmt.Errorf("expected prefix name, got %s", name)
			}
			iri := p.next()
			if iri.Kind != tokIRI {
				return fmt.Errorf("expected namespace IRI, got %s", iri)
			}
			p.prefixes[strings.TrimSuffix(name.Text, ":")] = iri.Text
		case p.acceptKeyword("base"):
			return fmt.Errorf("BASE is not supported")
		default:
			return nil
		}
	}
}

func (p *parser) parseSelect() (operation, error) {
	q := selectQuery{Limit: -1}
	q.Distinct = p.acceptKeyword("distinct") || p.acceptKeyword("reduced")

	if !p.acceptPunct("*") {
		for p.peek().Kind == tokVar {
			q.Vars = append(q.Vars, p.next().Text)
		}
		if len(q.Vars) == 0 {
			return nil, fmt.Errorf("expected projection, got %s", p.peek())
		}
	}

	from, err := p.parseFrom()
	if err != nil {
		return nil, err
	}
	q.From = from

	p.acceptKeyword("where")
	if q.Where, err = p.parseGroup(); err != nil {
		return nil, err
	}

	if p.acceptKeyword("limit") {
		t := p.next()
		n, err := strconv.Atoi(t.Text)
		if t.Kind != tokNumber || err != nil || n < 0 {
			return nil, fmt.Errorf("expected non-negative LIMIT, got %s", t)
		}
		q.Limit = n
	}
	return q, nil
}

func (p *parser) parseAsk() (operation, error) {
	from, err := p.parseFrom()
	if err != nil {
		return nil, err
	}
	p.acceptKeyword("where")
	where, err := p.parseGroup()
	if err != nil {
		return nil, err
	}
	return askQuery{From: from, Where: where}, nil
}

func (p *parser) parseFrom() (string, error) {
	if !p.acceptKeyword("from") {
		return "", nil
	}
	p.acceptKeyword("named")
	return p.parseGraphName()
}

func (p *parser) parseGraphName() (string, error) {
	p.acceptKeyword("graph")
	t := p.next()
	switch t.Kind {
	case tokIRI:
		return t.Text, nil
	case tokPName:
		return p.expand(t)
	default:
		return "", fmt.Errorf("expected graph IRI, got %s", t)
	}
}

// parseModify parses MODIFY g [DELETE {..}] [INSERT {..}] WHERE {..}.
func (p *parser) parseModify() (operation, error) {
	g, err := p.parseGraphName()
	if err != nil {
		return nil, err
	}
	op := modifyOp{Keyword: "Modify", Graph: g}
	if p.acceptKeyword("delete") {
		if op.Delete, err = p.parseTemplate(); err != nil {
			return nil, err
		}
	}
	if p.acceptKeyword("insert") {
		if op.Insert, err = p.parseTemplate(); err != nil {
			return nil, err
		}
	}
	if op.Delete == nil && op.Insert == nil {
		return nil, fmt.Errorf("MODIFY needs a DELETE or INSERT template")
	}
	if err := p.expectKeyword("where"); err != nil {
		return nil, err
	}
	if op.Where, err = p.parseGroup(); err != nil {
		return nil, err
	}
	return op, nil
}

// parseDeleteFrom parses DELETE FROM g {..} [WHERE {..}]. Without WHERE
// the template must be ground.
func (p *parser) parseDeleteFrom() (operation, error) {
	if err := p.expectKeyword("from"); err != nil {
		return nil, err
	}
	g, err := p.parseGraphName()
	if err != nil {
		return nil, err
	}
	op := modifyOp{Keyword: "Delete from", Graph: g}
	if op.Delete, err = p.parseTemplate(); err != nil {
		return nil, err
	}
	if p.acceptKeyword("where") {
		if op.Where, err = p.parseGroup(); err != nil {
			return nil, err
		}
		return op, nil
	}
	if err := requireGround(op.Delete); err != nil {
		return nil, err
	}
	return op, nil
}

// parseInsertInto parses INSERT INTO g {..}.
func (p *parser) parseInsertInto() (operation, error) {
	if err := p.expectKeyword("into"); err != nil {
		return nil, err
	}
	g, err := p.parseGraphName()
	if err != nil {
		return nil, err
	}
	triples, err := p.parseTemplate()
	if err != nil {
		return nil, err
	}
	if p.peek().isKeyword("where") {
		return nil, fmt.Errorf("INSERT INTO ... WHERE is not supported")
	}
	if err := requireGround(triples); err != nil {
		return nil, err
	}
	return insertOp{Graph: g, Triples: triples}, nil
}

func requireGround(triples []pattern) error {
	for _, t := range triples {
		for _, n := range []node{t.S, t.P, t.O} {
			if n.isVar() {
				return fmt.Errorf("variable ?%s in data block", n.Var)
			}
		}
	}
	return nil
}

// parseTemplate parses { triples } with no OPTIONAL groups.
func (p *parser) parseTemplate() ([]pattern, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	triples := []pattern{}
	for !p.acceptPunct("}") {
		if p.acceptPunct(".") {
			continue
		}
		more, err := p.parseTriplesSameSubject()
		if err != nil {
			return nil, err
		}
		triples = append(triples, more...)
	}
	return triples, nil
}

func (p *parser) parseGroup() (group, error) {
	var g group
	if err := p.expectPunct("{"); err != nil {
		return g, err
	}
	for !p.acceptPunct("}") {
		switch {
		case p.acceptPunct("."):
		case p.acceptKeyword("optional"):
			opt, err := p.parseGroup()
			if err != nil {
				return g, err
			}
			g.Elems = append(g.Elems, groupElem{Optional: &opt})
		case p.peek().isKeyword("filter"), p.peek().isKeyword("union"), p.peek().isKeyword("graph"):
			return g, fmt.Errorf("%s is not supported", strings.ToUpper(p.peek().Text))
		default:
			triples, err := p.parseTriplesSameSubject()
			if err != nil {
				return g, err
			}
			// Adjacent triples join into one basic graph pattern.
			if n := len(g.Elems); n > 0 && g.Elems[n-1].Optional == nil {
				g.Elems[n-1].Triples = append(g.Elems[n-1].Triples, triples...)
			} else {
				g.Elems = append(g.Elems, groupElem{Triples: triples})
			}
		}
	}
	return g, nil
}

// parseTriplesSameSubject parses s p o (, o)* (; p o (, o)*)*.
func (p *parser) parseTriplesSameSubject() ([]pattern, error) {
	subj, err := p.parseNode(false)
	if err != nil {
		return nil, err
	}

	var out []pattern
	for {
		pred, err := p.parseVerb()
		if err != nil {
			return nil, err
		}
		for {
			obj, err := p.parseNode(true)
			if err != nil {
				return nil, err
			}
			out = append(out, pattern{S: subj, P: pred, O: obj})
			if !p.acceptPunct(",") {
				break
			}
		}
		if !p.acceptPunct(";") {
			return out, nil
		}
		// Trailing ';' before '.' or '}' is allowed.
		if t := p.peek(); t.isPunct(".") || t.isPunct("}") {
			return out, nil
		}
	}
}

func (p *parser) parseVerb() (node, error) {
	t := p.peek()
	switch t.Kind {
	case tokA:
		p.pos++
		return node{Term: ir.IRI(rdfType)}, nil
	case tokVar:
		p.pos++
		return node{Var: t.Text}, nil
	case tokIRI, tokPName:
		n, err := p.parseNode(false)
		if err != nil {
			return node{}, err
		}
		return n, nil
	default:
		return node{}, fmt.Errorf("expected predicate, got %s", t)
	}
}

// parseNode parses a variable, IRI, prefixed name or blank node, and a
// literal when literals are allowed in this position.
func (p *parser) parseNode(allowLiteral bool) (node, error) {
	t := p.next()
	switch t.Kind {
	case tokVar:
		return node{Var: t.Text}, nil
	case tokIRI:
		return node{Term: ir.IRI(t.Text)}, nil
	case tokPName:
		iri, err := p.expand(t)
		if err != nil {
			return node{}, err
		}
		return node{Term: ir.IRI(iri)}, nil
	case tokBlankNode:
		return node{Term: ir.BlankNode(t.Text)}, nil
	}

	if !allowLiteral {
		return node{}, fmt.Errorf("expected subject or predicate, got %s", t)
	}

	switch t.Kind {
	case tokString:
		return p.parseLiteralSuffix(t.Text)
	case tokNumber:
		dt := xsdInteger
		switch {
		case strings.ContainsAny(t.Text, "eE"):
			dt = xsdDouble
		case strings.Contains(t.Text, "."):
			dt = xsdDecimal
		}
		return node{Term: ir.TypedLiteral(t.Text, dt)}, nil
	case tokBool:
		return node{Term: ir.TypedLiteral(t.Text, xsdBoolean)}, nil
	default:
		return node{}, fmt.Errorf("expected term, got %s", t)
	}
}

func (p *parser) parseLiteralSuffix(value string) (node, error) {
	switch t := p.peek(); t.Kind {
	case tokLangTag:
		p.pos++
		return node{Term: ir.LangLiteral(value, strings.ToLower(t.Text))}, nil
	case tokDatatypeMark:
		p.pos++
		dt := p.next()
		switch dt.Kind {
		case tokIRI:
			return node{Term: ir.TypedLiteral(value, dt.Text)}, nil
		case tokPName:
			iri, err := p.expand(dt)
			if err != nil {
				return node{}, err
			}
			return node{Term: ir.TypedLiteral(value, iri)}, nil
		default:
			return node{}, fmt.Errorf("expected datatype IRI, got %s", dt)
		}
	}
	return node{Term: ir.PlainLiteral(value)}, nil
}

// expand resolves a prefixed name against the declared prefixes.
func (p *parser) expand(t token) (string, error) {
	prefix, local, _ := strings.Cut(t.Text, ":")
	ns, ok := p.prefixes[prefix]
	if !ok {
		return "", fmt.Errorf("undeclared prefix %q at offset %d", prefix, t.Pos)
	}
	return ns + local, nil
}
