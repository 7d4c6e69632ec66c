package memendpoint

import (
	"fmt"
	"strings"

	"github.com/roach88/sparqlc/internal/ir"
)

// Triple is one stored statement.
type Triple struct {
	S, P, O ir.Term
}

func (t Triple) String() string {
	return t.S.String() + " " + t.P.String() + " " + t.O.String() + " ."
}

// graph is a set of triples that iterates in insertion order.
type graph struct {
	triples []Triple
	index   map[Triple]int
}

func newGraph() *graph {
	return &graph{index: make(map[Triple]int)}
}

func (g *graph) add(t Triple) bool {
	if _, ok := g.index[t]; ok {
		return false
	}
	g.index[t] = len(g.triples)
	g.triples = append(g.triples, t)
	return true
}

func (g *graph) remove(t Triple) bool {
	i, ok := g.index[t]
	if !ok {
		return false
	}
	delete(g.index, t)
	g.triples = append(g.triples[:i], g.triples[i+1:]...)
	for j := i; j < len(g.triples); j++ {
		g.index[g.triples[j]] = j
	}
	return true
}

// solution maps variable names to bound terms.
type solution map[string]ir.Term

func (s solution) extend(name string, t ir.Term) solution {
	out := make(solution, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	out[name] = t
	return out
}

// evalGroup evaluates g over triples, starting from the seed solutions.
func evalGroup(triples []Triple, g group, seed []solution) []solution {
	sols := seed
	for _, el := range g.Elems {
		if el.Optional != nil {
			var next []solution
			for _, sol := range sols {
				ext := evalGroup(triples, *el.Optional, []solution{sol})
				if len(ext) == 0 {
					next = append(next, sol)
					continue
				}
				next = append(next, ext...)
			}
			sols = next
			continue
		}
		for _, p := range el.Triples {
			var next []solution
			for _, sol := range sols {
				next = append(next, matchPattern(triples, p, sol)...)
			}
			sols = next
		}
	}
	return sols
}

func matchPattern(triples []Triple, p pattern, sol solution) []solution {
	var out []solution
	for _, t := range triples {
		cur := sol
		ok := true
		for _, pair := range [3]struct {
			n node
			t ir.Term
		}{{p.S, t.S}, {p.P, t.P}, {p.O, t.O}} {
			if !pair.n.isVar() {
				if pair.n.Term != pair.t {
					ok = false
					break
				}
				continue
			}
			if bound, has := cur[pair.n.Var]; has {
				if bound != pair.t {
					ok = false
					break
				}
				continue
			}
			cur = cur.extend(pair.n.Var, pair.t)
		}
		if ok {
			out = append(out, cur)
		}
	}
	return out
}

// instantiate fills a template from a solution. Triples with an unbound
// variable are skipped.
func instantiate(template []pattern, sol solution) []Triple {
	var out []Triple
	for _, p := range template {
		var terms [3]ir.Term
		ok := true
		for i, n := range [3]node{p.S, p.P, p.O} {
			if !n.isVar() {
				terms[i] = n.Term
				continue
			}
			t, has := sol[n.Var]
			if !has {
				ok = false
				break
			}
			terms[i] = t
		}
		if ok && terms[0].Kind != ir.TermLiteral {
			out = append(out, Triple{S: terms[0], P: terms[1], O: terms[2]})
		}
	}
	return out
}

// solutionKey identifies a projected row for DISTINCT.
func solutionKey(vars []string, sol solution) string {
	var b strings.Builder
	for _, v := range vars {
		t := sol[v]
		fmt.Fprintf(&b, "%d|%s|%s|%s\x00", t.Kind, t.Value, t.Datatype, t.Lang)
	}
	return b.String()
}
