package memendpoint

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sparqlc/internal/ir"
)

const testGraph = "urn:g"

func post(t *testing.T, srvURL, field, text string) (int, string) {
	t.Helper()
	resp, err := http.PostForm(srvURL, url.Values{field: {text}})
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func queryResults(t *testing.T, srvURL, text string) *ir.ResultSet {
	t.Helper()
	status, body := post(t, srvURL, "query", text)
	require.Equal(t, http.StatusOK, status, body)
	rs, err := ir.ParseResults([]byte(body))
	require.NoError(t, err)
	return rs
}

func seed(e *Endpoint) {
	e.Insert(testGraph,
		Triple{S: ir.IRI("urn:alice"), P: ir.IRI("urn:knows"), O: ir.IRI("urn:bob")},
		Triple{S: ir.IRI("urn:alice"), P: ir.IRI("urn:name"), O: ir.PlainLiteral("Alice")},
		Triple{S: ir.IRI("urn:bob"), P: ir.IRI("urn:knows"), O: ir.IRI("urn:carol")},
		Triple{S: ir.IRI("urn:carol"), P: ir.IRI("urn:name"), O: ir.LangLiteral("Carole", "fr")},
	)
}

func TestSelect(t *testing.T) {
	e := New()
	seed(e)
	srv := NewServer(e)
	defer srv.Close()

	tests := []struct {
		name  string
		query string
		vars  []string
		rows  []ir.Binding
	}{
		{
			name:  "single pattern",
			query: "select ?o where { <urn:alice> <urn:knows> ?o }",
			vars:  []string{"o"},
			rows:  []ir.Binding{{"o": ir.IRI("urn:bob")}},
		},
		{
			name:  "join",
			query: "select ?a ?c where { ?a <urn:knows> ?b . ?b <urn:knows> ?c }",
			vars:  []string{"a", "c"},
			rows:  []ir.Binding{{"a": ir.IRI("urn:alice"), "c": ir.IRI("urn:carol")}},
		},
		{
			name:  "optional leaves variable unbound",
			query: "select ?s ?n where { ?s <urn:knows> ?o OPTIONAL { ?s <urn:name> ?n } }",
			vars:  []string{"s", "n"},
			rows: []ir.Binding{
				{"s": ir.IRI("urn:alice"), "n": ir.PlainLiteral("Alice")},
				{"s": ir.IRI("urn:bob")},
			},
		},
		{
			name:  "star projects in appearance order",
			query: "select * where { <urn:carol> ?p ?o }",
			vars:  []string{"p", "o"},
			rows:  []ir.Binding{{"p": ir.IRI("urn:name"), "o": ir.LangLiteral("Carole", "fr")}},
		},
		{
			name:  "distinct and limit",
			query: "select distinct ?p where { ?s ?p ?o } limit 1",
			vars:  []string{"p"},
			rows:  []ir.Binding{{"p": ir.IRI("urn:knows")}},
		},
		{
			name:  "no match",
			query: "prefix ex: <urn:> select ?o where { ex:nobody ex:knows ?o }",
			vars:  []string{"o"},
			rows:  []ir.Binding{},
		},
		{
			name:  "from unknown graph",
			query: "select ?s from <urn:other> where { ?s ?p ?o }",
			vars:  []string{"s"},
			rows:  []ir.Binding{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := queryResults(t, srv.URL, tt.query)
			assert.Equal(t, tt.vars, rs.Vars)
			assert.Equal(t, tt.rows, rs.Bindings)
		})
	}
}

func TestAsk(t *testing.T) {
	e := New()
	seed(e)
	srv := NewServer(e)
	defer srv.Close()

	rs := queryResults(t, srv.URL, "ask { <urn:alice> <urn:knows> <urn:bob> }")
	require.True(t, rs.IsBoolean())
	assert.True(t, *rs.Boolean)

	rs = queryResults(t, srv.URL, "ask from <urn:g> where { <urn:bob> <urn:knows> <urn:alice> }")
	require.True(t, rs.IsBoolean())
	assert.False(t, *rs.Boolean)
}

func TestUpdates(t *testing.T) {
	e := New()
	srv := NewServer(e)
	defer srv.Close()

	rs := queryResults(t, srv.URL, "INSERT INTO <urn:g> { <urn:s> <urn:name> 'Alice' ; <urn:age> 30 . }")
	require.Len(t, rs.Bindings, 1)
	assert.Equal(t, []string{"callret-0"}, rs.Vars)
	assert.Equal(t, "Insert into <urn:g>, 2 (or less) triples -- done", rs.Bindings[0]["callret-0"].Value)
	assert.Equal(t, []Triple{
		{S: ir.IRI("urn:s"), P: ir.IRI("urn:name"), O: ir.PlainLiteral("Alice")},
		{S: ir.IRI("urn:s"), P: ir.IRI("urn:age"), O: ir.TypedLiteral("30", xsdInteger)},
	}, e.Triples(testGraph))

	rs = queryResults(t, srv.URL, "MODIFY <urn:g> DELETE { <urn:s> <urn:age> ?x } INSERT { <urn:s> <urn:age> 31 } WHERE { OPTIONAL { <urn:s> <urn:age> ?x } }")
	assert.Equal(t, "Modify <urn:g>, delete 1 and insert 1 triples -- done", rs.Bindings[0]["callret-0"].Value)
	assert.Equal(t, []Triple{
		{S: ir.IRI("urn:s"), P: ir.IRI("urn:name"), O: ir.PlainLiteral("Alice")},
		{S: ir.IRI("urn:s"), P: ir.IRI("urn:age"), O: ir.TypedLiteral("31", xsdInteger)},
	}, e.Triples(testGraph))

	rs = queryResults(t, srv.URL, "DELETE FROM <urn:g> { <urn:s> <urn:name> ?x } WHERE { <urn:s> <urn:name> ?x }")
	assert.Equal(t, "Delete from <urn:g>, delete 1 and insert 0 triples -- done", rs.Bindings[0]["callret-0"].Value)
	assert.Len(t, e.Triples(testGraph), 1)

	rs = queryResults(t, srv.URL, "DELETE FROM <urn:g> { <urn:s> <urn:age> 31 }")
	assert.Equal(t, "Delete from <urn:g>, delete 1 and insert 0 triples -- done", rs.Bindings[0]["callret-0"].Value)
	assert.Empty(t, e.Triples(testGraph))
	assert.Equal(t, []string{testGraph}, e.Graphs())
}

func TestUpdateField(t *testing.T) {
	e := New()
	srv := NewServer(e)
	defer srv.Close()

	status, body := post(t, srv.URL, "update", "INSERT INTO <urn:g> { <urn:s> <urn:p> true }")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, []Triple{{S: ir.IRI("urn:s"), P: ir.IRI("urn:p"), O: ir.TypedLiteral("true", xsdBoolean)}}, e.Triples(testGraph))
}

func TestGetQuery(t *testing.T) {
	e := New()
	seed(e)
	srv := NewServer(e)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "?query=" + url.QueryEscape("ask { ?s <urn:name> 'Alice' }"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, ir.ResultsMediaType, resp.Header.Get("Content-Type"))
}

func TestBadRequests(t *testing.T) {
	e := New()
	srv := NewServer(e)
	defer srv.Close()

	status, body := post(t, srv.URL, "query", "select nonsense")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "parse error")

	status, body = post(t, srv.URL, "other", "x")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "missing query")

	req, err := http.NewRequest(http.MethodPut, srv.URL, strings.NewReader(""))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestFailNext(t *testing.T) {
	e := New()
	srv := NewServer(e)
	defer srv.Close()

	e.FailNext(http.StatusServiceUnavailable, "overloaded")
	e.FailNext(http.StatusInternalServerError, "boom")

	status, body := post(t, srv.URL, "query", "ask { ?s ?p ?o }")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Contains(t, body, "overloaded")

	status, _ = post(t, srv.URL, "query", "ask { ?s ?p ?o }")
	assert.Equal(t, http.StatusInternalServerError, status)

	status, _ = post(t, srv.URL, "query", "ask { ?s ?p ?o }")
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, e.Requests(), 3)
}

func TestRequestsAndReset(t *testing.T) {
	e := New()
	seed(e)
	srv := NewServer(e)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader(url.Values{"query": {"ask {}"}}.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", ir.ResultsMediaType)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("X-Request-Id", "req-7")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	reqs := e.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, Request{
		Method:      http.MethodPost,
		Query:       "ask {}",
		ContentType: "application/x-www-form-urlencoded",
		Accept:      ir.ResultsMediaType,
		UserAgent:   "test-agent",
		RequestID:   "req-7",
	}, reqs[0])

	e.Reset()
	assert.Empty(t, e.Requests())
	assert.Empty(t, e.Graphs())
	assert.Nil(t, e.Triples(testGraph))
}

func TestTransport(t *testing.T) {
	e := New()
	seed(e)
	hc := &http.Client{Transport: e.Transport()}

	resp, err := hc.PostForm("http://memory.invalid/sparql", url.Values{"query": {"select ?n where { <urn:alice> <urn:name> ?n }"}})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rs, err := ir.DecodeResults(resp.Body)
	require.NoError(t, err)
	require.Len(t, rs.Bindings, 1)
	assert.Equal(t, ir.PlainLiteral("Alice"), rs.Bindings[0]["n"])
}
