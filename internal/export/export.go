// Package export loads a declaration graph into Neo4j so retained, dropped,
// and synthetic declarations can be inspected with Cypher.
package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/phobologic/jslice/internal/graph"
	"github.com/phobologic/jslice/internal/model"
	"github.com/phobologic/jslice/internal/slice"
)

// TypeNode is a type declaration.
type TypeNode struct {
	QName     string
	Name      string
	Package   string
	Kind      string
	File      string
	Line      int
	Synthetic bool
	Retained  bool
}

// MemberNode is a method, constructor, or field, keyed by owner and
// signature.
type MemberNode struct {
	Key       string
	Owner     string
	Name      string
	Kind      string
	Line      int
	Synthetic bool
	Mode      string
}

// SuperEdge links a type to one declared supertype. Target is the resolved
// qualified name, or the name as written when it did not resolve.
type SuperEdge struct {
	Type      string
	Target    string
	Interface bool
	Status    string
}

// Snapshot is the exported view of one graph.
type Snapshot struct {
	Types   []TypeNode
	Members []MemberNode
	Supers  []SuperEdge
}

// Retention reports how the slicer treats a declaration. A nil Retention
// exports everything as retained.
type Retention interface {
	RetainsType(id model.DeclID) bool
	Mode(id model.DeclID) slice.Mode
}

// Collect builds a snapshot of g, sorted by qualified name.
func Collect(g *graph.Graph, ret Retention) Snapshot {
	var snap Snapshot
	for _, t := range g.Types() {
		file := ""
		if cu := g.Unit(t.ID); cu != nil {
			file = cu.Path
		}
		snap.Types = append(snap.Types, TypeNode{
			QName: t.QName, Name: t.Name, Package: t.Package, Kind: string(t.Kind),
			File: file, Line: t.Line, Synthetic: t.Synthetic,
			Retained: ret == nil || ret.RetainsType(t.ID),
		})
		for _, m := range t.Members {
			mode := "keep"
			if ret != nil {
				mode = ret.Mode(m.ID).String()
			}
			snap.Members = append(snap.Members, MemberNode{
				Key: t.QName + "#" + m.Signature(), Owner: t.QName, Name: m.Name,
				Kind: string(m.Kind), Line: m.Line, Synthetic: m.Synthetic, Mode: mode,
			})
		}
		for _, s := range g.Supertypes(t.ID) {
			target := s.QName
			if target == "" {
				target = s.Ref.Name
			}
			snap.Supers = append(snap.Supers, SuperEdge{
				Type: t.QName, Target: target, Interface: s.Interface, Status: s.Status.String(),
			})
		}
	}
	sort.Slice(snap.Types, func(i, j int) bool { return snap.Types[i].QName < snap.Types[j].QName })
	sort.Slice(snap.Members, func(i, j int) bool { return snap.Members[i].Key < snap.Members[j].Key })
	sort.Slice(snap.Supers, func(i, j int) bool {
		if snap.Supers[i].Type != snap.Supers[j].Type {
			return snap.Supers[i].Type < snap.Supers[j].Type
		}
		return snap.Supers[i].Target < snap.Supers[j].Target
	})
	return snap
}

// Runner executes one Cypher statement.
type Runner interface {
	Run(ctx context.Context, cypher string, params map[string]any) error
}

// Driver runs statements through a Neo4j driver.
type Driver struct {
	driver   neo4j.DriverWithContext
	database string
}

// Connect opens a driver with basic auth.
func Connect(uri, user, password, database string) (*Driver, error) {
	d, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}
	return &Driver{driver: d, database: database}, nil
}

// Verify checks that the server is reachable.
func (d *Driver) Verify(ctx context.Context) error {
	return d.driver.VerifyConnectivity(ctx)
}

func (d *Driver) Run(ctx context.Context, cypher string, params map[string]any) error {
	var opts []neo4j.ExecuteQueryConfigurationOption
	if d.database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(d.database))
	}
	_, err := neo4j.ExecuteQuery(ctx, d.driver, cypher, params, neo4j.EagerResultTransformer, opts...)
	return err
}

// Close releases the driver.
func (d *Driver) Close(ctx context.Context) error {
	return d.driver.Close(ctx)
}

var cleanQueries = []string{
	"MATCH (n:JavaMember) DETACH DELETE n",
	"MATCH (n:JavaType) DETACH DELETE n",
}

var indexQueries = []string{
	"CREATE INDEX java_type_qname IF NOT EXISTS FOR (n:JavaType) ON (n.qname)",
	"CREATE INDEX java_member_key IF NOT EXISTS FOR (n:JavaMember) ON (n.key)",
}

const typesQuery = `UNWIND $batch AS row
MERGE (n:JavaType {qname: row.qname})
SET n.name = row.name, n.package = row.package, n.kind = row.kind,
    n.file = row.file, n.line = row.line, n.synthetic = row.synthetic,
    n.retained = row.retained`

const membersQuery = `UNWIND $batch AS row
MERGE (n:JavaMember {key: row.key})
SET n.name = row.name, n.kind = row.kind, n.line = row.line,
    n.synthetic = row.synthetic, n.mode = row.mode
WITH n, row
MATCH (t:JavaType {qname: row.owner})
MERGE (t)-[:HAS_MEMBER]->(n)`

const supersQuery = `UNWIND $batch AS row
MATCH (t:JavaType {qname: row.type})
MERGE (s:JavaType {qname: row.target})
ON CREATE SET s.external = true, s.status = row.status
MERGE (t)-[r:EXTENDS]->(s)
SET r.interface = row.interface`

// Loader writes snapshots through a Runner.
type Loader struct {
	r   Runner
	log *slog.Logger
}

// NewLoader returns a loader. A nil logger discards.
func NewLoader(r Runner, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{r: r, log: logger}
}

// Load replaces any previously exported graph with snap.
func (l *Loader) Load(ctx context.Context, snap Snapshot) error {
	for _, q := range append(append([]string{}, cleanQueries...), indexQueries...) {
		if err := l.r.Run(ctx, q, nil); err != nil {
			return fmt.Errorf("preparing database: %w", err)
		}
	}

	types := make([]map[string]any, len(snap.Types))
	for i, t := range snap.Types {
		types[i] = map[string]any{
			"qname": t.QName, "name": t.Name, "package": t.Package, "kind": t.Kind,
			"file": t.File, "line": t.Line, "synthetic": t.Synthetic, "retained": t.Retained,
		}
	}
	l.log.Info("exporting types", "count", len(types))
	if err := l.r.Run(ctx, typesQuery, map[string]any{"batch": types}); err != nil {
		return fmt.Errorf("loading types: %w", err)
	}

	members := make([]map[string]any, len(snap.Members))
	for i, m := range snap.Members {
		members[i] = map[string]any{
			"key": m.Key, "owner": m.Owner, "name": m.Name, "kind": m.Kind,
			"line": m.Line, "synthetic": m.Synthetic, "mode": m.Mode,
		}
	}
	l.log.Info("exporting members", "count", len(members))
	if err := l.r.Run(ctx, membersQuery, map[string]any{"batch": members}); err != nil {
		return fmt.Errorf("loading members: %w", err)
	}

	supers := make([]map[string]any, len(snap.Supers))
	for i, s := range snap.Supers {
		supers[i] = map[string]any{
			"type": s.Type, "target": s.Target, "interface": s.Interface, "status": s.Status,
		}
	}
	if err := l.r.Run(ctx, supersQuery, map[string]any{"batch": supers}); err != nil {
		return fmt.Errorf("loading supertypes: %w", err)
	}
	return nil
}
