package naming

import (
	"context"

	"github.com/rickgao/symboldb-tools/internal/inherit"
	"github.com/rickgao/symboldb-tools/internal/model"
)

// Compiler builds compiled documents; *inherit.Resolver satisfies it.
type Compiler interface {
	Build(ctx context.Context, p inherit.Payload, includeSelf bool, cache *inherit.Cache) (model.Document, error)
}

// Namer names raw documents, compiling them first when needed.
type Namer struct {
	refs     References
	compiler Compiler
}

// NewNamer creates a Namer.
func NewNamer(refs References, compiler Compiler) *Namer {
	return &Namer{refs: refs, compiler: compiler}
}

// References returns the reference lists the namer resolves against.
func (n *Namer) References() References { return n.refs }

// SymbolID names doc. When compiled is false doc is compiled with its
// ancestors first, using cache for already fetched documents.
func (n *Namer) SymbolID(ctx context.Context, doc model.Document, compiled bool, strike string, cache *inherit.Cache) (string, bool, error) {
	if doc.IsAbstract() {
		return "", false, nil
	}
	full, err := n.compile(ctx, doc, compiled, cache)
	if err != nil {
		return "", false, err
	}
	id, ok := SymbolID(full, n.refs, strike)
	return id, ok, nil
}

// ExpiryTime returns the UTC expiry of doc, compiling it first when needed.
func (n *Namer) ExpiryTime(ctx context.Context, doc model.Document, compiled bool, cache *inherit.Cache) (string, bool, error) {
	full, err := n.compile(ctx, doc, compiled, cache)
	if err != nil {
		return "", false, err
	}
	ts, ok := ExpiryTime(full, n.refs)
	return ts, ok, nil
}

func (n *Namer) compile(ctx context.Context, doc model.Document, compiled bool, cache *inherit.Cache) (model.Document, error) {
	if compiled {
		return doc, nil
	}
	return n.compiler.Build(ctx, inherit.ByDocument(doc), true, cache)
}
