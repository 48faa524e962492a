package domain

import "fmt"

type nodeKind uint8

const (
	nodeProvider nodeKind = iota
	nodeSynthetic
)

// NodeRef identifies a road-graph node. Provider-assigned ids and the
// synthetic ids injected for route endpoints live in separate namespaces,
// so a provider node can never collide with an injected one.
//
// NodeRef is comparable and safe to use as a map key.
type NodeRef struct {
	kind      nodeKind
	provider  int64
	synthetic string
}

// ProviderRef wraps a map-data provider node id.
func ProviderRef(id int64) NodeRef {
	return NodeRef{kind: nodeProvider, provider: id}
}

// SyntheticRef wraps a router-injected node tag (e.g. "origin").
func SyntheticRef(tag string) NodeRef {
	return NodeRef{kind: nodeSynthetic, synthetic: tag}
}

// Provider returns the provider id and whether this ref holds one.
func (r NodeRef) Provider() (int64, bool) {
	return r.provider, r.kind == nodeProvider
}

func (r NodeRef) IsSynthetic() bool { return r.kind == nodeSynthetic }

func (r NodeRef) String() string {
	if r.kind == nodeSynthetic {
		return "@" + r.synthetic
	}
	return fmt.Sprintf("n%d", r.provider)
}
