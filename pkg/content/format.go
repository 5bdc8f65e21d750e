package content

import (
	"fmt"
	"strings"
)

// String dumps the tree one node per line with its delta marker.
func (n *Node) String() string {
	var b strings.Builder
	n.format(&b, 0)
	return b.String()
}

func (n *Node) format(b *strings.Builder, depth int) {
	name := n.Name()
	switch {
	case n.label != "":
		name = "=> " + n.label
	case n.path == "":
		name = fmt.Sprintf("<%s:%s>", n.item, n.exporterType)
	case n.kind == KindFolder:
		name += "/"
	}
	fmt.Fprintf(b, "%s %s%s\n", n.delta.Marker(), strings.Repeat("  ", depth), name)
	for _, c := range n.children {
		c.format(b, depth+1)
	}
}
