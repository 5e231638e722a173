package frontmatter

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Safety bounds applied to frontmatter YAML before it is decoded. These
// exist to keep the parser's time and memory bounded against adversarial
// input (deep nesting, huge sequences, alias amplification / "billion
// laughs") rather than to enforce any schema.
const (
	MaxDepth        = 128
	MaxSequenceLen  = 10_000
	MaxAliasExpand  = 20
	MaxScalarLength = 1 << 20 // 1 MiB
)

// CheckBounds walks the raw YAML document tree (without resolving it into a
// Go value) and rejects documents that exceed the bounds above.
func CheckBounds(yamlBytes []byte) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(yamlBytes, &doc); err != nil {
		// Malformed YAML is reported by the real decode pass; bounds
		// checking only needs to reject well-formed-but-adversarial trees.
		return nil
	}
	aliasHits := 0
	return checkNode(&doc, 0, &aliasHits)
}

func checkNode(n *yaml.Node, depth int, aliasHits *int) error {
	if n == nil {
		return nil
	}
	if depth > MaxDepth {
		return fmt.Errorf("yaml nesting exceeds %d levels", MaxDepth)
	}

	switch n.Kind {
	case yaml.AliasNode:
		*aliasHits++
		if *aliasHits > MaxAliasExpand {
			return fmt.Errorf("yaml alias expansion exceeds %d references", MaxAliasExpand)
		}
		return checkNode(n.Alias, depth+1, aliasHits)
	case yaml.ScalarNode:
		if len(n.Value) > MaxScalarLength {
			return fmt.Errorf("yaml scalar exceeds %d bytes", MaxScalarLength)
		}
		return nil
	case yaml.SequenceNode:
		if len(n.Content) > MaxSequenceLen {
			return fmt.Errorf("yaml sequence exceeds %d items", MaxSequenceLen)
		}
	case yaml.MappingNode:
		if len(n.Content) > MaxSequenceLen*2 {
			return fmt.Errorf("yaml mapping exceeds %d entries", MaxSequenceLen)
		}
	}

	for _, child := range n.Content {
		if err := checkNode(child, depth+1, aliasHits); err != nil {
			return err
		}
	}
	return nil
}
