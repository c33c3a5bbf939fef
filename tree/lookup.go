package tree

// GetElementByPath walks dotted numeric path segments from the receiver,
// returning nil on any miss rather than a partial match.
func GetElementByPath(e Element, p Path) Element {
	el, depth := DeepestKnown(e, p)
	if depth != len(p) {
		return nil
	}
	return el
}

// DeepestKnown walks p's segments from e as far as they already resolve
// locally, returning the deepest element reached and how many segments
// matched. depth == len(p) means p resolved fully; a shorter depth marks
// where the local mirror runs out of knowledge, the starting point for a
// discovery walk against the peer.
func DeepestKnown(e Element, p Path) (Element, int) {
	cur := e
	for i, n := range p {
		next := cur.GetElementByNumber(n)
		if next == nil {
			return cur, i
		}
		cur = next
	}
	return cur, len(p)
}
