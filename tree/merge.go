package tree

// Qualified is implemented by wire types that carry an absolute numeric
// path rather than relying on positional parent containment (ember's
// QualifiedNode, QualifiedParameter, QualifiedMatrix, QualifiedFunction).
// Update canonicalizes a qualified fragment by installing it at the same
// storage location a positional sequence reaching the same path would
// occupy, per the tree invariant that exactly one canonical form is kept
// per path.
type Qualified interface {
	QualifiedPath() Path
}

// Update merges fragment into root in place: scalar fields present on a
// fragment element overwrite the corresponding field on the matching
// tree element, absent fields are preserved, and children are merged
// recursively by number. Children carrying a Qualified path are resolved
// against root directly regardless of where in the fragment tree they
// appear, so a response mixing qualified and positional children in one
// pass still lands at a single canonical location each.
func Update(root Element, fragment Element) error {
	return mergeInto(root, fragment, root)
}

func mergeInto(dst, fragment, root Element) error {
	dst.ApplyScalars(fragment)

	for _, child := range fragment.Children() {
		if q, ok := child.(Qualified); ok {
			if p := q.QualifiedPath(); len(p) > 0 {
				if err := installQualified(root, p, child); err != nil {
					return err
				}
				continue
			}
		}

		existing := dst.GetElementByNumber(child.Number())
		if existing != nil {
			if err := mergeInto(existing, child, root); err != nil {
				return err
			}
			continue
		}
		if err := dst.AddChild(child); err != nil {
			return err
		}
	}
	return nil
}

func installQualified(root Element, p Path, fragment Element) error {
	ancestor := root
	if ancestorPath, ok := p.Parent(); ok && len(ancestorPath) > 0 {
		ancestor = GetElementByPath(root, ancestorPath)
		if ancestor == nil {
			return &Error{Op: "Update", Path: p.String(), Err: ErrPathNotFound}
		}
	}

	last, ok := p.Last()
	if !ok {
		return &Error{Op: "Update", Path: p.String(), Err: ErrInvalidPath}
	}
	fragment.SetNumber(last)

	if existing := ancestor.GetElementByNumber(last); existing != nil {
		return mergeInto(existing, fragment, root)
	}
	return ancestor.AddChild(fragment)
}
