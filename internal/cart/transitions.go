package cart

// Pure cart transitions. Every function returns a fresh state with totals
// recomputed and never mutates its input, so the store (and its tests) can
// treat states as values.

// Add merges the item into the state. An existing line with the same
// normalized key has its quantity incremented; otherwise the item is
// appended in arrival order.
func Add(s State, item LineItem) State {
	next := s.clone()
	if item.Quantity <= 0 {
		return recomputeTotals(next)
	}

	key := item.lineKey()
	for i := range next.Items {
		if next.Items[i].lineKey() == key {
			next.Items[i].Quantity += item.Quantity
			return recomputeTotals(next)
		}
	}
	next.Items = append(next.Items, item.clone())
	return recomputeTotals(next)
}

// UpdateQuantity sets the quantity of the line matching productID (and
// metadata, when non-nil). A quantity of zero or less removes the line. The
// second return reports whether any line matched.
func UpdateQuantity(s State, productID string, quantity int, metadata map[string]string) (State, bool) {
	if quantity <= 0 {
		return Remove(s, productID, metadata)
	}

	next := s.clone()
	changed := false
	for i := range next.Items {
		if !matches(next.Items[i], productID, metadata) {
			continue
		}
		next.Items[i].Quantity = quantity
		changed = true
	}
	if !changed {
		return s, false
	}
	return recomputeTotals(next), true
}

// Remove drops lines matching productID; when metadata is non-nil only the
// exact metadata match is removed, leaving other lines for the same product
// untouched. The second return reports whether any line was removed.
func Remove(s State, productID string, metadata map[string]string) (State, bool) {
	next := s.clone()
	kept := next.Items[:0]
	removed := false
	for _, item := range next.Items {
		if matches(item, productID, metadata) {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	if !removed {
		return s, false
	}
	next.Items = kept
	return recomputeTotals(next), true
}

// Clear empties the cart.
func Clear(State) State {
	return recomputeTotals(Empty())
}

func matches(item LineItem, productID string, metadata map[string]string) bool {
	if item.ProductID != productID {
		return false
	}
	if metadata == nil {
		return true
	}
	return item.lineKey() == LineKey(productID, metadata)
}
