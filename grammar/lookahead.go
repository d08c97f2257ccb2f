package grammar

// LookaheadContains returns whether the restriction rule permits the terminal
// t to come next. A nil rule permits everything.
func LookaheadContains(rule *LookaheadRule, t string) bool {
	if rule == nil {
		return true
	}
	if rule.Positive {
		return rule.Set.Has(t)
	}
	return !rule.Set.Has(t)
}

// LookaheadIntersect combines two lookahead restrictions into a single rule
// that permits exactly the terminals both rules permit. A nil rule is the
// identity. Two negative rules stay negative; every other combination yields
// a positive rule.
func LookaheadIntersect(a, b *LookaheadRule) *LookaheadRule {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}

	if a.Positive {
		if b.Positive {
			return &LookaheadRule{Set: a.Set.Intersection(b.Set), Positive: true}
		}
		return &LookaheadRule{Set: a.Set.Difference(b.Set), Positive: true}
	}
	if b.Positive {
		return &LookaheadRule{Set: b.Set.Difference(a.Set), Positive: true}
	}
	return &LookaheadRule{Set: a.Set.Union(b.Set), Positive: false}
}
