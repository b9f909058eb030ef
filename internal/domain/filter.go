package domain

// Matches reports whether a record satisfies the filter. All present
// constraints must hold; absent or empty ones impose none. The year
// bound applies only when both ends are set.
func (p FilterParams) Matches(r DataRecord) bool {
	if p.YearFrom != nil && p.YearTo != nil {
		y := r.PurchaseDate.Year()
		if y < *p.YearFrom || y > *p.YearTo {
			return false
		}
	}
	if len(p.Companies) > 0 && !contains(p.Companies, r.Brand) {
		return false
	}
	if len(p.Categories) > 0 && !contains(p.Categories, r.Category) {
		return false
	}
	return true
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
