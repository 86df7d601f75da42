package history

import (
	"fmt"
	"strconv"
	"strings"
)

// RefResolver resolves user-friendly references to record IDs
type RefResolver struct {
	store *Store
}

// NewRefResolver creates a new reference resolver
func NewRefResolver(store *Store) *RefResolver {
	return &RefResolver{store: store}
}

// Resolve converts a user-friendly reference to a record ID
//
// Supported references:
//   - "@last" - most recent record
//   - "@first" - oldest record
//   - "1", "2", "3" - by index (1-based, newest first)
//   - full ULID or a unique ID prefix of at least 6 characters
//   - "substring" - match on product name or HS code (error if ambiguous)
func (r *RefResolver) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)

	if ref == "" {
		return "", fmt.Errorf("empty reference")
	}

	records, err := r.store.List()
	if err != nil {
		return "", fmt.Errorf("failed to list records: %w", err)
	}

	if len(records) == 0 {
		return "", fmt.Errorf("no records found")
	}

	switch strings.ToLower(ref) {
	case "@last":
		return records[0].ID, nil
	case "@first":
		return records[len(records)-1].ID, nil
	}

	// Short HS headings such as "9405" look like indexes
	if id, ok, err := matchHSCode(records, ref); ok {
		return id, err
	}

	if index, err := strconv.Atoi(ref); err == nil && len(ref) < 6 {
		if index < 1 || index > len(records) {
			return "", fmt.Errorf("index %d out of range (1-%d)", index, len(records))
		}
		return records[index-1].ID, nil
	}

	upper := strings.ToUpper(ref)
	if len(ref) >= 6 {
		var byID []*Record
		for _, rec := range records {
			if rec.ID == upper {
				return rec.ID, nil
			}
			if strings.HasPrefix(rec.ID, upper) {
				byID = append(byID, rec)
			}
		}
		if len(byID) == 1 {
			return byID[0].ID, nil
		}
		if len(byID) > 1 {
			return "", fmt.Errorf("ID prefix '%s' is ambiguous (%d records)", ref, len(byID))
		}
	}

	refLower := strings.ToLower(ref)
	var matches []*Record
	for _, rec := range records {
		if strings.Contains(strings.ToLower(rec.Product.Name), refLower) || rec.Product.HSCode == ref {
			matches = append(matches, rec)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no record matching '%s'", ref)
	case 1:
		return matches[0].ID, nil
	default:
		var titles []string
		for _, m := range matches {
			titles = append(titles, fmt.Sprintf("'%s'", m.Title()))
		}
		return "", fmt.Errorf("multiple records match '%s': %s. Use ID or be more specific",
			ref, strings.Join(titles, ", "))
	}
}

// matchHSCode reports whether any record has exactly ref as HS code
func matchHSCode(records []*Record, ref string) (string, bool, error) {
	var matches []*Record
	for _, rec := range records {
		if rec.Product.HSCode == ref {
			matches = append(matches, rec)
		}
	}
	switch len(matches) {
	case 0:
		return "", false, nil
	case 1:
		return matches[0].ID, true, nil
	}
	return "", true, fmt.Errorf("HS code '%s' matches %d records. Use ID or index", ref, len(matches))
}

// ResolveRecord resolves a reference and loads the record
func (r *RefResolver) ResolveRecord(ref string) (*Record, error) {
	id, err := r.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return r.store.Get(id)
}

// ListAliases returns information about supported references
func ListAliases() string {
	return `Supported references:
  @last          Most recent record
  @first         Oldest record
  1, 2, 3        By index (1-based, from most recent)
  01J...         Record ID or unique ID prefix
  "text"         Product name substring or exact HS code`
}
