package schema

import (
	"errors"
	"fmt"
	"regexp"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether s is a plain table or column name.
func ValidIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// Validate checks that every name in d is a plain identifier and every
// cast is known. All problems are reported together.
func Validate(d *Definition) error {
	var errs []error

	check := func(kind, name string) {
		if !ValidIdentifier(name) {
			errs = append(errs, fmt.Errorf("%s: invalid %s name %q", d.Name, kind, name))
		}
	}

	check("table", d.Table)
	check("primary key", d.PrimaryKey)
	for _, f := range d.Fillable {
		check("fillable field", f)
	}
	for _, f := range d.Hidden {
		check("hidden field", f)
	}
	for f, c := range d.Casts {
		check("cast field", f)
		if !c.Valid() {
			errs = append(errs, fmt.Errorf("%s: unknown cast %q for field %s", d.Name, c, f))
		}
	}

	seen := make(map[string]bool, len(d.Relations))
	for _, rel := range d.Relations {
		if seen[rel.Name] {
			errs = append(errs, fmt.Errorf("%s: duplicate relation %q", d.Name, rel.Name))
		}
		seen[rel.Name] = true
		check("relation foreign key", rel.ForeignKey)
		check("relation local key", rel.LocalKey)
	}

	return errors.Join(errs...)
}
