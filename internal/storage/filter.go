package storage

import (
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ashita-ai/runexport/internal/model"
)

// Predicate is one composable piece of a WHERE clause. SQL references its
// values only through named placeholders bound from Args, so user input never
// reaches the query text. The zero Predicate adds no constraint.
type Predicate struct {
	SQL  string
	Args pgx.NamedArgs
}

// IsEmpty reports whether p constrains nothing.
func (p Predicate) IsEmpty() bool {
	return strings.TrimSpace(p.SQL) == ""
}

// basePredicate scopes every export to one app and to LLM runs.
func basePredicate(appID string) Predicate {
	return Predicate{
		SQL:  "r.app = @app_id AND r.type = @run_type",
		Args: pgx.NamedArgs{"app_id": appID, "run_type": model.RunTypeLLM},
	}
}

// SearchPredicate matches runs whose input, output or error contains search
// as a case-insensitive substring of their text form.
func SearchPredicate(search string) Predicate {
	if search == "" {
		return Predicate{}
	}
	return Predicate{
		SQL: `(r.input::text ILIKE @search
			OR r.output::text ILIKE @search
			OR r.error::text ILIKE @search)`,
		Args: pgx.NamedArgs{"search": "%" + escapeLike(search) + "%"},
	}
}

// ModelsPredicate restricts runs to the given model names.
func ModelsPredicate(models []string) Predicate {
	if len(models) == 0 {
		return Predicate{}
	}
	return Predicate{
		SQL:  "r.name = ANY(@models)",
		Args: pgx.NamedArgs{"models": models},
	}
}

// TagsPredicate keeps runs sharing at least one tag with tags.
func TagsPredicate(tags []string) Predicate {
	if len(tags) == 0 {
		return Predicate{}
	}
	return Predicate{
		SQL:  "r.tags && @tags",
		Args: pgx.NamedArgs{"tags": tags},
	}
}

// And joins the non-empty predicates with AND. Argument names must be unique
// across predicates; a later predicate's value wins on collision.
func And(preds ...Predicate) Predicate {
	var clauses []string
	args := pgx.NamedArgs{}
	for _, p := range preds {
		if p.IsEmpty() {
			continue
		}
		clauses = append(clauses, p.SQL)
		for k, v := range p.Args {
			args[k] = v
		}
	}
	return Predicate{SQL: strings.Join(clauses, "\n  AND "), Args: args}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern using the
// default backslash escape character.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
