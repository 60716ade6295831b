// Package filter compiles an alert's saved criteria into a SQL predicate
// set executable against the grant catalog.
package filter

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Predicate is an ordered conjunction of SQL conditions with positional
// arguments. Conditions are written with ? placeholders and rewritten to
// numbered Postgres placeholders when the clause is rendered.
type Predicate struct {
	conds []string
	args  []interface{}
}

// And appends a condition to the predicate. The expression may contain ?
// placeholders, one per argument.
func (p *Predicate) And(expr string, args ...interface{}) {
	p.conds = append(p.conds, expr)
	p.args = append(p.args, args...)
}

// Clause renders the predicate as a WHERE-clause body with $n placeholders
// and returns the matching argument list.
func (p *Predicate) Clause() (string, []interface{}) {
	var sb strings.Builder
	n := 0
	for i, cond := range p.conds {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		for _, ch := range cond {
			if ch == '?' {
				n++
				sb.WriteString(fmt.Sprintf("$%d", n))
			} else {
				sb.WriteRune(ch)
			}
		}
	}
	return sb.String(), p.args
}

// Args returns the accumulated argument list.
func (p *Predicate) Args() []interface{} {
	return p.args
}

// Criteria holds the optional filter fields of an alert. A zero-value
// Criteria compiles to the base predicate alone and matches broadly;
// that is intentional, not an error.
type Criteria struct {
	Keyword          *string
	Category         *string
	Agency           *string
	StatusPosted     bool
	StatusForecasted bool
	DueInDays        *int
	MinAmount        *float64
	MaxAmount        *float64
}

// Compile translates criteria into a catalog predicate. Every present
// criterion is ANDed onto the base predicate (is_active = TRUE).
// A malformed criterion fails compilation for this alert only.
func Compile(c Criteria) (*Predicate, error) {
	p := &Predicate{}
	p.And("is_active = TRUE")

	if c.Keyword != nil && strings.TrimSpace(*c.Keyword) != "" {
		kw := "%" + strings.TrimSpace(*c.Keyword) + "%"
		p.And("(title ILIKE ? OR description ILIKE ?)", kw, kw)
	}

	if c.Category != nil && *c.Category != "" {
		p.And("category = ?", *c.Category)
	}

	if c.Agency != nil && strings.TrimSpace(*c.Agency) != "" {
		p.And("agency ILIKE ?", "%"+strings.TrimSpace(*c.Agency)+"%")
	}

	statuses := statusSet(c.StatusPosted, c.StatusForecasted)
	p.And("status = ANY(?)", pq.Array(statuses))

	if c.DueInDays != nil {
		if *c.DueInDays < 0 {
			return nil, fmt.Errorf("invalid due_in_days window: %d", *c.DueInDays)
		}
		p.And("close_date >= NOW() AND close_date <= NOW() + make_interval(days => ?)", *c.DueInDays)
	}

	if c.MinAmount != nil {
		if *c.MinAmount < 0 {
			return nil, fmt.Errorf("invalid min_amount: %f", *c.MinAmount)
		}
		p.And("award_ceiling >= ?", *c.MinAmount)
	}

	if c.MaxAmount != nil {
		if *c.MaxAmount < 0 {
			return nil, fmt.Errorf("invalid max_amount: %f", *c.MaxAmount)
		}
		p.And("award_floor <= ?", *c.MaxAmount)
	}

	return p, nil
}

// statusSet returns the status memberships implied by the flags.
// Neither flag set means both statuses match.
func statusSet(posted, forecasted bool) []string {
	switch {
	case posted && !forecasted:
		return []string{"posted"}
	case forecasted && !posted:
		return []string{"forecasted"}
	default:
		return []string{"posted", "forecasted"}
	}
}
