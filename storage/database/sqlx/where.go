package sqlxrepos

import (
	"strconv"
	"strings"

	"github.com/trezcool/soma/core/event"
)

const (
	hasIncompleteTask = `EXISTS (SELECT 1 FROM jsonb_array_elements(tasks) t WHERE NOT COALESCE((t->>'is_complete')::boolean, FALSE))`
	eventEnd          = `start_at + duration_minutes * INTERVAL '1 minute'`
)

// statusFactsWhere renders the facts part of f. When the window needs it, now is $argN.
func statusFactsWhere(f event.StatusFilter, argN int) string {
	now := "$" + strconv.Itoa(argN)

	conds := make([]string, 0, 3)
	if f.HasIncomplete {
		conds = append(conds, hasIncompleteTask)
	} else {
		conds = append(conds, "NOT "+hasIncompleteTask)
	}
	switch f.Window {
	case event.WindowBefore:
		conds = append(conds, "start_at > "+now)
	case event.WindowDuring:
		conds = append(conds, "start_at <= "+now, now+" < "+eventEnd)
	case event.WindowAfter:
		conds = append(conds, eventEnd+" <= "+now)
	}
	return strings.Join(conds, " AND ")
}

// statusUpdateQuery returns the statement moving f's events to f.Target,
// selecting (matched, modified).
func statusUpdateQuery(f event.StatusFilter) (string, []interface{}) {
	q := `WITH matched AS (
	SELECT id, event_status FROM event WHERE ` + statusFactsWhere(f, 2) + ` FOR UPDATE
), updated AS (
	UPDATE event SET event_status = $1 FROM matched
	WHERE event.id = matched.id AND matched.event_status <> $1
	RETURNING event.id
)
SELECT (SELECT count(*) FROM matched), (SELECT count(*) FROM updated)`

	args := []interface{}{string(f.Target)}
	if f.Window != event.WindowAny {
		args = append(args, f.Now.UTC())
	}
	return q, args
}
