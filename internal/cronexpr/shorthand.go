package cronexpr

import (
	"strings"

	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
	"github.com/robfig/cron/v3"
)

// descriptorParser only needs to accept @hourly/@daily/@weekly/@monthly/
// @yearly/@annually — it is never used for matching, only for translating
// the shorthand into a 5-field expression that our own Parse then owns.
var descriptorParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// descriptorExpansions maps the handful of standard descriptors to their
// canonical 5-field form. robfig/cron parses descriptors into a *SpecSchedule
// we can't introspect directly, so we special-case the known set rather than
// round-tripping through its internal representation.
var descriptorExpansions = map[string]string{
	"@yearly":   "0 0 1 1 *",
	"@annually": "0 0 1 1 *",
	"@monthly":  "0 0 1 * *",
	"@weekly":   "0 0 * * 0",
	"@daily":    "0 0 * * *",
	"@midnight": "0 0 * * *",
	"@hourly":   "0 * * * *",
}

// ExpandShorthand accepts either a plain 5-field cron expression, one of the
// standard "@hourly"/"@daily"/... descriptors, or "@every <duration>", and
// returns a 5-field expression plus, for "@every", the literal interval
// string (since an interval has no honest 5-field cron representation).
//
// This is a CLI/UX convenience layer only: the scheduler's matching engine
// (Schedule.Matches / NextFireAfter) never sees anything but a validated
// 5-field expression.
func ExpandShorthand(expr string) (cronExpr string, interval string, err error) {
	trimmed := strings.TrimSpace(expr)

	if strings.HasPrefix(trimmed, "@every ") {
		d := strings.TrimSpace(strings.TrimPrefix(trimmed, "@every "))
		if d == "" {
			return "", "", horcruxerr.ValidationErr("invalid descriptor %q: @every requires a duration", expr)
		}
		return "", d, nil
	}

	if expanded, ok := descriptorExpansions[trimmed]; ok {
		return expanded, "", nil
	}

	if strings.HasPrefix(trimmed, "@") {
		// Unknown descriptor — let robfig/cron's parser produce a clear
		// error message rather than inventing our own.
		if _, perr := descriptorParser.Parse(trimmed); perr != nil {
			return "", "", horcruxerr.ValidationErr("invalid cron descriptor %q: %v", expr, perr)
		}
		return "", "", horcruxerr.ValidationErr("unsupported cron descriptor %q", expr)
	}

	return trimmed, "", nil
}
