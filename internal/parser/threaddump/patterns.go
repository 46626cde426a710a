package threaddump

import (
	"regexp"
	"strings"

	"github.com/threaddump-analysis/pkg/model"
)

const (
	// stateMarker identifies the line carrying the thread state.
	stateMarker = "java.lang.Thread.State"

	ownableSyncMarker = "Locked ownable synchronizers"
)

var (
	tidPattern   = regexp.MustCompile(`(?i)tid=(0x[0-9a-f]+)`)
	nidPattern   = regexp.MustCompile(`(?i)nid=(0x[0-9a-f]+)`)
	prioPattern  = regexp.MustCompile(`\bprio=(\d+)`)
	stuckPattern = regexp.MustCompile(`(?i)\[STUCK\]`)
	lockPattern  = regexp.MustCompile(`(?i)<0x[0-9a-f]+>`)
)

// lockPrefixes maps the leading text of a lock line to its relation.
var lockPrefixes = []struct {
	prefix   string
	relation model.LockRelation
}{
	{"- locked", model.LockRelationHeld},
	{"- waiting to lock", model.LockRelationWaitingFor},
	{"- waiting to re-lock", model.LockRelationWaitingFor},
	{"- parking to wait for", model.LockRelationWaitingFor},
	{"- waiting on", model.LockRelationWaitingOn},
}

// classifyLockLine returns the relation expressed by a trimmed lock line.
// Entries listed under "Locked ownable synchronizers" are held.
func classifyLockLine(trimmed string, inOwnableSection bool) model.LockRelation {
	for _, p := range lockPrefixes {
		if strings.HasPrefix(trimmed, p.prefix) {
			return p.relation
		}
	}
	if inOwnableSection && strings.HasPrefix(trimmed, "- <") {
		return model.LockRelationHeld
	}
	return model.LockRelationUnknown
}

// headerName returns the quoted thread name that starts a header line.
func headerName(header string) (string, bool) {
	h := strings.TrimLeft(header, " \t")
	if !strings.HasPrefix(h, `"`) {
		return "", false
	}
	end := strings.IndexByte(h[1:], '"')
	if end <= 0 {
		return "", false
	}
	return h[1 : end+1], true
}

// extractState returns the state token of a line containing stateMarker.
func extractState(line string) model.ThreadState {
	idx := strings.Index(line, stateMarker+":")
	if idx < 0 {
		return model.ThreadStateUnknown
	}
	fields := strings.Fields(line[idx+len(stateMarker)+1:])
	if len(fields) == 0 {
		return model.ThreadStateUnknown
	}
	return model.ThreadState(fields[0])
}
